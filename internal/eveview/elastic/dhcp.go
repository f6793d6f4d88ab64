package elastic

import (
	"context"
	"fmt"

	"github.com/eveview/eveview/internal/eveview/core"
)

// ReportDHCP runs one of the DHCP sub-reports over events matching the
// common query parameters. Unknown sub-report names fail with a
// descriptive error.
func (s *EventStore) ReportDHCP(ctx context.Context, what string, params core.EventQueryParams) (JSON, error) {
	filters := []JSON{TermFilter(s.MapField("event_type"), "dhcp")}

	if params.MinTimestamp != nil {
		filters = append(filters, TimestampGteFilter(*params.MinTimestamp))
	}
	if params.QueryString != "" {
		filters = append(filters, QueryStringQuery(params.QueryString))
	}

	switch what {
	case "ack":
		return s.dhcpReportByType(ctx, filters, "ack")
	case "request":
		return s.dhcpReportByType(ctx, filters, "request")
	case "servers":
		return s.dhcpServers(ctx, filters)
	case "mac":
		return s.dhcpMac(ctx, filters)
	case "ip":
		return s.dhcpIP(ctx, filters)
	default:
		return nil, fmt.Errorf("no DHCP report for %s", what)
	}
}

// dhcpReportByType returns the latest DHCP event of the given DHCP type
// for each client MAC address.
func (s *EventStore) dhcpReportByType(ctx context.Context, filters []JSON, dhcpType string) (JSON, error) {
	filters = append(filters, TermFilter(s.MapField("dhcp.dhcp_type"), dhcpType))
	request := NewRequest()
	SetFilters(request, filters)
	request["size"] = 0
	request["aggs"] = JSON{
		"client_mac": JSON{
			"terms": JSON{
				"field": s.MapField("dhcp.client_mac"),
				"size":  10000,
			},
			"aggs": JSON{
				"latest": JSON{
					"top_hits": JSON{
						"sort": []JSON{{"@timestamp": JSON{"order": "desc"}}},
						"size": 1,
					},
				},
			},
		},
	}

	response, err := s.searchJSON(ctx, request)
	if err != nil {
		return nil, err
	}

	results := []JSON{}
	for _, bucket := range core.GetArray(response, "aggregations", "client_mac", "buckets") {
		hits := core.GetArray(bucket, "latest", "hits", "hits")
		if len(hits) == 0 {
			continue
		}
		latest := core.GetPath(hits[0], "_source")
		results = append(results, s.mapDHCPEvent(latest))
	}
	return JSON{"data": results}, nil
}

// dhcpServers returns all IP addresses that appear to be DHCP servers.
func (s *EventStore) dhcpServers(ctx context.Context, filters []JSON) (JSON, error) {
	filters = append(filters, TermFilter(s.MapField("dhcp.type"), "reply"))
	request := NewRequest()
	SetFilters(request, filters)
	request["size"] = 0
	request["aggs"] = JSON{
		"servers": JSON{
			"terms": JSON{
				"field": s.MapField("src_ip"),
				"size":  10000,
			},
		},
	}

	response, err := s.searchJSON(ctx, request)
	if err != nil {
		return nil, err
	}

	results := []JSON{}
	for _, bucket := range core.GetArray(response, "aggregations", "servers", "buckets") {
		results = append(results, JSON{
			"ip":    core.GetPath(bucket, "key"),
			"count": core.GetPath(bucket, "doc_count"),
		})
	}
	return JSON{"data": results}, nil
}

// dhcpMac returns, for each client MAC address seen, the list of IP
// addresses the MAC has been assigned.
func (s *EventStore) dhcpMac(ctx context.Context, filters []JSON) (JSON, error) {
	filters = append(filters, TermFilter(s.MapField("dhcp.type"), "reply"))
	request := NewRequest()
	SetFilters(request, filters)
	request["size"] = 0
	request["aggs"] = JSON{
		"client_mac": JSON{
			"terms": JSON{
				"field": s.MapField("dhcp.client_mac"),
				"size":  10000,
			},
			"aggs": JSON{
				"assigned_ip": JSON{
					"terms": JSON{
						"field": s.MapField("dhcp.assigned_ip"),
					},
				},
			},
		},
	}

	response, err := s.searchJSON(ctx, request)
	if err != nil {
		return nil, err
	}

	results := []JSON{}
	for _, bucket := range core.GetArray(response, "aggregations", "client_mac", "buckets") {
		addrs := []string{}
		for _, ipBucket := range core.GetArray(bucket, "assigned_ip", "buckets") {
			if ip, ok := core.GetPath(ipBucket, "key").(string); ok {
				// Not really interested in 0.0.0.0.
				if ip != "0.0.0.0" {
					addrs = append(addrs, ip)
				}
			}
		}
		results = append(results, JSON{
			"mac":   core.GetPath(bucket, "key"),
			"addrs": addrs,
		})
	}
	return JSON{"data": results}, nil
}

// dhcpIP returns, for each assigned IP address, the list of MAC addresses
// that have been assigned that address.
func (s *EventStore) dhcpIP(ctx context.Context, filters []JSON) (JSON, error) {
	filters = append(filters, TermFilter(s.MapField("dhcp.type"), "reply"))
	request := NewRequest()
	SetFilters(request, filters)
	request["size"] = 0
	request["aggs"] = JSON{
		"assigned_ip": JSON{
			"terms": JSON{
				"field": s.MapField("dhcp.assigned_ip"),
				"size":  10000,
			},
			"aggs": JSON{
				"client_mac": JSON{
					"terms": JSON{
						"field": s.MapField("dhcp.client_mac"),
					},
				},
			},
		},
	}

	response, err := s.searchJSON(ctx, request)
	if err != nil {
		return nil, err
	}

	results := []JSON{}
	for _, bucket := range core.GetArray(response, "aggregations", "assigned_ip", "buckets") {
		if ip, ok := core.GetPath(bucket, "key").(string); ok && ip == "0.0.0.0" {
			continue
		}
		macs := []string{}
		for _, macBucket := range core.GetArray(bucket, "client_mac", "buckets") {
			if mac, ok := core.GetPath(macBucket, "key").(string); ok {
				macs = append(macs, mac)
			}
		}
		results = append(results, JSON{
			"ip":   core.GetPath(bucket, "key"),
			"macs": macs,
		})
	}
	return JSON{"data": results}, nil
}

// mapDHCPEvent reshapes a raw DHCP event into the flat report entry,
// accounting for the ECS field layout.
func (s *EventStore) mapDHCPEvent(event any) JSON {
	if s.ECS {
		return JSON{
			"timestamp":   core.GetPath(event, "@timestamp"),
			"sensor":      core.GetPath(event, "agent", "hostname"),
			"client_mac":  core.GetPath(event, "suricata", "eve", "dhcp", "client_mac"),
			"hostname":    core.GetPath(event, "suricata", "eve", "dhcp", "hostname"),
			"lease_time":  core.GetPath(event, "suricata", "eve", "dhcp", "lease_time"),
			"assigned_ip": core.GetPath(event, "suricata", "eve", "dhcp", "assigned_ip"),
		}
	}
	return JSON{
		"timestamp":   core.GetPath(event, "timestamp"),
		"sensor":      core.GetPath(event, "host"),
		"client_mac":  core.GetPath(event, "dhcp", "client_mac"),
		"hostname":    core.GetPath(event, "dhcp", "hostname"),
		"lease_time":  core.GetPath(event, "dhcp", "lease_time"),
		"assigned_ip": core.GetPath(event, "dhcp", "assigned_ip"),
	}
}
