package elastic

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/eveview/eveview/internal/eveview/core"
	"github.com/eveview/eveview/internal/eveview/logger"
	"github.com/eveview/eveview/internal/eveview/searchquery"
)

// EventStore searches and mutates events stored in Elasticsearch.
type EventStore struct {
	BaseIndex     string
	IndexPattern  string
	ECS           bool
	NoIndexSuffix bool

	client *Client
}

// NewEventStore returns an event store over the given client and base
// index. Unless the index suffix is disabled, queries address the daily
// indexes via a wildcard pattern.
func NewEventStore(client *Client, baseIndex string, ecs bool, noIndexSuffix bool) *EventStore {
	pattern := baseIndex
	if !noIndexSuffix {
		pattern = baseIndex + "-*"
	}
	return &EventStore{
		BaseIndex:     baseIndex,
		IndexPattern:  pattern,
		ECS:           ecs,
		NoIndexSuffix: noIndexSuffix,
		client:        client,
	}
}

// GetImporter returns a bulk importer writing to the base index.
func (s *EventStore) GetImporter() *Importer {
	return NewImporter(s.client, s.BaseIndex, s.NoIndexSuffix)
}

func (s *EventStore) post(ctx context.Context, path string, body any) (*http.Response, error) {
	return s.client.Post(ctx, fmt.Sprintf("%s/%s", s.IndexPattern, path), body)
}

// Search posts a search body to the store's index pattern.
func (s *EventStore) Search(ctx context.Context, body any) (*http.Response, error) {
	return s.post(ctx, "_search?rest_total_hits_as_int=true&", body)
}

func decode(response *http.Response, into any) error {
	defer response.Body.Close()
	return json.NewDecoder(response.Body).Decode(into)
}

// searchJSON issues a search and decodes the response into a generic
// JSON object.
func (s *EventStore) searchJSON(ctx context.Context, body any) (JSON, error) {
	response, err := s.Search(ctx, body)
	if err != nil {
		return nil, err
	}
	var out JSON
	if err := decode(response, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MapField maps a logical field name to its physical name.
//
// In ECS mode some field names have been changed completely, as happens
// when events pass through Filebeat with the Suricata module. For the
// plain eve layout some fields still need to be mapped to their keyword
// variant to support exact matching.
func (s *EventStore) MapField(name string) string {
	if s.ECS {
		switch name {
		case "dest_ip":
			return "destination.address"
		case "dest_port":
			return "destination.port"
		case "dns.rrname":
			return "dns.question.name"
		case "dns.rrtype":
			return "dns.question.type"
		case "dns.rcode":
			return "dns.response_code"
		case "dns.type":
			return name
		case "src_ip":
			return "source.address"
		case "src_port":
			return "source.port"
		default:
			if len(name) >= 8 && name[:8] == "suricata" {
				// Don't remap.
				return name
			}
			return "suricata.eve." + name
		}
	}
	switch name {
	case "alert.category",
		"alert.signature",
		"app_proto",
		"dest_ip",
		"dhcp.assigned_ip",
		"dhcp.client_mac",
		"dns.rrname",
		"dns.rrtype",
		"dns.rcode",
		"dns.rdata",
		"host",
		"src_ip",
		"ssh.client.software_version",
		"ssh.server.software_version",
		"traffic.id",
		"traffic.label":
		return name + ".keyword"
	default:
		return name
	}
}

// Painless scripts for tag mutation. Add only appends a tag when not
// already present; remove filters it out when present. Both always append
// one history entry.
const (
	addTagsScript = `
	    if (params.tags != null) {
	        if (ctx._source.tags == null) {
	            ctx._source.tags = new ArrayList();
	        }
	        for (tag in params.tags) {
	            if (!ctx._source.tags.contains(tag)) {
	                ctx._source.tags.add(tag);
	            }
	        }
	    }
	    if (ctx._source.evebox == null) {
	        ctx._source.evebox = new HashMap();
	    }
	    if (ctx._source.evebox.history == null) {
	        ctx._source.evebox.history = new ArrayList();
	    }
	    ctx._source.evebox.history.add(params.action);
	`
	removeTagsScript = `
	    if (ctx._source.tags != null) {
	        for (tag in params.tags) {
	            ctx._source.tags.removeIf(entry -> entry == tag);
	        }
	    }
	    if (ctx._source.evebox == null) {
	        ctx._source.evebox = new HashMap();
	    }
	    if (ctx._source.evebox.history == null) {
	        ctx._source.evebox.history = new ArrayList();
	    }
	    ctx._source.evebox.history.add(params.action);
	`
)

// Continue applying the script to other matching documents on a version
// conflict rather than aborting the batch.
const updateByQueryPath = "_update_by_query?refresh=true&conflicts=proceed"

func (s *EventStore) updateByQuery(ctx context.Context, query JSON, script string, tags []string, action *core.HistoryEntry) (*Response, error) {
	if tags == nil {
		tags = []string{}
	}
	body := JSON{
		"query": query,
		"script": JSON{
			"lang":   "painless",
			"inline": script,
			"params": JSON{
				"tags":   tags,
				"action": action,
			},
		},
	}
	response, err := s.post(ctx, updateByQueryPath, body)
	if err != nil {
		return nil, err
	}
	var decoded Response
	if err := decode(response, &decoded); err != nil {
		return nil, err
	}
	return &decoded, nil
}

func (s *EventStore) addTagsByQuery(ctx context.Context, query JSON, tags []string, action *core.HistoryEntry) error {
	response, err := s.updateByQuery(ctx, query, addTagsScript, tags, action)
	if err != nil {
		return err
	}
	if response.Error != nil {
		return &core.ElasticError{Reason: response.Error.Reason}
	}
	// A zero update count is not an error; the filter may legitimately
	// match nothing.
	if response.Updated == nil || *response.Updated == 0 {
		logger.L().Warnw("No events updated", "tags", tags)
	}
	return nil
}

func (s *EventStore) removeTagsByQuery(ctx context.Context, query JSON, tags []string, action *core.HistoryEntry) error {
	response, err := s.updateByQuery(ctx, query, removeTagsScript, tags, action)
	if err != nil {
		return err
	}
	if response.Error != nil {
		return &core.ElasticError{Reason: response.Error.Reason}
	}
	return nil
}

func (s *EventStore) addTagsByAlertGroup(ctx context.Context, group core.AlertGroupSpec, tags []string, action *core.HistoryEntry) error {
	// Exclude documents that already carry the tags so repeated calls
	// don't accumulate duplicate history entries.
	mustNot := []JSON{}
	for _, tag := range tags {
		mustNot = append(mustNot, TermFilter("tags", tag))
	}
	query := JSON{
		"bool": JSON{
			"filter":   s.buildAlertGroupFilter(&group),
			"must_not": mustNot,
		},
	}
	return s.addTagsByQuery(ctx, query, tags, action)
}

func (s *EventStore) removeTagsByAlertGroup(ctx context.Context, group core.AlertGroupSpec, tags []string, action *core.HistoryEntry) error {
	filters := s.buildAlertGroupFilter(&group)
	for _, tag := range tags {
		filters = append(filters, TermFilter("tags", tag))
	}
	query := JSON{
		"bool": JSON{
			"filter": filters,
		},
	}
	return s.removeTagsByQuery(ctx, query, tags, action)
}

func eventIDQuery(eventID string) JSON {
	return JSON{
		"bool": JSON{
			"filter": TermFilter("_id", eventID),
		},
	}
}

func historyEntry(username string, action string) *core.HistoryEntry {
	return &core.HistoryEntry{
		Username:  username,
		Timestamp: FormatTimestamp(time.Now()),
		Action:    action,
	}
}

// ArchiveEventByID tags a single event as archived.
func (s *EventStore) ArchiveEventByID(ctx context.Context, eventID string) error {
	action := historyEntry("anonymous", core.ActionArchived)
	return s.addTagsByQuery(ctx, eventIDQuery(eventID), []string{core.TagArchived}, action)
}

// EscalateEventByID tags a single event as escalated.
func (s *EventStore) EscalateEventByID(ctx context.Context, eventID string) error {
	action := historyEntry("anonymous", core.ActionEscalated)
	return s.addTagsByQuery(ctx, eventIDQuery(eventID), []string{core.TagEscalated}, action)
}

// DeescalateEventByID removes the escalated tag from a single event.
func (s *EventStore) DeescalateEventByID(ctx context.Context, eventID string) error {
	action := historyEntry("anonymous", core.ActionDeescalated)
	return s.removeTagsByQuery(ctx, eventIDQuery(eventID), []string{core.TagEscalated}, action)
}

// CommentEventByID appends a comment to a single event's history without
// changing its tags.
func (s *EventStore) CommentEventByID(ctx context.Context, eventID string, comment string, username string) error {
	action := historyEntry(username, core.ActionComment)
	action.Comment = comment
	return s.addTagsByQuery(ctx, eventIDQuery(eventID), nil, action)
}

// GetEventByID returns the raw hit for the event, or nil if not found.
func (s *EventStore) GetEventByID(ctx context.Context, eventID string) (JSON, error) {
	query := JSON{"query": eventIDQuery(eventID)}
	response, err := s.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	var decoded Response
	if err := decode(response, &decoded); err != nil {
		return nil, err
	}
	if decoded.Error != nil {
		return nil, &core.ElasticError{Reason: decoded.Error.Reason}
	}
	if decoded.Hits != nil {
		if hits, ok := decoded.Hits["hits"].([]any); ok {
			if len(hits) > 0 {
				if hit, ok := hits[0].(map[string]any); ok {
					return hit, nil
				}
			}
			return nil, nil
		}
	}

	// If we get here something in the response was unexpected.
	logger.L().Warnw("Received unexpected response for get event by id",
		"response", decoded)
	return nil, nil
}

// queryStringToFilters converts a user query string into filters. Every
// key passes through MapField before appearing in a generated query.
func (s *EventStore) queryStringToFilters(query string) []JSON {
	var filters []JSON
	for _, element := range searchquery.Parse(query) {
		if element.IsKeyVal() {
			filters = append(filters, TermFilter(s.MapField(element.Key), element.Value))
		} else {
			filters = append(filters, QueryStringQuery(element.Value))
		}
	}
	return filters
}

// buildInboxQuery builds the filtered, tag aware alert listing query with
// its three level aggregation.
func (s *EventStore) buildInboxQuery(options core.AlertQueryOptions) JSON {
	filters := []JSON{
		ExistsFilter(s.MapField("event_type")),
		TermFilter(s.MapField("event_type"), "alert"),
	}
	if options.TimestampGte != nil {
		filters = append(filters, TimestampGteFilter(*options.TimestampGte))
	}
	if options.QueryString != "" {
		filters = append(filters, s.queryStringToFilters(options.QueryString)...)
	}

	mustNot := []JSON{}
	for _, tag := range options.Tags {
		if len(tag) > 0 && tag[0] == '-' {
			tag = tag[1:]
			if tag == "archived" {
				logger.L().Debugw("Rewriting tag", "from", tag, "to", core.TagArchived)
				mustNot = append(mustNot, TermFilter("tags", core.TagArchived))
			} else {
				mustNot = append(mustNot, TermFilter("tags", tag))
			}
		} else if tag == "escalated" {
			logger.L().Debugw("Rewriting tag", "from", tag, "to", core.TagEscalated)
			filters = append(filters, TermFilter("tags", core.TagEscalated))
		} else {
			filters = append(filters, TermFilter("tags", tag))
		}
	}

	return JSON{
		"query": JSON{
			"bool": JSON{
				"filter":   filters,
				"must_not": mustNot,
			},
		},
		"sort": []JSON{{"@timestamp": JSON{"order": "desc"}}},
		"aggs": JSON{
			"signatures": JSON{
				"terms": JSON{"field": s.MapField("alert.signature_id"), "size": 2000},
				"aggs": JSON{
					"sources": JSON{
						"terms": JSON{"field": s.MapField("src_ip"), "size": 1000},
						"aggs": JSON{
							"destinations": JSON{
								"terms": JSON{"field": s.MapField("dest_ip"), "size": 500},
								"aggs": JSON{
									"escalated": JSON{"filter": TermFilter("tags", core.TagEscalated)},
									"newest":    JSON{"top_hits": JSON{"size": 1, "sort": []JSON{{"@timestamp": JSON{"order": "desc"}}}}},
									"oldest":    JSON{"top_hits": JSON{"size": 1, "sort": []JSON{{"@timestamp": JSON{"order": "asc"}}}}},
								},
							},
						},
					},
				},
			},
		},
	}
}

// AlertQuery lists alerts grouped by signature, source and destination,
// flattened to one record per triple.
func (s *EventStore) AlertQuery(ctx context.Context, options core.AlertQueryOptions) (JSON, error) {
	query := s.buildInboxQuery(options)
	response, err := s.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	var decoded Response
	if err := decode(response, &decoded); err != nil {
		return nil, err
	}
	if decoded.Error != nil {
		return nil, &core.ElasticError{Reason: decoded.Error.Reason}
	}

	alerts := []JSON{}
	if decoded.Aggregations != nil {
		for _, sigBucket := range core.GetArray(decoded.Aggregations, "signatures", "buckets") {
			for _, srcBucket := range core.GetArray(sigBucket, "sources", "buckets") {
				for _, destBucket := range core.GetArray(srcBucket, "destinations", "buckets") {
					newest := core.GetPath(destBucket, "newest", "hits", "hits")
					var newestHit any
					if hits, ok := newest.([]any); ok && len(hits) > 0 {
						newestHit = hits[0]
					}
					oldest := core.GetPath(destBucket, "oldest", "hits", "hits")
					var oldestHit any
					if hits, ok := oldest.([]any); ok && len(hits) > 0 {
						oldestHit = hits[0]
					}
					record := JSON{
						"count":          core.GetPath(destBucket, "doc_count"),
						"event":          newestHit,
						"escalatedCount": core.GetPath(destBucket, "escalated", "doc_count"),
						"maxTs":          core.GetPath(newestHit, "_source", "@timestamp"),
						"minTs":          core.GetPath(oldestHit, "_source", "@timestamp"),
					}
					alerts = append(alerts, record)
				}
			}
		}
	} else {
		logger.L().Warnw("Search response has no aggregations")
	}

	return JSON{
		"ecs":    s.ECS,
		"alerts": alerts,
	}, nil
}

// ArchiveByAlertGroup archives all alerts in the group not already
// archived.
func (s *EventStore) ArchiveByAlertGroup(ctx context.Context, group core.AlertGroupSpec) error {
	action := historyEntry("anonymous", core.ActionArchived)
	return s.addTagsByAlertGroup(ctx, group, core.TagsArchived, action)
}

// EscalateByAlertGroup escalates all alerts in the group, recording the
// acting session's username.
func (s *EventStore) EscalateByAlertGroup(ctx context.Context, group core.AlertGroupSpec, session *core.Session) error {
	action := historyEntry(session.Username(), core.ActionEscalated)
	return s.addTagsByAlertGroup(ctx, group, core.TagsEscalated, action)
}

// DeescalateByAlertGroup removes the escalated tags from all alerts in
// the group.
func (s *EventStore) DeescalateByAlertGroup(ctx context.Context, group core.AlertGroupSpec) error {
	action := historyEntry("anonymous", core.ActionDeescalated)
	return s.removeTagsByAlertGroup(ctx, group, core.TagsEscalated, action)
}

// CommentByAlertGroup appends a comment history entry to every alert in
// the group.
func (s *EventStore) CommentByAlertGroup(ctx context.Context, group core.AlertGroupSpec, comment string, username string) error {
	action := historyEntry(username, core.ActionComment)
	action.Comment = comment
	return s.addTagsByAlertGroup(ctx, group, nil, action)
}

// EventQuery returns matching events, newest first unless overridden.
func (s *EventStore) EventQuery(ctx context.Context, params core.EventQueryParams) (JSON, error) {
	filters := []JSON{ExistsFilter(s.MapField("event_type"))}

	if params.EventType != "" {
		filters = append(filters, TermFilter(s.MapField("event_type"), params.EventType))
	}
	if params.QueryString != "" {
		filters = append(filters, s.queryStringToFilters(params.QueryString)...)
	}
	if params.MinTimestamp != nil {
		filters = append(filters, TimestampGteFilter(*params.MinTimestamp))
	}
	if params.MaxTimestamp != nil {
		filters = append(filters, TimestampLteFilter(*params.MaxTimestamp))
	}

	sortBy := params.SortBy
	if sortBy == "" {
		sortBy = "@timestamp"
	}
	order := params.Order
	if order == "" {
		order = "desc"
	}
	size := params.Size
	if size == 0 {
		size = 500
	}

	body := JSON{
		"query": JSON{
			"bool": JSON{
				"filter": filters,
			},
		},
		"sort": []JSON{{sortBy: JSON{"order": order}}},
		"size": size,
	}
	response, err := s.searchJSON(ctx, body)
	if err != nil {
		return nil, err
	}
	return JSON{
		"ecs":  s.ECS,
		"data": core.GetPath(response, "hits", "hits"),
	}, nil
}

// Histogram buckets events over time at the requested granularity. The
// date histogram interval semantics changed in major version 7; the
// cached server version selects the right form.
func (s *EventStore) Histogram(ctx context.Context, params core.HistogramParameters) (JSON, error) {
	var boundMin, boundMax any
	filters := []JSON{ExistsFilter(s.MapField("event_type"))}
	if params.MinTimestamp != nil {
		filters = append(filters, TimestampGteFilter(*params.MinTimestamp))
		boundMin = FormatTimestamp(*params.MinTimestamp)
	}
	if params.MaxTimestamp != nil {
		filters = append(filters, TimestampLteFilter(*params.MaxTimestamp))
		boundMax = FormatTimestamp(*params.MaxTimestamp)
	}
	if params.EventType != "" {
		filters = append(filters, TermFilter(s.MapField("event_type"), params.EventType))
	}
	if params.DNSType != "" {
		filters = append(filters, TermFilter(s.MapField("dns.type"), params.DNSType))
	}
	if params.QueryString != "" {
		filters = append(filters, s.queryStringToFilters(params.QueryString)...)
	}
	if !s.ECS && params.SensorName != "" {
		filters = append(filters, TermFilter(s.MapField("host"), params.SensorName))
	}

	should := []JSON{}
	minShouldMatch := 0
	if params.AddressFilter != "" {
		should = append(should,
			TermFilter(s.MapField("src_ip"), params.AddressFilter),
			TermFilter(s.MapField("dest_ip"), params.AddressFilter))
		minShouldMatch = 1
	}

	interval := "1h"
	switch params.Interval {
	case core.IntervalMinute:
		interval = "1m"
	case core.IntervalHour:
		interval = "1h"
	case core.IntervalDay:
		interval = "1d"
	}

	majorVersion := int64(6)
	if version, err := s.client.GetVersion(ctx); err == nil {
		majorVersion = version.Major
	}
	intervalField := "calendar_interval"
	if majorVersion < 7 {
		intervalField = "interval"
	}
	eventsOverTime := JSON{
		"date_histogram": JSON{
			"field":       "@timestamp",
			intervalField: interval,
			"min_doc_count": 0,
			"extended_bounds": JSON{
				"max": boundMax,
				"min": boundMin,
			},
		},
	}

	body := JSON{
		"query": JSON{
			"bool": JSON{
				"filter":               filters,
				"must_not":             []JSON{TermFilter(s.MapField("event_type"), "stats")},
				"should":               should,
				"minimum_should_match": minShouldMatch,
			},
		},
		"size": 0,
		"sort": []JSON{{"@timestamp": JSON{"order": "desc"}}},
		"aggs": JSON{
			"events_over_time": eventsOverTime,
		},
	}

	response, err := s.searchJSON(ctx, body)
	if err != nil {
		return nil, err
	}
	data := []JSON{}
	for _, bucket := range core.GetArray(response, "aggregations", "events_over_time", "buckets") {
		data = append(data, JSON{
			"key":           core.GetPath(bucket, "key"),
			"count":         core.GetPath(bucket, "doc_count"),
			"key_as_string": core.GetPath(bucket, "key_as_string"),
		})
	}
	return JSON{"data": data}, nil
}

// Agg buckets events on a single field, capped at the requested size.
func (s *EventStore) Agg(ctx context.Context, params core.AggParameters) (JSON, error) {
	filters := []JSON{ExistsFilter(s.MapField("event_type"))}
	if params.EventType != "" {
		filters = append(filters, TermFilter(s.MapField("event_type"), params.EventType))
	}
	if params.DNSType != "" {
		filters = append(filters, TermFilter(s.MapField("dns.type"), params.DNSType))
	}
	if params.MinTimestamp != nil {
		filters = append(filters, TimestampGteFilter(*params.MinTimestamp))
	}

	should := []JSON{}
	minShouldMatch := 0
	if params.AddressFilter != "" {
		should = append(should,
			TermFilter(s.MapField("src_ip"), params.AddressFilter),
			TermFilter(s.MapField("dest_ip"), params.AddressFilter))
		minShouldMatch = 1
	}
	if params.QueryString != "" {
		filters = append(filters, s.queryStringToFilters(params.QueryString)...)
	}

	agg := s.MapField(params.Agg)

	query := JSON{
		"query": JSON{
			"bool": JSON{
				"filter":               filters,
				"should":               should,
				"minimum_should_match": minShouldMatch,
			},
		},
		"size": 0,
		"sort": []JSON{{"@timestamp": JSON{"order": "desc"}}},
		"aggs": JSON{
			"agg": JSON{
				"terms": JSON{
					"field": agg,
					"size":  params.Size,
				},
			},
			"missing": JSON{
				"missing": JSON{
					"field": agg,
				},
			},
		},
	}

	response, err := s.searchJSON(ctx, query)
	if err != nil {
		return nil, err
	}
	data := []JSON{}
	for _, bucket := range core.GetArray(response, "aggregations", "agg", "buckets") {
		data = append(data, JSON{
			"key":   core.GetPath(bucket, "key"),
			"count": core.GetPath(bucket, "doc_count"),
		})
	}
	return JSON{"data": data}, nil
}

// FlowHistogram buckets flow events over time with a per-bucket breakdown
// of application protocols.
func (s *EventStore) FlowHistogram(ctx context.Context, params core.FlowHistogramParameters) (JSON, error) {
	filters := []JSON{
		TermFilter(s.MapField("event_type"), "flow"),
		ExistsFilter(s.MapField("event_type")),
	}
	if params.MinTs != nil {
		filters = append(filters, TimestampGteFilter(*params.MinTs))
	}
	if params.QueryString != "" {
		filters = append(filters, s.queryStringToFilters(params.QueryString)...)
	}
	query := JSON{
		"query": JSON{
			"bool": JSON{
				"filter": filters,
			},
		},
		"sort": []JSON{{"@timestamp": JSON{"order": "desc"}}},
		"aggs": JSON{
			"histogram": JSON{
				"aggs": JSON{
					"app_proto": JSON{
						"terms": JSON{
							"field": s.MapField("app_proto"),
						},
					},
				},
				"date_histogram": JSON{
					"field":    "@timestamp",
					"interval": params.Interval,
				},
			},
		},
	}
	response, err := s.searchJSON(ctx, query)
	if err != nil {
		return nil, err
	}
	data := []JSON{}
	for _, bucket := range core.GetArray(response, "aggregations", "histogram", "buckets") {
		entry := JSON{
			"key":    core.GetPath(bucket, "key"),
			"events": core.GetPath(bucket, "doc_count"),
		}
		appProtos := JSON{}
		for _, protoBucket := range core.GetArray(bucket, "app_proto", "buckets") {
			if key, ok := core.GetPath(protoBucket, "key").(string); ok {
				appProtos[key] = core.GetPath(protoBucket, "doc_count")
			}
		}
		entry["app_proto"] = appProtos
		data = append(data, entry)
	}
	return JSON{"data": data}, nil
}

func (s *EventStore) buildAlertGroupFilter(group *core.AlertGroupSpec) []JSON {
	return []JSON{
		ExistsFilter(s.MapField("event_type")),
		TermFilter(s.MapField("event_type"), "alert"),
		{"range": JSON{
			"@timestamp": JSON{
				"gte": group.MinTimestamp,
				"lte": group.MaxTimestamp,
			},
		}},
		TermFilter(s.MapField("src_ip"), group.SrcIP),
		TermFilter(s.MapField("dest_ip"), group.DestIP),
		TermFilter(s.MapField("alert.signature_id"), group.SignatureID),
	}
}

// GetSensors returns the distinct sensor hostnames seen in the index.
func (s *EventStore) GetSensors(ctx context.Context) ([]string, error) {
	request := JSON{
		"size": 0,
		"aggs": JSON{
			"sensors": JSON{
				"terms": JSON{
					"field": s.MapField("host"),
				},
			},
		},
	}
	response, err := s.searchJSON(ctx, request)
	if err != nil {
		return nil, err
	}
	var sensors []string
	for _, bucket := range core.GetArray(response, "aggregations", "sensors", "buckets") {
		if key, ok := core.GetPath(bucket, "key").(string); ok {
			sensors = append(sensors, key)
		}
	}
	return sensors, nil
}

func (s *EventStore) statsAggQuery(ctx context.Context, params core.StatsAggQueryParams, aggs JSON) (JSON, error) {
	version, err := s.client.GetVersion(ctx)
	if err != nil {
		return nil, err
	}
	intervalField := "fixed_interval"
	if version.Major < 7 {
		intervalField = "interval"
	}

	filters := []JSON{
		TermFilter(s.MapField("event_type"), "stats"),
		{"range": JSON{"@timestamp": JSON{"gte": params.StartTime.UTC().Format(time.RFC3339)}}},
	}
	if params.SensorName != "" {
		filters = append(filters, TermFilter(s.MapField("host"), params.SensorName))
	}

	histogram := JSON{
		"date_histogram": JSON{
			"field":       "@timestamp",
			intervalField: formatInterval(params.Interval),
		},
		"aggs": aggs,
	}
	query := JSON{
		"query": JSON{
			"bool": JSON{
				"filter": filters,
			},
		},
		"size": 0,
		"sort": []JSON{{"@timestamp": JSON{"order": "asc"}}},
		"aggs": JSON{
			"histogram": histogram,
		},
	}
	return s.searchJSON(ctx, query)
}

// asCounter converts an aggregation value to a counter reading. A missing
// bucket value decodes as NaN or null and a derivative goes negative when
// the underlying counter resets; both degrade to zero rather than wrapping
// around in the unsigned conversion.
func asCounter(v any) uint64 {
	f := core.AsFloat(v)
	if f < 0 || math.IsNaN(f) {
		return 0
	}
	return uint64(f)
}

// StatsAgg samples the maximum of a numeric stats field per interval.
func (s *EventStore) StatsAgg(ctx context.Context, params core.StatsAggQueryParams) (JSON, error) {
	aggs := JSON{
		"values": JSON{
			"max": JSON{
				"field": s.MapField(params.Field),
			},
		},
	}
	response, err := s.statsAggQuery(ctx, params, aggs)
	if err != nil {
		return nil, err
	}
	data := []JSON{}
	for _, bucket := range core.GetArray(response, "aggregations", "histogram", "buckets") {
		data = append(data, JSON{
			"timestamp": core.GetPath(bucket, "key_as_string"),
			"value":     asCounter(core.GetPath(bucket, "values", "value")),
		})
	}
	return JSON{"data": data}, nil
}

// StatsAggDeriv samples the per-interval derivative of a numeric stats
// field.
func (s *EventStore) StatsAggDeriv(ctx context.Context, params core.StatsAggQueryParams) (JSON, error) {
	aggs := JSON{
		"values": JSON{
			"max": JSON{
				"field": s.MapField(params.Field),
			},
		},
		"values_deriv": JSON{
			"derivative": JSON{
				"buckets_path": "values",
			},
		},
	}
	response, err := s.statsAggQuery(ctx, params, aggs)
	if err != nil {
		return nil, err
	}
	data := []JSON{}
	for _, bucket := range core.GetArray(response, "aggregations", "histogram", "buckets") {
		data = append(data, JSON{
			"timestamp": core.GetPath(bucket, "key_as_string"),
			"value":     asCounter(core.GetPath(bucket, "values_deriv", "value")),
		})
	}
	return JSON{"data": data}, nil
}

// formatInterval renders a duration as a date histogram interval. Windows
// under a minute render in whole seconds, everything else in whole
// minutes; sub-unit remainders are dropped.
func formatInterval(duration time.Duration) string {
	var result string
	if duration < time.Minute {
		result = fmt.Sprintf("%ds", int64(duration.Seconds()))
	} else {
		result = fmt.Sprintf("%dm", int64(duration.Minutes()))
	}
	logger.L().Debugw("Formatted interval", "duration", duration, "result", result)
	return result
}
