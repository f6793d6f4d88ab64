package elastic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eveview/eveview/internal/eveview/core"
)

func TestReportDHCPUnknown(t *testing.T) {
	store := NewEventStore(NewClient("http://localhost:9200"), "logstash", false, false)
	_, err := store.ReportDHCP(context.Background(), "bogus", core.EventQueryParams{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no DHCP report for bogus")
}

func TestMapDHCPEvent(t *testing.T) {
	event := map[string]any{
		"timestamp": "2024-03-01T10:22:33.123456-0000",
		"host":      "sensor-1",
		"dhcp": map[string]any{
			"client_mac":  "00:11:22:33:44:55",
			"hostname":    "laptop",
			"lease_time":  float64(3600),
			"assigned_ip": "10.0.0.50",
		},
	}

	store := NewEventStore(NewClient("http://localhost:9200"), "logstash", false, false)
	mapped := store.mapDHCPEvent(event)
	assert.Equal(t, "sensor-1", mapped["sensor"])
	assert.Equal(t, "00:11:22:33:44:55", mapped["client_mac"])
	assert.Equal(t, "10.0.0.50", mapped["assigned_ip"])

	ecsEvent := map[string]any{
		"@timestamp": "2024-03-01T10:22:33.123Z",
		"agent":      map[string]any{"hostname": "sensor-1"},
		"suricata": map[string]any{
			"eve": map[string]any{
				"dhcp": map[string]any{
					"client_mac":  "00:11:22:33:44:55",
					"assigned_ip": "10.0.0.50",
				},
			},
		},
	}
	store = NewEventStore(NewClient("http://localhost:9200"), "logstash", true, false)
	mapped = store.mapDHCPEvent(ecsEvent)
	assert.Equal(t, "sensor-1", mapped["sensor"])
	assert.Equal(t, "10.0.0.50", mapped["assigned_ip"])
	assert.Equal(t, "2024-03-01T10:22:33.123Z", mapped["timestamp"])
}

func TestDHCPMacSkipsUnassigned(t *testing.T) {
	f := newFakeServer(t, "7.10.2")
	f.handlers["/logstash-*/_search"] = `{
	    "aggregations": {
	        "client_mac": {
	            "buckets": [
	                {
	                    "key": "00:11:22:33:44:55",
	                    "assigned_ip": {
	                        "buckets": [
	                            {"key": "0.0.0.0"},
	                            {"key": "10.0.0.50"}
	                        ]
	                    }
	                }
	            ]
	        }
	    }
	}`
	store := NewEventStore(NewClient(f.server.URL), "logstash", false, false)

	result, err := store.ReportDHCP(context.Background(), "mac", core.EventQueryParams{})
	require.NoError(t, err)
	data := result["data"].([]JSON)
	require.Len(t, data, 1)
	assert.Equal(t, "00:11:22:33:44:55", data[0]["mac"])
	assert.Equal(t, []string{"10.0.0.50"}, data[0]["addrs"])
}
