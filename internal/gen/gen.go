package gen

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/eveview/eveview/internal/eveview/core"
)

// Config controls a generation run.
type Config struct {
	// Count is the number of events to emit.
	Count int
	// Seed makes runs reproducible; zero seeds from entropy.
	Seed uint64
	// Window is the time span the events are spread over, ending now.
	Window time.Duration
}

// Generate writes Count synthetic eve events as NDJSON, oldest first.
// The mix is weighted towards flow and dns records with a spread of
// alerts, the way a quiet sensor looks.
func Generate(cfg Config, w io.Writer) error {
	gofakeit.Seed(cfg.Seed)

	if cfg.Window <= 0 {
		cfg.Window = 24 * time.Hour
	}
	start := time.Now().Add(-cfg.Window)
	step := cfg.Window / time.Duration(max(cfg.Count, 1))

	encoder := json.NewEncoder(w)
	for i := 0; i < cfg.Count; i++ {
		ts := start.Add(time.Duration(i) * step)
		event := randomEvent(ts)
		if err := encoder.Encode(event); err != nil {
			return fmt.Errorf("encode event: %w", err)
		}
	}
	return nil
}

func randomEvent(ts time.Time) core.Event {
	switch gofakeit.Number(0, 9) {
	case 0, 1:
		return AlertEvent(ts)
	case 2, 3:
		return DNSEvent(ts)
	case 4:
		return StatsEvent(ts)
	default:
		return FlowEvent(ts)
	}
}

func baseEvent(ts time.Time, eventType string) core.Event {
	return core.Event{
		"timestamp":  ts.Format(core.EveTimestampFormat),
		"event_type": eventType,
		"flow_id":    gofakeit.Number(100000000, 999999999),
		"host":       RandomSensor(),
		"src_ip":     privateIP(),
		"src_port":   gofakeit.Number(1024, 65535),
		"dest_ip":    gofakeit.IPv4Address(),
		"dest_port":  gofakeit.Number(1, 1024),
		"proto":      gofakeit.RandomString([]string{"TCP", "UDP"}),
	}
}

// privateIP returns an address from the 10/8 block so generated traffic
// has a believable internal side.
func privateIP() string {
	return fmt.Sprintf("10.%d.%d.%d",
		gofakeit.Number(0, 16), gofakeit.Number(0, 255), gofakeit.Number(1, 254))
}

// AlertEvent returns a synthetic alert record.
func AlertEvent(ts time.Time) core.Event {
	event := baseEvent(ts, "alert")
	sig := RandomSignature()
	event["alert"] = core.Event{
		"action":       "allowed",
		"gid":          1,
		"signature_id": sig.ID,
		"rev":          gofakeit.Number(1, 10),
		"signature":    sig.Text,
		"category":     sig.Category,
		"severity":     sig.Severity,
	}
	return event
}

// DNSEvent returns a synthetic dns query record.
func DNSEvent(ts time.Time) core.Event {
	event := baseEvent(ts, "dns")
	event["dest_port"] = 53
	event["proto"] = "UDP"
	event["dns"] = core.Event{
		"type":   "query",
		"id":     gofakeit.Number(1, 65535),
		"rrname": RandomDNSName(),
		"rrtype": gofakeit.RandomString([]string{"A", "AAAA", "PTR", "TXT"}),
		"tx_id":  0,
	}
	return event
}

// FlowEvent returns a synthetic completed flow record.
func FlowEvent(ts time.Time) core.Event {
	event := baseEvent(ts, "flow")
	event["app_proto"] = RandomAppProto()
	duration := gofakeit.Number(1, 300)
	event["flow"] = core.Event{
		"pkts_toserver":  gofakeit.Number(1, 1000),
		"pkts_toclient":  gofakeit.Number(1, 1000),
		"bytes_toserver": gofakeit.Number(60, 1000000),
		"bytes_toclient": gofakeit.Number(60, 1000000),
		"start":          ts.Add(-time.Duration(duration) * time.Second).Format(core.EveTimestampFormat),
		"end":            ts.Format(core.EveTimestampFormat),
		"state":          gofakeit.RandomString([]string{"new", "established", "closed"}),
	}
	return event
}

// StatsEvent returns a synthetic stats record with monotonic counters
// derived from the timestamp so consecutive events look like a live
// counter.
func StatsEvent(ts time.Time) core.Event {
	uptime := ts.Unix() % 1000000
	return core.Event{
		"timestamp":  ts.Format(core.EveTimestampFormat),
		"event_type": "stats",
		"host":       RandomSensor(),
		"stats": core.Event{
			"uptime": uptime,
			"capture": core.Event{
				"kernel_packets": uptime * int64(gofakeit.Number(50, 150)),
				"kernel_drops":   uptime * int64(gofakeit.Number(0, 2)),
			},
			"decoder": core.Event{
				"pkts":  uptime * int64(gofakeit.Number(50, 150)),
				"bytes": uptime * int64(gofakeit.Number(40000, 90000)),
			},
		},
	}
}
