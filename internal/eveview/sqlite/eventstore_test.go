package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eveview/eveview/internal/eveview/core"
)

func newTestStore(t *testing.T) *EventStore {
	t.Helper()
	store, err := NewEventStore(context.Background(), &ConnectionBuilder{
		Filename: filepath.Join(t.TempDir(), "events.sqlite"),
	})
	require.NoError(t, err)
	return store
}

func makeAlert(ts time.Time, signatureID int64, srcIP string, destIP string) core.Event {
	return core.Event{
		"timestamp":  ts.Format(core.EveTimestampFormat),
		"event_type": "alert",
		"src_ip":     srcIP,
		"dest_ip":    destIP,
		"alert": map[string]any{
			"signature_id": signatureID,
			"signature":    gofakeit.Sentence(3),
		},
	}
}

func makeStats(ts time.Time, host string, uptime int64) core.Event {
	return core.Event{
		"timestamp":  ts.Format(core.EveTimestampFormat),
		"event_type": "stats",
		"host":       host,
		"stats": map[string]any{
			"uptime": uptime,
		},
	}
}

func importEvents(t *testing.T, store *EventStore, events ...core.Event) {
	t.Helper()
	ctx := context.Background()
	importer := store.GetImporter()
	for _, event := range events {
		require.NoError(t, importer.Submit(ctx, event))
	}
	n, err := importer.Commit(ctx)
	require.NoError(t, err)
	require.Equal(t, len(events), n)
}

func TestImporterCommit(t *testing.T) {
	store := newTestStore(t)
	now := time.Now()

	importEvents(t, store,
		makeAlert(now, 1000, "10.0.0.1", "10.0.0.2"),
		makeAlert(now.Add(-time.Minute), 1001, "10.0.0.3", "10.0.0.4"))

	result, err := store.EventQuery(context.Background(), core.EventQueryParams{})
	require.NoError(t, err)
	events := result["data"].([]JSON)
	assert.Len(t, events, 2)
}

func TestImporterCommitEmpty(t *testing.T) {
	store := newTestStore(t)
	n, err := store.GetImporter().Commit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestImporterSubmitNoTimestamp(t *testing.T) {
	store := newTestStore(t)
	err := store.GetImporter().Submit(context.Background(), core.Event{"event_type": "alert"})
	require.Error(t, err)
}

func TestEventQuery(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	var events []core.Event
	for i := 0; i < 10; i++ {
		events = append(events, makeAlert(now.Add(-time.Duration(i)*time.Minute),
			int64(1000+i), gofakeit.IPv4Address(), gofakeit.IPv4Address()))
	}
	events = append(events, core.Event{
		"timestamp":  now.Format(core.EveTimestampFormat),
		"event_type": "dns",
		"src_ip":     "10.0.0.1",
		"dns":        map[string]any{"rrname": "example.com"},
	})
	importEvents(t, store, events...)

	// Default order is newest first.
	result, err := store.EventQuery(ctx, core.EventQueryParams{})
	require.NoError(t, err)
	data := result["data"].([]JSON)
	require.Len(t, data, 11)
	first := data[0]["_source"].(JSON)
	assert.Equal(t, first["timestamp"], first["@timestamp"])

	// Event type filter.
	result, err = store.EventQuery(ctx, core.EventQueryParams{EventType: "dns"})
	require.NoError(t, err)
	require.Len(t, result["data"].([]JSON), 1)

	// Size limit.
	result, err = store.EventQuery(ctx, core.EventQueryParams{Size: 3})
	require.NoError(t, err)
	assert.Len(t, result["data"].([]JSON), 3)

	// Oldest first when asked.
	result, err = store.EventQuery(ctx, core.EventQueryParams{Order: "asc", Size: 1})
	require.NoError(t, err)
	data = result["data"].([]JSON)
	require.Len(t, data, 1)
	oldest := data[0]["_source"].(JSON)["alert"].(JSON)
	assert.EqualValues(t, 1009, oldest["signature_id"])

	// Numeric key:value matches with typed equality.
	result, err = store.EventQuery(ctx, core.EventQueryParams{
		QueryString: "alert.signature_id:1005",
	})
	require.NoError(t, err)
	assert.Len(t, result["data"].([]JSON), 1)

	// Bare terms match anywhere in the document.
	result, err = store.EventQuery(ctx, core.EventQueryParams{QueryString: "example.com"})
	require.NoError(t, err)
	assert.Len(t, result["data"].([]JSON), 1)

	// Time window.
	cutoff := now.Add(-5*time.Minute - 30*time.Second)
	result, err = store.EventQuery(ctx, core.EventQueryParams{MinTimestamp: &cutoff})
	require.NoError(t, err)
	assert.Len(t, result["data"].([]JSON), 7)
}

func TestGetEventByID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	importEvents(t, store, makeAlert(time.Now(), 1000, "10.0.0.1", "10.0.0.2"))

	event, err := store.GetEventByID(ctx, "1")
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.EqualValues(t, 1, event["_id"])

	event, err = store.GetEventByID(ctx, "99")
	require.NoError(t, err)
	assert.Nil(t, event)

	event, err = store.GetEventByID(ctx, "not-a-number")
	require.NoError(t, err)
	assert.Nil(t, event)
}

func TestArchiveEventByID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	importEvents(t, store, makeAlert(time.Now(), 1000, "10.0.0.1", "10.0.0.2"))

	require.NoError(t, store.ArchiveEventByID(ctx, "1"))

	event, err := store.GetEventByID(ctx, "1")
	require.NoError(t, err)
	tags := event["_source"].(JSON)["tags"].([]any)
	assert.Contains(t, tags, "archived")
	assert.Contains(t, tags, "evebox.archived")

	// Archiving again is a no-op, not an error.
	require.NoError(t, store.ArchiveEventByID(ctx, "1"))

	assert.ErrorIs(t, store.ArchiveEventByID(ctx, "99"), core.ErrEventNotFound)
	assert.ErrorIs(t, store.ArchiveEventByID(ctx, "bad"), core.ErrEventNotFound)
}

func TestEscalateEventByID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	importEvents(t, store, makeAlert(time.Now(), 1000, "10.0.0.1", "10.0.0.2"))

	require.NoError(t, store.EscalateEventByID(ctx, "1"))
	event, err := store.GetEventByID(ctx, "1")
	require.NoError(t, err)
	tags := event["_source"].(JSON)["tags"].([]any)
	assert.Contains(t, tags, "escalated")
	assert.Contains(t, tags, "evebox.escalated")

	require.NoError(t, store.DeescalateEventByID(ctx, "1"))
	event, err = store.GetEventByID(ctx, "1")
	require.NoError(t, err)
	assert.Empty(t, event["_source"].(JSON)["tags"])
}

func TestAlertQueryGrouping(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Second)

	// Three alerts in one group, one in another.
	importEvents(t, store,
		makeAlert(now.Add(-2*time.Minute), 1000, "10.0.0.1", "10.0.0.2"),
		makeAlert(now.Add(-time.Minute), 1000, "10.0.0.1", "10.0.0.2"),
		makeAlert(now, 1000, "10.0.0.1", "10.0.0.2"),
		makeAlert(now, 2000, "10.0.0.9", "10.0.0.2"))

	result, err := store.AlertQuery(ctx, core.AlertQueryOptions{})
	require.NoError(t, err)
	alerts := result["alerts"].([]JSON)
	require.Len(t, alerts, 2)

	var group JSON
	for _, alert := range alerts {
		source := alert["event"].(JSON)["_source"].(JSON)
		if source["src_ip"] == "10.0.0.1" {
			group = alert
		}
	}
	require.NotNil(t, group)
	assert.EqualValues(t, 3, group["count"])
	assert.EqualValues(t, 0, group["escalatedCount"])

	// The representative event is the newest in the group.
	source := group["event"].(JSON)["_source"].(JSON)
	assert.Equal(t, now.Format(core.EveTimestampFormat), source["timestamp"])
	assert.Equal(t, source["timestamp"], group["maxTs"])

	minTs, err := time.Parse(time.RFC3339, group["minTs"].(string))
	require.NoError(t, err)
	assert.True(t, minTs.Equal(now.Add(-2*time.Minute).UTC()))
}

func TestAlertQueryTags(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	importEvents(t, store,
		makeAlert(now, 1000, "10.0.0.1", "10.0.0.2"),
		makeAlert(now, 2000, "10.0.0.3", "10.0.0.4"))

	require.NoError(t, store.ArchiveEventByID(ctx, "1"))

	result, err := store.AlertQuery(ctx, core.AlertQueryOptions{Tags: []string{"-archived"}})
	require.NoError(t, err)
	alerts := result["alerts"].([]JSON)
	require.Len(t, alerts, 1)
	source := alerts[0]["event"].(JSON)["_source"].(JSON)
	assert.EqualValues(t, 2000, source["alert"].(JSON)["signature_id"])

	result, err = store.AlertQuery(ctx, core.AlertQueryOptions{Tags: []string{"archived"}})
	require.NoError(t, err)
	alerts = result["alerts"].([]JSON)
	require.Len(t, alerts, 1)
	tags := alerts[0]["event"].(JSON)["_source"].(JSON)["tags"].([]any)
	assert.Contains(t, tags, "evebox.archived")
}

func alertGroupFor(event core.Event, minTs time.Time, maxTs time.Time) core.AlertGroupSpec {
	return core.AlertGroupSpec{
		SignatureID:  uint64(event["alert"].(map[string]any)["signature_id"].(int64)),
		SrcIP:        event["src_ip"].(string),
		DestIP:       event["dest_ip"].(string),
		MinTimestamp: minTs.Format(core.EveTimestampFormat),
		MaxTimestamp: maxTs.Format(core.EveTimestampFormat),
	}
}

func TestArchiveByAlertGroup(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Second)

	var events []core.Event
	for i := 0; i < 5; i++ {
		events = append(events,
			makeAlert(now.Add(-time.Duration(i)*time.Minute), 1000, "10.0.0.1", "10.0.0.2"))
	}
	// Same group key but outside the time window.
	events = append(events, makeAlert(now.Add(-time.Hour), 1000, "10.0.0.1", "10.0.0.2"))
	importEvents(t, store, events...)

	group := alertGroupFor(events[0], now.Add(-10*time.Minute), now)
	require.NoError(t, store.ArchiveByAlertGroup(ctx, group))

	result, err := store.AlertQuery(ctx, core.AlertQueryOptions{Tags: []string{"-archived"}})
	require.NoError(t, err)
	alerts := result["alerts"].([]JSON)
	require.Len(t, alerts, 1)
	assert.EqualValues(t, 1, alerts[0]["count"])

	// Archiving an already archived group matches nothing and is fine.
	require.NoError(t, store.ArchiveByAlertGroup(ctx, group))
}

func TestEscalateByAlertGroup(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Second)

	importEvents(t, store,
		makeAlert(now.Add(-time.Minute), 1000, "10.0.0.1", "10.0.0.2"),
		makeAlert(now, 1000, "10.0.0.1", "10.0.0.2"))

	group := alertGroupFor(makeAlert(now, 1000, "10.0.0.1", "10.0.0.2"),
		now.Add(-10*time.Minute), now)

	require.NoError(t, store.EscalateByAlertGroup(ctx, group))

	result, err := store.AlertQuery(ctx, core.AlertQueryOptions{})
	require.NoError(t, err)
	alerts := result["alerts"].([]JSON)
	require.Len(t, alerts, 1)
	assert.EqualValues(t, 2, alerts[0]["escalatedCount"])

	require.NoError(t, store.DeescalateByAlertGroup(ctx, group))
	result, err = store.AlertQuery(ctx, core.AlertQueryOptions{})
	require.NoError(t, err)
	alerts = result["alerts"].([]JSON)
	require.Len(t, alerts, 1)
	assert.EqualValues(t, 0, alerts[0]["escalatedCount"])
}

func TestGetSensors(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	importEvents(t, store,
		makeStats(now, "sensor-1", 100),
		makeStats(now.Add(-time.Minute), "sensor-2", 100),
		makeStats(now.Add(-48*time.Hour), "sensor-stale", 100))

	sensors, err := store.GetSensors(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"sensor-1", "sensor-2"}, sensors)
}

func TestStatsAgg(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Now().Truncate(time.Minute).Add(-10 * time.Minute)

	importEvents(t, store,
		makeStats(base, "sensor-1", 100),
		makeStats(base.Add(time.Minute), "sensor-1", 250),
		makeStats(base.Add(2*time.Minute), "sensor-1", 50))

	params := core.StatsAggQueryParams{
		Field:     "stats.uptime",
		Interval:  time.Minute,
		StartTime: base.Add(-time.Minute),
	}
	result, err := store.StatsAgg(ctx, params)
	require.NoError(t, err)
	data := result["data"].([]JSON)
	require.Len(t, data, 3)
	assert.EqualValues(t, 100, data[0]["value"])
	assert.EqualValues(t, 250, data[1]["value"])
	assert.EqualValues(t, 50, data[2]["value"])
}

func TestStatsAggDeriv(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Now().Truncate(time.Minute).Add(-10 * time.Minute)

	// The last sample drops, as happens when a counter resets.
	importEvents(t, store,
		makeStats(base, "sensor-1", 100),
		makeStats(base.Add(time.Minute), "sensor-1", 250),
		makeStats(base.Add(2*time.Minute), "sensor-1", 50))

	params := core.StatsAggQueryParams{
		Field:     "stats.uptime",
		Interval:  time.Minute,
		StartTime: base.Add(-time.Minute),
	}
	result, err := store.StatsAggDeriv(ctx, params)
	require.NoError(t, err)
	data := result["data"].([]JSON)
	require.Len(t, data, 2)
	assert.EqualValues(t, 150, data[0]["value"])
	// After a reset the raw value is reported, never a negative delta.
	assert.EqualValues(t, 50, data[1]["value"])
}

func TestStatsAggBadField(t *testing.T) {
	store := newTestStore(t)
	_, err := store.StatsAgg(context.Background(), core.StatsAggQueryParams{
		Field:     "bad field'",
		Interval:  time.Minute,
		StartTime: time.Now(),
	})
	require.Error(t, err)
	assert.Equal(t, "bad stats field: bad field'", fmt.Sprintf("%v", err))
}
