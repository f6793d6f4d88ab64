package datastore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eveview/eveview/internal/eveview/core"
	"github.com/eveview/eveview/internal/eveview/sqlite"
)

func newSQLiteDatastore(t *testing.T) *Datastore {
	t.Helper()
	store, err := sqlite.NewEventStore(context.Background(), &sqlite.ConnectionBuilder{
		Filename: filepath.Join(t.TempDir(), "events.sqlite"),
	})
	require.NoError(t, err)
	return NewSQLite(store)
}

func TestSQLiteUnimplemented(t *testing.T) {
	ds := newSQLiteDatastore(t)
	ctx := context.Background()
	session := core.NewSession("anna")
	group := core.AlertGroupSpec{}

	_, err := ds.Histogram(ctx, core.HistogramParameters{})
	assert.ErrorIs(t, err, core.ErrUnimplemented)

	_, err = ds.Agg(ctx, core.AggParameters{})
	assert.ErrorIs(t, err, core.ErrUnimplemented)

	_, err = ds.FlowHistogram(ctx, core.FlowHistogramParameters{})
	assert.ErrorIs(t, err, core.ErrUnimplemented)

	_, err = ds.ReportDHCP(ctx, "ack", core.EventQueryParams{})
	assert.ErrorIs(t, err, core.ErrUnimplemented)

	err = ds.CommentEventByID(ctx, "1", "looks bad", session)
	assert.ErrorIs(t, err, core.ErrUnimplemented)

	err = ds.CommentByAlertGroup(ctx, group, "looks bad", session)
	assert.ErrorIs(t, err, core.ErrUnimplemented)
}

func TestSQLiteDispatch(t *testing.T) {
	ds := newSQLiteDatastore(t)
	ctx := context.Background()

	importer := ds.GetImporter()
	require.NoError(t, importer.Submit(ctx, core.Event{
		"timestamp":  time.Now().Format(core.EveTimestampFormat),
		"event_type": "alert",
		"src_ip":     "10.0.0.1",
		"dest_ip":    "10.0.0.2",
		"alert":      map[string]any{"signature_id": 1000},
	}))
	n, err := importer.Commit(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	result, err := ds.EventQuery(ctx, core.EventQueryParams{})
	require.NoError(t, err)
	assert.Len(t, result["data"].([]map[string]any), 1)

	require.NoError(t, ds.ArchiveEventByID(ctx, "1"))
	event, err := ds.GetEventByID(ctx, "1")
	require.NoError(t, err)
	require.NotNil(t, event)
	tags := event["_source"].(map[string]any)["tags"].([]any)
	assert.Contains(t, tags, core.TagArchived)
}
