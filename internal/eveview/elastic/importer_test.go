package elastic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eveview/eveview/internal/eveview/core"
)

func TestImporterIndexFor(t *testing.T) {
	event := core.Event{"timestamp": "2024-03-01T10:22:33.123456-0000"}

	importer := NewImporter(nil, "logstash", false)
	assert.Equal(t, "logstash-2024.03.01", importer.indexFor(event))

	importer = NewImporter(nil, "logstash", true)
	assert.Equal(t, "logstash", importer.indexFor(event))

	// No parseable timestamp falls back to the bare index.
	importer = NewImporter(nil, "logstash", false)
	assert.Equal(t, "logstash", importer.indexFor(core.Event{}))
}

func TestImporterSubmitMirrorsTimestamp(t *testing.T) {
	importer := NewImporter(nil, "logstash", false)

	event := core.Event{"timestamp": "2024-03-01T10:22:33.123456-0000"}
	require.NoError(t, importer.Submit(context.Background(), event))
	assert.Equal(t, "2024-03-01T10:22:33.123Z", event["@timestamp"])

	// An existing mirror is left alone.
	event = core.Event{
		"timestamp":  "2024-03-01T10:22:33.123456-0000",
		"@timestamp": "already-set",
	}
	require.NoError(t, importer.Submit(context.Background(), event))
	assert.Equal(t, "already-set", event["@timestamp"])
}

func TestImporterCommitEmpty(t *testing.T) {
	importer := NewImporter(nil, "logstash", false)
	n, err := importer.Commit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
