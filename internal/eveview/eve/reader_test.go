package eve

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eve.json")
	content := `{"timestamp": "2024-03-01T10:22:33.123456-0000", "event_type": "alert"}

{"event_type": "dns"}
not json
{"event_type": "flow"}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	var events []map[string]any
	var errs []error
	for result := range ReadEvents([]string{path}) {
		if result.Err != nil {
			errs = append(errs, result.Err)
			continue
		}
		events = append(events, result.Event)
	}

	require.Len(t, events, 3)
	assert.Equal(t, "alert", events[0]["event_type"])
	assert.Equal(t, "dns", events[1]["event_type"])
	assert.Equal(t, "flow", events[2]["event_type"])

	// The malformed line is reported but does not stop the stream.
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "line 4")
}

func TestReadEventsMissingFile(t *testing.T) {
	var errs []error
	for result := range ReadEvents([]string{"/no/such/file"}) {
		if result.Err != nil {
			errs = append(errs, result.Err)
		}
	}
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "failed to open file")
}
