package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/eveview/eveview/internal/eveview/core"
	"github.com/eveview/eveview/internal/eveview/logger"
)

// Importer batches events into a bulk index request. Submit buffers one
// event at a time; Commit sends the batch and returns the number of
// events durably stored.
type Importer struct {
	client        *Client
	baseIndex     string
	noIndexSuffix bool

	buf   bytes.Buffer
	count int
}

// NewImporter returns an importer writing to the given base index, with a
// daily suffix unless disabled.
func NewImporter(client *Client, baseIndex string, noIndexSuffix bool) *Importer {
	return &Importer{
		client:        client,
		baseIndex:     baseIndex,
		noIndexSuffix: noIndexSuffix,
	}
}

func (i *Importer) indexFor(event core.Event) string {
	if i.noIndexSuffix {
		return i.baseIndex
	}
	if ts, ok := core.GetString(event, "timestamp"); ok {
		if t, err := core.ParseTimestamp(ts); err == nil {
			return fmt.Sprintf("%s-%s", i.baseIndex, t.UTC().Format("2006.01.02"))
		}
	}
	return i.baseIndex
}

// Submit buffers one decoded event for the next commit.
func (i *Importer) Submit(ctx context.Context, event core.Event) error {
	if ts, ok := core.GetString(event, "timestamp"); ok {
		if _, present := event["@timestamp"]; !present {
			if t, err := core.ParseTimestamp(ts); err == nil {
				event["@timestamp"] = FormatTimestamp(t)
			}
		}
	}

	action := JSON{
		"index": JSON{
			"_index": i.indexFor(event),
			"_id":    uuid.NewString(),
		},
	}
	actionLine, err := json.Marshal(action)
	if err != nil {
		return err
	}
	eventLine, err := json.Marshal(event)
	if err != nil {
		return err
	}
	i.buf.Write(actionLine)
	i.buf.WriteByte('\n')
	i.buf.Write(eventLine)
	i.buf.WriteByte('\n')
	i.count++
	return nil
}

// Commit sends the buffered batch and returns the number of events
// submitted in it.
func (i *Importer) Commit(ctx context.Context) (int, error) {
	if i.count == 0 {
		return 0, nil
	}
	response, err := i.client.PostRaw(ctx, "_bulk", "application/x-ndjson", i.buf.Bytes())
	if err != nil {
		return 0, err
	}
	defer response.Body.Close()

	var decoded struct {
		Errors bool `json:"errors"`
		Items  []any `json:"items"`
	}
	if err := json.NewDecoder(response.Body).Decode(&decoded); err != nil {
		return 0, fmt.Errorf("failed to decode bulk response: %w", err)
	}
	if decoded.Errors {
		logger.L().Warnw("Bulk request reported item errors",
			"items", len(decoded.Items))
	}

	n := i.count
	i.buf.Reset()
	i.count = 0
	return n, nil
}
