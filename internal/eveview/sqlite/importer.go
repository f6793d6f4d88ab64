package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/eveview/eveview/internal/eveview/core"
)

type queuedEvent struct {
	timestamp int64
	source    []byte
}

// Importer buffers events and writes them in a single transaction on
// Commit. Safe for use from one goroutine at a time per method, with
// the lock covering the commit against concurrent submits.
type Importer struct {
	mu     sync.Mutex
	conn   *sql.Conn
	queued []queuedEvent
}

func NewImporter(conn *sql.Conn) *Importer {
	return &Importer{conn: conn}
}

// Submit queues an event for the next commit. The event must carry a
// parseable timestamp.
func (i *Importer) Submit(ctx context.Context, event core.Event) error {
	timestampValue, ok := event["timestamp"].(string)
	if !ok {
		return fmt.Errorf("event has no timestamp")
	}
	timestamp, err := core.ParseTimestamp(timestampValue)
	if err != nil {
		return err
	}
	source, err := json.Marshal(event)
	if err != nil {
		return err
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.queued = append(i.queued, queuedEvent{
		timestamp: timestamp.UnixNano(),
		source:    source,
	})
	return nil
}

// Commit writes all queued events in one transaction and returns the
// number written. The queue is drained even on error so a poison event
// cannot wedge the importer.
func (i *Importer) Commit(ctx context.Context) (int, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	queued := i.queued
	i.queued = nil
	if len(queued) == 0 {
		return 0, nil
	}

	tx, err := i.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO events (timestamp, source) VALUES (?, ?)")
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	for _, event := range queued {
		if _, err := stmt.ExecContext(ctx, event.timestamp, string(event.source)); err != nil {
			stmt.Close()
			tx.Rollback()
			return 0, err
		}
	}
	stmt.Close()
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(queued), nil
}
