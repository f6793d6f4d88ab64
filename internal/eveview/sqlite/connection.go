package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Events are rows holding the original JSON document plus the workflow
// flags materialized as columns, which are far cheaper to filter and
// aggregate on than a JSON path.
const schema = `
CREATE TABLE IF NOT EXISTS events (
    timestamp INTEGER NOT NULL,
    archived INTEGER NOT NULL DEFAULT 0,
    escalated INTEGER NOT NULL DEFAULT 0,
    source TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS events_timestamp_index ON events (timestamp);
CREATE INDEX IF NOT EXISTS events_archived_index ON events (archived);
CREATE INDEX IF NOT EXISTS events_escalated_index ON events (escalated);
`

// ConnectionBuilder opens connections to the event database.
type ConnectionBuilder struct {
	Filename string
}

// Open opens the database, creating the schema if needed. The returned
// handle is a connection pool; dedicated connections for the synchronous
// write paths are checked out of it.
func (b *ConnectionBuilder) Open(ctx context.Context) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL", b.Filename)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", b.Filename, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return db, nil
}
