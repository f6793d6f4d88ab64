package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/eveview/eveview/internal/eveview/core"
	"github.com/eveview/eveview/internal/eveview/logger"
	"github.com/eveview/eveview/internal/eveview/retry"
	"github.com/eveview/eveview/internal/eveview/searchquery"
)

// JSON is shorthand for a generic JSON object.
type JSON = map[string]any

// Brief lock contention is expected with one writer and pooled readers,
// and is recoverable. Reads retry on an attempt ceiling, writes on a
// wall-clock ceiling; both back off a fixed 10ms between attempts.
var (
	queryRetryPolicy = retry.MaxAttempts(100, 10*time.Millisecond)
	writeRetryPolicy = retry.MaxElapsed(1000*time.Millisecond, 10*time.Millisecond)
)

func isLockError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "lock")
}

// EventStore is the SQLite implementation of the event datastore.
type EventStore struct {
	// pool serves concurrent reads and retry-tolerant writes.
	pool *sql.DB

	// writer is the exclusively owned connection for synchronous
	// write paths that must observe their own prior writes.
	mu     sync.Mutex
	writer *sql.Conn

	importer *Importer
}

// NewEventStore opens the event database and its dedicated write
// connections.
func NewEventStore(ctx context.Context, builder *ConnectionBuilder) (*EventStore, error) {
	pool, err := builder.Open(ctx)
	if err != nil {
		return nil, err
	}
	writer, err := pool.Conn(ctx)
	if err != nil {
		pool.Close()
		return nil, err
	}
	importerConn, err := pool.Conn(ctx)
	if err != nil {
		writer.Close()
		pool.Close()
		return nil, err
	}
	return &EventStore{
		pool:     pool,
		writer:   writer,
		importer: NewImporter(importerConn),
	}, nil
}

// GetImporter returns the store's importer.
func (s *EventStore) GetImporter() *Importer {
	return s.importer
}

// retryQuery runs a read in a loop as lock errors can occur, and we
// should retry those.
func (s *EventStore) retryQuery(ctx context.Context, query string, args []any, collect func(*sql.Rows) error) error {
	return retry.Do(ctx, queryRetryPolicy, isLockError, func() error {
		rows, err := s.pool.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		if err := collect(rows); err != nil {
			return err
		}
		return rows.Err()
	})
}

// retryExec runs a write in a loop bounded by wall-clock time.
func (s *EventStore) retryExec(ctx context.Context, query string, args []any) (int64, error) {
	var n int64
	err := retry.Do(ctx, writeRetryPolicy, isLockError, func() error {
		result, err := s.pool.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		n, err = result.RowsAffected()
		return err
	})
	return n, err
}

// applyQueryString translates parsed query elements into predicates.
// Numeric-looking values get typed equality on the JSON path, everything
// else substring matching. Invalid paths and empty fragments are dropped,
// never surfaced as query errors.
func applyQueryString(b *queryBuilder, queryString string) {
	for _, element := range searchquery.Parse(queryString) {
		if element.IsKeyVal() {
			if n, err := strconv.ParseInt(element.Value, 10, 64); err == nil {
				if !b.WhereJSONEquals(element.Key, n) {
					logger.L().Warnw("Dropping filter with invalid field path",
						"field", element.Key)
				}
			} else if !b.WhereJSONLike(element.Key, element.Value) {
				logger.L().Warnw("Dropping filter with invalid field path",
					"field", element.Key)
			}
		} else {
			b.WhereSourceLike(element.Value)
		}
	}
}

// tagEvent synthesizes the uniform tag vocabulary onto a decoded
// document from the flag columns.
func tagEvent(source JSON, archived bool, escalated bool) {
	tags, _ := source["tags"].([]any)
	if tags == nil {
		tags = []any{}
	}
	if archived {
		tags = append(tags, "archived", core.TagArchived)
	}
	if escalated {
		tags = append(tags, "escalated", core.TagEscalated)
	}
	source["tags"] = tags
}

// AlertQuery lists alerts grouped by signature, source address and
// destination address. An inner grouped subquery computes the per-group
// count, time bounds and escalated sum; the outer query joins back to
// fetch the newest row in each group.
func (s *EventStore) AlertQuery(ctx context.Context, options core.AlertQueryOptions) (JSON, error) {
	b := newQueryBuilder()
	b.WhereJSONEquals("event_type", "alert")

	for _, tag := range options.Tags {
		switch tag {
		case "archived":
			b.Where("archived = ?", 1)
		case "-archived":
			b.Where("archived = ?", 0)
		case "escalated":
			b.Where("escalated = ?", 1)
		}
	}

	if options.TimestampGte != nil {
		b.Where("timestamp >= ?", options.TimestampGte.UnixNano())
	}

	if options.QueryString != "" {
		applyQueryString(b, options.QueryString)
	}

	query := fmt.Sprintf(`
	    SELECT b.count,
	        a.rowid as id,
	        b.mints as mints,
	        b.escalated_count,
	        a.archived,
	        a.escalated,
	        a.source
	    FROM events a
	        INNER JOIN
	        (
	            SELECT
	                events.rowid,
	                count(json_extract(events.source, '$.alert.signature_id')) as count,
	                min(timestamp) as mints,
	                max(timestamp) as maxts,
	                sum(escalated) as escalated_count
	            FROM %s
	            WHERE %s
	            GROUP BY
	                json_extract(events.source, '$.alert.signature_id'),
	                json_extract(events.source, '$.src_ip'),
	                json_extract(events.source, '$.dest_ip')
	        ) AS b
	    WHERE a.rowid = b.rowid AND
	        a.timestamp = b.maxts
	    ORDER BY timestamp DESC
	`, b.From(), b.WherePredicate())

	var alerts []JSON
	err := s.retryQuery(ctx, query, b.Args(), func(rows *sql.Rows) error {
		alerts = nil
		for rows.Next() {
			var count, id, mintsNanos, escalatedCount int64
			var archived, escalated int
			var sourceText string
			if err := rows.Scan(&count, &id, &mintsNanos, &escalatedCount,
				&archived, &escalated, &sourceText); err != nil {
				return err
			}
			var source JSON
			if err := json.Unmarshal([]byte(sourceText), &source); err != nil {
				return err
			}
			tagEvent(source, archived > 0, escalated > 0)
			alerts = append(alerts, JSON{
				"count": count,
				"event": JSON{
					"_id":     id,
					"_source": source,
				},
				"minTs":          formatTimestamp(time.Unix(0, mintsNanos)),
				"maxTs":          source["timestamp"],
				"escalatedCount": escalatedCount,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if alerts == nil {
		alerts = []JSON{}
	}
	return JSON{"alerts": alerts}, nil
}

// EventQuery returns matching events, newest first unless overridden.
func (s *EventStore) EventQuery(ctx context.Context, params core.EventQueryParams) (JSON, error) {
	b := newQueryBuilder()

	if params.EventType != "" {
		b.WhereJSONEquals("event_type", params.EventType)
	}
	if params.MaxTimestamp != nil {
		b.Where("timestamp <= ?", params.MaxTimestamp.UnixNano())
	}
	if params.MinTimestamp != nil {
		b.Where("timestamp >= ?", params.MinTimestamp.UnixNano())
	}
	if params.QueryString != "" {
		applyQueryString(b, params.QueryString)
	}

	// Only a known keyword ever reaches the ORDER BY text.
	order := "DESC"
	if strings.EqualFold(params.Order, "asc") {
		order = "ASC"
	}
	limit := params.Size
	if limit <= 0 {
		limit = 500
	}

	query := fmt.Sprintf(`
	    SELECT
	        events.rowid AS id,
	        events.archived AS archived,
	        events.escalated AS escalated,
	        events.source AS source
	    FROM %s
	    WHERE %s
	    ORDER BY events.timestamp %s
	    LIMIT %d
	`, b.From(), b.WherePredicate(), order, limit)

	var events []JSON
	err := s.retryQuery(ctx, query, b.Args(), func(rows *sql.Rows) error {
		events = nil
		for rows.Next() {
			event, err := scanEvent(rows)
			if err != nil {
				return err
			}
			events = append(events, event)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []JSON{}
	}
	return JSON{"data": events}, nil
}

// scanEvent decodes one (id, archived, escalated, source) row into the
// uniform {_id, _source} shape.
func scanEvent(rows *sql.Rows) (JSON, error) {
	var id int64
	var archived, escalated int
	var sourceText string
	if err := rows.Scan(&id, &archived, &escalated, &sourceText); err != nil {
		return nil, err
	}
	var source JSON
	if err := json.Unmarshal([]byte(sourceText), &source); err != nil {
		return nil, err
	}
	if timestamp, ok := source["timestamp"]; ok {
		source["@timestamp"] = timestamp
	}
	tagEvent(source, archived > 0, escalated > 0)
	return JSON{
		"_id":     id,
		"_source": source,
	}, nil
}

// GetEventByID returns the event with the given row id, or nil if not
// found.
func (s *EventStore) GetEventByID(ctx context.Context, eventID string) (JSON, error) {
	id, err := strconv.ParseInt(eventID, 10, 64)
	if err != nil {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.writer.QueryContext(ctx,
		"SELECT rowid, archived, escalated, source FROM events WHERE rowid = ?", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanEvent(rows)
}

func (s *EventStore) updateByID(ctx context.Context, query string, eventID string) error {
	id, err := strconv.ParseInt(eventID, 10, 64)
	if err != nil {
		return core.ErrEventNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	result, err := s.writer.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return core.ErrEventNotFound
	}
	return nil
}

// ArchiveEventByID marks a single event archived.
func (s *EventStore) ArchiveEventByID(ctx context.Context, eventID string) error {
	return s.updateByID(ctx, "UPDATE events SET archived = 1 WHERE rowid = ?", eventID)
}

// EscalateEventByID marks a single event escalated.
func (s *EventStore) EscalateEventByID(ctx context.Context, eventID string) error {
	return s.updateByID(ctx, "UPDATE events SET escalated = 1 WHERE rowid = ?", eventID)
}

// DeescalateEventByID clears a single event's escalated flag.
func (s *EventStore) DeescalateEventByID(ctx context.Context, eventID string) error {
	return s.updateByID(ctx, "UPDATE events SET escalated = 0 WHERE rowid = ?", eventID)
}

// alertGroupBuilder builds the predicate set addressing an alert group,
// with a flag guard so repeated calls are no-ops.
func alertGroupBuilder(group core.AlertGroupSpec, flagGuard string) (*queryBuilder, error) {
	b := newQueryBuilder()
	b.WhereJSONEquals("event_type", "alert")
	b.Where(flagGuard)
	b.WhereJSONEquals("alert.signature_id", int64(group.SignatureID))
	b.WhereJSONEquals("src_ip", group.SrcIP)
	b.WhereJSONEquals("dest_ip", group.DestIP)

	mints, err := core.ParseTimestamp(group.MinTimestamp)
	if err != nil {
		return nil, err
	}
	b.Where("timestamp >= ?", mints.UnixNano())

	maxts, err := core.ParseTimestamp(group.MaxTimestamp)
	if err != nil {
		return nil, err
	}
	b.Where("timestamp <= ?", maxts.UnixNano())
	return b, nil
}

// ArchiveByAlertGroup archives all unarchived alerts in the group. Zero
// matched rows is not an error.
func (s *EventStore) ArchiveByAlertGroup(ctx context.Context, group core.AlertGroupSpec) error {
	logger.L().Debugw("Archiving alert group", "group", group)
	b, err := alertGroupBuilder(group, "archived = 0")
	if err != nil {
		return err
	}
	query := fmt.Sprintf("UPDATE events SET archived = 1 WHERE %s", b.WherePredicate())
	n, err := s.retryExec(ctx, query, b.Args())
	if err != nil {
		return err
	}
	logger.L().Debugw("Archived alerts", "count", n)
	return nil
}

func (s *EventStore) execByAlertGroupLocked(ctx context.Context, update string, b *queryBuilder) (int64, error) {
	query := fmt.Sprintf("%s WHERE %s", update, b.WherePredicate())
	s.mu.Lock()
	defer s.mu.Unlock()
	result, err := s.writer.ExecContext(ctx, query, b.Args()...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// EscalateByAlertGroup escalates all unescalated alerts in the group.
func (s *EventStore) EscalateByAlertGroup(ctx context.Context, group core.AlertGroupSpec) error {
	b, err := alertGroupBuilder(group, "escalated = 0")
	if err != nil {
		return err
	}
	n, err := s.execByAlertGroupLocked(ctx, "UPDATE events SET escalated = 1", b)
	if err != nil {
		return err
	}
	logger.L().Infow("Escalated alerts in alert group", "count", n)
	return nil
}

// DeescalateByAlertGroup clears the escalated flag on all escalated
// alerts in the group.
func (s *EventStore) DeescalateByAlertGroup(ctx context.Context, group core.AlertGroupSpec) error {
	b, err := alertGroupBuilder(group, "escalated = 1")
	if err != nil {
		return err
	}
	n, err := s.execByAlertGroupLocked(ctx, "UPDATE events SET escalated = 0", b)
	if err != nil {
		return err
	}
	logger.L().Infow("De-escalated alerts in alert group", "count", n)
	return nil
}

// GetSensors returns the distinct sensor hostnames seen in the last 24
// hours.
func (s *EventStore) GetSensors(ctx context.Context) ([]string, error) {
	startTime := time.Now().Add(-24 * time.Hour).UnixNano()
	query := `
	    SELECT DISTINCT json_extract(events.source, '$.host')
	    FROM events
	    WHERE timestamp >= ?
	`
	var sensors []string
	err := s.retryQuery(ctx, query, []any{startTime}, func(rows *sql.Rows) error {
		sensors = nil
		for rows.Next() {
			var sensor sql.NullString
			if err := rows.Scan(&sensor); err != nil {
				return err
			}
			if sensor.Valid {
				sensors = append(sensors, sensor.String)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sensors, nil
}

type statsRow struct {
	timestamp int64
	value     int64
}

// getStats buckets the stats rows by integer-dividing the row timestamp
// in seconds by the interval length, taking the maximum of the target
// field per bucket.
func (s *EventStore) getStats(ctx context.Context, params core.StatsAggQueryParams) ([]statsRow, error) {
	if !ValidJSONPath(params.Field) {
		return nil, fmt.Errorf("bad stats field: %s", params.Field)
	}
	field := "$." + params.Field
	interval := int64(params.Interval.Seconds())
	startTime := params.StartTime.UnixNano()

	b := newQueryBuilder()
	b.Where("json_extract(events.source, '$.event_type') = 'stats'")
	b.Where("timestamp >= ?", startTime)
	if params.SensorName != "" {
		b.WhereJSONEquals("host", params.SensorName)
	}

	query := fmt.Sprintf(`
	    SELECT
	        (timestamp / 1000000000 / ?) * ? AS a,
	        MAX(json_extract(events.source, ?))
	    FROM %s
	    WHERE %s
	    GROUP BY a
	    ORDER BY a
	`, b.From(), b.WherePredicate())
	args := append([]any{interval, interval, field}, b.Args()...)

	var entries []statsRow
	err := s.retryQuery(ctx, query, args, func(rows *sql.Rows) error {
		entries = nil
		for rows.Next() {
			var bucket int64
			var value sql.NullInt64
			if err := rows.Scan(&bucket, &value); err != nil {
				return err
			}
			entries = append(entries, statsRow{timestamp: bucket, value: value.Int64})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// StatsAgg samples the maximum of a numeric stats field per interval.
func (s *EventStore) StatsAgg(ctx context.Context, params core.StatsAggQueryParams) (JSON, error) {
	rows, err := s.getStats(ctx, params)
	if err != nil {
		return nil, err
	}
	data := []JSON{}
	for _, row := range rows {
		data = append(data, JSON{
			"value":     row.value,
			"timestamp": formatTimestamp(time.Unix(row.timestamp, 0)),
		})
	}
	return JSON{"data": data}, nil
}

// StatsAggDeriv reports the difference between adjacent samples. When a
// counter resets the later raw value is reported instead of a negative
// delta.
func (s *EventStore) StatsAggDeriv(ctx context.Context, params core.StatsAggQueryParams) (JSON, error) {
	rows, err := s.getStats(ctx, params)
	if err != nil {
		return nil, err
	}
	data := []JSON{}
	for i, row := range rows {
		if i == 0 {
			continue
		}
		previous := rows[i-1].value
		value := row.value
		if previous <= row.value {
			value = row.value - previous
		}
		data = append(data, JSON{
			"value":     value,
			"timestamp": formatTimestamp(time.Unix(row.timestamp, 0)),
		})
	}
	return JSON{"data": data}, nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
