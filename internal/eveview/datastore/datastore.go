package datastore

import (
	"context"
	"fmt"

	"github.com/eveview/eveview/internal/eveview/core"
	"github.com/eveview/eveview/internal/eveview/elastic"
	"github.com/eveview/eveview/internal/eveview/metrics"
	"github.com/eveview/eveview/internal/eveview/sqlite"
)

// JSON is shorthand for a generic JSON object.
type JSON = map[string]any

// Datastore fronts exactly one configured backend. Operations the
// backend does not support return core.ErrUnimplemented rather than
// panicking or silently succeeding.
type Datastore struct {
	elastic *elastic.EventStore
	sqlite  *sqlite.EventStore
}

// NewElastic returns a datastore backed by Elasticsearch.
func NewElastic(store *elastic.EventStore) *Datastore {
	return &Datastore{elastic: store}
}

// NewSQLite returns a datastore backed by SQLite.
func NewSQLite(store *sqlite.EventStore) *Datastore {
	return &Datastore{sqlite: store}
}

func (d *Datastore) backend() string {
	if d.elastic != nil {
		return "elastic"
	}
	return "sqlite"
}

func (d *Datastore) count(operation string) {
	metrics.OperationsTotal.WithLabelValues(d.backend(), operation).Inc()
}

func (d *Datastore) unimplemented(operation string) error {
	return fmt.Errorf("%s (%s): %w", operation, d.backend(), core.ErrUnimplemented)
}

// GetImporter returns the backend's bulk importer.
func (d *Datastore) GetImporter() core.Importer {
	if d.elastic != nil {
		return d.elastic.GetImporter()
	}
	return d.sqlite.GetImporter()
}

// GetEventByID returns the event with the given id, or nil when the
// backend has no such event.
func (d *Datastore) GetEventByID(ctx context.Context, eventID string) (JSON, error) {
	d.count("get_event_by_id")
	if d.elastic != nil {
		return d.elastic.GetEventByID(ctx, eventID)
	}
	return d.sqlite.GetEventByID(ctx, eventID)
}

// ArchiveEventByID marks one event archived.
func (d *Datastore) ArchiveEventByID(ctx context.Context, eventID string) error {
	d.count("archive_event_by_id")
	if d.elastic != nil {
		return d.elastic.ArchiveEventByID(ctx, eventID)
	}
	return d.sqlite.ArchiveEventByID(ctx, eventID)
}

// EscalateEventByID marks one event escalated.
func (d *Datastore) EscalateEventByID(ctx context.Context, eventID string) error {
	d.count("escalate_event_by_id")
	if d.elastic != nil {
		return d.elastic.EscalateEventByID(ctx, eventID)
	}
	return d.sqlite.EscalateEventByID(ctx, eventID)
}

// DeescalateEventByID clears one event's escalated state.
func (d *Datastore) DeescalateEventByID(ctx context.Context, eventID string) error {
	d.count("deescalate_event_by_id")
	if d.elastic != nil {
		return d.elastic.DeescalateEventByID(ctx, eventID)
	}
	return d.sqlite.DeescalateEventByID(ctx, eventID)
}

// CommentEventByID appends a comment to one event's history.
func (d *Datastore) CommentEventByID(ctx context.Context, eventID string, comment string, session *core.Session) error {
	d.count("comment_event_by_id")
	if d.elastic != nil {
		return d.elastic.CommentEventByID(ctx, eventID, comment, session.Username())
	}
	return d.unimplemented("comment_event_by_id")
}

// AlertQuery lists alerts grouped by signature and address pair.
func (d *Datastore) AlertQuery(ctx context.Context, options core.AlertQueryOptions) (JSON, error) {
	d.count("alert_query")
	if d.elastic != nil {
		return d.elastic.AlertQuery(ctx, options)
	}
	return d.sqlite.AlertQuery(ctx, options)
}

// ArchiveByAlertGroup archives every alert in the group.
func (d *Datastore) ArchiveByAlertGroup(ctx context.Context, group core.AlertGroupSpec) error {
	d.count("archive_by_alert_group")
	if d.elastic != nil {
		return d.elastic.ArchiveByAlertGroup(ctx, group)
	}
	return d.sqlite.ArchiveByAlertGroup(ctx, group)
}

// EscalateByAlertGroup escalates every alert in the group, recording
// who did it.
func (d *Datastore) EscalateByAlertGroup(ctx context.Context, group core.AlertGroupSpec, session *core.Session) error {
	d.count("escalate_by_alert_group")
	if d.elastic != nil {
		return d.elastic.EscalateByAlertGroup(ctx, group, session)
	}
	return d.sqlite.EscalateByAlertGroup(ctx, group)
}

// DeescalateByAlertGroup clears escalation on every alert in the group.
func (d *Datastore) DeescalateByAlertGroup(ctx context.Context, group core.AlertGroupSpec) error {
	d.count("deescalate_by_alert_group")
	if d.elastic != nil {
		return d.elastic.DeescalateByAlertGroup(ctx, group)
	}
	return d.sqlite.DeescalateByAlertGroup(ctx, group)
}

// CommentByAlertGroup appends a comment to every alert in the group.
func (d *Datastore) CommentByAlertGroup(ctx context.Context, group core.AlertGroupSpec, comment string, session *core.Session) error {
	d.count("comment_by_alert_group")
	if d.elastic != nil {
		return d.elastic.CommentByAlertGroup(ctx, group, comment, session.Username())
	}
	return d.unimplemented("comment_by_alert_group")
}

// EventQuery returns events matching the query parameters.
func (d *Datastore) EventQuery(ctx context.Context, params core.EventQueryParams) (JSON, error) {
	d.count("event_query")
	if d.elastic != nil {
		return d.elastic.EventQuery(ctx, params)
	}
	return d.sqlite.EventQuery(ctx, params)
}

// Histogram returns time-bucketed event counts.
func (d *Datastore) Histogram(ctx context.Context, params core.HistogramParameters) (JSON, error) {
	d.count("histogram")
	if d.elastic != nil {
		return d.elastic.Histogram(ctx, params)
	}
	return nil, d.unimplemented("histogram")
}

// Agg returns the most common values of a field.
func (d *Datastore) Agg(ctx context.Context, params core.AggParameters) (JSON, error) {
	d.count("agg")
	if d.elastic != nil {
		return d.elastic.Agg(ctx, params)
	}
	return nil, d.unimplemented("agg")
}

// FlowHistogram returns time-bucketed flow counts, optionally split by
// application protocol.
func (d *Datastore) FlowHistogram(ctx context.Context, params core.FlowHistogramParameters) (JSON, error) {
	d.count("flow_histogram")
	if d.elastic != nil {
		return d.elastic.FlowHistogram(ctx, params)
	}
	return nil, d.unimplemented("flow_histogram")
}

// ReportDHCP returns one of the DHCP lease reports.
func (d *Datastore) ReportDHCP(ctx context.Context, what string, params core.EventQueryParams) (JSON, error) {
	d.count("report_dhcp")
	if d.elastic != nil {
		return d.elastic.ReportDHCP(ctx, what, params)
	}
	return nil, d.unimplemented("report_dhcp")
}

// GetSensors returns the sensor names that have reported recently.
func (d *Datastore) GetSensors(ctx context.Context) ([]string, error) {
	d.count("get_sensors")
	if d.elastic != nil {
		return d.elastic.GetSensors(ctx)
	}
	return d.sqlite.GetSensors(ctx)
}

// StatsAgg samples a numeric stats field over time.
func (d *Datastore) StatsAgg(ctx context.Context, params core.StatsAggQueryParams) (JSON, error) {
	d.count("stats_agg")
	if d.elastic != nil {
		return d.elastic.StatsAgg(ctx, params)
	}
	return d.sqlite.StatsAgg(ctx, params)
}

// StatsAggDeriv reports the per-interval change of a numeric stats
// field.
func (d *Datastore) StatsAggDeriv(ctx context.Context, params core.StatsAggQueryParams) (JSON, error) {
	d.count("stats_agg_deriv")
	if d.elastic != nil {
		return d.elastic.StatsAggDeriv(ctx, params)
	}
	return d.sqlite.StatsAggDeriv(ctx, params)
}
