package core

import "time"

// Event represents a decoded event as a map of string keys to any values.
// This is the canonical representation of an ingested event after JSON
// unmarshaling. All fields from the original document are preserved.
type Event = map[string]any

// Workflow tag names. The plain names are what callers see; the prefixed
// names are the internal tag vocabulary written into stored documents and
// kept stable for compatibility with existing consumers.
const (
	TagArchived  = "evebox.archived"
	TagEscalated = "evebox.escalated"
)

// Tag sets applied together so both the internal and the plain spelling
// land on the document.
var (
	TagsArchived  = []string{TagArchived, "archived"}
	TagsEscalated = []string{TagEscalated, "escalated"}
)

// History actions recorded in an event's audit trail.
const (
	ActionArchived    = "archived"
	ActionEscalated   = "escalated"
	ActionDeescalated = "de-escalated"
	ActionComment     = "comment"
)

// HistoryEntry is one audit record of a workflow action taken on an event.
// Entries are append-only and never deduplicated.
type HistoryEntry struct {
	Username  string `json:"username"`
	Timestamp string `json:"timestamp"`
	Action    string `json:"action"`
	Comment   string `json:"comment,omitempty"`
}

// EventQueryParams are the common parameters for event list queries.
type EventQueryParams struct {
	QueryString  string
	Order        string
	MinTimestamp *time.Time
	MaxTimestamp *time.Time
	EventType    string
	Size         int64
	SortBy       string
}

// HistogramInterval is the bucket granularity for time histograms.
type HistogramInterval string

const (
	IntervalMinute HistogramInterval = "minute"
	IntervalHour   HistogramInterval = "hour"
	IntervalDay    HistogramInterval = "day"
)

// HistogramIntervalFromString parses a caller supplied interval name.
func HistogramIntervalFromString(s string) (HistogramInterval, error) {
	switch s {
	case "minute":
		return IntervalMinute, nil
	case "hour":
		return IntervalHour, nil
	case "day":
		return IntervalDay, nil
	default:
		return "", &IntervalParseError{Value: s}
	}
}

// HistogramParameters are the parameters for the event histogram query.
type HistogramParameters struct {
	MinTimestamp  *time.Time
	MaxTimestamp  *time.Time
	Interval      HistogramInterval
	EventType     string
	DNSType       string
	AddressFilter string
	QueryString   string
	SensorName    string
}

// AggParameters are the parameters for a single field terms aggregation.
type AggParameters struct {
	EventType     string
	DNSType       string
	QueryString   string
	AddressFilter string
	MinTimestamp  *time.Time
	Agg           string
	Size          int64
}

// FlowHistogramParameters are the parameters for the flow histogram query.
type FlowHistogramParameters struct {
	MinTs       *time.Time
	Interval    string
	QueryString string
}

// StatsAggQueryParams describe a numeric field sampled at a fixed interval
// over a rolling lookback window.
type StatsAggQueryParams struct {
	Field      string
	Duration   time.Duration
	Interval   time.Duration
	SensorName string
	StartTime  time.Time
}

// AlertQueryOptions are the parameters for the grouped alert listing.
// Tags prefixed with "-" become exclusion filters.
type AlertQueryOptions struct {
	QueryString  string
	TimestampGte *time.Time
	Tags         []string
}

// AlertGroupSpec addresses a derived alert group: all alert events sharing
// a signature and address pair within a time window. It is an addressing
// scheme, not a stored entity.
type AlertGroupSpec struct {
	SignatureID  uint64 `json:"signature_id"`
	SrcIP        string `json:"src_ip"`
	DestIP       string `json:"dest_ip"`
	MinTimestamp string `json:"min_timestamp"`
	MaxTimestamp string `json:"max_timestamp"`
}
