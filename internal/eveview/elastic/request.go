package elastic

import "time"

// JSON is shorthand for a generic JSON object.
type JSON = map[string]any

// Timestamps are sent with millisecond precision and a Z suffix.
const timestampFormat = "2006-01-02T15:04:05.000Z07:00"

// FormatTimestamp renders a timestamp the way the backend expects it.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampFormat)
}

// TermFilter builds an exact match filter on a field.
func TermFilter(field string, value any) JSON {
	return JSON{"term": JSON{field: value}}
}

// ExistsFilter builds a filter matching documents that have the field.
func ExistsFilter(field string) JSON {
	return JSON{"exists": JSON{"field": field}}
}

// TimestampGteFilter builds a lower bound filter on @timestamp.
func TimestampGteFilter(t time.Time) JSON {
	return JSON{"range": JSON{"@timestamp": JSON{"gte": FormatTimestamp(t)}}}
}

// TimestampLteFilter builds an upper bound filter on @timestamp.
func TimestampLteFilter(t time.Time) JSON {
	return JSON{"range": JSON{"@timestamp": JSON{"lte": FormatTimestamp(t)}}}
}

// QueryStringQuery builds a free-text relevance query across the whole
// document.
func QueryStringQuery(query string) JSON {
	return JSON{
		"query_string": JSON{
			"default_operator": "AND",
			"query":            query,
		},
	}
}

// NewRequest returns an empty search request with a bool filter slot.
func NewRequest() JSON {
	return JSON{
		"query": JSON{
			"bool": JSON{
				"filter": []JSON{},
			},
		},
	}
}

// SetFilters replaces the filter set of a request built by NewRequest.
func SetFilters(request JSON, filters []JSON) {
	request["query"].(JSON)["bool"].(JSON)["filter"] = filters
}
