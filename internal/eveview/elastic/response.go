package elastic

// ResponseError is the error object embedded in a backend response.
type ResponseError struct {
	Reason string `json:"reason"`
}

// Response is the envelope common to search and update-by-query
// responses. All fields are optional; absence of an expected field
// degrades to an empty result rather than an error.
type Response struct {
	Error        *ResponseError `json:"error,omitempty"`
	Hits         map[string]any `json:"hits,omitempty"`
	Aggregations map[string]any `json:"aggregations,omitempty"`
	Updated      *int64         `json:"updated,omitempty"`
}
