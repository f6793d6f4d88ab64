package core

import (
	"errors"
	"fmt"
)

var (
	// ErrUnimplemented is returned when the active backend does not
	// support the requested operation. Callers are expected to treat
	// this as a legitimate outcome, not a failure of the datastore.
	ErrUnimplemented = errors.New("unimplemented")

	// ErrEventNotFound is returned by single-event lookups and
	// mutations that did not match their target.
	ErrEventNotFound = errors.New("event not found")
)

// ElasticError carries the reason string reported by the search backend
// so it can be surfaced to the caller for diagnostics.
type ElasticError struct {
	Reason string
}

func (e *ElasticError) Error() string {
	return fmt.Sprintf("elasticsearch: %s", e.Reason)
}

// IntervalParseError reports a histogram interval that is not one of the
// accepted values.
type IntervalParseError struct {
	Value string
}

func (e *IntervalParseError) Error() string {
	return fmt.Sprintf("failed to parse histogram interval: %s", e.Value)
}

// TimestampParseError wraps a failure to parse a caller supplied timestamp.
type TimestampParseError struct {
	Value string
	Err   error
}

func (e *TimestampParseError) Error() string {
	return fmt.Sprintf("failed to parse timestamp: %s", e.Value)
}

func (e *TimestampParseError) Unwrap() error {
	return e.Err
}
