package core

import (
	"time"

	"github.com/araddon/dateparse"
)

// Eve records commonly format timestamps with microsecond precision and a
// zone offset without a colon.
const EveTimestampFormat = "2006-01-02T15:04:05.999999-0700"

// ParseTimestamp parses a timestamp as found in eve records or alert group
// specs. Known layouts are tried first, then a best-effort parse.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{EveTimestampFormat, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}, &TimestampParseError{Value: s, Err: err}
	}
	return t, nil
}
