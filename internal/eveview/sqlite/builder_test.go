package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidJSONPath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"event_type", true},
		{"alert.signature_id", true},
		{"dns.rrname", true},
		{"_meta", true},
		{"", false},
		{"1field", false},
		{"a'; DROP TABLE events; --", false},
		{"a b", false},
		{"a)b", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidJSONPath(tt.path), "path %q", tt.path)
	}
}

func TestQueryBuilder(t *testing.T) {
	b := newQueryBuilder()
	assert.Equal(t, "events", b.From())
	assert.Equal(t, "TRUE", b.WherePredicate())
	assert.Empty(t, b.Args())

	assert.True(t, b.WhereJSONEquals("event_type", "alert"))
	b.Where("timestamp >= ?", int64(1000))
	b.WhereSourceLike("ssh")

	assert.Equal(t,
		"json_extract(events.source, '$.event_type') = ? AND timestamp >= ? AND events.source LIKE ?",
		b.WherePredicate())
	assert.Equal(t, []any{"alert", int64(1000), "%ssh%"}, b.Args())
}

func TestQueryBuilderRejectsBadPath(t *testing.T) {
	b := newQueryBuilder()
	assert.False(t, b.WhereJSONEquals("bad path", "x"))
	assert.False(t, b.WhereJSONLike("1bad", "x"))
	assert.Equal(t, "TRUE", b.WherePredicate())
	assert.Empty(t, b.Args())
}
