package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{
			name:  "eve_format",
			input: "2024-03-01T10:22:33.123456-0600",
			want:  time.Date(2024, 3, 1, 10, 22, 33, 123456000, time.FixedZone("", -6*3600)),
		},
		{
			name:  "rfc3339",
			input: "2024-03-01T10:22:33Z",
			want:  time.Date(2024, 3, 1, 10, 22, 33, 0, time.UTC),
		},
		{
			name:  "rfc3339_nano",
			input: "2024-03-01T10:22:33.000001Z",
			want:  time.Date(2024, 3, 1, 10, 22, 33, 1000, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.input)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
		})
	}
}

func TestParseTimestampError(t *testing.T) {
	_, err := ParseTimestamp("not a timestamp")
	require.Error(t, err)
	var parseErr *TimestampParseError
	assert.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "not a timestamp", parseErr.Value)
}
