package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistogramIntervalFromString(t *testing.T) {
	for _, s := range []string{"minute", "hour", "day"} {
		interval, err := HistogramIntervalFromString(s)
		require.NoError(t, err)
		assert.Equal(t, HistogramInterval(s), interval)
	}

	_, err := HistogramIntervalFromString("week")
	require.Error(t, err)
	var parseErr *IntervalParseError
	assert.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "week", parseErr.Value)
}

func TestSessionUsername(t *testing.T) {
	assert.Equal(t, "anonymous", NewSession("").Username())
	assert.Equal(t, "anonymous", (*Session)(nil).Username())
	assert.Equal(t, "alice", NewSession("alice").Username())
}
