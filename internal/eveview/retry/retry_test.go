package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errLocked = errors.New("database is locked")

func TestDoFirstTry(t *testing.T) {
	calls := 0
	err := Do(context.Background(), MaxAttempts(10, time.Millisecond), nil, func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), MaxAttempts(10, time.Millisecond), nil, func() error {
		calls++
		if calls < 4 {
			return errLocked
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 4, calls)
}

func TestDoNonRetryable(t *testing.T) {
	permanent := errors.New("syntax error")
	calls := 0
	err := Do(context.Background(), MaxAttempts(10, time.Millisecond),
		func(err error) bool { return errors.Is(err, errLocked) },
		func() error {
			calls++
			return permanent
		})
	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestDoMaxAttemptsExhausted(t *testing.T) {
	calls := 0
	err := Do(context.Background(), MaxAttempts(3, time.Millisecond), nil, func() error {
		calls++
		return errLocked
	})
	assert.ErrorIs(t, err, errLocked)
	// The initial attempt plus three retries.
	assert.Equal(t, 4, calls)
}

func TestDoMaxElapsed(t *testing.T) {
	start := time.Now()
	err := Do(context.Background(), MaxElapsed(50*time.Millisecond, time.Millisecond), nil,
		func() error {
			return errLocked
		})
	// The underlying error is surfaced, not the timeout wrapper.
	assert.ErrorIs(t, err, errLocked)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestDoContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Do(ctx, MaxAttempts(10, time.Millisecond), nil, func() error {
		return errLocked
	})
	assert.ErrorIs(t, err, errLocked)
}
