// Package retry provides a bounded-retry combinator with a fixed backoff.
// Call sites choose between a count-based ceiling (reads) and a wall-clock
// ceiling (writes); in both cases the last error is surfaced once the
// ceiling is reached.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/eveview/eveview/internal/eveview/metrics"
)

// Policy bounds a retry loop.
type Policy struct {
	maxAttempts uint64
	maxElapsed  time.Duration
	interval    time.Duration
}

// MaxAttempts returns a policy that retries up to n additional attempts
// with a fixed interval between them.
func MaxAttempts(n uint64, interval time.Duration) Policy {
	return Policy{maxAttempts: n, interval: interval}
}

// MaxElapsed returns a policy that retries until d of wall-clock time has
// passed, with a fixed interval between attempts.
func MaxElapsed(d time.Duration, interval time.Duration) Policy {
	return Policy{maxElapsed: d, interval: interval}
}

// Do runs op, retrying errors for which retryable returns true until the
// policy ceiling is reached. A nil retryable retries every error. The last
// error from op is returned when the ceiling is hit.
func Do(ctx context.Context, policy Policy, retryable func(error) bool, op func() error) error {
	if policy.maxElapsed > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, policy.maxElapsed)
		defer cancel()
	}

	var b backoff.BackOff = backoff.NewConstantBackOff(policy.interval)
	b = backoff.WithContext(b, ctx)
	if policy.maxAttempts > 0 {
		b = backoff.WithMaxRetries(b, policy.maxAttempts)
	}

	var lastErr error
	err := backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if retryable != nil && !retryable(err) {
			return backoff.Permanent(err)
		}
		lastErr = err
		metrics.LockRetriesTotal.Inc()
		return err
	}, b)
	if err != nil && lastErr != nil {
		// The combinator reports context/permanent wrappers; the call
		// site wants the underlying statement error.
		return lastErr
	}
	return err
}
