package services

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/custodia-labs/travelrag/internal/core/domain"
	"github.com/custodia-labs/travelrag/internal/logger"
)

// defaultRetries bounds attempts for transient failures.
const defaultRetries = 3

// BackOffFunc builds a fresh policy for one operation.
type BackOffFunc func() backoff.BackOff

// DefaultBackOff retries up to three times starting at 500ms.
func DefaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 8 * time.Second
	b.MaxElapsedTime = time.Minute
	return backoff.WithMaxRetries(b, defaultRetries)
}

// retry runs op until it succeeds, fails permanently or the policy gives up.
// Only errors accepted by domain.IsRetryable are retried.
func retry(ctx context.Context, newBackOff BackOffFunc, what string, op func() error) error {
	if newBackOff == nil {
		newBackOff = DefaultBackOff
	}

	attempt := func() error {
		err := op()
		if err != nil && !domain.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		logger.Debug("%s failed, retrying in %s: %v", what, wait, err)
	}

	return backoff.RetryNotify(attempt, backoff.WithContext(newBackOff(), ctx), notify)
}

// withTimeout bounds one external call. Zero disables the bound.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
