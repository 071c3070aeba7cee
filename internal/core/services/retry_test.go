package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/travelrag/internal/core/domain"
)

func instantBackOff() backoff.BackOff {
	return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 2)
}

func TestRetry_TransientThenSuccess(t *testing.T) {
	calls := 0
	err := retry(context.Background(), instantBackOff, "fetch", func() error {
		calls++
		if calls < 3 {
			return fmt.Errorf("geoapify: %w", domain.ErrFetchFailed)
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_PermanentErrorStopsImmediately(t *testing.T) {
	calls := 0
	err := retry(context.Background(), instantBackOff, "embed", func() error {
		calls++
		return fmt.Errorf("tei: %w", domain.ErrInputTooLong)
	})

	assert.ErrorIs(t, err, domain.ErrInputTooLong)
	assert.Equal(t, 1, calls)
}

func TestRetry_GivesUp(t *testing.T) {
	calls := 0
	err := retry(context.Background(), instantBackOff, "embed", func() error {
		calls++
		return domain.ErrModelUnavailable
	})

	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
	assert.Equal(t, 3, calls)
}

func TestRetry_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := retry(ctx, nil, "fetch", func() error { return domain.ErrFetchFailed })

	assert.True(t, errors.Is(err, context.Canceled) || errors.Is(err, domain.ErrFetchFailed))
}
