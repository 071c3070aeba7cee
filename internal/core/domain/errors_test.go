package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrInvalidMetadata", ErrInvalidMetadata},
		{"ErrUnsupportedType", ErrUnsupportedType},
		{"ErrFetchFailed", ErrFetchFailed},
		{"ErrEnrichmentMissing", ErrEnrichmentMissing},
		{"ErrRateLimited", ErrRateLimited},
		{"ErrModelUnavailable", ErrModelUnavailable},
		{"ErrInputTooLong", ErrInputTooLong},
		{"ErrDimensionMismatch", ErrDimensionMismatch},
		{"ErrTimeout", ErrTimeout},
		{"ErrGenerationFailed", ErrGenerationFailed},
		{"ErrLLMUnavailable", ErrLLMUnavailable},
		{"ErrEmbeddingUnavailable", ErrEmbeddingUnavailable},
		{"ErrVectorIndexUnavailable", ErrVectorIndexUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(fmt.Errorf("geoapify: %w", ErrFetchFailed)))
	assert.True(t, IsRetryable(fmt.Errorf("tei: %w", ErrModelUnavailable)))
	assert.True(t, IsRetryable(ErrRateLimited))
	assert.False(t, IsRetryable(ErrInputTooLong))
	assert.False(t, IsRetryable(ErrEnrichmentMissing))
	assert.False(t, IsRetryable(nil))
}

func TestClassifyContextError(t *testing.T) {
	assert.NoError(t, ClassifyContextError(nil))

	err := ClassifyContextError(fmt.Errorf("embed: %w", context.DeadlineExceeded))
	assert.ErrorIs(t, err, ErrTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	other := errors.New("boom")
	assert.Same(t, other, ClassifyContextError(other))

	already := fmt.Errorf("x: %w", ErrTimeout)
	assert.Equal(t, already, ClassifyContextError(already))
}

func TestUpsertError(t *testing.T) {
	ue := &UpsertError{Failed: map[string]error{
		"b": fmt.Errorf("%w: got 3, want 4", ErrDimensionMismatch),
		"a": ErrInvalidInput,
	}}
	var err error = fmt.Errorf("sqlite: %w", ue)

	got, ok := AsUpsertError(err)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, got.FailedIDs())
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "upsert failed for 2 entries")

	_, ok = AsUpsertError(errors.New("plain"))
	assert.False(t, ok)
}
