package cli

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/travelrag/internal/core/domain"
)

func TestDescribeError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("generate: %w", domain.ErrGenerationFailed), "please try again"},
		{domain.ErrTimeout, "timed out"},
		{context.DeadlineExceeded, "timed out"},
		{domain.ErrLLMUnavailable, "language model is not available"},
		{domain.ErrModelUnavailable, "embedding model is not available"},
		{domain.ErrVectorIndexUnavailable, "vector store is not available"},
		{domain.ErrDimensionMismatch, "index --reset"},
		{domain.ErrRateLimited, "rate limiting"},
		{domain.ErrFetchFailed, "Fetching data failed"},
		{domain.ErrInvalidInput, "Invalid input"},
		{context.Canceled, "Cancelled."},
		{errors.New("boom"), "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Contains(t, describeError(tt.err), tt.want)
		})
	}
}
