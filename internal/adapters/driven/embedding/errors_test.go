package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/travelrag/internal/core/domain"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"payload too large", http.StatusRequestEntityTooLarge, "", domain.ErrInputTooLong},
		{"validation length", http.StatusUnprocessableEntity, "Input validation error: `inputs` must have less than 512 tokens", domain.ErrInputTooLong},
		{"context length", http.StatusBadRequest, "This model's maximum context length is 8192 tokens", domain.ErrInputTooLong},
		{"unavailable", http.StatusServiceUnavailable, "loading", domain.ErrModelUnavailable},
		{"rate limited", http.StatusTooManyRequests, "", domain.ErrModelUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, ClassifyStatus("tei", tt.status, []byte(tt.body)), tt.wantErr)
		})
	}

	err := ClassifyStatus("tei", http.StatusUnauthorized, []byte("bad key"))
	assert.False(t, errors.Is(err, domain.ErrModelUnavailable))
	assert.False(t, errors.Is(err, domain.ErrInputTooLong))
}

func TestClassifyTransport(t *testing.T) {
	assert.ErrorIs(t, ClassifyTransport("x", fmt.Errorf("dial: %w", context.DeadlineExceeded)), domain.ErrTimeout)
	assert.ErrorIs(t, ClassifyTransport("x", errors.New("connection refused")), domain.ErrModelUnavailable)
	assert.ErrorIs(t, ClassifyTransport("x", context.Canceled), context.Canceled)
}

func TestCheckDimensions(t *testing.T) {
	assert.NoError(t, CheckDimensions("x", [][]float32{{1, 2}, {3, 4}}, 2))
	assert.ErrorIs(t, CheckDimensions("x", [][]float32{{1, 2}, {3}}, 2), domain.ErrDimensionMismatch)
}
