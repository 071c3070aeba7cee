// Package embedding holds helpers shared by the embedding adapters.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/custodia-labs/travelrag/internal/core/domain"
)

// tooLongHints are fragments servers use when rejecting oversized input.
var tooLongHints = []string{
	"too long",
	"maximum context length",
	"must have less than",
	"exceeds the maximum",
	"input length",
}

// ClassifyStatus maps a non-2xx embedding response onto domain errors.
// 5xx and 429 become domain.ErrModelUnavailable (retry); 413 and length
// complaints become domain.ErrInputTooLong (skip).
func ClassifyStatus(provider string, status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	lower := strings.ToLower(msg)

	switch {
	case status == http.StatusRequestEntityTooLarge:
		return fmt.Errorf("%s: %w: %s", provider, domain.ErrInputTooLong, msg)
	case status >= 400 && status < 500 && containsAny(lower, tooLongHints):
		return fmt.Errorf("%s: %w: %s", provider, domain.ErrInputTooLong, msg)
	case status == http.StatusTooManyRequests || status >= 500:
		return fmt.Errorf("%s: %w (status %d): %s", provider, domain.ErrModelUnavailable, status, msg)
	default:
		return fmt.Errorf("%s error (status %d): %s", provider, status, msg)
	}
}

// ClassifyTransport maps a failed HTTP round trip onto domain errors.
func ClassifyTransport(provider string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", provider, domain.ClassifyContextError(err))
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", provider, domain.ErrModelUnavailable, err)
}

// CheckDimensions verifies every vector has the expected length.
func CheckDimensions(provider string, vectors [][]float32, want int) error {
	for i, v := range vectors {
		if len(v) != want {
			return fmt.Errorf("%s: %w: vector %d has %d dimensions, want %d",
				provider, domain.ErrDimensionMismatch, i, len(v), want)
		}
	}
	return nil
}

// ToFloat32 converts a JSON-decoded vector.
func ToFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
