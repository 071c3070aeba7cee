// Package llm holds helpers shared by the generator adapters.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/custodia-labs/travelrag/internal/core/domain"
)

// ClassifyStatus maps a non-2xx provider response onto domain errors.
// Rate limits, auth failures and server errors mean the model cannot be
// reached; anything else is a failed generation.
func ClassifyStatus(provider string, status int, body string) error {
	body = strings.TrimSpace(body)
	switch {
	case status == http.StatusTooManyRequests,
		status == http.StatusUnauthorized,
		status == http.StatusForbidden,
		status >= 500:
		return fmt.Errorf("%s: %w (status %d): %s", provider, domain.ErrLLMUnavailable, status, body)
	default:
		return fmt.Errorf("%s: %w (status %d): %s", provider, domain.ErrGenerationFailed, status, body)
	}
}

// ClassifyTransport maps a failed round trip onto domain errors.
func ClassifyTransport(provider string, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", provider, domain.ClassifyContextError(err))
	case errors.Is(err, context.Canceled):
		return err
	default:
		return fmt.Errorf("%s: %w: %w", provider, domain.ErrLLMUnavailable, err)
	}
}

// CheckReply rejects an empty completion.
func CheckReply(provider, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%s: %w: empty response", provider, domain.ErrGenerationFailed)
	}
	return text, nil
}
