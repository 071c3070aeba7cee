package domain

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity (collection, session, entry) does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidMetadata indicates a document carries a null or nested metadata value.
	ErrInvalidMetadata = errors.New("invalid metadata")

	// ErrUnsupportedType indicates an unknown provider or backend.
	ErrUnsupportedType = errors.New("unsupported type")

	// Ingestion Errors.

	// ErrFetchFailed indicates a transient failure calling an external API.
	// Callers may retry.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrEnrichmentMissing indicates a record lacks a required cross-reference
	// or the enrichment source has nothing for it. Permanent for that record.
	ErrEnrichmentMissing = errors.New("enrichment missing")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// Embedding Errors.

	// ErrModelUnavailable indicates the embedding model could not be reached.
	// Retry with backoff.
	ErrModelUnavailable = errors.New("embedding model unavailable")

	// ErrInputTooLong indicates the text exceeds the embedding model's input limit.
	// Skip, do not retry.
	ErrInputTooLong = errors.New("input too long")

	// Vector Store Errors.

	// ErrDimensionMismatch indicates a vector length differs from the collection dimension.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// Query Errors.

	// ErrTimeout indicates an external call exceeded its deadline.
	ErrTimeout = errors.New("timeout")

	// ErrGenerationFailed indicates the hosted generative model returned an error.
	ErrGenerationFailed = errors.New("generation failed")

	// Service Availability.

	// ErrLLMUnavailable indicates the generative model is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorIndexUnavailable indicates the vector index is not configured.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")
)

// IsRetryable reports whether err is a transient failure worth retrying.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrFetchFailed) ||
		errors.Is(err, ErrModelUnavailable) ||
		errors.Is(err, ErrRateLimited)
}

// ClassifyContextError maps context deadline errors onto ErrTimeout.
// Other errors are returned unchanged.
func ClassifyContextError(err error) error {
	if err == nil || errors.Is(err, ErrTimeout) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}

// UpsertError reports the entries of a batch upsert that were not written.
// Entries not listed were committed.
type UpsertError struct {
	// Failed maps entry identifier to the reason it was rejected.
	Failed map[string]error
}

// Error implements the error interface.
func (e *UpsertError) Error() string {
	ids := e.FailedIDs()
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%s: %v", id, e.Failed[id]))
	}
	return fmt.Sprintf("upsert failed for %d entries: %s", len(ids), strings.Join(parts, "; "))
}

// FailedIDs returns the rejected identifiers in sorted order.
func (e *UpsertError) FailedIDs() []string {
	ids := make([]string, 0, len(e.Failed))
	for id := range e.Failed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Unwrap exposes the per-entry causes to errors.Is and errors.As.
func (e *UpsertError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed))
	for _, id := range e.FailedIDs() {
		errs = append(errs, e.Failed[id])
	}
	return errs
}

// AsUpsertError extracts an UpsertError from err.
func AsUpsertError(err error) (*UpsertError, bool) {
	var ue *UpsertError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}
