package cli

import (
	"context"
	"errors"

	"github.com/custodia-labs/travelrag/internal/core/domain"
)

// describeError turns an error into the message shown to the user.
func describeError(err error) string {
	switch {
	case errors.Is(err, domain.ErrGenerationFailed):
		return "Could not generate an answer, please try again. (" + err.Error() + ")"
	case errors.Is(err, domain.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "The request timed out. Check your connection or raise request_timeout. (" + err.Error() + ")"
	case errors.Is(err, domain.ErrLLMUnavailable):
		return "The language model is not available: " + err.Error()
	case errors.Is(err, domain.ErrEmbeddingUnavailable), errors.Is(err, domain.ErrModelUnavailable):
		return "The embedding model is not available: " + err.Error()
	case errors.Is(err, domain.ErrVectorIndexUnavailable):
		return "The vector store is not available: " + err.Error()
	case errors.Is(err, domain.ErrDimensionMismatch):
		return "The collection was built with another embedding model. Run 'travelrag index --reset'. (" + err.Error() + ")"
	case errors.Is(err, domain.ErrRateLimited):
		return "An upstream API is rate limiting requests, try again later: " + err.Error()
	case errors.Is(err, domain.ErrFetchFailed):
		return "Fetching data failed: " + err.Error()
	case errors.Is(err, domain.ErrInvalidInput):
		return "Invalid input: " + err.Error()
	case errors.Is(err, context.Canceled):
		return "Cancelled."
	default:
		return err.Error()
	}
}
