package driven

import (
	"context"

	"github.com/custodia-labs/travelrag/internal/core/domain"
)

// PostProcessor refines built documents before they are persisted.
// PostProcessors are chained in a pipeline (e.g., segmentation).
type PostProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process takes a document and the segments produced so far.
	// The first processor receives nil and returns new segments.
	Process(ctx context.Context, doc *domain.Document, segments []domain.Document) ([]domain.Document, error)
}

// PostProcessorPipeline chains multiple PostProcessors.
type PostProcessorPipeline interface {
	// Process runs the document through all processors in order.
	Process(ctx context.Context, doc *domain.Document) ([]domain.Document, error)
}
