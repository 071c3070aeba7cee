package driven

import (
	"context"

	"github.com/custodia-labs/travelrag/internal/core/domain"
)

// PlaceNormaliser maps one raw place feature onto a canonical record.
// A feature without an encyclopedia cross-reference still yields a record
// but the error wraps domain.ErrEnrichmentMissing.
type PlaceNormaliser interface {
	// Source returns the connector name this normaliser understands.
	Source() string

	// Normalise transforms a raw feature into a record.
	Normalise(ctx context.Context, raw *domain.RawRecord) (*domain.CanonicalRecord, error)
}

// DescriptionNormaliser extracts description text from a raw encyclopedia response.
type DescriptionNormaliser interface {
	// Source returns the connector name this normaliser understands.
	Source() string

	// Normalise returns the cleaned description, or an error wrapping
	// domain.ErrEnrichmentMissing when the response has none.
	Normalise(ctx context.Context, raw *domain.RawRecord) (string, error)
}
