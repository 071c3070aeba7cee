package driven

import (
	"context"

	"github.com/custodia-labs/travelrag/internal/core/domain"
)

// PlaceQuery selects the places to fetch.
type PlaceQuery struct {
	City       string
	BBox       domain.BoundingBox
	Categories string
	Limit      int
}

// PlaceSource fetches attraction features from a places API.
// Each returned record holds one feature.
type PlaceSource interface {
	// Name identifies the source (e.g. "geoapify").
	Name() string

	// FetchPlaces returns raw features. Transport failures wrap domain.ErrFetchFailed.
	FetchPlaces(ctx context.Context, q PlaceQuery) ([]domain.RawRecord, error)
}

// DescriptionSource fetches free-text descriptions from an encyclopedia.
type DescriptionSource interface {
	// Name identifies the source (e.g. "wikipedia").
	Name() string

	// FetchDescription returns the raw response for a "lang:Title" reference.
	// Transport failures wrap domain.ErrFetchFailed; a malformed reference
	// wraps domain.ErrEnrichmentMissing.
	FetchDescription(ctx context.Context, ref string) (domain.RawRecord, error)
}
