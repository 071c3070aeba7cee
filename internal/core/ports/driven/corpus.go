package driven

import (
	"context"

	"github.com/custodia-labs/travelrag/internal/core/domain"
)

// CorpusStore persists the hand-off between collection and indexing.
type CorpusStore interface {
	// SaveDocuments writes the processed corpus for a city, replacing any previous one.
	SaveDocuments(ctx context.Context, city string, docs []domain.Document) error

	// LoadDocuments reads the processed corpus, or domain.ErrNotFound.
	LoadDocuments(ctx context.Context, city string) ([]domain.Document, error)

	// SaveRaw caches the raw place features for a city.
	SaveRaw(ctx context.Context, city string, records []domain.RawRecord) error

	// LoadRaw returns cached raw features, or domain.ErrNotFound.
	LoadRaw(ctx context.Context, city string) ([]domain.RawRecord, error)

	// DocumentsPath returns where the processed corpus for city lives.
	DocumentsPath(city string) string
}
