package driven

import (
	"context"

	"github.com/custodia-labs/travelrag/internal/core/domain"
)

// OpenMode controls what happens when a collection does not exist yet.
type OpenMode int

const (
	// OpenModeCreate creates the collection when missing.
	OpenModeCreate OpenMode = iota

	// OpenModeRead fails with domain.ErrNotFound when the collection is missing.
	OpenModeRead
)

// VectorIndexConfig describes the collection to open.
type VectorIndexConfig struct {
	// Collection names the index.
	Collection string

	// Dimensions is bound to the collection for its lifetime. Reopening an
	// existing collection with a different value fails with domain.ErrDimensionMismatch.
	Dimensions int

	// Metric is fixed when the collection is created.
	Metric domain.Metric

	// Mode is OpenModeCreate or OpenModeRead.
	Mode OpenMode

	// Recreate drops an existing collection before opening, which is how a
	// collection moves to a new dimension. Implies OpenModeCreate.
	Recreate bool
}

// VectorIndex stores document embeddings and answers similarity queries.
type VectorIndex interface {
	// Upsert inserts or replaces entries. Each entry is written atomically
	// (vector, content and metadata together). Rejected entries are reported
	// through a *domain.UpsertError; the remaining entries still commit.
	Upsert(ctx context.Context, entries []domain.IndexedEntry) error

	// Query returns at most k entries matching filter, ranked by the
	// collection metric. Results are never padded.
	Query(ctx context.Context, vector []float32, k int, filter domain.Filter) (domain.RetrievalResult, error)

	// Get returns one entry, or domain.ErrNotFound.
	Get(ctx context.Context, id string) (*domain.IndexedEntry, error)

	// Delete removes entries. Unknown identifiers are ignored.
	Delete(ctx context.Context, ids []string) error

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)

	// Reset removes every entry, keeping the collection.
	Reset(ctx context.Context) error

	// Dimensions returns the collection dimension.
	Dimensions() int

	// Metric returns the collection metric.
	Metric() domain.Metric

	// Generation increases after every successful write.
	Generation() uint64

	// Close releases resources.
	Close() error
}
