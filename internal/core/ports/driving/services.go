package driving

import (
	"context"

	"github.com/custodia-labs/travelrag/internal/core/domain"
)

// CollectRequest selects what to collect.
type CollectRequest struct {
	// City overrides the configured city. BBox must accompany it.
	City string
	BBox domain.BoundingBox

	// Refresh ignores the raw place cache.
	Refresh bool
}

// CollectReport describes a finished collection run.
type CollectReport struct {
	City string

	// Places is the number of raw features fetched or loaded from cache.
	Places int

	// FromCache is true when the raw cache was reused.
	FromCache bool

	// Records tallies per-record outcomes.
	Records domain.IngestSummary

	Quality domain.QualityStats

	// Documents is the number of documents written after segmentation.
	Documents int

	// Path is where the processed corpus was written.
	Path string
}

// CollectService fetches, normalises, enriches and builds the corpus.
type CollectService interface {
	Collect(ctx context.Context, req CollectRequest) (*CollectReport, error)
}

// IndexRequest selects what to index.
type IndexRequest struct {
	City string

	// Reset clears the collection before writing.
	Reset bool
}

// IndexReport describes a finished indexing run.
type IndexReport struct {
	Summary domain.IngestSummary

	// Count is the collection size afterwards.
	Count int
}

// IndexService embeds the processed corpus into the vector index.
type IndexService interface {
	// Index embeds and upserts every document of the city's corpus.
	Index(ctx context.Context, req IndexRequest) (*IndexReport, error)

	// IndexDocuments embeds and upserts the given documents.
	IndexDocuments(ctx context.Context, docs []domain.Document) (domain.IngestSummary, error)
}

// AskRequest is one question.
type AskRequest struct {
	Question string

	// SessionID continues a conversation. Empty starts a new session.
	SessionID string

	// K overrides the configured top-k when positive.
	K int

	Filter domain.Filter
}

// AskService answers questions grounded in the vector index.
type AskService interface {
	// Ask retrieves context, generates a reply and records both turns.
	Ask(ctx context.Context, req AskRequest) (*domain.Answer, error)

	// Retrieve returns the top-k documents for a query without generating.
	Retrieve(ctx context.Context, query string, k int, filter domain.Filter) (domain.RetrievalResult, error)
}

// SessionService manages conversation sessions.
type SessionService interface {
	// NewSessionID returns a fresh session identifier.
	NewSessionID() string

	History(ctx context.Context, sessionID string) ([]domain.Turn, error)
	Clear(ctx context.Context, sessionID string) error
	List(ctx context.Context) ([]domain.SessionInfo, error)
}
