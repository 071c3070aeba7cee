package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/custodia-labs/travelrag/internal/core/domain"
	"github.com/custodia-labs/travelrag/internal/core/ports/driven"
	"github.com/custodia-labs/travelrag/internal/logger"
)

// DefaultQueryCacheSize is the number of query embeddings kept.
const DefaultQueryCacheSize = 256

// queryKey ties a cached embedding to the index generation, so any write
// to the collection invalidates every cached query.
type queryKey struct {
	generation uint64
	model      string
	query      string
}

// Retriever embeds a question and queries the vector index.
type Retriever struct {
	embedder driven.Embedder
	index    driven.VectorIndex
	cache    *lru.Cache[queryKey, []float32]
	timeout  time.Duration
}

// NewRetriever creates a retriever with an LRU query-embedding cache.
// A cacheSize of zero uses DefaultQueryCacheSize.
func NewRetriever(embedder driven.Embedder, index driven.VectorIndex, cacheSize int, timeout time.Duration) (*Retriever, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultQueryCacheSize
	}
	cache, err := lru.New[queryKey, []float32](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create query cache: %w", err)
	}
	return &Retriever{
		embedder: embedder,
		index:    index,
		cache:    cache,
		timeout:  timeout,
	}, nil
}

// Retrieve returns at most k documents for query, best first.
// An empty query or k of zero yields an empty result.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int, filter domain.Filter) (domain.RetrievalResult, error) {
	query = strings.TrimSpace(query)
	if k < 0 {
		return domain.RetrievalResult{}, fmt.Errorf("%w: k must not be negative", domain.ErrInvalidInput)
	}
	if query == "" || k == 0 {
		return domain.RetrievalResult{}, nil
	}
	if err := filter.Validate(); err != nil {
		return domain.RetrievalResult{}, err
	}

	vector, err := r.queryVector(ctx, query)
	if err != nil {
		return domain.RetrievalResult{}, err
	}

	result, err := r.index.Query(ctx, vector, k, filter)
	if err != nil {
		return domain.RetrievalResult{}, fmt.Errorf("query index: %w", domain.ClassifyContextError(err))
	}
	logger.Debug("Retrieved %d of %d for %q", result.Len(), k, query)
	return result, nil
}

func (r *Retriever) queryVector(ctx context.Context, query string) ([]float32, error) {
	key := queryKey{
		generation: r.index.Generation(),
		model:      r.embedder.ModelName(),
		query:      query,
	}
	if v, ok := r.cache.Get(key); ok {
		return v, nil
	}

	callCtx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	v, err := r.embedder.Embed(callCtx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", domain.ClassifyContextError(err))
	}
	r.cache.Add(key, v)
	return v, nil
}
