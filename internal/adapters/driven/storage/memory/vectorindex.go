package memory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/travelrag/internal/core/domain"
	"github.com/custodia-labs/travelrag/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// Collections holds named in-memory vector collections for one process.
type Collections struct {
	mu    sync.Mutex
	items map[string]*VectorIndex
}

// NewCollections creates an empty collection registry.
func NewCollections() *Collections {
	return &Collections{items: make(map[string]*VectorIndex)}
}

// Open returns the named collection, creating it when cfg.Mode allows.
func (c *Collections) Open(cfg driven.VectorIndexConfig) (*VectorIndex, error) {
	if cfg.Collection == "" {
		return nil, fmt.Errorf("%w: collection name is empty", domain.ErrInvalidInput)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if cfg.Recreate {
		delete(c.items, cfg.Collection)
		cfg.Mode = driven.OpenModeCreate
	}

	if idx, ok := c.items[cfg.Collection]; ok {
		if cfg.Dimensions != 0 && cfg.Dimensions != idx.dimensions {
			return nil, fmt.Errorf("%w: collection %q has %d dimensions, requested %d",
				domain.ErrDimensionMismatch, cfg.Collection, idx.dimensions, cfg.Dimensions)
		}
		return idx, nil
	}

	if cfg.Mode == driven.OpenModeRead {
		return nil, fmt.Errorf("collection %q: %w", cfg.Collection, domain.ErrNotFound)
	}

	idx, err := NewVectorIndex(cfg.Dimensions, cfg.Metric)
	if err != nil {
		return nil, err
	}
	c.items[cfg.Collection] = idx
	return idx, nil
}

// VectorIndex is a brute-force in-memory implementation of driven.VectorIndex.
type VectorIndex struct {
	mu         sync.RWMutex
	entries    map[string]domain.IndexedEntry
	dimensions int
	metric     domain.Metric
	generation atomic.Uint64
}

// NewVectorIndex creates a standalone in-memory index.
func NewVectorIndex(dimensions int, metric domain.Metric) (*VectorIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("%w: dimensions must be positive", domain.ErrInvalidInput)
	}
	if metric == "" {
		metric = domain.MetricCosine
	}
	if !metric.IsValid() {
		return nil, fmt.Errorf("%w: unknown metric %q", domain.ErrInvalidInput, metric)
	}
	return &VectorIndex{
		entries:    make(map[string]domain.IndexedEntry),
		dimensions: dimensions,
		metric:     metric,
	}, nil
}

// Upsert inserts or replaces entries. Invalid entries are reported in a
// *domain.UpsertError and the rest are committed.
func (v *VectorIndex) Upsert(ctx context.Context, entries []domain.IndexedEntry) error {
	if err := ctx.Err(); err != nil {
		return domain.ClassifyContextError(err)
	}

	failed := make(map[string]error)

	v.mu.Lock()
	written := 0
	for _, e := range entries {
		if err := domain.ValidateEntry(e, v.dimensions); err != nil {
			failed[e.ID] = err
			continue
		}
		v.entries[e.ID] = cloneEntry(e)
		written++
	}
	v.mu.Unlock()

	if written > 0 {
		v.generation.Add(1)
	}
	if len(failed) > 0 {
		return &domain.UpsertError{Failed: failed}
	}
	return nil
}

// Query scans every entry and returns the best k matching filter.
func (v *VectorIndex) Query(ctx context.Context, vector []float32, k int, filter domain.Filter) (domain.RetrievalResult, error) {
	if err := domain.ValidateQuery(vector, k, v.dimensions); err != nil {
		return domain.RetrievalResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return domain.RetrievalResult{}, domain.ClassifyContextError(err)
	}
	if k == 0 {
		return domain.RetrievalResult{}, nil
	}

	v.mu.RLock()
	hits := make([]domain.ScoredDocument, 0, len(v.entries))
	for _, e := range v.entries {
		if !filter.Matches(e.Document.Metadata) {
			continue
		}
		score, dist := domain.Similarity(v.metric, vector, e.Vector)
		hits = append(hits, domain.ScoredDocument{
			Document: cloneEntry(e).Document,
			Score:    score,
			Distance: dist,
		})
	}
	v.mu.RUnlock()

	return domain.RankTopK(hits, k), nil
}

// Get returns one entry.
func (v *VectorIndex) Get(_ context.Context, id string) (*domain.IndexedEntry, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	e, ok := v.entries[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := cloneEntry(e)
	return &c, nil
}

// Delete removes entries by identifier.
func (v *VectorIndex) Delete(_ context.Context, ids []string) error {
	v.mu.Lock()
	removed := 0
	for _, id := range ids {
		if _, ok := v.entries[id]; ok {
			delete(v.entries, id)
			removed++
		}
	}
	v.mu.Unlock()

	if removed > 0 {
		v.generation.Add(1)
	}
	return nil
}

// Count returns the number of entries.
func (v *VectorIndex) Count(context.Context) (int, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.entries), nil
}

// Reset removes all entries.
func (v *VectorIndex) Reset(context.Context) error {
	v.mu.Lock()
	v.entries = make(map[string]domain.IndexedEntry)
	v.mu.Unlock()
	v.generation.Add(1)
	return nil
}

// Dimensions returns the collection dimension.
func (v *VectorIndex) Dimensions() int {
	return v.dimensions
}

// Metric returns the collection metric.
func (v *VectorIndex) Metric() domain.Metric {
	return v.metric
}

// Generation returns the write counter.
func (v *VectorIndex) Generation() uint64 {
	return v.generation.Load()
}

// Close is a no-op; the collection stays registered.
func (v *VectorIndex) Close() error {
	return nil
}

func cloneEntry(e domain.IndexedEntry) domain.IndexedEntry {
	out := e
	out.Vector = append([]float32(nil), e.Vector...)
	if e.Document.Metadata != nil {
		meta := make(map[string]any, len(e.Document.Metadata))
		for k, val := range e.Document.Metadata {
			meta[k] = val
		}
		out.Document.Metadata = meta
	}
	return out
}
