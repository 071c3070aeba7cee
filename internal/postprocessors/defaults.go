package postprocessors

import (
	"fmt"

	"github.com/custodia-labs/travelrag/internal/adapters/driven/config"
	"github.com/custodia-labs/travelrag/internal/core/domain"
	"github.com/custodia-labs/travelrag/internal/core/ports/driven"
	"github.com/custodia-labs/travelrag/internal/postprocessors/chunker"
)

// RegisterDefaults registers the built-in processors.
func RegisterDefaults(r *Registry) {
	r.Register("chunker", buildChunker)
}

// buildChunker reads chunk_size and overlap, both in runes. Absent keys
// keep the chunker defaults; an overlap that would not advance the window
// is rejected.
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	size, overlap := chunker.DefaultChunkSize, chunker.DefaultChunkOverlap
	if v, ok := cfg["chunk_size"]; ok {
		size = config.Int(v)
	}
	if v, ok := cfg["overlap"]; ok {
		overlap = config.Int(v)
	}

	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk_size must be positive, got %d", domain.ErrInvalidInput, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: overlap must be in [0, %d), got %d", domain.ErrInvalidInput, size, overlap)
	}

	return chunker.New(chunker.WithChunkSize(size), chunker.WithOverlap(overlap)), nil
}
