// Package chunker provides a fixed-window text segmentation processor.
package chunker

import (
	"context"
	"fmt"

	"github.com/custodia-labs/travelrag/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per segment.
const DefaultChunkSize = 500

// DefaultChunkOverlap is the default number of characters shared by adjacent segments.
const DefaultChunkOverlap = 50

// Processor splits document content into fixed-size windows measured in runes.
// It implements the PostProcessor interface.
//
// A document that fits in one window passes through unchanged, keeping its
// identifier. Longer documents become segments "<id>#0001", "<id>#0002", ...
// carrying the parent identifier and ordinal in their metadata.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the window size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between windows in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// SegmentID returns the identifier of the n-th (1-based) segment of parent.
func SegmentID(parent string, n int) string {
	return fmt.Sprintf("%s#%04d", parent, n)
}

// Process splits the document content into windows.
// Input segments are ignored; this processor creates new ones from document content.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Document) ([]domain.Document, error) {
	if doc.Content == "" {
		return nil, nil
	}

	runes := []rune(doc.Content)
	if len(runes) <= p.chunkSize {
		return []domain.Document{*doc}, nil
	}

	step := p.chunkSize - p.overlap
	segments := make([]domain.Document, 0, len(runes)/step+1)

	for start, n := 0, 1; start < len(runes); start, n = start+step, n+1 {
		end := start + p.chunkSize
		if end > len(runes) {
			end = len(runes)
		}

		meta := make(map[string]any, len(doc.Metadata)+2)
		for k, v := range doc.Metadata {
			meta[k] = v
		}
		meta[domain.MetaParentID] = doc.ID
		meta[domain.MetaSegment] = n

		segments = append(segments, domain.Document{
			ID:       SegmentID(doc.ID, n),
			Content:  string(runes[start:end]),
			Metadata: meta,
			ParentID: doc.ID,
			Segment:  n,
		})

		if end == len(runes) {
			break
		}
	}

	return segments, nil
}
