package chunker

import (
	"context"
	"strings"
	"testing"

	"github.com/custodia-labs/travelrag/internal/core/domain"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		p := New()
		if p.chunkSize != DefaultChunkSize {
			t.Errorf("expected chunkSize %d, got %d", DefaultChunkSize, p.chunkSize)
		}
		if p.overlap != DefaultChunkOverlap {
			t.Errorf("expected overlap %d, got %d", DefaultChunkOverlap, p.overlap)
		}
	})

	t.Run("overlap exceeds chunk size", func(t *testing.T) {
		p := New(WithChunkSize(100), WithOverlap(150))
		if p.overlap >= p.chunkSize {
			t.Error("overlap should be reduced when it exceeds chunk size")
		}
	})

	t.Run("zero values ignored", func(t *testing.T) {
		p := New(WithChunkSize(0), WithOverlap(-1))
		if p.chunkSize != DefaultChunkSize {
			t.Errorf("expected default chunkSize, got %d", p.chunkSize)
		}
		if p.overlap != DefaultChunkOverlap {
			t.Errorf("expected default overlap, got %d", p.overlap)
		}
	})
}

func TestProcessor_Name(t *testing.T) {
	if New().Name() != "chunker" {
		t.Errorf("expected name 'chunker', got '%s'", New().Name())
	}
}

func TestProcessor_Process_EmptyContent(t *testing.T) {
	segs, err := New().Process(context.Background(), &domain.Document{ID: "p1"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segs) != 0 {
		t.Errorf("expected 0 segments for empty content, got %d", len(segs))
	}
}

func TestProcessor_Process_FitsInOneWindow(t *testing.T) {
	p := New(WithChunkSize(100), WithOverlap(20))
	doc := &domain.Document{
		ID:       "p1",
		Content:  strings.Repeat("a", 100),
		Metadata: map[string]any{"name": "Space Needle"},
	}

	segs, err := p.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segs))
	}
	if segs[0].ID != "p1" {
		t.Errorf("expected identifier to be kept, got %q", segs[0].ID)
	}
	if segs[0].ParentID != "" {
		t.Errorf("expected no parent, got %q", segs[0].ParentID)
	}
	if _, ok := segs[0].Metadata[domain.MetaSegment]; ok {
		t.Error("single document should not carry segment metadata")
	}
}

func TestProcessor_Process_Windows(t *testing.T) {
	p := New(WithChunkSize(100), WithOverlap(20))
	content := strings.Repeat("0123456789", 25) // 250 runes
	doc := &domain.Document{ID: "p1", Content: content, Metadata: map[string]any{"city": "Seattle"}}

	segs, err := p.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// windows start at 0, 80, 160; the third reaches the end
	if len(segs) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segs))
	}
	wantIDs := []string{"p1#0001", "p1#0002", "p1#0003"}
	for i, seg := range segs {
		if seg.ID != wantIDs[i] {
			t.Errorf("segment %d: expected id %s, got %s", i, wantIDs[i], seg.ID)
		}
		if seg.ParentID != "p1" || seg.Metadata[domain.MetaParentID] != "p1" {
			t.Errorf("segment %d: parent not recorded", i)
		}
		if seg.Segment != i+1 || seg.Metadata[domain.MetaSegment] != i+1 {
			t.Errorf("segment %d: ordinal not recorded", i)
		}
		if seg.Metadata["city"] != "Seattle" {
			t.Errorf("segment %d: parent metadata not copied", i)
		}
	}
	if segs[0].Content != content[:100] || segs[1].Content != content[80:180] || segs[2].Content != content[160:] {
		t.Error("unexpected window boundaries")
	}
	if doc.Metadata[domain.MetaParentID] != nil {
		t.Error("input metadata must not be modified")
	}
}

func TestProcessor_Process_CountsRunes(t *testing.T) {
	p := New(WithChunkSize(10), WithOverlap(0))
	doc := &domain.Document{ID: "k", Content: strings.Repeat("é", 10)}

	segs, err := p.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segs) != 1 {
		t.Errorf("expected multi-byte content of 10 runes to fit one window, got %d", len(segs))
	}
}

func TestSegmentID(t *testing.T) {
	if got := SegmentID("abc", 12); got != "abc#0012" {
		t.Errorf("unexpected segment id %q", got)
	}
}
