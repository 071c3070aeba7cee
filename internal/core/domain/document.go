package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Metadata keys written by the document builder.
const (
	MetaPlaceID        = "place_id"
	MetaName           = "name"
	MetaCity           = "city"
	MetaState          = "state"
	MetaCountry        = "country"
	MetaRegion         = "region"
	MetaCategories     = "categories"
	MetaLat            = "lat"
	MetaLon            = "lon"
	MetaHasDescription = "has_description"
	MetaSource         = "source"
	MetaParentID       = "parent_id"
	MetaSegment        = "segment"
)

// Document is one retrievable text unit.
// It is the persisted hand-off format between collection and indexing,
// so the JSON field names are stable.
type Document struct {
	// ID is unique across the corpus. Segments use "<parent>#<nnnn>".
	ID string `json:"id"`

	// Content is the concatenated text body.
	Content string `json:"content"`

	// Metadata holds scalar values only.
	Metadata map[string]any `json:"metadata"`

	// ParentID links a segment to the record it was cut from.
	// Empty for unsegmented documents.
	ParentID string `json:"parent_id,omitempty"`

	// Segment is the ordinal position within the parent.
	Segment int `json:"segment,omitempty"`
}

// Validate checks the document invariants: non-empty identifier and body,
// and scalar-only metadata without nulls.
func (d Document) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return fmt.Errorf("%w: document identifier is empty", ErrInvalidInput)
	}
	if strings.TrimSpace(d.Content) == "" {
		return fmt.Errorf("%w: document %s has empty content", ErrInvalidInput, d.ID)
	}
	return ValidateMetadata(d.Metadata)
}

// String returns a metadata value as a string, or "" if absent.
func (d Document) String(key string) string {
	if d.Metadata == nil {
		return ""
	}
	switch v := d.Metadata[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// ValidateMetadata rejects nil values and non-scalar values.
func ValidateMetadata(meta map[string]any) error {
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if !IsScalar(meta[k]) {
			return fmt.Errorf("%w: key %q has value %T", ErrInvalidMetadata, k, meta[k])
		}
	}
	return nil
}

// IsScalar reports whether v is a non-nil string, bool or number.
func IsScalar(v any) bool {
	switch v.(type) {
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	default:
		return false
	}
}

// CleanMetadata returns a copy of meta with nil and non-scalar values removed.
func CleanMetadata(meta map[string]any) map[string]any {
	out := make(map[string]any, len(meta))
	for k, v := range meta {
		if IsScalar(v) {
			out[k] = v
		}
	}
	return out
}

// IndexedEntry is a document paired with its embedding, as held by a vector index.
// Vector, metadata and content are always replaced together.
type IndexedEntry struct {
	ID       string
	Document Document
	Vector   []float32
}

// DecodeMetadata parses a stored metadata object, keeping integers as
// int64 rather than float64.
func DecodeMetadata(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	for k, v := range raw {
		n, ok := v.(json.Number)
		if !ok {
			continue
		}
		if i, err := n.Int64(); err == nil {
			raw[k] = i
		} else if f, err := n.Float64(); err == nil {
			raw[k] = f
		}
	}
	return raw, nil
}
