// Package corpus stores the JSON hand-off files between collection and
// indexing under a data directory:
//
//	<data_dir>/raw/<city>_places.json         cached place features
//	<data_dir>/processed/<city>_documents.json  [{id, content, metadata}]
package corpus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/custodia-labs/travelrag/internal/core/domain"
	"github.com/custodia-labs/travelrag/internal/core/ports/driven"
)

// Ensure FileStore implements the interface.
var _ driven.CorpusStore = (*FileStore)(nil)

// FileStore is a CorpusStore backed by JSON files.
type FileStore struct {
	dataDir string
}

// NewFileStore creates a store rooted at dataDir. Directories are created on write.
func NewFileStore(dataDir string) *FileStore {
	return &FileStore{dataDir: dataDir}
}

// storedDocument keeps metadata raw so numbers decode through domain.DecodeMetadata.
type storedDocument struct {
	ID       string          `json:"id"`
	Content  string          `json:"content"`
	Metadata json.RawMessage `json:"metadata"`
	ParentID string          `json:"parent_id,omitempty"`
	Segment  int             `json:"segment,omitempty"`
}

type storedRaw struct {
	Source  string          `json:"source"`
	URI     string          `json:"uri,omitempty"`
	Region  string          `json:"region,omitempty"`
	Content json.RawMessage `json:"content"`
}

// SaveDocuments writes the processed corpus for city.
func (s *FileStore) SaveDocuments(ctx context.Context, city string, docs []domain.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if docs == nil {
		docs = []domain.Document{}
	}
	return writeJSON(s.DocumentsPath(city), docs)
}

// LoadDocuments reads the processed corpus for city.
func (s *FileStore) LoadDocuments(ctx context.Context, city string) ([]domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var stored []storedDocument
	if err := readJSON(s.DocumentsPath(city), &stored); err != nil {
		return nil, err
	}

	docs := make([]domain.Document, 0, len(stored))
	for _, sd := range stored {
		doc := domain.Document{
			ID:       sd.ID,
			Content:  sd.Content,
			ParentID: sd.ParentID,
			Segment:  sd.Segment,
		}
		if len(sd.Metadata) > 0 && string(sd.Metadata) != "null" {
			meta, err := domain.DecodeMetadata(sd.Metadata)
			if err != nil {
				return nil, fmt.Errorf("corpus: document %q: %w", sd.ID, err)
			}
			doc.Metadata = meta
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// SaveRaw caches raw place features for city.
func (s *FileStore) SaveRaw(ctx context.Context, city string, records []domain.RawRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	stored := make([]storedRaw, 0, len(records))
	for _, r := range records {
		if !json.Valid(r.Content) {
			return fmt.Errorf("corpus: raw record %q is not JSON: %w", r.URI, domain.ErrInvalidInput)
		}
		stored = append(stored, storedRaw{
			Source:  r.Source,
			URI:     r.URI,
			Region:  r.Region,
			Content: json.RawMessage(r.Content),
		})
	}
	return writeJSON(s.RawPath(city), stored)
}

// LoadRaw returns the cached raw features for city.
func (s *FileStore) LoadRaw(ctx context.Context, city string) ([]domain.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var stored []storedRaw
	if err := readJSON(s.RawPath(city), &stored); err != nil {
		return nil, err
	}

	records := make([]domain.RawRecord, 0, len(stored))
	for _, sr := range stored {
		records = append(records, domain.RawRecord{
			Source:  sr.Source,
			URI:     sr.URI,
			Region:  sr.Region,
			Content: []byte(sr.Content),
		})
	}
	return records, nil
}

// DocumentsPath returns the processed corpus file for city.
func (s *FileStore) DocumentsPath(city string) string {
	return filepath.Join(s.dataDir, "processed", Slug(city)+"_documents.json")
}

// RawPath returns the raw feature cache for city.
func (s *FileStore) RawPath(city string) string {
	return filepath.Join(s.dataDir, "raw", Slug(city)+"_places.json")
}

// Slug lowercases city and replaces anything outside [a-z0-9] with '_'.
func Slug(city string) string {
	slug := strings.Map(func(r rune) rune {
		r = unicode.ToLower(r)
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, strings.TrimSpace(city))
	if slug == "" {
		return "default"
	}
	return slug
}

// writeJSON writes v through a temp file and rename so readers never see a partial corpus.
func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("corpus: create directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("corpus: encode %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("corpus: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("corpus: write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("corpus: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("corpus: %s: %w", path, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("corpus: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("corpus: decode %s: %w", filepath.Base(path), err)
	}
	return nil
}
