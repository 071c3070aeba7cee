package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/custodia-labs/travelrag/internal/core/domain"
	"github.com/custodia-labs/travelrag/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex is one named collection inside the store.
type VectorIndex struct {
	store      *Store
	collection string
	dimensions int
	metric     domain.Metric
	generation atomic.Uint64
}

// OpenVectorIndex opens or creates a collection. The dimension and metric
// of an existing collection are authoritative: a conflicting dimension
// fails with domain.ErrDimensionMismatch.
func (s *Store) OpenVectorIndex(ctx context.Context, cfg driven.VectorIndexConfig) (*VectorIndex, error) {
	if cfg.Collection == "" {
		return nil, fmt.Errorf("%w: collection name is empty", domain.ErrInvalidInput)
	}
	if cfg.Recreate {
		if err := s.DropCollection(ctx, cfg.Collection); err != nil {
			return nil, err
		}
		cfg.Mode = driven.OpenModeCreate
	}

	var dims int
	var metric string
	var gen int64
	err := s.db.QueryRowContext(ctx,
		`SELECT dimensions, metric, generation FROM collections WHERE name = ?`,
		cfg.Collection,
	).Scan(&dims, &metric, &gen)

	switch {
	case err == nil:
		if cfg.Dimensions != 0 && cfg.Dimensions != dims {
			return nil, fmt.Errorf("%w: collection %q has %d dimensions, requested %d",
				domain.ErrDimensionMismatch, cfg.Collection, dims, cfg.Dimensions)
		}
	case errors.Is(err, sql.ErrNoRows):
		if cfg.Mode == driven.OpenModeRead {
			return nil, fmt.Errorf("collection %q: %w", cfg.Collection, domain.ErrNotFound)
		}
		dims, metric, err = s.createCollection(ctx, cfg)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: reading collection: %w", domain.ErrVectorIndexUnavailable, err)
	}

	idx := &VectorIndex{
		store:      s,
		collection: cfg.Collection,
		dimensions: dims,
		metric:     domain.Metric(metric),
	}
	idx.generation.Store(uint64(gen))
	return idx, nil
}

// DropCollection deletes a collection and its entries. Missing collections are ignored.
func (s *Store) DropCollection(ctx context.Context, name string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE collection = ?`, name); err != nil {
		return fmt.Errorf("dropping entries: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE name = ?`, name); err != nil {
		return fmt.Errorf("dropping collection: %w", err)
	}
	return tx.Commit()
}

func (s *Store) createCollection(ctx context.Context, cfg driven.VectorIndexConfig) (int, string, error) {
	if cfg.Dimensions <= 0 {
		return 0, "", fmt.Errorf("%w: dimensions must be positive", domain.ErrInvalidInput)
	}
	metric := cfg.Metric
	if metric == "" {
		metric = domain.MetricCosine
	}
	if !metric.IsValid() {
		return 0, "", fmt.Errorf("%w: unknown metric %q", domain.ErrInvalidInput, metric)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO collections (name, dimensions, metric) VALUES (?, ?, ?) ON CONFLICT(name) DO NOTHING`,
		cfg.Collection, cfg.Dimensions, string(metric))
	if err != nil {
		return 0, "", fmt.Errorf("creating collection: %w", err)
	}
	return cfg.Dimensions, string(metric), nil
}

// Upsert writes valid entries in one transaction and reports the rest.
func (v *VectorIndex) Upsert(ctx context.Context, entries []domain.IndexedEntry) error {
	failed := make(map[string]error)
	valid := make([]domain.IndexedEntry, 0, len(entries))
	for _, e := range entries {
		if err := domain.ValidateEntry(e, v.dimensions); err != nil {
			failed[e.ID] = err
			continue
		}
		valid = append(valid, e)
	}

	if len(valid) > 0 {
		if err := v.write(ctx, func(tx *sql.Tx) error {
			stmt, err := tx.PrepareContext(ctx, `
				INSERT INTO entries (collection, id, content, parent_id, segment, metadata, vector, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
				ON CONFLICT(collection, id) DO UPDATE SET
					content = excluded.content,
					parent_id = excluded.parent_id,
					segment = excluded.segment,
					metadata = excluded.metadata,
					vector = excluded.vector,
					updated_at = excluded.updated_at
			`)
			if err != nil {
				return fmt.Errorf("preparing upsert: %w", err)
			}
			defer stmt.Close()

			for _, e := range valid {
				metaJSON, err := json.Marshal(e.Document.Metadata)
				if err != nil {
					failed[e.ID] = fmt.Errorf("%w: %w", domain.ErrInvalidMetadata, err)
					continue
				}
				if e.Document.Metadata == nil {
					metaJSON = []byte("{}")
				}
				if _, err := stmt.ExecContext(ctx,
					v.collection, e.ID, e.Document.Content, nullString(e.Document.ParentID),
					e.Document.Segment, string(metaJSON), float32SliceToBytes(e.Vector),
				); err != nil {
					return fmt.Errorf("upserting %s: %w", e.ID, err)
				}
			}
			return nil
		}); err != nil {
			return err
		}
	}

	if len(failed) > 0 {
		return &domain.UpsertError{Failed: failed}
	}
	return nil
}

// write runs fn in a transaction and bumps the collection generation.
func (v *VectorIndex) write(ctx context.Context, fn func(tx *sql.Tx) error) error {
	v.store.writeMu.Lock()
	defer v.store.writeMu.Unlock()

	tx, err := v.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", domain.ErrVectorIndexUnavailable, domain.ClassifyContextError(err))
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := fn(tx); err != nil {
		return domain.ClassifyContextError(err)
	}

	var gen int64
	if err := tx.QueryRowContext(ctx,
		`UPDATE collections SET generation = generation + 1 WHERE name = ? RETURNING generation`,
		v.collection,
	).Scan(&gen); err != nil {
		return fmt.Errorf("bumping generation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	v.generation.Store(uint64(gen))
	return nil
}

// Query scans the collection and ranks matching entries.
func (v *VectorIndex) Query(ctx context.Context, vector []float32, k int, filter domain.Filter) (domain.RetrievalResult, error) {
	if err := domain.ValidateQuery(vector, k, v.dimensions); err != nil {
		return domain.RetrievalResult{}, err
	}
	if k == 0 {
		return domain.RetrievalResult{}, nil
	}

	rows, err := v.store.db.QueryContext(ctx,
		`SELECT id, content, parent_id, segment, metadata, vector FROM entries WHERE collection = ?`,
		v.collection)
	if err != nil {
		return domain.RetrievalResult{}, fmt.Errorf("%w: querying entries: %w",
			domain.ErrVectorIndexUnavailable, domain.ClassifyContextError(err))
	}
	defer rows.Close()

	var hits []domain.ScoredDocument
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return domain.RetrievalResult{}, err
		}
		if !filter.Matches(e.Document.Metadata) {
			continue
		}
		score, dist := domain.Similarity(v.metric, vector, e.Vector)
		hits = append(hits, domain.ScoredDocument{Document: e.Document, Score: score, Distance: dist})
	}
	if err := rows.Err(); err != nil {
		return domain.RetrievalResult{}, fmt.Errorf("iterating entries: %w", domain.ClassifyContextError(err))
	}

	return domain.RankTopK(hits, k), nil
}

// Get returns one entry.
func (v *VectorIndex) Get(ctx context.Context, id string) (*domain.IndexedEntry, error) {
	row := v.store.db.QueryRowContext(ctx,
		`SELECT id, content, parent_id, segment, metadata, vector FROM entries WHERE collection = ? AND id = ?`,
		v.collection, id)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Delete removes entries by identifier.
func (v *VectorIndex) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return v.write(ctx, func(tx *sql.Tx) error {
		for _, id := range ids {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM entries WHERE collection = ? AND id = ?`, v.collection, id); err != nil {
				return fmt.Errorf("deleting %s: %w", id, err)
			}
		}
		return nil
	})
}

// Count returns the number of entries in the collection.
func (v *VectorIndex) Count(ctx context.Context) (int, error) {
	var n int
	err := v.store.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM entries WHERE collection = ?`, v.collection).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting entries: %w", err)
	}
	return n, nil
}

// Reset removes every entry, keeping the collection and its dimension.
func (v *VectorIndex) Reset(ctx context.Context) error {
	return v.write(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE collection = ?`, v.collection)
		return err
	})
}

// Dimensions returns the collection dimension.
func (v *VectorIndex) Dimensions() int {
	return v.dimensions
}

// Metric returns the collection metric.
func (v *VectorIndex) Metric() domain.Metric {
	return v.metric
}

// Generation returns the collection's write counter.
func (v *VectorIndex) Generation() uint64 {
	return v.generation.Load()
}

// Close is a no-op; the store owns the connection.
func (v *VectorIndex) Close() error {
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*domain.IndexedEntry, error) {
	var (
		e        domain.IndexedEntry
		parentID sql.NullString
		metaJSON string
		blob     []byte
	)
	if err := row.Scan(&e.ID, &e.Document.Content, &parentID, &e.Document.Segment, &metaJSON, &blob); err != nil {
		return nil, err
	}

	meta, err := domain.DecodeMetadata([]byte(metaJSON))
	if err != nil {
		return nil, fmt.Errorf("decoding metadata for %s: %w", e.ID, err)
	}

	e.Document.ID = e.ID
	e.Document.ParentID = parentID.String
	e.Document.Metadata = meta
	e.Vector = bytesToFloat32Slice(blob)
	return &e, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
