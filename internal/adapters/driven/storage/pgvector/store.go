// Package pgvector provides a cloud-hosted vector index on PostgreSQL with
// the pgvector extension.
//
// Collections share one entries table; the distance operator is chosen per
// collection (<=> for cosine, <-> for l2) and metadata filters are pushed
// down as JSONB containment predicates.
package pgvector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/travelrag/internal/core/domain"
	"github.com/custodia-labs/travelrag/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

const schema = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS travelrag_collections (
    name        TEXT PRIMARY KEY,
    dimensions  INTEGER NOT NULL,
    metric      TEXT NOT NULL,
    generation  BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS travelrag_entries (
    collection  TEXT NOT NULL REFERENCES travelrag_collections(name) ON DELETE CASCADE,
    id          TEXT NOT NULL,
    content     TEXT NOT NULL,
    parent_id   TEXT NOT NULL DEFAULT '',
    segment     INTEGER NOT NULL DEFAULT 0,
    metadata    JSONB NOT NULL DEFAULT '{}'::jsonb,
    embedding   vector NOT NULL,
    PRIMARY KEY (collection, id)
);
`

// VectorIndex is one collection in a PostgreSQL database.
type VectorIndex struct {
	pool       *pgxpool.Pool
	collection string
	dimensions int
	metric     domain.Metric
	generation atomic.Uint64
}

// Open connects to dsn, ensures the schema exists and opens the collection.
func Open(ctx context.Context, dsn string, cfg driven.VectorIndexConfig) (*VectorIndex, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: pgvector dsn is required", domain.ErrInvalidInput)
	}
	if cfg.Collection == "" {
		return nil, fmt.Errorf("%w: collection name is empty", domain.ErrInvalidInput)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: connect pgvector: %w", domain.ErrVectorIndexUnavailable, err)
	}

	idx, err := open(ctx, pool, cfg)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return idx, nil
}

func open(ctx context.Context, pool *pgxpool.Pool, cfg driven.VectorIndexConfig) (*VectorIndex, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("%w: creating schema: %w", domain.ErrVectorIndexUnavailable, err)
	}
	if cfg.Recreate {
		// Entries go with the collection through ON DELETE CASCADE.
		if _, err := pool.Exec(ctx, `DELETE FROM travelrag_collections WHERE name = $1`, cfg.Collection); err != nil {
			return nil, fmt.Errorf("dropping collection: %w", err)
		}
		cfg.Mode = driven.OpenModeCreate
	}

	var (
		dims   int
		metric string
		gen    int64
	)
	err := pool.QueryRow(ctx,
		`SELECT dimensions, metric, generation FROM travelrag_collections WHERE name = $1`,
		cfg.Collection,
	).Scan(&dims, &metric, &gen)

	switch {
	case err == nil:
		if cfg.Dimensions != 0 && cfg.Dimensions != dims {
			return nil, fmt.Errorf("%w: collection %q has %d dimensions, requested %d",
				domain.ErrDimensionMismatch, cfg.Collection, dims, cfg.Dimensions)
		}
	case errors.Is(err, pgx.ErrNoRows):
		if cfg.Mode == driven.OpenModeRead {
			return nil, fmt.Errorf("collection %q: %w", cfg.Collection, domain.ErrNotFound)
		}
		if cfg.Dimensions <= 0 {
			return nil, fmt.Errorf("%w: dimensions must be positive", domain.ErrInvalidInput)
		}
		m := cfg.Metric
		if m == "" {
			m = domain.MetricCosine
		}
		if !m.IsValid() {
			return nil, fmt.Errorf("%w: unknown metric %q", domain.ErrInvalidInput, m)
		}
		if _, err := pool.Exec(ctx,
			`INSERT INTO travelrag_collections (name, dimensions, metric) VALUES ($1, $2, $3)
			 ON CONFLICT (name) DO NOTHING`,
			cfg.Collection, cfg.Dimensions, string(m)); err != nil {
			return nil, fmt.Errorf("creating collection: %w", err)
		}
		dims, metric = cfg.Dimensions, string(m)
	default:
		return nil, fmt.Errorf("%w: reading collection: %w", domain.ErrVectorIndexUnavailable, err)
	}

	idx := &VectorIndex{
		pool:       pool,
		collection: cfg.Collection,
		dimensions: dims,
		metric:     domain.Metric(metric),
	}
	idx.generation.Store(uint64(gen))
	return idx, nil
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
		err := v.write(ctx, func(tx pgx.Tx) error {
			for _, e := range valid {
				meta := e.Document.Metadata
				if meta == nil {
					meta = map[string]any{}
				}
				_, err := tx.Exec(ctx, `
					INSERT INTO travelrag_entries (collection, id, content, parent_id, segment, metadata, embedding)
					VALUES ($1, $2, $3, $4, $5, $6, $7)
					ON CONFLICT (collection, id) DO UPDATE
					SET content = EXCLUDED.content,
					    parent_id = EXCLUDED.parent_id,
					    segment = EXCLUDED.segment,
					    metadata = EXCLUDED.metadata,
					    embedding = EXCLUDED.embedding`,
					v.collection, e.ID, e.Document.Content, e.Document.ParentID,
					e.Document.Segment, meta, pgvector.NewVector(e.Vector))
				if err != nil {
					return fmt.Errorf("upsert vector %s: %w", e.ID, err)
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	if len(failed) > 0 {
		return &domain.UpsertError{Failed: failed}
	}
	return nil
}

func (v *VectorIndex) write(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := v.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", domain.ErrVectorIndexUnavailable, domain.ClassifyContextError(err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if err := fn(tx); err != nil {
		return domain.ClassifyContextError(err)
	}

	var gen int64
	if err := tx.QueryRow(ctx,
		`UPDATE travelrag_collections SET generation = generation + 1 WHERE name = $1 RETURNING generation`,
		v.collection,
	).Scan(&gen); err != nil {
		return fmt.Errorf("bumping generation: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", domain.ClassifyContextError(err))
	}
	v.generation.Store(uint64(gen))
	return nil
}

// Query ranks entries in the database and returns at most k.
func (v *VectorIndex) Query(ctx context.Context, vector []float32, k int, filter domain.Filter) (domain.RetrievalResult, error) {
	if err := domain.ValidateQuery(vector, k, v.dimensions); err != nil {
		return domain.RetrievalResult{}, err
	}
	if err := filter.Validate(); err != nil {
		return domain.RetrievalResult{}, err
	}
	if k == 0 {
		return domain.RetrievalResult{}, nil
	}

	where, args, err := buildFilter(filter, 3)
	if err != nil {
		return domain.RetrievalResult{}, err
	}
	query := fmt.Sprintf(`
		SELECT id, content, parent_id, segment, metadata, embedding %s $1 AS distance
		FROM travelrag_entries
		WHERE collection = $2%s
		ORDER BY distance ASC, id ASC
		LIMIT %d`, distanceOperator(v.metric), where, k)

	rows, err := v.pool.Query(ctx, query, append([]any{pgvector.NewVector(vector), v.collection}, args...)...)
	if err != nil {
		return domain.RetrievalResult{}, fmt.Errorf("%w: query vectors: %w",
			domain.ErrVectorIndexUnavailable, domain.ClassifyContextError(err))
	}
	defer rows.Close()

	var hits []domain.ScoredDocument
	for rows.Next() {
		var (
			doc      domain.Document
			metaJSON []byte
			distance float64
		)
		if err := rows.Scan(&doc.ID, &doc.Content, &doc.ParentID, &doc.Segment, &metaJSON, &distance); err != nil {
			return domain.RetrievalResult{}, fmt.Errorf("scan row: %w", err)
		}
		if doc.Metadata, err = domain.DecodeMetadata(metaJSON); err != nil {
			return domain.RetrievalResult{}, fmt.Errorf("decoding metadata for %s: %w", doc.ID, err)
		}
		hits = append(hits, domain.ScoredDocument{
			Document: doc,
			Score:    distanceToScore(distance, v.metric),
			Distance: distance,
		})
	}
	if err := rows.Err(); err != nil {
		return domain.RetrievalResult{}, fmt.Errorf("iterating rows: %w", domain.ClassifyContextError(err))
	}

	return domain.RankTopK(hits, k), nil
}

// Get returns one entry.
func (v *VectorIndex) Get(ctx context.Context, id string) (*domain.IndexedEntry, error) {
	var (
		e        domain.IndexedEntry
		metaJSON []byte
		vec      pgvector.Vector
	)
	err := v.pool.QueryRow(ctx, `
		SELECT id, content, parent_id, segment, metadata, embedding
		FROM travelrag_entries WHERE collection = $1 AND id = $2`,
		v.collection, id,
	).Scan(&e.ID, &e.Document.Content, &e.Document.ParentID, &e.Document.Segment, &metaJSON, &vec)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", id, err)
	}

	if e.Document.Metadata, err = domain.DecodeMetadata(metaJSON); err != nil {
		return nil, fmt.Errorf("decoding metadata for %s: %w", id, err)
	}
	e.Document.ID = e.ID
	e.Vector = vec.Slice()
	return &e, nil
}

// Delete removes entries by identifier.
func (v *VectorIndex) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return v.write(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`DELETE FROM travelrag_entries WHERE collection = $1 AND id = ANY($2)`, v.collection, ids)
		return err
	})
}

// Count returns the number of entries in the collection.
func (v *VectorIndex) Count(ctx context.Context) (int, error) {
	var n int
	if err := v.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM travelrag_entries WHERE collection = $1`, v.collection).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting entries: %w", err)
	}
	return n, nil
}

// Reset removes every entry in the collection.
func (v *VectorIndex) Reset(ctx context.Context) error {
	return v.write(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `DELETE FROM travelrag_entries WHERE collection = $1`, v.collection)
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

// Generation returns the collection's write counter as last seen by this process.
func (v *VectorIndex) Generation() uint64 {
	return v.generation.Load()
}

// Close closes the connection pool.
func (v *VectorIndex) Close() error {
	if v.pool != nil {
		v.pool.Close()
	}
	return nil
}

func distanceOperator(m domain.Metric) string {
	if m == domain.MetricL2 {
		return "<->"
	}
	return "<=>"
}

// distanceToScore turns a pgvector distance into a higher-is-better score.
func distanceToScore(distance float64, m domain.Metric) float64 {
	if m == domain.MetricL2 {
		return -distance
	}
	return 1 - distance
}

// buildFilter renders filter as JSONB containment predicates. Placeholders
// are numbered from first.
func buildFilter(f domain.Filter, first int) (string, []any, error) {
	if f.IsEmpty() {
		return "", nil, nil
	}

	var (
		clauses []string
		args    []any
		n       = first
	)
	if len(f.Equals) > 0 {
		data, err := json.Marshal(f.Equals)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
		}
		clauses = append(clauses, fmt.Sprintf("metadata @> $%d::jsonb", n))
		args = append(args, string(data))
		n++
	}

	for _, key := range sortedKeys(f.In) {
		options := f.In[key]
		if len(options) == 0 {
			clauses = append(clauses, "FALSE")
			continue
		}
		var ors []string
		for _, o := range options {
			data, err := json.Marshal(map[string]any{key: o})
			if err != nil {
				return "", nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
			}
			ors = append(ors, fmt.Sprintf("metadata @> $%d::jsonb", n))
			args = append(args, string(data))
			n++
		}
		clauses = append(clauses, "("+strings.Join(ors, " OR ")+")")
	}

	return " AND " + strings.Join(clauses, " AND "), args, nil
}

func sortedKeys(m map[string][]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
