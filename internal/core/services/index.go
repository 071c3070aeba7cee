package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/travelrag/internal/core/domain"
	"github.com/custodia-labs/travelrag/internal/core/ports/driven"
	"github.com/custodia-labs/travelrag/internal/core/ports/driving"
	"github.com/custodia-labs/travelrag/internal/logger"
)

// Ensure IndexService implements the interface.
var _ driving.IndexService = (*IndexService)(nil)

// Indexing defaults.
const (
	DefaultBatchSize = 32
	DefaultWorkers   = 4
)

// IndexConfig tunes the indexing run.
type IndexConfig struct {
	City           string
	BatchSize      int
	Workers        int
	RequestTimeout time.Duration
}

// IndexService embeds documents and upserts them into the vector index.
type IndexService struct {
	embedder   driven.Embedder
	index      driven.VectorIndex
	corpus     driven.CorpusStore
	cfg        IndexConfig
	newBackOff BackOffFunc
}

// NewIndexService creates an index service.
func NewIndexService(
	embedder driven.Embedder,
	index driven.VectorIndex,
	corpus driven.CorpusStore,
	cfg IndexConfig,
) *IndexService {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	return &IndexService{
		embedder:   embedder,
		index:      index,
		corpus:     corpus,
		cfg:        cfg,
		newBackOff: DefaultBackOff,
	}
}

// SetBackOff replaces the retry policy.
func (s *IndexService) SetBackOff(f BackOffFunc) {
	s.newBackOff = f
}

// Index embeds the processed corpus of a city.
func (s *IndexService) Index(ctx context.Context, req driving.IndexRequest) (*driving.IndexReport, error) {
	city := req.City
	if city == "" {
		city = s.cfg.City
	}

	docs, err := s.corpus.LoadDocuments(ctx, city)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("no processed corpus for %s, run 'travelrag collect' first: %w", city, err)
		}
		return nil, err
	}

	if req.Reset {
		if err := s.index.Reset(ctx); err != nil {
			return nil, fmt.Errorf("reset index: %w", err)
		}
		logger.Info("Cleared the collection")
	}

	logger.Section("Embedding")
	logger.Info("Indexing %d documents with %s (%d dimensions)",
		len(docs), s.embedder.ModelName(), s.embedder.Dimensions())

	summary, err := s.IndexDocuments(ctx, docs)
	report := &driving.IndexReport{Summary: summary}
	if err != nil {
		return report, err
	}

	report.Count, err = s.index.Count(ctx)
	if err != nil {
		return report, fmt.Errorf("count entries: %w", err)
	}
	logger.Done("Indexed %d documents, collection holds %d", summary.Succeeded, report.Count)
	return report, nil
}

// docOutcome is what happened to one document during embedding.
type docOutcome struct {
	vector []float32
	skip   bool
	err    error
}

// IndexDocuments embeds docs in concurrent batches and upserts the results.
// Per-document failures are reported in the summary; the returned error is
// reserved for cancellation and an unreachable index.
func (s *IndexService) IndexDocuments(ctx context.Context, docs []domain.Document) (domain.IngestSummary, error) {
	var summary domain.IngestSummary
	outcomes := make([]docOutcome, len(docs))

	valid := make([]int, 0, len(docs))
	for i := range docs {
		if err := docs[i].Validate(); err != nil {
			outcomes[i].err = err
			continue
		}
		valid = append(valid, i)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for start := 0; start < len(valid); start += s.cfg.BatchSize {
		batch := valid[start:min(start+s.cfg.BatchSize, len(valid))]
		g.Go(func() error {
			s.embedBatch(gctx, docs, batch, outcomes)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return summary, err
	}

	entries := make([]domain.IndexedEntry, 0, len(valid))
	for _, i := range valid {
		if outcomes[i].vector != nil {
			entries = append(entries, domain.IndexedEntry{ID: docs[i].ID, Document: docs[i], Vector: outcomes[i].vector})
		}
	}

	if len(entries) > 0 {
		err := s.index.Upsert(ctx, entries)
		if ue, ok := domain.AsUpsertError(err); ok {
			for _, i := range valid {
				if cause, failed := ue.Failed[docs[i].ID]; failed && outcomes[i].vector != nil {
					outcomes[i] = docOutcome{err: cause}
				}
			}
		} else if err != nil {
			return summary, fmt.Errorf("upsert: %w", err)
		}
	}

	for i := range docs {
		switch o := outcomes[i]; {
		case o.skip:
			summary.RecordSkip(docs[i].ID)
		case o.err != nil:
			summary.RecordFailure(docs[i].ID, o.err)
		default:
			summary.RecordSuccess()
		}
	}
	summary.Sort()

	for _, id := range summary.FailedIDs {
		logger.Warn("Failed to index %s: %v", id, summary.Errors[id])
	}
	return summary, nil
}

// embedBatch fills outcomes for the documents at positions batch. A batch
// rejected as too long is retried one document at a time so only the
// offending documents are skipped.
func (s *IndexService) embedBatch(ctx context.Context, docs []domain.Document, batch []int, outcomes []docOutcome) {
	texts := make([]string, len(batch))
	for j, i := range batch {
		texts[j] = docs[i].Content
	}

	vectors, err := s.embed(ctx, texts)
	if err == nil {
		for j, i := range batch {
			outcomes[i].vector = vectors[j]
		}
		logger.Debug("Embedded batch of %d", len(batch))
		return
	}

	if !errors.Is(err, domain.ErrInputTooLong) || len(batch) == 1 {
		for _, i := range batch {
			outcomes[i] = docOutcome{err: err, skip: errors.Is(err, domain.ErrInputTooLong)}
		}
		return
	}

	for _, i := range batch {
		s.embedBatch(ctx, docs, []int{i}, outcomes)
	}
}

func (s *IndexService) embed(ctx context.Context, texts []string) ([][]float32, error) {
	var vectors [][]float32
	err := retry(ctx, s.newBackOff, "embed batch", func() error {
		callCtx, cancel := withTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()

		var err error
		vectors, err = s.embedder.EmbedBatch(callCtx, texts)
		return domain.ClassifyContextError(err)
	})
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: embedder returned %d vectors for %d texts",
			domain.ErrModelUnavailable, len(vectors), len(texts))
	}
	return vectors, nil
}
