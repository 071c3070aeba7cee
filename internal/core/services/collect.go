package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/travelrag/internal/core/domain"
	"github.com/custodia-labs/travelrag/internal/core/ports/driven"
	"github.com/custodia-labs/travelrag/internal/core/ports/driving"
	"github.com/custodia-labs/travelrag/internal/logger"
)

// Ensure CollectService implements the interface.
var _ driving.CollectService = (*CollectService)(nil)

// DocumentBuilder renders records into segmented documents.
type DocumentBuilder interface {
	Build(ctx context.Context, records []domain.CanonicalRecord) ([]domain.Document, domain.IngestSummary, error)
}

// CollectConfig holds the collection defaults.
type CollectConfig struct {
	City           string
	BBox           domain.BoundingBox
	Categories     string
	PlaceLimit     int
	RequestTimeout time.Duration
}

// CollectService fetches places, enriches them with descriptions and
// writes the processed corpus.
type CollectService struct {
	places       driven.PlaceSource
	descriptions driven.DescriptionSource
	placeNorm    driven.PlaceNormaliser
	descNorm     driven.DescriptionNormaliser
	builder      DocumentBuilder
	corpus       driven.CorpusStore
	cfg          CollectConfig
	newBackOff   BackOffFunc
}

// NewCollectService creates a collect service.
func NewCollectService(
	places driven.PlaceSource,
	descriptions driven.DescriptionSource,
	placeNorm driven.PlaceNormaliser,
	descNorm driven.DescriptionNormaliser,
	builder DocumentBuilder,
	corpus driven.CorpusStore,
	cfg CollectConfig,
) *CollectService {
	return &CollectService{
		places:       places,
		descriptions: descriptions,
		placeNorm:    placeNorm,
		descNorm:     descNorm,
		builder:      builder,
		corpus:       corpus,
		cfg:          cfg,
		newBackOff:   DefaultBackOff,
	}
}

// SetBackOff replaces the retry policy.
func (s *CollectService) SetBackOff(f BackOffFunc) {
	s.newBackOff = f
}

// Collect runs the ingestion path up to the corpus file.
func (s *CollectService) Collect(ctx context.Context, req driving.CollectRequest) (*driving.CollectReport, error) {
	city, box := s.cfg.City, s.cfg.BBox
	if req.City != "" {
		city = req.City
		if !req.BBox.IsValid() {
			return nil, fmt.Errorf("%w: a bounding box is required with a city override", domain.ErrInvalidInput)
		}
		box = req.BBox
	}
	if city == "" || !box.IsValid() {
		return nil, fmt.Errorf("%w: city and bounding box must be configured", domain.ErrInvalidInput)
	}

	report := &driving.CollectReport{City: city}

	logger.Section("Places")
	raws, fromCache, err := s.loadPlaces(ctx, city, box, req.Refresh)
	if err != nil {
		return nil, err
	}
	report.Places = len(raws)
	report.FromCache = fromCache

	logger.Section("Descriptions")
	records := s.enrich(ctx, raws, &report.Records)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	report.Quality = domain.ComputeQualityStats(records)
	logger.Info("%d of %d attractions have descriptions (%.0f%% complete)",
		report.Quality.WithDescription, report.Quality.Total, report.Quality.CompletenessRate())

	logger.Section("Documents")
	docs, built, err := s.builder.Build(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("build documents: %w", err)
	}
	// Records the builder rejected move from succeeded to failed.
	for _, id := range built.FailedIDs {
		report.Records.Succeeded--
		report.Records.RecordFailure(id, built.Errors[id])
	}
	report.Records.Sort()

	if err := s.corpus.SaveDocuments(ctx, city, docs); err != nil {
		return nil, fmt.Errorf("save corpus: %w", err)
	}
	report.Documents = len(docs)
	report.Path = s.corpus.DocumentsPath(city)

	logger.Done("Wrote %d documents to %s", len(docs), report.Path)
	return report, nil
}

// loadPlaces reuses the raw cache unless refresh is set.
func (s *CollectService) loadPlaces(
	ctx context.Context, city string, box domain.BoundingBox, refresh bool,
) ([]domain.RawRecord, bool, error) {
	if !refresh {
		raws, err := s.corpus.LoadRaw(ctx, city)
		switch {
		case err == nil:
			logger.Info("Using %d cached places for %s", len(raws), city)
			return raws, true, nil
		case !errors.Is(err, domain.ErrNotFound):
			logger.Warn("Ignoring unreadable place cache: %v", err)
		}
	}

	query := driven.PlaceQuery{
		City:       city,
		BBox:       box,
		Categories: s.cfg.Categories,
		Limit:      s.cfg.PlaceLimit,
	}

	var raws []domain.RawRecord
	err := retry(ctx, s.newBackOff, "fetch places", func() error {
		callCtx, cancel := withTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()

		var err error
		raws, err = s.places.FetchPlaces(callCtx, query)
		return domain.ClassifyContextError(err)
	})
	if err != nil {
		return nil, false, fmt.Errorf("fetch places from %s: %w", s.places.Name(), err)
	}
	logger.Info("Fetched %d places for %s", len(raws), city)

	if err := s.corpus.SaveRaw(ctx, city, raws); err != nil {
		logger.Warn("Could not cache places: %v", err)
	}
	return raws, false, nil
}

// enrich normalises every feature and attaches its description. Features
// without a cross-reference are skipped, as are repeats of a place id already
// seen; a failed description fetch leaves the description empty.
func (s *CollectService) enrich(
	ctx context.Context, raws []domain.RawRecord, summary *domain.IngestSummary,
) []domain.CanonicalRecord {
	records := make([]domain.CanonicalRecord, 0, len(raws))
	seen := make(map[string]struct{}, len(raws))

	for i := range raws {
		if ctx.Err() != nil {
			return records
		}

		rec, err := s.placeNorm.Normalise(ctx, &raws[i])
		switch {
		case errors.Is(err, domain.ErrEnrichmentMissing):
			id := failureID(raws[i], i)
			if rec != nil {
				id = rec.ID
			}
			summary.RecordSkip(id)
			logger.Debug("Skipping %s: %v", id, err)
			continue
		case err != nil:
			summary.RecordFailure(failureID(raws[i], i), err)
			logger.Warn("Invalid place %s: %v", failureID(raws[i], i), err)
			continue
		}
		if _, dup := seen[rec.ID]; dup {
			summary.RecordSkip(rec.ID)
			logger.Debug("Skipping duplicate place %s", rec.ID)
			continue
		}
		seen[rec.ID] = struct{}{}

		desc, err := s.describe(ctx, rec.WikiRef)
		if err != nil {
			logger.Warn("No description for %s: %v", rec.Name, err)
		}
		rec.Description = desc

		records = append(records, *rec)
		summary.RecordSuccess()
	}
	return records
}

func (s *CollectService) describe(ctx context.Context, ref string) (string, error) {
	var raw domain.RawRecord
	err := retry(ctx, s.newBackOff, "fetch description", func() error {
		callCtx, cancel := withTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()

		var err error
		raw, err = s.descriptions.FetchDescription(callCtx, ref)
		return domain.ClassifyContextError(err)
	})
	if err != nil {
		return "", err
	}
	return s.descNorm.Normalise(ctx, &raw)
}

func failureID(raw domain.RawRecord, i int) string {
	if raw.URI != "" {
		return raw.URI
	}
	return fmt.Sprintf("feature[%d]", i)
}
