// Package docbuilder renders canonical records into retrievable documents.
//
// Rendering is deterministic: the same record always yields byte-identical
// content and the same metadata set, so rebuilding a corpus does not churn
// the vector index.
package docbuilder

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/custodia-labs/travelrag/internal/core/domain"
	"github.com/custodia-labs/travelrag/internal/core/ports/driven"
)

// NoDescription is rendered when a record has no description.
const NoDescription = "No description available"

const notAvailable = "N/A"

// Builder turns records into documents and segments them.
type Builder struct {
	pipeline driven.PostProcessorPipeline
}

// New creates a builder. A nil pipeline disables segmentation.
func New(pipeline driven.PostProcessorPipeline) *Builder {
	return &Builder{pipeline: pipeline}
}

// Build renders every record and runs the result through the pipeline.
// Invalid records are skipped and reported in the returned summary.
func (b *Builder) Build(ctx context.Context, records []domain.CanonicalRecord) ([]domain.Document, domain.IngestSummary, error) {
	var (
		docs    []domain.Document
		summary domain.IngestSummary
	)

	for i := range records {
		if err := ctx.Err(); err != nil {
			return nil, summary, err
		}

		doc, err := Render(records[i])
		if err != nil {
			summary.RecordFailure(records[i].ID, err)
			continue
		}

		segments := []domain.Document{doc}
		if b.pipeline != nil {
			segments, err = b.pipeline.Process(ctx, &doc)
			if err != nil {
				summary.RecordFailure(doc.ID, err)
				continue
			}
		}

		docs = append(docs, segments...)
		summary.RecordSuccess()
	}

	summary.Sort()
	return docs, summary, nil
}

// Render produces the unsegmented document for one record.
func Render(rec domain.CanonicalRecord) (domain.Document, error) {
	if err := rec.Validate(); err != nil {
		return domain.Document{}, err
	}

	doc := domain.Document{
		ID:       rec.ID,
		Content:  Content(rec),
		Metadata: Metadata(rec),
	}
	if err := doc.Validate(); err != nil {
		return domain.Document{}, fmt.Errorf("render %s: %w", rec.ID, err)
	}
	return doc, nil
}

// Content renders the text body in the fixed field order
// Name, Location, Coordinates, Categories, Description.
func Content(rec domain.CanonicalRecord) string {
	location := rec.Address.Formatted
	if location == "" {
		location = notAvailable
	}

	coords := notAvailable
	if rec.HasCoordinates {
		coords = formatFloat(rec.Lat) + ", " + formatFloat(rec.Lon)
	}

	categories := strings.Join(rec.Categories, ", ")
	if categories == "" {
		categories = notAvailable
	}

	description := strings.TrimSpace(rec.Description)
	if description == "" {
		description = NoDescription
	}

	var sb strings.Builder
	sb.WriteString("Name: " + rec.Name + "\n")
	sb.WriteString("Location: " + location + "\n")
	sb.WriteString("Coordinates: " + coords + "\n")
	sb.WriteString("Categories: " + categories + "\n")
	sb.WriteString("Description: " + description + "\n")
	return sb.String()
}

// Metadata returns the scalar metadata for a record. Empty values are omitted.
func Metadata(rec domain.CanonicalRecord) map[string]any {
	meta := map[string]any{
		domain.MetaPlaceID:        rec.ID,
		domain.MetaName:           rec.Name,
		domain.MetaHasDescription: rec.HasDescription(),
	}

	setString := func(key, value string) {
		if v := strings.TrimSpace(value); v != "" {
			meta[key] = v
		}
	}
	setString(domain.MetaCity, rec.Address.City)
	setString(domain.MetaState, rec.Address.State)
	setString(domain.MetaCountry, rec.Country())
	setString(domain.MetaRegion, rec.Region)
	setString(domain.MetaCategories, strings.Join(rec.Categories, ", "))
	setString(domain.MetaSource, rec.Datasource)

	if rec.HasCoordinates {
		meta[domain.MetaLat] = rec.Lat
		meta[domain.MetaLon] = rec.Lon
	}
	return meta
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
