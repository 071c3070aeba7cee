// Package geoapify normalises Geoapify Places features into canonical records.
package geoapify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/custodia-labs/travelrag/internal/core/domain"
	"github.com/custodia-labs/travelrag/internal/core/ports/driven"
)

// SourceName is the connector name whose records this normaliser reads.
const SourceName = "geoapify"

// Ensure Normaliser implements the interface.
var _ driven.PlaceNormaliser = (*Normaliser)(nil)

// Feature is one GeoJSON feature of a places response.
type Feature struct {
	Type       string     `json:"type"`
	Properties Properties `json:"properties"`
	Geometry   Geometry   `json:"geometry"`
}

// Properties are the fields of a place.
type Properties struct {
	PlaceID      string   `json:"place_id"`
	Name         string   `json:"name"`
	Categories   []string `json:"categories"`
	Formatted    string   `json:"formatted"`
	AddressLine1 string   `json:"address_line1"`
	AddressLine2 string   `json:"address_line2"`
	City         string   `json:"city"`
	State        string   `json:"state"`
	Postcode     string   `json:"postcode"`
	Country      string   `json:"country"`
	Datasource   struct {
		SourceName string `json:"sourcename"`
	} `json:"datasource"`
	WikiAndMedia struct {
		Wikipedia string `json:"wikipedia"`
	} `json:"wiki_and_media"`
}

// Geometry holds [lon, lat] for points.
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// Normaliser handles Geoapify place features.
type Normaliser struct{}

// New creates a new Geoapify normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Source returns the connector name this normaliser understands.
func (n *Normaliser) Source() string {
	return SourceName
}

// Normalise decodes one feature. When the feature has no Wikipedia
// cross-reference the record is still returned alongside an error
// wrapping domain.ErrEnrichmentMissing.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawRecord) (*domain.CanonicalRecord, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	var f Feature
	if err := json.Unmarshal(raw.Content, &f); err != nil {
		return nil, fmt.Errorf("%w: decode feature: %w", domain.ErrInvalidInput, err)
	}

	rec := FromFeature(f)
	rec.Region = raw.Region
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	if rec.WikiRef == "" {
		return &rec, fmt.Errorf("%w: place %s has no wikipedia reference", domain.ErrEnrichmentMissing, rec.ID)
	}
	return &rec, nil
}

// FromFeature maps feature fields onto a record without validation.
func FromFeature(f Feature) domain.CanonicalRecord {
	p := f.Properties
	rec := domain.CanonicalRecord{
		ID:   strings.TrimSpace(p.PlaceID),
		Name: strings.TrimSpace(p.Name),
		Address: domain.Address{
			Formatted: p.Formatted,
			Line1:     p.AddressLine1,
			Line2:     p.AddressLine2,
			City:      p.City,
			State:     p.State,
			Postcode:  p.Postcode,
			Country:   p.Country,
		},
		Categories: append([]string(nil), p.Categories...),
		WikiRef:    strings.TrimSpace(p.WikiAndMedia.Wikipedia),
		Datasource: p.Datasource.SourceName,
	}
	if len(f.Geometry.Coordinates) >= 2 {
		rec.Lon = f.Geometry.Coordinates[0]
		rec.Lat = f.Geometry.Coordinates[1]
		rec.HasCoordinates = true
	}
	return rec
}
