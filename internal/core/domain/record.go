package domain

import (
	"fmt"
	"strings"
)

// Address holds the postal fields of an attraction.
type Address struct {
	// Formatted is the full single-line address.
	Formatted string

	Line1    string
	Line2    string
	City     string
	State    string
	Postcode string
	Country  string
}

// CanonicalRecord is the source-independent view of one attraction.
// It is produced by the normalisers and consumed by the document builder.
type CanonicalRecord struct {
	// ID is unique across the corpus (the place identifier).
	ID string

	// Name is the display name.
	Name string

	// Description is free text from the encyclopedia. May be empty.
	Description string

	// Lat and Lon are WGS84 coordinates. HasCoordinates is false when the
	// source supplied none.
	Lat            float64
	Lon            float64
	HasCoordinates bool

	Address Address

	// Categories are the source category tags, in source order.
	Categories []string

	// Region is the city or region the record was collected for.
	Region string

	// WikiRef is the encyclopedia cross-reference, "lang:Title".
	WikiRef string

	// Datasource names the upstream dataset (e.g. "openstreetmap").
	Datasource string
}

// Validate checks the record invariants: identifier and name are required.
func (r CanonicalRecord) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("%w: record identifier is empty", ErrInvalidInput)
	}
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: record %s has no name", ErrInvalidInput, r.ID)
	}
	return nil
}

// Country returns the explicit country, falling back to the last
// comma-separated part of the formatted address.
func (r CanonicalRecord) Country() string {
	if r.Address.Country != "" {
		return r.Address.Country
	}
	if r.Address.Formatted == "" {
		return ""
	}
	parts := strings.Split(r.Address.Formatted, ",")
	return strings.TrimSpace(parts[len(parts)-1])
}

// HasDescription reports whether enrichment produced any text.
func (r CanonicalRecord) HasDescription() bool {
	return strings.TrimSpace(r.Description) != ""
}

// QualityStats summarises the completeness of a collected batch.
type QualityStats struct {
	Total           int
	WithDescription int

	// Complete counts records with a name, description and coordinates.
	Complete int
}

// CompletenessRate returns Complete as a percentage of Total.
func (q QualityStats) CompletenessRate() float64 {
	if q.Total == 0 {
		return 0
	}
	return float64(q.Complete) / float64(q.Total) * 100
}

// ComputeQualityStats counts description and completeness coverage.
func ComputeQualityStats(records []CanonicalRecord) QualityStats {
	stats := QualityStats{Total: len(records)}
	for i := range records {
		if records[i].HasDescription() {
			stats.WithDescription++
			if records[i].Name != "" && records[i].HasCoordinates {
				stats.Complete++
			}
		}
	}
	return stats
}
