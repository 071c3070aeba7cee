package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// RawRecord is opaque bytes fetched by a connector, before normalisation.
type RawRecord struct {
	// Source names the connector that produced the record (e.g. "geoapify").
	Source string

	// URI locates the record upstream.
	URI string

	// Content is the raw payload.
	Content []byte

	// Region is the city or region the fetch targeted.
	Region string
}

// BoundingBox is a lon/lat rectangle.
type BoundingBox struct {
	LonMin float64 `toml:"lon_min" json:"lon_min"`
	LatMin float64 `toml:"lat_min" json:"lat_min"`
	LonMax float64 `toml:"lon_max" json:"lon_max"`
	LatMax float64 `toml:"lat_max" json:"lat_max"`
}

// IsValid reports whether the box has positive extent.
func (b BoundingBox) IsValid() bool {
	return b.LonMin < b.LonMax && b.LatMin < b.LatMax
}

// String formats the box as "lon_min,lat_min,lon_max,lat_max".
func (b BoundingBox) String() string {
	return strings.Join([]string{
		strconv.FormatFloat(b.LonMin, 'f', -1, 64),
		strconv.FormatFloat(b.LatMin, 'f', -1, 64),
		strconv.FormatFloat(b.LonMax, 'f', -1, 64),
		strconv.FormatFloat(b.LatMax, 'f', -1, 64),
	}, ",")
}

// ParseBoundingBox parses "lon_min,lat_min,lon_max,lat_max".
func ParseBoundingBox(s string) (BoundingBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return BoundingBox{}, fmt.Errorf("%w: bbox needs four comma separated numbers: lon_min,lat_min,lon_max,lat_max", ErrInvalidInput)
	}

	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return BoundingBox{}, fmt.Errorf("%w: bbox value %q is not a number", ErrInvalidInput, p)
		}
		v[i] = f
	}

	box := BoundingBox{LonMin: v[0], LatMin: v[1], LonMax: v[2], LatMax: v[3]}
	if !box.IsValid() {
		return BoundingBox{}, fmt.Errorf("%w: bbox minimums must be below maximums", ErrInvalidInput)
	}
	return box, nil
}
