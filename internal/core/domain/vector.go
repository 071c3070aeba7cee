package domain

import (
	"fmt"
	"math"
)

// Similarity scores b against the query a under metric m.
// Score is higher-is-better; distance is the raw metric value.
func Similarity(m Metric, a, b []float32) (score, distance float64) {
	switch m {
	case MetricL2:
		var sum float64
		for i := range a {
			d := float64(a[i]) - float64(b[i])
			sum += d * d
		}
		distance = math.Sqrt(sum)
		return -distance, distance
	default:
		var dot, na, nb float64
		for i := range a {
			dot += float64(a[i]) * float64(b[i])
			na += float64(a[i]) * float64(a[i])
			nb += float64(b[i]) * float64(b[i])
		}
		if na == 0 || nb == 0 {
			return 0, 1
		}
		score = dot / (math.Sqrt(na) * math.Sqrt(nb))
		return score, 1 - score
	}
}

// ValidateEntry checks an entry before it is written to an index with
// the given dimension.
func ValidateEntry(e IndexedEntry, dims int) error {
	if e.ID == "" {
		return fmt.Errorf("%w: entry identifier is empty", ErrInvalidInput)
	}
	if len(e.Vector) != dims {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(e.Vector), dims)
	}
	for _, v := range e.Vector {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: vector contains NaN or Inf", ErrInvalidInput)
		}
	}
	return ValidateMetadata(e.Document.Metadata)
}

// ValidateQuery checks a query vector and k against an index.
func ValidateQuery(vector []float32, k, dims int) error {
	if k < 0 {
		return fmt.Errorf("%w: k must not be negative", ErrInvalidInput)
	}
	if len(vector) != dims {
		return fmt.Errorf("%w: query has %d dimensions, want %d", ErrDimensionMismatch, len(vector), dims)
	}
	return nil
}
