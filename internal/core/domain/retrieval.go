package domain

import (
	"fmt"
	"sort"
)

// Metric is the similarity measure a collection is created with.
type Metric string

// Supported metrics.
const (
	// MetricCosine ranks by cosine similarity (higher is closer).
	MetricCosine Metric = "cosine"

	// MetricL2 ranks by Euclidean distance (lower is closer).
	MetricL2 Metric = "l2"
)

// IsValid returns true if the metric is recognised.
func (m Metric) IsValid() bool {
	return m == MetricCosine || m == MetricL2
}

// String returns the string representation.
func (m Metric) String() string {
	return string(m)
}

// Filter restricts a query to entries whose metadata satisfies every clause.
// The zero value matches everything.
type Filter struct {
	// Equals requires metadata[key] == value.
	Equals map[string]any

	// In requires metadata[key] to be one of the listed values.
	In map[string][]any
}

// IsEmpty reports whether the filter has no clauses.
func (f Filter) IsEmpty() bool {
	return len(f.Equals) == 0 && len(f.In) == 0
}

// Matches reports whether meta satisfies all clauses.
// Numbers are compared by value regardless of their Go type.
func (f Filter) Matches(meta map[string]any) bool {
	for k, want := range f.Equals {
		got, ok := meta[k]
		if !ok || !scalarEqual(got, want) {
			return false
		}
	}
	for k, options := range f.In {
		got, ok := meta[k]
		if !ok {
			return false
		}
		found := false
		for _, o := range options {
			if scalarEqual(got, o) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Validate checks that every clause value is a scalar.
func (f Filter) Validate() error {
	for k, v := range f.Equals {
		if !IsScalar(v) {
			return fmt.Errorf("%w: filter %q has value %T", ErrInvalidInput, k, v)
		}
	}
	for k, vs := range f.In {
		for _, v := range vs {
			if !IsScalar(v) {
				return fmt.Errorf("%w: filter %q has value %T", ErrInvalidInput, k, v)
			}
		}
	}
	return nil
}

// CityFilter is a convenience constructor for the common city restriction.
func CityFilter(city string) Filter {
	if city == "" {
		return Filter{}
	}
	return Filter{Equals: map[string]any{MetaCity: city}}
}

func scalarEqual(a, b any) bool {
	af, aNum := toFloat(a)
	bf, bNum := toFloat(b)
	if aNum && bNum {
		return af == bf
	}
	return a == b
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// ScoredDocument is one retrieval hit.
type ScoredDocument struct {
	Document Document

	// Score is the relevance, higher is better. For cosine collections it is
	// the similarity; for L2 collections it is the negated distance.
	Score float64

	// Distance is the raw metric distance, lower is better.
	Distance float64
}

// RetrievalResult is an ordered list of hits, best first, at most k long.
type RetrievalResult struct {
	Hits []ScoredDocument
}

// Len returns the number of hits.
func (r RetrievalResult) Len() int {
	return len(r.Hits)
}

// IsEmpty reports whether nothing was retrieved.
func (r RetrievalResult) IsEmpty() bool {
	return len(r.Hits) == 0
}

// IDs returns the document identifiers in rank order.
func (r RetrievalResult) IDs() []string {
	ids := make([]string, len(r.Hits))
	for i := range r.Hits {
		ids[i] = r.Hits[i].Document.ID
	}
	return ids
}

// RankTopK sorts hits by descending score (ties broken by identifier so the
// order is stable across runs) and truncates to k.
func RankTopK(hits []ScoredDocument, k int) RetrievalResult {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Document.ID < hits[j].Document.ID
	})
	if k >= 0 && len(hits) > k {
		hits = hits[:k]
	}
	return RetrievalResult{Hits: hits}
}
