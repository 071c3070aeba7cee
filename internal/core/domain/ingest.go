package domain

import "sort"

// IngestSummary reports the outcome of a batch. Per-record failures are
// collected here instead of aborting the batch.
type IngestSummary struct {
	Succeeded int
	Skipped   int
	Failed    int

	// SkippedIDs lists records dropped for permanent reasons
	// (missing cross-reference, input too long).
	SkippedIDs []string

	// FailedIDs lists records that hit errors.
	FailedIDs []string

	// Errors maps failed identifiers to their cause.
	Errors map[string]error
}

// RecordSuccess counts one written record.
func (s *IngestSummary) RecordSuccess() {
	s.Succeeded++
}

// RecordSkip counts one dropped record.
func (s *IngestSummary) RecordSkip(id string) {
	s.Skipped++
	s.SkippedIDs = append(s.SkippedIDs, id)
}

// RecordFailure counts one failed record.
func (s *IngestSummary) RecordFailure(id string, err error) {
	s.Failed++
	s.FailedIDs = append(s.FailedIDs, id)
	if s.Errors == nil {
		s.Errors = make(map[string]error)
	}
	s.Errors[id] = err
}

// Total returns the number of records seen.
func (s IngestSummary) Total() int {
	return s.Succeeded + s.Skipped + s.Failed
}

// Sort orders the identifier lists for stable reporting.
func (s *IngestSummary) Sort() {
	sort.Strings(s.SkippedIDs)
	sort.Strings(s.FailedIDs)
}
