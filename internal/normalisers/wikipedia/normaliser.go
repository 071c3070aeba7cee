// Package wikipedia extracts plain-text descriptions from MediaWiki query responses.
package wikipedia

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/travelrag/internal/core/domain"
	"github.com/custodia-labs/travelrag/internal/core/ports/driven"
)

// SourceName is the connector name whose records this normaliser reads.
const SourceName = "wikipedia"

// Ensure Normaliser implements the interface.
var _ driven.DescriptionNormaliser = (*Normaliser)(nil)

// Response is the subset of a prop=extracts query response we read.
type Response struct {
	Query struct {
		Pages map[string]Page `json:"pages"`
	} `json:"query"`
}

// Page is one page of a query response.
type Page struct {
	PageID  int     `json:"pageid"`
	Title   string  `json:"title"`
	Extract *string `json:"extract"`

	// Missing is present (usually as "") for pages that do not exist.
	Missing *string `json:"missing"`
}

// Normaliser handles Wikipedia extract responses.
type Normaliser struct{}

// New creates a new Wikipedia normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Source returns the connector name this normaliser understands.
func (n *Normaliser) Source() string {
	return SourceName
}

// Normalise returns the first page extract with whitespace collapsed.
// Pages are visited in identifier order so the choice is deterministic.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawRecord) (string, error) {
	if raw == nil {
		return "", domain.ErrInvalidInput
	}

	var resp Response
	if err := json.Unmarshal(raw.Content, &resp); err != nil {
		return "", fmt.Errorf("%w: decode extract response: %w", domain.ErrEnrichmentMissing, err)
	}

	keys := make([]string, 0, len(resp.Query.Pages))
	for k := range resp.Query.Pages {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		page := resp.Query.Pages[k]
		if page.Missing != nil || page.Extract == nil {
			continue
		}
		if text := CollapseWhitespace(*page.Extract); text != "" {
			return text, nil
		}
	}
	return "", fmt.Errorf("%w: no extract for %s", domain.ErrEnrichmentMissing, raw.URI)
}

// ParseRef splits a "lang:Title" reference.
func ParseRef(ref string) (lang, title string, err error) {
	lang, title, ok := strings.Cut(ref, ":")
	lang = strings.TrimSpace(lang)
	title = strings.TrimSpace(title)
	if !ok || lang == "" || title == "" {
		return "", "", fmt.Errorf("%w: malformed wikipedia reference %q", domain.ErrEnrichmentMissing, ref)
	}
	return lang, title, nil
}

// CollapseWhitespace replaces every run of whitespace with one space.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
