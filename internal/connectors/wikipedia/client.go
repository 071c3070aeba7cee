// Package wikipedia fetches introductory extracts from the MediaWiki API.
package wikipedia

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/custodia-labs/travelrag/internal/connectors"
	"github.com/custodia-labs/travelrag/internal/core/domain"
	"github.com/custodia-labs/travelrag/internal/core/ports/driven"
	wikinorm "github.com/custodia-labs/travelrag/internal/normalisers/wikipedia"
)

const (
	// DefaultBaseURL is the API endpoint template; {lang} is replaced by the
	// reference language.
	DefaultBaseURL = "https://{lang}.wikipedia.org/w/api.php"

	// Name identifies this source.
	Name = "wikipedia"
)

// Ensure Client implements the interface.
var _ driven.DescriptionSource = (*Client)(nil)

// Config holds configuration for the extracts client.
type Config struct {
	// BaseURL may contain a {lang} placeholder.
	BaseURL string

	// Email identifies the caller in the User-Agent, as the API etiquette requires.
	Email string

	HTTPClient *http.Client
	Limiter    *connectors.RateLimiter
}

// Client implements driven.DescriptionSource.
type Client struct {
	baseURL   string
	userAgent string
	client    *http.Client
	limiter   *connectors.RateLimiter
}

// New creates an extracts client.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: connectors.DefaultTimeout}
	}
	return &Client{
		baseURL:   cfg.BaseURL,
		userAgent: UserAgent(cfg.Email),
		client:    cfg.HTTPClient,
		limiter:   cfg.Limiter,
	}
}

// UserAgent returns the identifying header value.
func UserAgent(email string) string {
	if email == "" {
		return "travelrag/1.0"
	}
	return fmt.Sprintf("travelrag/1.0 (%s)", email)
}

// Name returns the source name.
func (c *Client) Name() string {
	return Name
}

// FetchDescription fetches the plain-text intro for a "lang:Title" reference.
func (c *Client) FetchDescription(ctx context.Context, ref string) (domain.RawRecord, error) {
	lang, title, err := wikinorm.ParseRef(ref)
	if err != nil {
		return domain.RawRecord{}, err
	}

	params := url.Values{}
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("titles", title)
	params.Set("prop", "extracts")
	params.Set("exintro", "1")
	params.Set("explaintext", "1")
	params.Set("redirects", "1")
	endpoint := strings.ReplaceAll(c.baseURL, "{lang}", url.PathEscape(lang)) + "?" + params.Encode()

	body, err := connectors.GetJSON(ctx, c.client, c.limiter, endpoint, http.Header{"User-Agent": {c.userAgent}})
	if err != nil {
		return domain.RawRecord{}, fmt.Errorf("wikipedia %s: %w", ref, err)
	}

	return domain.RawRecord{
		Source:  Name,
		URI:     "wikipedia:" + ref,
		Content: body,
	}, nil
}
