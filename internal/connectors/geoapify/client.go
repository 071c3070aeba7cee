// Package geoapify fetches tourist attractions from the Geoapify Places API.
package geoapify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/custodia-labs/travelrag/internal/connectors"
	"github.com/custodia-labs/travelrag/internal/core/domain"
	"github.com/custodia-labs/travelrag/internal/core/ports/driven"
)

const (
	// DefaultBaseURL is the Places endpoint.
	DefaultBaseURL = "https://api.geoapify.com/v2/places"

	// DefaultCategories selects tourist attractions.
	DefaultCategories = "tourism"

	// DefaultLimit is the default maximum number of places per request.
	DefaultLimit = 500

	// Name identifies this source.
	Name = "geoapify"
)

// Ensure Client implements the interface.
var _ driven.PlaceSource = (*Client)(nil)

// Config holds configuration for the places client.
type Config struct {
	BaseURL string
	APIKey  string

	// HTTPClient defaults to a client with connectors.DefaultTimeout.
	HTTPClient *http.Client

	// Limiter spaces calls; nil disables spacing.
	Limiter *connectors.RateLimiter
}

// Client implements driven.PlaceSource.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *connectors.RateLimiter
}

// New creates a places client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: geoapify API key is required (set GEOAPIFY_API_KEY)", domain.ErrInvalidInput)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: connectors.DefaultTimeout}
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  cfg.HTTPClient,
		limiter: cfg.Limiter,
	}, nil
}

// Name returns the source name.
func (c *Client) Name() string {
	return Name
}

type featureCollection struct {
	Type     string            `json:"type"`
	Features []json.RawMessage `json:"features"`
}

type featureID struct {
	Properties struct {
		PlaceID string `json:"place_id"`
	} `json:"properties"`
}

// FetchPlaces queries places inside the bounding box. Each feature becomes one raw record.
func (c *Client) FetchPlaces(ctx context.Context, q driven.PlaceQuery) ([]domain.RawRecord, error) {
	if !q.BBox.IsValid() {
		return nil, fmt.Errorf("%w: bounding box %+v has no extent", domain.ErrInvalidInput, q.BBox)
	}

	body, err := connectors.GetJSON(ctx, c.client, c.limiter, c.requestURL(q), nil)
	if err != nil {
		return nil, fmt.Errorf("geoapify: %w", err)
	}

	var fc featureCollection
	if err := json.Unmarshal(body, &fc); err != nil {
		return nil, fmt.Errorf("geoapify: %w: decode response: %w", domain.ErrFetchFailed, err)
	}

	records := make([]domain.RawRecord, 0, len(fc.Features))
	for _, f := range fc.Features {
		var id featureID
		_ = json.Unmarshal(f, &id)
		records = append(records, domain.RawRecord{
			Source:  Name,
			URI:     "geoapify:place/" + id.Properties.PlaceID,
			Content: []byte(f),
			Region:  q.City,
		})
	}
	return records, nil
}

func (c *Client) requestURL(q driven.PlaceQuery) string {
	categories := q.Categories
	if categories == "" {
		categories = DefaultCategories
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	params := url.Values{}
	params.Set("categories", categories)
	params.Set("filter", RectFilter(q.BBox))
	params.Set("limit", strconv.Itoa(limit))
	params.Set("apiKey", c.apiKey)
	return c.baseURL + "?" + params.Encode()
}

// RectFilter formats a bounding box as "rect:lon_min,lat_min,lon_max,lat_max".
func RectFilter(b domain.BoundingBox) string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return "rect:" + f(b.LonMin) + "," + f(b.LatMin) + "," + f(b.LonMax) + "," + f(b.LatMax)
}
