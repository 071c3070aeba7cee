package geoapify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/travelrag/internal/connectors"
	"github.com/custodia-labs/travelrag/internal/core/domain"
	"github.com/custodia-labs/travelrag/internal/core/ports/driven"
)

var seattle = domain.BoundingBox{LonMin: -122.45, LatMin: 47.48, LonMax: -122.22, LatMax: 47.73}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFetchPlaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "tourism", q.Get("categories"))
		assert.Equal(t, "rect:-122.45,47.48,-122.22,47.73", q.Get("filter"))
		assert.Equal(t, "20", q.Get("limit"))
		assert.Equal(t, "secret", q.Get("apiKey"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"type":"FeatureCollection","features":[
			{"type":"Feature","properties":{"place_id":"a1","name":"Space Needle"}},
			{"type":"Feature","properties":{"place_id":"b2","name":"Gum Wall"}}
		]}`))
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL, APIKey: "secret", HTTPClient: srv.Client()})
	require.NoError(t, err)
	assert.Equal(t, "geoapify", c.Name())

	records, err := c.FetchPlaces(context.Background(), driven.PlaceQuery{City: "Seattle", BBox: seattle, Limit: 20})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "geoapify:place/a1", records[0].URI)
	assert.Equal(t, "Seattle", records[1].Region)
	assert.Contains(t, string(records[1].Content), "Gum Wall")
}

func TestFetchPlaces_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"server error", http.StatusInternalServerError, ``, domain.ErrFetchFailed},
		{"rate limited", http.StatusTooManyRequests, ``, domain.ErrRateLimited},
		{"bad json", http.StatusOK, `{"features":`, domain.ErrFetchFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c, err := New(Config{BaseURL: srv.URL, APIKey: "k", Limiter: connectors.NewRateLimiter(0)})
			require.NoError(t, err)

			_, err = c.FetchPlaces(context.Background(), driven.PlaceQuery{BBox: seattle})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFetchPlaces_InvalidBBox(t *testing.T) {
	c, err := New(Config{APIKey: "k"})
	require.NoError(t, err)

	_, err = c.FetchPlaces(context.Background(), driven.PlaceQuery{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
