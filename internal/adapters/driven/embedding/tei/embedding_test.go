package tei

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/travelrag/internal/core/domain"
)

// fakeServer embeds each input as [len(input), 0, 0, ...].
func fakeServer(t *testing.T, dims int, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		require.Equal(t, "/embed", r.URL.Path)
		if calls != nil {
			calls.Add(1)
		}

		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		out := make([][]float32, len(req.Inputs))
		for i, in := range req.Inputs {
			v := make([]float32, dims)
			v[0] = float32(len(in))
			out[i] = v
		}
		_ = json.NewEncoder(w).Encode(out)
	}))
}

func TestNewEmbedder_Defaults(t *testing.T) {
	e := NewEmbedder(Config{})
	assert.Equal(t, DefaultDimensions, e.Dimensions())
	assert.Equal(t, "all-MiniLM-L6-v2", e.ModelName())
	assert.NoError(t, e.Close())
}

func TestEmbedBatch_PreservesOrderAcrossBatches(t *testing.T) {
	var calls atomic.Int32
	srv := fakeServer(t, 4, &calls)
	defer srv.Close()

	e := NewEmbedder(Config{BaseURL: srv.URL, Dimensions: 4, BatchSize: 2})
	texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}

	vectors, err := e.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)

	require.Len(t, vectors, len(texts))
	for i, v := range vectors {
		assert.Equal(t, float32(len(texts[i])), v[0])
	}
	assert.Equal(t, int32(3), calls.Load())
}

func TestEmbed_DimensionMismatch(t *testing.T) {
	srv := fakeServer(t, 3, nil)
	defer srv.Close()

	_, err := NewEmbedder(Config{BaseURL: srv.URL, Dimensions: 384}).Embed(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestEmbed_ErrorClassification(t *testing.T) {
	tests := []struct {
		status  int
		body    string
		wantErr error
	}{
		{http.StatusRequestEntityTooLarge, `{"error":"payload too large"}`, domain.ErrInputTooLong},
		{http.StatusServiceUnavailable, `{"error":"overloaded"}`, domain.ErrModelUnavailable},
	}

	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tt.status)
			_, _ = w.Write([]byte(tt.body))
		}))

		_, err := NewEmbedder(Config{BaseURL: srv.URL}).Embed(context.Background(), "x")
		assert.ErrorIs(t, err, tt.wantErr)
		srv.Close()
	}
}

func TestEmbed_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	e := NewEmbedder(Config{BaseURL: url})
	_, err := e.Embed(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
	assert.ErrorIs(t, e.Ping(context.Background()), domain.ErrModelUnavailable)
}

func TestPing(t *testing.T) {
	srv := fakeServer(t, 4, nil)
	defer srv.Close()

	assert.NoError(t, NewEmbedder(Config{BaseURL: srv.URL}).Ping(context.Background()))
}
