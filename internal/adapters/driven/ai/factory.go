// Package ai provides factory functions for creating the pluggable backends:
// embedders, generators, vector indexes and conversation stores.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/travelrag/internal/adapters/driven/embedding/hashing"
	ollamaembed "github.com/custodia-labs/travelrag/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/travelrag/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/travelrag/internal/adapters/driven/embedding/tei"
	anthropicllm "github.com/custodia-labs/travelrag/internal/adapters/driven/llm/anthropic"
	"github.com/custodia-labs/travelrag/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/travelrag/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/travelrag/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/travelrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/travelrag/internal/adapters/driven/storage/pgvector"
	"github.com/custodia-labs/travelrag/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/travelrag/internal/core/domain"
	"github.com/custodia-labs/travelrag/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// configHint is appended to construction errors.
const configHint = "Run 'travelrag config show' to check your settings"

// InitOptions selects what Init builds.
type InitOptions struct {
	// Mode is used when opening the vector collection.
	Mode driven.OpenMode

	// Recreate drops the collection first so it can take the embedder's dimension.
	Recreate bool

	// WithGenerator also creates the LLM client.
	WithGenerator bool

	// Validate pings the embedder and generator before returning.
	Validate bool
}

// InitResult contains the backends created by Init.
type InitResult struct {
	Embedder      driven.Embedder
	Generator     driven.Generator
	VectorIndex   driven.VectorIndex
	Conversations driven.ConversationStore

	// Memory is set when the vector index lives in process and starts empty.
	Memory bool

	sqlite *sqlite.Store
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.Embedder != nil {
		r.Embedder.Close()
	}
	if r.Generator != nil {
		r.Generator.Close()
	}
	if r.VectorIndex != nil {
		r.VectorIndex.Close()
	}
	if r.Conversations != nil {
		r.Conversations.Close()
	}
	if r.sqlite != nil {
		r.sqlite.Close()
	}
}

// Init creates every backend the settings describe. On error nothing is left open.
func Init(ctx context.Context, settings *domain.AppSettings, opts InitOptions) (*InitResult, error) {
	res := &InitResult{}
	if err := res.init(ctx, settings, opts); err != nil {
		res.Close()
		return nil, err
	}
	return res, nil
}

func (r *InitResult) init(ctx context.Context, settings *domain.AppSettings, opts InitOptions) error {
	var err error
	if opts.Validate {
		r.Embedder, err = CreateAndValidateEmbedder(ctx, &settings.Embedding, settings.RequestTimeout)
	} else {
		r.Embedder, err = CreateEmbedder(&settings.Embedding, settings.RequestTimeout)
	}
	if err != nil {
		return err
	}

	if opts.WithGenerator {
		if opts.Validate {
			r.Generator, err = CreateAndValidateGenerator(ctx, &settings.LLM, settings.RequestTimeout)
		} else {
			r.Generator, err = CreateGenerator(ctx, &settings.LLM, settings.RequestTimeout)
		}
		if err != nil {
			return err
		}
	}

	if settings.Vector.Backend == domain.VectorBackendSQLite || settings.Session.Backend == domain.SessionBackendSQLite {
		r.sqlite, err = sqlite.NewStore(settings.DataDir)
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrVectorIndexUnavailable, err)
		}
	}

	cfg := driven.VectorIndexConfig{
		Collection: settings.Vector.Collection,
		Dimensions: r.Embedder.Dimensions(),
		Metric:     settings.Vector.Metric,
		Mode:       opts.Mode,
		Recreate:   opts.Recreate,
	}
	r.VectorIndex, err = r.openVectorIndex(ctx, settings.Vector, cfg)
	if err != nil {
		return err
	}

	r.openConversations(settings.Session)
	return nil
}

// OpenConversations opens only the session store, for commands that read
// history without touching models or the vector index.
func OpenConversations(settings *domain.AppSettings) (*InitResult, error) {
	res := &InitResult{}
	if settings.Session.Backend == domain.SessionBackendSQLite {
		store, err := sqlite.NewStore(settings.DataDir)
		if err != nil {
			return nil, fmt.Errorf("open session store: %w", err)
		}
		res.sqlite = store
	}
	res.openConversations(settings.Session)
	return res, nil
}

func (r *InitResult) openConversations(ss domain.SessionSettings) {
	switch ss.Backend {
	case domain.SessionBackendSQLite:
		r.Conversations = r.sqlite.ConversationStore(ss.Retention())
	default:
		r.Conversations = memory.NewConversationStore(ss.Retention())
	}
}

func (r *InitResult) openVectorIndex(
	ctx context.Context, vs domain.VectorSettings, cfg driven.VectorIndexConfig,
) (driven.VectorIndex, error) {
	switch vs.Backend {
	case domain.VectorBackendMemory:
		r.Memory = true
		// A fresh process never has the collection, so read mode would always fail.
		cfg.Mode = driven.OpenModeCreate
		return memory.NewCollections().Open(cfg)

	case domain.VectorBackendSQLite:
		return wrapIndexErr(r.sqlite.OpenVectorIndex(ctx, cfg))

	case domain.VectorBackendPGVector:
		if vs.DSN == "" {
			return nil, fmt.Errorf("%w: vector.dsn is required for pgvector. %s",
				domain.ErrVectorIndexUnavailable, configHint)
		}
		return wrapIndexErr(pgvector.Open(ctx, vs.DSN, cfg))

	default:
		return nil, fmt.Errorf("%w: unsupported vector backend: %s", domain.ErrInvalidInput, vs.Backend)
	}
}

// wrapIndexErr keeps NotFound and DimensionMismatch visible and marks the rest as unavailable.
func wrapIndexErr[T driven.VectorIndex](idx T, err error) (driven.VectorIndex, error) {
	if err == nil {
		return idx, nil
	}
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrDimensionMismatch) {
		return nil, err
	}
	return nil, fmt.Errorf("%w: %w", domain.ErrVectorIndexUnavailable, err)
}

// CreateAndValidateEmbedder creates an embedder and validates connectivity.
// Returns the embedder if successful, or an error with guidance.
func CreateAndValidateEmbedder(
	ctx context.Context, settings *domain.EmbeddingSettings, timeout time.Duration,
) (driven.Embedder, error) {
	svc, err := CreateEmbedder(settings, timeout)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). %s",
			domain.ErrEmbeddingUnavailable, err, configHint)
	}

	return svc, nil
}

// CreateAndValidateGenerator creates a generator and validates connectivity.
// Returns the generator if successful, or an error with guidance.
func CreateAndValidateGenerator(
	ctx context.Context, settings *domain.LLMSettings, timeout time.Duration,
) (driven.Generator, error) {
	svc, err := CreateGenerator(ctx, settings, timeout)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). %s",
			domain.ErrLLMUnavailable, err, configHint)
	}

	return svc, nil
}

// CreateEmbedder creates the embedder named by settings.
func CreateEmbedder(settings *domain.EmbeddingSettings, timeout time.Duration) (driven.Embedder, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: embedding provider is not configured. %s",
			domain.ErrEmbeddingUnavailable, configHint)
	}

	dims := settings.Dimensions
	if dims == 0 {
		dims = domain.EmbeddingDimensions()[settings.Model]
	}

	switch settings.Provider {
	case domain.EmbeddingProviderTEI:
		return tei.NewEmbedder(tei.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Timeout:    timeout,
			Dimensions: dims,
		}), nil

	case domain.EmbeddingProviderOllama:
		return ollamaembed.NewEmbedder(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Timeout:    timeout,
			Dimensions: dims,
		}), nil

	case domain.EmbeddingProviderOpenAI:
		return createOpenAIEmbedder(settings, dims, timeout)

	case domain.EmbeddingProviderHashing:
		return hashing.NewEmbedder(hashing.Config{Dimensions: dims}), nil

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// createOpenAIEmbedder only requests shortened vectors when dims differs from the model's size.
func createOpenAIEmbedder(settings *domain.EmbeddingSettings, dims int, timeout time.Duration) (driven.Embedder, error) {
	if dims == domain.EmbeddingDimensions()[settings.Model] {
		dims = 0
	}

	svc, err := openaiembed.NewEmbedder(openaiembed.Config{
		APIKey:     settings.APIKey,
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Timeout:    timeout,
		Dimensions: dims,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w. %s", domain.ErrEmbeddingUnavailable, err, configHint)
	}
	return svc, nil
}

// CreateGenerator creates the generator named by settings.
func CreateGenerator(ctx context.Context, settings *domain.LLMSettings, timeout time.Duration) (driven.Generator, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: LLM provider is not configured or its API key is missing. %s",
			domain.ErrLLMUnavailable, configHint)
	}

	var (
		svc driven.Generator
		err error
	)

	switch settings.Provider {
	case domain.LLMProviderGemini:
		svc, err = gemini.NewGenerator(ctx, gemini.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: timeout,
		})

	case domain.LLMProviderAnthropic:
		svc, err = anthropicllm.NewGenerator(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: timeout,
		})

	case domain.LLMProviderOpenAI:
		svc, err = openaillm.NewGenerator(openaillm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: timeout,
		})

	case domain.LLMProviderOllama:
		svc = ollamallm.NewGenerator(ollamallm.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: timeout,
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %w. %s", domain.ErrLLMUnavailable, err, configHint)
	}
	return svc, nil
}
