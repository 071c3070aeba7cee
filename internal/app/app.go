// Package app wires the driven adapters into the core services. It is the
// composition root behind the CLI and the MCP server: every command asks it
// for the services it needs, and it opens only the backends those require.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/custodia-labs/travelrag/internal/adapters/driven/ai"
	"github.com/custodia-labs/travelrag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/travelrag/internal/adapters/driven/corpus"
	"github.com/custodia-labs/travelrag/internal/connectors"
	geoapifyconn "github.com/custodia-labs/travelrag/internal/connectors/geoapify"
	wikipediaconn "github.com/custodia-labs/travelrag/internal/connectors/wikipedia"
	"github.com/custodia-labs/travelrag/internal/core/domain"
	"github.com/custodia-labs/travelrag/internal/core/ports/driven"
	"github.com/custodia-labs/travelrag/internal/core/ports/driving"
	"github.com/custodia-labs/travelrag/internal/core/services"
	"github.com/custodia-labs/travelrag/internal/docbuilder"
	"github.com/custodia-labs/travelrag/internal/logger"
	"github.com/custodia-labs/travelrag/internal/normalisers/geoapify"
	"github.com/custodia-labs/travelrag/internal/normalisers/wikipedia"
	"github.com/custodia-labs/travelrag/internal/postprocessors"
)

// App owns the configuration and every backend opened on behalf of a command.
type App struct {
	config   *file.ConfigStore
	settings *services.SettingsService
	prompts  *file.PromptStore

	mu      sync.Mutex
	backend []*ai.InitResult
}

// New opens the configuration under baseDir, defaulting to ~/.travelrag.
func New(baseDir string) (*App, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		baseDir = filepath.Join(home, ".travelrag")
	}

	config, err := file.NewConfigStore(baseDir)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	prompts, err := file.NewPromptStore(filepath.Join(baseDir, "prompts"))
	if err != nil {
		return nil, fmt.Errorf("open prompts: %w", err)
	}

	return &App{
		config:   config,
		settings: services.NewSettingsService(config),
		prompts:  prompts,
	}, nil
}

// Settings returns the settings service.
func (a *App) Settings() driving.SettingsService {
	return a.settings
}

// DocumentsPath returns the processed corpus file for city, or for the
// configured city when empty.
func (a *App) DocumentsPath(city string) (string, error) {
	s, err := a.settings.Get()
	if err != nil {
		return "", err
	}
	if city == "" {
		city = s.Collect.City
	}
	return corpus.NewFileStore(s.DataDir).DocumentsPath(city), nil
}

// Collector builds the collection pipeline: places, descriptions,
// normalisers, document builder and corpus store.
func (a *App) Collector(_ context.Context) (driving.CollectService, error) {
	s, err := a.settings.Get()
	if err != nil {
		return nil, err
	}

	places, err := geoapifyconn.New(geoapifyconn.Config{
		APIKey:  s.Collect.GeoapifyAPIKey,
		Limiter: connectors.NewRateLimiter(s.Collect.RateLimitDelay),
	})
	if err != nil {
		return nil, err
	}
	descriptions := wikipediaconn.New(wikipediaconn.Config{
		Email:   s.Collect.Email,
		Limiter: connectors.NewRateLimiter(s.Collect.RateLimitDelay),
	})

	builder, err := newDocumentBuilder(s.Segment)
	if err != nil {
		return nil, err
	}

	return services.NewCollectService(
		places,
		descriptions,
		geoapify.New(),
		wikipedia.New(),
		builder,
		corpus.NewFileStore(s.DataDir),
		services.CollectConfig{
			City:           s.Collect.City,
			BBox:           s.Collect.BBox,
			Categories:     s.Collect.Categories,
			PlaceLimit:     s.Collect.PlaceLimit,
			RequestTimeout: s.RequestTimeout,
		},
	), nil
}

func newDocumentBuilder(seg domain.SegmentSettings) (*docbuilder.Builder, error) {
	registry := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(registry)

	pipeline, err := postprocessors.NewPipelineFromConfig(registry, domain.PipelineConfigFor(seg))
	if err != nil {
		return nil, fmt.Errorf("build segmentation pipeline: %w", err)
	}
	return docbuilder.New(pipeline), nil
}

// Indexer opens the embedder and the vector collection for writing. Reset
// drops the collection first so it takes the embedder's dimension.
func (a *App) Indexer(ctx context.Context, reset bool) (driving.IndexService, error) {
	s, err := a.settings.Get()
	if err != nil {
		return nil, err
	}

	res, err := a.open(ctx, s, ai.InitOptions{Mode: driven.OpenModeCreate, Recreate: reset, Validate: true})
	if err != nil {
		return nil, err
	}
	if res.Memory {
		logger.Warn("The memory vector backend is not persisted; questions re-index the corpus on every run")
	}
	return newIndexService(s, res), nil
}

func newIndexService(s *domain.AppSettings, res *ai.InitResult) *services.IndexService {
	return services.NewIndexService(res.Embedder, res.VectorIndex, corpus.NewFileStore(s.DataDir), services.IndexConfig{
		City:           s.Collect.City,
		RequestTimeout: s.RequestTimeout,
	})
}

// Asker opens everything a question needs. With the in-process vector
// backend the corpus is indexed first, since the collection starts empty.
func (a *App) Asker(ctx context.Context) (driving.AskService, driving.SessionService, error) {
	s, err := a.settings.Get()
	if err != nil {
		return nil, nil, err
	}

	res, err := a.open(ctx, s, ai.InitOptions{Mode: driven.OpenModeRead, WithGenerator: true})
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil, fmt.Errorf("collection %q does not exist, run 'travelrag index' first: %w", s.Vector.Collection, err)
	}
	if err != nil {
		return nil, nil, err
	}

	if res.Memory {
		logger.Info("Loading the corpus into the in-memory index")
		report, err := newIndexService(s, res).Index(ctx, driving.IndexRequest{})
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Indexed %d documents", report.Count)
	}

	retriever, err := services.NewRetriever(res.Embedder, res.VectorIndex, services.DefaultQueryCacheSize, s.RequestTimeout)
	if err != nil {
		return nil, nil, err
	}
	assembler := services.NewAssembler(res.Generator, a.prompts, services.AssemblerConfig{
		MaxContextChars: s.Retrieval.MaxContextChars,
		HistoryTurns:    s.Retrieval.HistoryTurns,
		Temperature:     s.LLM.Temperature,
		MaxTokens:       s.LLM.MaxTokens,
		SystemPrompt:    s.LLM.SystemPrompt,
		RequestTimeout:  s.RequestTimeout,
	})

	ask := services.NewAskService(retriever, assembler, res.Conversations, s.Retrieval.TopK)
	return ask, services.NewSessionService(res.Conversations), nil
}

// Sessions opens only the conversation store.
func (a *App) Sessions(_ context.Context) (driving.SessionService, error) {
	s, err := a.settings.Get()
	if err != nil {
		return nil, err
	}

	res, err := ai.OpenConversations(s)
	if err != nil {
		return nil, err
	}
	a.track(res)
	return services.NewSessionService(res.Conversations), nil
}

func (a *App) open(ctx context.Context, s *domain.AppSettings, opts ai.InitOptions) (*ai.InitResult, error) {
	res, err := ai.Init(ctx, s, opts)
	if err != nil {
		return nil, err
	}
	a.track(res)
	return res, nil
}

func (a *App) track(res *ai.InitResult) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.backend = append(a.backend, res)
}

// Close releases every backend opened so far.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, res := range a.backend {
		res.Close()
	}
	a.backend = nil
	return nil
}
