package domain

import "time"

const unknownDescription = "Unknown"

// EmbeddingProvider identifies an embedding backend.
type EmbeddingProvider string

// Available embedding providers.
const (
	// EmbeddingProviderTEI is a HuggingFace text-embeddings-inference server.
	EmbeddingProviderTEI EmbeddingProvider = "tei"

	// EmbeddingProviderOllama is a local Ollama instance.
	EmbeddingProviderOllama EmbeddingProvider = "ollama"

	// EmbeddingProviderOpenAI is the OpenAI cloud API.
	EmbeddingProviderOpenAI EmbeddingProvider = "openai"

	// EmbeddingProviderHashing is the offline feature-hashing embedder.
	EmbeddingProviderHashing EmbeddingProvider = "hashing"
)

// IsValid returns true if the provider is recognised.
func (p EmbeddingProvider) IsValid() bool {
	switch p {
	case EmbeddingProviderTEI, EmbeddingProviderOllama, EmbeddingProviderOpenAI, EmbeddingProviderHashing:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p EmbeddingProvider) RequiresAPIKey() bool {
	return p == EmbeddingProviderOpenAI
}

// String returns the string representation.
func (p EmbeddingProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p EmbeddingProvider) Description() string {
	switch p {
	case EmbeddingProviderTEI:
		return "Text Embeddings Inference (local)"
	case EmbeddingProviderOllama:
		return "Ollama (local)"
	case EmbeddingProviderOpenAI:
		return "OpenAI (cloud)"
	case EmbeddingProviderHashing:
		return "Feature hashing (offline)"
	default:
		return unknownDescription
	}
}

// LLMProvider identifies a hosted generative model backend.
type LLMProvider string

// Available LLM providers.
const (
	LLMProviderGemini    LLMProvider = "gemini"
	LLMProviderAnthropic LLMProvider = "anthropic"
	LLMProviderOpenAI    LLMProvider = "openai"
	LLMProviderOllama    LLMProvider = "ollama"
)

// IsValid returns true if the provider is recognised.
func (p LLMProvider) IsValid() bool {
	switch p {
	case LLMProviderGemini, LLMProviderAnthropic, LLMProviderOpenAI, LLMProviderOllama:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p LLMProvider) RequiresAPIKey() bool {
	return p != LLMProviderOllama
}

// String returns the string representation.
func (p LLMProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p LLMProvider) Description() string {
	switch p {
	case LLMProviderGemini:
		return "Google Gemini (cloud)"
	case LLMProviderAnthropic:
		return "Anthropic (cloud)"
	case LLMProviderOpenAI:
		return "OpenAI (cloud)"
	case LLMProviderOllama:
		return "Ollama (local)"
	default:
		return unknownDescription
	}
}

// VectorBackend identifies where the vector index lives.
type VectorBackend string

// Available vector backends.
const (
	VectorBackendMemory   VectorBackend = "memory"
	VectorBackendSQLite   VectorBackend = "sqlite"
	VectorBackendPGVector VectorBackend = "pgvector"
)

// IsValid returns true if the backend is recognised.
func (b VectorBackend) IsValid() bool {
	return b == VectorBackendMemory || b == VectorBackendSQLite || b == VectorBackendPGVector
}

// SessionBackend identifies where conversation history lives.
type SessionBackend string

// Available session backends.
const (
	SessionBackendMemory SessionBackend = "memory"
	SessionBackendSQLite SessionBackend = "sqlite"
)

// IsValid returns true if the backend is recognised.
func (b SessionBackend) IsValid() bool {
	return b == SessionBackendMemory || b == SessionBackendSQLite
}

// CollectSettings configures the ingestion sources.
type CollectSettings struct {
	// City names the region being collected. It also names the corpus files.
	City string

	// BBox is the rectangle searched for places.
	BBox BoundingBox

	// Categories is the places category filter, comma separated.
	Categories string

	// PlaceLimit caps the number of places fetched.
	PlaceLimit int

	// Email is included in the encyclopedia User-Agent.
	Email string

	// RateLimitDelay is the minimum spacing between calls to one service.
	RateLimitDelay time.Duration

	// GeoapifyAPIKey authenticates the places API.
	GeoapifyAPIKey string
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	Provider EmbeddingProvider

	// Model is the embedding model name.
	Model string

	// Dimensions is the output vector size.
	Dimensions int

	// BaseURL is the API endpoint (TEI, Ollama, OpenAI-compatible).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Dimensions <= 0 {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// VectorSettings holds vector index configuration.
type VectorSettings struct {
	Backend VectorBackend

	// Collection names the index within the backend.
	Collection string

	// Metric is fixed when the collection is created.
	Metric Metric

	// DSN is the connection string for pgvector.
	DSN string
}

// LLMSettings holds generative model configuration.
type LLMSettings struct {
	Provider LLMProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama and OpenAI-compatible servers).
	BaseURL string

	// APIKey is the API key for cloud providers.
	APIKey string

	Temperature float64
	MaxTokens   int

	// SystemPrompt replaces the default assistant instruction when set.
	SystemPrompt string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// RetrievalSettings controls the query path.
type RetrievalSettings struct {
	// TopK is the default number of documents retrieved per question.
	TopK int

	// MaxContextChars bounds the context block sent to the model.
	MaxContextChars int

	// HistoryTurns is how many prior turns are forwarded to the model.
	HistoryTurns int
}

// SegmentSettings controls document segmentation.
type SegmentSettings struct {
	// Size is the window length in characters.
	Size int

	// Overlap is the number of characters shared by adjacent windows.
	Overlap int
}

// SessionSettings controls conversation storage.
type SessionSettings struct {
	Backend  SessionBackend
	MaxTurns int
	TTL      time.Duration
}

// Retention returns the policy described by these settings.
func (s SessionSettings) Retention() RetentionPolicy {
	return RetentionPolicy{MaxTurns: s.MaxTurns, TTL: s.TTL}
}

// AppSettings holds all application settings.
type AppSettings struct {
	// DataDir holds raw caches, processed corpora and local databases.
	DataDir string

	// RequestTimeout bounds every external call.
	RequestTimeout time.Duration

	Collect   CollectSettings
	Embedding EmbeddingSettings
	Vector    VectorSettings
	LLM       LLMSettings
	Retrieval RetrievalSettings
	Segment   SegmentSettings
	Session   SessionSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// DataDir is left empty; the settings service resolves it under the home directory.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		RequestTimeout: 30 * time.Second,
		Collect: CollectSettings{
			City: "Seattle",
			BBox: BoundingBox{
				LonMin: -122.45,
				LatMin: 47.48,
				LonMax: -122.22,
				LatMax: 47.73,
			},
			Categories:     "tourism",
			PlaceLimit:     500,
			RateLimitDelay: 500 * time.Millisecond,
		},
		Embedding: EmbeddingSettings{
			Provider:   EmbeddingProviderTEI,
			Model:      "all-MiniLM-L6-v2",
			Dimensions: 384,
			BaseURL:    "http://localhost:8080",
		},
		Vector: VectorSettings{
			Backend:    VectorBackendSQLite,
			Collection: "global_attractions",
			Metric:     MetricCosine,
		},
		LLM: LLMSettings{
			Provider:    LLMProviderGemini,
			Model:       "gemini-flash-latest",
			Temperature: 0.7,
			MaxTokens:   1024,
		},
		Retrieval: RetrievalSettings{
			TopK:            3,
			MaxContextChars: 6000,
			HistoryTurns:    10,
		},
		Segment: SegmentSettings{
			Size:    500,
			Overlap: 50,
		},
		Session: SessionSettings{
			Backend:  SessionBackendSQLite,
			MaxTurns: 50,
			TTL:      24 * time.Hour,
		},
	}
}

// AllEmbeddingProviders returns every embedding provider.
func AllEmbeddingProviders() []EmbeddingProvider {
	return []EmbeddingProvider{
		EmbeddingProviderTEI,
		EmbeddingProviderOllama,
		EmbeddingProviderOpenAI,
		EmbeddingProviderHashing,
	}
}

// AllLLMProviders returns every LLM provider.
func AllLLMProviders() []LLMProvider {
	return []LLMProvider{
		LLMProviderGemini,
		LLMProviderAnthropic,
		LLMProviderOpenAI,
		LLMProviderOllama,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[EmbeddingProvider]string {
	return map[EmbeddingProvider]string{
		EmbeddingProviderTEI:     "all-MiniLM-L6-v2",
		EmbeddingProviderOllama:  "nomic-embed-text",
		EmbeddingProviderOpenAI:  "text-embedding-3-small",
		EmbeddingProviderHashing: "feature-hashing",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[LLMProvider]string {
	return map[LLMProvider]string{
		LLMProviderGemini:    "gemini-flash-latest",
		LLMProviderAnthropic: "claude-3-5-haiku-latest",
		LLMProviderOpenAI:    "gpt-4o-mini",
		LLMProviderOllama:    "llama3.2",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"all-MiniLM-L6-v2":  384,
		"all-minilm":        384,
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		// OpenAI models support shortening through the dimensions parameter.
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"feature-hashing":        384,
	}
}

// PipelineConfig holds post-processor pipeline configuration.
type PipelineConfig struct {
	// Processors is the ordered list of processor names to run.
	Processors []string

	// ProcessorConfigs holds per-processor configuration keyed by processor name.
	ProcessorConfigs map[string]map[string]any
}

// GetProcessorConfig returns config for a specific processor, or nil if not set.
func (c *PipelineConfig) GetProcessorConfig(name string) map[string]any {
	if c.ProcessorConfigs == nil {
		return nil
	}
	return c.ProcessorConfigs[name]
}

// PipelineConfigFor returns a chunker pipeline sized by seg.
func PipelineConfigFor(seg SegmentSettings) PipelineConfig {
	return PipelineConfig{
		Processors: []string{"chunker"},
		ProcessorConfigs: map[string]map[string]any{
			"chunker": {
				"chunk_size": seg.Size,
				"overlap":    seg.Overlap,
			},
		},
	}
}
