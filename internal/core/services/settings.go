package services

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/travelrag/internal/core/domain"
	"github.com/custodia-labs/travelrag/internal/core/ports/driven"
	"github.com/custodia-labs/travelrag/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyDataDir        = "data_dir"
	keyRequestTimeout = "request_timeout"
	keyCity           = "city"
	keyBBox           = "bbox"
	keyCategories     = "categories"
	keyPlaceLimit     = "place_limit"
	keyEmail          = "email"
	keyRateLimitDelay = "rate_limit_delay"
	keyGeoapifyAPIKey = "geoapify_api_key"

	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedDimensions = "embedding.dimensions"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedAPIKey     = "embedding.api_key"

	keyVectorBackend    = "vector.backend"
	keyVectorCollection = "vector.collection"
	keyVectorMetric     = "vector.metric"
	keyVectorDSN        = "vector.dsn"

	keyTopK            = "top_k"
	keyMaxContextChars = "max_context_chars"
	keyHistoryTurns    = "history_turns"

	keyLLMProvider     = "llm.provider"
	keyLLMModel        = "llm.model"
	keyLLMBaseURL      = "llm.base_url"
	keyLLMAPIKey       = "llm.api_key"
	keyLLMTemperature  = "llm.temperature"
	keyLLMMaxTokens    = "llm.max_tokens"
	keyLLMSystemPrompt = "llm.system_prompt"

	keySegmentSize    = "segment_size"
	keySegmentOverlap = "segment_overlap"

	keySessionBackend  = "session.backend"
	keySessionMaxTurns = "session.max_turns"
	keySessionTTL      = "session.ttl"
)

// providerKeySuffix names the per-provider key fallback, e.g. "gemini_api_key".
const providerKeySuffix = "_api_key"

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
	kindDuration
	kindBBox
	kindEnum
)

type keyDef struct {
	kind valueKind

	// enum lists accepted values for kindEnum.
	enum []string

	// secret values are masked by callers that print settings.
	secret bool
}

var settingKeys = map[string]keyDef{
	keyDataDir:        {kind: kindString},
	keyRequestTimeout: {kind: kindDuration},
	keyCity:           {kind: kindString},
	keyBBox:           {kind: kindBBox},
	keyCategories:     {kind: kindString},
	keyPlaceLimit:     {kind: kindInt},
	keyEmail:          {kind: kindString},
	keyRateLimitDelay: {kind: kindDuration},
	keyGeoapifyAPIKey: {kind: kindString, secret: true},

	keyEmbedProvider:   {kind: kindEnum, enum: []string{"tei", "ollama", "openai", "hashing"}},
	keyEmbedModel:      {kind: kindString},
	keyEmbedDimensions: {kind: kindInt},
	keyEmbedBaseURL:    {kind: kindString},
	keyEmbedAPIKey:     {kind: kindString, secret: true},

	keyVectorBackend:    {kind: kindEnum, enum: []string{"memory", "sqlite", "pgvector"}},
	keyVectorCollection: {kind: kindString},
	keyVectorMetric:     {kind: kindEnum, enum: []string{"cosine", "l2"}},
	keyVectorDSN:        {kind: kindString, secret: true},

	keyTopK:            {kind: kindInt},
	keyMaxContextChars: {kind: kindInt},
	keyHistoryTurns:    {kind: kindInt},

	keyLLMProvider:     {kind: kindEnum, enum: []string{"gemini", "anthropic", "openai", "ollama"}},
	keyLLMModel:        {kind: kindString},
	keyLLMBaseURL:      {kind: kindString},
	keyLLMAPIKey:       {kind: kindString, secret: true},
	keyLLMTemperature:  {kind: kindFloat},
	keyLLMMaxTokens:    {kind: kindInt},
	keyLLMSystemPrompt: {kind: kindString},

	keySegmentSize:    {kind: kindInt},
	keySegmentOverlap: {kind: kindInt},

	keySessionBackend:  {kind: kindEnum, enum: []string{"memory", "sqlite"}},
	keySessionMaxTurns: {kind: kindInt},
	keySessionTTL:      {kind: kindDuration},

	"gemini" + providerKeySuffix:    {kind: kindString, secret: true},
	"anthropic" + providerKeySuffix: {kind: kindString, secret: true},
	"openai" + providerKeySuffix:    {kind: kindString, secret: true},
}

// IsSecretKey reports whether key holds a credential.
func IsSecretKey(key string) bool {
	return settingKeys[key].secret
}

// SettingsService resolves application settings from the config store.
type SettingsService struct {
	configStore driven.ConfigStore
	homeDir     func() (string, error)
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		homeDir:     os.UserHomeDir,
	}
}

// Get retrieves current application settings. Invalid stored values fall
// back to defaults; Set is where values are validated.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	dataDir := s.getString(keyDataDir, "")
	if dataDir == "" {
		home, err := s.homeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve data directory: %w", err)
		}
		dataDir = filepath.Join(home, ".travelrag", "data")
	}

	settings := &domain.AppSettings{
		DataDir:        dataDir,
		RequestTimeout: s.getDuration(keyRequestTimeout, d.RequestTimeout),
		Collect: domain.CollectSettings{
			City:           s.getString(keyCity, d.Collect.City),
			BBox:           s.getBBox(d.Collect.BBox),
			Categories:     s.getString(keyCategories, d.Collect.Categories),
			PlaceLimit:     s.getInt(keyPlaceLimit, d.Collect.PlaceLimit),
			Email:          s.configStore.GetString(keyEmail),
			RateLimitDelay: s.getDuration(keyRateLimitDelay, d.Collect.RateLimitDelay),
			GeoapifyAPIKey: s.configStore.GetString(keyGeoapifyAPIKey),
		},
		Embedding: s.getEmbedding(d.Embedding),
		Vector: domain.VectorSettings{
			Backend:    domain.VectorBackend(s.getEnum(keyVectorBackend, string(d.Vector.Backend))),
			Collection: s.getString(keyVectorCollection, d.Vector.Collection),
			Metric:     domain.Metric(s.getEnum(keyVectorMetric, string(d.Vector.Metric))),
			DSN:        s.configStore.GetString(keyVectorDSN),
		},
		LLM: s.getLLM(d.LLM),
		Retrieval: domain.RetrievalSettings{
			TopK:            s.getInt(keyTopK, d.Retrieval.TopK),
			MaxContextChars: s.getInt(keyMaxContextChars, d.Retrieval.MaxContextChars),
			HistoryTurns:    s.getNonNegative(keyHistoryTurns, d.Retrieval.HistoryTurns),
		},
		Segment: domain.SegmentSettings{
			Size:    s.getInt(keySegmentSize, d.Segment.Size),
			Overlap: s.getNonNegative(keySegmentOverlap, d.Segment.Overlap),
		},
		Session: domain.SessionSettings{
			Backend:  domain.SessionBackend(s.getEnum(keySessionBackend, string(d.Session.Backend))),
			MaxTurns: s.getNonNegative(keySessionMaxTurns, d.Session.MaxTurns),
			TTL:      s.getDuration(keySessionTTL, d.Session.TTL),
		},
	}

	if settings.Segment.Overlap >= settings.Segment.Size {
		settings.Segment = d.Segment
	}

	return settings, nil
}

// getEmbedding derives model, dimensions and endpoint from the provider
// unless they are set explicitly.
func (s *SettingsService) getEmbedding(d domain.EmbeddingSettings) domain.EmbeddingSettings {
	provider := domain.EmbeddingProvider(s.getEnum(keyEmbedProvider, string(d.Provider)))

	model := s.configStore.GetString(keyEmbedModel)
	if model == "" {
		model = domain.DefaultEmbeddingModels()[provider]
	}

	dims := s.configStore.GetInt(keyEmbedDimensions)
	if dims <= 0 {
		dims = domain.EmbeddingDimensions()[model]
	}
	if dims <= 0 {
		dims = d.Dimensions
	}

	baseURL := s.configStore.GetString(keyEmbedBaseURL)
	if baseURL == "" && provider == d.Provider {
		baseURL = d.BaseURL
	}

	apiKey := s.configStore.GetString(keyEmbedAPIKey)
	if apiKey == "" && provider == domain.EmbeddingProviderOpenAI {
		apiKey = s.configStore.GetString("openai" + providerKeySuffix)
	}

	return domain.EmbeddingSettings{
		Provider:   provider,
		Model:      model,
		Dimensions: dims,
		BaseURL:    baseURL,
		APIKey:     apiKey,
	}
}

func (s *SettingsService) getLLM(d domain.LLMSettings) domain.LLMSettings {
	provider := domain.LLMProvider(s.getEnum(keyLLMProvider, string(d.Provider)))

	model := s.configStore.GetString(keyLLMModel)
	if model == "" {
		model = domain.DefaultLLMModels()[provider]
	}

	apiKey := s.configStore.GetString(keyLLMAPIKey)
	if apiKey == "" {
		apiKey = s.configStore.GetString(provider.String() + providerKeySuffix)
	}

	temperature := d.Temperature
	if _, ok := s.configStore.Get(keyLLMTemperature); ok {
		if t := s.configStore.GetFloat(keyLLMTemperature); t >= 0 && t <= 2 {
			temperature = t
		}
	}

	return domain.LLMSettings{
		Provider:     provider,
		Model:        model,
		BaseURL:      s.configStore.GetString(keyLLMBaseURL),
		APIKey:       apiKey,
		Temperature:  temperature,
		MaxTokens:    s.getInt(keyLLMMaxTokens, d.MaxTokens),
		SystemPrompt: s.configStore.GetString(keyLLMSystemPrompt),
	}
}

// Set validates value against the key's type and persists it.
func (s *SettingsService) Set(key, value string) error {
	def, ok := settingKeys[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	parsed, err := parseSetting(def, strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
	}

	if err := s.checkCombination(key, parsed); err != nil {
		return err
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func parseSetting(def keyDef, value string) (any, error) {
	switch def.kind {
	case kindInt:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("expected an integer")
		}
		if n < 0 {
			return nil, fmt.Errorf("must not be negative")
		}
		return n, nil
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("expected a number")
		}
		return f, nil
	case kindDuration:
		d, err := time.ParseDuration(value)
		if err != nil {
			return nil, fmt.Errorf("expected a duration such as 500ms or 30s")
		}
		if d < 0 {
			return nil, fmt.Errorf("must not be negative")
		}
		return d.String(), nil
	case kindBBox:
		if _, err := domain.ParseBoundingBox(value); err != nil {
			return nil, err
		}
		return value, nil
	case kindEnum:
		for _, v := range def.enum {
			if value == v {
				return value, nil
			}
		}
		return nil, fmt.Errorf("must be one of %s", strings.Join(def.enum, ", "))
	default:
		return value, nil
	}
}

// checkCombination rejects values that conflict with related settings.
func (s *SettingsService) checkCombination(key string, value any) error {
	current, err := s.Get()
	if err != nil {
		return err
	}

	switch key {
	case keyTopK, keySegmentSize, keyMaxContextChars:
		if value.(int64) == 0 {
			return fmt.Errorf("%w: %s must be positive", domain.ErrInvalidInput, key)
		}
	case keyLLMTemperature:
		if t := value.(float64); t < 0 || t > 2 {
			return fmt.Errorf("%w: %s must be between 0 and 2", domain.ErrInvalidInput, key)
		}
	}

	switch key {
	case keySegmentSize:
		if int(value.(int64)) <= current.Segment.Overlap {
			return fmt.Errorf("%w: segment_size must exceed segment_overlap (%d)",
				domain.ErrInvalidInput, current.Segment.Overlap)
		}
	case keySegmentOverlap:
		if int(value.(int64)) >= current.Segment.Size {
			return fmt.Errorf("%w: segment_overlap must be smaller than segment_size (%d)",
				domain.ErrInvalidInput, current.Segment.Size)
		}
	}
	return nil
}

// Keys lists the recognised configuration keys, sorted.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKeys))
	for k := range settingKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsSecret reports whether key holds a credential.
func (s *SettingsService) IsSecret(key string) bool {
	return IsSecretKey(key)
}

// Path returns the config file location.
func (s *SettingsService) Path() string {
	return s.configStore.Path()
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (s *SettingsService) getString(key, defaultVal string) string {
	if val := s.configStore.GetString(key); val != "" {
		return val
	}
	return defaultVal
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if val := s.configStore.GetInt(key); val > 0 {
		return val
	}
	return defaultVal
}

// getNonNegative is getInt for settings where zero is meaningful.
func (s *SettingsService) getNonNegative(key string, defaultVal int) int {
	if _, ok := s.configStore.Get(key); !ok {
		return defaultVal
	}
	if val := s.configStore.GetInt(key); val >= 0 {
		return val
	}
	return defaultVal
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	if val := s.configStore.GetDuration(key); val > 0 {
		return val
	}
	return defaultVal
}

func (s *SettingsService) getEnum(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	for _, v := range settingKeys[key].enum {
		if v == val {
			return val
		}
	}
	return defaultVal
}

func (s *SettingsService) getBBox(defaultVal domain.BoundingBox) domain.BoundingBox {
	raw := s.configStore.GetString(keyBBox)
	if raw == "" {
		return defaultVal
	}
	box, err := domain.ParseBoundingBox(raw)
	if err != nil {
		return defaultVal
	}
	return box
}
