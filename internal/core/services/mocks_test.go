package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/travelrag/internal/core/domain"
	"github.com/custodia-labs/travelrag/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbedder returns a vector derived from text length and position of
// the first letter. Texts listed in fail return the mapped error.
type mockEmbedder struct {
	mu         sync.Mutex
	dims       int
	calls      int
	batchSizes []int
	fail       map[string]error
	batchErr   error
}

func newMockEmbedder(dims int) *mockEmbedder {
	return &mockEmbedder{dims: dims, fail: make(map[string]error)}
}

func (m *mockEmbedder) vector(text string) []float32 {
	v := make([]float32, m.dims)
	v[0] = float32(len(text))
	if text != "" {
		v[int(text[0])%m.dims] += 1
	}
	return v
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vs, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vs[0], nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.calls++
	m.batchSizes = append(m.batchSizes, len(texts))
	batchErr := m.batchErr
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if batchErr != nil {
		return nil, batchErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if err, ok := m.fail[t]; ok {
			return nil, err
		}
		out[i] = m.vector(t)
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int            { return m.dims }
func (m *mockEmbedder) ModelName() string          { return "mock-embed" }
func (m *mockEmbedder) Ping(context.Context) error { return nil }
func (m *mockEmbedder) Close() error               { return nil }

func (m *mockEmbedder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// blockingEmbedder never answers; calls end when their context does.
type blockingEmbedder struct {
	*mockEmbedder
}

func (b blockingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vs, err := b.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vs[0], nil
}

func (b blockingEmbedder) EmbedBatch(ctx context.Context, _ []string) ([][]float32, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// mockGenerator records the last request and returns reply or err.
type mockGenerator struct {
	reply    string
	err      error
	messages []driven.ChatMessage
	opts     driven.ChatOptions
	calls    int
}

func (m *mockGenerator) Chat(_ context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	m.calls++
	m.messages = messages
	m.opts = opts
	return m.reply, m.err
}

func (m *mockGenerator) ModelName() string          { return "mock-llm" }
func (m *mockGenerator) Ping(context.Context) error { return nil }
func (m *mockGenerator) Close() error               { return nil }

// lastUser returns the final user message content.
func (m *mockGenerator) lastUser() string {
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].Role == driven.RoleUser {
			return m.messages[i].Content
		}
	}
	return ""
}

// mockPrompts serves fixed templates.
type mockPrompts struct{}

func (mockPrompts) Load(name string) (string, error) {
	switch name {
	case driven.PromptAnswerSystem:
		return "Answer only from the context.", nil
	case driven.PromptCustomRole:
		return "You are %s.\n%s\nAnswer only from the context.", nil
	}
	return "", fmt.Errorf("load prompt %q: %w", name, domain.ErrNotFound)
}

// mockCorpus keeps corpora in maps.
type mockCorpus struct {
	mu      sync.Mutex
	docs    map[string][]domain.Document
	raw     map[string][]domain.RawRecord
	saveErr error
}

func newMockCorpus() *mockCorpus {
	return &mockCorpus{docs: make(map[string][]domain.Document), raw: make(map[string][]domain.RawRecord)}
}

func (m *mockCorpus) SaveDocuments(_ context.Context, city string, docs []domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.docs[city] = docs
	return nil
}

func (m *mockCorpus) LoadDocuments(_ context.Context, city string) ([]domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	docs, ok := m.docs[city]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return docs, nil
}

func (m *mockCorpus) SaveRaw(_ context.Context, city string, records []domain.RawRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.raw[city] = records
	return nil
}

func (m *mockCorpus) LoadRaw(_ context.Context, city string) ([]domain.RawRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.raw[city]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return raw, nil
}

func (m *mockCorpus) DocumentsPath(city string) string {
	return "processed/" + strings.ToLower(city) + "_documents.json"
}

// mockPlaceSource returns fixed features, failing the first failures calls.
type mockPlaceSource struct {
	features []domain.RawRecord
	failures int
	calls    int
}

func (m *mockPlaceSource) Name() string { return "geoapify" }

func (m *mockPlaceSource) FetchPlaces(_ context.Context, _ driven.PlaceQuery) ([]domain.RawRecord, error) {
	m.calls++
	if m.calls <= m.failures {
		return nil, fmt.Errorf("geoapify: %w", domain.ErrFetchFailed)
	}
	return m.features, nil
}

// mockDescriptionSource serves Wikipedia-shaped responses keyed by reference.
type mockDescriptionSource struct {
	extracts map[string]string
	errs     map[string]error
	calls    map[string]int
}

func (m *mockDescriptionSource) Name() string { return "wikipedia" }

func (m *mockDescriptionSource) FetchDescription(_ context.Context, ref string) (domain.RawRecord, error) {
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[ref]++
	if err, ok := m.errs[ref]; ok {
		return domain.RawRecord{}, err
	}
	extract, ok := m.extracts[ref]
	body := `{"query":{"pages":{"-1":{"title":"x","missing":""}}}}`
	if ok {
		body = fmt.Sprintf(`{"query":{"pages":{"1":{"title":"x","extract":%q}}}}`, extract)
	}
	return domain.RawRecord{Source: "wikipedia", URI: "wikipedia:" + ref, Content: []byte(body)}, nil
}

// feature builds a Geoapify feature. An empty wiki omits the reference.
func feature(id, name, wiki string) domain.RawRecord {
	wikiField := ""
	if wiki != "" {
		wikiField = fmt.Sprintf(`,"wiki_and_media":{"wikipedia":%q}`, wiki)
	}
	body := fmt.Sprintf(`{"type":"Feature","properties":{"place_id":%q,"name":%q,"city":"Seattle","state":"Washington","country":"United States","formatted":"%s, Seattle, WA, United States","categories":["tourism.sights"]%s},"geometry":{"type":"Point","coordinates":[-122.35,47.62]}}`,
		id, name, name, wikiField)
	return domain.RawRecord{Source: "geoapify", URI: "geoapify:place/" + id, Content: []byte(body), Region: "Seattle"}
}
