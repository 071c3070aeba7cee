package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/custodia-labs/travelrag/internal/core/domain"
	"github.com/custodia-labs/travelrag/internal/core/ports/driving"
)

// mockRuntime is a mock implementation of Runtime.
type mockRuntime struct {
	settings *mockSettings
	collect  *mockCollectService
	index    *mockIndexService
	ask      *mockAskService
	sessions *mockSessionService

	openErr   error
	docsPath  string
	lastReset bool
}

func newMockRuntime() *mockRuntime {
	return &mockRuntime{
		settings: &mockSettings{values: map[string]string{}, current: domain.DefaultAppSettings()},
		collect:  &mockCollectService{},
		index:    &mockIndexService{},
		ask:      &mockAskService{},
		sessions: &mockSessionService{turns: map[string][]domain.Turn{}},
	}
}

func (m *mockRuntime) Settings() driving.SettingsService { return m.settings }

func (m *mockRuntime) Collector(_ context.Context) (driving.CollectService, error) {
	if m.openErr != nil {
		return nil, m.openErr
	}
	return m.collect, nil
}

func (m *mockRuntime) Indexer(_ context.Context, reset bool) (driving.IndexService, error) {
	m.lastReset = reset
	if m.openErr != nil {
		return nil, m.openErr
	}
	return m.index, nil
}

func (m *mockRuntime) Asker(_ context.Context) (driving.AskService, driving.SessionService, error) {
	if m.openErr != nil {
		return nil, nil, m.openErr
	}
	return m.ask, m.sessions, nil
}

func (m *mockRuntime) Sessions(_ context.Context) (driving.SessionService, error) {
	if m.openErr != nil {
		return nil, m.openErr
	}
	return m.sessions, nil
}

func (m *mockRuntime) DocumentsPath(_ string) (string, error) { return m.docsPath, nil }

func (m *mockRuntime) Close() error { return nil }

// mockSettings is a mock implementation of driving.SettingsService.
type mockSettings struct {
	values  map[string]string
	current domain.AppSettings
	err     error
}

func (m *mockSettings) Get() (*domain.AppSettings, error) {
	if m.err != nil {
		return nil, m.err
	}
	s := m.current
	return &s, nil
}

func (m *mockSettings) Set(key, value string) error {
	if m.err != nil {
		return m.err
	}
	m.values[key] = value
	return nil
}

func (m *mockSettings) Keys() []string {
	return []string{"city", "llm.api_key", "llm.provider"}
}

func (m *mockSettings) IsSecret(key string) bool { return strings.HasSuffix(key, "api_key") }

func (m *mockSettings) Path() string { return "/home/test/.travelrag/config.toml" }

func (m *mockSettings) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

// mockCollectService is a mock implementation of driving.CollectService.
type mockCollectService struct {
	report  *driving.CollectReport
	err     error
	lastReq driving.CollectRequest
}

func (m *mockCollectService) Collect(_ context.Context, req driving.CollectRequest) (*driving.CollectReport, error) {
	m.lastReq = req
	return m.report, m.err
}

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	report *driving.IndexReport
	err    error
	calls  []driving.IndexRequest
}

func (m *mockIndexService) Index(_ context.Context, req driving.IndexRequest) (*driving.IndexReport, error) {
	m.calls = append(m.calls, req)
	return m.report, m.err
}

func (m *mockIndexService) IndexDocuments(_ context.Context, docs []domain.Document) (domain.IngestSummary, error) {
	return domain.IngestSummary{Succeeded: len(docs)}, m.err
}

// mockAskService is a mock implementation of driving.AskService.
type mockAskService struct {
	answer *domain.Answer
	err    error
	reqs   []driving.AskRequest
}

func (m *mockAskService) Ask(_ context.Context, req driving.AskRequest) (*domain.Answer, error) {
	m.reqs = append(m.reqs, req)
	if m.err != nil {
		return nil, m.err
	}
	a := *m.answer
	if req.SessionID != "" {
		a.SessionID = req.SessionID
	}
	return &a, nil
}

func (m *mockAskService) Retrieve(_ context.Context, _ string, _ int, _ domain.Filter) (domain.RetrievalResult, error) {
	return m.answer.Sources, m.err
}

// mockSessionService is a mock implementation of driving.SessionService.
type mockSessionService struct {
	turns    map[string][]domain.Turn
	sessions []domain.SessionInfo
	cleared  []string
	err      error
}

func (m *mockSessionService) NewSessionID() string { return "new-session" }

func (m *mockSessionService) History(_ context.Context, id string) ([]domain.Turn, error) {
	if m.err != nil {
		return nil, m.err
	}
	turns, ok := m.turns[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return turns, nil
}

func (m *mockSessionService) Clear(_ context.Context, id string) error {
	m.cleared = append(m.cleared, id)
	delete(m.turns, id)
	return m.err
}

func (m *mockSessionService) List(_ context.Context) ([]domain.SessionInfo, error) {
	return m.sessions, m.err
}

func spaceNeedleAnswer() *domain.Answer {
	return &domain.Answer{
		Text:      "The Space Needle is an observation tower [1].",
		SessionID: "s-1",
		Sources: domain.RetrievalResult{Hits: []domain.ScoredDocument{
			{
				Document: domain.Document{
					ID: "p1",
					Metadata: map[string]any{
						domain.MetaName:    "Space Needle",
						domain.MetaCity:    "Seattle",
						domain.MetaState:   "Washington",
						domain.MetaCountry: "United States",
					},
				},
				Score: 0.912,
			},
			{
				Document: domain.Document{ID: "p2", Metadata: map[string]any{domain.MetaName: "Pike Place Market"}},
				Score:    0.5,
			},
		}},
	}
}

// runCLI executes the root command with a mock runtime and returns stdout.
// Flag variables are reset first since cobra keeps them between runs.
func runCLI(t *testing.T, r Runtime, stdin string, args ...string) (string, error) {
	t.Helper()

	askSession, askK, askCity, askFormat = "", 0, "", formatDetailed
	collectCity, collectBBox, collectRefresh = "", "", false
	indexCity, indexReset, indexWatch = "", false, false
	sessionFormat = "text"
	mcpPort = 0

	original := rt
	rt = r
	t.Cleanup(func() { rt = original })

	out := new(bytes.Buffer)
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}
