package mcp

import (
	"context"

	"github.com/custodia-labs/travelrag/internal/core/domain"
	"github.com/custodia-labs/travelrag/internal/core/ports/driving"
)

// mockAskService is a mock implementation of driving.AskService.
type mockAskService struct {
	answer  *domain.Answer
	result  domain.RetrievalResult
	err     error
	lastReq driving.AskRequest
	lastK   int
	filter  domain.Filter
}

func (m *mockAskService) Ask(_ context.Context, req driving.AskRequest) (*domain.Answer, error) {
	m.lastReq = req
	return m.answer, m.err
}

func (m *mockAskService) Retrieve(_ context.Context, _ string, k int, filter domain.Filter) (domain.RetrievalResult, error) {
	m.lastK = k
	m.filter = filter
	return m.result, m.err
}

// mockSessionService is a mock implementation of driving.SessionService.
type mockSessionService struct {
	turns    map[string][]domain.Turn
	sessions []domain.SessionInfo
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
	delete(m.turns, id)
	return m.err
}

func (m *mockSessionService) List(_ context.Context) ([]domain.SessionInfo, error) {
	return m.sessions, m.err
}

func spaceNeedle() domain.ScoredDocument {
	return domain.ScoredDocument{
		Document: domain.Document{
			ID:      "p1",
			Content: "Name: Space Needle",
			Metadata: map[string]any{
				domain.MetaName:    "Space Needle",
				domain.MetaCity:    "Seattle",
				domain.MetaCountry: "United States",
			},
		},
		Score: 0.92,
	}
}
