package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/travelrag/internal/core/domain"
	"github.com/custodia-labs/travelrag/internal/core/ports/driven"
	"github.com/custodia-labs/travelrag/internal/core/ports/driving"
	"github.com/custodia-labs/travelrag/internal/logger"
)

// Ensure the services implement their interfaces.
var (
	_ driving.AskService     = (*AskService)(nil)
	_ driving.SessionService = (*SessionService)(nil)
)

// AskService answers questions: retrieve, assemble, record.
type AskService struct {
	retriever     *Retriever
	assembler     *Assembler
	conversations driven.ConversationStore
	topK          int
	now           func() time.Time
}

// NewAskService creates an ask service. topK is used when a request does not set K.
func NewAskService(
	retriever *Retriever, assembler *Assembler, conversations driven.ConversationStore, topK int,
) *AskService {
	return &AskService{
		retriever:     retriever,
		assembler:     assembler,
		conversations: conversations,
		topK:          topK,
		now:           time.Now,
	}
}

// Ask answers one question. On generation failure the answer still carries
// its sources and session, and no turns are recorded.
func (s *AskService) Ask(ctx context.Context, req driving.AskRequest) (*domain.Answer, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	result, err := s.Retrieve(ctx, question, req.K, req.Filter)
	if err != nil {
		return nil, err
	}

	history, err := s.conversations.History(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	asked := s.now()
	answer, err := s.assembler.Assemble(ctx, question, result, history)
	answer.SessionID = sessionID
	if err != nil {
		return answer, err
	}

	answered := s.now()
	if err := s.conversations.AppendTurns(ctx, sessionID,
		domain.Turn{Role: domain.RoleUser, Text: question, Timestamp: asked},
		domain.Turn{Role: domain.RoleAssistant, Text: answer.Text, Timestamp: answered},
	); err != nil {
		return answer, fmt.Errorf("record exchange: %w", err)
	}

	logger.Debug("Answered in session %s with %d sources", sessionID, answer.Sources.Len())
	return answer, nil
}

// Retrieve returns the top-k documents without generating. K of zero or
// less uses the configured default.
func (s *AskService) Retrieve(ctx context.Context, query string, k int, filter domain.Filter) (domain.RetrievalResult, error) {
	if k <= 0 {
		k = s.topK
	}
	return s.retriever.Retrieve(ctx, query, k, filter)
}

// SessionService manages conversation sessions.
type SessionService struct {
	conversations driven.ConversationStore
}

// NewSessionService creates a session service.
func NewSessionService(conversations driven.ConversationStore) *SessionService {
	return &SessionService{conversations: conversations}
}

// NewSessionID returns a random UUID.
func (s *SessionService) NewSessionID() string {
	return uuid.NewString()
}

// History returns the session's turns, or domain.ErrNotFound when it has none.
func (s *SessionService) History(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is empty", domain.ErrInvalidInput)
	}
	turns, err := s.conversations.History(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(turns) == 0 {
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}
	return turns, nil
}

// Clear removes a session's history.
func (s *SessionService) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("%w: session id is empty", domain.ErrInvalidInput)
	}
	return s.conversations.Clear(ctx, sessionID)
}

// List returns live sessions, most recent first.
func (s *SessionService) List(ctx context.Context) ([]domain.SessionInfo, error) {
	return s.conversations.Sessions(ctx)
}

// isKind reports whether err matches any of kinds.
func isKind(err error, kinds ...error) bool {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return true
		}
	}
	return false
}
