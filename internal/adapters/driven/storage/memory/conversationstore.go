package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/travelrag/internal/core/domain"
	"github.com/custodia-labs/travelrag/internal/core/ports/driven"
)

// Ensure ConversationStore implements the interface.
var _ driven.ConversationStore = (*ConversationStore)(nil)

type session struct {
	mu      sync.Mutex
	turns   []domain.Turn
	updated time.Time
}

// ConversationStore keeps session history in memory.
type ConversationStore struct {
	mu       sync.Mutex
	sessions map[string]*session
	policy   domain.RetentionPolicy
	now      func() time.Time
}

// NewConversationStore creates an in-memory conversation store.
func NewConversationStore(policy domain.RetentionPolicy) *ConversationStore {
	return &ConversationStore{
		sessions: make(map[string]*session),
		policy:   policy,
		now:      time.Now,
	}
}

// session returns the live session for id, dropping it first if expired.
func (s *ConversationStore) session(id string, create bool) *session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if ok && s.policy.Expired(sess.lastUpdate(), s.now()) {
		delete(s.sessions, id)
		ok = false
	}
	if !ok && create {
		sess = &session{}
		s.sessions[id] = sess
		ok = true
	}
	if !ok {
		return nil
	}
	return sess
}

func (sess *session) lastUpdate() time.Time {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.updated
}

// Append adds a turn to the session.
func (s *ConversationStore) Append(ctx context.Context, sessionID string, turn domain.Turn) error {
	return s.AppendTurns(ctx, sessionID, turn)
}

// AppendTurns adds turns to the session under one lock.
func (s *ConversationStore) AppendTurns(_ context.Context, sessionID string, turns ...domain.Turn) error {
	if sessionID == "" {
		return fmt.Errorf("%w: session id is empty", domain.ErrInvalidInput)
	}
	now := s.now()
	added := make([]domain.Turn, len(turns))
	for i, turn := range turns {
		if !turn.Role.IsValid() {
			return fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, turn.Role)
		}
		if turn.Timestamp.IsZero() {
			turn.Timestamp = now
		}
		added[i] = turn
	}

	sess := s.session(sessionID, true)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.turns = s.policy.Trim(append(sess.turns, added...))
	sess.updated = s.now()
	return nil
}

// History returns a copy of the session's turns.
func (s *ConversationStore) History(_ context.Context, sessionID string) ([]domain.Turn, error) {
	sess := s.session(sessionID, false)
	if sess == nil {
		return []domain.Turn{}, nil
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return append([]domain.Turn{}, sess.turns...), nil
}

// Clear removes the session.
func (s *ConversationStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// Sessions lists live sessions, most recently updated first.
func (s *ConversationStore) Sessions(_ context.Context) ([]domain.SessionInfo, error) {
	s.mu.Lock()
	now := s.now()
	infos := make([]domain.SessionInfo, 0, len(s.sessions))
	for id, sess := range s.sessions {
		sess.mu.Lock()
		info := domain.SessionInfo{ID: id, Turns: len(sess.turns), UpdatedAt: sess.updated}
		sess.mu.Unlock()

		if s.policy.Expired(info.UpdatedAt, now) {
			delete(s.sessions, id)
			continue
		}
		infos = append(infos, info)
	}
	s.mu.Unlock()

	sort.Slice(infos, func(i, j int) bool {
		if !infos[i].UpdatedAt.Equal(infos[j].UpdatedAt) {
			return infos[i].UpdatedAt.After(infos[j].UpdatedAt)
		}
		return infos[i].ID < infos[j].ID
	})
	return infos, nil
}

// Close releases resources.
func (s *ConversationStore) Close() error {
	return nil
}
