package driven

import (
	"context"

	"github.com/custodia-labs/travelrag/internal/core/domain"
)

// ConversationStore keeps per-session turn history.
// Operations on one session are linearizable; sessions never see each other's turns.
type ConversationStore interface {
	// Append adds a turn to the end of the session, creating it if needed.
	Append(ctx context.Context, sessionID string, turn domain.Turn) error

	// AppendTurns adds turns as one unit: concurrent writers to the same
	// session never interleave between them.
	AppendTurns(ctx context.Context, sessionID string, turns ...domain.Turn) error

	// History returns the session's turns in order. An unknown or expired
	// session returns an empty slice.
	History(ctx context.Context, sessionID string) ([]domain.Turn, error)

	// Clear removes a session's history.
	Clear(ctx context.Context, sessionID string) error

	// Sessions lists live sessions, most recently updated first.
	Sessions(ctx context.Context) ([]domain.SessionInfo, error)

	// Close releases resources.
	Close() error
}
