package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/travelrag/internal/core/domain"
	"github.com/custodia-labs/travelrag/internal/core/ports/driven"
)

// Ensure ConversationStore implements the interface.
var _ driven.ConversationStore = (*ConversationStore)(nil)

// ConversationStore persists session history in SQLite.
type ConversationStore struct {
	store  *Store
	policy domain.RetentionPolicy
	now    func() time.Time
}

func newConversationStore(s *Store, policy domain.RetentionPolicy) *ConversationStore {
	return &ConversationStore{store: s, policy: policy, now: time.Now}
}

// Append adds a turn and trims the session to the retention bound.
func (c *ConversationStore) Append(ctx context.Context, sessionID string, turn domain.Turn) error {
	return c.AppendTurns(ctx, sessionID, turn)
}

// AppendTurns adds turns in one transaction and trims the session to the
// retention bound.
func (c *ConversationStore) AppendTurns(ctx context.Context, sessionID string, turns ...domain.Turn) error {
	if sessionID == "" {
		return fmt.Errorf("%w: session id is empty", domain.ErrInvalidInput)
	}
	for _, turn := range turns {
		if !turn.Role.IsValid() {
			return fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, turn.Role)
		}
	}
	now := c.now()

	c.store.writeMu.Lock()
	defer c.store.writeMu.Unlock()

	tx, err := c.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", domain.ClassifyContextError(err))
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := c.expire(ctx, tx, sessionID, now); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sessions (id, updated_at) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at
	`, sessionID, now.UnixNano()); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	for _, turn := range turns {
		if turn.Timestamp.IsZero() {
			turn.Timestamp = now
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO turns (session_id, role, text, created_at) VALUES (?, ?, ?, ?)`,
			sessionID, string(turn.Role), turn.Text, turn.Timestamp.UnixNano(),
		); err != nil {
			return fmt.Errorf("saving turn: %w", err)
		}
	}

	if c.policy.MaxTurns > 0 {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM turns WHERE session_id = ? AND seq NOT IN (
				SELECT seq FROM turns WHERE session_id = ? ORDER BY seq DESC LIMIT ?
			)
		`, sessionID, sessionID, c.policy.MaxTurns); err != nil {
			return fmt.Errorf("trimming turns: %w", err)
		}
	}

	return tx.Commit()
}

// expire drops the session if it has outlived the TTL.
func (c *ConversationStore) expire(ctx context.Context, tx *sql.Tx, sessionID string, now time.Time) error {
	if c.policy.TTL <= 0 {
		return nil
	}
	var updated int64
	err := tx.QueryRowContext(ctx, `SELECT updated_at FROM sessions WHERE id = ?`, sessionID).Scan(&updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading session: %w", err)
	}
	if c.policy.Expired(time.Unix(0, updated), now) {
		if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID); err != nil {
			return fmt.Errorf("expiring session: %w", err)
		}
	}
	return nil
}

// History returns the session's turns in order.
func (c *ConversationStore) History(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	var updated int64
	err := c.store.db.QueryRowContext(ctx, `SELECT updated_at FROM sessions WHERE id = ?`, sessionID).Scan(&updated)
	if errors.Is(err, sql.ErrNoRows) {
		return []domain.Turn{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", domain.ClassifyContextError(err))
	}
	if c.policy.Expired(time.Unix(0, updated), c.now()) {
		return []domain.Turn{}, c.Clear(ctx, sessionID)
	}

	rows, err := c.store.db.QueryContext(ctx,
		`SELECT role, text, created_at FROM turns WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", domain.ClassifyContextError(err))
	}
	defer rows.Close()

	turns := []domain.Turn{}
	for rows.Next() {
		var (
			t       domain.Turn
			role    string
			created int64
		)
		if err := rows.Scan(&role, &t.Text, &created); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		t.Role = domain.Role(role)
		t.Timestamp = time.Unix(0, created)
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// Clear removes a session and its turns.
func (c *ConversationStore) Clear(ctx context.Context, sessionID string) error {
	c.store.writeMu.Lock()
	defer c.store.writeMu.Unlock()

	if _, err := c.store.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

// Sessions lists live sessions, most recently updated first. Expired
// sessions are deleted as a side effect.
func (c *ConversationStore) Sessions(ctx context.Context) ([]domain.SessionInfo, error) {
	if c.policy.TTL > 0 {
		cutoff := c.now().Add(-c.policy.TTL).UnixNano()
		c.store.writeMu.Lock()
		_, err := c.store.db.ExecContext(ctx, `DELETE FROM sessions WHERE updated_at < ?`, cutoff)
		c.store.writeMu.Unlock()
		if err != nil {
			return nil, fmt.Errorf("expiring sessions: %w", err)
		}
	}

	rows, err := c.store.db.QueryContext(ctx, `
		SELECT s.id, s.updated_at, COUNT(t.seq)
		FROM sessions s LEFT JOIN turns t ON t.session_id = s.id
		GROUP BY s.id, s.updated_at
		ORDER BY s.updated_at DESC, s.id
	`)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", domain.ClassifyContextError(err))
	}
	defer rows.Close()

	infos := []domain.SessionInfo{}
	for rows.Next() {
		var (
			info    domain.SessionInfo
			updated int64
		)
		if err := rows.Scan(&info.ID, &updated, &info.Turns); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		info.UpdatedAt = time.Unix(0, updated)
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// Close is a no-op; the store owns the connection.
func (c *ConversationStore) Close() error {
	return nil
}
