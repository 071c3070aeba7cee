package domain

import "time"

// Role identifies the speaker of a conversation turn.
type Role string

// Conversation roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsValid returns true if the role is recognised.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Turn is one message in a session.
type Turn struct {
	Role      Role      `json:"role" yaml:"role"`
	Text      string    `json:"text" yaml:"text"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// SessionInfo summarises a stored session.
type SessionInfo struct {
	ID        string
	Turns     int
	UpdatedAt time.Time
}

// RetentionPolicy bounds the growth of session history.
type RetentionPolicy struct {
	// MaxTurns caps the turns kept per session; oldest are dropped first.
	// Zero means unbounded.
	MaxTurns int

	// TTL expires sessions idle for longer than this. Zero disables expiry.
	TTL time.Duration
}

// DefaultRetentionPolicy keeps 50 turns per session for 24 hours of idleness.
func DefaultRetentionPolicy() RetentionPolicy {
	return RetentionPolicy{
		MaxTurns: 50,
		TTL:      24 * time.Hour,
	}
}

// Trim drops the oldest turns beyond MaxTurns.
func (p RetentionPolicy) Trim(turns []Turn) []Turn {
	if p.MaxTurns <= 0 || len(turns) <= p.MaxTurns {
		return turns
	}
	return turns[len(turns)-p.MaxTurns:]
}

// Expired reports whether a session last updated at updated has outlived the TTL.
func (p RetentionPolicy) Expired(updated, now time.Time) bool {
	return p.TTL > 0 && !updated.IsZero() && now.Sub(updated) > p.TTL
}
