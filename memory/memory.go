// Package memory stores conversation history per runtime session.
//
// The runtime keeps one agent per process but serves many sessions, so the
// history that the agent replays to the model is keyed by session id.
//
// Implementations:
//   - InMemoryMemory: process-local, bounded per session
//   - RedisMemory: sorted set per session with TTL, shared across replicas
package memory

import (
	"context"

	"github.com/scttfrdmn/econflux/econflux-go/econflux"
)

// Memory is the minimal interface for conversation history.
//
// Example:
//
//	mem := NewInMemoryMemory(100)
//	err := mem.Store(ctx, "session-123", econflux.NewMessage("user", "Hello"))
//	recent, err := mem.Retrieve(ctx, "session-123", RetrieveOptions{Limit: 10})
type Memory interface {
	// Store appends a message to the session history.
	Store(ctx context.Context, sessionID string, message *econflux.Message) error

	// Retrieve returns messages, most recent first.
	Retrieve(ctx context.Context, sessionID string, opts RetrieveOptions) ([]*econflux.Message, error)

	// Clear removes all history for a session.
	Clear(ctx context.Context, sessionID string) error

	// Capabilities lists features such as "persistence" or "ttl".
	Capabilities() []string
}

// RetrieveOptions specifies options for retrieving messages.
type RetrieveOptions struct {
	// Limit is the maximum number of messages to return (default: 10)
	Limit int

	// TimeRange filters messages by time (optional)
	TimeRange *TimeRange

	// Roles keeps only messages with one of these roles (optional)
	Roles []string
}

// TimeRange represents a time range filter.
type TimeRange struct {
	Start int64 // Unix timestamp in seconds
	End   int64 // Unix timestamp in seconds
}

const defaultLimit = 10

func (o RetrieveOptions) limit() int {
	if o.Limit <= 0 {
		return defaultLimit
	}
	return o.Limit
}

// matches applies the time and role filters.
func (o RetrieveOptions) matches(msg *econflux.Message, unixSeconds int64) bool {
	if o.TimeRange != nil && (unixSeconds < o.TimeRange.Start || unixSeconds > o.TimeRange.End) {
		return false
	}
	if len(o.Roles) == 0 {
		return true
	}
	for _, role := range o.Roles {
		if msg.Role == role {
			return true
		}
	}
	return false
}
