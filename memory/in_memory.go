package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/scttfrdmn/econflux/econflux-go/econflux"
)

// InMemoryMemory keeps session history in process memory. Each session holds
// at most maxSize messages; the oldest are dropped first.
//
// History is lost on restart, which matches a single runtime instance.
type InMemoryMemory struct {
	maxSize int
	mu      sync.RWMutex
	storage map[string][]*econflux.Message
}

var _ Memory = (*InMemoryMemory)(nil)

// NewInMemoryMemory creates a new in-memory store. maxSize <= 0 means 100.
func NewInMemoryMemory(maxSize int) *InMemoryMemory {
	if maxSize <= 0 {
		maxSize = 100
	}
	return &InMemoryMemory{
		maxSize: maxSize,
		storage: make(map[string][]*econflux.Message),
	}
}

// Store appends a copy of message to the session.
func (m *InMemoryMemory) Store(ctx context.Context, sessionID string, message *econflux.Message) error {
	if message == nil {
		return econflux.NewValidationError("message", "must not be nil")
	}
	stored := *message
	if stored.Timestamp.IsZero() {
		stored.Timestamp = time.Now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	history := append(m.storage[sessionID], &stored)
	if len(history) > m.maxSize {
		history = history[len(history)-m.maxSize:]
	}
	m.storage[sessionID] = history
	return nil
}

// Retrieve returns messages, most recent first.
func (m *InMemoryMemory) Retrieve(ctx context.Context, sessionID string, opts RetrieveOptions) ([]*econflux.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	history := m.storage[sessionID]
	limit := opts.limit()

	out := make([]*econflux.Message, 0, min(limit, len(history)))
	for i := len(history) - 1; i >= 0 && len(out) < limit; i-- {
		msg := history[i]
		if !opts.matches(msg, msg.Timestamp.Unix()) {
			continue
		}
		copied := *msg
		out = append(out, &copied)
	}
	return out, nil
}

// Clear removes all memory for a session.
func (m *InMemoryMemory) Clear(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.storage, sessionID)
	return nil
}

// Capabilities returns the memory capabilities.
func (m *InMemoryMemory) Capabilities() []string {
	return []string{"basic_retrieval", "time_filtering", "role_filtering"}
}

// GetSessionCount returns the number of messages stored for a session.
func (m *InMemoryMemory) GetSessionCount(sessionID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.storage[sessionID])
}

// GetAllSessions returns all session IDs, sorted.
func (m *InMemoryMemory) GetAllSessions() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sessions := make([]string, 0, len(m.storage))
	for sessionID := range m.storage {
		sessions = append(sessions, sessionID)
	}
	sort.Strings(sessions)
	return sessions
}
