// Package memory keeps per-session conversation windows in process
// memory. The window is what the agent sees as prior context; durable
// history lives in the chat record store.
//
// Sessions are keyed by UUID so concurrent clients never share context.
// State is process-lifetime only: a restart clears all windows, which is
// accepted because the durable record survives in PostgreSQL.
package memory

import (
	"sync"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"
)

// DefaultMaxMessages bounds each session window. Two messages per
// exchange means the window holds the 50 most recent exchanges.
const DefaultMaxMessages = 100

// Store holds bounded message windows keyed by session ID.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	mu          sync.RWMutex
	sessions    map[uuid.UUID][]*ai.Message
	maxMessages int
}

// New creates a Store. maxMessages <= 0 uses DefaultMaxMessages.
func New(maxMessages int) *Store {
	if maxMessages <= 0 {
		maxMessages = DefaultMaxMessages
	}
	return &Store{
		sessions:    make(map[uuid.UUID][]*ai.Message),
		maxMessages: maxMessages,
	}
}

// AppendExchange records one completed exchange: the user input and the
// model's response. When the window exceeds the bound, the oldest
// messages are dropped first.
func (s *Store) AppendExchange(sessionID uuid.UUID, userInput, modelResponse string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	window := append(s.sessions[sessionID],
		ai.NewUserMessage(ai.NewTextPart(userInput)),
		ai.NewModelMessage(ai.NewTextPart(modelResponse)),
	)

	if overflow := len(window) - s.maxMessages; overflow > 0 {
		window = window[overflow:]
	}
	s.sessions[sessionID] = window
}

// Snapshot returns a copy of the session's window, oldest first. The
// returned slice is independent: callers may pass it to the agent while
// other requests append.
func (s *Store) Snapshot(sessionID uuid.UUID) []*ai.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	window := s.sessions[sessionID]
	if len(window) == 0 {
		return nil
	}

	snapshot := make([]*ai.Message, len(window))
	copy(snapshot, window)
	return snapshot
}

// Len reports the number of messages currently held for a session.
func (s *Store) Len(sessionID uuid.UUID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions[sessionID])
}
