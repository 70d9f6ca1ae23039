// internal/store/memory.go
//
// In-memory registry of game sessions.
// Each session owns one *game.Engine. Engines are not safe for concurrent
// use, so every access goes through Session.Do, which holds the session's
// mutex for the duration of the call (observer fan-out included).
//
// Characteristics:
//   - Sessions keyed by a random UUID.
//   - Map access guarded by an RWMutex (concurrent lookups allowed).
//   - State is lost when the process restarts.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/robalobadob/gurdle/internal/game"
)

// ErrNotFound is returned for unknown session IDs.
var ErrNotFound = errors.New("session not found")

// Session pairs an engine with the lock that serialises access to it.
type Session struct {
	ID      string
	Created time.Time

	mu     sync.Mutex
	engine *game.Engine
}

// NewSession wraps e under a fresh ID.
func NewSession(e *game.Engine) *Session {
	return &Session{ID: uuid.NewString(), Created: time.Now().UTC(), engine: e}
}

// Do runs fn with exclusive access to the session's engine.
func (s *Session) Do(fn func(e *game.Engine) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.engine)
}

// Store defines the registry interface for game sessions.
type Store interface {
	// Save adds or replaces a session.
	Save(ctx context.Context, s *Session) error

	// Get retrieves a session by ID; ErrNotFound if missing.
	Get(ctx context.Context, id string) (*Session, error)

	// Delete removes a session. Unknown IDs are ignored.
	Delete(ctx context.Context, id string) error

	// Len reports the number of live sessions.
	Len() int
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu       sync.RWMutex        // guards sessions map
	sessions map[string]*Session // keyed by Session.ID
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{sessions: make(map[string]*Session)}
}

func (m *memory) Save(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *memory) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, ErrNotFound
}

func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
