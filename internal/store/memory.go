// internal/store/memory.go
//
// In-memory registry of live game sessions.
//
// Characteristics:
//   - Stores *game.Session objects keyed by ID in a map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Removing a session (Delete, Reap) also closes it, which stops its
//     countdown and cancels any in-flight lookup or prefetch.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robalobadob/pokeguess/internal/game"
)

var ErrNotFound = errors.New("session not found")

// Store defines the registry interface for game sessions.
type Store interface {
	// Save adds or replaces a session.
	Save(ctx context.Context, s *game.Session) error

	// Get retrieves a session by ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*game.Session, error)

	// Delete closes and removes a session. Missing IDs return ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Reap closes and removes every session idle since before cutoff.
	// It returns how many were removed.
	Reap(ctx context.Context, cutoff time.Time) int

	// Len reports the number of live sessions.
	Len() int
}

type memory struct {
	mu       sync.RWMutex
	sessions map[string]*game.Session
}

// NewMemoryStore constructs an empty in-memory Store.
func NewMemoryStore() Store {
	return &memory{sessions: make(map[string]*game.Session)}
}

func (m *memory) Save(_ context.Context, s *game.Session) error {
	m.mu.Lock()
	old := m.sessions[s.ID]
	m.sessions[s.ID] = s
	m.mu.Unlock()
	if old != nil && old != s {
		old.Close()
	}
	return nil
}

func (m *memory) Get(_ context.Context, id string) (*game.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, ErrNotFound
}

func (m *memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	s.Close()
	return nil
}

func (m *memory) Reap(_ context.Context, cutoff time.Time) int {
	var stale []*game.Session
	m.mu.Lock()
	for id, s := range m.sessions {
		if s.Closed() || s.LastActive().Before(cutoff) {
			stale = append(stale, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	// close outside the lock
	for _, s := range stale {
		s.Close()
	}
	return len(stale)
}

func (m *memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
