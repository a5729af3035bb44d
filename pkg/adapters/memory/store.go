// Package memory provides in-process implementations of the engine ports:
// a session store, a scenario catalog, and a deterministic scripted
// evaluator. They back tests, the interactive play mode, and single-node
// deployments that do not need durability.
package memory

import (
	"context"
	"sync"

	"github.com/aretw0/moot/pkg/domain"
	"github.com/aretw0/moot/pkg/ports"
)

// Store implements ports.SessionStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Session
	mu   sync.RWMutex
}

// NewStore creates a new in-memory session store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Session),
	}
}

// Create persists a new session.
func (s *Store) Create(ctx context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[session.ID]; ok {
		return domain.ErrSessionExists
	}
	s.data[session.ID] = session.Clone()
	return nil
}

// Load retrieves a session. The caller receives a copy so persisted state
// cannot be mutated through a shared pointer.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session.Clone(), nil
}

// Update replaces the stored record if the guard still matches.
func (s *Store) Update(ctx context.Context, session *domain.Session, guard ports.Guard) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.data[session.ID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	if stored.CurrentStep != guard.CurrentStep || stored.Status != guard.Status {
		return domain.ErrSessionConflict
	}
	s.data[session.ID] = session.Clone()
	return nil
}

// Delete removes a session. Operator tooling only; the engine never deletes.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

// List returns the IDs of stored sessions.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}
