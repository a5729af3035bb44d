package ports

import (
	"context"

	"github.com/aretw0/moot/pkg/domain"
)

// Guard captures the step and status a writer observed when it loaded a
// session. A conditional update must fail with domain.ErrSessionConflict if
// the stored record no longer matches, so a concurrent writer cannot cause a
// lost update or a double-recorded step.
type Guard struct {
	CurrentStep int
	Status      domain.Status
}

// GuardOf returns the guard matching a session as currently loaded.
func GuardOf(s *domain.Session) Guard {
	return Guard{CurrentStep: s.CurrentStep, Status: s.Status}
}

// SessionStore is durable keyed storage for session records. It holds no
// business logic; ordering and transition rules live in the controller.
type SessionStore interface {
	// Create persists a new session. Returns domain.ErrSessionExists if the
	// ID is already in use.
	Create(ctx context.Context, session *domain.Session) error

	// Load retrieves a session by ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Session, error)

	// Update replaces the stored record if and only if the stored
	// CurrentStep and Status match the guard. The decision append, step
	// increment, and score update arrive as one write: a reader never
	// observes a decision without the corresponding step bump.
	Update(ctx context.Context, session *domain.Session, guard Guard) error

	// Delete removes a session. The engine never calls this; it exists for
	// operator retention tooling.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of all stored sessions.
	List(ctx context.Context) ([]string, error)
}
