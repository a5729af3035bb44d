package domain

import "errors"

// ErrScenarioNotFound is returned when a scenario ID is absent from the catalog.
var ErrScenarioNotFound = errors.New("scenario not found")

// ErrInvalidScenario is returned when a catalog entry is missing required fields.
var ErrInvalidScenario = errors.New("invalid scenario definition")

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionExists is returned when creating a session with an ID already in use.
var ErrSessionExists = errors.New("session already exists")

// ErrStepMismatch is returned when a submission references a step other than
// the session's current step. Duplicate and out-of-order submissions are
// rejected with this error so the caller can resynchronize from the
// authoritative session state instead of corrupting history.
var ErrStepMismatch = errors.New("step mismatch")

// ErrSessionTerminal is returned by mutating calls on a completed or failed session.
var ErrSessionTerminal = errors.New("session is terminal")

// ErrStepsRemaining is returned by completion attempts while declared steps
// are still unanswered.
var ErrStepsRemaining = errors.New("session has unanswered steps")

// ErrEvaluatorUnavailable is returned when the decision evaluator exhausted
// its retry budget. The submitted step was not recorded and may be retried.
var ErrEvaluatorUnavailable = errors.New("evaluator unavailable")

// ErrInsufficientData is returned when a final score is requested over an
// empty decision list. It indicates a controller invariant violation, not a
// normal user-facing failure.
var ErrInsufficientData = errors.New("insufficient data to score session")

// ErrSessionConflict is returned by a store when a guarded update observes
// that the stored step or status no longer match what the writer read.
var ErrSessionConflict = errors.New("session was modified concurrently")
