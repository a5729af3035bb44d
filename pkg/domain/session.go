package domain

import "time"

// Status is the lifecycle state of a session.
type Status string

const (
	// StatusInitialized means the session exists but no decision was made yet.
	StatusInitialized Status = "initialized"
	// StatusInProgress means at least one decision was recorded and more are expected.
	StatusInProgress Status = "in_progress"
	// StatusCompleted is the terminal success state. FinalScore and Feedback are set.
	StatusCompleted Status = "completed"
	// StatusFailed is the terminal failure state (evaluator exhausted on the
	// first decision, or the scenario became invalid).
	StatusFailed Status = "failed"
)

// Terminal reports whether no further mutation is accepted.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Decision is the record of one answered step: the user's input plus the
// evaluator's scored verdict. Append-only once recorded.
type Decision struct {
	Step         int      `json:"step"`
	Input        string   `json:"input"`
	Response     string   `json:"response"`
	Consequences string   `json:"consequences"`
	NextOptions  []string `json:"nextOptions,omitempty"`
	Score        int      `json:"score"`
}

// Session is one principal's attempt at one scenario.
//
// Invariants (enforced by the controller, relied upon by readers):
//   - Decisions[i].Step == i+1 for all i.
//   - len(Decisions) == CurrentStep-1 while in progress.
//   - CurrentStep never exceeds TotalSteps+1; the value TotalSteps+1 means
//     "ready to complete".
//   - FinalScore and Feedback are set iff Status == StatusCompleted.
type Session struct {
	ID         string `json:"id"`
	ScenarioID string `json:"scenarioId"`
	OwnerID    string `json:"ownerId"`
	Status     Status `json:"status"`

	TotalSteps  int `json:"totalSteps"`
	CurrentStep int `json:"currentStep"`

	Decisions    []Decision `json:"decisions"`
	RunningScore float64    `json:"runningScore"`
	FinalScore   int        `json:"finalScore"`
	Feedback     string     `json:"feedback,omitempty"`

	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// NewSession creates a fresh session at step 1 with no decisions.
func NewSession(id, scenarioID, ownerID string, totalSteps int, now time.Time) *Session {
	return &Session{
		ID:          id,
		ScenarioID:  scenarioID,
		OwnerID:     ownerID,
		Status:      StatusInitialized,
		TotalSteps:  totalSteps,
		CurrentStep: 1,
		Decisions:   []Decision{},
		StartedAt:   now,
	}
}

// Scores returns the ordered per-decision scores.
func (s *Session) Scores() []int {
	scores := make([]int, len(s.Decisions))
	for i, d := range s.Decisions {
		scores[i] = d.Score
	}
	return scores
}

// StepsExhausted reports whether every declared step has been answered,
// i.e. the session is ready for completion.
func (s *Session) StepsExhausted() bool {
	return s.CurrentStep > s.TotalSteps
}

// LastDecision returns the most recent decision, or nil if none exists.
func (s *Session) LastDecision() *Decision {
	if len(s.Decisions) == 0 {
		return nil
	}
	return &s.Decisions[len(s.Decisions)-1]
}

// Clone returns a deep copy. Stores hand out clones so callers cannot
// mutate persisted state through a shared pointer.
func (s *Session) Clone() *Session {
	clone := *s
	clone.Decisions = make([]Decision, len(s.Decisions))
	for i, d := range s.Decisions {
		clone.Decisions[i] = d
		if d.NextOptions != nil {
			clone.Decisions[i].NextOptions = append([]string(nil), d.NextOptions...)
		}
	}
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		clone.CompletedAt = &t
	}
	return &clone
}
