package ports

import (
	"context"

	"github.com/aretw0/moot/pkg/domain"
)

// EvaluationRequest carries everything the evaluator needs to judge one decision.
type EvaluationRequest struct {
	// ScenarioText is the scenario narrative excerpt framing the decision.
	ScenarioText string
	// History is the full ordered decision history before this submission.
	History []domain.Decision
	// Input is the newest decision: free text or a selected option string.
	Input string
	// Step and TotalSteps let the evaluator shape pacing (e.g. no next
	// options on the last step).
	Step       int
	TotalSteps int
}

// Verdict is the evaluator's structured judgment of one decision.
type Verdict struct {
	Response     string
	Consequences string
	// NextOptions are the branching choices for the following step. Empty
	// means the next step requires free text.
	NextOptions []string
	// Score is in [0, 100].
	Score int
}

// SummaryRequest asks for a holistic feedback narrative over a finished session.
type SummaryRequest struct {
	ScenarioTitle string
	ScenarioText  string
	History       []domain.Decision
	FinalScore    int
}

// Evaluator is the external AI/service boundary that scores decisions and
// writes feedback. Implementations must apply their own bounded timeout;
// callers treat these as long-latency operations and may cancel via ctx.
type Evaluator interface {
	// Evaluate judges the newest decision against the scenario and history.
	// Transport exhaustion surfaces as domain.ErrEvaluatorUnavailable.
	Evaluate(ctx context.Context, req EvaluationRequest) (*Verdict, error)

	// Summarize produces the completion feedback narrative. Callers fall
	// back to a deterministic summary on error; completion never fails on
	// this path.
	Summarize(ctx context.Context, req SummaryRequest) (string, error)
}
