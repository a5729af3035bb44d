package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/moot/pkg/ports"
)

// ScriptedResponse configures a single response from the scripted evaluator.
type ScriptedResponse struct {
	Verdict ports.Verdict
	Err     error
}

// Evaluator is a deterministic offline ports.Evaluator. With a script it
// replays configured responses in order (the last one repeats once
// exhausted); without one it grades every decision with a fixed-rule verdict.
// It backs tests and the interactive play mode.
type Evaluator struct {
	mu         sync.Mutex
	script     []ScriptedResponse
	callIndex  int
	calls      []ports.EvaluationRequest
	summary    string
	summaryErr error
}

// NewEvaluator creates a scripted evaluator. With no responses it falls back
// to fixed-rule grading.
func NewEvaluator(script ...ScriptedResponse) *Evaluator {
	return &Evaluator{script: script}
}

// SetSummary configures the Summarize result.
func (e *Evaluator) SetSummary(summary string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.summary = summary
	e.summaryErr = err
}

// Calls returns the evaluation requests received so far.
func (e *Evaluator) Calls() []ports.EvaluationRequest {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]ports.EvaluationRequest(nil), e.calls...)
}

// Evaluate returns the next scripted response, or a fixed-rule verdict.
func (e *Evaluator) Evaluate(ctx context.Context, req ports.EvaluationRequest) (*ports.Verdict, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.calls = append(e.calls, req)

	if len(e.script) == 0 {
		v := ruleVerdict(req)
		return &v, nil
	}

	idx := e.callIndex
	if idx >= len(e.script) {
		idx = len(e.script) - 1
	} else {
		e.callIndex++
	}

	resp := e.script[idx]
	if resp.Err != nil {
		return nil, resp.Err
	}
	v := resp.Verdict
	return &v, nil
}

// Summarize returns the configured summary, or a neutral one.
func (e *Evaluator) Summarize(ctx context.Context, req ports.SummaryRequest) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.summaryErr != nil {
		return "", e.summaryErr
	}
	if e.summary != "" {
		return e.summary, nil
	}
	return fmt.Sprintf("Offline review: %d decisions recorded for %q, final score %d%%.",
		len(req.History), req.ScenarioTitle, req.FinalScore), nil
}

// ruleVerdict grades without any external service: engaged answers (longer
// input) score higher, capped to the valid range. Deterministic given the
// same request.
func ruleVerdict(req ports.EvaluationRequest) ports.Verdict {
	score := 50 + len(req.Input)
	if score > 95 {
		score = 95
	}

	v := ports.Verdict{
		Response:     fmt.Sprintf("Your choice at step %d has been noted.", req.Step),
		Consequences: "The other party studies your move and adjusts their position.",
		Score:        score,
	}
	if req.Step < req.TotalSteps {
		v.NextOptions = []string{
			"Press the advantage",
			"Seek a negotiated settlement",
			"Request more time to review the facts",
		}
	}
	return v
}

var _ ports.Evaluator = (*Evaluator)(nil)
