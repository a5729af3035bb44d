package session_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/moot/pkg/adapters/memory"
	"github.com/aretw0/moot/pkg/domain"
	"github.com/aretw0/moot/pkg/evaluator/middleware"
	"github.com/aretw0/moot/pkg/ports"
	"github.com/aretw0/moot/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testScenario() *domain.Scenario {
	return &domain.Scenario{
		ID:            "contract-dispute",
		Title:         "Contract Dispute",
		NarrativeText: "Your client received a breach of contract notice from a former supplier.",
		TotalSteps:    5,
	}
}

func verdict(score int, options ...string) memory.ScriptedResponse {
	return memory.ScriptedResponse{Verdict: ports.Verdict{
		Response:     "The judge acknowledges your motion.",
		Consequences: "Opposing counsel requests a recess.",
		NextOptions:  options,
		Score:        score,
	}}
}

type fixture struct {
	controller *session.Controller
	store      *memory.Store
	catalog    *memory.Catalog
	evaluator  *memory.Evaluator
}

func newFixture(t *testing.T, script ...memory.ScriptedResponse) *fixture {
	t.Helper()
	f := &fixture{
		store:     memory.NewStore(),
		catalog:   memory.NewCatalog(testScenario()),
		evaluator: memory.NewEvaluator(script...),
	}
	seq := 0
	f.controller = session.NewController(f.catalog, f.store, f.evaluator,
		session.WithClock(func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }),
		session.WithIDGenerator(func() string { seq++; return fmt.Sprintf("sess-%d", seq) }),
	)
	return f
}

func TestCreateSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.controller.CreateSession(ctx, "contract-dispute", "owner-1")
	require.NoError(t, err)

	assert.Equal(t, "sess-1", sess.ID)
	assert.Equal(t, domain.StatusInitialized, sess.Status)
	assert.Equal(t, 1, sess.CurrentStep)
	assert.Equal(t, 5, sess.TotalSteps)
	assert.Empty(t, sess.Decisions)

	// The store holds the record.
	stored, err := f.store.Load(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, stored.ID)
}

func TestCreateSession_ScenarioNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.controller.CreateSession(context.Background(), "missing", "owner-1")
	assert.ErrorIs(t, err, domain.ErrScenarioNotFound)
}

func TestSubmitDecision_HappyPath(t *testing.T) {
	f := newFixture(t, verdict(80, "File a motion", "Negotiate"))
	ctx := context.Background()

	sess, err := f.controller.CreateSession(ctx, "contract-dispute", "owner-1")
	require.NoError(t, err)

	updated, err := f.controller.SubmitDecision(ctx, sess.ID, 1, "Request the full contract file")
	require.NoError(t, err)

	assert.Equal(t, domain.StatusInProgress, updated.Status)
	assert.Equal(t, 2, updated.CurrentStep)
	require.Len(t, updated.Decisions, 1)
	d := updated.Decisions[0]
	assert.Equal(t, 1, d.Step)
	assert.Equal(t, "Request the full contract file", d.Input)
	assert.Equal(t, 80, d.Score)
	assert.Equal(t, []string{"File a motion", "Negotiate"}, d.NextOptions)
	assert.InDelta(t, 80.0, updated.RunningScore, 1e-9)

	// The evaluator saw the scenario text and empty history.
	calls := f.evaluator.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].ScenarioText, "breach of contract")
	assert.Empty(t, calls[0].History)
}

func TestSubmitDecision_StepMismatch(t *testing.T) {
	f := newFixture(t, verdict(80))
	ctx := context.Background()

	sess, err := f.controller.CreateSession(ctx, "contract-dispute", "owner-1")
	require.NoError(t, err)
	_, err = f.controller.SubmitDecision(ctx, sess.ID, 1, "first")
	require.NoError(t, err)

	// Session is now at step 2; submitting step 3 (ahead) and step 1
	// (duplicate) are both conflicts, and neither touches history.
	_, err = f.controller.SubmitDecision(ctx, sess.ID, 3, "ahead")
	assert.ErrorIs(t, err, domain.ErrStepMismatch)
	_, err = f.controller.SubmitDecision(ctx, sess.ID, 1, "again")
	assert.ErrorIs(t, err, domain.ErrStepMismatch)

	stored, err := f.store.Load(ctx, sess.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Decisions, 1)
	assert.Equal(t, 2, stored.CurrentStep)
}

func TestSubmitDecision_UnknownSession(t *testing.T) {
	f := newFixture(t)
	_, err := f.controller.SubmitDecision(context.Background(), "ghost", 1, "x")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSubmitDecision_HistoryOrdering(t *testing.T) {
	f := newFixture(t, verdict(80), verdict(60), verdict(100))
	ctx := context.Background()

	sess, err := f.controller.CreateSession(ctx, "contract-dispute", "owner-1")
	require.NoError(t, err)

	for step := 1; step <= 3; step++ {
		updated, err := f.controller.SubmitDecision(ctx, sess.ID, step, fmt.Sprintf("choice %d", step))
		require.NoError(t, err)

		// Core invariants hold after every accepted decision.
		assert.Len(t, updated.Decisions, updated.CurrentStep-1)
		for i, d := range updated.Decisions {
			assert.Equal(t, i+1, d.Step)
		}
	}

	// History travels to the evaluator in order.
	calls := f.evaluator.Calls()
	require.Len(t, calls, 3)
	assert.Len(t, calls[2].History, 2)
	assert.Equal(t, 1, calls[2].History[0].Step)
	assert.Equal(t, 2, calls[2].History[1].Step)
}

func TestSubmitDecision_ConcurrentSameStep(t *testing.T) {
	f := newFixture(t, verdict(80))
	ctx := context.Background()

	sess, err := f.controller.CreateSession(ctx, "contract-dispute", "owner-1")
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.controller.SubmitDecision(ctx, sess.ID, 1, fmt.Sprintf("racer %d", i))
		}(i)
	}
	wg.Wait()

	// Exactly one submission is accepted; the other is a step conflict.
	accepted, rejected := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			accepted++
		case errors.Is(err, domain.ErrStepMismatch):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, accepted)
	assert.Equal(t, 1, rejected)

	stored, err := f.store.Load(ctx, sess.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Decisions, 1)
	assert.Equal(t, 2, stored.CurrentStep)
}

func TestSubmitDecision_TerminalRejected(t *testing.T) {
	f := newFixture(t, verdict(80), verdict(60), verdict(100), verdict(40), verdict(70))
	ctx := context.Background()

	sess := runToCompletion(t, f)

	_, err := f.controller.SubmitDecision(ctx, sess.ID, sess.CurrentStep, "one more")
	assert.ErrorIs(t, err, domain.ErrSessionTerminal)
}

func TestSubmitDecision_NoAutoComplete(t *testing.T) {
	f := newFixture(t, verdict(80), verdict(60), verdict(100), verdict(40), verdict(70))
	ctx := context.Background()

	sess, err := f.controller.CreateSession(ctx, "contract-dispute", "owner-1")
	require.NoError(t, err)

	var updated *domain.Session
	for step := 1; step <= 5; step++ {
		updated, err = f.controller.SubmitDecision(ctx, sess.ID, step, "choice")
		require.NoError(t, err)
	}

	// All steps answered: the session is ready to complete but the final
	// decision's feedback is still renderable before finalizing.
	assert.Equal(t, domain.StatusInProgress, updated.Status)
	assert.Equal(t, 6, updated.CurrentStep)
	assert.True(t, updated.StepsExhausted())
	assert.Zero(t, updated.FinalScore)
}

func TestCompleteSession(t *testing.T) {
	f := newFixture(t, verdict(80), verdict(60), verdict(100), verdict(40), verdict(70))
	f.evaluator.SetSummary("Strong grasp of contract remedies; watch your timing on motions.", nil)

	sess := runToCompletion(t, f)

	assert.Equal(t, domain.StatusCompleted, sess.Status)
	assert.Equal(t, 70, sess.FinalScore) // round((80+60+100+40+70)/5)
	assert.Equal(t, "Strong grasp of contract remedies; watch your timing on motions.", sess.Feedback)
	require.NotNil(t, sess.CompletedAt)
}

func TestCompleteSession_Idempotent(t *testing.T) {
	f := newFixture(t, verdict(80), verdict(60), verdict(100), verdict(40), verdict(70))
	ctx := context.Background()

	first := runToCompletion(t, f)

	// A retry after a lost response returns the stored result; the
	// evaluator is not consulted again.
	summaryCallsBefore := len(f.evaluator.Calls())
	second, err := f.controller.CompleteSession(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.FinalScore, second.FinalScore)
	assert.Equal(t, first.Feedback, second.Feedback)
	assert.Equal(t, summaryCallsBefore, len(f.evaluator.Calls()))
}

func TestCompleteSession_StepsRemaining(t *testing.T) {
	f := newFixture(t, verdict(80), verdict(60), verdict(100))
	ctx := context.Background()

	sess, err := f.controller.CreateSession(ctx, "contract-dispute", "owner-1")
	require.NoError(t, err)
	for step := 1; step <= 3; step++ {
		_, err = f.controller.SubmitDecision(ctx, sess.ID, step, "choice")
		require.NoError(t, err)
	}

	_, err = f.controller.CompleteSession(ctx, sess.ID)
	assert.ErrorIs(t, err, domain.ErrStepsRemaining)

	stored, err := f.store.Load(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, stored.Status)
}

func TestCompleteSession_FeedbackFallback(t *testing.T) {
	f := newFixture(t, verdict(80), verdict(60), verdict(100), verdict(40), verdict(70))
	f.evaluator.SetSummary("", errors.New("overloaded"))

	sess := runToCompletion(t, f)

	// Completion succeeds even when the evaluator cannot summarize; only
	// the richness degrades.
	assert.Equal(t, domain.StatusCompleted, sess.Status)
	assert.Equal(t, "You completed 5 decisions with a final score of 70%.", sess.Feedback)
}

func TestEvaluatorUnavailable_FirstDecisionFailsSession(t *testing.T) {
	f := newFixture(t, memory.ScriptedResponse{Err: middleware.Transient(errors.New("down"))})
	eval := middleware.Chain(f.evaluator, middleware.NewRetryMiddleware(0))
	controller := session.NewController(f.catalog, f.store, eval)
	ctx := context.Background()

	sess, err := controller.CreateSession(ctx, "contract-dispute", "owner-1")
	require.NoError(t, err)

	_, err = controller.SubmitDecision(ctx, sess.ID, 1, "first move")
	assert.ErrorIs(t, err, domain.ErrEvaluatorUnavailable)

	stored, err := f.store.Load(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, stored.Status)
	assert.Empty(t, stored.Decisions)
}

func TestEvaluatorUnavailable_MidSessionLeavesSessionRetryable(t *testing.T) {
	script := []memory.ScriptedResponse{
		verdict(80),
		{Err: middleware.Transient(errors.New("flaky"))},
		{Err: middleware.Transient(errors.New("flaky"))},
		verdict(60),
	}
	f := newFixture(t, script...)
	eval := middleware.Chain(f.evaluator, middleware.NewRetryMiddleware(1))
	controller := session.NewController(f.catalog, f.store, eval)
	ctx := context.Background()

	sess, err := controller.CreateSession(ctx, "contract-dispute", "owner-1")
	require.NoError(t, err)
	_, err = controller.SubmitDecision(ctx, sess.ID, 1, "first")
	require.NoError(t, err)

	// Both attempts for step 2 fail: the session stays in progress with
	// the decision not recorded.
	_, err = controller.SubmitDecision(ctx, sess.ID, 2, "second")
	assert.ErrorIs(t, err, domain.ErrEvaluatorUnavailable)

	stored, err := f.store.Load(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, stored.Status)
	assert.Len(t, stored.Decisions, 1)
	assert.Equal(t, 2, stored.CurrentStep)

	// The same step can be resubmitted and succeeds.
	updated, err := controller.SubmitDecision(ctx, sess.ID, 2, "second")
	require.NoError(t, err)
	assert.Len(t, updated.Decisions, 2)
	assert.Equal(t, 60, updated.Decisions[1].Score)
}

func TestTransientRetry_RecordsDecisionOnce(t *testing.T) {
	script := []memory.ScriptedResponse{
		{Err: middleware.Transient(errors.New("blip"))},
		verdict(90),
	}
	f := newFixture(t, script...)
	eval := middleware.Chain(f.evaluator, middleware.NewRetryMiddleware(1))
	controller := session.NewController(f.catalog, f.store, eval)
	ctx := context.Background()

	sess, err := controller.CreateSession(ctx, "contract-dispute", "owner-1")
	require.NoError(t, err)

	updated, err := controller.SubmitDecision(ctx, sess.ID, 1, "move")
	require.NoError(t, err)
	assert.Len(t, updated.Decisions, 1)
	assert.Equal(t, 90, updated.Decisions[0].Score)
	// The internal retry did not double-record.
	stored, err := f.store.Load(ctx, sess.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Decisions, 1)
}

func TestScenarioRemovedMidSession_FailsSession(t *testing.T) {
	f := newFixture(t, verdict(80))
	ctx := context.Background()

	sess, err := f.controller.CreateSession(ctx, "contract-dispute", "owner-1")
	require.NoError(t, err)
	_, err = f.controller.SubmitDecision(ctx, sess.ID, 1, "first")
	require.NoError(t, err)

	f.catalog.Remove("contract-dispute")

	_, err = f.controller.SubmitDecision(ctx, sess.ID, 2, "second")
	assert.ErrorIs(t, err, domain.ErrScenarioNotFound)

	stored, err := f.store.Load(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, stored.Status)
}

func TestLifecycleHooks(t *testing.T) {
	f := newFixture(t, verdict(80), verdict(60), verdict(100), verdict(40), verdict(70))

	var mu sync.Mutex
	var events []domain.EventType
	record := func(_ context.Context, e *domain.SessionEvent) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e.Type)
	}
	controller := session.NewController(f.catalog, f.store, f.evaluator,
		session.WithHooks(domain.LifecycleHooks{
			OnSessionCreated:   record,
			OnDecisionScored:   record,
			OnSessionCompleted: record,
		}),
	)
	ctx := context.Background()

	sess, err := controller.CreateSession(ctx, "contract-dispute", "owner-1")
	require.NoError(t, err)
	for step := 1; step <= 5; step++ {
		_, err = controller.SubmitDecision(ctx, sess.ID, step, "choice")
		require.NoError(t, err)
	}
	_, err = controller.CompleteSession(ctx, sess.ID)
	require.NoError(t, err)

	assert.Equal(t, []domain.EventType{
		domain.EventSessionCreated,
		domain.EventDecisionScored,
		domain.EventDecisionScored,
		domain.EventDecisionScored,
		domain.EventDecisionScored,
		domain.EventDecisionScored,
		domain.EventSessionCompleted,
	}, events)
}

// runToCompletion drives a fresh session through all five steps and completes it.
func runToCompletion(t *testing.T, f *fixture) *domain.Session {
	t.Helper()
	ctx := context.Background()

	sess, err := f.controller.CreateSession(ctx, "contract-dispute", "owner-1")
	require.NoError(t, err)
	for step := 1; step <= sess.TotalSteps; step++ {
		_, err = f.controller.SubmitDecision(ctx, sess.ID, step, fmt.Sprintf("choice %d", step))
		require.NoError(t, err)
	}

	completed, err := f.controller.CompleteSession(ctx, sess.ID)
	require.NoError(t, err)
	return completed
}
