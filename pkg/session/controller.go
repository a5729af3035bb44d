package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/moot/internal/logging"
	"github.com/aretw0/moot/pkg/domain"
	"github.com/aretw0/moot/pkg/feedback"
	"github.com/aretw0/moot/pkg/ports"
	"github.com/aretw0/moot/pkg/scoring"
)

// Controller orchestrates scenario sessions: creation, step-guarded decision
// submission, and explicit completion. It is safe for concurrent use.
type Controller struct {
	catalog  ports.ScenarioCatalog
	store    ports.SessionStore
	eval     ports.Evaluator
	feedback *feedback.Service

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active per-session locks

	locker ports.DistributedLocker
	hooks  domain.LifecycleHooks
	logger *slog.Logger

	now   func() time.Time
	newID func() string
}

// Option configures the Controller.
type Option func(*Controller)

// WithLocker enables distributed locking across replicas.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(c *Controller) {
		c.locker = locker
	}
}

// WithLogger configures a logger for internal events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithHooks registers lifecycle callbacks for observability.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Controller) {
		c.hooks = hooks
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// WithIDGenerator overrides session ID generation. Used by tests.
func WithIDGenerator(newID func() string) Option {
	return func(c *Controller) {
		c.newID = newID
	}
}

// NewController creates a session controller over the given collaborators.
func NewController(catalog ports.ScenarioCatalog, store ports.SessionStore, eval ports.Evaluator, opts ...Option) *Controller {
	c := &Controller{
		catalog: catalog,
		store:   store,
		eval:    eval,
		locks:   make(map[string]*lockEntry),
		logger:  logging.NewNop(),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.feedback = feedback.NewService(eval, feedback.WithLogger(c.logger))
	return c
}

// CreateSession starts a new attempt at a scenario for the given owner.
// The scenario's step count is copied onto the session so later catalog
// edits cannot change an in-flight session's rules.
func (c *Controller) CreateSession(ctx context.Context, scenarioID, ownerID string) (*domain.Session, error) {
	scenario, err := c.catalog.FetchScenario(ctx, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("fetch scenario %q: %w", scenarioID, err)
	}

	totalSteps := scenario.TotalSteps
	if totalSteps < 1 {
		totalSteps = domain.DefaultTotalSteps
	}

	sess := domain.NewSession(c.newID(), scenario.ID, ownerID, totalSteps, c.now())
	if err := c.store.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("persist new session: %w", err)
	}

	c.fire(ctx, c.hooks.OnSessionCreated, &domain.SessionEvent{
		Type:       domain.EventSessionCreated,
		SessionID:  sess.ID,
		ScenarioID: sess.ScenarioID,
	})
	c.logger.Info("session created",
		"session_id", sess.ID,
		"scenario_id", sess.ScenarioID,
		"total_steps", sess.TotalSteps,
	)
	return sess, nil
}

// Get returns the current session projection for progress rendering.
func (c *Controller) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	return c.store.Load(ctx, sessionID)
}

// SubmitDecision records one decision for the session's current step.
//
// The caller supplies the step it believes it is answering. A submission for
// any other step, or for a terminal session, is rejected synchronously so the
// caller can resynchronize from Get. If the evaluator is unavailable the
// session is left untouched and the same step may be retried, except on the
// very first decision, where the session transitions to failed.
func (c *Controller) SubmitDecision(ctx context.Context, sessionID string, step int, input string) (*domain.Session, error) {
	var result *domain.Session
	err := c.withLock(ctx, sessionID, func(ctx context.Context) error {
		sess, err := c.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}

		if sess.Status.Terminal() {
			return domain.ErrSessionTerminal
		}
		if step != sess.CurrentStep {
			return fmt.Errorf("%w: submitted %d, current %d", domain.ErrStepMismatch, step, sess.CurrentStep)
		}

		scenario, err := c.catalog.FetchScenario(ctx, sess.ScenarioID)
		if err != nil {
			if errors.Is(err, domain.ErrScenarioNotFound) || errors.Is(err, domain.ErrInvalidScenario) {
				// The scenario disappeared underneath the session; the
				// attempt cannot continue.
				return errors.Join(err, c.fail(ctx, sess))
			}
			return fmt.Errorf("fetch scenario %q: %w", sess.ScenarioID, err)
		}

		verdict, err := c.eval.Evaluate(ctx, ports.EvaluationRequest{
			ScenarioText: scenario.NarrativeText,
			History:      sess.Decisions,
			Input:        input,
			Step:         step,
			TotalSteps:   sess.TotalSteps,
		})
		if err != nil {
			if errors.Is(err, domain.ErrEvaluatorUnavailable) && sess.Status == domain.StatusInitialized {
				// Exhausted before any progress was made: nothing to salvage.
				return errors.Join(err, c.fail(ctx, sess))
			}
			// Mid-session the decision is simply not recorded; the caller
			// may retry the same step.
			return err
		}

		guard := ports.GuardOf(sess)
		sess.Status = domain.StatusInProgress
		sess.Decisions = append(sess.Decisions, domain.Decision{
			Step:         step,
			Input:        input,
			Response:     verdict.Response,
			Consequences: verdict.Consequences,
			NextOptions:  verdict.NextOptions,
			Score:        clampScore(verdict.Score),
		})
		sess.CurrentStep++
		sess.RunningScore = scoring.RunningScore(sess.Scores())

		if err := c.store.Update(ctx, sess, guard); err != nil {
			if errors.Is(err, domain.ErrSessionConflict) {
				// Another writer advanced the session between our read and
				// write. Surface as a step conflict; the caller re-fetches.
				return fmt.Errorf("%w: session advanced concurrently", domain.ErrStepMismatch)
			}
			return err
		}

		c.fire(ctx, c.hooks.OnDecisionScored, &domain.SessionEvent{
			Type:       domain.EventDecisionScored,
			SessionID:  sess.ID,
			ScenarioID: sess.ScenarioID,
			Step:       step,
			Score:      sess.LastDecision().Score,
		})
		result = sess
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CompleteSession finalizes a session once every declared step is answered.
//
// It is idempotent: completing an already-completed session returns the
// stored result without recomputing, so a client retry after a lost response
// cannot double-score.
func (c *Controller) CompleteSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	var result *domain.Session
	err := c.withLock(ctx, sessionID, func(ctx context.Context) error {
		sess, err := c.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}

		if sess.Status == domain.StatusCompleted {
			result = sess
			return nil
		}
		if sess.Status == domain.StatusFailed {
			return domain.ErrSessionTerminal
		}
		if !sess.StepsExhausted() {
			return fmt.Errorf("%w: %d of %d answered", domain.ErrStepsRemaining, len(sess.Decisions), sess.TotalSteps)
		}

		finalScore, err := scoring.FinalScore(sess.Scores())
		if err != nil {
			// Steps exhausted with no decisions means the controller broke
			// its own invariant; log as a bug, not a user failure.
			c.logger.Error("final scoring failed on exhausted session",
				"session_id", sess.ID,
				"err", err,
			)
			return err
		}

		guard := ports.GuardOf(sess)
		sess.Status = domain.StatusCompleted
		sess.FinalScore = finalScore
		sess.Feedback = c.feedbackFor(ctx, sess, finalScore)
		completedAt := c.now()
		sess.CompletedAt = &completedAt

		if err := c.store.Update(ctx, sess, guard); err != nil {
			if errors.Is(err, domain.ErrSessionConflict) {
				// A concurrent completion may have won; return its result.
				current, loadErr := c.store.Load(ctx, sessionID)
				if loadErr == nil && current.Status == domain.StatusCompleted {
					result = current
					return nil
				}
			}
			return err
		}

		c.fire(ctx, c.hooks.OnSessionCompleted, &domain.SessionEvent{
			Type:       domain.EventSessionCompleted,
			SessionID:  sess.ID,
			ScenarioID: sess.ScenarioID,
			FinalScore: finalScore,
		})
		c.logger.Info("session completed",
			"session_id", sess.ID,
			"final_score", finalScore,
		)
		result = sess
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// feedbackFor builds the completion narrative. The catalog being unreachable
// at completion time only degrades feedback; it never blocks completion.
func (c *Controller) feedbackFor(ctx context.Context, sess *domain.Session, finalScore int) string {
	scenario, err := c.catalog.FetchScenario(ctx, sess.ScenarioID)
	if err != nil {
		c.logger.Warn("scenario unavailable at completion, using templated feedback",
			"session_id", sess.ID,
			"err", err,
		)
		return feedback.Fallback(len(sess.Decisions), finalScore)
	}
	return c.feedback.Generate(ctx, scenario, sess, finalScore)
}

// fail transitions a session to the failed terminal state.
func (c *Controller) fail(ctx context.Context, sess *domain.Session) error {
	guard := ports.GuardOf(sess)
	sess.Status = domain.StatusFailed
	completedAt := c.now()
	sess.CompletedAt = &completedAt

	if err := c.store.Update(ctx, sess, guard); err != nil {
		return fmt.Errorf("mark session failed: %w", err)
	}
	c.fire(ctx, c.hooks.OnSessionFailed, &domain.SessionEvent{
		Type:       domain.EventSessionFailed,
		SessionID:  sess.ID,
		ScenarioID: sess.ScenarioID,
	})
	c.logger.Warn("session failed", "session_id", sess.ID)
	return nil
}

func (c *Controller) fire(ctx context.Context, hook func(context.Context, *domain.SessionEvent), event *domain.SessionEvent) {
	if hook == nil {
		return
	}
	event.Timestamp = c.now()
	hook(ctx, event)
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
