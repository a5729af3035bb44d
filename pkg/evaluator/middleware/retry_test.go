package middleware_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/moot/pkg/adapters/memory"
	"github.com/aretw0/moot/pkg/domain"
	"github.com/aretw0/moot/pkg/evaluator/middleware"
	"github.com/aretw0/moot/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okVerdict(score int) ports.Verdict {
	return ports.Verdict{Response: "noted", Consequences: "none", Score: score}
}

func TestRetry_TransientThenSuccess(t *testing.T) {
	inner := memory.NewEvaluator(
		memory.ScriptedResponse{Err: middleware.Transient(errors.New("connection reset"))},
		memory.ScriptedResponse{Verdict: okVerdict(80)},
	)
	eval := middleware.Chain(inner, middleware.NewRetryMiddleware(1))

	verdict, err := eval.Evaluate(context.Background(), ports.EvaluationRequest{Input: "object", Step: 1, TotalSteps: 5})
	require.NoError(t, err)
	assert.Equal(t, 80, verdict.Score)
	// One transparent retry: the caller saw a single successful call, the
	// inner evaluator saw exactly two.
	assert.Len(t, inner.Calls(), 2)
}

func TestRetry_Exhausted(t *testing.T) {
	inner := memory.NewEvaluator(
		memory.ScriptedResponse{Err: middleware.Transient(errors.New("gateway timeout"))},
	)
	eval := middleware.Chain(inner, middleware.NewRetryMiddleware(1))

	_, err := eval.Evaluate(context.Background(), ports.EvaluationRequest{Input: "x"})
	assert.ErrorIs(t, err, domain.ErrEvaluatorUnavailable)
	assert.Len(t, inner.Calls(), 2)
}

func TestRetry_SemanticErrorNotRetried(t *testing.T) {
	semantic := errors.New("verdict missing score")
	inner := memory.NewEvaluator(memory.ScriptedResponse{Err: semantic})
	eval := middleware.Chain(inner, middleware.NewRetryMiddleware(3))

	_, err := eval.Evaluate(context.Background(), ports.EvaluationRequest{Input: "x"})
	assert.ErrorIs(t, err, semantic)
	assert.NotErrorIs(t, err, domain.ErrEvaluatorUnavailable)
	assert.Len(t, inner.Calls(), 1)
}

func TestRetry_CallerCancellationWins(t *testing.T) {
	inner := memory.NewEvaluator(
		memory.ScriptedResponse{Err: middleware.Transient(errors.New("flaky"))},
	)
	eval := middleware.Chain(inner, middleware.NewRetryMiddleware(5))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := eval.Evaluate(ctx, ports.EvaluationRequest{Input: "x"})
	assert.Error(t, err)
	// No retries once the caller has given up.
	assert.LessOrEqual(t, len(inner.Calls()), 1)
}

func TestRetry_SummarizeRetries(t *testing.T) {
	inner := memory.NewEvaluator()
	inner.SetSummary("", middleware.Transient(errors.New("overloaded")))
	eval := middleware.Chain(inner, middleware.NewRetryMiddleware(1))

	_, err := eval.Summarize(context.Background(), ports.SummaryRequest{FinalScore: 70})
	assert.ErrorIs(t, err, domain.ErrEvaluatorUnavailable)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, middleware.IsTransient(middleware.Transient(errors.New("x"))))
	assert.True(t, middleware.IsTransient(context.DeadlineExceeded))
	assert.False(t, middleware.IsTransient(errors.New("bad verdict")))
}

type slowEvaluator struct{}

func (slowEvaluator) Evaluate(ctx context.Context, _ ports.EvaluationRequest) (*ports.Verdict, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(time.Second):
		v := okVerdict(50)
		return &v, nil
	}
}

func (slowEvaluator) Summarize(ctx context.Context, _ ports.SummaryRequest) (string, error) {
	return "", nil
}

func TestTimeout_BoundsSlowEvaluator(t *testing.T) {
	eval := middleware.Chain(slowEvaluator{}, middleware.NewTimeoutMiddleware(20*time.Millisecond))

	start := time.Now()
	_, err := eval.Evaluate(context.Background(), ports.EvaluationRequest{Input: "x"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}
