package observability

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/moot/pkg/adapters/memory"
	"github.com/aretw0/moot/pkg/domain"
	"github.com/aretw0/moot/pkg/evaluator/middleware"
	"github.com/aretw0/moot/pkg/ports"
)

func TestHooksFeedCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	hooks := m.Hooks()

	ctx := context.Background()
	hooks.OnSessionCreated(ctx, &domain.SessionEvent{SessionID: "s-1", ScenarioID: "contract-dispute"})
	hooks.OnSessionCreated(ctx, &domain.SessionEvent{SessionID: "s-2", ScenarioID: "contract-dispute"})
	hooks.OnDecisionScored(ctx, &domain.SessionEvent{SessionID: "s-1", ScenarioID: "contract-dispute", Step: 1, Score: 80})
	hooks.OnSessionCompleted(ctx, &domain.SessionEvent{SessionID: "s-1", ScenarioID: "contract-dispute", FinalScore: 80})
	hooks.OnSessionFailed(ctx, &domain.SessionEvent{SessionID: "s-2", ScenarioID: "contract-dispute"})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.sessionsCreated.WithLabelValues("contract-dispute")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.decisionsScored.WithLabelValues("contract-dispute")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessionsCompleted.WithLabelValues("contract-dispute")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessionsFailed.WithLabelValues("contract-dispute")))

	count, err := testutil.GatherAndCount(reg,
		"moot_decision_score", "moot_session_final_score")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestEvaluatorMiddlewareObservesLatency(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	eval := middleware.Chain(memory.NewEvaluator(), m.EvaluatorMiddleware())

	_, err := eval.Evaluate(context.Background(), ports.EvaluationRequest{
		ScenarioText: "text",
		Input:        "decide",
		Step:         1,
		TotalSteps:   2,
	})
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(reg, "moot_evaluator_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMetricsRegisterOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(reg)
	assert.Panics(t, func() { NewMetrics(reg) })
}
