// Package observability exports engine lifecycle activity as Prometheus
// metrics via the engine's lifecycle hooks.
package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/moot/pkg/domain"
	"github.com/aretw0/moot/pkg/evaluator/middleware"
	"github.com/aretw0/moot/pkg/ports"
)

// Metrics holds the collectors fed by session lifecycle events.
type Metrics struct {
	sessionsCreated   *prometheus.CounterVec
	sessionsCompleted *prometheus.CounterVec
	sessionsFailed    *prometheus.CounterVec
	decisionsScored   *prometheus.CounterVec
	decisionScores    prometheus.Histogram
	finalScores       prometheus.Histogram
	evaluatorLatency  *prometheus.HistogramVec
}

// NewMetrics builds the collectors and registers them with reg. Pass
// prometheus.DefaultRegisterer to use the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		sessionsCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moot_sessions_created_total",
				Help: "Total number of sessions created",
			},
			[]string{"scenario_id"},
		),
		sessionsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moot_sessions_completed_total",
				Help: "Total number of sessions completed",
			},
			[]string{"scenario_id"},
		),
		sessionsFailed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moot_sessions_failed_total",
				Help: "Total number of sessions marked failed",
			},
			[]string{"scenario_id"},
		),
		decisionsScored: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moot_decisions_scored_total",
				Help: "Total number of decisions accepted and scored",
			},
			[]string{"scenario_id"},
		),
		decisionScores: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "moot_decision_score",
				Help:    "Distribution of per-decision scores",
				Buckets: prometheus.LinearBuckets(0, 10, 11),
			},
		),
		finalScores: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "moot_session_final_score",
				Help:    "Distribution of final session scores",
				Buckets: prometheus.LinearBuckets(0, 10, 11),
			},
		),
		evaluatorLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "moot_evaluator_duration_seconds",
				Help:    "Duration of evaluator round trips",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "outcome"},
		),
	}

	reg.MustRegister(
		m.sessionsCreated,
		m.sessionsCompleted,
		m.sessionsFailed,
		m.decisionsScored,
		m.decisionScores,
		m.finalScores,
		m.evaluatorLatency,
	)
	return m
}

// Hooks returns lifecycle hooks that feed the collectors. Wire the result
// into the controller via session.WithHooks.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSessionCreated: func(_ context.Context, e *domain.SessionEvent) {
			m.sessionsCreated.WithLabelValues(e.ScenarioID).Inc()
		},
		OnDecisionScored: func(_ context.Context, e *domain.SessionEvent) {
			m.decisionsScored.WithLabelValues(e.ScenarioID).Inc()
			m.decisionScores.Observe(float64(e.Score))
		},
		OnSessionCompleted: func(_ context.Context, e *domain.SessionEvent) {
			m.sessionsCompleted.WithLabelValues(e.ScenarioID).Inc()
			m.finalScores.Observe(float64(e.FinalScore))
		},
		OnSessionFailed: func(_ context.Context, e *domain.SessionEvent) {
			m.sessionsFailed.WithLabelValues(e.ScenarioID).Inc()
		},
	}
}

// EvaluatorMiddleware times evaluator round trips. Wire it outermost in the
// middleware chain so retries and timeouts are counted inside one observation.
func (m *Metrics) EvaluatorMiddleware() middleware.Middleware {
	return func(next ports.Evaluator) ports.Evaluator {
		return &instrumentedEvaluator{next: next, latency: m.evaluatorLatency}
	}
}

type instrumentedEvaluator struct {
	next    ports.Evaluator
	latency *prometheus.HistogramVec
}

func (e *instrumentedEvaluator) Evaluate(ctx context.Context, req ports.EvaluationRequest) (*ports.Verdict, error) {
	start := time.Now()
	verdict, err := e.next.Evaluate(ctx, req)
	e.latency.WithLabelValues("evaluate", outcome(err)).Observe(time.Since(start).Seconds())
	return verdict, err
}

func (e *instrumentedEvaluator) Summarize(ctx context.Context, req ports.SummaryRequest) (string, error) {
	start := time.Now()
	summary, err := e.next.Summarize(ctx, req)
	e.latency.WithLabelValues("summarize", outcome(err)).Observe(time.Since(start).Seconds())
	return summary, err
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
