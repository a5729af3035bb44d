// Package feedback produces the holistic learning summary attached to a
// session at completion.
package feedback

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/moot/internal/logging"
	"github.com/aretw0/moot/pkg/domain"
	"github.com/aretw0/moot/pkg/ports"
)

// Service requests a feedback narrative from the evaluator, degrading to a
// deterministic template when the evaluator is unavailable. Completion must
// always succeed once all steps are answered; only the richness of the
// feedback degrades.
type Service struct {
	evaluator ports.Evaluator
	logger    *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithLogger configures a logger for degraded-path warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a feedback service backed by the given evaluator.
func NewService(evaluator ports.Evaluator, opts ...Option) *Service {
	s := &Service{
		evaluator: evaluator,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate returns the feedback narrative for a finished session. It never
// returns an error: evaluator failures fall back to Fallback.
func (s *Service) Generate(ctx context.Context, scenario *domain.Scenario, session *domain.Session, finalScore int) string {
	req := ports.SummaryRequest{
		ScenarioTitle: scenario.Title,
		ScenarioText:  scenario.NarrativeText,
		History:       session.Decisions,
		FinalScore:    finalScore,
	}

	summary, err := s.evaluator.Summarize(ctx, req)
	if err != nil || summary == "" {
		s.logger.Warn("feedback summary degraded to template",
			"session_id", session.ID,
			"err", err,
		)
		return Fallback(len(session.Decisions), finalScore)
	}
	return summary
}

// Fallback is the deterministic templated summary used when the evaluator
// cannot provide one.
func Fallback(decisions, finalScore int) string {
	return fmt.Sprintf("You completed %d decisions with a final score of %d%%.", decisions, finalScore)
}
