package middleware

import (
	"context"
	"time"

	"github.com/aretw0/moot/pkg/ports"
)

// DefaultTimeout bounds a single evaluator round trip. Callers apply their
// own cancellation on top via ctx.
const DefaultTimeout = 15 * time.Second

type timeoutMiddleware struct {
	next    ports.Evaluator
	timeout time.Duration
}

// NewTimeoutMiddleware bounds every evaluator call with the given timeout.
// A non-positive timeout falls back to DefaultTimeout.
func NewTimeoutMiddleware(timeout time.Duration) Middleware {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return func(next ports.Evaluator) ports.Evaluator {
		return &timeoutMiddleware{next: next, timeout: timeout}
	}
}

func (m *timeoutMiddleware) Evaluate(ctx context.Context, req ports.EvaluationRequest) (*ports.Verdict, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	return m.next.Evaluate(ctx, req)
}

func (m *timeoutMiddleware) Summarize(ctx context.Context, req ports.SummaryRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	return m.next.Summarize(ctx, req)
}
