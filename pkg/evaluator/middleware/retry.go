package middleware

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/aretw0/moot/pkg/domain"
	"github.com/aretw0/moot/pkg/ports"
)

// transientError marks an error as safe to retry.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient marks an error as retryable. Adapters wrap rate limits, 5xx
// responses, and connection failures with it.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether an error is worth one more attempt: explicitly
// marked errors, per-attempt deadline expiry, and network-level failures.
func IsTransient(err error) bool {
	var marked *transientError
	if errors.As(err, &marked) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// DefaultRetries is the retry budget applied when no explicit budget is
// configured: one extra attempt after the initial call.
const DefaultRetries = 1

type retryMiddleware struct {
	next    ports.Evaluator
	retries int
	backoff time.Duration
}

// NewRetryMiddleware retries transient evaluator failures up to the given
// budget (total attempts = retries + 1). When the budget is exhausted the
// error is surfaced as domain.ErrEvaluatorUnavailable. Semantic errors are
// returned immediately, as is any error once the caller's context is done.
func NewRetryMiddleware(retries int) Middleware {
	if retries < 0 {
		retries = 0
	}
	return func(next ports.Evaluator) ports.Evaluator {
		return &retryMiddleware{next: next, retries: retries, backoff: 500 * time.Millisecond}
	}
}

func (m *retryMiddleware) Evaluate(ctx context.Context, req ports.EvaluationRequest) (*ports.Verdict, error) {
	var verdict *ports.Verdict
	err := m.attempt(ctx, func(ctx context.Context) error {
		var callErr error
		verdict, callErr = m.next.Evaluate(ctx, req)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return verdict, nil
}

func (m *retryMiddleware) Summarize(ctx context.Context, req ports.SummaryRequest) (string, error) {
	var summary string
	err := m.attempt(ctx, func(ctx context.Context) error {
		var callErr error
		summary, callErr = m.next.Summarize(ctx, req)
		return callErr
	})
	if err != nil {
		return "", err
	}
	return summary, nil
}

func (m *retryMiddleware) attempt(ctx context.Context, call func(context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= m.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(m.backoff):
			}
		}

		lastErr = call(ctx)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			// The caller gave up; do not mask their cancellation.
			return lastErr
		}
		if !IsTransient(lastErr) {
			return lastErr
		}
	}
	return errors.Join(domain.ErrEvaluatorUnavailable, lastErr)
}
