// Package middleware wraps the Evaluator port with cross-cutting behavior:
// a bounded per-call timeout and a small retry budget for transient failures.
// Semantic errors (a malformed verdict) are never retried.
package middleware

import "github.com/aretw0/moot/pkg/ports"

// Middleware allows wrapping an Evaluator to add behavior.
type Middleware func(ports.Evaluator) ports.Evaluator

// Chain applies middlewares so the first listed is the outermost.
func Chain(evaluator ports.Evaluator, middlewares ...Middleware) ports.Evaluator {
	for i := len(middlewares) - 1; i >= 0; i-- {
		evaluator = middlewares[i](evaluator)
	}
	return evaluator
}
