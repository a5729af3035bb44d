package moot

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/moot/pkg/adapters/file"
	"github.com/aretw0/moot/pkg/adapters/memory"
	"github.com/aretw0/moot/pkg/domain"
	"github.com/aretw0/moot/pkg/evaluator/middleware"
	"github.com/aretw0/moot/pkg/ports"
	"github.com/aretw0/moot/pkg/session"
)

// Engine is the high-level entry point for the moot library. It wraps the
// session controller and provides a simplified API for consumers.
type Engine struct {
	*session.Controller

	catalog   ports.ScenarioCatalog
	store     ports.SessionStore
	evaluator ports.Evaluator
	locker    ports.DistributedLocker
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
	Name      string

	evalChain    []middleware.Middleware
	evalChainSet bool
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithCatalog injects a custom scenario catalog, bypassing the default
// file catalog initialization.
func WithCatalog(catalog ports.ScenarioCatalog) Option {
	return func(e *Engine) {
		e.catalog = catalog
	}
}

// WithStore injects a custom session store. Defaults to in-memory.
func WithStore(store ports.SessionStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithEvaluator injects the decision evaluator. Defaults to the offline
// scripted evaluator, which grades deterministically without network access.
// The evaluator should be passed bare: New wraps it with retry and timeout
// middleware (see WithEvaluatorMiddleware to customize the chain).
func WithEvaluator(eval ports.Evaluator) Option {
	return func(e *Engine) {
		e.evaluator = eval
	}
}

// WithEvaluatorMiddleware replaces the default evaluator middleware chain
// (retry wrapping a per-attempt timeout). Middleware is applied with the
// first listed outermost. Passing no middleware leaves the evaluator bare.
func WithEvaluatorMiddleware(mws ...middleware.Middleware) Option {
	return func(e *Engine) {
		e.evalChain = mws
		e.evalChainSet = true
	}
}

// WithLocker enables distributed locking across replicas.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New initializes a moot Engine. By default it loads scenarios from YAML
// files under scenarioDir; if WithCatalog is provided, scenarioDir may be
// empty and no filesystem access happens.
func New(scenarioDir string, opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.catalog == nil {
		if scenarioDir == "" {
			return nil, fmt.Errorf("scenarioDir is required when no custom catalog is provided")
		}
		absPath, err := filepath.Abs(scenarioDir)
		if err != nil {
			return nil, fmt.Errorf("invalid path: %w", err)
		}
		eng.Name = filepath.Base(absPath)

		catalog, err := file.NewCatalog(absPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load scenario catalog: %w", err)
		}
		eng.catalog = catalog
	} else if scenarioDir != "" {
		eng.Name = filepath.Base(scenarioDir)
	}

	if eng.store == nil {
		eng.store = memory.NewStore()
	}
	if eng.evaluator == nil {
		eng.evaluator = memory.NewEvaluator()
	}
	if !eng.evalChainSet {
		eng.evalChain = []middleware.Middleware{
			middleware.NewRetryMiddleware(middleware.DefaultRetries),
			middleware.NewTimeoutMiddleware(middleware.DefaultTimeout),
		}
	}
	eng.evaluator = middleware.Chain(eng.evaluator, eng.evalChain...)

	ctrlOpts := []session.Option{
		session.WithHooks(eng.hooks),
	}
	if eng.logger != nil {
		ctrlOpts = append(ctrlOpts, session.WithLogger(eng.logger))
	}
	if eng.locker != nil {
		ctrlOpts = append(ctrlOpts, session.WithLocker(eng.locker))
	}

	eng.Controller = session.NewController(eng.catalog, eng.store, eng.evaluator, ctrlOpts...)
	return eng, nil
}

// Catalog returns the scenario catalog used by the engine.
func (e *Engine) Catalog() ports.ScenarioCatalog {
	return e.catalog
}

// Store returns the session store used by the engine.
func (e *Engine) Store() ports.SessionStore {
	return e.store
}
