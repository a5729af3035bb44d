// Package cli holds the shared wiring behind the moot commands: engine
// construction from configuration and the interactive play loop.
package cli

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/moot"
	"github.com/aretw0/moot/internal/config"
	"github.com/aretw0/moot/pkg/adapters/anthropic"
	"github.com/aretw0/moot/pkg/adapters/memory"
	redisadapter "github.com/aretw0/moot/pkg/adapters/redis"
	"github.com/aretw0/moot/pkg/domain"
	"github.com/aretw0/moot/pkg/evaluator/middleware"
	"github.com/aretw0/moot/pkg/ports"
)

// CreateEngine initializes a moot engine with standard CLI conventions:
// store and evaluator selected by configuration, the evaluator middleware
// chain built from the configured timeout and retry budget.
func CreateEngine(cfg config.Config, scenarioDir string, logger *slog.Logger, hooks domain.LifecycleHooks, evalMiddleware ...middleware.Middleware) (*moot.Engine, error) {
	// Extra middleware (instrumentation) goes outermost so one observation
	// covers the whole retry envelope. The timeout sits innermost: each
	// attempt gets a fresh deadline and the retry layer sees its expiry as
	// a transient failure.
	chain := append(append([]middleware.Middleware{}, evalMiddleware...),
		middleware.NewRetryMiddleware(cfg.EvaluatorRetries),
		middleware.NewTimeoutMiddleware(cfg.EvaluatorTimeout),
	)

	engineOpts := []moot.Option{
		moot.WithLogger(logger),
		moot.WithLifecycleHooks(hooks),
		moot.WithEvaluator(createEvaluator(cfg)),
		moot.WithEvaluatorMiddleware(chain...),
	}

	if cfg.Store == "redis" {
		store := redisadapter.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB,
			redisadapter.WithTTL(cfg.SessionTTL))
		engineOpts = append(engineOpts,
			moot.WithStore(store),
			moot.WithLocker(redisadapter.NewLocker(store.Client(), "moot:lock:")),
		)
	}

	engine, err := moot.New(scenarioDir, engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return engine, nil
}

func createEvaluator(cfg config.Config) ports.Evaluator {
	if cfg.Evaluator == "anthropic" {
		return anthropic.NewWithKey(cfg.AnthropicAPIKey, anthropic.WithModel(cfg.AnthropicModel))
	}
	return memory.NewEvaluator()
}
