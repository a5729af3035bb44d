package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/aretw0/moot/internal/cli"
	"github.com/aretw0/moot/internal/config"
	"github.com/aretw0/moot/internal/logging"
	httpadapter "github.com/aretw0/moot/pkg/adapters/http"
	"github.com/aretw0/moot/pkg/observability"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP session server",
	Long: `Starts the moot engine in server mode, exposing the session API over
HTTP. Store, evaluator and addresses are configured via MOOT_* environment
variables; the scenario directory can be overridden with --scenarios.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.FromEnv()
		if err != nil {
			fmt.Printf("Configuration error: %v\n", err)
			os.Exit(1)
		}

		scenarioDir, _ := cmd.Flags().GetString("scenarios")
		if !cmd.Flags().Changed("scenarios") && cfg.ScenarioDir != "" {
			scenarioDir = cfg.ScenarioDir
		}

		logger := newLogger(cfg)

		metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
		engine, err := cli.CreateEngine(cfg, scenarioDir, logger, metrics.Hooks(), metrics.EvaluatorMiddleware())
		if err != nil {
			fmt.Printf("Error initializing moot: %v\n", err)
			os.Exit(1)
		}

		handler := httpadapter.NewHandler(engine, engine.Catalog(), httpadapter.WithLogger(logger))

		srv := &http.Server{
			Addr:    cfg.Addr,
			Handler: handler,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			logger.Info("starting moot server", "addr", srv.Addr, "scenarios", scenarioDir, "store", cfg.Store)
			serverErrors <- srv.ListenAndServe()
		}()

		if cfg.MetricsAddr != "" {
			go func() {
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.Handler())
				logger.Info("metrics listening", "addr", cfg.MetricsAddr)
				if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
					logger.Error("metrics server stopped", "error", err)
				}
			}()
		}

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			logger.Info("shutdown started", "signal", sig.String())

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("graceful shutdown did not complete", "error", err)
				if err := srv.Close(); err != nil {
					logger.Error("error killing server", "error", err)
				}
			}
			logger.Info("moot server stopped gracefully")
		}
	},
}

func newLogger(cfg config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if cfg.LogJSON {
		return logging.NewJSON(level)
	}
	return logging.New(level)
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
