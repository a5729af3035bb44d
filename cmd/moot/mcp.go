package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/moot/internal/cli"
	"github.com/aretw0/moot/internal/config"
	"github.com/aretw0/moot/internal/logging"
	"github.com/aretw0/moot/pkg/adapters/mcp"
	"github.com/aretw0/moot/pkg/domain"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the moot engine as an MCP Server.
This allows AI agents (like Claude Desktop) to run training sessions as tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.FromEnv()
		if err != nil {
			log.Fatalf("Configuration error: %v", err)
		}

		scenarioDir, _ := cmd.Flags().GetString("scenarios")
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		// Logs go to Stderr so they cannot corrupt JSON-RPC on Stdout.
		logger := logging.New(slog.LevelInfo)
		slog.SetDefault(logger)

		engine, err := cli.CreateEngine(cfg, scenarioDir, logger, domain.LifecycleHooks{})
		if err != nil {
			log.Fatalf("Error initializing moot: %v", err)
		}

		srv := mcp.NewServer(engine, engine.Catalog())

		switch transport {
		case "stdio":
			log.SetOutput(os.Stderr)
			slog.Info("starting moot MCP server (stdio)")
			if err := srv.ServeStdio(); err != nil {
				slog.Error("MCP server execution failed", "error", err)
				os.Exit(1)
			}
		case "sse":
			slog.Info("starting moot MCP server (SSE)", "port", port)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := srv.ServeSSE(ctx, port); err != nil {
				if err != http.ErrServerClosed {
					slog.Error("MCP server execution failed", "error", err)
					os.Exit(1)
				}
			}
			slog.Info("MCP server stopped gracefully")
		default:
			log.Fatalf("Unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8081, "Port to listen on (only for SSE)")
}
