// Package mcp exposes the session engine as an MCP server so AI agents can
// run training sessions as tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/moot"
	"github.com/aretw0/moot/pkg/domain"
	"github.com/aretw0/moot/pkg/ports"
)

// Engine is the slice of the session controller the MCP tools need.
type Engine interface {
	CreateSession(ctx context.Context, scenarioID, ownerID string) (*domain.Session, error)
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	SubmitDecision(ctx context.Context, sessionID string, step int, input string) (*domain.Session, error)
	CompleteSession(ctx context.Context, sessionID string) (*domain.Session, error)
}

// Server wraps the engine and catalog as an MCP server.
type Server struct {
	engine    Engine
	catalog   ports.ScenarioCatalog
	mcpServer *server.MCPServer
}

// NewServer builds the MCP server and registers its tools and resources.
func NewServer(engine Engine, catalog ports.ScenarioCatalog) *Server {
	s := &Server{
		engine:    engine,
		catalog:   catalog,
		mcpServer: server.NewMCPServer("moot-mcp", moot.Version),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

type startArgs struct {
	ScenarioID string `mapstructure:"scenario_id"`
	OwnerID    string `mapstructure:"owner_id"`
}

type decisionArgs struct {
	SessionID string `mapstructure:"session_id"`
	Step      int    `mapstructure:"step"`
	Input     string `mapstructure:"input"`
}

type sessionArgs struct {
	SessionID string `mapstructure:"session_id"`
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_scenarios",
		mcp.WithDescription("List the available training scenarios."),
	), s.handleListScenarios)

	s.mcpServer.AddTool(mcp.NewTool("start_session",
		mcp.WithDescription("Start a new training session for a scenario."),
		mcp.WithString("scenario_id", mcp.Required(), mcp.Description("Scenario to play")),
		mcp.WithString("owner_id", mcp.Required(), mcp.Description("Identifier of the trainee")),
	), s.handleStartSession)

	s.mcpServer.AddTool(mcp.NewTool("submit_decision",
		mcp.WithDescription("Submit a decision for the session's current step and receive the scored verdict."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session to advance")),
		mcp.WithNumber("step", mcp.Required(), mcp.Description("Step being answered; must match the session's current step")),
		mcp.WithString("input", mcp.Required(), mcp.Description("The decision: free text or a chosen option")),
	), s.handleSubmitDecision)

	s.mcpServer.AddTool(mcp.NewTool("complete_session",
		mcp.WithDescription("Complete a session whose steps are all answered; returns the final score and feedback."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session to complete")),
	), s.handleCompleteSession)

	s.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Fetch the full session state including decision history."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session to fetch")),
	), s.handleGetSession)
}

func (s *Server) handleListScenarios(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	scenarios, err := s.catalog.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list scenarios: %v", err)), nil
	}
	return jsonResult(scenarios)
}

func (s *Server) handleStartSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args startArgs
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if args.ScenarioID == "" || args.OwnerID == "" {
		return mcp.NewToolResultError("scenario_id and owner_id are required"), nil
	}

	sess, err := s.engine.CreateSession(ctx, args.ScenarioID, args.OwnerID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("start session: %v", err)), nil
	}
	return jsonResult(sess)
}

func (s *Server) handleSubmitDecision(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args decisionArgs
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if args.SessionID == "" || args.Step < 1 || args.Input == "" {
		return mcp.NewToolResultError("session_id, step >= 1 and input are required"), nil
	}

	sess, err := s.engine.SubmitDecision(ctx, args.SessionID, args.Step, args.Input)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("submit decision: %v", err)), nil
	}
	return jsonResult(sess)
}

func (s *Server) handleCompleteSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args sessionArgs
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sess, err := s.engine.CompleteSession(ctx, args.SessionID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("complete session: %v", err)), nil
	}
	return jsonResult(sess)
}

func (s *Server) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args sessionArgs
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sess, err := s.engine.Get(ctx, args.SessionID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("get session: %v", err)), nil
	}
	return jsonResult(sess)
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("moot://scenarios", "Scenario Catalog",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		scenarios, err := s.catalog.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("list scenarios: %w", err)
		}
		jsonBytes, _ := json.Marshal(scenarios)
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "moot://scenarios",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

func decodeArgs(request mcp.CallToolRequest, target any) error {
	if err := mapstructure.Decode(request.GetArguments(), target); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}
