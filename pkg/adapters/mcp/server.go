// Package mcp exposes a running conversation engine to MCP clients, so
// agents and IDE tooling can drive and inspect flows without the
// messaging transport.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/maitre-bot/maitre"
	"github.com/maitre-bot/maitre/pkg/domain"
	"github.com/maitre-bot/maitre/pkg/session"
)

// TurnResponse is the structured result every conversation tool returns.
type TurnResponse struct {
	Conversation     *domain.Conversation  `json:"conversation" jsonschema_description:"The conversation after the turn"`
	Prompt           domain.RenderedPrompt `json:"prompt" jsonschema_description:"The outbound prompt for the user"`
	Action           *domain.ActionRequest `json:"action,omitempty" jsonschema_description:"Side effect the host must execute, if any"`
	ValidationFailed bool                  `json:"validation_failed" jsonschema_description:"True when the input was rejected and the conversation did not advance"`
	Terminal         bool                  `json:"terminal" jsonschema_description:"True when the conversation reached a terminal state"`
}

// Server wraps a session manager and exposes it as an MCP server.
type Server struct {
	sessions  *session.Manager
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance over a session manager.
func NewServer(sessions *session.Manager) *Server {
	s := &Server{
		sessions:  sessions,
		mcpServer: server.NewMCPServer("maitre-mcp", strings.TrimSpace(maitre.Version)),
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
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

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

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: start_conversation
	startTool := mcp.NewTool("start_conversation",
		mcp.WithDescription("Start (or resume) a conversation and return its opening prompt."),
		mcp.WithString("conversation_id", mcp.Required(), mcp.Description("Stable conversation identifier, e.g. a phone number")),
		mcp.WithOutputSchema[TurnResponse](),
	)
	s.mcpServer.AddTool(startTool, mcp.NewStructuredToolHandler(s.handleStart))

	// TOOL: send_message
	sendTool := mcp.NewTool("send_message",
		mcp.WithDescription("Send one user message to a conversation and return the resulting prompt."),
		mcp.WithString("conversation_id", mcp.Required(), mcp.Description("Conversation identifier")),
		mcp.WithString("message", mcp.Required(), mcp.Description("Raw user input")),
		mcp.WithOutputSchema[TurnResponse](),
	)
	s.mcpServer.AddTool(sendTool, mcp.NewStructuredToolHandler(s.handleSend))

	// TOOL: override_state
	overrideTool := mcp.NewTool("override_state",
		mcp.WithDescription("Force a conversation onto a state, simulating an external event such as a payment confirmation."),
		mcp.WithString("conversation_id", mcp.Required(), mcp.Description("Conversation identifier")),
		mcp.WithString("state_id", mcp.Required(), mcp.Description("Target state ID")),
		mcp.WithOutputSchema[TurnResponse](),
	)
	s.mcpServer.AddTool(overrideTool, mcp.NewStructuredToolHandler(s.handleOverride))

	// TOOL: reset_conversation
	s.mcpServer.AddTool(mcp.NewTool("reset_conversation",
		mcp.WithDescription("Delete a conversation so the next message starts fresh."),
		mcp.WithString("conversation_id", mcp.Required(), mcp.Description("Conversation identifier")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		convID, err := request.RequireString("conversation_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := s.sessions.Reset(ctx, convID); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("reset failed: %v", err)), nil
		}
		return mcp.NewToolResultText("ok"), nil
	})

	// TOOL: get_flow
	s.mcpServer.AddTool(mcp.NewTool("get_flow",
		mcp.WithDescription("Get the full state table for introspection."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jsonBytes, _ := json.Marshal(s.sessions.Engine().Inspect())
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

// Handler methods for structured tools

func (s *Server) handleStart(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (TurnResponse, error) {
	convID, _ := args["conversation_id"].(string)
	if convID == "" {
		return TurnResponse{}, fmt.Errorf("conversation_id is required")
	}

	// An empty message falls through to the first-contact path in the
	// session manager, which starts the conversation without interpreting
	// any input.
	result, err := s.sessions.Handle(ctx, convID, "")
	if err != nil {
		return TurnResponse{}, fmt.Errorf("start failed: %w", err)
	}
	return toResponse(result), nil
}

func (s *Server) handleSend(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (TurnResponse, error) {
	convID, _ := args["conversation_id"].(string)
	message, _ := args["message"].(string)
	if convID == "" {
		return TurnResponse{}, fmt.Errorf("conversation_id is required")
	}

	result, err := s.sessions.Handle(ctx, convID, message)
	if err != nil {
		return TurnResponse{}, fmt.Errorf("turn failed: %w", err)
	}
	return toResponse(result), nil
}

func (s *Server) handleOverride(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (TurnResponse, error) {
	convID, _ := args["conversation_id"].(string)
	stateID, _ := args["state_id"].(string)
	if convID == "" || stateID == "" {
		return TurnResponse{}, fmt.Errorf("conversation_id and state_id are required")
	}

	result, err := s.sessions.Override(ctx, convID, stateID)
	if err != nil {
		return TurnResponse{}, fmt.Errorf("override failed: %w", err)
	}
	return toResponse(result), nil
}

func toResponse(result *domain.TurnResult) TurnResponse {
	return TurnResponse{
		Conversation:     result.Conversation,
		Prompt:           result.Prompt,
		Action:           result.Action,
		ValidationFailed: result.ValidationFailed,
		Terminal:         result.Terminal,
	}
}

func (s *Server) registerResources() {
	// EXPOSE: maitre://flow
	s.mcpServer.AddResource(mcp.NewResource("maitre://flow", "Current Flow Definition",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.sessions.Engine().Inspect())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal flow: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "maitre://flow",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
