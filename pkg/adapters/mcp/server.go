package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/sopflow"
	"github.com/aretw0/sopflow/internal/runtime"
	"github.com/aretw0/sopflow/pkg/adapters/loader"
	"github.com/aretw0/sopflow/pkg/domain"
	"github.com/aretw0/sopflow/pkg/notify"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// DefinitionsURI lists the loaded definitions.
const DefinitionsURI = "sopflow://definitions"

// Service is the part of the sopflow engine exposed to agents.
type Service interface {
	Definitions(ctx context.Context) ([]string, error)
	Definition(ctx context.Context, id string) (*domain.Definition, error)
	ValidateDefinition(def *domain.Definition) sopflow.Report
	Open(ctx context.Context, definitionID, name, color string) (*domain.Object, error)
	Move(ctx context.Context, objectID string, req runtime.TransitionRequest) (*runtime.TransitionResult, error)
	Progress(ctx context.Context, objectID string) (runtime.Progress, error)
	Actions(ctx context.Context, objectID, role string) ([]domain.Edge, error)
}

// Server wraps the sopflow Engine and exposes it as an MCP Server.
type Server struct {
	svc       Service
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(svc Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		svc:       svc,
		logger:    logger,
		mcpServer: server.NewMCPServer("sopflow-mcp", strings.TrimSpace(sopflow.Version)),
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
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down server")
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

// ValidateArgs are the arguments of validate_definition.
type ValidateArgs struct {
	DefinitionID string `json:"definition_id,omitempty"`
	Definition   string `json:"definition,omitempty"`
}

// CreateCaseArgs are the arguments of create_case.
type CreateCaseArgs struct {
	DefinitionID string `json:"definition_id"`
	Name         string `json:"name,omitempty"`
	Color        string `json:"color,omitempty"`
}

// TransitionArgs are the arguments of transition_case.
type TransitionArgs struct {
	CaseID      string         `json:"case_id"`
	EdgeID      string         `json:"edge_id"`
	FieldValues map[string]any `json:"field_values,omitempty"`
	Documents   []string       `json:"documents,omitempty"`
	Actor       string         `json:"actor,omitempty"`
	Role        string         `json:"role,omitempty"`
}

// CaseArgs identify a case, optionally for a role.
type CaseArgs struct {
	CaseID string `json:"case_id"`
	Role   string `json:"role,omitempty"`
}

// PreviewArgs are the arguments of preview_notification.
type PreviewArgs struct {
	Spec domain.NotificationSpec `json:"spec"`
	Vars map[string]string       `json:"vars,omitempty"`
}

// PreviewResponse wraps the previews in an object for structured output.
type PreviewResponse struct {
	Previews []notify.Preview `json:"previews"`
}

// ActionsResponse wraps the available actions.
type ActionsResponse struct {
	Actions []domain.Edge `json:"actions"`
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("validate_definition",
		mcp.WithDescription("Check a SOP definition for structural problems and catalog warnings. Pass either a loaded definition_id or an inline YAML/JSON definition."),
		mcp.WithString("definition_id", mcp.Description("ID of a loaded definition")),
		mcp.WithString("definition", mcp.Description("Inline definition as YAML or JSON")),
		mcp.WithOutputSchema[sopflow.Report](),
	), mcp.NewStructuredToolHandler(s.handleValidate))

	s.mcpServer.AddTool(mcp.NewTool("create_case",
		mcp.WithDescription("Open a new case on the start status of a definition."),
		mcp.WithString("definition_id", mcp.Required(), mcp.Description("Definition to instantiate")),
		mcp.WithString("name", mcp.Description("Display name of the case")),
		mcp.WithString("color", mcp.Description("Display color of the case")),
		mcp.WithOutputSchema[domain.Object](),
	), mcp.NewStructuredToolHandler(s.handleCreateCase))

	s.mcpServer.AddTool(mcp.NewTool("transition_case",
		mcp.WithDescription("Take an action on a case. Fails when the action is unavailable or its requirements are not met."),
		mcp.WithString("case_id", mcp.Required(), mcp.Description("Case to move")),
		mcp.WithString("edge_id", mcp.Required(), mcp.Description("Action to take")),
		mcp.WithObject("field_values", mcp.Description("Values for the action's required fields")),
		mcp.WithArray("documents", mcp.WithStringItems(), mcp.Description("Names of the attached documents")),
		mcp.WithString("actor", mcp.Description("Who takes the action")),
		mcp.WithString("role", mcp.Description("Role the actor acts in")),
		mcp.WithOutputSchema[runtime.TransitionResult](),
	), mcp.NewStructuredToolHandler(s.handleTransition))

	s.mcpServer.AddTool(mcp.NewTool("estimate_progress",
		mcp.WithDescription("Estimate how far a case is from an end status."),
		mcp.WithString("case_id", mcp.Required(), mcp.Description("Case to inspect")),
		mcp.WithOutputSchema[runtime.Progress](),
	), mcp.NewStructuredToolHandler(s.handleProgress))

	s.mcpServer.AddTool(mcp.NewTool("list_actions",
		mcp.WithDescription("List the actions a case can take next."),
		mcp.WithString("case_id", mcp.Required(), mcp.Description("Case to inspect")),
		mcp.WithString("role", mcp.Description("Only actions this role may take")),
		mcp.WithOutputSchema[ActionsResponse](),
	), mcp.NewStructuredToolHandler(s.handleActions))

	s.mcpServer.AddTool(mcp.NewTool("preview_notification",
		mcp.WithDescription("Render a notification spec the way it would be sent, one preview per channel."),
		mcp.WithObject("spec", mcp.Required(), mcp.Description("Notification spec: enabled, channels, recipient, template")),
		mcp.WithObject("vars", mcp.Description("Template variables such as objectName, fromStatus, toStatus, action, actor, timestamp")),
		mcp.WithOutputSchema[PreviewResponse](),
	), mcp.NewStructuredToolHandler(s.handlePreview))
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest, args ValidateArgs) (sopflow.Report, error) {
	var def *domain.Definition
	switch {
	case args.Definition != "":
		parsed, err := loader.Decode([]byte(args.Definition), "inline")
		if err != nil {
			return sopflow.Report{}, fmt.Errorf("invalid definition: %w", err)
		}
		def = parsed
	case args.DefinitionID != "":
		loaded, err := s.svc.Definition(ctx, args.DefinitionID)
		if err != nil {
			return sopflow.Report{}, err
		}
		def = loaded
	default:
		return sopflow.Report{}, errors.New("either definition_id or definition is required")
	}
	return s.svc.ValidateDefinition(def), nil
}

func (s *Server) handleCreateCase(ctx context.Context, request mcp.CallToolRequest, args CreateCaseArgs) (domain.Object, error) {
	obj, err := s.svc.Open(ctx, args.DefinitionID, args.Name, args.Color)
	if err != nil {
		return domain.Object{}, fmt.Errorf("create case failed: %w", err)
	}
	return *obj, nil
}

func (s *Server) handleTransition(ctx context.Context, request mcp.CallToolRequest, args TransitionArgs) (runtime.TransitionResult, error) {
	res, err := s.svc.Move(ctx, args.CaseID, runtime.TransitionRequest{
		EdgeID:            args.EdgeID,
		FieldValues:       args.FieldValues,
		DocumentsAttached: args.Documents,
		Actor:             args.Actor,
		Role:              args.Role,
	})
	if err != nil {
		s.logger.Debug("MCP transition rejected", "case_id", args.CaseID, "edge_id", args.EdgeID, "err", err)
		return runtime.TransitionResult{}, err
	}
	return *res, nil
}

func (s *Server) handleProgress(ctx context.Context, request mcp.CallToolRequest, args CaseArgs) (runtime.Progress, error) {
	return s.svc.Progress(ctx, args.CaseID)
}

func (s *Server) handleActions(ctx context.Context, request mcp.CallToolRequest, args CaseArgs) (ActionsResponse, error) {
	actions, err := s.svc.Actions(ctx, args.CaseID, args.Role)
	if err != nil {
		return ActionsResponse{}, err
	}
	if actions == nil {
		actions = []domain.Edge{}
	}
	return ActionsResponse{Actions: actions}, nil
}

func (s *Server) handlePreview(ctx context.Context, request mcp.CallToolRequest, args PreviewArgs) (PreviewResponse, error) {
	return PreviewResponse{Previews: notify.Format(args.Spec, args.Vars)}, nil
}

// definitionSummary is one entry of the definitions resource.
type definitionSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Nodes int    `json:"nodes"`
	Edges int    `json:"edges"`
	Valid bool   `json:"valid"`
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(DefinitionsURI, "Loaded SOP definitions",
		mcp.WithMIMEType("application/json"),
	), s.readDefinitions)
}

func (s *Server) readDefinitions(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	ids, err := s.svc.Definitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list definitions: %w", err)
	}
	summaries := make([]definitionSummary, 0, len(ids))
	for _, id := range ids {
		def, err := s.svc.Definition(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load definition %s: %w", id, err)
		}
		summaries = append(summaries, definitionSummary{
			ID:    def.ID,
			Name:  def.Name,
			Nodes: len(def.Nodes),
			Edges: len(def.Edges),
			Valid: runtime.Validate(def).Valid,
		})
	}
	jsonBytes, _ := json.Marshal(summaries)

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      DefinitionsURI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}
