package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/sopflow"
	"github.com/aretw0/sopflow/internal/runtime"
	"github.com/aretw0/sopflow/pkg/cases"
	"github.com/aretw0/sopflow/pkg/domain"
	"github.com/aretw0/sopflow/pkg/notify"
	"github.com/aretw0/sopflow/pkg/observability"
	"github.com/aretw0/sopflow/pkg/ports"
	"github.com/getkin/kin-openapi/routers"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Service is the part of the sopflow engine the HTTP API drives.
type Service interface {
	Definitions(ctx context.Context) ([]string, error)
	Definition(ctx context.Context, id string) (*domain.Definition, error)
	Validate(ctx context.Context, id string) (sopflow.Report, error)
	Graph(ctx context.Context, definitionID, objectID string) (string, error)
	Open(ctx context.Context, definitionID, name, color string) (*domain.Object, error)
	Cases(ctx context.Context) ([]string, error)
	Case(ctx context.Context, objectID string) (*domain.Object, error)
	Delete(ctx context.Context, objectID string) error
	Move(ctx context.Context, objectID string, req runtime.TransitionRequest) (*runtime.TransitionResult, error)
	Progress(ctx context.Context, objectID string) (runtime.Progress, error)
	Actions(ctx context.Context, objectID, role string) ([]domain.Edge, error)
	ExportCSV(ctx context.Context, objectID string, w io.Writer) error
}

// Server holds the handlers of the API.
type Server struct {
	Service Service
	Streams *StreamManager

	watcher  ports.Watchable
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	router   routers.Router
}

// Option configures the handler.
type Option func(*Server)

// WithStreams shares a StreamManager that also receives case changes.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithWatcher streams definition reloads on /events without case_id.
func WithWatcher(w ports.Watchable) Option {
	return func(s *Server) {
		s.watcher = w
	}
}

// WithMetrics exposes the gatherer on /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewHandler creates a new HTTP handler for the service.
func NewHandler(svc Service, opts ...Option) (http.Handler, error) {
	server := &Server{
		Service: svc,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(server)
	}
	if server.Streams == nil {
		server.Streams = NewStreamManager(server.logger)
	}

	doc, err := GetSwagger()
	if err != nil {
		return nil, err
	}
	server.router, err = newSpecRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to build openapi router: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	if server.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(server.gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(requestValidator(server.router, server.invalidRequest))

		r.Get("/health", server.GetHealth)
		r.Get("/info", server.GetInfo)
		r.Get("/events", server.SubscribeEvents)

		r.Route("/definitions", func(r chi.Router) {
			r.Get("/", server.ListDefinitions)
			r.Get("/{id}", server.GetDefinition)
			r.Get("/{id}/validate", server.ValidateDefinition)
			r.Get("/{id}/graph", server.GetDefinitionGraph)
		})

		r.Route("/cases", func(r chi.Router) {
			r.Get("/", server.ListCases)
			r.Post("/", server.OpenCase)
			r.Get("/{id}", server.GetCase)
			r.Delete("/{id}", server.DeleteCase)
			r.Post("/{id}/transitions", server.TransitionCase)
			r.Get("/{id}/progress", server.GetCaseProgress)
			r.Get("/{id}/actions", server.ListCaseActions)
			r.Get("/{id}/audit.csv", server.ExportCaseAudit)
		})

		r.Post("/notifications/preview", server.PreviewNotification)
	})

	return r, nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>sopflow API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Code    string   `json:"code,omitempty"`
	Missing []string `json:"missing,omitempty"`
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":         "sopflow-http",
		"version":     strings.TrimSpace(sopflow.Version),
		"api_version": apiVersion,
	})
}

// ListDefinitions handles the GET /definitions request.
func (s *Server) ListDefinitions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Service.Definitions(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, nonNil(ids))
}

// GetDefinition handles the GET /definitions/{id} request.
func (s *Server) GetDefinition(w http.ResponseWriter, r *http.Request) {
	def, err := s.Service.Definition(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, def)
}

// ValidateDefinition handles the GET /definitions/{id}/validate request.
func (s *Server) ValidateDefinition(w http.ResponseWriter, r *http.Request) {
	report, err := s.Service.Validate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

// GetDefinitionGraph handles the GET /definitions/{id}/graph request.
func (s *Server) GetDefinitionGraph(w http.ResponseWriter, r *http.Request) {
	chart, err := s.Service.Graph(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("case_id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, chart)
}

// OpenCaseRequest is the body of POST /cases.
type OpenCaseRequest struct {
	DefinitionID string `json:"definitionId"`
	Name         string `json:"name"`
	Color        string `json:"color"`
}

// ListCases handles the GET /cases request.
func (s *Server) ListCases(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Service.Cases(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, nonNil(ids))
}

// OpenCase handles the POST /cases request.
func (s *Server) OpenCase(w http.ResponseWriter, r *http.Request) {
	var body OpenCaseRequest
	if !s.decode(w, r, &body) {
		return
	}
	obj, err := s.Service.Open(r.Context(), body.DefinitionID, body.Name, body.Color)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/cases/"+obj.ID)
	s.writeJSON(w, http.StatusCreated, obj)
}

// GetCase handles the GET /cases/{id} request.
func (s *Server) GetCase(w http.ResponseWriter, r *http.Request) {
	obj, err := s.Service.Case(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, obj)
}

// DeleteCase handles the DELETE /cases/{id} request.
func (s *Server) DeleteCase(w http.ResponseWriter, r *http.Request) {
	if err := s.Service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TransitionCase handles the POST /cases/{id}/transitions request.
func (s *Server) TransitionCase(w http.ResponseWriter, r *http.Request) {
	var body runtime.TransitionRequest
	if !s.decode(w, r, &body) {
		return
	}
	res, err := s.Service.Move(r.Context(), chi.URLParam(r, "id"), body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

// GetCaseProgress handles the GET /cases/{id}/progress request.
func (s *Server) GetCaseProgress(w http.ResponseWriter, r *http.Request) {
	p, err := s.Service.Progress(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

// ListCaseActions handles the GET /cases/{id}/actions request.
func (s *Server) ListCaseActions(w http.ResponseWriter, r *http.Request) {
	actions, err := s.Service.Actions(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("role"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, nonNil(actions))
}

// ExportCaseAudit handles the GET /cases/{id}/audit.csv request.
func (s *Server) ExportCaseAudit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	// Load first so a missing case is still a JSON 404.
	if _, err := s.Service.Case(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id+"-audit.csv"))
	if err := s.Service.ExportCSV(r.Context(), id, w); err != nil {
		s.logger.Error("Audit export failed", "object_id", id, "err", err)
	}
}

// PreviewRequest is the body of POST /notifications/preview.
type PreviewRequest struct {
	Spec domain.NotificationSpec `json:"spec"`
	Vars map[string]string       `json:"vars"`
}

// PreviewNotification handles the POST /notifications/preview request.
func (s *Server) PreviewNotification(w http.ResponseWriter, r *http.Request) {
	var body PreviewRequest
	if !s.decode(w, r, &body) {
		return
	}
	s.writeJSON(w, http.StatusOK, notify.Format(body.Spec, body.Vars))
}

// SubscribeEvents handles the GET /events request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	objectID := r.URL.Query().Get("case_id")

	// Definition reloads (no case)
	if objectID == "" {
		if s.watcher == nil {
			s.writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "definition watching is not enabled", Code: "not_watching"})
			return
		}
		events, err := s.watcher.Watch(r.Context())
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		sseHeaders(w)
		fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
		flusher.Flush()

		for {
			select {
			case <-r.Context().Done():
				return
			case _, ok := <-events:
				if !ok {
					return
				}
				fmt.Fprintf(w, "event: reload\ndata: definitions\n\n")
				flusher.Flush()
			}
		}
	}

	s.logger.Info("SSE: Subscribing to case updates", "object_id", objectID)
	ch, cancel := s.Streams.Subscribe(objectID)
	defer cancel()

	sseHeaders(w)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected", "object_id", objectID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func sseHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
}

// -- Helpers --

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.logger.Warn("Invalid request body", "path", r.URL.Path, "err", err)
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Code: "bad_request"})
		return false
	}
	return true
}

func (s *Server) invalidRequest(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Warn("Request rejected by schema", "path", r.URL.Path, "err", err)
	s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: firstLine(err), Code: "bad_request"})
}

// writeError maps domain errors to HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		terr *domain.TransitionError
		cerr *domain.ConfigurationError
	)
	switch {
	case errors.As(err, &terr):
		s.writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: terr.Message, Code: observability.RejectionReason(terr), Missing: terr.Missing})
	case errors.As(err, &cerr):
		s.writeJSON(w, http.StatusConflict, ErrorResponse{Error: cerr.Message, Code: "configuration"})
	case cases.IsNotFound(err):
		s.writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "not_found"})
	case errors.Is(err, context.Canceled):
		// Client went away.
	default:
		s.logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		s.writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error", Code: "internal"})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
