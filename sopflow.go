package sopflow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/aretw0/sopflow/internal/logging"
	"github.com/aretw0/sopflow/internal/presentation/graph"
	"github.com/aretw0/sopflow/internal/runtime"
	"github.com/aretw0/sopflow/pkg/adapters/loader"
	"github.com/aretw0/sopflow/pkg/adapters/memory"
	"github.com/aretw0/sopflow/pkg/cases"
	"github.com/aretw0/sopflow/pkg/domain"
	"github.com/aretw0/sopflow/pkg/export"
	"github.com/aretw0/sopflow/pkg/notify"
	"github.com/aretw0/sopflow/pkg/persistence/middleware"
	"github.com/aretw0/sopflow/pkg/ports"
)

// Runtime types re-exported for callers outside this module.
type (
	TransitionRequest = runtime.TransitionRequest
	TransitionResult  = runtime.TransitionResult
	Progress          = runtime.Progress
	ValidationResult  = runtime.ValidationResult
)

// Engine is the high-level entry point for the sopflow library.
// It wires a definition source, a case store and the runtime into a cases.Manager
// and provides a simplified API for consumers.
type Engine struct {
	Name string

	loader      ports.DefinitionLoader
	store       ports.ObjectStore
	audit       ports.AuditLog
	locker      ports.DistributedLocker
	middlewares []middleware.Middleware
	piiFields   []string
	runtimeOpts []runtime.EngineOption
	hooks       []domain.LifecycleHooks
	onChange    []cases.ChangeFunc
	logger      *slog.Logger

	runtime *runtime.Engine
	manager *cases.Manager
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLoader injects a custom DefinitionLoader, bypassing the directory loader.
func WithLoader(l ports.DefinitionLoader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithStore sets where cases are persisted. The default keeps them in memory.
func WithStore(s ports.ObjectStore) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithStoreMiddleware wraps the store. The first middleware given is the outermost.
func WithStoreMiddleware(mws ...middleware.Middleware) Option {
	return func(e *Engine) {
		e.middlewares = append(e.middlewares, mws...)
	}
}

// WithPIIFields masks audit field values whose names match any of the
// patterns wherever they leave the engine: the store, the audit log and
// OnChange callbacks. Masking runs before any WithStoreMiddleware layer.
func WithPIIFields(patterns ...string) Option {
	return func(e *Engine) {
		e.piiFields = append(e.piiFields, patterns...)
	}
}

// WithAuditLog records every applied transition outside of the case itself.
func WithAuditLog(l ports.AuditLog) Option {
	return func(e *Engine) {
		e.audit = l
	}
}

// WithLocker serializes transitions across replicas.
func WithLocker(l ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = l
	}
}

// WithLifecycleHooks registers observability hooks. It may be given several times.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = append(e.hooks, hooks)
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func withRuntimeOptions(opts ...runtime.EngineOption) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, opts...)
	}
}

// WithRoleEnforcement toggles the requiredRoles check. It is on by default.
func WithRoleEnforcement(enabled bool) Option {
	return withRuntimeOptions(runtime.WithRoleEnforcement(enabled))
}

// WithFieldTypeChecking validates field values against their declared types.
func WithFieldTypeChecking(enabled bool) Option {
	return withRuntimeOptions(runtime.WithFieldTypeChecking(enabled))
}

// WithCatalog sets the enumerations definitions are checked against.
func WithCatalog(c domain.Catalog) Option {
	return withRuntimeOptions(runtime.WithCatalog(c))
}

// WithClock overrides the time source of paths and audit entries.
func WithClock(clock func() time.Time) Option {
	return withRuntimeOptions(runtime.WithClock(clock))
}

// WithIDGenerator overrides how case and audit ids are minted.
func WithIDGenerator(gen func() string) Option {
	return withRuntimeOptions(runtime.WithIDGenerator(gen))
}

// OnChange is called after a case was opened, moved or deleted.
func OnChange(fn cases.ChangeFunc) Option {
	return func(e *Engine) {
		e.onChange = append(e.onChange, fn)
	}
}

// New initializes a new sopflow Engine.
// By default, it loads definitions from the YAML/JSON files in definitionsDir.
// If WithLoader option is provided, definitionsDir can be empty.
func New(definitionsDir string, opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}

	if eng.loader == nil {
		if definitionsDir == "" {
			return nil, fmt.Errorf("definitionsDir is required when no custom loader is provided")
		}
		absPath, err := filepath.Abs(definitionsDir)
		if err != nil {
			return nil, fmt.Errorf("invalid path: %w", err)
		}
		eng.Name = filepath.Base(absPath)

		l, err := loader.New(absPath, loader.WithLogger(eng.logger))
		if err != nil {
			return nil, fmt.Errorf("failed to load definitions: %w", err)
		}
		eng.loader = l
	} else if definitionsDir != "" {
		eng.Name = filepath.Base(definitionsDir)
	}

	if eng.Name != "" {
		eng.logger = eng.logger.With("sop_repo", eng.Name)
	}

	if eng.store == nil {
		eng.store = memory.NewStore()
	}
	var masker *middleware.Masker
	if len(eng.piiFields) > 0 {
		m, err := middleware.NewMasker(eng.piiFields)
		if err != nil {
			return nil, err
		}
		masker = m
		eng.middlewares = append([]middleware.Middleware{masker.Middleware()}, eng.middlewares...)
	}
	eng.store = middleware.Chain(eng.store, eng.middlewares...)

	runtimeOpts := append([]runtime.EngineOption{
		runtime.WithLogger(eng.logger),
		runtime.WithLifecycleHooks(domain.Merge(eng.hooks...)),
	}, eng.runtimeOpts...)
	eng.runtime = runtime.NewEngine(runtimeOpts...)

	managerOpts := []cases.Option{
		cases.WithEngine(eng.runtime),
		cases.WithLogger(eng.logger),
	}
	if eng.audit != nil {
		managerOpts = append(managerOpts, cases.WithAuditLog(eng.audit))
	}
	if eng.locker != nil {
		managerOpts = append(managerOpts, cases.WithLocker(eng.locker))
	}
	if masker != nil {
		managerOpts = append(managerOpts, cases.WithRedactor(masker))
	}
	for _, fn := range eng.onChange {
		managerOpts = append(managerOpts, cases.OnChange(fn))
	}
	eng.manager = cases.NewManager(eng.loader, eng.store, managerOpts...)

	return eng, nil
}

// Manager exposes the case manager.
func (e *Engine) Manager() *cases.Manager {
	return e.manager
}

// Loader exposes the definition source.
func (e *Engine) Loader() ports.DefinitionLoader {
	return e.loader
}

// Runtime exposes the underlying runtime engine.
func (e *Engine) Runtime() *runtime.Engine {
	return e.runtime
}

// Definitions lists the available definition ids.
func (e *Engine) Definitions(ctx context.Context) ([]string, error) {
	return e.loader.ListDefinitions(ctx)
}

// Definition returns one definition.
func (e *Engine) Definition(ctx context.Context, id string) (*domain.Definition, error) {
	return e.loader.GetDefinition(ctx, id)
}

// Report is the outcome of checking a definition: the structural rules plus
// advisory catalog warnings.
type Report struct {
	runtime.ValidationResult
	Warnings []string `json:"warnings"`
}

// Validate checks a loaded definition.
func (e *Engine) Validate(ctx context.Context, id string) (Report, error) {
	def, err := e.loader.GetDefinition(ctx, id)
	if err != nil {
		return Report{}, err
	}
	return e.ValidateDefinition(def), nil
}

// ValidateDefinition checks a definition that has not been loaded, e.g. one being edited.
func (e *Engine) ValidateDefinition(def *domain.Definition) Report {
	warnings := e.runtime.CheckCatalog(def)
	if warnings == nil {
		warnings = []string{}
	}
	return Report{ValidationResult: runtime.Validate(def), Warnings: warnings}
}

// Open creates a new case of the given definition.
func (e *Engine) Open(ctx context.Context, definitionID, name, color string) (*domain.Object, error) {
	return e.manager.Open(ctx, definitionID, name, color)
}

// Move applies one action to a case.
func (e *Engine) Move(ctx context.Context, objectID string, req runtime.TransitionRequest) (*runtime.TransitionResult, error) {
	return e.manager.Apply(ctx, objectID, req)
}

// Case loads a case.
func (e *Engine) Case(ctx context.Context, objectID string) (*domain.Object, error) {
	return e.manager.Load(ctx, objectID)
}

// Cases lists the ids of stored cases.
func (e *Engine) Cases(ctx context.Context) ([]string, error) {
	return e.manager.List(ctx)
}

// Delete removes a case.
func (e *Engine) Delete(ctx context.Context, objectID string) error {
	return e.manager.Delete(ctx, objectID)
}

// Progress estimates the completion of a case.
func (e *Engine) Progress(ctx context.Context, objectID string) (runtime.Progress, error) {
	return e.manager.Progress(ctx, objectID)
}

// Actions lists what a case can do next, for role when given.
func (e *Engine) Actions(ctx context.Context, objectID, role string) ([]domain.Edge, error) {
	return e.manager.Actions(ctx, objectID, role)
}

// History returns the audit trail of a case.
func (e *Engine) History(ctx context.Context, objectID string) ([]domain.AuditEntry, error) {
	return e.manager.History(ctx, objectID)
}

// ExportCSV writes the audit trail of a case as CSV.
func (e *Engine) ExportCSV(ctx context.Context, objectID string, w io.Writer) error {
	entries, err := e.manager.History(ctx, objectID)
	if err != nil {
		return err
	}
	return export.WriteCSV(w, entries)
}

// Graph renders a definition as Mermaid. When objectID is set, the case path is highlighted.
func (e *Engine) Graph(ctx context.Context, definitionID, objectID string) (string, error) {
	def, err := e.loader.GetDefinition(ctx, definitionID)
	if err != nil {
		return "", err
	}
	var overlay *graph.GraphOverlay
	if objectID != "" {
		obj, err := e.manager.Load(ctx, objectID)
		if err != nil {
			return "", err
		}
		overlay = graph.OverlayFor(obj)
	}
	return graph.GenerateMermaid(def, overlay), nil
}

// Preview renders a notification spec with the given variables.
func Preview(spec domain.NotificationSpec, vars map[string]string) []notify.Preview {
	return notify.Format(spec, vars)
}
