package runtime

import (
	"log/slog"
	"time"

	"github.com/aretw0/sopflow/internal/logging"
	"github.com/aretw0/sopflow/pkg/domain"
	"github.com/google/uuid"
)

// Engine executes transitions over a Definition.
// It holds only collaborators fixed at construction (clock, id source, logger,
// hooks and flags), never per-object state, so one Engine may be shared by
// any number of goroutines working on different objects.
type Engine struct {
	clock  func() time.Time
	newID  func() string
	logger *slog.Logger
	hooks  domain.LifecycleHooks

	enforceRoles    bool
	checkFieldTypes bool
	catalog         domain.Catalog
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithClock overrides the time source used for path and audit timestamps.
func WithClock(clock func() time.Time) EngineOption {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithIDGenerator overrides how object and audit ids are minted.
func WithIDGenerator(gen func() string) EngineOption {
	return func(e *Engine) {
		if gen != nil {
			e.newID = gen
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithRoleEnforcement toggles the requiredRoles precondition. It is on by default.
func WithRoleEnforcement(enabled bool) EngineOption {
	return func(e *Engine) {
		e.enforceRoles = enabled
	}
}

// WithFieldTypeChecking validates submitted field values against the declared
// field types. It is off by default.
func WithFieldTypeChecking(enabled bool) EngineOption {
	return func(e *Engine) {
		e.checkFieldTypes = enabled
	}
}

// WithCatalog sets the admin-configured enumerations used by CheckCatalog.
func WithCatalog(c domain.Catalog) EngineOption {
	return func(e *Engine) {
		e.catalog = c
	}
}

// NewEngine creates an engine with default collaborators.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		clock:        func() time.Time { return time.Now().UTC() },
		newID:        uuid.NewString,
		logger:       logging.NewNop(),
		enforceRoles: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Catalog returns the configured catalog.
func (e *Engine) Catalog() domain.Catalog {
	return e.catalog
}
