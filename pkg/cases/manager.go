package cases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/sopflow/internal/logging"
	"github.com/aretw0/sopflow/internal/runtime"
	"github.com/aretw0/sopflow/pkg/domain"
	"github.com/aretw0/sopflow/pkg/ports"
)

const defaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// ChangeFunc is called after an object was created, moved or deleted.
// old is nil for new objects and next is nil for deleted ones.
type ChangeFunc func(ctx context.Context, old, next *domain.Object)

// Redactor hides sensitive values before they leave the store boundary:
// audit log appends and change notifications.
type Redactor interface {
	MaskEntry(entry domain.AuditEntry) domain.AuditEntry
	MaskObject(obj *domain.Object) *domain.Object
}

// Manager orchestrates case access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	engine *runtime.Engine
	loader ports.DefinitionLoader
	store  ports.ObjectStore
	audit  ports.AuditLog

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker   ports.DistributedLocker // Optional distributed locker
	lockTTL  time.Duration
	maxInput int
	logger   *slog.Logger
	onChange []ChangeFunc
	redactor Redactor
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the lease of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithMaxInputSize bounds each string submitted with a transition.
// Zero or less disables the size check; control characters are still stripped.
func WithMaxInputSize(n int) Option {
	return func(m *Manager) {
		m.maxInput = n
	}
}

// WithAuditLog records every applied transition in log.
func WithAuditLog(log ports.AuditLog) Option {
	return func(m *Manager) {
		m.audit = log
	}
}

// WithRedactor masks audit entries before they are appended to the audit log
// and objects before they are handed to OnChange callbacks.
func WithRedactor(r Redactor) Option {
	return func(m *Manager) {
		m.redactor = r
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithEngine replaces the default runtime engine.
func WithEngine(engine *runtime.Engine) Option {
	return func(m *Manager) {
		if engine != nil {
			m.engine = engine
		}
	}
}

// OnChange registers a callback fired after each successful write.
func OnChange(fn ChangeFunc) Option {
	return func(m *Manager) {
		m.onChange = append(m.onChange, fn)
	}
}

// NewManager creates a Manager over the given definition source and object store.
func NewManager(loader ports.DefinitionLoader, store ports.ObjectStore, opts ...Option) *Manager {
	m := &Manager{
		engine:   runtime.NewEngine(),
		loader:   loader,
		store:    store,
		locks:    make(map[string]*lockEntry),
		lockTTL:  defaultLockTTL,
		maxInput: DefaultMaxInputSize,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Engine returns the runtime engine used for transitions.
func (m *Manager) Engine() *runtime.Engine {
	return m.engine
}

// Loader returns the definition source.
func (m *Manager) Loader() ports.DefinitionLoader {
	return m.loader
}

// Store returns the underlying object store.
func (m *Manager) Store() ports.ObjectStore {
	return m.store
}

// Definition returns the definition with the given ID.
func (m *Manager) Definition(ctx context.Context, id string) (*domain.Definition, error) {
	return m.loader.GetDefinition(ctx, id)
}

// Open creates a new case on the definition's start node and persists it.
func (m *Manager) Open(ctx context.Context, definitionID, name, color string) (*domain.Object, error) {
	def, err := m.loader.GetDefinition(ctx, definitionID)
	if err != nil {
		return nil, err
	}
	obj, err := m.engine.CreateObject(ctx, def, name, color)
	if err != nil {
		return nil, err
	}

	err = m.WithLock(ctx, obj.ID, func(ctx context.Context) error {
		if err := m.store.Save(ctx, obj); err != nil {
			return fmt.Errorf("failed to save case %s: %w", obj.ID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("case opened", "object_id", obj.ID, "definition_id", def.ID)
	m.notify(ctx, nil, obj)
	return obj, nil
}

// Apply loads the case, runs the transition and persists the result while
// holding the case lock, so concurrent actions on one case never race.
func (m *Manager) Apply(ctx context.Context, objectID string, req runtime.TransitionRequest) (*runtime.TransitionResult, error) {
	req, err := sanitizeRequest(req, m.maxInput)
	if err != nil {
		return nil, err
	}

	var (
		old *domain.Object
		res *runtime.TransitionResult
	)
	err = m.WithLock(ctx, objectID, func(ctx context.Context) error {
		var err error
		old, err = m.store.Load(ctx, objectID)
		if err != nil {
			return err
		}
		def, err := m.loader.GetDefinition(ctx, old.DefinitionID)
		if err != nil {
			return err
		}
		res, err = m.engine.Transition(ctx, def, old, req)
		if err != nil {
			return err
		}
		if err := m.store.Save(ctx, res.Object); err != nil {
			return fmt.Errorf("failed to save case %s: %w", objectID, err)
		}
		if m.audit != nil {
			// The object already carries the entry; a failed append only degrades exports.
			if err := m.audit.Append(ctx, def.ID, m.redactEntry(res.Entry)); err != nil {
				m.logger.Warn("failed to append audit entry", "object_id", objectID, "entry_id", res.Entry.ID, "err", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("case moved",
		"object_id", objectID,
		"action", res.Entry.Action,
		"from", res.Entry.FromNodeID,
		"to", res.Entry.ToNodeID,
		"actor", req.Actor,
	)
	m.notify(ctx, old, res.Object)
	return res, nil
}

// Load retrieves an existing case from the store.
func (m *Manager) Load(ctx context.Context, objectID string) (*domain.Object, error) {
	var obj *domain.Object
	err := m.WithLock(ctx, objectID, func(ctx context.Context) error {
		var err error
		obj, err = m.store.Load(ctx, objectID)
		return err
	})
	return obj, err
}

// Delete removes the case from the store.
func (m *Manager) Delete(ctx context.Context, objectID string) error {
	var old *domain.Object
	err := m.WithLock(ctx, objectID, func(ctx context.Context) error {
		var err error
		old, err = m.store.Load(ctx, objectID)
		if err != nil {
			return err
		}
		return m.store.Delete(ctx, objectID)
	})
	if err != nil {
		return err
	}
	m.notify(ctx, old, nil)
	return nil
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Progress estimates how far the case has come.
func (m *Manager) Progress(ctx context.Context, objectID string) (runtime.Progress, error) {
	obj, def, err := m.loadWithDefinition(ctx, objectID)
	if err != nil {
		return runtime.Progress{}, err
	}
	return runtime.EstimateProgress(def, obj), nil
}

// Actions lists the actions the case can take next, filtered by role when given.
func (m *Manager) Actions(ctx context.Context, objectID, role string) ([]domain.Edge, error) {
	obj, def, err := m.loadWithDefinition(ctx, objectID)
	if err != nil {
		return nil, err
	}
	return runtime.AvailableActions(def, obj, role), nil
}

// History returns the audit entries of a case, from the audit log when one
// is configured and from the object otherwise.
func (m *Manager) History(ctx context.Context, objectID string) ([]domain.AuditEntry, error) {
	if m.audit != nil {
		entries, err := m.audit.ListByObject(ctx, objectID)
		if err == nil && len(entries) > 0 {
			return entries, nil
		}
		if err != nil {
			m.logger.Warn("audit log query failed, using case trail", "object_id", objectID, "err", err)
		}
	}
	obj, err := m.Load(ctx, objectID)
	if err != nil {
		return nil, err
	}
	return obj.Audit, nil
}

func (m *Manager) loadWithDefinition(ctx context.Context, objectID string) (*domain.Object, *domain.Definition, error) {
	obj, err := m.Load(ctx, objectID)
	if err != nil {
		return nil, nil, err
	}
	def, err := m.loader.GetDefinition(ctx, obj.DefinitionID)
	if err != nil {
		return nil, nil, err
	}
	return obj, def, nil
}

func (m *Manager) notify(ctx context.Context, old, next *domain.Object) {
	if len(m.onChange) == 0 {
		return
	}
	if m.redactor != nil {
		old, next = m.redactor.MaskObject(old), m.redactor.MaskObject(next)
	}
	for _, fn := range m.onChange {
		fn(ctx, old, next)
	}
}

func (m *Manager) redactEntry(entry domain.AuditEntry) domain.AuditEntry {
	if m.redactor == nil {
		return entry
	}
	return m.redactor.MaskEntry(entry)
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(objectID) after unlocking.
func (m *Manager) acquire(objectID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[objectID]
	if !exists {
		entry = &lockEntry{}
		m.locks[objectID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(objectID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[objectID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, objectID)
	}
}

// WithLock executes a function while holding the lock for the case.
func (m *Manager) WithLock(ctx context.Context, objectID string, fn func(context.Context) error) error {
	entry := m.acquire(objectID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(objectID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, objectID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			// Use a fresh context so a canceled request still releases the lock.
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := unlock(releaseCtx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"object_id", objectID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// IsNotFound reports whether err means the case or its definition is missing.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrObjectNotFound) || errors.Is(err, domain.ErrDefinitionNotFound)
}
