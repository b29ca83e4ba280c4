package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/sopflow"
	"github.com/aretw0/sopflow/internal/config"
	"github.com/aretw0/sopflow/pkg/adapters/file"
	"github.com/aretw0/sopflow/pkg/adapters/gormaudit"
	httpAdapter "github.com/aretw0/sopflow/pkg/adapters/http"
	"github.com/aretw0/sopflow/pkg/adapters/loader"
	"github.com/aretw0/sopflow/pkg/adapters/memory"
	"github.com/aretw0/sopflow/pkg/adapters/redis"
	"github.com/aretw0/sopflow/pkg/observability"
	"github.com/aretw0/sopflow/pkg/persistence/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// App bundles an engine with the collaborators the commands need around it.
type App struct {
	Config   config.Config
	Engine   *sopflow.Engine
	Loader   *loader.Loader
	Registry *prometheus.Registry
	Streams  *httpAdapter.StreamManager
	Logger   *slog.Logger

	closers []func() error
}

// NewApp initializes a sopflow engine following the configuration.
func NewApp(cfg config.Config, logger *slog.Logger) (*App, error) {
	app := &App{
		Config:   cfg,
		Registry: prometheus.NewRegistry(),
		Streams:  httpAdapter.NewStreamManager(logger),
		Logger:   logger,
	}

	defs, err := loader.New(cfg.DefinitionsDir, loader.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("error loading definitions: %w", err)
	}
	app.Loader = defs

	metrics, err := observability.NewMetrics(app.Registry)
	if err != nil {
		return nil, fmt.Errorf("error registering metrics: %w", err)
	}

	engineOpts := []sopflow.Option{
		sopflow.WithLoader(defs),
		sopflow.WithLogger(logger),
		sopflow.WithLifecycleHooks(metrics.Hooks()),
		sopflow.WithLifecycleHooks(observability.LoggingHooks(logger)),
		sopflow.WithRoleEnforcement(cfg.Runtime.EnforceRoles),
		sopflow.WithFieldTypeChecking(cfg.Runtime.CheckFieldTypes),
		sopflow.WithCatalog(cfg.Catalog),
		sopflow.OnChange(app.Streams.Publish),
	}

	storeOpts, err := app.storeOptions(cfg)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	engineOpts = append(engineOpts, storeOpts...)

	mws, err := storeMiddlewares(cfg.Security)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	engineOpts = append(engineOpts, sopflow.WithStoreMiddleware(mws...))
	if len(cfg.Security.PIIFields) > 0 {
		engineOpts = append(engineOpts, sopflow.WithPIIFields(cfg.Security.PIIFields...))
	}

	auditOpts, err := app.auditOptions(cfg)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	engineOpts = append(engineOpts, auditOpts...)

	engine, err := sopflow.New(cfg.DefinitionsDir, engineOpts...)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	app.Engine = engine

	logger.Debug("engine ready",
		"definitions", cfg.DefinitionsDir,
		"store", cfg.Store.Backend,
		"audit", cfg.Audit.Driver,
	)
	return app, nil
}

// Close releases the store and audit connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) storeOptions(cfg config.Config) ([]sopflow.Option, error) {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		return []sopflow.Option{sopflow.WithStore(memory.NewStore())}, nil
	case config.BackendFile:
		return []sopflow.Option{sopflow.WithStore(file.New(cfg.CasesDir()))}, nil
	case config.BackendRedis:
		rc := cfg.Store.Redis
		store := redis.New(rc.Address, rc.Password, rc.DB, redis.WithPrefix(rc.Prefix), redis.WithTTL(rc.TTL))
		a.closers = append(a.closers, store.Close)
		opts := []sopflow.Option{sopflow.WithStore(store)}
		if rc.Lock {
			opts = append(opts, sopflow.WithLocker(redis.NewLocker(store.Client(), rc.Prefix)))
		}
		return opts, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func (a *App) auditOptions(cfg config.Config) ([]sopflow.Option, error) {
	switch cfg.Audit.Driver {
	case config.AuditNone, "":
		return nil, nil
	case config.AuditMemory:
		return []sopflow.Option{sopflow.WithAuditLog(memory.NewAuditLog())}, nil
	case config.AuditSQLite:
		path := cfg.AuditPath()
		if path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return nil, fmt.Errorf("error creating audit directory: %w", err)
			}
		}
		log, err := gormaudit.OpenSQLite(path)
		if err != nil {
			return nil, fmt.Errorf("error opening audit log: %w", err)
		}
		a.closers = append(a.closers, log.Close)
		return []sopflow.Option{sopflow.WithAuditLog(log)}, nil
	default:
		return nil, fmt.Errorf("unknown audit driver %q", cfg.Audit.Driver)
	}
}

// storeMiddlewares builds the encryption layer. PII masking is configured
// through sopflow.WithPIIFields, which always runs before it so masked values
// are what gets sealed.
func storeMiddlewares(sec config.SecurityConfig) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware

	if sec.EncryptionKey != "" {
		active, err := middleware.ParseKey(sec.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("invalid encryption key: %w", err)
		}
		var fallbacks [][]byte
		for i, k := range sec.FallbackKeys {
			fk, err := middleware.ParseKey(k)
			if err != nil {
				return nil, fmt.Errorf("invalid fallback key %d: %w", i, err)
			}
			fallbacks = append(fallbacks, fk)
		}
		enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: active, FallbackKeys: fallbacks})
		if err != nil {
			return nil, err
		}
		mws = append(mws, enc)
	}

	return mws, nil
}
