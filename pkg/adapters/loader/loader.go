package loader

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/sopflow/internal/logging"
	"github.com/aretw0/sopflow/pkg/domain"
	"github.com/fsnotify/fsnotify"
)

var extensions = map[string]bool{".yaml": true, ".yml": true, ".json": true}

// Loader implements ports.DefinitionLoader over a directory of definition files.
// Files are read once on construction and again on Reload.
type Loader struct {
	dir    string
	logger *slog.Logger

	mu          sync.RWMutex
	definitions map[string]*domain.Definition
	sources     map[string]string
}

// Option configures the Loader.
type Option func(*Loader)

// WithLogger sets the logger used to report reloads.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New scans dir and returns a loader serving its definitions.
func New(dir string, opts ...Option) (*Loader, error) {
	l := &Loader{dir: dir, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(l)
	}
	if err := l.Reload(); err != nil {
		return nil, err
	}
	return l, nil
}

// Dir returns the directory being served.
func (l *Loader) Dir() string {
	return l.dir
}

// Reload re-reads every definition file. On error the previous set is kept.
func (l *Loader) Reload() error {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return fmt.Errorf("failed to read definitions directory: %w", err)
	}

	defs := make(map[string]*domain.Definition)
	sources := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !extensions[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		path := filepath.Join(l.dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		def, err := Decode(data, strings.TrimSuffix(name, filepath.Ext(name)))
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if existing, ok := sources[def.ID]; ok {
			return fmt.Errorf("collision detected: ID '%s' is defined in both '%s' and '%s'", def.ID, existing, path)
		}
		defs[def.ID] = def
		sources[def.ID] = path
	}

	l.mu.Lock()
	l.definitions = defs
	l.sources = sources
	l.mu.Unlock()

	l.logger.Debug("definitions loaded", "dir", l.dir, "count", len(defs))
	return nil
}

// GetDefinition returns a copy of the definition with the given ID.
func (l *Loader) GetDefinition(ctx context.Context, id string) (*domain.Definition, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	def, ok := l.definitions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrDefinitionNotFound, id)
	}
	out := *def
	out.Nodes = append([]domain.Node(nil), def.Nodes...)
	out.Edges = append([]domain.Edge(nil), def.Edges...)
	return &out, nil
}

// ListDefinitions returns all definition IDs, sorted.
func (l *Loader) ListDefinitions(ctx context.Context) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ids := make([]string, 0, len(l.definitions))
	for id := range l.definitions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Source returns the file a definition was read from.
func (l *Loader) Source(id string) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	path, ok := l.sources[id]
	return path, ok
}

// Watch reloads definitions when files in the directory change and signals
// on the returned channel after each successful reload. The channel closes
// when ctx is done.
func (l *Loader) Watch(ctx context.Context) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(l.dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", l.dir, err)
	}

	changes := make(chan struct{}, 1)
	go func() {
		defer close(changes)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !extensions[strings.ToLower(filepath.Ext(evt.Name))] {
					continue
				}
				if err := l.Reload(); err != nil {
					l.logger.Warn("definition reload failed", "file", evt.Name, "error", err)
					continue
				}
				select {
				case changes <- struct{}{}:
				default: // a signal is already pending
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				l.logger.Warn("definition watcher error", "error", err)
			}
		}
	}()
	return changes, nil
}
