// Package watch regenerates templates when they change on disk.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Handler receives the absolute paths changed since the last call, sorted.
type Handler func(ctx context.Context, changed []string) error

type Option func(*Watcher)

func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithExtensions sets the template extensions that trigger the handler.
// web.config files always trigger it.
func WithExtensions(exts ...string) Option {
	return func(w *Watcher) {
		w.extensions = exts
	}
}

// Watcher monitors a project tree and calls its handler with batches of changed
// templates once the tree has been quiet for the debounce period.
type Watcher struct {
	root       string
	extensions []string
	debounce   time.Duration
	handler    Handler
	logger     *slog.Logger

	watcher *fsnotify.Watcher

	mu       sync.Mutex
	pending  map[string]struct{}
	started  bool
	stopChan chan struct{}
	trigger  chan struct{}
	done     sync.WaitGroup
}

func New(root string, handler Handler, opts ...Option) (*Watcher, error) {
	if handler == nil {
		return nil, fmt.Errorf("watch handler cannot be nil")
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve watch root: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		root:       absRoot,
		extensions: []string{".cshtml"},
		debounce:   500 * time.Millisecond,
		handler:    handler,
		logger:     slog.Default(),
		watcher:    fw,
		pending:    make(map[string]struct{}),
		stopChan:   make(chan struct{}),
		trigger:    make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start watches every directory under the root and returns. Events are handled
// until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return fmt.Errorf("watcher already started")
	}
	if err := w.addTree(w.root); err != nil {
		return err
	}
	w.started = true

	w.logger.Info("Watching templates", "root", w.root, "extensions", w.extensions)

	w.done.Add(2)
	go w.watchLoop(ctx)
	go w.flushLoop(ctx)
	return nil
}

// Stop ends both loops and closes the underlying watcher. Pending changes that
// have not been flushed are dropped.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return w.watcher.Close()
	}
	w.started = false
	close(w.stopChan)
	w.mu.Unlock()

	err := w.watcher.Close()
	w.done.Wait()
	return err
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(p); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", p, err)
		}
		return nil
	})
}

// Relevant reports whether a change to name should trigger regeneration.
func (w *Watcher) Relevant(name string) bool {
	base := filepath.Base(name)
	if strings.EqualFold(base, "web.config") {
		return true
	}
	lower := strings.ToLower(base)
	for _, ext := range w.extensions {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

func (w *Watcher) watchLoop(ctx context.Context) {
	defer w.done.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Template watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&fsnotify.Create == fsnotify.Create {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.logger.Warn("Failed to watch new directory", "dir", event.Name, "error", err)
			}
			return
		}
	}

	if !w.Relevant(event.Name) {
		return
	}

	switch {
	case event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0:
		w.logger.Debug("Template change detected", "file", event.Name, "op", event.Op.String())
	case event.Op&fsnotify.Remove == fsnotify.Remove:
		w.logger.Debug("Template removed", "file", event.Name)
	default:
		return
	}

	w.mu.Lock()
	w.pending[event.Name] = struct{}{}
	w.mu.Unlock()

	select {
	case w.trigger <- struct{}{}:
	default:
	}
}

// flushLoop debounces triggers and hands the accumulated paths to the handler.
func (w *Watcher) flushLoop(ctx context.Context) {
	defer w.done.Done()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case <-w.trigger:
			timer.Reset(w.debounce)
		case <-timer.C:
			w.flush(ctx)
		}
	}
}

func (w *Watcher) flush(ctx context.Context) {
	w.mu.Lock()
	changed := make([]string, 0, len(w.pending))
	for p := range w.pending {
		changed = append(changed, p)
	}
	w.pending = make(map[string]struct{})
	w.mu.Unlock()

	if len(changed) == 0 {
		return
	}
	slices.Sort(changed)

	w.logger.Info("Regenerating templates", "count", len(changed))
	if err := w.handler(ctx, changed); err != nil {
		w.logger.Error("Regeneration failed", "error", err)
	}
}
