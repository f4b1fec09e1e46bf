package pitch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// TemplateWatcher watches a prompt template file and reloads it into a
// PromptBuilder when it changes. Editors tend to replace files via
// rename, so the watch is on the parent directory with events filtered
// by name.
type TemplateWatcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	builder     *PromptBuilder
	logger      *zap.Logger
	path        string
	debounceDur time.Duration
	pending     time.Time
	reloads     int
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
}

// NewTemplateWatcher creates a watcher for the template at path.
func NewTemplateWatcher(builder *PromptBuilder, path string, logger *zap.Logger) (*TemplateWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &TemplateWatcher{
		watcher:     watcher,
		builder:     builder,
		logger:      logger,
		path:        filepath.Clean(path),
		debounceDur: 500 * time.Millisecond, // settle window for rapid saves
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start loads the template once and begins watching. Non-blocking. A
// missing file is not an error; the builder keeps its current template
// until the file appears.
func (w *TemplateWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.builder.LoadFile(w.path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			w.logger.Info("template file absent, using built-in template",
				zap.String("path", w.path))
		} else {
			w.logger.Warn("initial template load failed",
				zap.String("path", w.path), zap.Error(err))
		}
	}

	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	w.logger.Info("watching template", zap.String("path", w.path))

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *TemplateWatcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		w.logger.Warn("error closing template watcher", zap.Error(err))
	}
}

// run is the watcher event loop.
func (w *TemplateWatcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-w.stopCh:
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
			w.logger.Warn("template watcher error", zap.Error(err))

		case <-ticker.C:
			w.processPending()
		}
	}
}

// handleEvent records a change to the watched file for debounced
// processing.
func (w *TemplateWatcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
		return
	}

	w.mu.Lock()
	w.pending = time.Now()
	w.mu.Unlock()
}

// processPending reloads the template once changes have settled past
// the debounce window.
func (w *TemplateWatcher) processPending() {
	w.mu.Lock()
	due := !w.pending.IsZero() && time.Since(w.pending) >= w.debounceDur
	if due {
		w.pending = time.Time{}
	}
	w.mu.Unlock()

	if !due {
		return
	}

	if err := w.builder.LoadFile(w.path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// Deleted: fall back to the built-in template.
			w.builder.SetTemplate("")
			w.logger.Info("template removed, restored built-in template",
				zap.String("path", w.path))
		} else {
			w.logger.Warn("template reload failed",
				zap.String("path", w.path), zap.Error(err))
			return
		}
	} else {
		w.logger.Info("template reloaded", zap.String("path", w.path))
	}

	w.mu.Lock()
	w.reloads++
	w.mu.Unlock()
}

// Reloads returns how many times the template has been swapped in.
func (w *TemplateWatcher) Reloads() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reloads
}

// IsWatching reports whether the event loop is running.
func (w *TemplateWatcher) IsWatching() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
