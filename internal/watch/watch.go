// Package watch re-runs an action when a source file changes.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Handler is called with the watched path once changes have settled.
type Handler func(ctx context.Context, path string)

// Stats counts watcher activity.
type Stats struct {
	Events int // relevant filesystem events
	Runs   int // handler invocations
	Errors int // errors reported by the watcher
}

// Watcher watches one file. It watches the file's directory so that
// editors which save by renaming a new file into place are seen too.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	path     string
	handler  Handler
	debounce time.Duration
	pending  time.Time // time of the last unprocessed event; zero if none
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
	stats    Stats
	log      *zap.Logger
}

// New creates a watcher for path. A nil logger disables logging.
func New(path string, handler Handler, debounce time.Duration, logger *zap.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}
	return &Watcher{
		watcher:  watcher,
		path:     abs,
		handler:  handler,
		debounce: debounce,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
		log:      logger.With(zap.String("path", abs)),
	}, nil
}

// Start begins watching. It does not block; the handler runs on the
// watcher's goroutine, so runs never overlap.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		close(w.doneCh)
		return fmt.Errorf("watch %s: %w", w.path, err)
	}
	w.log.Debug("watching")

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Stop() {
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
		w.log.Warn("closing watcher", zap.Error(err))
	}
	w.log.Debug("stopped")
}

// Stats returns a snapshot of the activity counters.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	tick := max(w.debounce/4, 5*time.Millisecond)
	ticker := time.NewTicker(tick)
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
			w.log.Warn("watcher error", zap.Error(err))
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-ticker.C:
			w.processSettled(ctx)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return
	}
	w.log.Debug("change", zap.Stringer("op", event.Op))

	w.mu.Lock()
	w.stats.Events++
	w.pending = time.Now()
	w.mu.Unlock()
}

// processSettled runs the handler once no event has arrived for the
// debounce interval.
func (w *Watcher) processSettled(ctx context.Context) {
	w.mu.Lock()
	if w.pending.IsZero() || time.Since(w.pending) < w.debounce {
		w.mu.Unlock()
		return
	}
	w.pending = time.Time{}
	w.stats.Runs++
	w.mu.Unlock()

	w.handler(ctx, w.path)
}
