package credential

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the credential pool when its file changes on disk.
// Events are debounced so editors that write in several steps trigger a
// single reload. Runtime health state survives a reload for entries
// whose refresh token is unchanged.
type Watcher struct {
	path     string
	store    *Store
	watcher  *fsnotify.Watcher
	debounce *debouncer
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewWatcher builds a Watcher over the credential file feeding the store.
func NewWatcher(path string, store *Store, debounceInterval time.Duration, logger *slog.Logger) (*Watcher, error) {
	if debounceInterval <= 0 {
		debounceInterval = 100 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	return &Watcher{
		path:     path,
		store:    store,
		watcher:  fsw,
		debounce: newDebouncer(debounceInterval),
		logger:   logger.With("component", "credential-watcher"),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Watch blocks processing file events until the context is cancelled or
// Stop is called. A reload failure keeps the previous pool intact.
func (w *Watcher) Watch(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		close(w.doneCh)
	}()

	if err := w.watcher.Add(w.path); err != nil {
		return fmt.Errorf("failed to watch %q: %w", w.path, err)
	}
	w.logger.Info("credential file watcher started", "path", w.path)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("credential file watcher stopped (context cancelled)")
			return nil

		case <-w.stopCh:
			w.logger.Info("credential file watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.debounce.trigger(func() {
				if err := w.reload(); err != nil {
					w.logger.Error("credential reload failed, keeping previous pool", "error", err)
				}
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("credential file watcher error", "error", err)
		}
	}
}

func (w *Watcher) reload() error {
	creds, err := LoadFile(w.path)
	if err != nil {
		return err
	}
	w.store.Replace(creds)
	w.logger.Info("credential pool reloaded", "count", len(creds))

	// Some editors replace the file, detaching the watch.
	_ = w.watcher.Remove(w.path)
	if err := w.watcher.Add(w.path); err != nil {
		w.logger.Warn("failed to rearm credential file watch", "error", err)
	}
	return nil
}

// Stop terminates the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	w.debounce.stop()
	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}

// debouncer collapses bursts of events into one callback after a quiet
// interval.
type debouncer struct {
	interval time.Duration
	mu       sync.Mutex
	timer    *time.Timer
	callback func()
	stopped  bool
}

func newDebouncer(interval time.Duration) *debouncer {
	return &debouncer{interval: interval}
}

func (d *debouncer) trigger(callback func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.callback = callback
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, func() {
		d.mu.Lock()
		cb := d.callback
		stopped := d.stopped
		d.mu.Unlock()
		if cb != nil && !stopped {
			cb()
		}
	})
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
}
