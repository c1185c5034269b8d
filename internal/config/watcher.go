package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/textcore/internal/logging"
)

// DefaultDebounce is how long the watcher waits after the last write
// before reloading.
const DefaultDebounce = 50 * time.Millisecond

// Watcher keeps a configuration file loaded and reloads it when the file
// is written. Failed reloads keep the previous configuration.
type Watcher struct {
	mu sync.RWMutex

	path     string
	current  *Config
	notifier *Notifier

	fsw      *fsnotify.Watcher
	debounce time.Duration
	logger   *logging.Logger

	// Lifecycle
	closed   bool
	closeCh  chan struct{}
	closedWg sync.WaitGroup
}

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// WithDebounce sets the quiet period between the last write and a reload.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger for reload and watch errors.
func WithLogger(l *logging.Logger) WatchOption {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithNotifier delivers changes through n instead of a private notifier.
func WithNotifier(n *Notifier) WatchOption {
	return func(w *Watcher) {
		if n != nil {
			w.notifier = n
		}
	}
}

// Watch loads the file at path and starts watching it. The initial load
// must succeed.
func Watch(path string, opts ...WatchOption) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: watch: %w", err)
	}
	w := &Watcher{
		path:     abs,
		notifier: NewNotifier(),
		debounce: DefaultDebounce,
		logger:   logging.NullLogger,
		closeCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.WithComponent("config")

	cfg, err := Load(abs)
	if err != nil {
		return nil, err
	}
	w.current = cfg

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: watch: %w", err)
	}
	// Editors often replace the file by renaming, so watch the directory.
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("config: watch %s: %w", filepath.Dir(abs), err)
	}
	w.fsw = fsw

	w.closedWg.Add(1)
	go w.processLoop()
	return w, nil
}

// Path returns the absolute path of the watched file.
func (w *Watcher) Path() string {
	return w.path
}

// Current returns a copy of the configuration in force.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current.Clone()
}

// Notifier returns the notifier changes are delivered through.
func (w *Watcher) Notifier() *Notifier {
	return w.notifier
}

// Subscribe is shorthand for Notifier().Subscribe.
func (w *Watcher) Subscribe(observer Observer) *Subscription {
	return w.notifier.Subscribe(observer)
}

// Reload loads the file now. A failure is delivered as a ChangeError and
// returned; a load that changes nothing delivers nothing.
func (w *Watcher) Reload() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWatcherClosed
	}
	old := w.current
	next, err := Load(w.path)
	if err != nil {
		w.mu.Unlock()
		w.logger.Warn("reload %s: %v", w.path, err)
		w.notifier.Notify(Change{Type: ChangeError, Source: w.path, Old: old.Clone(), Err: err})
		return err
	}
	keys := old.Diff(next)
	if len(keys) == 0 {
		w.mu.Unlock()
		return nil
	}
	w.current = next
	w.mu.Unlock()

	w.logger.Info("reloaded %s: %d settings changed", w.path, len(keys))
	w.notifier.Notify(Change{
		Type:   ChangeReload,
		Source: w.path,
		Keys:   keys,
		Old:    old.Clone(),
		New:    next.Clone(),
	})
	return nil
}

// Close stops watching. It is safe to call Close more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	w.mu.Unlock()

	w.closedWg.Wait()
	return w.fsw.Close()
}

// processLoop coalesces bursts of writes into one reload.
func (w *Watcher) processLoop() {
	defer w.closedWg.Done()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-w.closeCh:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if w.relevant(ev) {
				timer.Reset(w.debounce)
			}

		case <-timer.C:
			if err := w.Reload(); err == ErrWatcherClosed {
				return
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch %s: %v", w.path, err)
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create)
}
