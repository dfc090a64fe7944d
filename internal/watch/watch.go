// Package watch reloads the application when another adv process changes
// the local database.
//
// The watcher follows the data directory with fsnotify and reacts only to
// the named files (the database and its write-ahead log). Bursts of events
// are coalesced: the callback runs once the files have been quiet for the
// debounce interval.
package watch

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ErrRunning is returned by Start on a watcher that is already running.
var ErrRunning = errors.New("watcher already running")

// Config configures a Watcher.
type Config struct {
	// Dir is the directory to watch.
	Dir string

	// Files are the base names inside Dir that trigger a reload.
	Files []string

	// Debounce is how long the files must be quiet before OnChange runs
	// (default: 250ms).
	Debounce time.Duration

	// Logger for watcher activity (default: stderr logger).
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Debounce: 250 * time.Millisecond,
		Logger:   log.New(os.Stderr, "[watch] ", log.LstdFlags),
	}
}

// Watcher calls OnChange after the watched files change.
type Watcher struct {
	watcher  *fsnotify.Watcher
	dir      string
	files    map[string]bool
	debounce time.Duration
	onChange func()
	logger   *log.Logger

	mu      sync.Mutex
	running bool
	timer   *time.Timer
	done    chan struct{}
	wg      sync.WaitGroup
}

// New creates a Watcher. It does nothing until Start is called.
func New(cfg *Config, onChange func()) (*Watcher, error) {
	if cfg == nil || cfg.Dir == "" {
		return nil, fmt.Errorf("watch directory is required")
	}
	defaults := DefaultConfig()
	if cfg.Debounce <= 0 {
		cfg.Debounce = defaults.Debounce
	}
	if cfg.Logger == nil {
		cfg.Logger = defaults.Logger
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	files := make(map[string]bool, len(cfg.Files))
	for _, f := range cfg.Files {
		files[f] = true
	}
	return &Watcher{
		watcher:  fw,
		dir:      cfg.Dir,
		files:    files,
		debounce: cfg.Debounce,
		onChange: onChange,
		logger:   cfg.Logger,
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching the directory.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return ErrRunning
	}
	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", w.dir, err)
	}

	w.running = true
	w.wg.Add(1)
	go w.processEvents()
	return nil
}

// Stop stops watching and waits for the event loop to exit. A pending
// reload is dropped.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()

	close(w.done)
	err := w.watcher.Close()
	w.wg.Wait()
	if err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}

// IsRunning reports whether the watcher is running.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.relevant(event) {
				w.trigger()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Printf("Warning: watch error: %v", err)
		}
	}
}

// relevant reports whether event touches one of the watched files.
// Chmod-only events are ignored.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	if filepath.Clean(filepath.Dir(event.Name)) != filepath.Clean(w.dir) {
		return false
	}
	return w.files[filepath.Base(event.Name)]
}

// trigger (re)arms the debounce timer.
func (w *Watcher) trigger() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

func (w *Watcher) fire() {
	w.mu.Lock()
	running := w.running
	w.timer = nil
	w.mu.Unlock()
	if running && w.onChange != nil {
		w.onChange()
	}
}
