// Package app wires the stores, the sync session and the domain services
// into one explicitly constructed application.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/doree-nobuu/adventures/internal/auth"
	"github.com/doree-nobuu/adventures/internal/config"
	"github.com/doree-nobuu/adventures/internal/local"
	"github.com/doree-nobuu/adventures/internal/logging"
	"github.com/doree-nobuu/adventures/internal/notify"
	"github.com/doree-nobuu/adventures/internal/remote"
	"github.com/doree-nobuu/adventures/internal/remote/libsqlstore"
	"github.com/doree-nobuu/adventures/internal/stats"
	"github.com/doree-nobuu/adventures/internal/syncer"
	"github.com/doree-nobuu/adventures/internal/types"
)

// Options overrides the stores and collaborators New would build from the
// configuration.
type Options struct {
	Local    local.Store
	Remote   remote.DocumentStore
	Blobs    remote.BlobStore
	Notifier notify.Notifier
	Logs     *logging.Factory
	Clock    func() time.Time
}

// App is one running adv instance.
type App struct {
	Config     *config.Config
	Session    *syncer.Session
	Adventures *syncer.Adventures
	Surprises  *syncer.Surprises
	Tasks      *syncer.Tasks
	Tracker    *stats.Tracker
	Gate       *auth.Gate

	local    local.Store
	remote   remote.DocumentStore
	notifier notify.Notifier
	loc      *time.Location
	clock    func() time.Time
	timeout  time.Duration
	logger   *log.Logger

	mu        sync.Mutex
	listeners map[int]func(stats.Stats)
	nextKey   int
	cancels   []func()
}

// New builds an App. A remote store that cannot be opened is logged and
// the app starts in local-only mode.
func New(cfg *config.Config, opts Options) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if opts.Logs == nil {
		opts.Logs = logging.Discard()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	logger := opts.Logs.Logger("app")

	store := opts.Local
	if store == nil {
		sqlite, err := local.OpenSQLite(cfg.LocalPath(), opts.Logs.Logger("local"))
		if err != nil {
			return nil, fmt.Errorf("failed to open local store: %w", err)
		}
		store = sqlite
	}

	docs, blobs := opts.Remote, opts.Blobs
	if docs == nil && cfg.RemoteEnabled() {
		docs, blobs, err = OpenRemote(cfg, opts.Logs)
		if err != nil {
			logger.Printf("Warning: remote store unavailable, using local storage: %v", err)
			docs, blobs = nil, nil
		}
	}

	notifier := opts.Notifier
	if notifier == nil {
		notifier = DefaultNotifier(cfg, opts.Logs)
	}

	syncLogger := opts.Logs.Logger("sync")
	session := syncer.NewSession(docs != nil, syncLogger)
	collOpts := syncer.Options{
		Local:   store,
		Session: session,
		Remote:  docs,
		Blobs:   blobs,
		Timeout: cfg.Remote.Timeout,
		Clock:   opts.Clock,
		Logger:  syncLogger,
	}
	taskOpts := collOpts
	taskOpts.Remote, taskOpts.Blobs = nil, nil

	a := &App{
		Config:     cfg,
		Session:    session,
		Adventures: syncer.NewAdventures(collOpts),
		Surprises:  syncer.NewSurprises(collOpts),
		Tasks:      syncer.NewTasks(taskOpts),
		Tracker:    stats.NewTracker(store, loc, opts.Logs.Logger("stats")),
		Gate: auth.NewGate(store, &auth.Config{
			Pin:    cfg.Auth.Pin,
			Clock:  opts.Clock,
			Logger: opts.Logs.Logger("auth"),
		}),
		local:     store,
		remote:    docs,
		notifier:  notifier,
		loc:       loc,
		clock:     opts.Clock,
		timeout:   cfg.Remote.Timeout,
		logger:    logger,
		listeners: make(map[int]func(stats.Stats)),
	}
	return a, nil
}

// DefaultNotifier logs unlocks and, when notify.desktop is set, also
// shows them as desktop notifications.
func DefaultNotifier(cfg *config.Config, logs *logging.Factory) notify.Notifier {
	logger := logs.Logger("notify")
	var n notify.Notifier = notify.Log{Logger: logger}
	if cfg.Notify.Desktop {
		n = notify.Multi{notify.NewDesktop(logger), n}
	}
	return n
}

// OpenRemote opens the remote store selected by remote.driver. The blob
// store is nil for drivers without blob support.
func OpenRemote(cfg *config.Config, logs *logging.Factory) (remote.DocumentStore, remote.BlobStore, error) {
	switch cfg.Remote.Driver {
	case config.DriverHTTP:
		s, err := remote.NewHTTPStore(remote.HTTPConfig{
			BaseURL: cfg.Remote.URL,
			Token:   cfg.Remote.Token,
			Timeout: cfg.Remote.Timeout,
			Logger:  logs.Logger("remote"),
		})
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case config.DriverLibSQL:
		s, err := libsqlstore.Open(&libsqlstore.Config{
			URL:          cfg.Remote.URL,
			Token:        cfg.Remote.Token,
			ReplicaPath:  cfg.ReplicaPath(),
			PollInterval: cfg.Remote.PollInterval,
			Logger:       logs.Logger("remote"),
		})
		if err != nil {
			return nil, nil, err
		}
		return s, nil, nil
	default:
		return nil, nil, remote.ErrNotConfigured
	}
}

// Start probes the remote store and loads every collection. Every change
// to adventures or surprises re-runs achievement evaluation.
func (a *App) Start(ctx context.Context) error {
	if a.remote != nil && a.Session.Mode() == syncer.RemoteBacked {
		if p, ok := a.remote.(remote.Pinger); ok {
			pctx, cancel := context.WithTimeout(ctx, a.timeout)
			err := p.Ping(pctx)
			cancel()
			if err != nil {
				a.logger.Printf("Remote probe failed: %v", err)
				a.Session.Downgrade(remote.Reason(err))
			}
		}
	}

	for _, start := range []func(context.Context) error{a.Adventures.Start, a.Surprises.Start, a.Tasks.Start} {
		if err := start(ctx); err != nil {
			return err
		}
	}

	// Subscribe calls back right away, so mu must not be held here.
	cancelAdventures := a.Adventures.Subscribe(func([]types.Adventure) { a.refresh() })
	cancelSurprises := a.Surprises.Subscribe(func([]types.Surprise) { a.refresh() })
	a.mu.Lock()
	a.cancels = append(a.cancels, cancelAdventures, cancelSurprises)
	a.mu.Unlock()
	return nil
}

// refresh recomputes stats, unlocks achievements and notifies listeners.
func (a *App) refresh() {
	advs := a.Adventures.List()
	sps := a.Surprises.List()
	for _, ach := range a.Tracker.Evaluate(advs, sps, a.clock()) {
		a.notifier.Achievement(ach)
	}

	st := stats.Compute(advs, sps, a.clock(), a.loc)
	a.mu.Lock()
	keys := make([]int, 0, len(a.listeners))
	for k := range a.listeners {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	fns := make([]func(stats.Stats), 0, len(keys))
	for _, k := range keys {
		fns = append(fns, a.listeners[k])
	}
	a.mu.Unlock()
	for _, fn := range fns {
		fn(st)
	}
}

// Stats computes the current statistics.
func (a *App) Stats() stats.Stats {
	return stats.Compute(a.Adventures.List(), a.Surprises.List(), a.clock(), a.loc)
}

// OnStats registers fn to receive stats after every change.
func (a *App) OnStats(fn func(stats.Stats)) (cancel func()) {
	a.mu.Lock()
	key := a.nextKey
	a.nextKey++
	a.listeners[key] = fn
	a.mu.Unlock()
	return func() {
		a.mu.Lock()
		delete(a.listeners, key)
		a.mu.Unlock()
	}
}

// Reload re-reads the local store into every collection. It has no
// effect on collections still fed by the remote store.
func (a *App) Reload() {
	a.Adventures.Reload()
	a.Surprises.Reload()
	a.Tasks.Reload()
}

// Local returns the local store.
func (a *App) Local() local.Store {
	return a.local
}

// Close stops every feed and closes the stores.
func (a *App) Close() error {
	a.mu.Lock()
	cancels := a.cancels
	a.cancels = nil
	a.mu.Unlock()
	for _, cancel := range cancels {
		cancel()
	}

	a.Adventures.Stop()
	a.Surprises.Stop()
	a.Tasks.Stop()

	var errs []error
	if a.remote != nil {
		if err := a.remote.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close remote store: %w", err))
		}
	}
	if err := a.local.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close local store: %w", err))
	}
	return errors.Join(errs...)
}
