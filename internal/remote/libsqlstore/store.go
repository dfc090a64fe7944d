// Package libsqlstore implements the remote document store on a Turso
// (libSQL) database.
//
// Documents live in the docdb schema. Turso has no push channel, so a
// subscription polls the collection's version counter and sends the full
// collection whenever it moves. With a libsql:// or https:// URL the store
// opens an embedded replica that syncs with the primary in the background
// and forwards writes to it. A file: URL opens a plain local libSQL file,
// which lets several processes on one machine share a "remote".
package libsqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/tursodatabase/go-libsql"

	"github.com/doree-nobuu/adventures/internal/docdb"
	"github.com/doree-nobuu/adventures/internal/remote"
	"github.com/doree-nobuu/adventures/internal/wire"
)

// Config configures a Store.
type Config struct {
	// URL of the primary database (libsql://, https://) or a file: path.
	URL string

	// Token authenticates against the primary.
	Token string

	// ReplicaPath is where the embedded replica is kept.
	ReplicaPath string

	// PollInterval between version checks (default: 2s).
	PollInterval time.Duration

	// Logger for store activity (default: stderr logger).
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		PollInterval: 2 * time.Second,
		Logger:       log.New(os.Stderr, "[remote] ", log.LstdFlags),
	}
}

// Store is a remote.DocumentStore on libSQL.
type Store struct {
	conn      *sql.DB
	connector *libsql.Connector
	db        *docdb.DB
	poll      time.Duration
	logger    *log.Logger

	closing   chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Open connects to the database and prepares the schema.
func Open(cfg *Config) (*Store, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, remote.ErrNotConfigured
	}
	defaults := DefaultConfig()
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaults.PollInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = defaults.Logger
	}

	s := &Store{poll: cfg.PollInterval, logger: cfg.Logger, closing: make(chan struct{})}

	if path, ok := strings.CutPrefix(cfg.URL, "file:"); ok {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		conn, err := sql.Open("libsql", "file:"+path)
		if err != nil {
			return nil, fmt.Errorf("failed to open libsql database: %w", err)
		}
		s.conn = conn
	} else {
		if cfg.ReplicaPath == "" {
			return nil, fmt.Errorf("libsql replica path is required for %s", cfg.URL)
		}
		if err := os.MkdirAll(filepath.Dir(cfg.ReplicaPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create replica directory: %w", err)
		}
		connector, err := libsql.NewEmbeddedReplicaConnector(cfg.ReplicaPath, cfg.URL,
			libsql.WithAuthToken(cfg.Token),
			libsql.WithSyncInterval(cfg.PollInterval),
		)
		if err != nil {
			return nil, remote.Wrap("open", "", fmt.Errorf("failed to create replica connector: %w", err))
		}
		s.connector = connector
		s.conn = sql.OpenDB(connector)
	}

	s.db = docdb.Wrap(s.conn)
	if err := s.db.InitSchema(); err != nil {
		_ = s.Close()
		return nil, remote.NewError("open", "", remote.CodeUnavailable, err)
	}
	return s, nil
}

// Ping implements remote.Pinger.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return remote.NewError("ping", "", remote.CodeUnavailable, err)
	}
	return nil
}

// Create implements remote.DocumentStore.
func (s *Store) Create(ctx context.Context, collection, id string, doc wire.Document) error {
	return wrap("create", collection, s.db.Put(ctx, collection, id, doc))
}

// Update implements remote.DocumentStore.
func (s *Store) Update(ctx context.Context, collection, id string, partial wire.Document) error {
	return wrap("update", collection, s.db.Merge(ctx, collection, id, partial))
}

// Delete implements remote.DocumentStore.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	return wrap("delete", collection, s.db.Delete(ctx, collection, id))
}

// Subscribe implements remote.DocumentStore by polling the version counter.
// The first snapshot is sent from the polling goroutine right away.
func (s *Store) Subscribe(ctx context.Context, collection string, onSnapshot func([]wire.Document), onError func(error)) (remote.Unsubscribe, error) {
	if _, err := s.db.Version(ctx, collection); err != nil {
		return nil, wrap("subscribe", collection, err)
	}

	feedCtx, cancel := context.WithCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.pollLoop(feedCtx, collection, onSnapshot, onError)
	}()

	var once sync.Once
	return func() { once.Do(cancel) }, nil
}

func (s *Store) pollLoop(ctx context.Context, collection string, onSnapshot func([]wire.Document), onError func(error)) {
	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	seen := int64(-1)
	for {
		version, err := s.db.Version(ctx, collection)
		if err == nil && version != seen {
			var docs []wire.Document
			docs, err = s.db.List(ctx, collection)
			if err == nil {
				seen = version
				onSnapshot(docs)
			}
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Printf("Polling %s failed: %v", collection, err)
			if onError != nil {
				onError(wrap("subscribe", collection, err))
			}
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-s.closing:
			return
		case <-ticker.C:
		}
	}
}

// Close stops polling and closes the database.
func (s *Store) Close() error {
	s.closeOnce.Do(func() { close(s.closing) })
	s.wg.Wait()
	var errs []error
	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
		s.conn = nil
	}
	if s.connector != nil {
		if err := s.connector.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close replica connector: %w", err))
		}
		s.connector = nil
	}
	return errors.Join(errs...)
}

func wrap(op, collection string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, docdb.ErrNotFound) {
		return remote.NewError(op, collection, remote.CodeNotFound, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return remote.NewError(op, collection, remote.CodeTimeout, err)
	}
	return remote.NewError(op, collection, remote.CodeUnavailable, err)
}
