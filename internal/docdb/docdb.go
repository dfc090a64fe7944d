// Package docdb stores JSON documents grouped into collections on top of
// database/sql.
//
// It is the storage layer of the bundled document server and of the
// libSQL remote adapter. Both speak plain SQL, so the same schema works on
// the embedded SQLite driver and on a Turso/libSQL replica:
//
//	documents(collection, id, data, created_at, updated_at)
//	versions(collection, version)
//
// created_at holds Unix nanoseconds taken from the document's createdAt
// Timestamp so listings come back newest first. Every write bumps the
// collection's version, which subscribers poll to detect changes.
package docdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/doree-nobuu/adventures/internal/wire"
)

// ErrNotFound is returned by Merge when the document does not exist.
var ErrNotFound = errors.New("document not found")

// DB wraps a database connection holding document collections.
type DB struct {
	conn  *sql.DB
	path  string
	owned bool
}

// Open creates or opens an embedded SQLite document database at path and
// initializes the schema.
//
// The caller MUST call Close() when done.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	db := &DB{conn: conn, path: path, owned: true}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := db.InitSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Wrap uses an existing connection, for drivers opened elsewhere (libSQL).
// Close on a wrapped DB leaves the connection open.
func Wrap(conn *sql.DB) *DB {
	return &DB{conn: conn}
}

// Close closes the connection if this DB opened it.
func (db *DB) Close() error {
	if db.conn == nil || !db.owned {
		return nil
	}
	if _, err := db.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}
	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	db.conn = nil
	return nil
}

// InitSchema creates the tables if they don't exist. Idempotent.
func (db *DB) InitSchema() error {
	return db.InitSchemaContext(context.Background())
}

// InitSchemaContext creates the tables with context support.
func (db *DB) InitSchemaContext(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			data TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (collection, id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_created
			ON documents(collection, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS versions (
			collection TEXT PRIMARY KEY,
			version INTEGER NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}

// Put creates or replaces a document.
func (db *DB) Put(ctx context.Context, collection, id string, doc wire.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	now := time.Now().UnixNano()
	created := now
	if t, ok := doc.Time(wire.FieldCreatedAt); ok {
		created = t.UnixNano()
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
	INSERT INTO documents (collection, id, data, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(collection, id) DO UPDATE SET
		data = excluded.data,
		created_at = excluded.created_at,
		updated_at = excluded.updated_at
	`
	if _, err := tx.ExecContext(ctx, query, collection, id, string(data), created, now); err != nil {
		return fmt.Errorf("failed to put %s/%s: %w", collection, id, err)
	}
	if err := bumpVersion(ctx, tx, collection); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Merge applies a partial update: every top-level field in partial
// replaces the stored field, a null field is removed, other fields are
// kept. It returns ErrNotFound when the document does not exist.
func (db *DB) Merge(ctx context.Context, collection, id string, partial wire.Document) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var data string
	err = tx.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND id = ?`,
		collection, id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s/%s: %w", collection, id, err)
	}

	var current wire.Document
	if err := json.Unmarshal([]byte(data), &current); err != nil {
		return fmt.Errorf("failed to parse stored %s/%s: %w", collection, id, err)
	}
	for k, v := range partial {
		switch {
		case k == wire.FieldCreatedAt:
		case wire.IsNull(v):
			delete(current, k)
		default:
			current[k] = v
		}
	}

	merged, err := json.Marshal(current)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE documents SET data = ?, updated_at = ? WHERE collection = ? AND id = ?`,
		string(merged), time.Now().UnixNano(), collection, id,
	); err != nil {
		return fmt.Errorf("failed to update %s/%s: %w", collection, id, err)
	}
	if err := bumpVersion(ctx, tx, collection); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Delete removes a document. Returns nil if it doesn't exist (idempotent).
func (db *DB) Delete(ctx context.Context, collection, id string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil
	}
	if err := bumpVersion(ctx, tx, collection); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// List returns every document of a collection, newest created first.
func (db *DB) List(ctx context.Context, collection string) ([]wire.Document, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT data FROM documents WHERE collection = ? ORDER BY created_at DESC, id DESC`,
		collection)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", collection, err)
	}
	defer rows.Close()

	docs := []wire.Document{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		var doc wire.Document
		if err := json.Unmarshal([]byte(data), &doc); err != nil {
			return nil, fmt.Errorf("failed to parse document in %s: %w", collection, err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating documents: %w", err)
	}
	return docs, nil
}

// Version returns the collection's change counter (0 if never written).
func (db *DB) Version(ctx context.Context, collection string) (int64, error) {
	var v int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT version FROM versions WHERE collection = ?`, collection).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read version of %s: %w", collection, err)
	}
	return v, nil
}

// Count returns the number of documents in a collection.
func (db *DB) Count(ctx context.Context, collection string) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM documents WHERE collection = ?`, collection).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", collection, err)
	}
	return n, nil
}

// Ping checks that the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

func bumpVersion(ctx context.Context, tx *sql.Tx, collection string) error {
	query := `
	INSERT INTO versions (collection, version) VALUES (?, 1)
	ON CONFLICT(collection) DO UPDATE SET version = version + 1
	`
	if _, err := tx.ExecContext(ctx, query, collection); err != nil {
		return fmt.Errorf("failed to bump version of %s: %w", collection, err)
	}
	return nil
}
