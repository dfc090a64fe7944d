package local

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// SQLite is a Store backed by an embedded SQLite database.
//
// Every namespace is one row of the kv table:
//
//	kv(namespace TEXT PRIMARY KEY, value TEXT NOT NULL, updated_at TEXT NOT NULL)
//
// The database runs in WAL mode so a second process (another CLI
// invocation, the dashboard) can read while this one writes.
type SQLite struct {
	conn   *sql.DB
	path   string
	logger *log.Logger
}

// OpenSQLite opens (creating if necessary) the store at path.
//
// The caller MUST call Close() when done.
func OpenSQLite(path string, logger *log.Logger) (*SQLite, error) {
	if logger == nil {
		logger = defaultLogger()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping store: %w", err)
	}

	conn.SetMaxOpenConns(4)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(5 * time.Minute)

	s := &SQLite{conn: conn, path: path, logger: logger}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := conn.Exec(p); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	if err := s.initSchema(context.Background()); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		namespace TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`
	if _, err := s.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Path returns the database file path.
func (s *SQLite) Path() string {
	return s.path
}

// Load implements Store.
func (s *SQLite) Load(namespace string, out any) error {
	var value string
	err := s.conn.QueryRow(`SELECT value FROM kv WHERE namespace = ?`, namespace).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		s.logger.Printf("Warning: failed to read %s: %v", namespace, err)
		return ErrNotFound
	}
	if err := json.Unmarshal([]byte(value), out); err != nil {
		s.logger.Printf("Warning: discarding malformed %s: %v", namespace, err)
		return ErrNotFound
	}
	return nil
}

// Save implements Store.
func (s *SQLite) Save(namespace string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Printf("Warning: failed to encode %s: %v", namespace, err)
		return
	}
	if err := s.put(namespace, string(data)); err != nil {
		s.logger.Printf("Warning: %v", err)
	}
}

// SaveRaw stores an already serialized value without decoding it.
func (s *SQLite) SaveRaw(namespace, value string) error {
	return s.put(namespace, value)
}

func (s *SQLite) put(namespace, value string) error {
	query := `
	INSERT INTO kv (namespace, value, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(namespace) DO UPDATE SET
		value = excluded.value,
		updated_at = excluded.updated_at
	`
	if _, err := s.conn.Exec(query, namespace, value, time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("failed to write %s: %w", namespace, err)
	}
	return nil
}

// Delete implements Store.
func (s *SQLite) Delete(namespace string) error {
	if _, err := s.conn.Exec(`DELETE FROM kv WHERE namespace = ?`, namespace); err != nil {
		return fmt.Errorf("failed to delete %s: %w", namespace, err)
	}
	return nil
}

// Namespaces implements Store.
func (s *SQLite) Namespaces() ([]string, error) {
	rows, err := s.conn.Query(`SELECT namespace FROM kv ORDER BY namespace`)
	if err != nil {
		return nil, fmt.Errorf("failed to list namespaces: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var ns string
		if err := rows.Scan(&ns); err != nil {
			return nil, fmt.Errorf("failed to scan namespace: %w", err)
		}
		out = append(out, ns)
	}
	return out, rows.Err()
}

// Close checkpoints the WAL and closes the database.
func (s *SQLite) Close() error {
	if s.conn == nil {
		return nil
	}
	if _, err := s.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		s.logger.Printf("Warning: failed to checkpoint WAL: %v", err)
	}
	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close store: %w", err)
	}
	s.conn = nil
	return nil
}
