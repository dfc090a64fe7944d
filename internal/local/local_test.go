package local

import (
	"bytes"
	"errors"
	"log"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type record struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}

func openTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "local.db"), log.New(&bytes.Buffer{}, "", 0))
	if err != nil {
		t.Fatalf("OpenSQLite() failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// stores runs a test against every Store implementation.
func stores(t *testing.T, fn func(t *testing.T, s Store, raw func(ns, v string))) {
	t.Run("sqlite", func(t *testing.T) {
		s := openTestSQLite(t)
		fn(t, s, func(ns, v string) {
			if err := s.SaveRaw(ns, v); err != nil {
				t.Fatalf("SaveRaw() failed: %v", err)
			}
		})
	})
	t.Run("memory", func(t *testing.T) {
		m := NewMemory(log.New(&bytes.Buffer{}, "", 0))
		fn(t, m, func(ns, v string) { _ = m.SaveRaw(ns, v) })
	})
}

func TestStore_SaveLoad(t *testing.T) {
	stores(t, func(t *testing.T, s Store, _ func(string, string)) {
		created := time.Date(2026, 7, 4, 12, 30, 0, 123, time.FixedZone("EST", -5*3600))
		in := []record{{ID: 2, Title: "second", CreatedAt: created}, {ID: 1, Title: "first", CreatedAt: created}}
		s.Save(KeyAdventures, in)

		var out []record
		if err := s.Load(KeyAdventures, &out); err != nil {
			t.Fatalf("Load() failed: %v", err)
		}
		if len(out) != 2 {
			t.Fatalf("len = %d, want 2", len(out))
		}
		if !out[0].CreatedAt.Equal(created) {
			t.Errorf("CreatedAt = %v, want %v", out[0].CreatedAt, created)
		}

		// Save overwrites the whole namespace.
		s.Save(KeyAdventures, []record{{ID: 9, Title: "only"}})
		out = nil
		if err := s.Load(KeyAdventures, &out); err != nil {
			t.Fatalf("Load() failed: %v", err)
		}
		if len(out) != 1 || out[0].ID != 9 {
			t.Errorf("Load() = %+v, want single record 9", out)
		}
	})
}

func TestStore_LoadMissing(t *testing.T) {
	stores(t, func(t *testing.T, s Store, _ func(string, string)) {
		var out []record
		if err := s.Load(KeyTasks, &out); !errors.Is(err, ErrNotFound) {
			t.Errorf("Load() error = %v, want ErrNotFound", err)
		}
	})
}

func TestStore_LoadMalformed(t *testing.T) {
	stores(t, func(t *testing.T, s Store, raw func(string, string)) {
		raw(KeyAdventures, `[{"id": 1, "title": "broken"`)

		var out []record
		if err := s.Load(KeyAdventures, &out); !errors.Is(err, ErrNotFound) {
			t.Errorf("Load() error = %v, want ErrNotFound", err)
		}
	})
}

func TestStore_DeleteAndNamespaces(t *testing.T) {
	stores(t, func(t *testing.T, s Store, _ func(string, string)) {
		s.Save(KeyTasks, []record{})
		s.Save(KeyTasksNextID, 3)
		s.Save(KeyPin, "9302")

		got, err := s.Namespaces()
		if err != nil {
			t.Fatalf("Namespaces() failed: %v", err)
		}
		want := []string{KeyPin, KeyTasks, KeyTasksNextID}
		if strings.Join(got, ",") != strings.Join(want, ",") {
			t.Errorf("Namespaces() = %v, want %v", got, want)
		}

		if err := s.Delete(KeyPin); err != nil {
			t.Fatalf("Delete() failed: %v", err)
		}
		if err := s.Delete(KeyPin); err != nil {
			t.Errorf("second Delete() failed: %v", err)
		}
		var pin string
		if err := s.Load(KeyPin, &pin); !errors.Is(err, ErrNotFound) {
			t.Errorf("Load() after Delete error = %v, want ErrNotFound", err)
		}
	})
}

func TestMemory_SaveFailureIsSwallowed(t *testing.T) {
	var buf bytes.Buffer
	m := NewMemory(log.New(&buf, "", 0))
	m.SaveErr = errors.New("quota exceeded")

	m.Save(KeyAdventures, []record{{ID: 1}})

	var out []record
	if err := m.Load(KeyAdventures, &out); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() error = %v, want ErrNotFound", err)
	}
	if !strings.Contains(buf.String(), "quota exceeded") {
		t.Errorf("log = %q, want the write failure logged", buf.String())
	}
}

func TestSQLite_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.db")
	quiet := log.New(&bytes.Buffer{}, "", 0)

	s, err := OpenSQLite(path, quiet)
	if err != nil {
		t.Fatalf("OpenSQLite() failed: %v", err)
	}
	s.Save(KeyAdventuresNextID, 42)
	if err := s.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	s, err = OpenSQLite(path, quiet)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()

	var next int64
	if err := s.Load(KeyAdventuresNextID, &next); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if next != 42 {
		t.Errorf("next id = %d, want 42", next)
	}
	if s.Path() != path {
		t.Errorf("Path() = %q, want %q", s.Path(), path)
	}
}
