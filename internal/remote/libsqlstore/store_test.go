package libsqlstore

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/doree-nobuu/adventures/internal/remote"
	"github.com/doree-nobuu/adventures/internal/wire"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(&Config{
		URL:          "file:" + filepath.Join(t.TempDir(), "remote.db"),
		PollInterval: 20 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_NotConfigured(t *testing.T) {
	if _, err := Open(&Config{}); !errors.Is(err, remote.ErrNotConfigured) {
		t.Errorf("Open() error = %v, want ErrNotConfigured", err)
	}
}

func TestUpdateMissingIsNotFound(t *testing.T) {
	s := openTestStore(t)
	err := s.Update(context.Background(), "adventures", "1", wire.Document{"title": json.RawMessage(`"x"`)})
	if got := remote.CodeOf(err); got != remote.CodeNotFound {
		t.Errorf("CodeOf() = %q, want %q", got, remote.CodeNotFound)
	}
}

func TestSubscribeSeesWrites(t *testing.T) {
	s := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snapshots := make(chan []wire.Document, 16)
	unsub, err := s.Subscribe(ctx, "adventures", func(docs []wire.Document) {
		snapshots <- docs
	}, func(err error) {
		t.Errorf("unexpected feed error: %v", err)
	})
	if err != nil {
		t.Fatalf("Subscribe() failed: %v", err)
	}
	defer unsub()

	waitFor := func(n int) {
		t.Helper()
		deadline := time.After(5 * time.Second)
		for {
			select {
			case docs := <-snapshots:
				if len(docs) == n {
					return
				}
			case <-deadline:
				t.Fatalf("timed out waiting for snapshot with %d docs", n)
			}
		}
	}

	waitFor(0)

	doc := wire.Document{"id": json.RawMessage(`1`), "title": json.RawMessage(`"Sunset"`)}
	if err := s.Create(ctx, "adventures", "1", doc); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	waitFor(1)

	if err := s.Delete(ctx, "adventures", "1"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	waitFor(0)
}
