package watch

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func newWatcher(t *testing.T, dir string, debounce time.Duration, onChange func()) *Watcher {
	t.Helper()
	w, err := New(&Config{
		Dir:      dir,
		Files:    []string{"adv.db", "adv.db-wal"},
		Debounce: debounce,
		Logger:   log.New(io.Discard, "", 0),
	}, onChange)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return w
}

func TestNewRequiresDir(t *testing.T) {
	if _, err := New(&Config{}, nil); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestStartStop(t *testing.T) {
	w := newWatcher(t, t.TempDir(), 0, nil)
	if err := w.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if !w.IsRunning() {
		t.Error("IsRunning() = false after Start")
	}
	if err := w.Start(); err != ErrRunning {
		t.Errorf("second Start() = %v, want ErrRunning", err)
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}
	if w.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}
	if err := w.Stop(); err != nil {
		t.Errorf("second Stop() failed: %v", err)
	}
}

func TestStartMissingDir(t *testing.T) {
	w := newWatcher(t, filepath.Join(t.TempDir(), "missing"), 0, nil)
	if err := w.Start(); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestRelevant(t *testing.T) {
	dir := t.TempDir()
	w := newWatcher(t, dir, 0, nil)

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"database write", fsnotify.Event{Name: filepath.Join(dir, "adv.db"), Op: fsnotify.Write}, true},
		{"wal create", fsnotify.Event{Name: filepath.Join(dir, "adv.db-wal"), Op: fsnotify.Create}, true},
		{"chmod", fsnotify.Event{Name: filepath.Join(dir, "adv.db"), Op: fsnotify.Chmod}, false},
		{"other file", fsnotify.Event{Name: filepath.Join(dir, "adv.toml"), Op: fsnotify.Write}, false},
		{"other dir", fsnotify.Event{Name: filepath.Join(dir, "sub", "adv.db"), Op: fsnotify.Write}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.relevant(tt.event); got != tt.want {
				t.Errorf("relevant() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDebounceCoalesces(t *testing.T) {
	var calls atomic.Int32
	w := newWatcher(t, t.TempDir(), 50*time.Millisecond, func() { calls.Add(1) })
	if err := w.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	defer w.Stop()

	for i := 0; i < 5; i++ {
		w.trigger()
	}
	time.Sleep(300 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("onChange called %d times, want 1", got)
	}
}

func TestFileChangeTriggersReload(t *testing.T) {
	dir := t.TempDir()
	changed := make(chan struct{}, 10)
	w := newWatcher(t, dir, 20*time.Millisecond, func() { changed <- struct{}{} })
	if err := w.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "adv.db"), []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestStopDropsPendingReload(t *testing.T) {
	var calls atomic.Int32
	w := newWatcher(t, t.TempDir(), 100*time.Millisecond, func() { calls.Add(1) })
	if err := w.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	w.trigger()
	if err := w.Stop(); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}
	time.Sleep(200 * time.Millisecond)
	if got := calls.Load(); got != 0 {
		t.Errorf("onChange called %d times after Stop, want 0", got)
	}
}
