package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/doree-nobuu/adventures/internal/config"
	"github.com/doree-nobuu/adventures/internal/local"
	"github.com/doree-nobuu/adventures/internal/logging"
	"github.com/doree-nobuu/adventures/internal/notify"
	"github.com/doree-nobuu/adventures/internal/remote"
	"github.com/doree-nobuu/adventures/internal/remote/remotetest"
	"github.com/doree-nobuu/adventures/internal/stats"
	"github.com/doree-nobuu/adventures/internal/syncer"
	"github.com/doree-nobuu/adventures/internal/types"
)

var now = time.Date(2024, 7, 20, 10, 0, 0, 0, time.UTC)

type pingFake struct {
	*remotetest.Fake
	err error
}

func (p pingFake) Ping(context.Context) error { return p.err }

func newApp(t *testing.T, docs remote.DocumentStore, blobs remote.BlobStore) (*App, *notify.Recorder) {
	t.Helper()
	cfg := config.Default()
	cfg.Data.Dir = t.TempDir()
	cfg.Timezone = "UTC"
	rec := &notify.Recorder{}
	a, err := New(cfg, Options{
		Local:    local.NewMemory(nil),
		Remote:   docs,
		Blobs:    blobs,
		Notifier: rec,
		Logs:     logging.Discard(),
		Clock:    func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a, rec
}

func seenIDs(r *notify.Recorder) []string {
	var out []string
	for _, a := range r.Seen() {
		out = append(out, a.ID)
	}
	return out
}

func TestLocalApp_CompletionUnlocksAchievements(t *testing.T) {
	a, rec := newApp(t, nil, nil)
	if a.Session.Mode() != syncer.LocalOnly {
		t.Fatalf("Mode() = %v, want local", a.Session.Mode())
	}
	if len(rec.Seen()) != 0 {
		t.Fatalf("seeds unlocked %v", seenIDs(rec))
	}

	if _, err := a.Adventures.Complete(context.Background(), 1, nil, ""); err != nil {
		t.Fatalf("Complete() failed: %v", err)
	}
	got := seenIDs(rec)
	if len(got) != 2 || got[0] != "first-adventure" || got[1] != "first-activity" {
		t.Errorf("unlocked = %v, want [first-adventure first-activity]", got)
	}

	var stored []types.Achievement
	if err := a.Local().Load(local.KeyAchievements, &stored); err != nil {
		t.Fatalf("achievements not persisted: %v", err)
	}

	if err := a.Adventures.Delete(context.Background(), 1); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if got := len(a.Tracker.Unlocked()); got != 2 {
		t.Errorf("Unlocked() = %d after delete, want 2", got)
	}
}

func TestLocalApp_StatsListeners(t *testing.T) {
	a, _ := newApp(t, nil, nil)
	var last stats.Stats
	calls := 0
	cancel := a.OnStats(func(st stats.Stats) {
		last = st
		calls++
	})
	defer cancel()

	if _, err := a.Adventures.Create(context.Background(), types.Adventure{Title: "Kayaking"}); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if calls != 1 || last.TotalAdventures != 3 {
		t.Errorf("calls=%d total=%d, want 1 and 3", calls, last.TotalAdventures)
	}
	if _, err := a.Surprises.Create(context.Background(), "https://example.test/x.jpg", types.Partner1, types.Partner2, ""); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if last.Surprises != 1 || last.UnrevealedSurprises != 1 {
		t.Errorf("surprise stats = %d/%d", last.Surprises, last.UnrevealedSurprises)
	}
}

func TestRemoteApp(t *testing.T) {
	fake := remotetest.New()
	a, rec := newApp(t, fake, fake)
	if a.Session.Mode() != syncer.RemoteBacked {
		t.Fatalf("Mode() = %v, want remote", a.Session.Mode())
	}
	if a.Adventures.Len() != 0 {
		t.Errorf("remote mode seeded %d adventures", a.Adventures.Len())
	}

	adv, err := a.Adventures.Create(context.Background(), types.Adventure{Title: "Ramen crawl", Category: types.CategoryFood, Status: types.StatusCompleted})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if len(fake.Docs("adventures")) != 1 {
		t.Errorf("remote docs = %d", len(fake.Docs("adventures")))
	}
	if adv.CompletedDate == nil {
		t.Error("CompletedDate not derived")
	}
	if got := seenIDs(rec); len(got) != 2 {
		t.Errorf("unlocked = %v after remote snapshot", got)
	}
	if a.Tasks.Mode() != syncer.LocalOnly || fake.Calls("subscribe") != 2 {
		t.Errorf("tasks should stay local: mode=%v subscribes=%d", a.Tasks.Mode(), fake.Calls("subscribe"))
	}
}

func TestRemoteApp_ProbeFailure(t *testing.T) {
	fake := remotetest.New()
	p := pingFake{Fake: fake, err: remote.NewError("ping", "", remote.CodePermissionDenied, errors.New("401"))}
	a, _ := newApp(t, p, fake)

	st := a.Session.Status()
	if st.Mode != syncer.LocalOnly || st.Message != "Remote: Permission denied - check access token" {
		t.Errorf("status = %+v", st)
	}
	if fake.Calls("subscribe") != 0 {
		t.Errorf("subscribed after failed probe")
	}
	if a.Adventures.Len() != 2 {
		t.Errorf("Len() = %d, want the seeds", a.Adventures.Len())
	}
}

func TestExport(t *testing.T) {
	a, _ := newApp(t, nil, nil)
	ex := a.Export()
	if len(ex.Adventures) != 2 || len(ex.Tasks) != 2 || len(ex.Achievements) != 12 {
		t.Errorf("Export() = %d adventures, %d tasks, %d achievements", len(ex.Adventures), len(ex.Tasks), len(ex.Achievements))
	}
	if ex.Mode != "local" || !ex.ExportedAt.Equal(now) {
		t.Errorf("Export() mode=%s at=%v", ex.Mode, ex.ExportedAt)
	}
}

func TestOpenRemote_NotConfigured(t *testing.T) {
	cfg := config.Default()
	if _, _, err := OpenRemote(cfg, logging.Discard()); !errors.Is(err, remote.ErrNotConfigured) {
		t.Errorf("OpenRemote() = %v, want ErrNotConfigured", err)
	}
	cfg.Remote = config.RemoteConfig{Driver: config.DriverHTTP, URL: "http://localhost:1"}
	docs, blobs, err := OpenRemote(cfg, logging.Discard())
	if err != nil || docs == nil || blobs == nil {
		t.Errorf("OpenRemote(http) = %v, %v, %v", docs, blobs, err)
	}
}
