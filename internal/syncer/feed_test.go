package syncer

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/doree-nobuu/adventures/internal/docdb"
	"github.com/doree-nobuu/adventures/internal/docserver"
	"github.com/doree-nobuu/adventures/internal/local"
	"github.com/doree-nobuu/adventures/internal/remote"
	"github.com/doree-nobuu/adventures/internal/remote/remotetest"
	"github.com/doree-nobuu/adventures/internal/types"
	"github.com/doree-nobuu/adventures/internal/wire"
)

func TestStart_WaitsForAsyncSnapshot(t *testing.T) {
	h := newHarness(t, true)
	seedRemote(t, h.fake,
		remoteAdventure(1, "One", base),
		remoteAdventure(2, "Two", base.Add(time.Hour)),
		remoteAdventure(3, "Three", base.Add(2*time.Hour)),
	)
	h.fake.SetAsync(true)
	s := h.adventures(t)
	ctx := context.Background()

	if got := ids(s.List()); !equalIDs(got, []int64{3, 2, 1}) {
		t.Fatalf("List() ids = %v right after Start, want [3 2 1]", got)
	}

	a, err := s.Create(ctx, types.Adventure{Title: "Four"})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if a.ID != 4 {
		t.Errorf("Create() id = %d, want 4", a.ID)
	}
	if got := len(h.fake.Docs(AdventureKind.Name)); got != 4 {
		t.Errorf("remote has %d docs, want 4", got)
	}

	if _, err := s.Update(ctx, 1, func(a *types.Adventure) error {
		a.Location = "Lake"
		return nil
	}); err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	got, err := s.Get(1)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.Title != "One" || got.Location != "Lake" {
		t.Errorf("Get(1) = %q at %q, want One at Lake", got.Title, got.Location)
	}
	if s.Mode() != RemoteBacked {
		t.Errorf("Mode() = %v, want remote", s.Mode())
	}
}

func TestStart_MissingSnapshotDowngrades(t *testing.T) {
	h := newHarness(t, true)
	mirror := []types.Adventure{remoteAdventure(9, "Nine", base)}
	h.store.Save(local.KeyAdventures, mirror)
	h.store.Save(local.KeyAdventuresNextID, 12)
	seedRemote(t, h.fake, remoteAdventure(1, "One", base))
	h.fake.Withhold(true)

	opts := h.options()
	opts.Timeout = 50 * time.Millisecond
	s := NewAdventures(opts)
	start := time.Now()
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	defer s.Stop()

	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Start() took %s", elapsed)
	}
	st := h.session.Status()
	if st.Mode != LocalOnly || st.Message != "Remote: Request timed out" {
		t.Fatalf("status = %+v, want local with a timeout message", st)
	}
	if got := ids(s.List()); !equalIDs(got, []int64{9}) {
		t.Errorf("List() ids = %v, want the mirrored [9]", got)
	}
	if got := s.NextID(); got != 12 {
		t.Errorf("NextID() = %d, want 12", got)
	}

	h.fake.Push(AdventureKind.Name)
	if got := ids(s.List()); !equalIDs(got, []int64{9}) {
		t.Errorf("late snapshot replaced local data: %v", got)
	}
}

func TestStart_CachedNextIDUsedBeforeSnapshot(t *testing.T) {
	h := newHarness(t, true)
	h.store.Save(local.KeyAdventuresNextID, 20)
	seedRemote(t, h.fake, remoteAdventure(1, "One", base))
	h.fake.SetAsync(true)
	s := h.adventures(t)

	a, err := s.Create(context.Background(), types.Adventure{Title: "Later"})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if a.ID != 20 {
		t.Errorf("Create() id = %d, want 20", a.ID)
	}
	if got := len(h.fake.Docs(AdventureKind.Name)); got != 2 {
		t.Errorf("remote has %d docs, want 2", got)
	}
}

func TestStart_ContextEndsWhileWaiting(t *testing.T) {
	h := newHarness(t, true)
	h.fake.Withhold(true)

	opts := h.options()
	opts.Timeout = time.Minute
	s := NewAdventures(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := s.Start(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Start() error = %v, want context.DeadlineExceeded", err)
	}
	s.Stop()
}

// stalledUpdates fails every update once the test lets it go.
type stalledUpdates struct {
	*remotetest.Fake
	entered chan struct{}
	release chan struct{}
}

func (s *stalledUpdates) Update(ctx context.Context, collection, id string, partial wire.Document) error {
	close(s.entered)
	<-s.release
	return remote.NewError("update", collection, remote.CodeUnavailable, errors.New("connection reset"))
}

func TestFeedError_DoesNotClobberFallbackUpdate(t *testing.T) {
	h := newHarness(t, true)
	seedRemote(t, h.fake, remoteAdventure(1, "One", base))
	stalled := &stalledUpdates{Fake: h.fake, entered: make(chan struct{}), release: make(chan struct{})}

	opts := h.options()
	opts.Remote = stalled
	s := NewAdventures(opts)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	defer s.Stop()

	updated := make(chan error, 1)
	go func() {
		_, err := s.Update(context.Background(), 1, func(a *types.Adventure) error {
			a.Location = "Coast"
			return nil
		})
		updated <- err
	}()
	<-stalled.entered

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.fake.Break(AdventureKind.Name, errors.New("connection reset"))
	}()

	deadline := time.Now().Add(5 * time.Second)
	for h.session.Mode() != LocalOnly {
		if time.Now().After(deadline) {
			t.Fatal("feed error never downgraded the session")
		}
		time.Sleep(5 * time.Millisecond)
	}
	close(stalled.release)

	if err := <-updated; err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	wg.Wait()

	got, err := s.Get(1)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.Location != "Coast" {
		t.Errorf("Location = %q after feed reload, want Coast", got.Location)
	}
	var stored []types.Adventure
	if err := h.store.Load(local.KeyAdventures, &stored); err != nil || len(stored) != 1 || stored[0].Location != "Coast" {
		t.Errorf("local store = %+v (%v), want the updated record", stored, err)
	}
}

func TestHTTPStore_CreateAfterStartKeepsExistingDocs(t *testing.T) {
	dir := t.TempDir()
	db, err := docdb.Open(filepath.Join(dir, "docs.db"))
	if err != nil {
		t.Fatalf("docdb.Open() failed: %v", err)
	}
	ctx := context.Background()
	for i := int64(1); i <= 3; i++ {
		adv := remoteAdventure(i, "Existing "+strconv.FormatInt(i, 10), base.Add(time.Duration(i)*time.Hour))
		doc, err := wire.EncodeAdventure(&adv)
		if err != nil {
			t.Fatalf("EncodeAdventure() failed: %v", err)
		}
		if err := db.Put(ctx, AdventureKind.Name, strconv.FormatInt(i, 10), doc); err != nil {
			t.Fatalf("Put() failed: %v", err)
		}
	}

	srv, err := docserver.NewServer(&docserver.Config{
		DB:      db,
		BlobDir: filepath.Join(dir, "blobs"),
		Logger:  log.New(io.Discard, "", 0),
	})
	if err != nil {
		t.Fatalf("NewServer() failed: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	client, err := remote.NewHTTPStore(remote.HTTPConfig{
		BaseURL: ts.URL,
		Timeout: 5 * time.Second,
		Logger:  log.New(io.Discard, "", 0),
	})
	if err != nil {
		t.Fatalf("NewHTTPStore() failed: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
		ts.Close()
		_ = srv.Stop()
		_ = db.Close()
	})

	logger := log.New(io.Discard, "", 0)
	session := NewSession(true, logger)
	s := NewAdventures(Options{
		Local:   local.NewMemory(logger),
		Session: session,
		Remote:  client,
		Timeout: 5 * time.Second,
		Logger:  logger,
	})
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	defer s.Stop()

	a, err := s.Create(ctx, types.Adventure{Title: "New"})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if a.ID != 4 {
		t.Errorf("Create() id = %d, want 4", a.ID)
	}
	if n, err := db.Count(ctx, AdventureKind.Name); err != nil || n != 4 {
		t.Errorf("remote Count() = %d, %v, want 4", n, err)
	}
	if session.Mode() != RemoteBacked {
		t.Errorf("Mode() = %v, want remote", session.Mode())
	}
}
