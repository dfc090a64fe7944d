package docdb

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/doree-nobuu/adventures/internal/wire"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "docs.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func doc(t *testing.T, id int64, title string, created time.Time) wire.Document {
	t.Helper()
	ts, err := json.Marshal(wire.FromTime(created))
	if err != nil {
		t.Fatalf("marshal timestamp: %v", err)
	}
	return wire.Document{
		"id":        json.RawMessage(mustJSON(t, id)),
		"title":     json.RawMessage(mustJSON(t, title)),
		"createdAt": ts,
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func title(t *testing.T, d wire.Document) string {
	t.Helper()
	var s string
	if err := json.Unmarshal(d["title"], &s); err != nil {
		t.Fatalf("unmarshal title: %v", err)
	}
	return s
}

func TestInitSchema_Idempotent(t *testing.T) {
	db := openTestDB(t)
	if err := db.InitSchema(); err != nil {
		t.Fatalf("second InitSchema() failed: %v", err)
	}
}

func TestPutList_NewestFirst(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, name := range []string{"oldest", "middle", "newest"} {
		id := int64(i + 1)
		if err := db.Put(ctx, "adventures", "x"+name, doc(t, id, name, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("Put() failed: %v", err)
		}
	}

	docs, err := db.List(ctx, "adventures")
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("len = %d, want 3", len(docs))
	}
	want := []string{"newest", "middle", "oldest"}
	for i, d := range docs {
		if got := title(t, d); got != want[i] {
			t.Errorf("docs[%d] = %q, want %q", i, got, want[i])
		}
	}

	n, err := db.Count(ctx, "adventures")
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if n != 3 {
		t.Errorf("Count() = %d, want 3", n)
	}
}

func TestMerge(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	created := time.Date(2026, 3, 3, 3, 3, 3, 0, time.UTC)

	if err := db.Put(ctx, "adventures", "1", doc(t, 1, "before", created)); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	partial := wire.Document{
		"title":     json.RawMessage(`"after"`),
		"id":        wire.Null,
		"createdAt": json.RawMessage(`{"seconds":1,"nanos":0}`),
	}
	if err := db.Merge(ctx, "adventures", "1", partial); err != nil {
		t.Fatalf("Merge() failed: %v", err)
	}

	docs, err := db.List(ctx, "adventures")
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if got := title(t, docs[0]); got != "after" {
		t.Errorf("title = %q, want %q", got, "after")
	}
	if got, ok := docs[0].Time(wire.FieldCreatedAt); !ok || !got.Equal(created) {
		t.Errorf("createdAt = %v, want %v (merge must not rewrite it)", got, created)
	}
	if _, ok := docs[0]["id"]; ok {
		t.Error("null field should be removed by merge")
	}
}

func TestMerge_NotFound(t *testing.T) {
	db := openTestDB(t)
	err := db.Merge(context.Background(), "adventures", "404", wire.Document{"title": json.RawMessage(`"x"`)})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Merge() error = %v, want ErrNotFound", err)
	}
}

func TestVersionAndDelete(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	v0, err := db.Version(ctx, "surprises")
	if err != nil {
		t.Fatalf("Version() failed: %v", err)
	}
	if v0 != 0 {
		t.Errorf("initial version = %d, want 0", v0)
	}

	if err := db.Put(ctx, "surprises", "1", doc(t, 1, "gift", time.Now())); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	v1, _ := db.Version(ctx, "surprises")
	if v1 <= v0 {
		t.Errorf("version after Put = %d, want > %d", v1, v0)
	}

	if err := db.Delete(ctx, "surprises", "1"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	v2, _ := db.Version(ctx, "surprises")
	if v2 <= v1 {
		t.Errorf("version after Delete = %d, want > %d", v2, v1)
	}

	// Deleting again is a no-op and leaves the version alone.
	if err := db.Delete(ctx, "surprises", "1"); err != nil {
		t.Fatalf("second Delete() failed: %v", err)
	}
	v3, _ := db.Version(ctx, "surprises")
	if v3 != v2 {
		t.Errorf("version after no-op Delete = %d, want %d", v3, v2)
	}

	other, _ := db.Version(ctx, "adventures")
	if other != 0 {
		t.Errorf("unrelated collection version = %d, want 0", other)
	}
}
