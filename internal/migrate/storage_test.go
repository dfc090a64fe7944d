package migrate

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/doree-nobuu/adventures/internal/local"
	"github.com/doree-nobuu/adventures/internal/types"
)

// browserDump mirrors what the web client left in storage: every value is
// a string.
const browserDump = `{
  "adventure-tracker-adventures": "[{\"id\":3,\"title\":\"Hike the ridge\",\"description\":\"\",\"category\":\"activity\",\"assignedTo\":\"both\",\"createdBy\":\"partner1\",\"status\":\"completed\",\"completedDate\":\"2024-05-04T10:00:00.000Z\",\"photos\":[],\"rating\":5,\"comments\":[],\"isSurprise\":false,\"revealed\":true,\"createdAt\":\"2024-05-01T10:00:00.000Z\",\"updatedAt\":\"2024-05-04T10:00:00.000Z\"},{\"id\":4,\"title\":\"\",\"category\":\"food\"}]",
  "adventure-tracker-next-id": "5",
  "adventure-tracker-surprises": "[]",
  "task-tracker-tasks": "[{\"id\":1,\"title\":\"Book tickets\",\"description\":\"\",\"createdAt\":\"2024-05-01T10:00:00.000Z\",\"updatedAt\":\"2024-05-01T10:00:00.000Z\"}]",
  "adventure-authenticated": "{\"authenticated\":true,\"timestamp\":1714557600000}",
  "adventure-pin": "4321",
  "theme": "dark"
}`

func writeDump(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "storage.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write dump: %v", err)
	}
	return path
}

func newStore() *local.Memory {
	return local.NewMemory(log.New(io.Discard, "", 0))
}

func TestImport(t *testing.T) {
	store := newStore()
	result, err := Import(context.Background(), store, Options{From: writeDump(t, browserDump)})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if result.Adventures != 1 || result.Tasks != 1 || result.Surprises != 0 {
		t.Errorf("counts = %d adventures, %d tasks, %d surprises", result.Adventures, result.Tasks, result.Surprises)
	}
	wantImported := []string{
		"adventure-pin",
		"adventure-tracker-adventures",
		"adventure-tracker-next-id",
		"adventure-tracker-surprises",
		"task-tracker-tasks",
	}
	if diff := cmp.Diff(wantImported, result.KeysImported); diff != "" {
		t.Errorf("KeysImported mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"adventure-authenticated", "theme"}, result.KeysSkipped); diff != "" {
		t.Errorf("KeysSkipped mismatch (-want +got):\n%s", diff)
	}
	if len(result.Errors) != 1 {
		t.Errorf("expected 1 error for the untitled adventure, got %v", result.Errors)
	}

	var advs []types.Adventure
	if err := store.Load(local.KeyAdventures, &advs); err != nil {
		t.Fatalf("Load adventures failed: %v", err)
	}
	if len(advs) != 1 || advs[0].ID != 3 || advs[0].Rating == nil || *advs[0].Rating != 5 {
		t.Errorf("adventures = %+v", advs)
	}

	var next int64
	if err := store.Load(local.KeyAdventuresNextID, &next); err != nil || next != 5 {
		t.Errorf("next id = %d, %v; want 5", next, err)
	}

	var tasks []types.Task
	if err := store.Load(local.KeyTasks, &tasks); err != nil {
		t.Fatalf("Load tasks failed: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Status != types.TaskPending || tasks[0].Priority != types.PriorityMedium {
		t.Errorf("tasks = %+v, want defaults applied", tasks)
	}

	var pin string
	if err := store.Load(local.KeyPin, &pin); err != nil || pin != "4321" {
		t.Errorf("pin = %q, %v; want 4321", pin, err)
	}

	if err := store.Load(local.KeyAuthenticated, new(json.RawMessage)); err == nil {
		t.Error("browser session should not be imported")
	}
}

func TestImport_DryRun(t *testing.T) {
	store := newStore()
	result, err := Import(context.Background(), store, Options{From: writeDump(t, browserDump), DryRun: true})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if result.Adventures != 1 {
		t.Errorf("expected 1 adventure counted, got %d", result.Adventures)
	}
	names, _ := store.Namespaces()
	if len(names) != 0 {
		t.Errorf("dry run wrote %v", names)
	}
}

func TestImport_Backup(t *testing.T) {
	store := newStore()
	store.Save(local.KeyTasksNextID, 9)

	backupDir := t.TempDir()
	result, err := Import(context.Background(), store, Options{From: writeDump(t, browserDump), BackupDir: backupDir})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if result.BackupCreated == "" {
		t.Fatal("expected backup path")
	}

	backup, err := ReadDump(result.BackupCreated)
	if err != nil {
		t.Fatalf("ReadDump failed: %v", err)
	}
	if len(backup) != 1 || string(backup[local.KeyTasksNextID]) != `"9"` {
		t.Errorf("backup = %v", backup)
	}
}

func TestImport_RawValues(t *testing.T) {
	store := newStore()
	dump := `{"adventure-tracker-surprises-next-id": 7, "adventure-tracker-surprises": [{"id":6,"photo":"https://example.com/a.jpg","from":"partner1","to":"partner2","revealed":false,"comments":[],"createdAt":"2024-05-01T10:00:00Z","updatedAt":"2024-05-01T10:00:00Z"}]}`
	result, err := Import(context.Background(), store, Options{From: writeDump(t, dump)})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if result.Surprises != 1 || len(result.Errors) != 0 {
		t.Errorf("result = %+v", result)
	}
	var next int64
	if err := store.Load(local.KeySurprisesNextID, &next); err != nil || next != 7 {
		t.Errorf("next id = %d, %v; want 7", next, err)
	}
}

func TestImport_BadValueSkipsKey(t *testing.T) {
	store := newStore()
	dump := `{"adventure-tracker-adventures": "not json", "adventure-pin": "12"}`
	result, err := Import(context.Background(), store, Options{From: writeDump(t, dump)})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if len(result.KeysImported) != 0 || len(result.Errors) != 2 {
		t.Errorf("result = %+v", result)
	}
}

func TestImport_InvalidFile(t *testing.T) {
	if _, err := Import(context.Background(), newStore(), Options{From: "/nonexistent/storage.json"}); err == nil {
		t.Error("expected error for nonexistent file")
	}
	if _, err := Import(context.Background(), newStore(), Options{From: writeDump(t, "[1,2]")}); err == nil {
		t.Error("expected error for a dump that is not an object")
	}
}

func TestDumpRoundTrip(t *testing.T) {
	src := newStore()
	if _, err := Import(context.Background(), src, Options{From: writeDump(t, browserDump)}); err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	src.Save("unrelated", true)

	path := filepath.Join(t.TempDir(), "out", "dump.json")
	if err := WriteDump(src, path); err != nil {
		t.Fatalf("WriteDump failed: %v", err)
	}

	dst := newStore()
	result, err := Import(context.Background(), dst, Options{From: path})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if len(result.Errors) != 0 || len(result.KeysSkipped) != 0 {
		t.Errorf("result = %+v", result)
	}

	var want, got []types.Adventure
	_ = src.Load(local.KeyAdventures, &want)
	_ = dst.Load(local.KeyAdventures, &got)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("adventures mismatch (-want +got):\n%s", diff)
	}
}
