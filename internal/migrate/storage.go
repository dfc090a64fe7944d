// Package migrate imports a browser storage dump into the local store and
// writes the local store back out in the same format.
//
// A dump is a JSON object mapping storage keys to values. Browser storage
// only holds strings, so each value is normally a JSON document encoded as
// a string; raw JSON values are accepted as well. Records are validated
// before anything is written and invalid ones are reported and skipped.
package migrate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/doree-nobuu/adventures/internal/auth"
	"github.com/doree-nobuu/adventures/internal/local"
	"github.com/doree-nobuu/adventures/internal/types"
)

// Options contains configuration for an import.
type Options struct {
	From      string // Input dump file path
	DryRun    bool   // Preview without writing
	BackupDir string // Write a dump of the current store here first (optional)
}

// Result contains statistics about an import.
type Result struct {
	Adventures    int
	Surprises     int
	Tasks         int
	Achievements  int
	KeysImported  []string
	KeysSkipped   []string
	BackupCreated string
	Errors        []string
}

// ReadDump reads a storage dump file.
func ReadDump(path string) (map[string]json.RawMessage, error) {
	// #nosec G304 - controlled path from CLI
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dump: %w", err)
	}
	var dump map[string]json.RawMessage
	if err := json.Unmarshal(data, &dump); err != nil {
		return nil, fmt.Errorf("invalid dump: %w", err)
	}
	return dump, nil
}

// unwrap returns the JSON document a storage value holds. String values are
// unquoted; anything else is taken as-is.
func unwrap(raw json.RawMessage) []byte {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return []byte(s)
		}
	}
	return raw
}

// decodeList decodes a record list, dropping records that fail validation.
func decodeList[T any](key string, raw json.RawMessage, prepare func(*T), validate func(*T) error, result *Result) ([]*T, error) {
	var items []*T
	if err := json.Unmarshal(unwrap(raw), &items); err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	out := make([]*T, 0, len(items))
	for i, item := range items {
		if item == nil {
			continue
		}
		prepare(item)
		if err := validate(item); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s[%d]: %v", key, i, err))
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func decodeNextID(key string, raw json.RawMessage) (int64, error) {
	var id int64
	if err := json.Unmarshal(unwrap(raw), &id); err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if id < 1 {
		return 0, fmt.Errorf("%s: next id must be positive (got %d)", key, id)
	}
	return id, nil
}

// decodePin accepts both a JSON string and the bare digits browser storage
// keeps.
func decodePin(raw json.RawMessage) (string, error) {
	pin := strings.TrimSpace(string(unwrap(raw)))
	var s string
	if err := json.Unmarshal([]byte(pin), &s); err == nil {
		pin = s
	}
	if err := auth.ValidatePin(pin); err != nil {
		return "", fmt.Errorf("%s: %w", local.KeyPin, err)
	}
	return pin, nil
}

// Import loads a dump into store. Keys the application does not use are
// skipped, as is the browser login session.
func Import(ctx context.Context, store local.Store, opts Options) (*Result, error) {
	if _, err := os.Stat(opts.From); err != nil {
		return nil, fmt.Errorf("input file does not exist: %w", err)
	}
	dump, err := ReadDump(opts.From)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	pending := make(map[string]any)

	keys := make([]string, 0, len(dump))
	for k := range dump {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw := dump[key]
		var value any
		var err error
		switch key {
		case local.KeyAdventures:
			var items []*types.Adventure
			items, err = decodeList(key, raw, (*types.Adventure).SetDefaults, (*types.Adventure).Validate, result)
			result.Adventures = len(items)
			value = items
		case local.KeySurprises:
			var items []*types.Surprise
			items, err = decodeList(key, raw, (*types.Surprise).SetDefaults, (*types.Surprise).Validate, result)
			result.Surprises = len(items)
			value = items
		case local.KeyTasks:
			var items []*types.Task
			items, err = decodeList(key, raw, (*types.Task).SetDefaults, (*types.Task).Validate, result)
			result.Tasks = len(items)
			value = items
		case local.KeyAchievements:
			var items []*types.Achievement
			items, err = decodeList(key, raw, func(*types.Achievement) {}, validateAchievement, result)
			for _, a := range items {
				if a.Unlocked() {
					result.Achievements++
				}
			}
			value = items
		case local.KeyAdventuresNextID, local.KeySurprisesNextID, local.KeyTasksNextID:
			value, err = decodeNextID(key, raw)
		case local.KeyPin:
			value, err = decodePin(raw)
		default:
			result.KeysSkipped = append(result.KeysSkipped, key)
			continue
		}
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
			result.KeysSkipped = append(result.KeysSkipped, key)
			continue
		}
		pending[key] = value
		result.KeysImported = append(result.KeysImported, key)
	}

	if opts.DryRun {
		return result, nil
	}

	if opts.BackupDir != "" {
		path := filepath.Join(opts.BackupDir, "adv-backup."+time.Now().Format("20060102-150405")+".json")
		if err := WriteDump(store, path); err != nil {
			return nil, fmt.Errorf("failed to create backup: %w", err)
		}
		result.BackupCreated = path
	}

	for _, key := range result.KeysImported {
		store.Save(key, pending[key])
	}
	return result, nil
}

func validateAchievement(a *types.Achievement) error {
	if a.ID == "" {
		return errors.New("achievement id is required")
	}
	return nil
}

// Dump collects every known namespace of store in browser storage format.
func Dump(store local.Store) (map[string]string, error) {
	names, err := store.Namespaces()
	if err != nil {
		return nil, fmt.Errorf("failed to list namespaces: %w", err)
	}
	known := make(map[string]bool, len(local.KnownKeys))
	for _, k := range local.KnownKeys {
		known[k] = true
	}

	dump := make(map[string]string, len(names))
	for _, name := range names {
		if !known[name] {
			continue
		}
		var v json.RawMessage
		if err := store.Load(name, &v); err != nil {
			continue
		}
		dump[name] = string(v)
	}
	return dump, nil
}

// WriteDump writes the store to path in browser storage format.
func WriteDump(store local.Store, path string) error {
	dump, err := Dump(store)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create dump directory: %w", err)
	}

	data, err := json.MarshalIndent(dump, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal dump: %w", err)
	}

	// Write atomically via temp file
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
