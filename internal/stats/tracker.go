package stats

import (
	"log"
	"os"
	"sync"
	"time"

	"github.com/doree-nobuu/adventures/internal/local"
	"github.com/doree-nobuu/adventures/internal/types"
)

// Tracker owns the achievement catalog and its unlock state.
type Tracker struct {
	store  local.Store
	logger *log.Logger
	loc    *time.Location

	mu        sync.Mutex
	catalog   []types.Achievement
	listeners map[int]func([]types.Achievement)
	nextKey   int
}

// NewTracker loads the catalog from store, seeding it when missing or
// malformed. Entries added to Catalog since the last save are appended
// locked.
func NewTracker(store local.Store, loc *time.Location, logger *log.Logger) *Tracker {
	if logger == nil {
		logger = log.New(os.Stderr, "[stats] ", log.LstdFlags)
	}
	if loc == nil {
		loc = time.Local
	}
	t := &Tracker{
		store:     store,
		logger:    logger,
		loc:       loc,
		listeners: make(map[int]func([]types.Achievement)),
	}
	t.catalog = t.load()
	return t
}

func (t *Tracker) load() []types.Achievement {
	var stored []types.Achievement
	if err := t.store.Load(local.KeyAchievements, &stored); err != nil {
		catalog := Catalog()
		t.store.Save(local.KeyAchievements, catalog)
		return catalog
	}

	have := make(map[string]bool, len(stored))
	for _, a := range stored {
		have[a.ID] = true
	}
	for _, a := range Catalog() {
		if !have[a.ID] {
			stored = append(stored, a)
		}
	}
	return stored
}

// Evaluate recomputes stats, runs the rule table and unlocks every
// achievement whose rule now holds. It returns the newly unlocked entries
// and persists the catalog when there are any. Unlocks are never undone.
func (t *Tracker) Evaluate(adventures []types.Adventure, surprises []types.Surprise, now time.Time) []types.Achievement {
	in := Input{
		Stats:      Compute(adventures, surprises, now, t.loc),
		Adventures: adventures,
	}

	t.mu.Lock()
	var unlocked []types.Achievement
	for _, rule := range Rules {
		a := t.findLocked(rule.ID)
		if a == nil || a.Unlocked() || !rule.Met(in) {
			continue
		}
		if a.Unlock(now) {
			unlocked = append(unlocked, a.Clone())
		}
	}
	var snapshot []types.Achievement
	if len(unlocked) > 0 {
		snapshot = t.copyLocked()
	}
	t.mu.Unlock()

	if len(unlocked) == 0 {
		return nil
	}
	t.store.Save(local.KeyAchievements, snapshot)
	t.publish(snapshot)
	return unlocked
}

// All returns the full catalog.
func (t *Tracker) All() []types.Achievement {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.copyLocked()
}

// Unlocked returns the earned achievements.
func (t *Tracker) Unlocked() []types.Achievement {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := []types.Achievement{}
	for i := range t.catalog {
		if t.catalog[i].Unlocked() {
			out = append(out, t.catalog[i].Clone())
		}
	}
	return out
}

// Subscribe registers fn for catalog changes and calls it once right away.
func (t *Tracker) Subscribe(fn func([]types.Achievement)) (cancel func()) {
	t.mu.Lock()
	key := t.nextKey
	t.nextKey++
	t.listeners[key] = fn
	snapshot := t.copyLocked()
	t.mu.Unlock()

	fn(snapshot)
	return func() {
		t.mu.Lock()
		delete(t.listeners, key)
		t.mu.Unlock()
	}
}

func (t *Tracker) publish(snapshot []types.Achievement) {
	t.mu.Lock()
	fns := make([]func([]types.Achievement), 0, len(t.listeners))
	for _, fn := range t.listeners {
		fns = append(fns, fn)
	}
	t.mu.Unlock()

	for _, fn := range fns {
		out := make([]types.Achievement, len(snapshot))
		for i := range snapshot {
			out[i] = snapshot[i].Clone()
		}
		fn(out)
	}
}

func (t *Tracker) findLocked(id string) *types.Achievement {
	for i := range t.catalog {
		if t.catalog[i].ID == id {
			return &t.catalog[i]
		}
	}
	return nil
}

func (t *Tracker) copyLocked() []types.Achievement {
	out := make([]types.Achievement, len(t.catalog))
	for i := range t.catalog {
		out[i] = t.catalog[i].Clone()
	}
	return out
}
