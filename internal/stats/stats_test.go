package stats

import (
	"io"
	"log"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/doree-nobuu/adventures/internal/local"
	"github.com/doree-nobuu/adventures/internal/types"
)

var now = time.Date(2024, 6, 15, 18, 30, 0, 0, time.UTC)

func daysAgo(n int) time.Time {
	return now.AddDate(0, 0, -n)
}

func completed(cat types.Category, on time.Time) types.Adventure {
	a := types.Adventure{Title: "done", Category: cat, Status: types.StatusCompleted, CompletedDate: &on}
	a.SetDefaults()
	return a
}

func TestStreaks(t *testing.T) {
	tests := []struct {
		name        string
		dates       []time.Time
		wantCurrent int
		wantLongest int
	}{
		{"none", nil, 0, 0},
		{"today, -1, -2, -5", []time.Time{daysAgo(0), daysAgo(1), daysAgo(2), daysAgo(5)}, 3, 3},
		{"-3, -4, -5 only", []time.Time{daysAgo(3), daysAgo(4), daysAgo(5)}, 0, 3},
		{"yesterday starts a run", []time.Time{daysAgo(1), daysAgo(2)}, 2, 2},
		{"same day counts once", []time.Time{daysAgo(0), daysAgo(0).Add(-time.Hour), daysAgo(1)}, 2, 2},
		{"longest in the past", []time.Time{daysAgo(0), daysAgo(10), daysAgo(11), daysAgo(12), daysAgo(13)}, 1, 4},
		{"unsorted input", []time.Time{daysAgo(2), daysAgo(0), daysAgo(1)}, 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current, longest := Streaks(tt.dates, now, time.UTC)
			if current != tt.wantCurrent || longest != tt.wantLongest {
				t.Errorf("Streaks() = (%d, %d), want (%d, %d)", current, longest, tt.wantCurrent, tt.wantLongest)
			}
		})
	}
}

func TestStreaks_UsesLocation(t *testing.T) {
	// 23:30 UTC on the 14th is already the 15th in UTC+2.
	loc := time.FixedZone("UTC+2", 2*60*60)
	late := time.Date(2024, 6, 14, 23, 30, 0, 0, time.UTC)
	current, _ := Streaks([]time.Time{late}, now, loc)
	if current != 1 {
		t.Errorf("current = %d, want 1", current)
	}
}

func TestCompute(t *testing.T) {
	four, five := 4, 5
	rated := completed(types.CategoryFood, daysAgo(0))
	rated.Rating = &five
	rated.AssignedTo = types.Partner1
	rated.Photos = []string{"a.jpg", "b.jpg"}
	other := completed(types.CategoryFood, daysAgo(1))
	other.Rating = &four
	unrated := completed(types.CategoryTravel, daysAgo(1))
	unrated.AssignedTo = types.Partner2
	open := types.Adventure{Title: "open", IsSurprise: true, Photos: []string{"ignored.jpg"}}
	open.SetDefaults()

	st := Compute([]types.Adventure{rated, other, unrated, open},
		[]types.Surprise{{Revealed: true}, {}},
		now, time.UTC)

	want := Stats{
		TotalAdventures:     4,
		CompletedAdventures: 3,
		ByCategory:          map[types.Category]int{types.CategoryFood: 2, types.CategoryTravel: 1},
		ByPartner:           PartnerCounts{Partner1: 1, Partner2: 1, Both: 1},
		AverageRating:       4.5,
		TotalPhotos:         2,
		CurrentStreak:       2,
		LongestStreak:       2,
		SurpriseAdventures:  1,
		Surprises:           2,
		UnrevealedSurprises: 1,
	}
	if diff := cmp.Diff(want, st); diff != "" {
		t.Errorf("Compute() mismatch (-want +got):\n%s", diff)
	}
}

func TestCompute_NoRatings(t *testing.T) {
	st := Compute([]types.Adventure{completed(types.CategoryHome, daysAgo(0))}, nil, now, time.UTC)
	if st.AverageRating != 0 {
		t.Errorf("AverageRating = %v, want 0", st.AverageRating)
	}
	empty := Compute(nil, nil, now, time.UTC)
	if empty.AverageRating != 0 || empty.CurrentStreak != 0 || empty.ByCategory == nil {
		t.Errorf("Compute(nil) = %+v", empty)
	}
}

func TestRulesCoverCatalog(t *testing.T) {
	catalog := Catalog()
	if len(catalog) != 12 {
		t.Fatalf("Catalog() has %d entries, want 12", len(catalog))
	}
	rules := make(map[string]bool)
	for _, r := range Rules {
		rules[r.ID] = true
	}
	for _, a := range catalog {
		if !rules[a.ID] {
			t.Errorf("no rule for %s", a.ID)
		}
		if a.Unlocked() {
			t.Errorf("%s starts unlocked", a.ID)
		}
	}
}

func newTracker(t *testing.T) (*Tracker, *local.Memory) {
	t.Helper()
	logger := log.New(io.Discard, "", 0)
	store := local.NewMemory(logger)
	return NewTracker(store, time.UTC, logger), store
}

func ids(as []types.Achievement) []string {
	out := []string{}
	for _, a := range as {
		out = append(out, a.ID)
	}
	return out
}

func TestTracker_Evaluate(t *testing.T) {
	tr, store := newTracker(t)

	got := tr.Evaluate([]types.Adventure{completed(types.CategoryFood, daysAgo(0))}, nil, now)
	if diff := cmp.Diff([]string{"first-adventure", "first-food"}, ids(got)); diff != "" {
		t.Errorf("first Evaluate() mismatch (-want +got):\n%s", diff)
	}
	if again := tr.Evaluate([]types.Adventure{completed(types.CategoryFood, daysAgo(0))}, nil, now.Add(time.Hour)); len(again) != 0 {
		t.Errorf("second Evaluate() unlocked %v again", ids(again))
	}

	var stored []types.Achievement
	if err := store.Load(local.KeyAchievements, &stored); err != nil {
		t.Fatalf("catalog not persisted: %v", err)
	}
	unlocked := 0
	for _, a := range stored {
		if a.Unlocked() {
			unlocked++
			if !a.UnlockedAt.Equal(now) {
				t.Errorf("%s UnlockedAt = %v, want %v", a.ID, a.UnlockedAt, now)
			}
		}
	}
	if unlocked != 2 {
		t.Errorf("persisted %d unlocks, want 2", unlocked)
	}
}

func TestTracker_UnlocksAreSticky(t *testing.T) {
	tr, _ := newTracker(t)
	tr.Evaluate([]types.Adventure{completed(types.CategoryTravel, daysAgo(0))}, nil, now)
	tr.Evaluate(nil, nil, now.Add(time.Hour))

	if diff := cmp.Diff([]string{"first-adventure", "first-travel"}, ids(tr.Unlocked())); diff != "" {
		t.Errorf("Unlocked() mismatch (-want +got):\n%s", diff)
	}
}

func TestTracker_ThresholdRules(t *testing.T) {
	tr, _ := newTracker(t)

	var advs []types.Adventure
	five := 5
	for i := 0; i < 5; i++ {
		a := completed(types.CategoryMilestone, daysAgo(i))
		a.IsSurprise = true
		a.Photos = []string{"1", "2"}
		a.Rating = &five
		advs = append(advs, a)
	}
	got := tr.Evaluate(advs, nil, now)
	want := []string{"first-adventure", "five-adventures", "first-milestone", "perfect-rating", "photo-master", "surprise-master"}
	if diff := cmp.Diff(want, ids(got)); diff != "" {
		t.Errorf("Evaluate() mismatch (-want +got):\n%s", diff)
	}
}

func TestTracker_LoadsStoredCatalog(t *testing.T) {
	logger := log.New(io.Discard, "", 0)
	store := local.NewMemory(logger)
	at := now.Add(-time.Hour)
	store.Save(local.KeyAchievements, []types.Achievement{
		{ID: "first-adventure", Name: "First Adventure", UnlockedAt: &at},
	})

	tr := NewTracker(store, time.UTC, logger)
	all := tr.All()
	if len(all) != 12 {
		t.Fatalf("All() has %d entries, want 12", len(all))
	}
	if !all[0].Unlocked() || !all[0].UnlockedAt.Equal(at) {
		t.Errorf("stored unlock lost: %+v", all[0])
	}
	if got := tr.Evaluate([]types.Adventure{completed(types.CategoryHome, now)}, nil, now); len(got) != 0 {
		t.Errorf("Evaluate() re-unlocked %v", ids(got))
	}
}

func TestTracker_MalformedCatalogReseeds(t *testing.T) {
	logger := log.New(io.Discard, "", 0)
	store := local.NewMemory(logger)
	if err := store.SaveRaw(local.KeyAchievements, "[{"); err != nil {
		t.Fatalf("SaveRaw() failed: %v", err)
	}
	tr := NewTracker(store, time.UTC, logger)
	if got := len(tr.All()); got != 12 {
		t.Errorf("All() = %d entries, want 12", got)
	}
	if got := len(tr.Unlocked()); got != 0 {
		t.Errorf("Unlocked() = %d, want 0", got)
	}
}

func TestTracker_Subscribe(t *testing.T) {
	tr, _ := newTracker(t)
	var calls int
	cancel := tr.Subscribe(func([]types.Achievement) { calls++ })
	defer cancel()

	tr.Evaluate([]types.Adventure{completed(types.CategoryFood, now)}, nil, now)
	tr.Evaluate([]types.Adventure{completed(types.CategoryFood, now)}, nil, now)
	if calls != 2 {
		t.Errorf("listener calls = %d, want 2 (initial + one unlock)", calls)
	}
}
