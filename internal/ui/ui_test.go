package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/doree-nobuu/adventures/internal/stats"
	"github.com/doree-nobuu/adventures/internal/syncer"
	"github.com/doree-nobuu/adventures/internal/types"
)

func plain() *Theme {
	return NewTheme(&bytes.Buffer{}, false)
}

func TestStars(t *testing.T) {
	three := 3
	if got := Stars(&three); got != "★★★☆☆" {
		t.Errorf("Stars(3) = %q", got)
	}
	if got := Stars(nil); got != "" {
		t.Errorf("Stars(nil) = %q", got)
	}
}

func TestAdventureLine_HidesSurprise(t *testing.T) {
	a := types.Adventure{ID: 7, Title: "Hot air balloon", Category: types.CategoryTravel, Status: types.StatusPlanned, IsSurprise: true}
	line := plain().AdventureLine(a)
	if strings.Contains(line, "balloon") {
		t.Errorf("sealed surprise title shown: %q", line)
	}
	a.Revealed = true
	if line := plain().AdventureLine(a); !strings.Contains(line, "Hot air balloon") || !strings.Contains(line, "#7") {
		t.Errorf("AdventureLine() = %q", line)
	}
}

func TestAdventureDetail(t *testing.T) {
	done := time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC)
	five := 5
	a := types.Adventure{
		ID: 3, Title: "Sushi night", Category: types.CategoryFood, Status: types.StatusCompleted,
		AssignedTo: types.Partner1, CreatedBy: types.Both, CompletedDate: &done, Rating: &five,
		Comments: []types.Comment{{ID: "c1", Text: "Yum", Author: types.Partner2}},
	}
	out := plain().AdventureDetail(a)
	for _, want := range []string{"Sushi night", "May 4, 2024", "★★★★★", "Yum"} {
		if !strings.Contains(out, want) {
			t.Errorf("AdventureDetail() missing %q:\n%s", want, out)
		}
	}
}

func TestStatus(t *testing.T) {
	out := plain().Status(syncer.Status{Connected: false, Message: "Using local storage"})
	if !strings.Contains(out, "Using local storage") {
		t.Errorf("Status() = %q", out)
	}
}

func TestStatsBlock(t *testing.T) {
	out := plain().Stats(stats.Stats{
		TotalAdventures: 4, CompletedAdventures: 2, CurrentStreak: 1, LongestStreak: 2,
		ByCategory: map[types.Category]int{types.CategoryFood: 2},
	})
	for _, want := range []string{"2 of 4", "Longest streak 2", "food"} {
		if !strings.Contains(out, want) {
			t.Errorf("Stats() missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Average rating") {
		t.Errorf("Stats() shows an average with no ratings:\n%s", out)
	}
}
