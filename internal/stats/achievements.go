package stats

import "github.com/doree-nobuu/adventures/internal/types"

// Catalog returns a fresh copy of the achievement catalog, all locked.
func Catalog() []types.Achievement {
	return []types.Achievement{
		{ID: "first-adventure", Name: "First Adventure", Description: "Created your first adventure together", Icon: "🌟", Category: "milestone"},
		{ID: "five-adventures", Name: "Getting Started", Description: "Completed 5 adventures", Icon: "⭐", Category: "milestone"},
		{ID: "ten-adventures", Name: "Adventure Duo", Description: "Completed 10 adventures", Icon: "✨", Category: "milestone"},
		{ID: "twenty-adventures", Name: "Power Couple", Description: "Completed 20 adventures", Icon: "💫", Category: "milestone"},
		{ID: "fifty-adventures", Name: "Adventure Masters", Description: "Completed 50 adventures", Icon: "🏆", Category: "milestone"},
		{ID: "first-travel", Name: "Wanderlust", Description: "Completed your first travel adventure", Icon: "✈️", Category: "travel"},
		{ID: "first-food", Name: "Foodies", Description: "Completed your first food adventure", Icon: "🍽️", Category: "food"},
		{ID: "first-activity", Name: "Active Together", Description: "Completed your first activity adventure", Icon: "🎯", Category: "activity"},
		{ID: "first-milestone", Name: "Milestone Makers", Description: "Completed your first milestone", Icon: "🎉", Category: "milestone"},
		{ID: "perfect-rating", Name: "Perfect Memories", Description: "Rated an adventure 5 stars", Icon: "💖", Category: "rating"},
		{ID: "photo-master", Name: "Memory Keepers", Description: "Added photos to 10 adventures", Icon: "📸", Category: "photos"},
		{ID: "surprise-master", Name: "Surprise Experts", Description: "Created 5 surprise adventures", Icon: "🎁", Category: "surprise"},
	}
}

// Input is what the unlock rules are evaluated against.
type Input struct {
	Stats      Stats
	Adventures []types.Adventure
}

// Rule unlocks one achievement when Met reports true.
type Rule struct {
	ID  string
	Met func(Input) bool
}

// Rules is the unlock rule table, one rule per catalog entry.
var Rules = []Rule{
	{"first-adventure", completedAtLeast(1)},
	{"five-adventures", completedAtLeast(5)},
	{"ten-adventures", completedAtLeast(10)},
	{"twenty-adventures", completedAtLeast(20)},
	{"fifty-adventures", completedAtLeast(50)},
	{"first-travel", completedIn(types.CategoryTravel)},
	{"first-food", completedIn(types.CategoryFood)},
	{"first-activity", completedIn(types.CategoryActivity)},
	{"first-milestone", completedIn(types.CategoryMilestone)},
	{"perfect-rating", func(in Input) bool {
		return anyCompleted(in.Adventures, func(a *types.Adventure) bool {
			return a.Rating != nil && *a.Rating == 5
		})
	}},
	{"photo-master", func(in Input) bool { return in.Stats.TotalPhotos >= 10 }},
	{"surprise-master", func(in Input) bool { return in.Stats.SurpriseAdventures >= 5 }},
}

func completedAtLeast(n int) func(Input) bool {
	return func(in Input) bool { return in.Stats.CompletedAdventures >= n }
}

func completedIn(c types.Category) func(Input) bool {
	return func(in Input) bool {
		return anyCompleted(in.Adventures, func(a *types.Adventure) bool { return a.Category == c })
	}
}

func anyCompleted(advs []types.Adventure, pred func(*types.Adventure) bool) bool {
	for i := range advs {
		if advs[i].IsCompleted() && pred(&advs[i]) {
			return true
		}
	}
	return false
}
