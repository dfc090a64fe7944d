package stats

import (
	"time"

	"github.com/doree-nobuu/adventures/internal/types"
)

// PartnerCounts counts completed adventures per assignment.
type PartnerCounts struct {
	Partner1 int `json:"partner1"`
	Partner2 int `json:"partner2"`
	Both     int `json:"both"`
}

// Stats is the aggregate view of a couple's adventures.
type Stats struct {
	TotalAdventures     int                    `json:"totalAdventures"`
	CompletedAdventures int                    `json:"completedAdventures"`
	ByCategory          map[types.Category]int `json:"byCategory"`
	ByPartner           PartnerCounts          `json:"byPartner"`
	AverageRating       float64                `json:"averageRating"`
	TotalPhotos         int                    `json:"totalPhotos"`
	CurrentStreak       int                    `json:"currentStreak"`
	LongestStreak       int                    `json:"longestStreak"`

	// SurpriseAdventures counts adventures flagged as surprises, completed or not.
	SurpriseAdventures int `json:"surpriseAdventures"`

	// Surprise box counters.
	Surprises           int `json:"surprises"`
	UnrevealedSurprises int `json:"unrevealedSurprises"`
}

// Compute derives Stats. Category, partner, rating and photo aggregates
// cover completed adventures only. Ratings that are absent are left out of
// the average, which is 0 when nothing is rated. Calendar days are taken
// in loc (time.Local when nil).
func Compute(adventures []types.Adventure, surprises []types.Surprise, now time.Time, loc *time.Location) Stats {
	if loc == nil {
		loc = time.Local
	}
	st := Stats{
		TotalAdventures: len(adventures),
		ByCategory:      make(map[types.Category]int),
		Surprises:       len(surprises),
	}

	var ratingSum, rated int
	var completedOn []time.Time
	for i := range adventures {
		a := &adventures[i]
		if a.IsSurprise {
			st.SurpriseAdventures++
		}
		if !a.IsCompleted() {
			continue
		}
		st.CompletedAdventures++
		st.ByCategory[a.Category]++
		switch a.AssignedTo {
		case types.Partner1:
			st.ByPartner.Partner1++
		case types.Partner2:
			st.ByPartner.Partner2++
		default:
			st.ByPartner.Both++
		}
		if a.Rating != nil {
			ratingSum += *a.Rating
			rated++
		}
		st.TotalPhotos += len(a.Photos)
		if a.CompletedDate != nil {
			completedOn = append(completedOn, *a.CompletedDate)
		}
	}
	if rated > 0 {
		st.AverageRating = float64(ratingSum) / float64(rated)
	}
	st.CurrentStreak, st.LongestStreak = Streaks(completedOn, now, loc)

	for i := range surprises {
		if !surprises[i].Revealed {
			st.UnrevealedSurprises++
		}
	}
	return st
}
