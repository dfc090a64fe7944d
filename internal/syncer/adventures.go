package syncer

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/doree-nobuu/adventures/internal/local"
	"github.com/doree-nobuu/adventures/internal/types"
	"github.com/doree-nobuu/adventures/internal/wire"
)

// AdventureKind describes adventures to a Collection.
var AdventureKind = Kind[types.Adventure]{
	Name:      "adventures",
	Key:       local.KeyAdventures,
	NextIDKey: local.KeyAdventuresNextID,
	ID:        func(a *types.Adventure) int64 { return a.ID },
	SetID:     func(a *types.Adventure, id int64) { a.ID = id },
	CreatedAt: func(a *types.Adventure) time.Time { return a.CreatedAt },
	Stamp: func(a *types.Adventure, created, now time.Time) {
		a.CreatedAt = created
		a.Touch(now)
	},
	Clone:    func(a *types.Adventure) *types.Adventure { return a.Clone() },
	Validate: func(a *types.Adventure) error { return a.Validate() },
	Prepare: func(a *types.Adventure, now time.Time) {
		a.SetDefaults()
		a.ApplyCompletion(now)
	},
	Encode: wire.EncodeAdventure,
	Decode: wire.DecodeAdventure,
	Blobs: func(a *types.Adventure) []*string {
		out := make([]*string, len(a.Photos))
		for i := range a.Photos {
			out[i] = &a.Photos[i]
		}
		return out
	},
	Seed: seedAdventures,
}

func seedAdventures(now time.Time) []*types.Adventure {
	return []*types.Adventure{
		{
			ID:          1,
			Title:       "Watch a sunset together",
			Description: "Find a beautiful spot and watch the sunset hand in hand",
			Category:    types.CategoryActivity,
			AssignedTo:  types.Both,
			CreatedBy:   types.Both,
			Status:      types.StatusWishlist,
			Photos:      []string{},
			Comments:    []types.Comment{},
			Revealed:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			ID:          2,
			Title:       "Try a new restaurant",
			Description: "Explore a cuisine we've never tried before",
			Category:    types.CategoryFood,
			AssignedTo:  types.Both,
			CreatedBy:   types.Both,
			Status:      types.StatusWishlist,
			Photos:      []string{},
			Comments:    []types.Comment{},
			Revealed:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}
}

// Adventures is the adventure service.
type Adventures struct {
	*Collection[types.Adventure]
	clock func() time.Time
}

// NewAdventures creates the adventure collection.
func NewAdventures(opts Options) *Adventures {
	c := NewCollection(AdventureKind, opts)
	return &Adventures{Collection: c, clock: c.clock}
}

// Create adds an adventure. A surprise starts hidden; anything else is
// revealed from the start.
func (s *Adventures) Create(ctx context.Context, a types.Adventure) (types.Adventure, error) {
	a.Revealed = !a.IsSurprise
	return s.Collection.Create(ctx, a)
}

// SetStatus moves an adventure to status. Completing it stamps the
// completion date and reveals a surprise.
func (s *Adventures) SetStatus(ctx context.Context, id int64, status types.Status) (types.Adventure, error) {
	if !status.IsValid() {
		return types.Adventure{}, fmt.Errorf("invalid status %q", status)
	}
	return s.Update(ctx, id, func(a *types.Adventure) error {
		a.Status = status
		return nil
	})
}

// Complete marks an adventure completed with an optional rating and review.
func (s *Adventures) Complete(ctx context.Context, id int64, rating *int, review string) (types.Adventure, error) {
	return s.Update(ctx, id, func(a *types.Adventure) error {
		a.Status = types.StatusCompleted
		if rating != nil {
			r := *rating
			a.Rating = &r
		}
		if review != "" {
			a.Review = review
		}
		return nil
	})
}

// AddPhoto appends a photo URL or inline data: URI.
func (s *Adventures) AddPhoto(ctx context.Context, id int64, photo string) (types.Adventure, error) {
	if photo == "" {
		return types.Adventure{}, fmt.Errorf("photo is required")
	}
	return s.Update(ctx, id, func(a *types.Adventure) error {
		a.Photos = append(a.Photos, photo)
		return nil
	})
}

// RemovePhoto drops the photo at index.
func (s *Adventures) RemovePhoto(ctx context.Context, id int64, index int) (types.Adventure, error) {
	return s.Update(ctx, id, func(a *types.Adventure) error {
		if index < 0 || index >= len(a.Photos) {
			return fmt.Errorf("photo index %d out of range (have %d)", index, len(a.Photos))
		}
		a.Photos = append(a.Photos[:index:index], a.Photos[index+1:]...)
		return nil
	})
}

// AddComment posts a comment. Blank text is rejected.
func (s *Adventures) AddComment(ctx context.Context, id int64, text string, author types.Partner) (types.Comment, error) {
	comment, err := types.NewComment(text, author, s.clock())
	if err != nil {
		return types.Comment{}, err
	}
	if _, err := s.Update(ctx, id, func(a *types.Adventure) error {
		a.Comments = append(a.Comments, comment)
		return nil
	}); err != nil {
		return types.Comment{}, err
	}
	return comment, nil
}

// DeleteComment removes a comment. A comment that is not there is a
// no-op: nothing is written and no error is returned.
func (s *Adventures) DeleteComment(ctx context.Context, id int64, commentID string) (types.Adventure, error) {
	a, err := s.Get(id)
	if err != nil {
		return types.Adventure{}, err
	}
	if _, found := types.RemoveComment(a.Comments, commentID); !found {
		return a, nil
	}
	return s.Update(ctx, id, func(a *types.Adventure) error {
		a.Comments, _ = types.RemoveComment(a.Comments, commentID)
		return nil
	})
}

// ByStatus returns adventures with status.
func (s *Adventures) ByStatus(status types.Status) []types.Adventure {
	return s.Filter(func(a *types.Adventure) bool { return a.Status == status })
}

// ByCategory returns adventures in category.
func (s *Adventures) ByCategory(category types.Category) []types.Adventure {
	return s.Filter(func(a *types.Adventure) bool { return a.Category == category })
}

// Completed returns completed adventures, most recently completed first.
func (s *Adventures) Completed() []types.Adventure {
	out := s.Filter(func(a *types.Adventure) bool { return a.IsCompleted() })
	sort.SliceStable(out, func(i, j int) bool {
		return completedAt(&out[i]).After(completedAt(&out[j]))
	})
	return out
}

// Upcoming returns planned adventures whose target date is not in the
// past, soonest first.
func (s *Adventures) Upcoming() []types.Adventure {
	now := s.clock()
	out := s.Filter(func(a *types.Adventure) bool {
		return a.Status == types.StatusPlanned && a.TargetDate != nil && !a.TargetDate.Before(now)
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TargetDate.Before(*out[j].TargetDate)
	})
	return out
}

func completedAt(a *types.Adventure) time.Time {
	if a.CompletedDate != nil {
		return *a.CompletedDate
	}
	return time.Time{}
}
