package syncer

import (
	"context"
	"time"

	"github.com/doree-nobuu/adventures/internal/local"
	"github.com/doree-nobuu/adventures/internal/types"
	"github.com/doree-nobuu/adventures/internal/wire"
)

// SurpriseKind describes surprises to a Collection.
var SurpriseKind = Kind[types.Surprise]{
	Name:      "surprises",
	Key:       local.KeySurprises,
	NextIDKey: local.KeySurprisesNextID,
	ID:        func(s *types.Surprise) int64 { return s.ID },
	SetID:     func(s *types.Surprise, id int64) { s.ID = id },
	CreatedAt: func(s *types.Surprise) time.Time { return s.CreatedAt },
	Stamp: func(s *types.Surprise, created, now time.Time) {
		s.CreatedAt = created
		s.Touch(now)
	},
	Clone:    func(s *types.Surprise) *types.Surprise { return s.Clone() },
	Validate: func(s *types.Surprise) error { return s.Validate() },
	Prepare:  func(s *types.Surprise, _ time.Time) { s.SetDefaults() },
	Encode:   wire.EncodeSurprise,
	Decode:   wire.DecodeSurprise,
	Blobs:    func(s *types.Surprise) []*string { return []*string{&s.Photo} },
	Seed:     func(time.Time) []*types.Surprise { return []*types.Surprise{} },
}

// Surprises is the surprise-box service.
type Surprises struct {
	*Collection[types.Surprise]
	clock func() time.Time
}

// NewSurprises creates the surprise collection.
func NewSurprises(opts Options) *Surprises {
	c := NewCollection(SurpriseKind, opts)
	return &Surprises{Collection: c, clock: c.clock}
}

// Create leaves a new, unrevealed surprise.
func (s *Surprises) Create(ctx context.Context, photo string, from, to types.Partner, message string) (types.Surprise, error) {
	return s.Collection.Create(ctx, types.Surprise{
		Photo:   photo,
		From:    from,
		To:      to,
		Message: message,
	})
}

// Reveal opens a surprise. Revealing twice keeps the first reveal time.
func (s *Surprises) Reveal(ctx context.Context, id int64) (types.Surprise, error) {
	cur, err := s.Get(id)
	if err != nil {
		return types.Surprise{}, err
	}
	if cur.Revealed && cur.RevealedAt != nil {
		return cur, nil
	}
	return s.Update(ctx, id, func(sp *types.Surprise) error {
		sp.Reveal(s.clock())
		return nil
	})
}

// AddComment posts a comment on a surprise.
func (s *Surprises) AddComment(ctx context.Context, id int64, text string, author types.Partner) (types.Comment, error) {
	comment, err := types.NewComment(text, author, s.clock())
	if err != nil {
		return types.Comment{}, err
	}
	if _, err := s.Update(ctx, id, func(sp *types.Surprise) error {
		sp.Comments = append(sp.Comments, comment)
		return nil
	}); err != nil {
		return types.Comment{}, err
	}
	return comment, nil
}

// DeleteComment removes a comment; a missing comment is a no-op.
func (s *Surprises) DeleteComment(ctx context.Context, id int64, commentID string) (types.Surprise, error) {
	cur, err := s.Get(id)
	if err != nil {
		return types.Surprise{}, err
	}
	if _, found := types.RemoveComment(cur.Comments, commentID); !found {
		return cur, nil
	}
	return s.Update(ctx, id, func(sp *types.Surprise) error {
		sp.Comments, _ = types.RemoveComment(sp.Comments, commentID)
		return nil
	})
}

// Unrevealed returns surprises still waiting to be opened.
func (s *Surprises) Unrevealed() []types.Surprise {
	return s.Filter(func(sp *types.Surprise) bool { return !sp.Revealed })
}

// For returns surprises addressed to p (including ones for both).
func (s *Surprises) For(p types.Partner) []types.Surprise {
	return s.Filter(func(sp *types.Surprise) bool { return sp.To == p || sp.To == types.Both })
}
