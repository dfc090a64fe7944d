package types

import (
	"fmt"
	"time"
)

// Surprise is a photo one partner leaves for the other, hidden until revealed.
type Surprise struct {
	ID         int64      `json:"id"`
	Photo      string     `json:"photo"` // URL or inline data: URI
	From       Partner    `json:"from"`
	To         Partner    `json:"to"`
	Message    string     `json:"message,omitempty"`
	Revealed   bool       `json:"revealed"`
	RevealedAt *time.Time `json:"revealedAt,omitempty"`
	Comments   []Comment  `json:"comments"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// Validate checks if the Surprise has valid field values.
func (s *Surprise) Validate() error {
	if s.Photo == "" {
		return fmt.Errorf("photo is required")
	}
	if !s.From.IsValid() {
		return fmt.Errorf("invalid from %q", s.From)
	}
	if !s.To.IsValid() {
		return fmt.Errorf("invalid to %q", s.To)
	}
	if !s.CreatedAt.IsZero() && s.UpdatedAt.Before(s.CreatedAt) {
		return fmt.Errorf("updated_at must not be before created_at")
	}
	return nil
}

// SetDefaults applies default values for omitted fields.
func (s *Surprise) SetDefaults() {
	if s.From == "" {
		s.From = Both
	}
	if s.To == "" {
		s.To = Both
	}
	if s.Comments == nil {
		s.Comments = []Comment{}
	}
}

// Title is the listing label for a surprise.
func (s *Surprise) Title() string {
	return fmt.Sprintf("Surprise from %s to %s", s.From.Label(), s.To.Label())
}

// Reveal marks the surprise revealed. Revealing twice keeps the first RevealedAt.
func (s *Surprise) Reveal(now time.Time) {
	if s.Revealed && s.RevealedAt != nil {
		return
	}
	s.Revealed = true
	if s.RevealedAt == nil {
		t := now
		s.RevealedAt = &t
	}
}

// Clone returns a deep copy.
func (s *Surprise) Clone() *Surprise {
	c := *s
	c.RevealedAt = cloneTime(s.RevealedAt)
	c.Comments = cloneComments(s.Comments)
	return &c
}

// Touch sets UpdatedAt, never letting it fall behind CreatedAt.
func (s *Surprise) Touch(now time.Time) {
	s.UpdatedAt = laterOf(now, s.CreatedAt)
}
