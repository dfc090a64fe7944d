package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Comment is a note attached to an adventure or surprise.
type Comment struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Author    Partner   `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewComment builds a comment with a fresh id. Text is trimmed; blank text is rejected.
func NewComment(text string, author Partner, now time.Time) (Comment, error) {
	c := Comment{
		ID:        uuid.NewString(),
		Text:      strings.TrimSpace(text),
		Author:    author,
		CreatedAt: now,
	}
	if err := c.Validate(); err != nil {
		return Comment{}, err
	}
	return c, nil
}

// Validate checks if the Comment has valid field values.
func (c *Comment) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("comment id is required")
	}
	if strings.TrimSpace(c.Text) == "" {
		return fmt.Errorf("comment text is required")
	}
	if !c.Author.IsValid() {
		return fmt.Errorf("invalid comment author %q", c.Author)
	}
	if c.CreatedAt.IsZero() {
		return fmt.Errorf("comment created_at is required")
	}
	return nil
}

// RemoveComment returns comments without the one matching id.
// A missing id leaves the list unchanged and reports false.
func RemoveComment(comments []Comment, id string) ([]Comment, bool) {
	out := make([]Comment, 0, len(comments))
	removed := false
	for _, c := range comments {
		if c.ID == id {
			removed = true
			continue
		}
		out = append(out, c)
	}
	if !removed {
		return comments, false
	}
	return out, true
}

func cloneComments(in []Comment) []Comment {
	if in == nil {
		return []Comment{}
	}
	out := make([]Comment, len(in))
	copy(out, in)
	return out
}
