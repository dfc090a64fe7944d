package types

import (
	"fmt"
	"time"
)

// Category classifies an adventure.
type Category string

const (
	CategoryTravel    Category = "travel"
	CategoryFood      Category = "food"
	CategoryActivity  Category = "activity"
	CategoryMilestone Category = "milestone"
	CategoryDateNight Category = "date-night"
	CategoryHome      Category = "home"
	CategoryCustom    Category = "custom"
)

// Categories lists every valid category.
var Categories = []Category{
	CategoryTravel, CategoryFood, CategoryActivity, CategoryMilestone,
	CategoryDateNight, CategoryHome, CategoryCustom,
}

// IsValid reports whether c is a known category.
func (c Category) IsValid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Status is the lifecycle state of an adventure.
type Status string

const (
	StatusWishlist   Status = "wishlist"
	StatusPlanned    Status = "planned"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// Statuses lists every valid adventure status.
var Statuses = []Status{StatusWishlist, StatusPlanned, StatusInProgress, StatusCompleted}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusWishlist, StatusPlanned, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// MaxTitleLength bounds record titles.
const MaxTitleLength = 200

// Adventure is a bucket-list item shared by the couple.
type Adventure struct {
	// ===== Identification =====
	ID int64 `json:"id"`

	// ===== Content =====
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Category       Category `json:"category"`
	CustomCategory string   `json:"customCategory,omitempty"`

	// ===== Partner assignment =====
	AssignedTo Partner `json:"assignedTo"`
	CreatedBy  Partner `json:"createdBy"`

	// ===== Status & dates =====
	Status        Status     `json:"status"`
	TargetDate    *time.Time `json:"targetDate,omitempty"`
	CompletedDate *time.Time `json:"completedDate,omitempty"`

	// ===== Memories =====
	Photos []string `json:"photos"` // URLs or inline data: URIs
	Rating *int     `json:"rating,omitempty"`
	Review string   `json:"review,omitempty"`

	// ===== Planning =====
	Location      string   `json:"location,omitempty"`
	EstimatedCost *float64 `json:"estimatedCost,omitempty"`
	Notes         string   `json:"notes,omitempty"`

	Comments []Comment `json:"comments"`

	// ===== Surprise flags =====
	IsSurprise bool `json:"isSurprise"`
	Revealed   bool `json:"revealed"`

	// ===== Timestamps =====
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Validate checks if the Adventure has valid field values.
func (a *Adventure) Validate() error {
	if a.Title == "" {
		return fmt.Errorf("title is required")
	}
	if len(a.Title) > MaxTitleLength {
		return fmt.Errorf("title must be %d characters or less (got %d)", MaxTitleLength, len(a.Title))
	}
	if !a.Category.IsValid() {
		return fmt.Errorf("invalid category %q", a.Category)
	}
	if !a.Status.IsValid() {
		return fmt.Errorf("invalid status %q", a.Status)
	}
	if !a.AssignedTo.IsValid() {
		return fmt.Errorf("invalid assignedTo %q", a.AssignedTo)
	}
	if !a.CreatedBy.IsValid() {
		return fmt.Errorf("invalid createdBy %q", a.CreatedBy)
	}
	if a.Rating != nil && (*a.Rating < 1 || *a.Rating > 5) {
		return fmt.Errorf("rating must be between 1 and 5 (got %d)", *a.Rating)
	}
	if a.EstimatedCost != nil && *a.EstimatedCost < 0 {
		return fmt.Errorf("estimated cost cannot be negative")
	}
	if !a.CreatedAt.IsZero() && a.UpdatedAt.Before(a.CreatedAt) {
		return fmt.Errorf("updated_at must not be before created_at")
	}
	return nil
}

// SetDefaults applies default values for omitted fields.
func (a *Adventure) SetDefaults() {
	if a.Category == "" {
		a.Category = CategoryActivity
	}
	if a.Status == "" {
		a.Status = StatusWishlist
	}
	if a.AssignedTo == "" {
		a.AssignedTo = Both
	}
	if a.CreatedBy == "" {
		a.CreatedBy = Both
	}
	if a.Photos == nil {
		a.Photos = []string{}
	}
	if a.Comments == nil {
		a.Comments = []Comment{}
	}
}

// IsCompleted reports whether the adventure is done.
func (a *Adventure) IsCompleted() bool {
	return a.Status == StatusCompleted
}

// CategoryLabel returns the custom category name when set.
func (a *Adventure) CategoryLabel() string {
	if a.Category == CategoryCustom && a.CustomCategory != "" {
		return a.CustomCategory
	}
	return string(a.Category)
}

// Clone returns a deep copy.
func (a *Adventure) Clone() *Adventure {
	c := *a
	c.TargetDate = cloneTime(a.TargetDate)
	c.CompletedDate = cloneTime(a.CompletedDate)
	if a.Rating != nil {
		r := *a.Rating
		c.Rating = &r
	}
	if a.EstimatedCost != nil {
		v := *a.EstimatedCost
		c.EstimatedCost = &v
	}
	c.Photos = append([]string{}, a.Photos...)
	c.Comments = cloneComments(a.Comments)
	return &c
}

// Touch sets UpdatedAt, never letting it fall behind CreatedAt.
func (a *Adventure) Touch(now time.Time) {
	a.UpdatedAt = laterOf(now, a.CreatedAt)
}

// ApplyCompletion enforces the completion rules: a completed adventure gets
// a completion date if it has none, and a completed surprise is revealed.
// Calling it again on an already completed adventure changes nothing.
func (a *Adventure) ApplyCompletion(now time.Time) {
	if a.Status != StatusCompleted {
		return
	}
	if a.CompletedDate == nil {
		t := now
		a.CompletedDate = &t
	}
	if a.IsSurprise && !a.Revealed {
		a.Revealed = true
	}
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func laterOf(t, floor time.Time) time.Time {
	if t.Before(floor) {
		return floor
	}
	return t
}
