package types

import (
	"testing"
	"time"
)

func TestNewComment(t *testing.T) {
	now := time.Now()

	c, err := NewComment("  can't wait  ", Partner1, now)
	if err != nil {
		t.Fatalf("NewComment() failed: %v", err)
	}
	if c.Text != "can't wait" {
		t.Errorf("Text = %q, want trimmed", c.Text)
	}
	if c.ID == "" {
		t.Error("ID should be assigned")
	}

	if _, err := NewComment("   ", Partner1, now); err == nil {
		t.Error("NewComment() with blank text should fail")
	}
	if _, err := NewComment("hi", "nobody", now); err == nil {
		t.Error("NewComment() with invalid author should fail")
	}
}

func TestRemoveComment(t *testing.T) {
	now := time.Now()
	comments := []Comment{
		{ID: "a", Text: "one", Author: Partner1, CreatedAt: now},
		{ID: "b", Text: "two", Author: Partner2, CreatedAt: now},
	}

	out, removed := RemoveComment(comments, "a")
	if !removed {
		t.Fatal("RemoveComment() should report removal")
	}
	if len(out) != 1 || out[0].ID != "b" {
		t.Errorf("RemoveComment() = %+v, want only b", out)
	}

	same, removed := RemoveComment(comments, "missing")
	if removed {
		t.Error("RemoveComment() on missing id should report false")
	}
	if len(same) != 2 {
		t.Errorf("len = %d, want 2", len(same))
	}
}

func TestParsePartner(t *testing.T) {
	tests := []struct {
		in      string
		want    Partner
		wantErr bool
	}{
		{"partner1", Partner1, false},
		{"both", Both, false},
		{"Nobuu", Partner2, false},
		{"Doree", Partner1, false},
		{"someone", "", true},
	}
	for _, tt := range tests {
		got, err := ParsePartner(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePartner(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePartner(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
