package types

import (
	"testing"
	"time"
)

func TestSurprise_Reveal(t *testing.T) {
	first := time.Date(2026, 2, 14, 9, 0, 0, 0, time.UTC)
	s := Surprise{Photo: "https://example.com/p.jpg", From: Partner1, To: Partner2}

	s.Reveal(first)
	if !s.Revealed || s.RevealedAt == nil || !s.RevealedAt.Equal(first) {
		t.Fatalf("Reveal() = %v/%v, want revealed at %v", s.Revealed, s.RevealedAt, first)
	}

	s.Reveal(first.Add(time.Hour))
	if !s.RevealedAt.Equal(first) {
		t.Errorf("RevealedAt changed on second reveal: %v", s.RevealedAt)
	}
}

func TestSurprise_Validate(t *testing.T) {
	s := Surprise{From: Partner1, To: Partner2}
	if err := s.Validate(); err == nil {
		t.Error("Validate() without photo should fail")
	}
	s.Photo = "data:image/png;base64,AAAA"
	if err := s.Validate(); err != nil {
		t.Errorf("Validate() failed: %v", err)
	}
}

func TestSurprise_Title(t *testing.T) {
	s := Surprise{From: Partner1, To: Partner2}
	if got, want := s.Title(), "Surprise from Doree to Nobuu"; got != want {
		t.Errorf("Title() = %q, want %q", got, want)
	}
}
