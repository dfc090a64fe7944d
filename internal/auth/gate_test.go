package auth

import (
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/doree-nobuu/adventures/internal/local"
)

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

func newGate(t *testing.T, pin string) (*Gate, *testClock, *local.Memory) {
	t.Helper()
	logger := log.New(io.Discard, "", 0)
	clock := &testClock{now: time.Date(2024, 2, 14, 9, 0, 0, 0, time.UTC)}
	store := local.NewMemory(logger)
	g := NewGate(store, &Config{Pin: pin, Clock: clock.Now, Logger: logger})
	return g, clock, store
}

func TestValidatePin(t *testing.T) {
	tests := []struct {
		pin  string
		want error
	}{
		{"9302", nil},
		{"0123456789", nil},
		{"123", ErrInvalidPin},
		{"12345678901", ErrInvalidPin},
		{"12a4", ErrInvalidPin},
		{"", ErrInvalidPin},
	}
	for _, tt := range tests {
		if err := ValidatePin(tt.pin); !errors.Is(err, tt.want) {
			t.Errorf("ValidatePin(%q) = %v, want %v", tt.pin, err, tt.want)
		}
	}
}

func TestVerify(t *testing.T) {
	g, _, _ := newGate(t, "")
	if g.Authenticated() {
		t.Fatal("Authenticated() before Verify")
	}
	if err := g.Verify("0000"); !errors.Is(err, ErrWrongPin) {
		t.Errorf("Verify(wrong) = %v, want ErrWrongPin", err)
	}
	if g.Authenticated() {
		t.Error("wrong pin started a session")
	}
	if err := g.Verify(DefaultPin); err != nil {
		t.Fatalf("Verify(default) failed: %v", err)
	}
	if !g.Authenticated() {
		t.Error("Authenticated() = false after Verify")
	}
	g.Logout()
	if g.Authenticated() {
		t.Error("Authenticated() = true after Logout")
	}
}

func TestSessionExpires(t *testing.T) {
	g, clock, store := newGate(t, "2468")
	start := clock.now
	if err := g.Verify("2468"); err != nil {
		t.Fatalf("Verify() failed: %v", err)
	}
	if got := g.ExpiresAt(); !got.Equal(start.Add(24 * time.Hour)) {
		t.Errorf("ExpiresAt() = %v", got)
	}

	clock.now = start.Add(23 * time.Hour)
	if !g.Authenticated() {
		t.Fatal("session expired early")
	}
	clock.now = start.Add(24 * time.Hour)
	if g.Authenticated() {
		t.Fatal("session still valid after 24h")
	}
	var raw map[string]any
	if err := store.Load(local.KeyAuthenticated, &raw); !errors.Is(err, local.ErrNotFound) {
		t.Errorf("expired session not cleared: %v", err)
	}
}

func TestSetPin(t *testing.T) {
	g, _, _ := newGate(t, "")
	if err := g.SetPin("12"); !errors.Is(err, ErrInvalidPin) {
		t.Errorf("SetPin(12) = %v, want ErrInvalidPin", err)
	}
	if err := g.SetPin("55555"); err != nil {
		t.Fatalf("SetPin() failed: %v", err)
	}
	if g.Pin() != "55555" {
		t.Errorf("Pin() = %q", g.Pin())
	}
	if err := g.Verify(DefaultPin); !errors.Is(err, ErrWrongPin) {
		t.Errorf("old pin still accepted: %v", err)
	}
	if err := g.Verify("55555"); err != nil {
		t.Errorf("Verify(new) failed: %v", err)
	}
}

func TestInvalidConfiguredPinFallsBack(t *testing.T) {
	g, _, _ := newGate(t, "abc")
	if g.Pin() != DefaultPin {
		t.Errorf("Pin() = %q, want %q", g.Pin(), DefaultPin)
	}
}
