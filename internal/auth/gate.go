// Package auth implements the PIN gate in front of the app.
//
// A successful Verify records a session in the local store that stays
// valid for 24 hours. The gate is a convenience lock for a shared device,
// not a security boundary: the PIN is stored in the clear.
package auth

import (
	"crypto/subtle"
	"log"
	"os"
	"time"

	"github.com/doree-nobuu/adventures/internal/local"
)

// DefaultPin is used until another PIN is set or configured.
const DefaultPin = "9302"

// DefaultValidity is how long a verified session lasts.
const DefaultValidity = 24 * time.Hour

// Config configures a Gate.
type Config struct {
	// Pin overrides DefaultPin when no PIN has been set with SetPin.
	Pin      string
	Validity time.Duration
	Clock    func() time.Time
	Logger   *log.Logger
}

// DefaultConfig returns the default gate configuration.
func DefaultConfig() *Config {
	return &Config{
		Pin:      DefaultPin,
		Validity: DefaultValidity,
		Clock:    time.Now,
		Logger:   log.New(os.Stderr, "[auth] ", log.LstdFlags),
	}
}

// session is the persisted login. Timestamp is in Unix milliseconds.
type session struct {
	Authenticated bool  `json:"authenticated"`
	Timestamp     int64 `json:"timestamp"`
}

// Gate checks PINs and tracks the login session.
type Gate struct {
	store    local.Store
	pin      string
	validity time.Duration
	clock    func() time.Time
	logger   *log.Logger
}

// NewGate creates a gate backed by store.
func NewGate(store local.Store, config *Config) *Gate {
	def := DefaultConfig()
	if config == nil {
		config = def
	}
	g := &Gate{
		store:    store,
		pin:      config.Pin,
		validity: config.Validity,
		clock:    config.Clock,
		logger:   config.Logger,
	}
	if g.validity <= 0 {
		g.validity = def.Validity
	}
	if g.clock == nil {
		g.clock = def.Clock
	}
	if g.logger == nil {
		g.logger = def.Logger
	}
	if ValidatePin(g.pin) != nil {
		if g.pin != "" {
			g.logger.Printf("Warning: configured pin is not 4 to 10 digits, using the default")
		}
		g.pin = DefaultPin
	}
	return g
}

// ValidatePin checks the PIN format.
func ValidatePin(pin string) error {
	if len(pin) < 4 || len(pin) > 10 {
		return ErrInvalidPin
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return ErrInvalidPin
		}
	}
	return nil
}

// Pin returns the PIN currently in force.
func (g *Gate) Pin() string {
	var stored string
	if err := g.store.Load(local.KeyPin, &stored); err == nil && ValidatePin(stored) == nil {
		return stored
	}
	return g.pin
}

// SetPin replaces the PIN.
func (g *Gate) SetPin(pin string) error {
	if err := ValidatePin(pin); err != nil {
		return err
	}
	g.store.Save(local.KeyPin, pin)
	return nil
}

// Verify checks pin and starts a session on success.
func (g *Gate) Verify(pin string) error {
	if subtle.ConstantTimeCompare([]byte(pin), []byte(g.Pin())) != 1 {
		return ErrWrongPin
	}
	g.store.Save(local.KeyAuthenticated, session{
		Authenticated: true,
		Timestamp:     g.clock().UnixMilli(),
	})
	return nil
}

// Authenticated reports whether a session is active. An expired session
// is cleared.
func (g *Gate) Authenticated() bool {
	var s session
	if err := g.store.Load(local.KeyAuthenticated, &s); err != nil {
		return false
	}
	started := time.UnixMilli(s.Timestamp)
	if s.Authenticated && g.clock().Sub(started) < g.validity {
		return true
	}
	g.Logout()
	return false
}

// ExpiresAt returns when the current session ends, or the zero time.
func (g *Gate) ExpiresAt() time.Time {
	var s session
	if err := g.store.Load(local.KeyAuthenticated, &s); err != nil || !s.Authenticated {
		return time.Time{}
	}
	return time.UnixMilli(s.Timestamp).Add(g.validity)
}

// Logout ends the session.
func (g *Gate) Logout() {
	if err := g.store.Delete(local.KeyAuthenticated); err != nil {
		g.logger.Printf("Warning: failed to clear session: %v", err)
	}
}
