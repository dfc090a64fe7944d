// Package notify delivers achievement unlocks to the user.
package notify

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/gen2brain/beeep"

	"github.com/doree-nobuu/adventures/internal/types"
)

// Notifier announces newly unlocked achievements. Implementations log
// their own failures; nothing is returned to the caller.
type Notifier interface {
	Achievement(a types.Achievement)
}

// notifyFunc matches beeep.Notify.
type notifyFunc func(title, message string, icon any) error

// Desktop sends desktop notifications.
type Desktop struct {
	send   notifyFunc
	logger *log.Logger
}

// NewDesktop returns a Desktop notifier.
func NewDesktop(logger *log.Logger) *Desktop {
	if logger == nil {
		logger = log.New(os.Stderr, "[notify] ", log.LstdFlags)
	}
	return &Desktop{send: beeep.Notify, logger: logger}
}

// Achievement implements Notifier.
func (d *Desktop) Achievement(a types.Achievement) {
	title, body := Message(a)
	if err := d.send(title, truncate(body, 180), ""); err != nil {
		d.logger.Printf("Warning: desktop notification failed: %v", err)
	}
}

// Log writes notifications to a logger.
type Log struct {
	Logger *log.Logger
}

// Achievement implements Notifier.
func (l Log) Achievement(a types.Achievement) {
	title, body := Message(a)
	logger := l.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[notify] ", log.LstdFlags)
	}
	logger.Printf("%s: %s", title, body)
}

// Recorder keeps notifications in memory.
type Recorder struct {
	mu   sync.Mutex
	seen []types.Achievement
}

// Achievement implements Notifier.
func (r *Recorder) Achievement(a types.Achievement) {
	r.mu.Lock()
	r.seen = append(r.seen, a)
	r.mu.Unlock()
}

// Seen returns the recorded achievements.
func (r *Recorder) Seen() []types.Achievement {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]types.Achievement(nil), r.seen...)
}

// Multi fans a notification out to several notifiers.
type Multi []Notifier

// Achievement implements Notifier.
func (m Multi) Achievement(a types.Achievement) {
	for _, n := range m {
		n.Achievement(a)
	}
}

// Message renders the title and body for an unlock.
func Message(a types.Achievement) (title, body string) {
	title = "Achievement unlocked"
	if a.Icon != "" {
		title = a.Icon + " " + title
	}
	return title, fmt.Sprintf("%s: %s", a.Name, a.Description)
}

func truncate(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-1] + "…"
}
