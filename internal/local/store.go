package local

import (
	"log"
	"os"
)

// Namespaces used by the application. The names match the keys the web
// client kept in browser storage, so an imported dump maps one-to-one.
const (
	KeyAdventures       = "adventure-tracker-adventures"
	KeyAdventuresNextID = "adventure-tracker-next-id"
	KeySurprises        = "adventure-tracker-surprises"
	KeySurprisesNextID  = "adventure-tracker-surprises-next-id"
	KeyTasks            = "task-tracker-tasks"
	KeyTasksNextID      = "task-tracker-next-id"
	KeyAchievements     = "adventure-tracker-achievements"
	KeyAuthenticated    = "adventure-authenticated"
	KeyPin              = "adventure-pin"
)

// KnownKeys lists every namespace the application reads or writes.
var KnownKeys = []string{
	KeyAdventures, KeyAdventuresNextID,
	KeySurprises, KeySurprisesNextID,
	KeyTasks, KeyTasksNextID,
	KeyAchievements, KeyAuthenticated, KeyPin,
}

// Store is a namespaced JSON blob store.
type Store interface {
	// Load decodes the namespace into out. It returns ErrNotFound when the
	// namespace is missing or its content cannot be decoded.
	Load(namespace string, out any) error

	// Save serializes v and overwrites the namespace. Failures are logged.
	Save(namespace string, v any)

	// Delete removes the namespace. Deleting a missing namespace is not an error.
	Delete(namespace string) error

	// Namespaces lists stored namespaces in lexical order.
	Namespaces() ([]string, error)

	Close() error
}

func defaultLogger() *log.Logger {
	return log.New(os.Stderr, "[local] ", log.LstdFlags)
}
