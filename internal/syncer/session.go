package syncer

import (
	"log"
	"os"
	"sort"
	"sync"
)

// Mode is the sync mode of a session.
type Mode int

const (
	// RemoteBacked mirrors a remote document store.
	RemoteBacked Mode = iota
	// LocalOnly reads and writes the local store only.
	LocalOnly
)

func (m Mode) String() string {
	if m == RemoteBacked {
		return "remote"
	}
	return "local"
}

// Status messages shown by the connection indicator.
const (
	MessageSynced = "Synced with remote"
	MessageLocal  = "Using local storage"
)

// Status is the passive connection-status indicator.
type Status struct {
	Mode      Mode   `json:"-"`
	ModeName  string `json:"mode"`
	Connected bool   `json:"connected"`
	Message   string `json:"message"`
}

// Session holds the mode shared by all collections of an application.
type Session struct {
	mu        sync.Mutex
	status    Status
	listeners map[int]func(Status)
	hooks     []func()
	nextKey   int
	logger    *log.Logger
}

// NewSession starts a session in RemoteBacked mode when remote is true,
// LocalOnly otherwise.
func NewSession(remote bool, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}
	s := &Session{listeners: make(map[int]func(Status)), logger: logger}
	if remote {
		s.status = Status{Mode: RemoteBacked, ModeName: RemoteBacked.String(), Connected: true, Message: MessageSynced}
	} else {
		s.status = Status{Mode: LocalOnly, ModeName: LocalOnly.String(), Message: MessageLocal}
	}
	return s
}

// Mode returns the current mode.
func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status.Mode
}

// Status returns the current connection status.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Downgrade switches the session to LocalOnly. reason becomes the status
// message. It reports whether this call made the transition; later calls
// are no-ops.
func (s *Session) Downgrade(reason string) bool {
	s.mu.Lock()
	if s.status.Mode == LocalOnly {
		s.mu.Unlock()
		return false
	}
	if reason == "" {
		reason = MessageLocal
	}
	s.status = Status{Mode: LocalOnly, ModeName: LocalOnly.String(), Message: reason}
	status := s.status
	hooks := append([]func(){}, s.hooks...)
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	s.logger.Printf("Switching to local storage: %s", reason)
	for _, h := range hooks {
		h()
	}
	for _, fn := range listeners {
		fn(status)
	}
	return true
}

// OnStatus registers a listener for status changes.
func (s *Session) OnStatus(fn func(Status)) (cancel func()) {
	s.mu.Lock()
	key := s.nextKey
	s.nextKey++
	s.listeners[key] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, key)
		s.mu.Unlock()
	}
}

// onDowngrade registers fn to run once when the session downgrades.
func (s *Session) onDowngrade(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

// snapshotListeners returns the listeners in registration order.
func (s *Session) snapshotListeners() []func(Status) {
	keys := make([]int, 0, len(s.listeners))
	for k := range s.listeners {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	out := make([]func(Status), 0, len(keys))
	for _, k := range keys {
		out = append(out, s.listeners[k])
	}
	return out
}
