package dashboard

import (
	"log"
	"sync"

	"github.com/doree-nobuu/adventures/internal/app"
	"github.com/doree-nobuu/adventures/internal/stats"
	"github.com/doree-nobuu/adventures/internal/syncer"
	"github.com/doree-nobuu/adventures/internal/types"
)

// Handler bridges app listeners into dashboard broadcasts. It is also a
// notify.Notifier, so unlocks reach the dashboard as they happen.
type Handler struct {
	server *Server
	logger *log.Logger

	mu      sync.Mutex
	cancels []func()
}

// NewHandler creates a new event handler connected to a dashboard server
func NewHandler(server *Server, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{server: server, logger: logger}
}

// Attach subscribes to every collection, the stats and the session
// status of a. Current values are broadcast right away.
func (h *Handler) Attach(a *app.App) {
	cancels := []func(){
		a.Session.OnStatus(h.OnStatus),
		a.Adventures.Subscribe(h.OnAdventures),
		a.Surprises.Subscribe(h.OnSurprises),
		a.Tasks.Subscribe(h.OnTasks),
		a.OnStats(h.OnStats),
	}
	h.OnStatus(a.Session.Status())
	h.OnStats(a.Stats())

	h.mu.Lock()
	h.cancels = append(h.cancels, cancels...)
	h.mu.Unlock()
}

// Detach removes every subscription made by Attach.
func (h *Handler) Detach() {
	h.mu.Lock()
	cancels := h.cancels
	h.cancels = nil
	h.mu.Unlock()
	for _, cancel := range cancels {
		cancel()
	}
}

// OnAdventures broadcasts the adventure collection.
func (h *Handler) OnAdventures(items []types.Adventure) {
	h.send(MessageTypeAdventures, items)
}

// OnSurprises broadcasts the surprise collection.
func (h *Handler) OnSurprises(items []types.Surprise) {
	h.send(MessageTypeSurprises, items)
}

// OnTasks broadcasts the task collection.
func (h *Handler) OnTasks(items []types.Task) {
	h.send(MessageTypeTasks, items)
}

// OnStats broadcasts statistics.
func (h *Handler) OnStats(st stats.Stats) {
	h.send(MessageTypeStats, st)
}

// OnStatus broadcasts the connection status.
func (h *Handler) OnStatus(st syncer.Status) {
	h.logger.Printf("Sync status: %s (%s)", st.ModeName, st.Message)
	h.send(MessageTypeStatus, st)
}

// Achievement implements notify.Notifier.
func (h *Handler) Achievement(a types.Achievement) {
	h.logger.Printf("Achievement unlocked: %s", a.ID)
	h.send(MessageTypeAchievement, a)
}

func (h *Handler) send(typ MessageType, data any) {
	msg, err := NewMessage(typ, data)
	if err != nil {
		h.logger.Printf("Failed to format %s message: %v", typ, err)
		return
	}
	h.server.Broadcast(msg)
}
