package realtime

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/corvek/teamboard-backend/internal/core/domain"
	"github.com/corvek/teamboard-backend/internal/core/ports"
)

// Hub bundles the registry, router and dispatcher into the single
// process-wide realtime facade. It is constructed once in main and
// injected wherever realtime access is needed; nothing in this package
// keeps ambient global state.
type Hub struct {
	registry   *Registry
	router     *Router
	dispatcher *Dispatcher
	logger     *slog.Logger
}

// Ensure Hub implements the outward presence surface.
var _ ports.Presence = (*Hub)(nil)

// NewHub wires up an empty registry with its router and dispatcher.
func NewHub(logger *slog.Logger) *Hub {
	registry := NewRegistry(logger)
	router := NewRouter(registry, logger)
	return &Hub{
		registry:   registry,
		router:     router,
		dispatcher: NewDispatcher(registry, router, logger),
		logger:     logger.With("component", "realtime_hub"),
	}
}

// Registry exposes the connection registry.
func (h *Hub) Registry() *Registry { return h.registry }

// Router exposes the broadcast router.
func (h *Hub) Router() *Router { return h.router }

// Dispatcher exposes the message dispatcher.
func (h *Hub) Dispatcher() *Dispatcher { return h.dispatcher }

// SendNotificationToUser pushes a notification event to all of the
// user's live connections. Entry point for other subsystems (task
// assignment, mentions); best-effort, offline users miss it.
func (h *Hub) SendNotificationToUser(userID uuid.UUID, notification domain.NotificationPayload) {
	h.router.SendToUser(userID, domain.NewEvent(domain.EventNotification, notification))
}

// GetWorkspaceUsers answers "who is currently online in this workspace"
// for other subsystems.
func (h *Hub) GetWorkspaceUsers(workspaceID string) []uuid.UUID {
	return h.registry.WorkspaceUsers(workspaceID)
}

// ConnectionCount reports the number of live connections, for health
// and stats endpoints.
func (h *Hub) ConnectionCount() int { return h.registry.ConnectionCount() }

// RoomCount reports the number of occupied rooms.
func (h *Hub) RoomCount() int { return h.registry.RoomCount() }
