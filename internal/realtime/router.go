package realtime

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/corvek/teamboard-backend/internal/core/domain"
)

// Router fans events out to room members. Delivery is best-effort and
// at-most-once per recipient: a failed send is logged and skipped, it
// never blocks or aborts delivery to the remaining members and never
// propagates to the caller.
type Router struct {
	registry *Registry
	logger   *slog.Logger
}

// NewRouter creates a router over the given registry.
func NewRouter(registry *Registry, logger *slog.Logger) *Router {
	return &Router{
		registry: registry,
		logger:   logger.With("component", "realtime_router"),
	}
}

// Broadcast delivers the event to every current member of the room.
// When excludeConnectionID is non-empty, that member is skipped; the
// usual caller is a handler suppressing the echo of the actor's own
// action, since the actor already holds optimistic local state.
func (r *Router) Broadcast(room domain.RoomID, event domain.Event, excludeConnectionID string) {
	members := r.registry.MembersOf(room)

	r.logger.Debug("broadcasting event",
		"event_type", event.Type,
		"room", room,
		"member_count", len(members),
	)

	for _, member := range members {
		if member.ID == excludeConnectionID {
			continue
		}
		if err := member.Send(event); err != nil {
			r.logger.Warn("failed to deliver event to room member",
				"event_type", event.Type,
				"room", room,
				"connection_id", member.ID,
				"user_id", member.UserID,
				"error", err,
			)
		}
	}
}

// SendToUser delivers the event to every live connection of one user,
// regardless of room membership. Used for personal notifications.
func (r *Router) SendToUser(userID uuid.UUID, event domain.Event) {
	for _, conn := range r.registry.ConnectionsOf(userID) {
		if err := conn.Send(event); err != nil {
			r.logger.Warn("failed to deliver event to user connection",
				"event_type", event.Type,
				"connection_id", conn.ID,
				"user_id", userID,
				"error", err,
			)
		}
	}
}
