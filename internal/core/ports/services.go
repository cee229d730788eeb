package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/corvek/teamboard-backend/internal/core/domain"
)

// AuthService defines the port for account management.
type AuthService interface {
	Register(ctx context.Context, fullName, email, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*domain.User, error)
}

// SessionValidator resolves an opaque bearer token into a session. The
// realtime core consumes this as a black box: a nil error means the
// session is valid, anything else closes the handshake. Implementations
// must respect ctx so a stalled backing store cannot hold a half-open
// connection forever.
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (*domain.Session, error)
}

// Presence is the outward-facing surface of the realtime hub consumed by
// other subsystems (task assignment, REST handlers).
type Presence interface {
	// SendNotificationToUser pushes a notification event to every live
	// connection of one user. Best-effort: offline users miss it.
	SendNotificationToUser(userID uuid.UUID, notification domain.NotificationPayload)

	// GetWorkspaceUsers returns the distinct users currently connected to
	// a workspace room.
	GetWorkspaceUsers(workspaceID string) []uuid.UUID
}
