package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session is a validated authentication context resolved from a bearer
// token. The realtime core only reads UserID and Email; everything else
// about how sessions are issued is the auth subsystem's business.
type Session struct {
	UserID    uuid.UUID
	Email     string
	ExpiresAt time.Time
}
