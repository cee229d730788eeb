package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/corvek/teamboard-backend/internal/core/domain"
)

// UserRepository defines the port for user persistence.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	TouchLastActive(ctx context.Context, id uuid.UUID) error
}
