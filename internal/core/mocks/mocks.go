package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/corvek/teamboard-backend/internal/core/domain"
)

// MockUserRepository is a mock implementation of ports.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{}
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) TouchLastActive(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockSessionValidator is a mock implementation of ports.SessionValidator
type MockSessionValidator struct {
	mock.Mock
}

func NewMockSessionValidator() *MockSessionValidator {
	return &MockSessionValidator{}
}

func (m *MockSessionValidator) ValidateSession(ctx context.Context, token string) (*domain.Session, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

// MockPresence is a mock implementation of ports.Presence
type MockPresence struct {
	mock.Mock
}

func NewMockPresence() *MockPresence {
	return &MockPresence{}
}

func (m *MockPresence) SendNotificationToUser(userID uuid.UUID, notification domain.NotificationPayload) {
	m.Called(userID, notification)
}

func (m *MockPresence) GetWorkspaceUsers(workspaceID string) []uuid.UUID {
	args := m.Called(workspaceID)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]uuid.UUID)
}
