package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvek/teamboard-backend/internal/core/domain"
	apperrors "github.com/corvek/teamboard-backend/internal/core/errors"
)

func truncateUsers(t *testing.T) {
	t.Helper()
	_, err := testPool.Exec(context.Background(), "TRUNCATE TABLE users")
	require.NoError(t, err)
}

func seedUser(t *testing.T, email string) *domain.User {
	t.Helper()
	user, err := domain.NewUser(domain.UserRegistrationParams{
		FullName: "Test User",
		Email:    email,
		Password: "Password1",
	})
	require.NoError(t, err)

	repo := NewUserRepository(testPool)
	created, err := repo.Create(context.Background(), user)
	require.NoError(t, err)
	return created
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	truncateUsers(t)
	repo := NewUserRepository(testPool)
	ctx := context.Background()

	created := seedUser(t, "create@example.com")
	assert.Equal(t, "create@example.com", created.Email)
	assert.True(t, created.IsActive)
	assert.Nil(t, created.LastActiveAt)

	byEmail, err := repo.GetByEmail(ctx, "create@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)
	assert.Equal(t, created.FullName, byEmail.FullName)

	byID, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Email, byID.Email)
	assert.True(t, byID.CheckPassword("Password1"))
}

func TestUserRepository_CreateDuplicateEmail(t *testing.T) {
	truncateUsers(t)
	repo := NewUserRepository(testPool)
	ctx := context.Background()

	seedUser(t, "dup@example.com")

	duplicate, err := domain.NewUser(domain.UserRegistrationParams{
		FullName: "Another User",
		Email:    "dup@example.com",
		Password: "Password1",
	})
	require.NoError(t, err)

	_, err = repo.Create(ctx, duplicate)
	assert.ErrorIs(t, err, apperrors.ErrUserExists)
}

func TestUserRepository_GetMissingUser(t *testing.T) {
	truncateUsers(t)
	repo := NewUserRepository(testPool)
	ctx := context.Background()

	_, err := repo.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestUserRepository_TouchLastActive(t *testing.T) {
	truncateUsers(t)
	repo := NewUserRepository(testPool)
	ctx := context.Background()

	created := seedUser(t, "touch@example.com")
	require.Nil(t, created.LastActiveAt)

	require.NoError(t, repo.TouchLastActive(ctx, created.ID))

	updated, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.LastActiveAt)
	assert.WithinDuration(t, time.Now(), *updated.LastActiveAt, time.Minute)
}

func TestUserRepository_TouchLastActiveMissingUser(t *testing.T) {
	truncateUsers(t)
	repo := NewUserRepository(testPool)

	err := repo.TouchLastActive(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}
