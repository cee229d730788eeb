package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/corvek/teamboard-backend/internal/auth"
	"github.com/corvek/teamboard-backend/internal/core/domain"
	apperrors "github.com/corvek/teamboard-backend/internal/core/errors"
	"github.com/corvek/teamboard-backend/internal/core/ports"
)

// AuthService implements account management and session validation. It
// doubles as the realtime core's ports.SessionValidator: a session is
// valid when its token verifies and the account behind it still exists
// and is active.
type AuthService struct {
	userRepo ports.UserRepository
	tokens   *auth.TokenManager
}

var _ ports.AuthService = (*AuthService)(nil)
var _ ports.SessionValidator = (*AuthService)(nil)

// NewAuthService creates a new authentication service
func NewAuthService(userRepo ports.UserRepository, tokens *auth.TokenManager) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
	}
}

// Register creates a new user account with validated credentials
func (s *AuthService) Register(ctx context.Context, fullName, email, password string) (*domain.User, error) {
	params := domain.UserRegistrationParams{
		FullName: fullName,
		Email:    email,
		Password: password,
	}

	if err := params.Validate(); err != nil {
		return nil, err
	}

	// Check if user already exists
	_, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil, apperrors.ErrUserExists
	}
	if !errors.Is(err, apperrors.ErrUserNotFound) {
		return nil, err // An actual DB error occurred
	}

	user, err := domain.NewUser(params)
	if err != nil {
		return nil, err
	}

	return s.userRepo.Create(ctx, user)
}

// Login authenticates a user with email and password
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	if email == "" {
		return nil, apperrors.ErrEmailRequired
	}
	if password == "" {
		return nil, apperrors.ErrPasswordRequired
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			// Don't reveal whether email exists
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.CheckPassword(password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, apperrors.ErrUserInactive
	}

	return user, nil
}

// ValidateSession resolves a bearer token into a session. Token
// verification is local; the user lookup hits the store and respects
// ctx, so callers can bound it with a deadline.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (*domain.Session, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidSession, err)
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidSession
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.ErrInvalidSession
	}

	// Best-effort activity stamp; a failure here must not invalidate
	// an otherwise good session.
	_ = s.userRepo.TouchLastActive(ctx, user.ID)

	session := &domain.Session{
		UserID: user.ID,
		Email:  user.Email,
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	return session, nil
}
