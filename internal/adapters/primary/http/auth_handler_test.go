package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/corvek/teamboard-backend/internal/auth"
	"github.com/corvek/teamboard-backend/internal/core/domain"
	apperrors "github.com/corvek/teamboard-backend/internal/core/errors"
	"github.com/corvek/teamboard-backend/internal/core/mocks"
	"github.com/corvek/teamboard-backend/internal/core/services"
	"github.com/corvek/teamboard-backend/internal/infrastructure/logging"
)

type authFixture struct {
	router chi.Router
	repo   *mocks.MockUserRepository
	tokens *auth.TokenManager
}

func newAuthFixture() *authFixture {
	logger := logging.NewTestLogger()
	repo := mocks.NewMockUserRepository()
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	svc := services.NewAuthService(repo, tokens)
	handler := NewAuthHandler(svc, tokens, NewErrorHandler(logger), logger)

	r := chi.NewRouter()
	r.Route("/auth", handler.RegisterRoutes)
	return &authFixture{router: r, repo: repo, tokens: tokens}
}

func (f *authFixture) post(t *testing.T, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	f.router.ServeHTTP(rec, req)
	return rec
}

func registeredUser(t *testing.T) *domain.User {
	t.Helper()
	user, err := domain.NewUser(domain.UserRegistrationParams{
		FullName: "Ada Lovelace",
		Email:    "ada@example.com",
		Password: "Password1",
	})
	require.NoError(t, err)
	return user
}

func TestAuthHandler_Register(t *testing.T) {
	f := newAuthFixture()
	created := registeredUser(t)
	f.repo.On("GetByEmail", mock.Anything, "ada@example.com").Return(nil, apperrors.ErrUserNotFound)
	f.repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).Return(created, nil)

	rec := f.post(t, "/auth/register", `{"fullName":"Ada Lovelace","email":"ada@example.com","password":"Password1"}`)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, created.ID.String(), resp.ID)
	assert.Equal(t, "ada@example.com", resp.Email)
	assert.NotContains(t, rec.Body.String(), "Password1")
}

func TestAuthHandler_RegisterValidationFailure(t *testing.T) {
	f := newAuthFixture()

	rec := f.post(t, "/auth/register", `{"fullName":"","email":"bad","password":"weak"}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
}

func TestAuthHandler_RegisterDuplicateEmail(t *testing.T) {
	f := newAuthFixture()
	f.repo.On("GetByEmail", mock.Anything, "ada@example.com").Return(registeredUser(t), nil)

	rec := f.post(t, "/auth/register", `{"fullName":"Ada Lovelace","email":"ada@example.com","password":"Password1"}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "USER_EXISTS")
}

func TestAuthHandler_LoginIssuesValidToken(t *testing.T) {
	f := newAuthFixture()
	user := registeredUser(t)
	f.repo.On("GetByEmail", mock.Anything, "ada@example.com").Return(user, nil)

	rec := f.post(t, "/auth/login", `{"email":"ada@example.com","password":"Password1"}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	assert.Equal(t, user.ID.String(), resp.User.ID)

	// The issued token round-trips through the token manager.
	claims, err := f.tokens.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Email, claims.Email)
}

func TestAuthHandler_LoginRejectsBadCredentials(t *testing.T) {
	f := newAuthFixture()
	user := registeredUser(t)
	f.repo.On("GetByEmail", mock.Anything, "ada@example.com").Return(user, nil)

	rec := f.post(t, "/auth/login", `{"email":"ada@example.com","password":"WrongPassword1"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_CREDENTIALS")
}

func TestAuthHandler_LoginUnknownEmailIsIndistinguishable(t *testing.T) {
	f := newAuthFixture()
	f.repo.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, apperrors.ErrUserNotFound)

	rec := f.post(t, "/auth/login", `{"email":"ghost@example.com","password":"Password1"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_CREDENTIALS")
}

func TestAuthHandler_MalformedBody(t *testing.T) {
	f := newAuthFixture()

	for _, path := range []string{"/auth/register", "/auth/login"} {
		rec := f.post(t, path, `{`)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}
