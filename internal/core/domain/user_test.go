package domain_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvek/teamboard-backend/internal/core/domain"
	apperrors "github.com/corvek/teamboard-backend/internal/core/errors"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name        string
		password    string
		expectValid bool
	}{
		// Valid passwords
		{"valid password", "Password1", true},
		{"valid with special char", "Password1!", true},
		{"valid longer password", "MySecurePassword123", true},

		// Too short
		{"too short", "Pass1", false},
		{"7 chars", "Passwo1", false},

		// Missing uppercase
		{"no uppercase", "password1", false},

		// Missing lowercase
		{"no lowercase", "PASSWORD1", false},

		// Missing number
		{"no number", "Password", false},

		// Too long
		{"too long", strings.Repeat("P", 129), false},

		// Edge cases
		{"exactly 8 chars valid", "Passwor1", true},
		{"exactly 128 chars valid", strings.Repeat("P", 60) + strings.Repeat("a", 60) + "1234567A", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errors := domain.ValidatePassword(tt.password)
			if tt.expectValid {
				assert.Empty(t, errors, "expected password to be valid, got errors: %v", errors)
			} else {
				assert.NotEmpty(t, errors, "expected password to be invalid")
			}
		})
	}
}

func TestUserRegistrationParams_Validate(t *testing.T) {
	valid := domain.UserRegistrationParams{
		FullName: "Ada Lovelace",
		Email:    "ada@example.com",
		Password: "Password1",
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*domain.UserRegistrationParams)
		field  string
	}{
		{"missing full name", func(p *domain.UserRegistrationParams) { p.FullName = "" }, "fullName"},
		{"full name too long", func(p *domain.UserRegistrationParams) { p.FullName = strings.Repeat("a", 256) }, "fullName"},
		{"missing email", func(p *domain.UserRegistrationParams) { p.Email = "" }, "email"},
		{"invalid email", func(p *domain.UserRegistrationParams) { p.Email = "not-an-email" }, "email"},
		{"weak password", func(p *domain.UserRegistrationParams) { p.Password = "weak" }, "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := valid
			tt.mutate(&params)

			err := params.Validate()
			require.Error(t, err)

			var validationErrs *apperrors.ValidationErrors
			require.ErrorAs(t, err, &validationErrs)
			assert.Contains(t, validationErrs.Errors, tt.field)
		})
	}
}

func TestNewUser(t *testing.T) {
	user, err := domain.NewUser(domain.UserRegistrationParams{
		FullName: "Ada Lovelace",
		Email:    "ada@example.com",
		Password: "Password1",
	})
	require.NoError(t, err)

	assert.NotEqual(t, [16]byte{}, [16]byte(user.ID))
	assert.Equal(t, "Ada Lovelace", user.FullName)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.True(t, user.IsActive)
	assert.False(t, user.CreatedAt.IsZero())

	// Password is stored hashed, never plaintext.
	assert.NotEqual(t, "Password1", user.HashedPassword)
	assert.True(t, user.CheckPassword("Password1"))
	assert.False(t, user.CheckPassword("WrongPassword1"))
}

func TestHashPassword_RejectsWeakPassword(t *testing.T) {
	_, err := domain.HashPassword("weak")
	assert.ErrorIs(t, err, apperrors.ErrPasswordTooWeak)
}
