package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasklist/internal/apperr"
	"tasklist/internal/repository/sqlite"
	"tasklist/internal/token"
)

func setupAuth(t *testing.T) AuthService {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	users := sqlite.NewUserRepository(db)
	require.NoError(t, users.Init(context.Background()))

	return NewAuthService(users, token.NewManager("test-secret", 24*time.Hour))
}

func TestRegister(t *testing.T) {
	svc := setupAuth(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Alice", "Alice@Example.com", "password123")
	require.NoError(t, err)
	assert.Positive(t, user.ID)
	assert.Equal(t, "Alice", user.Name)
	// login key is normalized to lower case
	assert.Equal(t, "alice@example.com", user.Email)
	// digest never returned
	assert.Empty(t, user.PasswordHash)
}

func TestRegister_Validation(t *testing.T) {
	svc := setupAuth(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		userName string
		email    string
		password string
	}{
		{"missing name", "", "a@example.com", "password123"},
		{"missing email", "Alice", "", "password123"},
		{"bad email", "Alice", "not-an-email", "password123"},
		{"missing password", "Alice", "a@example.com", ""},
		{"short password", "Alice", "a@example.com", "short"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.userName, tt.email, tt.password)
			assert.True(t, apperr.IsValidation(err), "expected validation error, got %v", err)
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := setupAuth(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Alice", "dup@example.com", "password123")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Bob", "dup@example.com", "password456")
	assert.ErrorIs(t, err, apperr.ErrEmailTaken)
}

func TestLogin(t *testing.T) {
	svc := setupAuth(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "Alice", "alice@example.com", "password123")
	require.NoError(t, err)

	tokenString, user, err := svc.Login(ctx, "alice@example.com", "password123")
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)
	assert.Equal(t, registered.ID, user.ID)
	assert.Empty(t, user.PasswordHash)

	subject, claims, err := svc.Validate(tokenString)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, subject)
	assert.Equal(t, "alice@example.com", claims.Email)
}

func TestLogin_EnumerationResistance(t *testing.T) {
	svc := setupAuth(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Alice", "alice@example.com", "password123")
	require.NoError(t, err)

	// wrong password and unknown email must yield the identical error
	_, _, wrongPassword := svc.Login(ctx, "alice@example.com", "wrong-password")
	_, _, unknownEmail := svc.Login(ctx, "nobody@example.com", "password123")

	assert.ErrorIs(t, wrongPassword, apperr.ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, apperr.ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestValidate_BadToken(t *testing.T) {
	svc := setupAuth(t)

	_, _, err := svc.Validate("not-a-token")
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)
}
