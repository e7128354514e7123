package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tusharsharma89566/Edu-Learn/internal/models"
)

func TestAuthService_RegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	auth := env.sm.Auth()

	user, err := auth.Register(env.ctx, &RegisterRequest{
		Username: "alice",
		Email:    "Alice@Example.com",
		Password: "Secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.NotEqual(t, "Secret123", user.PasswordHash)

	resp, err := auth.Login(env.ctx, &LoginRequest{Email: "alice@example.com", Password: "Secret123"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.NotEmpty(t, resp.Token)
	assert.NotNil(t, resp.User.LastLogin)

	authenticated, err := auth.Authenticate(env.ctx, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, authenticated.ID)
}

func TestAuthService_RegisterRejectsDuplicates(t *testing.T) {
	env := newTestEnv(t)
	auth := env.sm.Auth()

	_, err := auth.Register(env.ctx, &RegisterRequest{Username: "bob", Email: "bob@example.com", Password: "Secret123"})
	require.NoError(t, err)

	_, err = auth.Register(env.ctx, &RegisterRequest{Username: "bob", Email: "other@example.com", Password: "Secret123"})
	assert.ErrorIs(t, err, ErrDuplicateUsername)

	_, err = auth.Register(env.ctx, &RegisterRequest{Username: "bobby", Email: "BOB@example.com", Password: "Secret123"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	_, err = auth.Register(env.ctx, &RegisterRequest{Username: "x", Email: "bad", Password: "weak"})
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestAuthService_LoginFailures(t *testing.T) {
	env := newTestEnv(t)
	auth := env.sm.Auth()

	_, err := auth.Register(env.ctx, &RegisterRequest{Username: "carol", Email: "carol@example.com", Password: "Secret123"})
	require.NoError(t, err)

	_, err = auth.Login(env.ctx, &LoginRequest{Email: "carol@example.com", Password: "Wrong1234"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = auth.Login(env.ctx, &LoginRequest{Email: "nobody@example.com", Password: "Secret123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_AuthenticateRejectsBadTokens(t *testing.T) {
	env := newTestEnv(t)
	auth := env.sm.Auth()
	user := env.createUser(t, models.RoleTeacher)

	_, err := auth.Authenticate(env.ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, TokenClaims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    "edulearn-test",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	signed, err := expired.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	_, err = auth.Authenticate(env.ctx, signed)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongIssuer := jwt.NewWithClaims(jwt.SigningMethodHS256, TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err = wrongIssuer.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	_, err = auth.Authenticate(env.ctx, signed)
	assert.ErrorIs(t, err, ErrInvalidToken)

	token, _, err := auth.IssueToken(&models.User{ID: "missing-user", Role: models.RoleStudent})
	require.NoError(t, err)
	_, err = auth.Authenticate(env.ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_EnsureUser(t *testing.T) {
	env := newTestEnv(t)
	auth := env.sm.Auth()
	req := &RegisterRequest{Username: "admin", Email: "admin@example.com", Password: "Admin123!", Role: "admin"}

	user, created, err := auth.EnsureUser(env.ctx, req)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.RoleAdmin, user.Role)

	again, created, err := auth.EnsureUser(env.ctx, req)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, user.ID, again.ID)
}
