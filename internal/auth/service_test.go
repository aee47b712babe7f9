package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/secunit404/railpulse/internal/auth"
)

type testEnv struct {
	service     *auth.Service
	userRepo    *auth.InMemoryUserRepository
	refreshRepo *auth.InMemoryRefreshTokenRepository
	inviteRepo  *auth.InMemoryInviteRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		userRepo:    auth.NewInMemoryUserRepository(),
		refreshRepo: auth.NewInMemoryRefreshTokenRepository(),
		inviteRepo:  auth.NewInMemoryInviteRepository(),
	}
	env.service = auth.NewService(auth.ServiceConfig{
		JWTService: auth.NewJWTService(auth.JWTConfig{
			SigningKey: "test-secret-key-for-testing-only",
			Issuer:     "https://api.railpulse.se",
			Audience:   "railpulse-api",
		}),
		UserRepo:    env.userRepo,
		RefreshRepo: env.refreshRepo,
		InviteRepo:  env.inviteRepo,
		BcryptCost:  bcrypt.MinCost,
	})
	return env
}

func (e *testEnv) seedInvite(t *testing.T, maxUses int) *auth.InviteCode {
	t.Helper()

	invite := &auth.InviteCode{
		Code:      "TESTCODE1234",
		CreatedBy: "usr_admin",
		MaxUses:   maxUses,
		ExpiresAt: time.Now().Add(24 * time.Hour),
		CreatedAt: time.Now(),
	}
	require.NoError(t, e.inviteRepo.Create(context.Background(), invite))
	return invite
}

func registerRequest() *auth.RegisterRequest {
	return &auth.RegisterRequest{
		Email:       "anna@example.com",
		Password:    "correct-horse-battery",
		DisplayName: "Anna",
		InviteCode:  "TESTCODE1234",
	}
}

func TestService_Register(t *testing.T) {
	env := newTestEnv(t)
	env.seedInvite(t, 5)

	tokens, err := env.service.Register(context.Background(), registerRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.Equal(t, "Bearer", tokens.TokenType)

	user, err := env.userRepo.FindByEmail(context.Background(), "anna@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Anna", user.DisplayName)
	assert.NotEqual(t, "correct-horse-battery", user.PasswordHash)

	invite, err := env.inviteRepo.FindByCode(context.Background(), "TESTCODE1234")
	require.NoError(t, err)
	assert.Equal(t, 1, invite.Uses)
}

func TestService_RegisterNormalizesEmail(t *testing.T) {
	env := newTestEnv(t)
	env.seedInvite(t, 0)

	req := registerRequest()
	req.Email = "  Anna@Example.COM "
	_, err := env.service.Register(context.Background(), req)
	require.NoError(t, err)

	_, err = env.userRepo.FindByEmail(context.Background(), "anna@example.com")
	assert.NoError(t, err)
}

func TestService_RegisterUnknownInvite(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.service.Register(context.Background(), registerRequest())
	assert.ErrorIs(t, err, auth.ErrInvalidInviteCode)
}

func TestService_RegisterExhaustedInvite(t *testing.T) {
	env := newTestEnv(t)
	invite := env.seedInvite(t, 1)
	require.NoError(t, env.inviteRepo.ConsumeUse(context.Background(), invite.Code))

	_, err := env.service.Register(context.Background(), registerRequest())
	assert.ErrorIs(t, err, auth.ErrInvalidInviteCode)
}

func TestService_RegisterExpiredInvite(t *testing.T) {
	env := newTestEnv(t)
	invite := &auth.InviteCode{
		Code:      "TESTCODE1234",
		CreatedBy: "usr_admin",
		ExpiresAt: time.Now().Add(-time.Hour),
		CreatedAt: time.Now().Add(-48 * time.Hour),
	}
	require.NoError(t, env.inviteRepo.Create(context.Background(), invite))

	_, err := env.service.Register(context.Background(), registerRequest())
	assert.ErrorIs(t, err, auth.ErrInvalidInviteCode)
}

func TestService_RegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.seedInvite(t, 0)

	_, err := env.service.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	req := registerRequest()
	req.Email = "ANNA@example.com"
	_, err = env.service.Register(context.Background(), req)
	assert.ErrorIs(t, err, auth.ErrEmailTaken)
}

func TestService_RegisterShortPassword(t *testing.T) {
	env := newTestEnv(t)
	env.seedInvite(t, 0)

	req := registerRequest()
	req.Password = "short"
	_, err := env.service.Register(context.Background(), req)
	assert.Error(t, err)
}

func TestService_Login(t *testing.T) {
	env := newTestEnv(t)
	env.seedInvite(t, 0)
	_, err := env.service.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	tokens, err := env.service.Login(context.Background(), &auth.LoginRequest{
		Email:    "anna@example.com",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)

	userID, err := env.service.ValidateAccessToken(tokens.AccessToken)
	require.NoError(t, err)

	user, err := env.service.GetUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "anna@example.com", user.Email)
}

func TestService_LoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.seedInvite(t, 0)
	_, err := env.service.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	_, err = env.service.Login(context.Background(), &auth.LoginRequest{
		Email:    "anna@example.com",
		Password: "not-the-password",
	})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestService_LoginUnknownEmail(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.service.Login(context.Background(), &auth.LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever-password",
	})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestService_RefreshRotatesToken(t *testing.T) {
	env := newTestEnv(t)
	env.seedInvite(t, 0)
	tokens, err := env.service.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	refreshed, err := env.service.RefreshAccessToken(context.Background(), tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.NotEqual(t, tokens.RefreshToken, refreshed.RefreshToken)

	// The presented token was revoked; reuse must fail.
	_, err = env.service.RefreshAccessToken(context.Background(), tokens.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
}

func TestService_RefreshUnknownToken(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.service.RefreshAccessToken(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
}

func TestService_RefreshExpiredToken(t *testing.T) {
	env := newTestEnv(t)
	env.seedInvite(t, 0)
	_, err := env.service.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	user, err := env.userRepo.FindByEmail(context.Background(), "anna@example.com")
	require.NoError(t, err)

	expired := &auth.RefreshToken{
		ID:        "rt_expired",
		Token:     "expired-token-value",
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(-time.Minute),
		CreatedAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, env.refreshRepo.Create(context.Background(), expired))

	_, err = env.service.RefreshAccessToken(context.Background(), "expired-token-value")
	assert.ErrorIs(t, err, auth.ErrRefreshTokenExpired)
}

func TestService_RevokeAllTokens(t *testing.T) {
	env := newTestEnv(t)
	env.seedInvite(t, 0)
	tokens, err := env.service.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	user, err := env.userRepo.FindByEmail(context.Background(), "anna@example.com")
	require.NoError(t, err)

	require.NoError(t, env.service.RevokeAllTokens(context.Background(), user.ID))

	_, err = env.service.RefreshAccessToken(context.Background(), tokens.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
}

func TestService_RevokeRefreshToken(t *testing.T) {
	env := newTestEnv(t)
	env.seedInvite(t, 0)
	tokens, err := env.service.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	require.NoError(t, env.service.RevokeRefreshToken(context.Background(), tokens.RefreshToken))

	_, err = env.service.RefreshAccessToken(context.Background(), tokens.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
}

func TestService_CreateInviteCode(t *testing.T) {
	env := newTestEnv(t)

	invite, err := env.service.CreateInviteCode(context.Background(), "usr_admin", 3, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, invite.Code)
	assert.Equal(t, 3, invite.MaxUses)
	assert.Equal(t, "usr_admin", invite.CreatedBy)
	assert.True(t, invite.ExpiresAt.After(time.Now()))

	stored, err := env.inviteRepo.FindByCode(context.Background(), invite.Code)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Uses)
}
