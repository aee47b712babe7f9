package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secunit404/railpulse/internal/auth"
)

func newJWTService(key, issuer, audience string) *auth.JWTService {
	return auth.NewJWTService(auth.JWTConfig{
		SigningKey: key,
		Issuer:     issuer,
		Audience:   audience,
	})
}

func TestJWTService_GenerateAndValidateAccessToken(t *testing.T) {
	svc := newJWTService("test-secret-key-for-testing-only", "https://api.railpulse.se", "railpulse-api")

	user := &auth.User{
		ID:        "usr_test123",
		Email:     "test@example.com",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	token, expiresAt, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.ID, claims.Subject)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, "https://api.railpulse.se", claims.Issuer)
}

func TestJWTService_InvalidToken(t *testing.T) {
	svc := newJWTService("test-secret-key-for-testing-only", "https://api.railpulse.se", "railpulse-api")

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"malformed token", "not.a.valid.jwt"},
		{"invalid base64", "xxx.yyy.zzz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateAccessToken(tt.token)
			assert.Error(t, err)
		})
	}
}

func TestJWTService_WrongSigningKey(t *testing.T) {
	svc1 := newJWTService("key-one", "https://api.railpulse.se", "railpulse-api")
	svc2 := newJWTService("key-two", "https://api.railpulse.se", "railpulse-api")

	token, _, err := svc1.GenerateAccessToken(&auth.User{ID: "usr_test123"})
	require.NoError(t, err)

	_, err = svc2.ValidateAccessToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidAccessToken)
}

func TestJWTService_WrongIssuer(t *testing.T) {
	svc1 := newJWTService("test-key", "issuer-one", "railpulse-api")
	svc2 := newJWTService("test-key", "issuer-two", "railpulse-api")

	token, _, err := svc1.GenerateAccessToken(&auth.User{ID: "usr_test123"})
	require.NoError(t, err)

	_, err = svc2.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestJWTService_WrongAudience(t *testing.T) {
	svc1 := newJWTService("test-key", "https://api.railpulse.se", "audience-one")
	svc2 := newJWTService("test-key", "https://api.railpulse.se", "audience-two")

	token, _, err := svc1.GenerateAccessToken(&auth.User{ID: "usr_test123"})
	require.NoError(t, err)

	_, err = svc2.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestGenerateRefreshToken(t *testing.T) {
	token1, err := auth.GenerateRefreshToken()
	require.NoError(t, err)
	assert.NotEmpty(t, token1)

	token2, err := auth.GenerateRefreshToken()
	require.NoError(t, err)

	assert.NotEqual(t, token1, token2)
	assert.Regexp(t, `^[A-Za-z0-9_-]+$`, token1)
}
