package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManager() *JWTManager {
	return NewJWTManager(JWTConfig{
		Secret:        "test-secret",
		Expiry:        time.Hour,
		RefreshExpiry: 24 * time.Hour,
		Issuer:        "test",
	})
}

func TestAccessTokenRoundTrip(t *testing.T) {
	mgr := testManager()

	token, err := mgr.GenerateAccessToken(42, "alice")
	require.NoError(t, err)

	claims, err := mgr.ValidateToken(token)
	require.NoError(t, err)

	assert.EqualValues(t, 42, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "access", claims.TokenType)
	assert.Equal(t, "test", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	mgr := testManager()
	other := NewJWTManager(JWTConfig{Secret: "different", Expiry: time.Hour})

	token, err := mgr.GenerateAccessToken(1, "alice")
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	mgr := testManager()

	_, err := mgr.ValidateToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	mgr := NewJWTManager(JWTConfig{
		Secret: "test-secret",
		Expiry: -time.Minute,
	})

	token, err := mgr.GenerateAccessToken(1, "alice")
	require.NoError(t, err)

	_, err = mgr.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestRefreshAccessToken(t *testing.T) {
	mgr := testManager()

	refresh, err := mgr.GenerateRefreshToken(7, "bob")
	require.NoError(t, err)

	access, err := mgr.RefreshAccessToken(refresh)
	require.NoError(t, err)

	claims, err := mgr.ValidateToken(access)
	require.NoError(t, err)
	assert.EqualValues(t, 7, claims.UserID)
	assert.Equal(t, "access", claims.TokenType)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	mgr := testManager()

	access, err := mgr.GenerateAccessToken(7, "bob")
	require.NoError(t, err)

	// An access token cannot be used on the refresh path.
	_, err = mgr.RefreshAccessToken(access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery", hash)

	assert.NoError(t, VerifyPassword(hash, "correct horse battery"))
	assert.ErrorIs(t, VerifyPassword(hash, "wrong"), ErrPasswordMismatch)
}

func TestHashPasswordTooShort(t *testing.T) {
	_, err := HashPassword("short")
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	assert.False(t, IsPasswordValid("short"))
	assert.True(t, IsPasswordValid("longenough"))
}

func TestHashPasswordCostOverride(t *testing.T) {
	t.Setenv("BCRYPT_COST", "4")
	cheap, err := HashPassword("password123")
	require.NoError(t, err)
	assert.NoError(t, VerifyPassword(cheap, "password123"))

	// Garbage values fall back to the default cost instead of failing.
	t.Setenv("BCRYPT_COST", "not-a-number")
	hash, err := HashPassword("password123")
	require.NoError(t, err)
	assert.NoError(t, VerifyPassword(hash, "password123"))
}
