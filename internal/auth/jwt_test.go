package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikuAddict/flea-market-sub000/internal/config"
	"github.com/MikuAddict/flea-market-sub000/internal/datamodels/user"
)

func TestTokenRoundTrip(t *testing.T) {
	cfg := &config.JWTConfig{Secret: "test-secret"}

	token, err := GenerateToken(cfg, 42, "alice", user.RoleAdmin)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, user.RoleAdmin, claims.Role)

	id := claims.Identity()
	assert.Equal(t, int64(42), id.UserID)
	assert.True(t, id.IsAdmin())
	assert.False(t, id.Banned())
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken(&config.JWTConfig{Secret: "secret-a"}, 1, "bob", user.RoleUser)
	require.NoError(t, err)

	_, err = ParseToken(&config.JWTConfig{Secret: "secret-b"}, token)
	assert.Error(t, err)
}

func TestParseTokenGarbage(t *testing.T) {
	_, err := ParseToken(&config.JWTConfig{Secret: "secret"}, "not-a-token")
	assert.Error(t, err)
}

func TestIdentityRoles(t *testing.T) {
	banned := Identity{UserID: 3, Username: "mallory", Role: user.RoleBan}
	assert.True(t, banned.Banned())
	assert.False(t, banned.IsAdmin())

	normal := Identity{UserID: 4, Username: "carol", Role: user.RoleUser}
	assert.False(t, normal.Banned())
	assert.False(t, normal.IsAdmin())
}
