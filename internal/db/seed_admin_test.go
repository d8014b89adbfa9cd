package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geocoder89/recipehub/internal/config"
	"github.com/geocoder89/recipehub/internal/domain/user"
	"github.com/geocoder89/recipehub/internal/repo/memory"
	"github.com/geocoder89/recipehub/internal/security"
)

func TestEnsureAdminUser(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUsersRepo(memory.NewStore())
	hasher := security.NewHasher(4)

	cfg := config.Config{AdminEmail: "admin@example.com", AdminPassword: "s3cret", AdminName: "Admin"}

	created, err := EnsureAdminUser(ctx, users, hasher, cfg)
	require.NoError(t, err)
	assert.True(t, created)

	u, err := users.GetByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.RoleAdmin, u.Role)
	assert.NoError(t, security.CheckPassword(u.PasswordHash, "s3cret"))

	created, err = EnsureAdminUser(ctx, users, hasher, cfg)
	require.NoError(t, err)
	assert.False(t, created, "second run leaves the account alone")
}

func TestEnsureAdminUser_SkippedWithoutCredentials(t *testing.T) {
	users := memory.NewUsersRepo(memory.NewStore())

	created, err := EnsureAdminUser(context.Background(), users, security.NewHasher(4), config.Config{})
	require.NoError(t, err)
	assert.False(t, created)

	list, _ := users.List(context.Background())
	assert.Empty(t, list)
}
