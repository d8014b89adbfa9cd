package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geocoder89/recipehub/internal/db"
	"github.com/geocoder89/recipehub/internal/domain/comment"
	"github.com/geocoder89/recipehub/internal/domain/recipe"
	"github.com/geocoder89/recipehub/internal/domain/user"
	"github.com/geocoder89/recipehub/internal/observability"
	"github.com/geocoder89/recipehub/internal/policy"
)

func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	ctx := context.Background()
	require.NoError(t, db.Migrate(ctx, dsn))

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `TRUNCATE comments, recipes, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	return pool
}

func TestRepos_Integration(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	prom := observability.NewProm(prometheus.NewRegistry())

	users := NewUsersRepo(pool, prom)
	recipes := NewRecipesRepo(pool, prom)
	comments := NewCommentsRepo(pool, prom)

	a, err := users.Create(ctx, "A", "a@example.com", "hash", user.RoleUser)
	require.NoError(t, err)
	b, err := users.Create(ctx, "B", "b@example.com", "hash", user.RoleUser)
	require.NoError(t, err)

	_, err = users.Create(ctx, "dup", "a@example.com", "hash", user.RoleUser)
	assert.ErrorIs(t, err, user.ErrEmailTaken)

	rc, err := recipes.Create(ctx, a.ID, recipe.CreateRequest{Title: "Soup", Ingredients: "water", Instructions: "boil"})
	require.NoError(t, err)
	assert.Equal(t, "A", rc.Author)

	_, err = recipes.Update(ctx, rc.ID, policy.Scope{OwnerID: b.ID}, recipe.UpdateRequest{Title: "x", Ingredients: "y", Instructions: "z"})
	assert.ErrorIs(t, err, recipe.ErrNotFound)
	assert.ErrorIs(t, recipes.Delete(ctx, rc.ID, policy.Scope{OwnerID: b.ID}), recipe.ErrNotFound)

	_, err = comments.Create(ctx, b.ID, comment.CreateRequest{Comment: "hi", RecipeID: 9999})
	assert.ErrorIs(t, err, comment.ErrRecipeNotFound)

	c, err := comments.Create(ctx, b.ID, comment.CreateRequest{Comment: "tasty", RecipeID: rc.ID})
	require.NoError(t, err)
	assert.Equal(t, "B", c.Author)

	all, err := comments.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Soup", all[0].Recipe)

	assert.ErrorIs(t, users.Delete(ctx, b.ID), user.ErrHasContent)

	require.NoError(t, recipes.Delete(ctx, rc.ID, policy.AnyScope()))
	_, err = comments.GetByID(ctx, c.ID)
	assert.ErrorIs(t, err, comment.ErrNotFound)

	assert.NoError(t, users.Delete(ctx, b.ID))
}
