package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geocoder89/recipehub/internal/domain/comment"
	"github.com/geocoder89/recipehub/internal/domain/recipe"
	"github.com/geocoder89/recipehub/internal/domain/user"
	"github.com/geocoder89/recipehub/internal/policy"
)

type fixture struct {
	users    *UsersRepo
	recipes  *RecipesRepo
	comments *CommentsRepo
}

func newFixture() fixture {
	s := NewStore()
	return fixture{
		users:    NewUsersRepo(s),
		recipes:  NewRecipesRepo(s),
		comments: NewCommentsRepo(s),
	}
}

func TestUsers_EmailIsUnique(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	a, err := f.users.Create(ctx, "A", "a@example.com", "h", "")
	require.NoError(t, err)
	assert.Equal(t, user.RoleUser, a.Role)

	_, err = f.users.Create(ctx, "A2", "a@example.com", "h", user.RoleUser)
	assert.ErrorIs(t, err, user.ErrEmailTaken)

	b, err := f.users.Create(ctx, "B", "b@example.com", "h", user.RoleAdmin)
	require.NoError(t, err)

	_, err = f.users.Update(ctx, b.ID, "B", "a@example.com", "h", "")
	assert.ErrorIs(t, err, user.ErrEmailTaken)

	updated, err := f.users.Update(ctx, b.ID, "Bee", "b@example.com", "h2", "")
	require.NoError(t, err)
	assert.Equal(t, user.RoleAdmin, updated.Role, "empty role keeps the stored one")
	assert.Equal(t, "Bee", updated.Name)
}

func TestUsers_DeleteRefusedWhileOwningContent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	a, _ := f.users.Create(ctx, "A", "a@example.com", "h", "")
	rc, err := f.recipes.Create(ctx, a.ID, recipe.CreateRequest{Title: "t", Ingredients: "i", Instructions: "s"})
	require.NoError(t, err)

	assert.ErrorIs(t, f.users.Delete(ctx, a.ID), user.ErrHasContent)

	require.NoError(t, f.recipes.Delete(ctx, rc.ID, policy.AnyScope()))
	assert.NoError(t, f.users.Delete(ctx, a.ID))
	assert.ErrorIs(t, f.users.Delete(ctx, a.ID), user.ErrNotFound)
}

func TestRecipes_ScopeFiltersMutations(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	a, _ := f.users.Create(ctx, "A", "a@example.com", "h", "")
	b, _ := f.users.Create(ctx, "B", "b@example.com", "h", "")

	rc, err := f.recipes.Create(ctx, a.ID, recipe.CreateRequest{Title: "Soup", Ingredients: "water", Instructions: "boil"})
	require.NoError(t, err)
	assert.Equal(t, "A", rc.Author)

	upd := recipe.UpdateRequest{Title: "Stolen", Ingredients: "x", Instructions: "y"}

	_, err = f.recipes.Update(ctx, rc.ID, policy.Scope{OwnerID: b.ID}, upd)
	assert.ErrorIs(t, err, recipe.ErrNotFound)
	assert.ErrorIs(t, f.recipes.Delete(ctx, rc.ID, policy.Scope{OwnerID: b.ID}), recipe.ErrNotFound)

	got, err := f.recipes.GetByID(ctx, rc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Soup", got.Title)

	got, err = f.recipes.Update(ctx, rc.ID, policy.Scope{OwnerID: a.ID}, upd)
	require.NoError(t, err)
	assert.Equal(t, "Stolen", got.Title)
	assert.Equal(t, a.ID, got.AuthorID)

	_, err = f.recipes.Update(ctx, 999, policy.AnyScope(), upd)
	assert.ErrorIs(t, err, recipe.ErrNotFound)
}

func TestComments_LifecycleAndCascade(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	a, _ := f.users.Create(ctx, "A", "a@example.com", "h", "")
	b, _ := f.users.Create(ctx, "B", "b@example.com", "h", "")
	rc, _ := f.recipes.Create(ctx, a.ID, recipe.CreateRequest{Title: "Soup", Ingredients: "water", Instructions: "boil"})

	_, err := f.comments.Create(ctx, b.ID, comment.CreateRequest{Comment: "hi", RecipeID: 42})
	assert.ErrorIs(t, err, comment.ErrRecipeNotFound)

	c, err := f.comments.Create(ctx, b.ID, comment.CreateRequest{Comment: "tasty", RecipeID: rc.ID})
	require.NoError(t, err)
	assert.Equal(t, "B", c.Author)

	all, err := f.comments.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Soup", all[0].Recipe)

	byRecipe, err := f.comments.ListByRecipe(ctx, rc.ID)
	require.NoError(t, err)
	require.Len(t, byRecipe, 1)
	assert.Empty(t, byRecipe[0].Recipe)

	_, err = f.comments.Update(ctx, c.ID, policy.Scope{OwnerID: a.ID}, comment.UpdateRequest{Comment: "meh"})
	assert.ErrorIs(t, err, comment.ErrNotFound)

	require.NoError(t, f.recipes.Delete(ctx, rc.ID, policy.Scope{OwnerID: a.ID}))

	_, err = f.comments.GetByID(ctx, c.ID)
	assert.ErrorIs(t, err, comment.ErrNotFound, "comments go with their recipe")
}
