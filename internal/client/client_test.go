package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geocoder89/recipehub/internal/auth"
	"github.com/geocoder89/recipehub/internal/cache"
	"github.com/geocoder89/recipehub/internal/config"
	"github.com/geocoder89/recipehub/internal/db"
	"github.com/geocoder89/recipehub/internal/domain/comment"
	"github.com/geocoder89/recipehub/internal/domain/recipe"
	"github.com/geocoder89/recipehub/internal/domain/user"
	apphttp "github.com/geocoder89/recipehub/internal/http"
	"github.com/geocoder89/recipehub/internal/observability"
	"github.com/geocoder89/recipehub/internal/policy"
	"github.com/geocoder89/recipehub/internal/repo/memory"
	"github.com/geocoder89/recipehub/internal/security"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		Env:           "test",
		JWTSecret:     "client-test-secret",
		JWTExpiresIn:  time.Hour,
		AdminEmail:    "admin@example.com",
		AdminPassword: "admin-pass",
		AdminName:     "Admin",
	}

	store := memory.NewStore()
	users := memory.NewUsersRepo(store)
	hasher := security.NewHasher(4)
	_, err := db.EnsureAdminUser(context.Background(), users, hasher, cfg)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	router := apphttp.NewRouter(slog.New(slog.NewTextHandler(io.Discard, nil)), cfg, apphttp.Deps{
		Users:    users,
		Recipes:  memory.NewRecipesRepo(store),
		Comments: memory.NewCommentsRepo(store),
		Tokens:   auth.NewManager(cfg.JWTSecret, cfg.JWTExpiresIn),
		Hasher:   hasher,
		Policy:   policy.MustNew(),
		Cache:    cache.NewMemory(time.Minute),
		Prom:     observability.NewProm(reg),
		Gatherer: reg,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_EndToEnd(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()

	alice := New(srv.URL)
	id, err := alice.Register(ctx, user.CreateRequest{Name: "Alice", Email: "alice@example.com", Password: "pw"})
	require.NoError(t, err)

	res, err := alice.Login(ctx, "alice@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, auth.RoleUser, res.Role)

	me, err := alice.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, me.UserID)

	rid, err := alice.CreateRecipe(ctx, recipe.CreateRequest{Title: "Bread", Ingredients: "flour", Instructions: "bake"})
	require.NoError(t, err)

	rc, err := alice.GetRecipe(ctx, rid)
	require.NoError(t, err)
	assert.Equal(t, "Alice", rc.Author)

	bob := New(srv.URL)
	_, err = bob.Register(ctx, user.CreateRequest{Name: "Bob", Email: "bob@example.com", Password: "pw"})
	require.NoError(t, err)
	_, err = bob.Login(ctx, "bob@example.com", "pw")
	require.NoError(t, err)

	err = bob.DeleteRecipe(ctx, rid)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)

	cid, err := bob.CreateComment(ctx, comment.CreateRequest{Comment: "Yum", RecipeID: rid})
	require.NoError(t, err)

	comments, err := alice.ListRecipeComments(ctx, rid)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "Bob", comments[0].Author)

	updated, err := bob.UpdateComment(ctx, cid, comment.UpdateRequest{Comment: "Very yum"})
	require.NoError(t, err)
	assert.Equal(t, "Very yum", updated.Comment)

	_, err = bob.ListUsers(ctx)
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.Status)

	admin := New(srv.URL)
	_, err = admin.Login(ctx, "admin@example.com", "admin-pass")
	require.NoError(t, err)

	all, err := admin.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	renamed, err := admin.UpdateRecipe(ctx, rid, recipe.UpdateRequest{Title: "Rye", Ingredients: "rye", Instructions: "bake"})
	require.NoError(t, err)
	assert.Equal(t, "Rye", renamed.Title)

	require.NoError(t, admin.DeleteRecipe(ctx, rid))
	_, err = alice.GetRecipe(ctx, rid)
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestClient_LoginFailure(t *testing.T) {
	srv := newServer(t)

	_, err := New(srv.URL).Login(context.Background(), "nobody@example.com", "pw")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "invalid_credentials", apiErr.Code)
}

func TestClient_NonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL).ListRecipes(context.Background())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "upstream down", apiErr.Message)
}
