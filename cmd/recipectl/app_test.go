package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geocoder89/recipehub/internal/auth"
	"github.com/geocoder89/recipehub/internal/cache"
	"github.com/geocoder89/recipehub/internal/client"
	"github.com/geocoder89/recipehub/internal/config"
	apphttp "github.com/geocoder89/recipehub/internal/http"
	"github.com/geocoder89/recipehub/internal/observability"
	"github.com/geocoder89/recipehub/internal/policy"
	"github.com/geocoder89/recipehub/internal/repo/memory"
	"github.com/geocoder89/recipehub/internal/security"
)

type harness struct {
	server  string
	session string
}

func newHarness(t *testing.T) harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{Env: "test", JWTSecret: "cli-secret", JWTExpiresIn: time.Hour}
	store := memory.NewStore()
	reg := prometheus.NewRegistry()

	router := apphttp.NewRouter(slog.New(slog.NewTextHandler(io.Discard, nil)), cfg, apphttp.Deps{
		Users:    memory.NewUsersRepo(store),
		Recipes:  memory.NewRecipesRepo(store),
		Comments: memory.NewCommentsRepo(store),
		Tokens:   auth.NewManager(cfg.JWTSecret, cfg.JWTExpiresIn),
		Hasher:   security.NewHasher(4),
		Policy:   policy.MustNew(),
		Cache:    cache.NewMemory(time.Minute),
		Prom:     observability.NewProm(reg),
		Gatherer: reg,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return harness{server: srv.URL, session: filepath.Join(t.TempDir(), "session.json")}
}

// exec runs one recipectl invocation, feeding stdin and capturing both streams.
func (h harness) exec(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	a := &app{
		in:     bufio.NewReader(strings.NewReader(stdin)),
		out:    &out,
		errOut: &errOut,
	}

	full := append([]string{"-server", h.server, "-session", h.session}, args...)
	err := a.run(context.Background(), full)
	return out.String(), errOut.String(), err
}

func TestCLI_SessionLifecycle(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.exec(t, "", "register", "-name", "Ann", "-email", "ann@example.com", "-password", "pw")
	require.NoError(t, err)

	out, _, err := h.exec(t, "", "login", "-email", "ann@example.com", "-password", "pw")
	require.NoError(t, err)
	assert.Contains(t, out, "logged in as user 1 (user)")

	s, err := client.NewSessionFile(h.session).Load()
	require.NoError(t, err)
	assert.Equal(t, h.server, s.BaseURL)
	assert.Equal(t, int64(1), s.UserID)

	out, _, err = h.exec(t, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, `"userId": 1`)

	out, _, err = h.exec(t, "", "recipes", "create", "-title", "Soup", "-ingredients", "water", "-instructions", "boil")
	require.NoError(t, err)
	assert.Contains(t, out, `"recipeId": 1`)

	out, _, err = h.exec(t, "", "recipes", "update", "1", "-title", "Stew", "-ingredients", "water", "-instructions", "simmer")
	require.NoError(t, err)
	assert.Contains(t, out, `"title": "Stew"`)

	_, _, err = h.exec(t, "", "comments", "create", "-recipe", "1", "-text", "hearty")
	require.NoError(t, err)

	out, _, err = h.exec(t, "", "comments", "recipe", "1")
	require.NoError(t, err)
	assert.Contains(t, out, `"comment": "hearty"`)
	assert.Contains(t, out, `"author": "Ann"`)

	_, _, err = h.exec(t, "", "logout")
	require.NoError(t, err)

	_, _, err = h.exec(t, "", "recipes", "list")
	assert.ErrorIs(t, err, errNotLoggedIn)
}

func TestCLI_PromptsForMissingCredentials(t *testing.T) {
	h := newHarness(t)

	orig := readPassword
	readPassword = func(int) ([]byte, error) { return []byte("secret"), nil }
	t.Cleanup(func() { readPassword = orig })

	_, prompts, err := h.exec(t, "Bea\nbea@example.com\n", "register")
	require.NoError(t, err)
	assert.Contains(t, prompts, "Name: ")
	assert.Contains(t, prompts, "Email: ")
	assert.Contains(t, prompts, "Password: ")

	_, _, err = h.exec(t, "bea@example.com\n", "login")
	require.NoError(t, err)
}

func TestCLI_ServerErrorsSurface(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.exec(t, "", "register", "-name", "Cy", "-email", "cy@example.com", "-password", "pw")
	require.NoError(t, err)
	_, _, err = h.exec(t, "", "login", "-email", "cy@example.com", "-password", "pw")
	require.NoError(t, err)

	_, warn, err := h.exec(t, "", "users", "list")
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr), "got %v", err)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Contains(t, warn, "not an admin")

	_, _, err = h.exec(t, "", "recipes", "delete", "42")
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestCLI_Usage(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "no_command", args: nil},
		{name: "unknown_command", args: []string{"bake"}},
		{name: "bad_id", args: []string{"recipes", "get", "abc"}},
		{name: "missing_subcommand", args: []string{"comments"}},
	}

	// a live session so the id check is what fails
	_, _, err := h.exec(t, "", "register", "-name", "Di", "-email", "di@example.com", "-password", "pw")
	require.NoError(t, err)
	_, _, err = h.exec(t, "", "login", "-email", "di@example.com", "-password", "pw")
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, err := h.exec(t, "", tt.args...)
			assert.ErrorIs(t, err, errUsage)
			assert.Contains(t, stderr, "usage: recipectl")
		})
	}
}
