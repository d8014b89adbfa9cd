package cache

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_ExpiresEntries(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)

	c := NewMemory(time.Second)
	c.now = func() time.Time { return now }

	c.Set(ctx, "k", []byte("v"))

	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	now = now.Add(2 * time.Second)
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemory_SetCopiesValue(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)

	buf := []byte("abc")
	c.Set(ctx, "k", buf)
	buf[0] = 'z'

	got, _ := c.Get(ctx, "k")
	assert.Equal(t, "abc", string(got))
}

func TestMemory_DeletePrefix(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)

	c.Set(ctx, RecipesListKey(), []byte("list"))
	c.Set(ctx, RecipeKey(1), []byte("one"))
	c.Set(ctx, RecipeCommentsKey(1), []byte("comments"))

	c.DeletePrefix(ctx, RecipesPrefix)

	_, ok := c.Get(ctx, RecipesListKey())
	assert.False(t, ok)
	_, ok = c.Get(ctx, RecipeKey(1))
	assert.False(t, ok)
	_, ok = c.Get(ctx, RecipeCommentsKey(1))
	assert.True(t, ok)
}

func newRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewRedis(rdb, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil))), mr
}

func TestRedis_RoundTripAndTTL(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedis(t)

	_, ok := c.Get(ctx, RecipeKey(7))
	assert.False(t, ok)

	c.Set(ctx, RecipeKey(7), []byte(`{"id":7}`))

	got, ok := c.Get(ctx, RecipeKey(7))
	require.True(t, ok)
	assert.JSONEq(t, `{"id":7}`, string(got))
	assert.True(t, mr.Exists("recipehub:"+RecipeKey(7)))

	mr.FastForward(2 * time.Minute)
	_, ok = c.Get(ctx, RecipeKey(7))
	assert.False(t, ok)
}

func TestRedis_DeletePrefix(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedis(t)

	c.Set(ctx, RecipesListKey(), []byte("a"))
	c.Set(ctx, RecipeKey(1), []byte("b"))
	c.Set(ctx, RecipeCommentsKey(1), []byte("c"))

	c.DeletePrefix(ctx, RecipesPrefix)

	assert.False(t, mr.Exists("recipehub:"+RecipesListKey()))
	assert.False(t, mr.Exists("recipehub:"+RecipeKey(1)))
	assert.True(t, mr.Exists("recipehub:"+RecipeCommentsKey(1)))
}

func TestRedis_OutageIsAMiss(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedis(t)

	c.Set(ctx, "k", []byte("v"))
	mr.Close()

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
	c.DeletePrefix(ctx, "k")
}

func TestNoop(t *testing.T) {
	var s Store = Noop{}
	s.Set(context.Background(), "k", []byte("v"))
	_, ok := s.Get(context.Background(), "k")
	assert.False(t, ok)

	_, ok = s.Generation(context.Background(), RecipesPrefix)
	assert.False(t, ok)
}

func TestFamilyAndVersioned(t *testing.T) {
	assert.Equal(t, RecipesPrefix, Family(RecipeKey(3)))
	assert.Equal(t, RecipesPrefix, Family(RecipesPrefix))
	assert.Equal(t, CommentsPrefix, Family(RecipeCommentsKey(3)))
	assert.Equal(t, "other", Family("other"))

	v := Versioned(RecipeKey(3), 2)
	assert.NotEqual(t, Versioned(RecipeKey(3), 1), v)
	assert.True(t, strings.HasPrefix(v, RecipeKey(3)), "prefix deletes must still match")
}

func TestMemory_Generations(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)

	gen, ok := c.Generation(ctx, RecipesPrefix)
	require.True(t, ok)
	assert.Zero(t, gen)

	c.Bump(ctx, RecipesPrefix)
	c.Bump(ctx, RecipesPrefix)

	gen, _ = c.Generation(ctx, RecipesPrefix)
	assert.Equal(t, uint64(2), gen)

	other, _ := c.Generation(ctx, CommentsPrefix)
	assert.Zero(t, other)
}

func TestRedis_Generations(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedis(t)

	gen, ok := c.Generation(ctx, CommentsPrefix)
	require.True(t, ok)
	assert.Zero(t, gen)

	c.Bump(ctx, CommentsPrefix)

	gen, ok = c.Generation(ctx, CommentsPrefix)
	require.True(t, ok)
	assert.Equal(t, uint64(1), gen)

	// the counter survives prefix deletes of the family it guards
	c.DeletePrefix(ctx, CommentsPrefix)
	assert.True(t, mr.Exists("recipehub:gen:"+CommentsPrefix))

	mr.Close()
	_, ok = c.Generation(ctx, CommentsPrefix)
	assert.False(t, ok, "an unreachable backend must not be trusted")
}
