package cache

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (CacheService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisCache(client, slog.New(slog.NewTextHandler(io.Discard, nil))), mr
}

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestCache_SetAndGet(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k1", payload{Name: "go", Count: 3}, time.Minute))

	var got payload
	require.NoError(t, c.Get(ctx, "k1", &got))
	assert.Equal(t, "go", got.Name)
	assert.Equal(t, 3, got.Count)
}

func TestCache_MissingKey(t *testing.T) {
	c, _ := newTestCache(t)

	var got payload
	err := c.Get(context.Background(), "absent", &got)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestCache_Expiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k1", payload{Name: "go"}, time.Second))
	mr.FastForward(2 * time.Second)

	var got payload
	err := c.Get(ctx, "k1", &got)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestCache_Delete(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k1", payload{Name: "go"}, time.Minute))
	require.NoError(t, c.Delete(ctx, "k1"))

	var got payload
	assert.ErrorIs(t, c.Get(ctx, "k1", &got), ErrCacheMiss)

	// Deleting an absent key is not an error.
	assert.NoError(t, c.Delete(ctx, "k1"))
}

func TestCache_DeletePattern(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "course:1:quiz", payload{}, time.Minute))
	require.NoError(t, c.Set(ctx, "course:1:survey", payload{}, time.Minute))
	require.NoError(t, c.Set(ctx, "course:2:quiz", payload{}, time.Minute))

	require.NoError(t, c.DeletePattern(ctx, "course:1:*"))

	var got payload
	assert.ErrorIs(t, c.Get(ctx, "course:1:quiz", &got), ErrCacheMiss)
	assert.ErrorIs(t, c.Get(ctx, "course:1:survey", &got), ErrCacheMiss)
	assert.NoError(t, c.Get(ctx, "course:2:quiz", &got))
}

func TestCache_CorruptEntryTreatedAsMiss(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("k1", "{not-json"))

	var got payload
	assert.ErrorIs(t, c.Get(ctx, "k1", &got), ErrCacheMiss)
	// The unreadable entry was evicted.
	assert.False(t, mr.Exists("k1"))
}
