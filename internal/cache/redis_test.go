package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type cachedStats struct {
	Sales   int    `json:"sales"`
	Revenue string `json:"revenue"`
}

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	c, err := NewRedis("redis://"+server.Addr()+"/0", time.Minute, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, server
}

func TestRedisMissOnEmptyCache(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestRedis(t)

	gen, err := c.Generation(ctx)
	require.NoError(t, err)
	assert.Zero(t, gen)

	var got cachedStats
	ok, err := c.Get(ctx, gen, Key("dashboard", "stats"), &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisSetGetWithTTL(t *testing.T) {
	ctx := context.Background()
	c, server := newTestRedis(t)
	key := Key("dashboard", "stats")

	require.NoError(t, c.Set(ctx, 0, key, cachedStats{Sales: 3, Revenue: "41.50"}))

	var got cachedStats
	ok, err := c.Get(ctx, 0, key, &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, cachedStats{Sales: 3, Revenue: "41.50"}, got)

	assert.Equal(t, time.Minute, server.TTL(entryKey(0, key)))
	members, err := server.Members(indexKey)
	require.NoError(t, err)
	assert.Equal(t, []string{entryKey(0, key)}, members)

	server.FastForward(2 * time.Minute)
	ok, err = c.Get(ctx, 0, key, &got)
	require.NoError(t, err)
	assert.False(t, ok, "expired entry")
}

func TestRedisInvalidateDropsIndexedEntries(t *testing.T) {
	ctx := context.Background()
	c, server := newTestRedis(t)
	stats := Key("dashboard", "stats")
	monthly := Key("analytics", "monthly", "2026-02")

	require.NoError(t, c.Set(ctx, 0, stats, cachedStats{Sales: 1}))
	require.NoError(t, c.Set(ctx, 0, monthly, []string{"01 Feb"}))
	require.NoError(t, server.Set(Key("unrelated"), "keep"))

	require.NoError(t, c.Invalidate(ctx))

	gen, err := c.Generation(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), gen)
	assert.False(t, server.Exists(entryKey(0, stats)))
	assert.False(t, server.Exists(entryKey(0, monthly)))
	assert.False(t, server.Exists(indexKey))
	assert.True(t, server.Exists(Key("unrelated")))

	var got cachedStats
	ok, err := c.Get(ctx, gen, stats, &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisLateWriteFromOldGenerationIsNotServed(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestRedis(t)
	key := Key("dashboard", "stats")

	before, err := c.Generation(ctx)
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(ctx))
	require.NoError(t, c.Set(ctx, before, key, cachedStats{Sales: 0}))

	current, err := c.Generation(ctx)
	require.NoError(t, err)
	var got cachedStats
	ok, err := c.Get(ctx, current, key, &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisUndecodableEntryIsAMiss(t *testing.T) {
	ctx := context.Background()
	c, server := newTestRedis(t)
	key := Key("dashboard", "stats")
	require.NoError(t, server.Set(entryKey(0, key), "{not json"))

	var got cachedStats
	ok, err := c.Get(ctx, 0, key, &got)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, server.Exists(entryKey(0, key)), "bad entry is deleted")
}

func TestRedisErrorsSurfaceWhenServerIsGone(t *testing.T) {
	ctx := context.Background()
	c, server := newTestRedis(t)
	server.Close()

	_, err := c.Generation(ctx)
	assert.Error(t, err)
	var got cachedStats
	_, err = c.Get(ctx, 0, Key("dashboard", "stats"), &got)
	assert.Error(t, err)
	assert.Error(t, c.Invalidate(ctx))
}
