package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anonchat/internal/model"
)

func setupCache(t *testing.T) (*InboxCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewInboxCache(client, time.Minute, 5*time.Second), mr
}

func TestInboxCache_SetGet(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()

	_, hit, err := c.GetInbox(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, hit)

	created := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, c.SetInbox(ctx, "alice", []model.Message{{Content: "hi", CreatedAt: created}}))

	got, hit, err := c.GetInbox(ctx, "alice")
	require.NoError(t, err)
	require.True(t, hit)
	require.Len(t, got, 1)
	assert.Equal(t, "hi", got[0].Content)
	assert.True(t, got[0].CreatedAt.Equal(created))

	mr.FastForward(2 * time.Minute)
	_, hit, err = c.GetInbox(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, hit, "entry expires after the inbox ttl")
}

func TestInboxCache_DirtyMarker(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetInbox(ctx, "bob", []model.Message{{Content: "old"}}))
	require.NoError(t, c.MarkDirty(ctx, "bob"))

	dirty, err := c.IsDirty(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, dirty)
	assert.False(t, mr.Exists(inboxKey("bob")), "marking dirty drops the cached copy")

	mr.FastForward(6 * time.Second)
	dirty, err = c.IsDirty(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, dirty)
}

func TestInboxCache_Invalidate(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetInbox(ctx, "carol", []model.Message{{Content: "x"}}))
	require.NoError(t, c.MarkDirty(ctx, "carol"))
	require.NoError(t, c.Invalidate(ctx, "carol"))

	assert.False(t, mr.Exists(inboxKey("carol")))
	assert.False(t, mr.Exists(dirtyKey("carol")))
}

func TestInboxCache_CorruptEntry(t *testing.T) {
	c, mr := setupCache(t)
	require.NoError(t, mr.Set(inboxKey("dave"), "not-json"))

	_, _, err := c.GetInbox(context.Background(), "dave")
	assert.Error(t, err)
}
