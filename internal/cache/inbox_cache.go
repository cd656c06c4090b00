package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"anonchat/internal/model"
)

// InboxCache keeps a short-lived copy of each user's message list. A dirty
// marker is set whenever a delivery is in flight so readers skip stale copies.
type InboxCache struct {
	client         *redisv9.Client
	inboxTTL       time.Duration
	dirtyMarkerTTL time.Duration
}

func NewInboxCache(client *redisv9.Client, inboxTTL, dirtyMarkerTTL time.Duration) *InboxCache {
	if inboxTTL <= 0 {
		inboxTTL = 60 * time.Second
	}
	if dirtyMarkerTTL <= 0 {
		dirtyMarkerTTL = 5 * time.Second
	}
	return &InboxCache{
		client:         client,
		inboxTTL:       inboxTTL,
		dirtyMarkerTTL: dirtyMarkerTTL,
	}
}

func (c *InboxCache) GetInbox(ctx context.Context, username string) ([]model.Message, bool, error) {
	raw, err := c.client.Get(ctx, inboxKey(username)).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get inbox failed: %w", err)
	}

	var messages []model.Message
	if err := json.Unmarshal([]byte(raw), &messages); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached inbox failed: %w", err)
	}
	return messages, true, nil
}

func (c *InboxCache) SetInbox(ctx context.Context, username string, messages []model.Message) error {
	payload, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("marshal inbox cache failed: %w", err)
	}
	if err := c.client.Set(ctx, inboxKey(username), payload, c.inboxTTL).Err(); err != nil {
		return fmt.Errorf("redis set inbox failed: %w", err)
	}
	return nil
}

// Invalidate drops the cached inbox and clears the dirty marker.
func (c *InboxCache) Invalidate(ctx context.Context, username string) error {
	if err := c.client.Del(ctx, inboxKey(username), dirtyKey(username)).Err(); err != nil {
		return fmt.Errorf("redis delete inbox failed: %w", err)
	}
	return nil
}

func (c *InboxCache) MarkDirty(ctx context.Context, username string) error {
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, dirtyKey(username), "1", c.dirtyMarkerTTL)
	pipe.Del(ctx, inboxKey(username))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis mark inbox dirty failed: %w", err)
	}
	return nil
}

func (c *InboxCache) IsDirty(ctx context.Context, username string) (bool, error) {
	exists, err := c.client.Exists(ctx, dirtyKey(username)).Result()
	if err != nil {
		return false, fmt.Errorf("redis check dirty marker failed: %w", err)
	}
	return exists > 0, nil
}

func inboxKey(username string) string {
	return "inbox:messages:" + username
}

func dirtyKey(username string) string {
	return "inbox:messages:dirty:" + username
}
