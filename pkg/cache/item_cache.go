package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// ItemCacheTTL bounds how long a cached item may outlive a missed eviction.
	ItemCacheTTL = 10 * time.Minute

	itemCacheKeyPrefix = "item"
)

// CachedItem is the read model stored in Redis as a hash.
type CachedItem struct {
	ID          int64
	Name        string
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ItemCache reads and writes item entries keyed "item:{id}".
type ItemCache struct {
	client *RedisClient
}

// NewItemCache creates a new ItemCache backed by the given RedisClient.
func NewItemCache(r *RedisClient) *ItemCache {
	return &ItemCache{client: r}
}

// Get returns the cached item, or redis.Nil when the key is absent or expired.
func (c *ItemCache) Get(ctx context.Context, id int64) (*CachedItem, error) {
	vals, err := c.client.Client().HGetAll(ctx, key(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}
	if len(vals) == 0 {
		return nil, redis.Nil
	}
	return decodeItem(vals)
}

// Set writes item as a hash and refreshes its TTL in one pipeline.
func (c *ItemCache) Set(ctx context.Context, item *CachedItem) error {
	k := key(item.ID)
	pipe := c.client.Client().TxPipeline()
	pipe.Del(ctx, k)
	pipe.HSet(ctx, k, encodeItem(item))
	pipe.Expire(ctx, k, ItemCacheTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Delete removes a cached item. Deleting a missing key is not an error.
func (c *ItemCache) Delete(ctx context.Context, id int64) error {
	if err := c.client.Client().Del(ctx, key(id)).Err(); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

func key(id int64) string {
	return itemCacheKeyPrefix + ":" + strconv.FormatInt(id, 10)
}

func encodeItem(item *CachedItem) map[string]any {
	fields := map[string]any{
		"id":              strconv.FormatInt(item.ID, 10),
		"name":            item.Name,
		"has_description": "0",
		"description":     "",
		"created_at":      item.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updated_at":      item.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if item.Description != nil {
		fields["has_description"] = "1"
		fields["description"] = *item.Description
	}
	return fields
}

func decodeItem(vals map[string]string) (*CachedItem, error) {
	id, err := strconv.ParseInt(vals["id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("cache parse id: %w", err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, vals["created_at"])
	if err != nil {
		return nil, fmt.Errorf("cache parse created_at: %w", err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, vals["updated_at"])
	if err != nil {
		return nil, fmt.Errorf("cache parse updated_at: %w", err)
	}

	item := &CachedItem{
		ID:        id,
		Name:      vals["name"],
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
	if vals["has_description"] == "1" {
		desc := vals["description"]
		item.Description = &desc
	}
	return item, nil
}
