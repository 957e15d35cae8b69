package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestNewRedisClient_InvalidURL(t *testing.T) {
	if _, err := NewRedisClient(context.Background(), "not-a-valid-url"); err == nil {
		t.Fatal("expected error for invalid URL, got nil")
	}
}

func TestNewRedisClient_UnreachableHost(t *testing.T) {
	if _, err := NewRedisClient(context.Background(), "redis://localhost:19999"); err == nil {
		t.Fatal("expected error when Redis is unreachable, got nil")
	}
}

func TestEncodeDecodeItem(t *testing.T) {
	ts := time.Date(2025, 2, 3, 4, 5, 6, 789000, time.UTC)
	empty := ""

	tests := []struct {
		name string
		desc *string
	}{
		{"null description", nil},
		{"empty description", &empty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := &CachedItem{ID: 12, Name: "Lamp", Description: tt.desc, CreatedAt: ts, UpdatedAt: ts.Add(time.Second)}

			vals := make(map[string]string)
			for k, v := range encodeItem(in) {
				vals[k] = v.(string)
			}
			out, err := decodeItem(vals)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if (out.Description == nil) != (tt.desc == nil) {
				t.Fatalf("description nullness changed: %v", out.Description)
			}
			if !out.UpdatedAt.Equal(in.UpdatedAt) || out.ID != 12 {
				t.Fatalf("unexpected item: %+v", out)
			}
		})
	}
}

func TestKey(t *testing.T) {
	if got := key(42); got != "item:42" {
		t.Fatalf("expected item:42, got %q", got)
	}
}

// Integration tests, skipped unless REDIS_URL is set.
func TestItemCacheIntegration(t *testing.T) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("REDIS_URL not set; skipping integration tests")
	}

	ctx := context.Background()
	rc, err := NewRedisClient(ctx, redisURL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer rc.Close() //nolint:errcheck

	c := NewItemCache(rc)
	id := time.Now().UnixNano()
	desc := "d"
	now := time.Now().UTC()

	if err := c.Set(ctx, &CachedItem{ID: id, Name: "A", Description: &desc, CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := c.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name != "A" || got.Description == nil || *got.Description != "d" {
		t.Fatalf("unexpected cached item: %+v", got)
	}

	if err := c.Delete(ctx, id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := c.Get(ctx, id); !errors.Is(err, redis.Nil) {
		t.Fatalf("expected redis.Nil after delete, got %v", err)
	}
}

func TestItemCache_UnreachableIsNotAMiss(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "localhost:19999",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	rc := NewRedisClientFrom(rdb)
	defer rc.Close() //nolint:errcheck

	_, err := NewItemCache(rc).Get(context.Background(), 1)
	if err == nil || errors.Is(err, redis.Nil) {
		t.Fatalf("expected a connection error distinct from redis.Nil, got %v", err)
	}
}

func TestRedisClient_CloseNil(t *testing.T) {
	var rc *RedisClient
	if err := rc.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
