package redis

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// ViewCache is a generic JSON-backed Redis cache for read model projections.
// Bind it to a specific view type T; each instance holds a Redis client and an
// optional TTL (pass 0 for keys that should not expire).
type ViewCache[T any] struct {
	client goredis.Cmdable
	ttl    time.Duration
	prefix string
}

// NewViewCache creates a ViewCache whose keys are prefix+id.
func NewViewCache[T any](client goredis.Cmdable, prefix string, ttl time.Duration) *ViewCache[T] {
	return &ViewCache[T]{client: client, ttl: ttl, prefix: prefix}
}

// Get retrieves and unmarshals a value from Redis.
// Returns (nil, false) on any miss or deserialisation error.
func (c *ViewCache[T]) Get(ctx context.Context, id string) (*T, bool) {
	data, err := c.client.Get(ctx, c.prefix+id).Bytes()
	if err != nil {
		if err != goredis.Nil {
			slog.WarnContext(ctx, "view cache read failed", "key", c.prefix+id, "error", err)
		}
		return nil, false
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		slog.WarnContext(ctx, "view cache entry corrupt", "key", c.prefix+id, "error", err)
		return nil, false
	}
	return &v, true
}

// Set marshals value and stores it under id.
// Errors are logged rather than returned; a failed cache write only costs a later miss.
func (c *ViewCache[T]) Set(ctx context.Context, id string, value *T) {
	data, err := json.Marshal(value)
	if err != nil {
		slog.WarnContext(ctx, "view cache marshal failed", "key", c.prefix+id, "error", err)
		return
	}
	if err := c.client.Set(ctx, c.prefix+id, data, c.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "view cache write failed", "key", c.prefix+id, "error", err)
	}
}

// Delete removes id from Redis.
func (c *ViewCache[T]) Delete(ctx context.Context, id string) {
	if err := c.client.Del(ctx, c.prefix+id).Err(); err != nil {
		slog.WarnContext(ctx, "view cache delete failed", "key", c.prefix+id, "error", err)
	}
}
