package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/podcaststudio/server/internal/port/outbound"
)

const scriptKeyPrefix = "podcast:script:"

// scriptCache implements outbound.ScriptCachePort.
type scriptCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewScriptCache creates a script cache whose entries expire after ttl.
// A zero ttl keeps entries until evicted.
func NewScriptCache(client redis.UniversalClient, ttl time.Duration) outbound.ScriptCachePort {
	return &scriptCache{client: client, ttl: ttl}
}

func scriptKey(key string) string {
	return scriptKeyPrefix + key
}

func (c *scriptCache) Get(ctx context.Context, key string) (string, bool, error) {
	script, err := c.client.Get(ctx, scriptKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return script, true, nil
}

func (c *scriptCache) Set(ctx context.Context, key, script string) error {
	return c.client.Set(ctx, scriptKey(key), script, c.ttl).Err()
}
