package redis

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// Guard claims caller-supplied idempotency keys so a retried status update
// cannot be applied twice. A claim is held for the configured TTL and
// released early when the primary write fails, so the caller's retry with
// the same key can go through.
type Guard struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewGuard(client *redis.Client, ttl time.Duration) *Guard {
	return &Guard{Client: client, TTL: ttl}
}

func (g *Guard) key(key string) string {
	return "idempotency:" + key
}

// Claim reserves the key for orderID. Returns false when the key was already
// claimed.
func (g *Guard) Claim(ctx context.Context, key string, orderID string) (bool, error) {
	return g.Client.SetNX(ctx, g.key(key), orderID, g.TTL).Result()
}

// Release frees a claimed key, but only if it still belongs to orderID.
func (g *Guard) Release(ctx context.Context, key string, orderID string) error {
	val, err := g.Client.Get(ctx, g.key(key)).Result()
	if err == redis.Nil {
		return nil // already released or expired
	}
	if err != nil {
		return err
	}
	if val == orderID {
		_, err := g.Client.Del(ctx, g.key(key)).Result()
		return err
	}
	return nil
}
