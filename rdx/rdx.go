package rdx

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Cache is a thin Redis wrapper used as the session-token store. A cache
// failure is never fatal to a request; callers log and continue.
type Cache struct {
	Conn *redis.Client
}

func New(addr string) *Cache {
	return &Cache{
		Conn: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

const sessionHash = "sessions"

// SetSession records the latest issued token for a user.
func (c *Cache) SetSession(ctx context.Context, userID, token string) error {
	return c.Conn.HSet(ctx, sessionHash, userID, token).Err()
}

func (c *Cache) GetSession(ctx context.Context, userID string) (string, error) {
	return c.Conn.HGet(ctx, sessionHash, userID).Result()
}

// DeleteSession drops a user's cached token on logout.
func (c *Cache) DeleteSession(ctx context.Context, userID string) error {
	return c.Conn.HDel(ctx, sessionHash, userID).Err()
}

func (c *Cache) Close() error {
	return c.Conn.Close()
}
