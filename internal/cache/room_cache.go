package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("cache miss")

const existsTTL = 30 * time.Second

// RoomCache caches room-directory existence checks. Lookups are hot on every
// join handshake while the directory itself changes rarely.
type RoomCache interface {
	GetExists(ctx context.Context, code string) (bool, error)
	SetExists(ctx context.Context, code string, exists bool) error
	Close() error
}

// RedisRoomCache is a go-redis implementation of RoomCache.
type RedisRoomCache struct {
	client *redis.Client
	prefix string
}

// NewRedisRoomCache connects to redis and verifies the connection.
func NewRedisRoomCache(addr, prefix string) (*RedisRoomCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisRoomCache{client: client, prefix: prefix}, nil
}

func (c *RedisRoomCache) key(code string) string {
	return fmt.Sprintf("%s:exists:%s", c.prefix, code)
}

// GetExists returns the cached existence flag or ErrCacheMiss.
func (c *RedisRoomCache) GetExists(ctx context.Context, code string) (bool, error) {
	value, err := c.client.Get(ctx, c.key(code)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, ErrCacheMiss
		}
		return false, fmt.Errorf("get from redis: %w", err)
	}
	return value == "1", nil
}

// SetExists stores the existence flag with a short TTL.
func (c *RedisRoomCache) SetExists(ctx context.Context, code string, exists bool) error {
	value := "0"
	if exists {
		value = "1"
	}
	if err := c.client.Set(ctx, c.key(code), value, existsTTL).Err(); err != nil {
		return fmt.Errorf("set in redis: %w", err)
	}
	return nil
}

func (c *RedisRoomCache) Close() error {
	return c.client.Close()
}
