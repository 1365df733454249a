package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/studygraph-backend/internal/platform/logger"
)

// Cache is the JSON artifact cache shared by the LLM orchestrator and the
// evaluation plane. Keys follow "{kind}:{content_hash}".
type Cache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
	Ping(ctx context.Context) error
	Close() error
}

type cache struct {
	log *logger.Logger
	rdb *goredis.Client
}

// NewCache returns (nil, nil) when REDIS_ADDR is unset; callers treat a nil
// cache as a pass-through.
func NewCache(log *logger.Logger) (Cache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, nil
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    strings.TrimSpace(os.Getenv("REDIS_PASSWORD")),
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &cache{log: log.With("client", "RedisCache"), rdb: rdb}, nil
}

func (c *cache) GetJSON(ctx context.Context, key string, out any) (bool, error) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if out == nil {
		return true, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("redis decode %q: %w", key, err)
	}
	return true, nil
}

func (c *cache) SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error {
	raw, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("redis encode %q: %w", key, err)
	}
	return c.rdb.Set(ctx, key, raw, ttl).Err()
}

func (c *cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

func (c *cache) DeleteByPrefix(ctx context.Context, prefix string) error {
	if prefix == "" {
		return nil
	}
	iter := c.rdb.Scan(ctx, 0, prefix+"*", 200).Iterator()
	batch := make([]string, 0, 200)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) >= 200 {
			if err := c.rdb.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return c.rdb.Del(ctx, batch...).Err()
	}
	return nil
}

func (c *cache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *cache) Close() error {
	return c.rdb.Close()
}
