package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	redisclient "github.com/yungbote/studygraph-backend/internal/clients/redis"
	"github.com/yungbote/studygraph-backend/internal/platform/logger"
)

// Cache TTLs per artifact kind.
const (
	questionTTL   = time.Hour
	expansionTTL  = 2 * time.Hour
	evaluationTTL = time.Hour
	analysisTTL   = 6 * time.Hour
)

const localCacheSize = 2048

// ResponseCache fronts Redis with a small in-process expirable LRU so hot
// keys skip the network entirely. Redis is optional; with no backing cache
// every lookup is still served by the local layer.
type ResponseCache struct {
	local *lru.LRU[string, []byte]
	redis redisclient.Cache
	log   *logger.Logger
}

func NewResponseCache(redis redisclient.Cache, baseLog *logger.Logger) *ResponseCache {
	return &ResponseCache{
		local: lru.NewLRU[string, []byte](localCacheSize, nil, questionTTL),
		redis: redis,
		log:   baseLog.With("component", "ResponseCache"),
	}
}

// Key builds "{kind}:{content_hash}" over the prompt shape and its inputs.
func Key(kind string, parts ...string) string {
	h := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return kind + ":" + hex.EncodeToString(h[:])
}

func (c *ResponseCache) Get(ctx context.Context, key string, dest any) bool {
	if c == nil {
		return false
	}
	if raw, ok := c.local.Get(key); ok {
		if json.Unmarshal(raw, dest) == nil {
			return true
		}
	}
	if c.redis == nil {
		return false
	}
	found, err := c.redis.GetJSON(ctx, key, dest)
	if err != nil {
		c.log.Warn("Cache read failed", "key", key, "error", err)
		return false
	}
	if found {
		if raw, err := json.Marshal(dest); err == nil {
			c.local.Add(key, raw)
		}
	}
	return found
}

func (c *ResponseCache) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	c.local.Add(key, raw)
	if c.redis == nil {
		return
	}
	if err := c.redis.SetJSON(ctx, key, value, ttl); err != nil {
		c.log.Warn("Cache write failed", "key", key, "error", err)
	}
}

func (c *ResponseCache) Delete(ctx context.Context, key string) {
	if c == nil {
		return
	}
	c.local.Remove(key)
	if c.redis == nil {
		return
	}
	if err := c.redis.Delete(ctx, key); err != nil {
		c.log.Warn("Cache delete failed", "key", key, "error", err)
	}
}

// DeletePrefix clears a whole key family, e.g. "evaluation:{user}:".
func (c *ResponseCache) DeletePrefix(ctx context.Context, prefix string) {
	if c == nil {
		return
	}
	for _, k := range c.local.Keys() {
		if strings.HasPrefix(k, prefix) {
			c.local.Remove(k)
		}
	}
	if c.redis == nil {
		return
	}
	if err := c.redis.DeleteByPrefix(ctx, prefix); err != nil {
		c.log.Warn("Cache prefix delete failed", "prefix", prefix, "error", err)
	}
}
