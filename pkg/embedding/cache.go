package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "fastpai:embedding:"

// CachedProvider memoizes query embeddings. Lookups go local cache, then redis
// (when configured), then the wrapped provider. Cache failures never fail a lookup.
type CachedProvider struct {
	next      EmbeddingProvider
	namespace string
	local     *cache.Cache
	rdb       *redis.Client
	ttl       time.Duration
}

var _ EmbeddingProvider = (*CachedProvider)(nil)

// NewCachedProvider wraps next. namespace should identify the model so vectors of
// different models never collide in a shared redis. rdb may be nil.
func NewCachedProvider(next EmbeddingProvider, namespace string, rdb *redis.Client, ttl time.Duration) *CachedProvider {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CachedProvider{
		next:      next,
		namespace: namespace,
		local:     cache.New(ttl, 10*time.Minute),
		rdb:       rdb,
		ttl:       ttl,
	}
}

// Prepare forwards to the wrapped provider when it needs a corpus pass.
func (c *CachedProvider) Prepare(corpus []string) error {
	if p, ok := c.next.(Preparer); ok {
		c.local.Flush()
		return p.Prepare(corpus)
	}
	return nil
}

func (c *CachedProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	key := c.key(text, taskType)

	if x, found := c.local.Get(key); found {
		return wrap(x.([]float32)), nil
	}

	if c.rdb != nil {
		if values, err := c.fromRedis(ctx, key); err == nil {
			c.local.Set(key, values, cache.DefaultExpiration)
			return wrap(values), nil
		}
	}

	resp, err := c.next.Generate(ctx, text, taskType)
	if err != nil {
		return nil, err
	}

	values := resp.Embedding.Values
	c.local.Set(key, values, cache.DefaultExpiration)
	if c.rdb != nil {
		if payload, err := json.Marshal(values); err == nil {
			c.rdb.Set(ctx, redisKeyPrefix+key, payload, c.ttl)
		}
	}

	return resp, nil
}

func (c *CachedProvider) fromRedis(ctx context.Context, key string) ([]float32, error) {
	raw, err := c.rdb.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		return nil, err
	}
	var values []float32
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, errors.New("empty cached embedding")
	}
	return values, nil
}

func (c *CachedProvider) key(text, taskType string) string {
	sum := sha256.Sum256([]byte(c.namespace + "\x00" + taskType + "\x00" + text))
	return hex.EncodeToString(sum[:])
}
