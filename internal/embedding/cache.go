package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
)

// CachedEmbedder memoizes embeddings by text. Repeated queries against the
// vector store reuse the vector instead of calling the service again.
type CachedEmbedder struct {
	next   Embedder
	cache  *expirable.LRU[string, []float32]
	logger *zap.Logger
}

// NewCachedEmbedder wraps next with an expiring LRU of the given size. A
// non-positive size or ttl returns next unchanged.
func NewCachedEmbedder(next Embedder, size int, ttl time.Duration, logger *zap.Logger) Embedder {
	if next == nil || size <= 0 || ttl <= 0 {
		return next
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedEmbedder{
		next:   next,
		cache:  expirable.NewLRU[string, []float32](size, nil, ttl),
		logger: logger,
	}
}

// Embed returns a cached vector when present, otherwise delegates and
// caches a successful result. Failures are never cached.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey(text)
	if cached, ok := c.cache.Get(key); ok {
		c.logger.Debug("embedding cache hit", zap.Int("dimension", len(cached)))
		return clone(cached), nil
	}
	v, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, clone(v))
	return v, nil
}

// Len reports the number of cached vectors.
func (c *CachedEmbedder) Len() int {
	return c.cache.Len()
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func clone(v []float32) []float32 {
	if len(v) == 0 {
		return nil
	}
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
