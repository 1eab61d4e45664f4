package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"qanoonhub-backend/metrics"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// DefaultCacheTTL is how long a computed vector stays valid in the cache
const DefaultCacheTTL = 24 * time.Hour

// cacheKey derives a stable key from the provider identity and content hash
func cacheKey(provider, model, text string) string {
	hash := sha256.Sum256([]byte(text))
	return "emb:v1:" + provider + ":" + model + ":" + hex.EncodeToString(hash[:])
}

// Client is the embedding client the rest of the service talks to. It
// deduplicates work through a TTL cache keyed by content hash and swallows
// provider and cache failures: a nil vector means "no embedding available"
// and callers fall back to lexical-only behavior. Caching is best-effort,
// never a hard dependency.
type Client struct {
	provider Provider
	model    string
	cache    *gocache.Cache
	ttl      time.Duration
	logger   *zap.Logger
}

// NewClient creates an embedding client around a provider
func NewClient(provider Provider, model string, ttl time.Duration, logger *zap.Logger) *Client {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		provider: provider,
		model:    model,
		cache:    gocache.New(ttl, 2*ttl),
		ttl:      ttl,
		logger:   logger,
	}
}

// Embed returns the vector for text, or nil when no embedding is obtainable
func (c *Client) Embed(ctx context.Context, text string) []float32 {
	vectors := c.EmbedBatch(ctx, []string{text})
	return vectors[0]
}

// EmbedBatch returns one vector per input text, preserving order. Cached
// entries are resolved first; the provider is called only for the misses.
// Failed texts come back nil, never as an error.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) [][]float32 {
	vectors := make([][]float32, len(texts))

	var missTexts []string
	var missIdx []int
	for i, text := range texts {
		if text == "" {
			continue
		}
		if cached, found := c.cache.Get(cacheKey(c.provider.Name(), c.model, text)); found {
			if vec, ok := cached.([]float32); ok {
				vectors[i] = vec
				metrics.EmbeddingCacheHits.Inc()
				continue
			}
		}
		metrics.EmbeddingCacheMisses.Inc()
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}

	if len(missTexts) == 0 {
		return vectors
	}

	fresh, err := c.provider.EmbedBatch(ctx, missTexts)
	if err != nil {
		// Degrade, don't propagate: callers score lexically without vectors.
		c.logger.Warn("embedding provider failed, degrading to no-embedding",
			zap.String("provider", c.provider.Name()),
			zap.Int("texts", len(missTexts)),
			zap.Error(err),
		)
		return vectors
	}

	for j, vec := range fresh {
		if vec == nil {
			continue
		}
		vectors[missIdx[j]] = vec
		c.cache.Set(cacheKey(c.provider.Name(), c.model, missTexts[j]), vec, c.ttl)
	}
	return vectors
}

// Dimension returns the underlying provider's embedding dimension
func (c *Client) Dimension() int {
	return c.provider.Dimension()
}
