package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

// cacheTTL bounds how long a cached embedding is trusted. Embeddings are
// deterministic per (model, text), so this is generous headroom against a
// model being swapped out under the same name, not a freshness concern.
const cacheTTL = 24 * time.Hour

// RedisCache is a minimal Get/Set wrapper over one Redis key space,
// grounded on internal/orchestrator/dedupe.go's RedisDedupeStore: ping on
// construction, redis.Nil treated as a plain cache miss rather than an
// error.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache dials addr and pings it with a short timeout before
// returning, so construction-time failures surface immediately instead of
// on the first request.
func NewRedisCache(ctx context.Context, addr string) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &RedisCache{client: client}, nil
}

func (c *RedisCache) Close() error { return c.client.Close() }

func cacheKey(model, text string) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return "relrag:embed:" + hex.EncodeToString(h.Sum(nil))
}

func (c *RedisCache) get(ctx context.Context, model, text string) ([]float32, bool, error) {
	raw, err := c.client.Get(ctx, cacheKey(model, text)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	vec, err := decodeVector(raw)
	if err != nil {
		return nil, false, err
	}
	return vec, true, nil
}

func (c *RedisCache) set(ctx context.Context, model, text string, vec []float32) error {
	return c.client.Set(ctx, cacheKey(model, text), encodeVector(vec), cacheTTL).Err()
}

func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(raw []byte) ([]float32, error) {
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("embedding cache: malformed vector payload (%d bytes)", len(raw))
	}
	vec := make([]float32, len(raw)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return vec, nil
}

// CachingProvider wraps an EmbeddingProvider with a per-text Redis cache
// keyed by (model, text). It is wired in only when REDIS_URL is configured
// (§2.2); without it the underlying provider is used directly.
type CachingProvider struct {
	inner *Client
	cache *RedisCache
	model string
}

// NewCachingProvider decorates inner with cache, keyed under model.
func NewCachingProvider(inner *Client, cache *RedisCache, model string) *CachingProvider {
	return &CachingProvider{inner: inner, cache: cache, model: model}
}

// ProbeDimensions delegates to the underlying client uncached: a
// dimension probe runs once at Configuration-creation time, not often
// enough to be worth caching.
func (p *CachingProvider) ProbeDimensions(ctx context.Context) (int, error) {
	return p.inner.ProbeDimensions(ctx)
}

func (p *CachingProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	vectors := make([][]float32, len(texts))
	missIdx := make([]int, 0, len(texts))
	missTexts := make([]string, 0, len(texts))

	for i, text := range texts {
		vec, hit, err := p.cache.get(ctx, p.model, text)
		if err != nil {
			// Cache failures degrade to a miss rather than failing the request.
			hit = false
		}
		if hit {
			vectors[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}

	if len(missTexts) == 0 {
		return vectors, nil
	}

	fetched, err := p.inner.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	for i, vec := range fetched {
		vectors[missIdx[i]] = vec
		_ = p.cache.set(ctx, p.model, missTexts[i], vec)
	}
	return vectors, nil
}
