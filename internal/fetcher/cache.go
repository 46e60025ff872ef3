package fetcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/north-cloud/evidence/internal/domain"
)

const (
	cacheKeyPrefix      = "evidence:fetch:"
	cacheConnectTimeout = 5 * time.Second
)

// ErrEmptyCacheAddress is returned when the cache is enabled without an address.
var ErrEmptyCacheAddress = errors.New("redis address is required")

// Cache stores successful static fetches.
type Cache interface {
	Get(ctx context.Context, url string) (*domain.Resource, bool)
	Put(ctx context.Context, res *domain.Resource)
}

// cachedResource is the stored form of a resource. Raw payloads and HTML
// markup are dropped; the decoded text is what later runs need.
type cachedResource struct {
	Kind        domain.ContentKind `json:"kind"`
	ContentType string             `json:"content_type"`
	Title       string             `json:"title"`
	Text        string             `json:"text"`
	HTML        string             `json:"html,omitempty"`
	Meta        map[string]string  `json:"meta,omitempty"`
}

// RedisCache is a Cache backed by redis with a fixed TTL per entry.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to redis and verifies the connection with a ping.
func NewRedisCache(cfg CacheConfig) (*RedisCache, error) {
	cfg = cfg.WithDefaults()
	if cfg.Address == "" {
		return nil, ErrEmptyCacheAddress
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cacheConnectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisCache{client: client, ttl: cfg.TTL}, nil
}

// Get returns the cached resource for url. Any redis or decode error is a miss.
func (c *RedisCache) Get(ctx context.Context, url string) (*domain.Resource, bool) {
	data, err := c.client.Get(ctx, cacheKey(url)).Bytes()
	if err != nil {
		return nil, false
	}

	var cached cachedResource
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, false
	}

	return &domain.Resource{
		URL:         url,
		Kind:        cached.Kind,
		ContentType: cached.ContentType,
		Via:         domain.ViaCache,
		Title:       cached.Title,
		Text:        cached.Text,
		HTML:        cached.HTML,
		Meta:        cached.Meta,
	}, true
}

// Put stores res when it was fetched and decoded. Write errors are ignored.
func (c *RedisCache) Put(ctx context.Context, res *domain.Resource) {
	if !res.OK() {
		return
	}

	data, err := json.Marshal(cachedResource{
		Kind:        res.Kind,
		ContentType: res.ContentType,
		Title:       res.Title,
		Text:        res.Text,
		HTML:        res.HTML,
		Meta:        res.Meta,
	})
	if err != nil {
		return
	}

	_ = c.client.Set(ctx, cacheKey(res.URL), data, c.ttl).Err()
}

// Close releases the redis connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func cacheKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}
