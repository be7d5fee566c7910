package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/skillbase/backend/internal/domain/skill"
)

// RedisSkillCache implements skill.ContentCache using Redis. Suitable for
// distributed deployments where server and worker share the cache.
type RedisSkillCache struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisSkillCache creates a new Redis-based skill content cache
func NewRedisSkillCache(cfg RedisConfig) (*RedisSkillCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisSkillCache{
		client:    client,
		keyPrefix: "skill:content:",
	}, nil
}

// NewRedisSkillCacheWithClient creates a cache with an existing Redis client.
// Useful for testing or when sharing a client across components.
func NewRedisSkillCacheWithClient(client *redis.Client, keyPrefix string) *RedisSkillCache {
	if keyPrefix == "" {
		keyPrefix = "skill:content:"
	}
	return &RedisSkillCache{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (c *RedisSkillCache) key(libraryID, skillID uuid.UUID) string {
	return fmt.Sprintf("%s%s:%s", c.keyPrefix, libraryID, skillID)
}

// Get returns the cached content for a skill, if present. Errors are treated
// as misses; the cache is best-effort.
func (c *RedisSkillCache) Get(ctx context.Context, libraryID, skillID uuid.UUID) (*skill.Content, bool) {
	raw, err := c.client.Get(ctx, c.key(libraryID, skillID)).Bytes()
	if err != nil {
		return nil, false
	}
	var content skill.Content
	if err := json.Unmarshal(raw, &content); err != nil {
		return nil, false
	}
	return &content, true
}

// Set caches a skill's content with the given TTL. Failures are ignored.
func (c *RedisSkillCache) Set(ctx context.Context, libraryID uuid.UUID, content skill.Content, ttl time.Duration) {
	raw, err := json.Marshal(content)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, c.key(libraryID, content.SkillID), raw, ttl).Err()
}

// InvalidateLibrary drops all cached content for a library. Uses SCAN rather
// than KEYS so a large library does not block the server.
func (c *RedisSkillCache) InvalidateLibrary(ctx context.Context, libraryID uuid.UUID) error {
	pattern := fmt.Sprintf("%s%s:*", c.keyPrefix, libraryID)
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) >= 100 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to invalidate library cache: %w", err)
			}
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan library cache: %w", err)
	}
	if len(keys) > 0 {
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("failed to invalidate library cache: %w", err)
		}
	}
	return nil
}

// Close closes the Redis client
func (c *RedisSkillCache) Close() error {
	return c.client.Close()
}

// Ensure RedisSkillCache implements ContentCache
var _ skill.ContentCache = (*RedisSkillCache)(nil)
