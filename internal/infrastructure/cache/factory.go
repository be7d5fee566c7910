package cache

import (
	"fmt"

	"github.com/skillbase/backend/internal/domain/skill"
	"github.com/skillbase/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// SkillCacheFactory creates skill content caches based on configuration
type SkillCacheFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// SkillCacheFactoryOption is a functional option for configuring the factory
type SkillCacheFactoryOption func(*SkillCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) SkillCacheFactoryOption {
	return func(f *SkillCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to an in-memory cache
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) SkillCacheFactoryOption {
	return func(f *SkillCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewSkillCacheFactory creates a new factory
func NewSkillCacheFactory(cfg config.RedisConfig, opts ...SkillCacheFactoryOption) *SkillCacheFactory {
	f := &SkillCacheFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisCache creates a Redis-backed skill content cache
func (f *SkillCacheFactory) CreateRedisCache() (skill.ContentCache, error) {
	redisCfg := RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}

	cache, err := NewRedisSkillCache(redisCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis skill cache: %w", err)
	}

	return cache, nil
}

// CreateCache creates a skill content cache based on whether Redis is
// available. It tries Redis first and falls back to in-memory if Redis is not
// available and fallback is allowed. An in-memory cache is private to the
// process, so server and worker warm their caches independently.
func (f *SkillCacheFactory) CreateCache() (skill.ContentCache, error) {
	cache, err := f.CreateRedisCache()
	if err == nil {
		f.logger.Info("using Redis skill content cache")
		return cache, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for skill cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory skill content cache",
		zap.Error(err),
	)
	return NewInMemorySkillCache(), nil
}
