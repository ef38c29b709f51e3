package cache

import (
	"fmt"

	"github.com/dinecart/backend/internal/domain/cart"
	"github.com/dinecart/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// SummaryCacheFactory creates summary caches based on configuration
type SummaryCacheFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// SummaryCacheFactoryOption is a functional option for configuring the factory
type SummaryCacheFactoryOption func(*SummaryCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) SummaryCacheFactoryOption {
	return func(f *SummaryCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory cache
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) SummaryCacheFactoryOption {
	return func(f *SummaryCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewSummaryCacheFactory creates a new factory
func NewSummaryCacheFactory(cfg config.RedisConfig, opts ...SummaryCacheFactoryOption) *SummaryCacheFactory {
	f := &SummaryCacheFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateRedisCache creates a Redis-backed summary cache
func (f *SummaryCacheFactory) CreateRedisCache() (cart.SummaryCache, error) {
	store, err := NewRedisSummaryCache(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis summary cache: %w", err)
	}
	return store, nil
}

// CreateInMemoryCache creates an in-memory summary cache
func (f *SummaryCacheFactory) CreateInMemoryCache() cart.SummaryCache {
	return NewInMemorySummaryCache()
}

// CreateCache creates a summary cache, preferring Redis and falling back to
// the in-memory implementation when Redis is unavailable and fallback is
// allowed. The cache is best-effort everywhere it is used, so a degraded
// in-memory cache is acceptable.
func (f *SummaryCacheFactory) CreateCache() (cart.SummaryCache, error) {
	store, err := f.CreateRedisCache()
	if err == nil {
		f.logger.Info("Using Redis summary cache",
			zap.String("host", f.redisConfig.Host),
			zap.Int("port", f.redisConfig.Port))
		return store, nil
	}

	if !f.allowInMemoryFallback {
		return nil, err
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory summary cache",
		zap.Error(err))
	return f.CreateInMemoryCache(), nil
}
