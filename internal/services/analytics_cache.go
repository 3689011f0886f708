package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const analyticsKeyPrefix = "pos:analytics:"

// AnalyticsCacheService caches rendered analytics results in Redis.
// A nil Redis client turns every call into a miss.
type AnalyticsCacheService struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewAnalyticsCacheService creates a new analytics cache service
func NewAnalyticsCacheService(redisClient *redis.Client, ttl time.Duration, logger *zap.Logger) *AnalyticsCacheService {
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	return &AnalyticsCacheService{
		redis:  redisClient,
		ttl:    ttl,
		logger: logger,
	}
}

// CacheKey builds the key for one query against one snapshot and business day
func CacheKey(snapshotID, businessDay, query string, params ...string) string {
	parts := append([]string{snapshotID, businessDay, query}, params...)
	return analyticsKeyPrefix + strings.Join(parts, ":")
}

// Get loads a cached value into dest and reports whether it was found.
// Redis and decoding failures are logged and reported as misses.
func (s *AnalyticsCacheService) Get(ctx context.Context, key string, dest any) bool {
	if s == nil || s.redis == nil {
		return false
	}

	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("failed to get analytics from cache", zap.Error(err), zap.String("key", key))
		}
		return false
	}

	if err := json.Unmarshal(data, dest); err != nil {
		s.logger.Warn("failed to unmarshal cached analytics", zap.Error(err), zap.String("key", key))
		return false
	}

	s.logger.Debug("cache hit for analytics", zap.String("key", key))
	return true
}

// Set stores value under key for the configured TTL
func (s *AnalyticsCacheService) Set(ctx context.Context, key string, value any) error {
	if s == nil || s.redis == nil {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal analytics for cache: %w", err)
	}

	if err := s.redis.Set(ctx, key, data, s.ttl).Err(); err != nil {
		s.logger.Warn("failed to set analytics in cache", zap.Error(err), zap.String("key", key))
		return err
	}

	s.logger.Debug("cached analytics", zap.String("key", key), zap.Duration("ttl", s.ttl))
	return nil
}

// Invalidate removes every cached analytics result
func (s *AnalyticsCacheService) Invalidate(ctx context.Context) error {
	if s == nil || s.redis == nil {
		return nil
	}

	keys, err := s.redis.Keys(ctx, analyticsKeyPrefix+"*").Result()
	if err != nil {
		s.logger.Warn("failed to find cache keys to invalidate", zap.Error(err))
		return err
	}

	if len(keys) > 0 {
		if err := s.redis.Del(ctx, keys...).Err(); err != nil {
			s.logger.Warn("failed to invalidate analytics cache", zap.Error(err))
			return err
		}
		s.logger.Debug("invalidated analytics cache", zap.Int("keys_removed", len(keys)))
	}

	return nil
}
