package upstream

import (
	"context"
	"strings"
	"sync"
	"time"
)

// RateLimiter is a token bucket limiter keyed by API path prefix.
// Notion allows an average of three requests per second per integration.
type RateLimiter struct {
	buckets map[string]*tokenBucket
	mu      sync.RWMutex
	config  RateLimitConfig
	now     func() time.Time
}

// RateLimitConfig holds rate limit configuration.
type RateLimitConfig struct {
	DefaultRPS   float64
	DefaultBurst int
	// PathLimits overrides the default for paths starting with the key.
	PathLimits map[string]PathLimit
}

// PathLimit defines the limit for one API path prefix.
type PathLimit struct {
	RPS   float64
	Burst int
}

// DefaultRateLimitConfig returns limits that stay under the order stores' quotas.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		DefaultRPS:   10,
		DefaultBurst: 20,
		PathLimits: map[string]PathLimit{
			"/v1/databases/": {RPS: 3, Burst: 3},
			"/v1/pages/":     {RPS: 3, Burst: 3},
			"/rest/v1/":      {RPS: 10, Burst: 20},
		},
	}
}

type tokenBucket struct {
	tokens     float64
	maxTokens  float64
	refillRate float64
	lastRefill time.Time
	mu         sync.Mutex
}

func newTokenBucket(rps float64, burst int, now time.Time) *tokenBucket {
	if burst < 1 {
		burst = 1
	}
	return &tokenBucket{
		tokens:     float64(burst),
		maxTokens:  float64(burst),
		refillRate: rps,
		lastRefill: now,
	}
}

// take removes a token, returning how long to wait when none is available.
func (tb *tokenBucket) take(now time.Time) time.Duration {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	elapsed := now.Sub(tb.lastRefill).Seconds()
	if elapsed > 0 {
		tb.tokens += elapsed * tb.refillRate
		if tb.tokens > tb.maxTokens {
			tb.tokens = tb.maxTokens
		}
		tb.lastRefill = now
	}

	if tb.tokens >= 1 {
		tb.tokens--
		return 0
	}
	if tb.refillRate <= 0 {
		return time.Second
	}

	deficit := 1 - tb.tokens
	return time.Duration(deficit / tb.refillRate * float64(time.Second))
}

// NewRateLimiter creates a rate limiter with the given configuration.
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*tokenBucket),
		config:  config,
		now:     time.Now,
	}
}

// Wait blocks until a request can be made for path.
// Returns the context error if it is cancelled while waiting.
func (rl *RateLimiter) Wait(ctx context.Context, path string) error {
	for {
		waitTime := rl.getBucket(path).take(rl.now())
		if waitTime == 0 {
			return nil
		}

		timer := time.NewTimer(waitTime)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// TryAcquire takes a token for path without waiting.
func (rl *RateLimiter) TryAcquire(path string) bool {
	return rl.getBucket(path).take(rl.now()) == 0
}

func (rl *RateLimiter) getBucket(path string) *tokenBucket {
	key, limit := rl.limitFor(path)

	rl.mu.RLock()
	bucket, exists := rl.buckets[key]
	rl.mu.RUnlock()
	if exists {
		return bucket
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if bucket, exists = rl.buckets[key]; exists {
		return bucket
	}
	bucket = newTokenBucket(limit.RPS, limit.Burst, rl.now())
	rl.buckets[key] = bucket
	return bucket
}

// limitFor picks the longest configured prefix of path.
func (rl *RateLimiter) limitFor(path string) (string, PathLimit) {
	key := "default"
	limit := PathLimit{RPS: rl.config.DefaultRPS, Burst: rl.config.DefaultBurst}
	for prefix, l := range rl.config.PathLimits {
		if strings.HasPrefix(path, prefix) && (key == "default" || len(prefix) > len(key)) {
			key, limit = prefix, l
		}
	}
	return key, limit
}

// GetStatus returns the state of every bucket created so far.
func (rl *RateLimiter) GetStatus() map[string]BucketStatus {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	status := make(map[string]BucketStatus, len(rl.buckets))
	for key, bucket := range rl.buckets {
		bucket.mu.Lock()
		status[key] = BucketStatus{
			AvailableTokens: bucket.tokens,
			MaxTokens:       bucket.maxTokens,
			RefillRate:      bucket.refillRate,
		}
		bucket.mu.Unlock()
	}
	return status
}

// BucketStatus is a snapshot of one bucket.
type BucketStatus struct {
	AvailableTokens float64
	MaxTokens       float64
	RefillRate      float64
}
