package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// memoryRedis answers INCR, EXPIRE NX and TTL in memory so the limiter runs without a server
type memoryRedis struct {
	mu      sync.Mutex
	counts  map[string]int64
	expires map[string]time.Duration
	expireN int
	fail    error
}

func newMemoryRedis() *memoryRedis {
	return &memoryRedis{counts: map[string]int64{}, expires: map[string]time.Duration{}}
}

func (m *memoryRedis) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return nil, errors.New("dial disabled")
	}
}

func (m *memoryRedis) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		return m.apply([]redis.Cmder{cmd})
	}
}

func (m *memoryRedis) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		return m.apply(cmds)
	}
}

func (m *memoryRedis) apply(cmds []redis.Cmder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	for _, cmd := range cmds {
		args := cmd.Args()
		switch cmd.Name() {
		case "incr":
			key := args[1].(string)
			m.counts[key]++
			cmd.(*redis.IntCmd).SetVal(m.counts[key])
		case "expire":
			key := args[1].(string)
			set := false
			if _, ok := m.expires[key]; !ok {
				m.expires[key] = time.Duration(args[2].(int64)) * time.Second
				m.expireN++
				set = true
			}
			cmd.(*redis.BoolCmd).SetVal(set)
		case "ttl":
			key := args[1].(string)
			ttl, ok := m.expires[key]
			if !ok {
				ttl = -1
			}
			cmd.(*redis.DurationCmd).SetVal(ttl)
		}
	}
	return nil
}

func limitedRouter(store *memoryRedis, max int, logger *zap.Logger) *gin.Engine {
	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	client.AddHook(store)

	r := gin.New()
	r.Use(RateLimiter(client, max, time.Minute, logger))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestRateLimiter_WindowExpirySetOnce(t *testing.T) {
	store := newMemoryRedis()
	r := limitedRouter(store, 2, zap.NewNop())

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		r.ServeHTTP(last, httptest.NewRequest(http.MethodGet, "/x", nil))
		codes = append(codes, last.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, "2", last.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", last.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "60", last.Header().Get("X-RateLimit-Reset"))

	// every counted key carries an expiry, written by the first hit only
	assert.Len(t, store.counts, 1)
	for key := range store.counts {
		assert.Equal(t, time.Minute, store.expires[key])
	}
	assert.Equal(t, 1, store.expireN)
}

func TestRateLimiter_FailsOpenWhenRedisErrors(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	store := newMemoryRedis()
	store.fail = errors.New("READONLY")
	r := limitedRouter(store, 1, zap.New(core))

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
	assert.Equal(t, 3, logs.FilterMessage("rate limiter unavailable").Len())
	assert.Empty(t, store.counts)
}
