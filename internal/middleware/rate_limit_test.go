package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/alchemorsel-v2/gateway/internal/testutil"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	opts, err := redis.ParseURL(testutil.StartRedis(t))
	require.NoError(t, err)
	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())
	return client
}

func TestRateLimiter_IsAllowed(t *testing.T) {
	client := newTestRedis(t)
	limiter := NewRateLimiter(client, RateLimitConfig{Window: time.Hour, Limit: 2, KeyPrefix: "test"})
	fixed := time.Date(2025, 3, 1, 10, 15, 0, 0, time.UTC)
	limiter.now = func() time.Time { return fixed }
	ctx := context.Background()

	allowed, remaining, reset, err := limiter.IsAllowed(ctx, "client-a")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 1, remaining)
	assert.Equal(t, time.Date(2025, 3, 1, 11, 0, 0, 0, time.UTC), reset)

	allowed, remaining, _, err = limiter.IsAllowed(ctx, "client-a")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 0, remaining)

	allowed, _, _, err = limiter.IsAllowed(ctx, "client-a")
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, _, _, err = limiter.IsAllowed(ctx, "client-b")
	require.NoError(t, err)
	assert.True(t, allowed)

	ttl, err := client.TTL(ctx, "test:client-a:"+"1740823200").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestRateLimiter_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	client := newTestRedis(t)
	limiter := NewGenerationRateLimiter(client, 1)

	router := gin.New()
	router.Use(limiter.RateLimitMiddleware())
	router.POST("/chat", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/chat", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/chat", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestRateLimiter_FailsOpen(t *testing.T) {
	gin.SetMode(gin.TestMode)
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	limiter := NewGenerationRateLimiter(client, 1)

	router := gin.New()
	router.Use(limiter.RateLimitMiddleware())
	router.POST("/chat", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/chat", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "rate limit check failed", w.Header().Get("X-RateLimit-Error"))
}
