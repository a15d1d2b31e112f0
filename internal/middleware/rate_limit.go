package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pageza/alchemorsel-v2/gateway/internal/logger"
)

// RateLimitConfig defines configuration for rate limiting
type RateLimitConfig struct {
	// Window is the time window for rate limiting
	Window time.Duration
	// Limit is the maximum number of requests allowed in the window
	Limit int
	// Key prefix for Redis keys
	KeyPrefix string
}

// RateLimiter is a fixed-window limiter backed by Redis
type RateLimiter struct {
	redis  *redis.Client
	config RateLimitConfig
	now    func() time.Time
}

// NewRateLimiter creates a new rate limiter instance
func NewRateLimiter(redisClient *redis.Client, config RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		redis:  redisClient,
		config: config,
		now:    time.Now,
	}
}

// NewGenerationRateLimiter limits generation calls per client per hour
func NewGenerationRateLimiter(redisClient *redis.Client, perHour int) *RateLimiter {
	return NewRateLimiter(redisClient, RateLimitConfig{
		Window:    time.Hour,
		Limit:     perHour,
		KeyPrefix: "rate_limit:generation",
	})
}

// RateLimitMiddleware enforces the limit per authenticated client, falling
// back to the caller's IP when auth is disabled. Redis failures let the
// request through.
func (rl *RateLimiter) RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		subject := ClientID(c)
		if subject == "" {
			subject = "ip:" + c.ClientIP()
		}

		allowed, remaining, resetTime, err := rl.IsAllowed(c.Request.Context(), subject)
		if err != nil {
			logger.FromGin(c).Warn("rate limit check failed", zap.Error(err))
			c.Header("X-RateLimit-Error", "rate limit check failed")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.config.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

		if !allowed {
			retryAfter := int(resetTime.Sub(rl.now()).Seconds())
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"message":     fmt.Sprintf("You have exceeded the rate limit of %d requests per %v", rl.config.Limit, rl.config.Window),
				"retry_after": retryAfter,
			})
			return
		}

		c.Next()
	}
}

// IsAllowed counts a request for subject and reports whether it fits the window
// Returns: allowed, remaining requests, reset time, error
func (rl *RateLimiter) IsAllowed(ctx context.Context, subject string) (bool, int, time.Time, error) {
	windowStart := rl.now().Truncate(rl.config.Window)
	key := fmt.Sprintf("%s:%s:%d", rl.config.KeyPrefix, subject, windowStart.Unix())

	pipe := rl.redis.Pipeline()
	incrCmd := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, rl.config.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, time.Time{}, err
	}

	count := int(incrCmd.Val())
	remaining := rl.config.Limit - count
	if remaining < 0 {
		remaining = 0
	}
	return count <= rl.config.Limit, remaining, windowStart.Add(rl.config.Window), nil
}
