package middleware

import (
	"context"
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/qs-lzh/movie-booking/config"
	"github.com/qs-lzh/movie-booking/internal/cache"
)

var ErrRateLimited = errors.New("rate limit exceeded")

type TokenTaker interface {
	TakeToken(ctx context.Context, key string, capacity, refillTokens int, interval, ttl time.Duration) (cache.RateLimitResult, error)
}

// RateLimit applies a per client IP token bucket. Limiter failures let the request through.
func RateLimit(cfg config.RateLimitConfig, limiter TokenTaker, logger *zap.Logger) gin.HandlerFunc {
	if !cfg.Enabled || limiter == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		key := cache.MakeRateLimitKey(cfg.Prefix, c.ClientIP())
		res, err := limiter.TakeToken(c.Request.Context(), key, cfg.Capacity, cfg.RefillTokens, cfg.RefillInterval, cfg.TTL)
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
		if !res.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(res.RetryAfter.Seconds()))))
			_ = c.Error(ErrRateLimited)
			c.Abort()
			return
		}
		c.Next()
	}
}
