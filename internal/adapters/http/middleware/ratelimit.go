package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rafaelleal24/storefront/internal/core/logger"
)

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RateLimit budgets requests per route and client IP. Limiter failures let
// the request through.
func RateLimit(limiter RateLimiter, limit int, window time.Duration) gin.HandlerFunc {
	retryAfter := strconv.Itoa(int(math.Ceil(window.Seconds())))

	return func(c *gin.Context) {
		key := fmt.Sprintf("%s:%s:%s", c.Request.Method, c.FullPath(), c.ClientIP())

		allowed, err := limiter.Allow(c.Request.Context(), key, limit, window)
		if err != nil {
			logger.Warn(c.Request.Context(), "rate limiter unavailable", map[string]any{
				"http.route": c.FullPath(),
				"error":      err.Error(),
			})
			c.Next()
			return
		}
		if !allowed {
			c.Header("Retry-After", retryAfter)
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			c.Abort()
			return
		}
		c.Next()
	}
}
