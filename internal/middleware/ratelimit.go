package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/user/shortlink/internal/database"
	"github.com/user/shortlink/internal/models"
)

// RateLimiter caps requests per client per minute using Redis
// INCR counters. Redis failures fail open: a redirect must not
// break because the limiter is down.
type RateLimiter struct {
	redis      *database.RedisDB
	limit      int
	windowSize time.Duration
}

// NewRateLimiter creates a rate limiter middleware.
func NewRateLimiter(redis *database.RedisDB, limit int) *RateLimiter {
	return &RateLimiter{
		redis:      redis,
		limit:      limit,
		windowSize: time.Minute,
	}
}

// Middleware returns the gin middleware handler.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		identifier := rl.clientIdentifier(c)
		window := time.Now().Truncate(rl.windowSize)
		key := database.RateLimitKey(identifier, window)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		count, err := rl.redis.IncrementRateLimit(ctx, key, rl.windowSize)
		if err != nil {
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", rl.limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", max(0, rl.limit-int(count))))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", window.Add(rl.windowSize).Unix()))

		if int(count) > rl.limit {
			retryAfter := rl.windowSize - time.Since(window)
			c.Header("Retry-After", fmt.Sprintf("%d", int(retryAfter.Seconds())))

			c.JSON(http.StatusTooManyRequests, models.ErrorResponse{
				Error:   "Rate limit exceeded",
				Code:    models.ErrCodeRateLimited,
				Details: fmt.Sprintf("Try again in %d seconds", int(retryAfter.Seconds())),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// clientIdentifier keys the counter by client IP. Forwarded
// headers are only meaningful behind a trusted proxy.
func (rl *RateLimiter) clientIdentifier(c *gin.Context) string {
	forwarded := c.GetHeader("X-Forwarded-For")
	if forwarded != "" {
		ips := strings.Split(forwarded, ",")
		return strings.TrimSpace(ips[0])
	}

	if realIP := c.GetHeader("X-Real-IP"); realIP != "" {
		return realIP
	}

	return c.ClientIP()
}
