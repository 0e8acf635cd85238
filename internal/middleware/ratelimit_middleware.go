package middleware

import (
	"context"
	"net/http"
	"strconv"

	"brigade-service/internal/redis"
	"brigade-service/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

// Limiter is the subset of *redis.RateLimiter the middleware uses.
type Limiter interface {
	AllowAuth(ctx context.Context, ip string) (*redis.RateLimitResult, error)
	AllowRedirect(ctx context.Context, ip string) (*redis.RateLimitResult, error)
}

// AuthRateLimit limits login and register attempts per client IP. A nil
// limiter disables the check.
func AuthRateLimit(limiter Limiter) gin.HandlerFunc {
	if limiter == nil {
		return passThrough
	}
	return rateLimit(limiter.AllowAuth, "too many auth attempts")
}

// RedirectRateLimit limits donation link redirects per client IP.
func RedirectRateLimit(limiter Limiter) gin.HandlerFunc {
	if limiter == nil {
		return passThrough
	}
	return rateLimit(limiter.AllowRedirect, "rate limit exceeded")
}

func passThrough(c *gin.Context) { c.Next() }

func rateLimit(allow func(context.Context, string) (*redis.RateLimitResult, error), message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("rate limit error", "INTERNAL_ERROR"))
			c.Abort()
			return
		}

		setRateLimitHeaders(c, result)

		if !result.Allowed {
			c.JSON(http.StatusTooManyRequests, httpdto.NewErrorResponse(message, "RATE_LIMITED"))
			c.Abort()
			return
		}

		c.Next()
	}
}

func setRateLimitHeaders(c *gin.Context, result *redis.RateLimitResult) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(int64(result.ResetIn.Seconds()), 10))
}
