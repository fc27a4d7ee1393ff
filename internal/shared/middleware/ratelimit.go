package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/podcaststudio/server/internal/port/outbound"
	"github.com/podcaststudio/server/internal/shared/errors"
	"github.com/podcaststudio/server/internal/shared/logger"
)

const (
	// RateLimitRemaining is the header for remaining requests.
	RateLimitRemaining = "X-RateLimit-Remaining"
	// RateLimitLimit is the header for the limit.
	RateLimitLimit = "X-RateLimit-Limit"
	// RetryAfter is the header for retry time.
	RetryAfter = "Retry-After"
)

// RateLimitByIP limits requests per client IP. A nil limiter disables it.
// Limiter errors let the request through.
func RateLimitByIP(limiter outbound.RateLimiterPort, limit int, window time.Duration, log *logger.Logger) gin.HandlerFunc {
	if limiter == nil || limit <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if log == nil {
		log = logger.New(nil)
	}

	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()

		allowed, remaining, err := limiter.Allow(c.Request.Context(), key, limit, window)
		if err != nil {
			log.Warn("Rate limiter unavailable",
				"path", c.Request.URL.Path,
				"request_id", GetRequestID(c),
				"error", err.Error(),
			)
			c.Next()
			return
		}

		c.Header(RateLimitLimit, strconv.Itoa(limit))
		c.Header(RateLimitRemaining, strconv.Itoa(remaining))

		if !allowed {
			c.Header(RetryAfter, strconv.Itoa(int(window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errors.ErrorResponse{
				Error: "Too many requests, please try again later.",
				Code:  "RATE_LIMIT_EXCEEDED",
			})
			return
		}

		c.Next()
	}
}
