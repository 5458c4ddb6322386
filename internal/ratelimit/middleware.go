package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware returns a gin middleware limiting requests per client IP.
// A nil limiter disables limiting entirely. Redis failures let the
// request through: the API stays up when the limiter store is down.
func Middleware(l *Limiter, limit int, window time.Duration) gin.HandlerFunc {
	if l == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		res, err := l.Allow(c.Request.Context(), c.ClientIP(), limit, window)
		if err != nil {
			c.Next()
			return
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		if !res.Allowed {
			c.Header("Retry-After", strconv.Itoa(res.RetryAfterSeconds(time.Now())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "too many requests, please try again later",
			})
			return
		}
		c.Next()
	}
}
