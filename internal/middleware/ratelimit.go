package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/simp-lee/docbase/internal/pkg"
)

// RateLimit returns a gin middleware backed by a single token bucket shared
// by all clients. It refills at rps tokens per second and holds at most burst
// tokens. Requests that find the bucket empty are rejected with 429 and a
// Retry-After header.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	return rateLimit(rate.NewLimiter(rate.Limit(rps), burst))
}

func rateLimit(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		now := time.Now()
		r := limiter.ReserveN(now, 1)
		if !r.OK() {
			reject(c, time.Second)
			return
		}
		if delay := r.DelayFrom(now); delay > 0 {
			r.CancelAt(now)
			reject(c, delay)
			return
		}
		c.Next()
	}
}

func reject(c *gin.Context, retryAfter time.Duration) {
	secs := int(retryAfter.Seconds())
	if time.Duration(secs)*time.Second < retryAfter {
		secs++
	}

	slog.WarnContext(c.Request.Context(), "rate limit exceeded",
		slog.String("path", c.Request.URL.Path),
		slog.String("client_ip", c.ClientIP()),
	)

	c.Header("Retry-After", strconv.Itoa(secs))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, pkg.Response{
		Code:    http.StatusTooManyRequests,
		Message: "too many requests",
		Data:    nil,
	})
}
