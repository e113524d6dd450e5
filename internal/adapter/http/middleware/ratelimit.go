package middleware

import (
	"net/http"
	"time"

	"installment-platform/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RateLimitRule is one fixed-window limit.
type RateLimitRule struct {
	Limit  int64
	Window time.Duration
}

// DefaultRateLimitRules returns per-route-group limits.
func DefaultRateLimitRules() map[string]RateLimitRule {
	return map[string]RateLimitRule{
		"auth_login":   {Limit: 10, Window: time.Minute},
		"transactions": {Limit: 30, Window: time.Minute},
		"qr":           {Limit: 60, Window: time.Minute},
		"lookup":       {Limit: 120, Window: time.Minute},
	}
}

// RateLimiter enforces a fixed-window limit keyed by client IP and
// route group. Store errors fail open: a Redis hiccup must not take
// checkout down with it.
func RateLimiter(store ports.RateLimitStore, group string, rule RateLimitRule, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := group + ":" + c.ClientIP()
		count, err := store.Incr(c.Request.Context(), key, rule.Window)
		if err != nil {
			log.Warn().Err(err).Str("group", group).Msg("rate limit store error, allowing request")
			c.Next()
			return
		}
		if count > rule.Limit {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"status_code": "211",
				"message":     "Too many requests",
			})
			return
		}
		c.Next()
	}
}
