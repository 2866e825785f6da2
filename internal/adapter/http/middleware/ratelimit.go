package middleware

import (
	"fmt"
	"strconv"
	"time"

	redisStore "github.com/GiantDole/okayokayokay/internal/adapter/storage/redis"
	"github.com/GiantDole/okayokayokay/pkg/apperror"
	"github.com/GiantDole/okayokayokay/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RateLimitRule defines a rate limit for an endpoint group.
type RateLimitRule struct {
	Limit  int64
	Window time.Duration
}

// DefaultRateLimitRules returns the rate limits per endpoint group. Proxy
// calls spend real funds, so they get the tightest budget.
func DefaultRateLimitRules() map[string]RateLimitRule {
	return map[string]RateLimitRule{
		"proxy":     {Limit: 30, Window: time.Minute},
		"wallet":    {Limit: 60, Window: time.Minute},
		"resources": {Limit: 120, Window: time.Minute},
		"requests":  {Limit: 60, Window: time.Minute},
	}
}

// RateLimiter creates a rate-limiting middleware for a given endpoint group.
func RateLimiter(store *redisStore.RateLimitStore, group string, rule RateLimitRule, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		identifier := extractIdentifier(c)
		key := fmt.Sprintf("%s:%s", identifier, group)

		result, err := store.Allow(c.Request.Context(), key, rule.Limit, rule.Window)
		if err != nil {
			log.Warn().Err(err).Str("group", group).Msg("rate limit check failed, allowing request (degraded mode)")
			c.Next()
			return
		}

		// Always set rate limit headers
		c.Header("X-RateLimit-Limit", strconv.FormatInt(result.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt, 10))

		if !result.Allowed {
			retryAfter := result.ResetAt - time.Now().Unix()
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
			response.Error(c, apperror.ErrRateLimitExceeded())
			c.Abort()
			return
		}

		c.Next()
	}
}

// extractIdentifier determines the rate limit key source. Sessions are
// self-issued, so limits attach to the session when one is presented and
// fall back to the client IP otherwise.
func extractIdentifier(c *gin.Context) string {
	if sid := c.GetHeader(HeaderSessionID); sid != "" {
		return sid
	}
	if sid := c.Query("sessionId"); sid != "" {
		return sid
	}
	return c.ClientIP()
}
