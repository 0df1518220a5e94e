package middleware

import (
	"fmt"
	"time"

	"github.com/andreajoa/linktree/backend/internal/cache"
	"github.com/andreajoa/linktree/backend/internal/util"
	"github.com/gin-gonic/gin"
)

// RateLimitConfig holds rate limiting configuration for an endpoint group.
type RateLimitConfig struct {
	Limit  int
	Window time.Duration
	// KeyFunc derives the counter key from the request. Defaults to
	// client IP.
	KeyFunc func(c *gin.Context) string
}

// RateLimitMiddleware enforces a fixed-window limit backed by the cache
// layer's atomic increment. The counter store decides correctness under
// concurrency; there is no client-side read-modify-write.
//
// Fail-open: when the backend is disabled or erroring the cache layer
// reports "allowed", so an outage never blocks traffic.
func RateLimitMiddleware(cacheClient cache.Client, cfg RateLimitConfig) gin.HandlerFunc {
	keyFunc := cfg.KeyFunc
	if keyFunc == nil {
		keyFunc = func(c *gin.Context) string {
			return fmt.Sprintf("rate:%s:%s", c.FullPath(), c.ClientIP())
		}
	}

	return func(c *gin.Context) {
		key := keyFunc(c)
		if !cacheClient.CheckRateLimit(c.Request.Context(), key, cfg.Limit, cfg.Window) {
			util.RespondRateLimited(c, cfg.Window.Seconds())
			c.Abort()
			return
		}
		c.Next()
	}
}
