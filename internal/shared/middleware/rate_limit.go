package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"localdeals-backend/internal/shared/response"
	"localdeals-backend/pkg/cache"
	"localdeals-backend/pkg/logger"
	"localdeals-backend/pkg/metrics"
)

// RateLimitConfig: Limit request mỗi Window cho mỗi key. Limit <= 0 tắt limiter.
type RateLimitConfig struct {
	Prefix string
	Limit  int
	Window time.Duration
	// KeyFunc trả về "" thì request không bị đếm
	KeyFunc func(c *gin.Context) string
}

// BusinessKey đếm theo business_id trong token
func BusinessKey(c *gin.Context) string {
	if id, ok := BusinessID(c); ok {
		return id.String()
	}
	return ""
}

// RateLimit là fixed-window counter trên cache. Cache lỗi thì cho qua.
func RateLimit(store cache.Cache, cfg RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.Limit <= 0 || store == nil {
			c.Next()
			return
		}

		subject := cfg.KeyFunc(c)
		if subject == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := fmt.Sprintf("ratelimit:%s:%s", cfg.Prefix, subject)

		count, err := store.Increment(ctx, key)
		if err != nil {
			logger.Warn("Rate limiter unavailable, allowing request", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
			c.Next()
			return
		}
		if count == 1 {
			if err := store.Expire(ctx, key, cfg.Window); err != nil {
				logger.Warn("Failed to set rate limit window", map[string]interface{}{
					"key":   key,
					"error": err.Error(),
				})
			}
		}

		if count > int64(cfg.Limit) {
			metrics.RateLimitedTotal.WithLabelValues(cfg.Prefix).Inc()

			retryAfter := cfg.Window
			if ttl, err := store.TTL(ctx, key); err == nil && ttl > 0 {
				retryAfter = ttl
			}
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
			response.Abort(c, http.StatusTooManyRequests, "RATE_LIMITED", "Too many confirmation attempts. Please wait and try again.")
			return
		}

		c.Next()
	}
}
