package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
)

const rateLimitWindow = time.Minute

// RateLimit allows limit requests per client IP per minute using a Redis counter.
// When Redis is unreachable requests are let through.
func RateLimit(rdb redis.Cmdable, limit int, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit <= 0 {
			c.Next()
			return
		}

		key := fmt.Sprintf("rate_limit:%s", c.ClientIP())

		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()

		pipe := rdb.TxPipeline()
		incr := pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, rateLimitWindow)
		ttl := pipe.TTL(ctx, key)
		if _, err := pipe.Exec(ctx); err != nil {
			log.WithError(err).Warn("rate limiter unavailable")
			c.Next()
			return
		}

		count := int(incr.Val())
		reset := ttl.Val()
		if reset <= 0 {
			reset = rateLimitWindow
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(max(limit-count, 0)))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(reset).Unix(), 10))

		if count > limit {
			c.Header("Retry-After", strconv.Itoa(int(reset.Seconds())))
			AbortWithError(c, apperror.New(apperror.CodeRateLimited, "rate limit exceeded"))
			return
		}

		c.Next()
	}
}
