package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"

	"github.com/jkarimi/pesaflow/internal/utils"
)

// IPRateLimiter throttles requests per client IP using a fixed window counter
// in Redis. The provider retries callbacks aggressively when we respond
// slowly, so the limit should stay well above the expected callback rate.
func IPRateLimiter(limit int, period time.Duration, redisClient *redis.Client) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			key := "rate:ip:" + c.Path() + ":" + c.RealIP()

			count, err := redisClient.Incr(ctx, key).Result()
			if err != nil {
				// Redis being down should not block callback delivery.
				return next(c)
			}
			if count == 1 {
				redisClient.Expire(ctx, key, period)
			}

			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))

			if count > int64(limit) {
				ttl, _ := redisClient.TTL(ctx, key).Result()
				if ttl > 0 {
					c.Response().Header().Set("Retry-After", strconv.FormatInt(int64(ttl.Seconds()), 10))
				}
				c.Response().Header().Set("X-RateLimit-Remaining", "0")
				return utils.ErrorResponseHandler(c, http.StatusTooManyRequests, "Rate limit exceeded")
			}

			c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(int64(limit)-count, 10))
			return next(c)
		}
	}
}
