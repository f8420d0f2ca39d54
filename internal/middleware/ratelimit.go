package middleware

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/dikshantyadav2006/library-seat-backend/internal/config"
)

// RateLimit returns a fixed-window request limiter backed by Redis.  Each
// client key gets cfg.Limit requests per cfg.Window; the counter key is
// INCRed per request and expires with the window, so the whole state is one
// integer per client.  With a nil Redis client or a disabled config the
// middleware is a no-op, and Redis errors fail open.
func RateLimit(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			key := rateKey(cfg.Prefix, c)

			n, err := rdb.Incr(ctx, key).Result()
			if err != nil {
				log.Printf("ratelimit: incr failed: %v", err)
				return next(c)
			}
			if n == 1 {
				// First hit of a fresh window starts its clock.
				if err := rdb.Expire(ctx, key, cfg.Window).Err(); err != nil {
					log.Printf("ratelimit: expire failed: %v", err)
				}
			}
			if n > int64(cfg.Limit) {
				retryAfter := cfg.Window
				if ttl, err := rdb.TTL(ctx, key).Result(); err == nil && ttl > 0 {
					retryAfter = ttl
				}
				c.Response().Header().Set("Retry-After", strconv.Itoa(int(retryAfter/time.Second)+1))
				return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "rate limit exceeded"})
			}

			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
			remaining := int64(cfg.Limit) - n
			if remaining < 0 {
				remaining = 0
			}
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			return next(c)
		}
	}
}

// rateKey identifies a client by authenticated user when available, falling
// back to the remote IP, and scopes the counter per route.
func rateKey(prefix string, c echo.Context) string {
	who := c.RealIP()
	if id, err := UserID(c); err == nil {
		who = "u" + strconv.FormatUint(id, 10)
	}
	return fmt.Sprintf("%s:%s:%s:%s", prefix, who, c.Request().Method, c.Path())
}
