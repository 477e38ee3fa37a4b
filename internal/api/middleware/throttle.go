package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ednar28/user-admin/internal/api/metrics"
	"github.com/ednar28/user-admin/internal/core/ports"
)

const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"

	msgTooManyAttempts = "Too Many Attempts."
)

// Throttle counts every request per client IP against limiter and answers
// 429 once the budget for the current window is spent. When the limiter
// itself fails the request is let through and the failure is logged.
func Throttle(limiter ports.RateLimiter, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			decision, err := limiter.Allow(c.Request().Context(), c.RealIP())
			if err != nil {
				log.Warn().Err(err).Str("path", c.Path()).Msg("rate limiter unavailable")
				return next(c)
			}

			h := c.Response().Header()
			h.Set(HeaderRateLimitLimit, strconv.Itoa(limiter.Limit()))
			h.Set(HeaderRateLimitRemaining, strconv.Itoa(decision.Remaining))

			if !decision.Allowed {
				secs := int(math.Ceil(decision.RetryAfter.Seconds()))
				if secs < 1 {
					secs = 1
				}
				h.Set(echo.HeaderRetryAfter, strconv.Itoa(secs))
				metrics.ThrottledRequestsTotal.WithLabelValues(c.Path()).Inc()
				return echo.NewHTTPError(http.StatusTooManyRequests, msgTooManyAttempts)
			}
			return next(c)
		}
	}
}
