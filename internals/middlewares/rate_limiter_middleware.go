package middlewares

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	helper "librarydesk_backend/internals/helpers"
)

func newLimiter(max int, window time.Duration, message string) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return helper.JsonError(c, fiber.StatusTooManyRequests, message)
		},
	})
}

// GlobalRateLimiter covers every regular endpoint.
func GlobalRateLimiter() fiber.Handler {
	return newLimiter(100, time.Minute, "too many requests, try again later")
}

func LoginRateLimiter() fiber.Handler {
	return newLimiter(5, time.Minute, "too many login attempts, try again in a minute")
}

func RegisterRateLimiter() fiber.Handler {
	return newLimiter(3, 5*time.Minute, "too many sign-ups, wait a few minutes")
}

// KioskRateLimiter protects the public QR scan endpoint.
func KioskRateLimiter() fiber.Handler {
	return newLimiter(60, time.Minute, "too many scans from this device")
}
