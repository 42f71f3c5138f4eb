package middlewares

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/utils"
)

// RequestID sets X-Request-ID, gives the handler a bounded context and logs slow requests.
func RequestID(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid := c.Get("X-Request-ID")
		if rid == "" {
			rid = utils.UUID()
		}
		c.Set("X-Request-ID", rid)
		c.Locals("request_id", rid)

		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)

		start := time.Now()
		err := c.Next()
		if d := time.Since(start); d > time.Second {
			log.Printf("[REQ] id=%s %s %s slow=%s", rid, c.Method(), c.OriginalURL(), d)
		}
		return err
	}
}
