package middlewares

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/pkg/errors"

	"librarydesk_backend/internals/helpers/reporter"
)

// RecoveryMiddleware turns panics into 500s and reports them.
func RecoveryMiddleware() fiber.Handler {
	return recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
			reporter.Error(errors.New(fmt.Sprint("panic: ", e)), map[string]interface{}{
				"path":       c.Path(),
				"method":     c.Method(),
				"request_id": c.Locals("request_id"),
			})
		},
	})
}
