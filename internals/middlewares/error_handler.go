package middlewares

import (
	"github.com/gofiber/fiber/v2"

	helper "librarydesk_backend/internals/helpers"
	"librarydesk_backend/internals/helpers/apperror"
	helperAuth "librarydesk_backend/internals/helpers/auth"
	"librarydesk_backend/internals/helpers/reporter"
)

// ErrorHandler renders every returned error in the standard JSON shape; 5xx go to the reporter.
func ErrorHandler(c *fiber.Ctx, err error) error {
	ae := apperror.From(err)
	if ae.Status() >= fiber.StatusInternalServerError {
		reporter.Error(err, map[string]interface{}{
			"path":       c.Path(),
			"method":     c.Method(),
			"request_id": c.Locals("request_id"),
			"library_id": c.Locals(helperAuth.LocLibraryID),
			"user_id":    c.Locals(helperAuth.LocUserID),
		})
	}
	return helper.JsonAppError(c, ae)
}
