package auth

import (
	"github.com/gofiber/fiber/v2"

	"librarydesk_backend/internals/constants"
)

// OnlyOwner guards owner-only routes such as staff management and handover review.
func OnlyOwner(feature string) fiber.Handler {
	return OnlyRolesSlice(constants.RoleErrorOwner(feature), constants.OwnerOnly)
}
