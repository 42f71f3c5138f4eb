package details

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	authRoute "librarydesk_backend/internals/features/users/auth/route"
	staffRoute "librarydesk_backend/internals/features/users/staff/route"
)

// AuthRoutes are the public sign-up and sign-in endpoints under /api.
func AuthRoutes(r fiber.Router, db *gorm.DB) {
	authRoute.AuthRoutes(r, db)
}

// AccountAdminRoutes are the caller's own account plus owner-managed staff.
func AccountAdminRoutes(r fiber.Router, db *gorm.DB) {
	authRoute.MeRoutes(r, db)
	staffRoute.StaffRoutes(r, db)
}
