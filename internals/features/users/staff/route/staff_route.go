package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	staffController "librarydesk_backend/internals/features/users/staff/controller"
	authMiddleware "librarydesk_backend/internals/middlewares/auth"
)

// StaffRoutes are owner-only.
func StaffRoutes(r fiber.Router, db *gorm.DB) {
	h := staffController.NewStaffController(db)

	g := r.Group("/staff", authMiddleware.OnlyOwner("staff management"))
	g.Get("/", h.List)
	g.Post("/", h.Create)
	g.Patch("/:id", h.Patch)
}
