package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	dashboardController "librarydesk_backend/internals/features/dashboard/stats/controller"
	authMiddleware "librarydesk_backend/internals/middlewares/auth"
)

// DashboardRoutes mounts the owner dashboard under /api/a.
func DashboardRoutes(r fiber.Router, db *gorm.DB) {
	h := dashboardController.NewDashboardController(db)

	g := r.Group("/dashboard", authMiddleware.OnlyOwner("dashboard"))
	g.Get("/summary", h.Summary)
	g.Get("/revenue", h.Revenue)
}
