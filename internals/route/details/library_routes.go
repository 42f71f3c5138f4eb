package details

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	dashboardRoute "librarydesk_backend/internals/features/dashboard/stats/route"
	planRoute "librarydesk_backend/internals/features/libraries/plans/route"
	seatRoute "librarydesk_backend/internals/features/libraries/seats/route"
)

// LibraryAdminRoutes covers branch setup, seat/locker grids, plans and the dashboard.
func LibraryAdminRoutes(r fiber.Router, db *gorm.DB) {
	seatRoute.BranchRoutes(r, db)
	planRoute.PlanRoutes(r, db)
	dashboardRoute.DashboardRoutes(r, db)
}
