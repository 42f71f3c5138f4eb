package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	planController "librarydesk_backend/internals/features/libraries/plans/controller"
	authMiddleware "librarydesk_backend/internals/middlewares/auth"
)

func PlanRoutes(r fiber.Router, db *gorm.DB) {
	h := planController.NewPlanController(db)
	owner := authMiddleware.OnlyOwner("plan setup")

	g := r.Group("/plans")
	g.Get("/", h.List)
	g.Post("/", owner, h.Create)
	g.Patch("/:id", owner, h.Patch)
}
