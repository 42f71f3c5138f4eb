package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	branchController "librarydesk_backend/internals/features/libraries/branches/controller"
	seatController "librarydesk_backend/internals/features/libraries/seats/controller"
	authMiddleware "librarydesk_backend/internals/middlewares/auth"
)

// BranchRoutes mounts branches with their seat and locker grids.
func BranchRoutes(r fiber.Router, db *gorm.DB) {
	bc := branchController.NewBranchController(db)
	seats := seatController.NewSeatController(db)
	lockers := seatController.NewLockerController(db)
	owner := authMiddleware.OnlyOwner("branch setup")

	b := r.Group("/branches")
	b.Get("/", bc.List)
	b.Post("/", owner, bc.Create)
	b.Get("/:id", bc.Get)
	b.Patch("/:id", owner, bc.Patch)
	b.Delete("/:id", owner, bc.Delete)
	b.Post("/:id/qr/rotate", owner, bc.RotateQR)

	b.Get("/:id/seats", seats.Grid)
	b.Post("/:id/seats", owner, seats.Create)
	b.Get("/:id/lockers", lockers.Grid)
	b.Post("/:id/lockers", owner, lockers.Create)

	r.Patch("/seats/:id", owner, seats.Patch)
	r.Delete("/seats/:id", owner, seats.Delete)
	r.Patch("/lockers/:id", owner, lockers.Patch)
	r.Delete("/lockers/:id", owner, lockers.Delete)
}
