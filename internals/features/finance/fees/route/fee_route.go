package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	feeController "librarydesk_backend/internals/features/finance/fees/controller"
)

func FeeRoutes(r fiber.Router, db *gorm.DB) {
	h := feeController.NewFeeController(db)
	r.Get("/students/:id/fees", h.List)
	r.Post("/students/:id/fees", h.Create)
}
