package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	subscriptionController "librarydesk_backend/internals/features/subscriptions/subscriptions/controller"
)

func SubscriptionRoutes(r fiber.Router, db *gorm.DB) {
	h := subscriptionController.NewSubscriptionController(db)

	r.Get("/students/:id/subscriptions", h.ListForStudent)

	g := r.Group("/subscriptions")
	g.Post("/", h.Create)
	g.Post("/:id/renew", h.Renew)
	g.Post("/:id/cancel", h.Cancel)
	g.Patch("/:id/seat", h.ChangeSeat)
	g.Patch("/:id/locker", h.ChangeLocker)
}
