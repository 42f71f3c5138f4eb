package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	paymentController "librarydesk_backend/internals/features/finance/payments/controller"
	"librarydesk_backend/internals/helpers/mail"
	helperOSS "librarydesk_backend/internals/helpers/oss"
	authMiddleware "librarydesk_backend/internals/middlewares/auth"
)

// PaymentRoutes mounts the desk endpoints under /api/a.
func PaymentRoutes(r fiber.Router, db *gorm.DB, blob helperOSS.BlobService, mailer mail.Sender) {
	h := paymentController.NewPaymentController(db, blob, mailer)
	owner := authMiddleware.OnlyOwner("payment review")

	g := r.Group("/payments")
	g.Get("/", h.List)
	g.Post("/", h.Create)
	g.Get("/export.csv", h.ExportCSV)
	g.Get("/:id/invoice", h.Invoice)
	g.Post("/:id/verify", owner, h.Verify)
	g.Post("/:id/reject", owner, h.Reject)
}

// PaymentPublicRoutes mounts the gateway webhook under /api/public.
func PaymentPublicRoutes(r fiber.Router, db *gorm.DB, mailer mail.Sender) {
	h := paymentController.NewPaymentController(db, nil, mailer)
	r.Post("/payments/midtrans/notify", h.MidtransNotify)
}
