package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	handoverController "librarydesk_backend/internals/features/finance/handovers/controller"
	helperOSS "librarydesk_backend/internals/helpers/oss"
	authMiddleware "librarydesk_backend/internals/middlewares/auth"
)

// HandoverRoutes mounts the staff cash book under /api/a.
func HandoverRoutes(r fiber.Router, db *gorm.DB, blob helperOSS.BlobService) {
	h := handoverController.NewHandoverController(db, blob)
	owner := authMiddleware.OnlyOwner("handover review")

	g := r.Group("/handovers")
	g.Get("/", h.List)
	g.Get("/summary", h.Summary)
	g.Get("/transactions", h.Transactions)
	g.Get("/export.csv", h.ExportCSV)
	g.Post("/", h.Submit)
	g.Post("/attachments", h.UploadAttachment)
	g.Post("/:id/verify", owner, h.Verify)
	g.Post("/:id/reject", owner, h.Reject)
}
