package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	noteController "librarydesk_backend/internals/features/students/notes/controller"
	studentController "librarydesk_backend/internals/features/students/students/controller"
	helperOSS "librarydesk_backend/internals/helpers/oss"
	authMiddleware "librarydesk_backend/internals/middlewares/auth"
)

func StudentRoutes(r fiber.Router, db *gorm.DB, blob helperOSS.BlobService) {
	h := studentController.NewStudentController(db, blob)
	notes := noteController.NewNoteController(db)

	g := r.Group("/students")
	g.Get("/", h.List)
	g.Post("/", h.Create)
	g.Get("/:id", h.Get)
	g.Patch("/:id", h.Patch)
	g.Delete("/:id", authMiddleware.OnlyOwner("student deletion"), h.Delete)
	g.Post("/:id/block", h.Block)
	g.Post("/:id/unblock", h.Unblock)
	g.Post("/:id/id-document", h.UploadIDDocument)
	g.Post("/:id/verify-id", h.VerifyID)

	g.Get("/:id/notes", notes.List)
	g.Post("/:id/notes", notes.Create)
}
