package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	attendanceController "librarydesk_backend/internals/features/attendance/attendance/controller"
)

// AttendanceRoutes mounts the desk endpoints under /api/a.
func AttendanceRoutes(r fiber.Router, db *gorm.DB) {
	h := attendanceController.NewAttendanceController(db)

	g := r.Group("/attendance")
	g.Get("/", h.List)
	g.Post("/toggle", h.Toggle)
}

// AttendancePublicRoutes mounts the kiosk scan under /api/public.
func AttendancePublicRoutes(r fiber.Router, db *gorm.DB) {
	h := attendanceController.NewAttendanceController(db)
	r.Post("/attendance/scan", h.Scan)
}
