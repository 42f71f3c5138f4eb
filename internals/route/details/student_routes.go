package details

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	attendanceRoute "librarydesk_backend/internals/features/attendance/attendance/route"
	studentRoute "librarydesk_backend/internals/features/students/students/route"
	subscriptionRoute "librarydesk_backend/internals/features/subscriptions/subscriptions/route"
	helperOSS "librarydesk_backend/internals/helpers/oss"
	rateLimiter "librarydesk_backend/internals/middlewares"
)

// StudentPublicRoutes is the kiosk QR scan.
func StudentPublicRoutes(r fiber.Router, db *gorm.DB) {
	attendanceRoute.AttendancePublicRoutes(r.Group("", rateLimiter.KioskRateLimiter()), db)
}

// StudentAdminRoutes covers students, their subscriptions and attendance.
func StudentAdminRoutes(r fiber.Router, db *gorm.DB, blob helperOSS.BlobService) {
	studentRoute.StudentRoutes(r, db, blob)
	subscriptionRoute.SubscriptionRoutes(r, db)
	attendanceRoute.AttendanceRoutes(r, db)
}
