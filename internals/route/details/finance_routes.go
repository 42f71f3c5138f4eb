package details

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	feeRoute "librarydesk_backend/internals/features/finance/fees/route"
	handoverRoute "librarydesk_backend/internals/features/finance/handovers/route"
	paymentRoute "librarydesk_backend/internals/features/finance/payments/route"
	"librarydesk_backend/internals/helpers/mail"
	helperOSS "librarydesk_backend/internals/helpers/oss"
)

// FinancePublicRoutes is the payment gateway webhook.
func FinancePublicRoutes(r fiber.Router, db *gorm.DB, mailer mail.Sender) {
	paymentRoute.PaymentPublicRoutes(r, db, mailer)
}

// FinanceAdminRoutes covers fees, payments and staff cash handovers.
func FinanceAdminRoutes(r fiber.Router, db *gorm.DB, blob helperOSS.BlobService, mailer mail.Sender) {
	feeRoute.FeeRoutes(r, db)
	paymentRoute.PaymentRoutes(r, db, blob, mailer)
	handoverRoute.HandoverRoutes(r, db, blob)
}
