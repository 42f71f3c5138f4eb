// file: internals/route/index.go
package routes

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"librarydesk_backend/internals/configs"
	helperAuth "librarydesk_backend/internals/helpers/auth"
	"librarydesk_backend/internals/helpers/mail"
	helperOSS "librarydesk_backend/internals/helpers/oss"
	authMiddleware "librarydesk_backend/internals/middlewares/auth"
	routeDetails "librarydesk_backend/internals/route/details"
)

var startTime time.Time

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	startTime = time.Now()
	BaseRoutes(app, db)

	secret := configs.GetEnv("JWT_SECRET")
	blob := helperOSS.NewBlobServiceFromEnv("librarydesk")
	mailer := mail.NewFromEnv()

	// ===================== AUTH =====================
	log.Println("[INFO] Setting up AuthRoutes...")
	routeDetails.AuthRoutes(app.Group("/api"), db)

	// ===================== PUBLIC (kiosk, webhooks) =====================
	log.Println("[INFO] Setting up PUBLIC group...")
	public := app.Group("/api/public")

	// ===================== DESK (owner + staff) =====================
	log.Println("[INFO] Setting up DESK group (Auth + blacklist)...")
	admin := app.Group("/api/a",
		authMiddleware.AuthJWT(authMiddleware.AuthJWTOpts{
			Secret:              secret,
			BlacklistChecker:    helperAuth.BlacklistChecker(db, secret),
			AllowCookieFallback: true,
		}),
	)

	// ===================== MOUNT ROUTES =====================
	log.Println("[INFO] Mounting Account routes...")
	routeDetails.AccountAdminRoutes(admin, db)

	log.Println("[INFO] Mounting Library routes...")
	routeDetails.LibraryAdminRoutes(admin, db)

	log.Println("[INFO] Mounting Student routes...")
	routeDetails.StudentPublicRoutes(public, db)
	routeDetails.StudentAdminRoutes(admin, db, blob)

	log.Println("[INFO] Mounting Finance routes...")
	routeDetails.FinancePublicRoutes(public, db, mailer)
	routeDetails.FinanceAdminRoutes(admin, db, blob, mailer)
}
