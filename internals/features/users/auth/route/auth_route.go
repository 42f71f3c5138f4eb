package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	authController "librarydesk_backend/internals/features/users/auth/controller"
	rateLimiter "librarydesk_backend/internals/middlewares"
)

// AuthRoutes are public: register, login and logout.
func AuthRoutes(app fiber.Router, db *gorm.DB) {
	ac := authController.NewAuthController(db)

	auth := app.Group("/auth")
	auth.Post("/register", rateLimiter.RegisterRateLimiter(), ac.Register)
	auth.Post("/login", rateLimiter.LoginRateLimiter(), ac.Login)
	auth.Post("/google", rateLimiter.LoginRateLimiter(), ac.LoginGoogle)
	auth.Post("/logout", ac.Logout)
}

// MeRoutes sit behind AuthJWT.
func MeRoutes(r fiber.Router, db *gorm.DB) {
	ac := authController.NewAuthController(db)
	r.Get("/me", ac.Me)
	r.Post("/me/password", ac.ChangePassword)
}
