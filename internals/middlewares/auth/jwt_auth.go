package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	helperAuth "librarydesk_backend/internals/helpers/auth"
	"librarydesk_backend/internals/helpers/dbtime"
)

type AuthJWTOpts struct {
	Secret              string
	BlacklistChecker    func(rawToken string) (bool, error) // true when revoked
	AllowCookieFallback bool                                // read the access_token cookie when no Bearer header
}

// AuthJWT verifies the access token and hydrates user_id, library_id, userRole and the library timezone.
func AuthJWT(o AuthJWTOpts) fiber.Handler {
	secret := strings.TrimSpace(o.Secret)
	if secret == "" {
		panic("AuthJWT: Secret is required")
	}

	return func(c *fiber.Ctx) error {
		raw := ""
		if authz := strings.TrimSpace(c.Get(fiber.HeaderAuthorization)); strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			raw = strings.TrimSpace(authz[7:])
		} else if o.AllowCookieFallback {
			raw = strings.TrimSpace(c.Cookies("access_token"))
		}
		if raw == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
		}

		if o.BlacklistChecker != nil {
			if black, err := o.BlacklistChecker(raw); err == nil && black {
				return fiber.NewError(fiber.StatusUnauthorized, "Token revoked")
			}
		}

		claims, _, err := helperAuth.ParseAccessToken(secret, raw)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
		}

		c.Locals(helperAuth.LocRawToken, raw)
		c.Locals(helperAuth.LocUserID, claims.UserID.String())
		c.Locals(helperAuth.LocLibraryID, claims.LibraryID.String())
		c.Locals(helperAuth.LocRole, claims.Role)
		c.Locals("user_name", claims.Name)
		if claims.Timezone != "" {
			c.Locals(dbtime.LocLibraryTimezone, claims.Timezone)
		}
		return c.Next()
	}
}
