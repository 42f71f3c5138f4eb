// internals/features/users/auth/service/token_service.go
package service

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"librarydesk_backend/internals/configs"
	libraryModel "librarydesk_backend/internals/features/libraries/libraries/model"
	"librarydesk_backend/internals/features/users/auth/dto"
	authModel "librarydesk_backend/internals/features/users/auth/model"
	"librarydesk_backend/internals/helpers/apperror"
	helperAuth "librarydesk_backend/internals/helpers/auth"
)

const accessCookie = "access_token"

func nowUTC() time.Time { return time.Now().UTC() }

// issueSession signs the access token, drops it in a cookie and builds the login payload.
func issueSession(c *fiber.Ctx, user authModel.UserModel, lib libraryModel.LibraryModel) (dto.AuthResponse, error) {
	now := nowUTC()
	token, exp, err := helperAuth.IssueAccessToken(configs.JWTSecret, configs.JWTTTL, helperAuth.AccessClaims{
		UserID:    user.UserID,
		LibraryID: lib.LibraryID,
		Role:      user.UserRole,
		Name:      user.UserName,
		Timezone:  lib.LibraryTimezone,
	}, now)
	if err != nil {
		return dto.AuthResponse{}, apperror.OperationFailed(err, "failed to issue token")
	}
	setAuthCookie(c, token, exp)

	return dto.AuthResponse{
		AccessToken: token,
		ExpiresAt:   exp,
		User:        dto.ToUserResponse(user),
		Library:     dto.ToLibraryResponse(lib),
	}, nil
}

func setAuthCookie(c *fiber.Ctx, token string, exp time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     accessCookie,
		Value:    token,
		HTTPOnly: true,
		Secure:   configs.IsProduction(),
		SameSite: "Lax",
		Path:     "/",
		Expires:  exp,
	})
}

func clearAuthCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     accessCookie,
		Value:    "",
		HTTPOnly: true,
		Secure:   configs.IsProduction(),
		SameSite: "Lax",
		Path:     "/",
		Expires:  nowUTC().Add(-time.Hour),
		MaxAge:   -1,
	})
}
