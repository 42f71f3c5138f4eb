// internals/features/users/auth/service/password_service.go
package service

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"librarydesk_backend/internals/features/users/auth/dto"
	authHelper "librarydesk_backend/internals/features/users/auth/helper"
	authModel "librarydesk_backend/internals/features/users/auth/model"
	authRepo "librarydesk_backend/internals/features/users/auth/repository"
	helper "librarydesk_backend/internals/helpers"
	"librarydesk_backend/internals/helpers/apperror"
	helperAuth "librarydesk_backend/internals/helpers/auth"
)

func ChangePassword(db *gorm.DB, c *fiber.Ctx) error {
	userID, err := helperAuth.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	var req dto.ChangePasswordRequest
	if err := helper.BindJSON(c, &req); err != nil {
		return err
	}
	if err := authHelper.ValidatePassword(req.NewPassword); err != nil {
		return err
	}

	user, err := authRepo.FindUserByID(c.Context(), db, userID)
	if err != nil {
		return apperror.FromDB(err, "user")
	}
	// Google-only accounts have no password yet and may set one directly.
	if user.UserPassword != "" && !user.CheckPassword(req.CurrentPassword) {
		return apperror.Validation("current password is incorrect", "current_password", "is incorrect")
	}

	var next authModel.UserModel
	if err := next.SetPassword(req.NewPassword); err != nil {
		return apperror.OperationFailed(err, "failed to hash password")
	}
	if err := authRepo.UpdateUserPassword(c.Context(), db, userID, next.UserPassword); err != nil {
		return apperror.FromDB(err, "user")
	}
	return helper.JsonUpdated(c, "password changed", nil)
}
