// internals/features/users/auth/repository/auth_repository.go
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	libraryModel "librarydesk_backend/internals/features/libraries/libraries/model"
	authModel "librarydesk_backend/internals/features/users/auth/model"
)

/* ====================== USER ====================== */

func FindUserByEmail(ctx context.Context, db *gorm.DB, email string) (*authModel.UserModel, error) {
	var user authModel.UserModel
	if err := db.WithContext(ctx).Where("LOWER(user_email) = LOWER(?)", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func FindUserByGoogleID(ctx context.Context, db *gorm.DB, googleID string) (*authModel.UserModel, error) {
	var user authModel.UserModel
	if err := db.WithContext(ctx).Where("user_google_id = ?", googleID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func FindUserByID(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*authModel.UserModel, error) {
	var user authModel.UserModel
	if err := db.WithContext(ctx).First(&user, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func CreateUser(ctx context.Context, db *gorm.DB, user *authModel.UserModel) error {
	return db.WithContext(ctx).Create(user).Error
}

func UpdateUserPassword(ctx context.Context, db *gorm.DB, userID uuid.UUID, hash string) error {
	return db.WithContext(ctx).Model(&authModel.UserModel{}).
		Where("user_id = ?", userID).
		Update("user_password", hash).Error
}

func LinkGoogleID(ctx context.Context, db *gorm.DB, userID uuid.UUID, googleID string) error {
	return db.WithContext(ctx).Model(&authModel.UserModel{}).
		Where("user_id = ? AND user_google_id IS NULL", userID).
		Update("user_google_id", googleID).Error
}

func TouchLastLogin(ctx context.Context, db *gorm.DB, userID uuid.UUID, at time.Time) error {
	return db.WithContext(ctx).Model(&authModel.UserModel{}).
		Where("user_id = ?", userID).
		UpdateColumn("user_last_login_at", at).Error
}

/* ====================== LIBRARY ====================== */

func FindLibraryByID(ctx context.Context, db *gorm.DB, libraryID uuid.UUID) (*libraryModel.LibraryModel, error) {
	var lib libraryModel.LibraryModel
	if err := db.WithContext(ctx).First(&lib, "library_id = ?", libraryID).Error; err != nil {
		return nil, err
	}
	return &lib, nil
}

func CreateLibrary(ctx context.Context, db *gorm.DB, lib *libraryModel.LibraryModel) error {
	return db.WithContext(ctx).Create(lib).Error
}
