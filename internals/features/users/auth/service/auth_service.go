// internals/features/users/auth/service/auth_service.go
package service

import (
	"context"
	"errors"
	"log"
	"strings"

	googleAuthIDTokenVerifier "github.com/futurenda/google-auth-id-token-verifier"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"librarydesk_backend/internals/configs"
	"librarydesk_backend/internals/constants"
	libraryModel "librarydesk_backend/internals/features/libraries/libraries/model"
	"librarydesk_backend/internals/features/users/auth/dto"
	authHelper "librarydesk_backend/internals/features/users/auth/helper"
	authModel "librarydesk_backend/internals/features/users/auth/model"
	authRepo "librarydesk_backend/internals/features/users/auth/repository"
	helper "librarydesk_backend/internals/helpers"
	"librarydesk_backend/internals/helpers/apperror"
	helperAuth "librarydesk_backend/internals/helpers/auth"
	"librarydesk_backend/internals/helpers/dbtime"
)

/* ==========================
   REGISTER
========================== */

// Register creates a library and its owner in one transaction, then signs the owner in.
func Register(db *gorm.DB, c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := helper.BindJSON(c, &req); err != nil {
		return err
	}
	req.Email = authHelper.NormalizeEmail(req.Email)
	if err := authHelper.ValidatePassword(req.Password); err != nil {
		return err
	}

	user := authModel.UserModel{
		UserName:     strings.TrimSpace(req.Name),
		UserEmail:    req.Email,
		UserPhone:    req.Phone,
		UserRole:     constants.RoleOwner,
		UserIsActive: true,
	}
	if err := user.SetPassword(req.Password); err != nil {
		return apperror.OperationFailed(err, "failed to hash password")
	}

	lib, err := CreateLibraryWithOwner(c.Context(), db, req.LibraryName, req.LibraryTimezone, &user)
	if err != nil {
		return err
	}
	log.Printf("[INFO] library %s registered by %s", lib.LibrarySlug, user.UserEmail)

	resp, err := issueSession(c, user, *lib)
	if err != nil {
		return err
	}
	return helper.JsonCreated(c, "registration successful", resp)
}

// CreateLibraryWithOwner stores the tenant and its first user together. user gets its library id set.
func CreateLibraryWithOwner(ctx context.Context, db *gorm.DB, name, tz string, user *authModel.UserModel) (*libraryModel.LibraryModel, error) {
	if _, err := authRepo.FindUserByEmail(ctx, db, user.UserEmail); err == nil {
		return nil, apperror.Validation("email already registered", "email", "already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.FromDB(err, "user")
	}

	if strings.TrimSpace(tz) == "" {
		tz = dbtime.DefaultLocation().String()
	}
	lib := &libraryModel.LibraryModel{
		LibraryName:     strings.TrimSpace(name),
		LibraryTimezone: tz,
		LibraryEmail:    &user.UserEmail,
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		slug, err := helper.EnsureUniqueSlug(ctx, tx, "libraries", "library_slug", helper.Slugify(lib.LibraryName, 100), nil)
		if err != nil {
			return err
		}
		lib.LibrarySlug = slug
		if err := authRepo.CreateLibrary(ctx, tx, lib); err != nil {
			return err
		}
		user.UserLibraryID = lib.LibraryID
		return authRepo.CreateUser(ctx, tx, user)
	})
	if err != nil {
		return nil, apperror.FromDB(err, "library")
	}
	return lib, nil
}

/* ==========================
   LOGIN
========================== */

func Login(db *gorm.DB, c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := helper.BindJSON(c, &req); err != nil {
		return err
	}
	ctx := c.Context()

	user, err := authRepo.FindUserByEmail(ctx, db, authHelper.NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.Unauthorized("invalid email or password")
		}
		return apperror.FromDB(err, "user")
	}
	if !user.CheckPassword(req.Password) {
		return apperror.Unauthorized("invalid email or password")
	}
	return finishLogin(c, db, user)
}

// finishLogin is shared by password and Google sign-in.
func finishLogin(c *fiber.Ctx, db *gorm.DB, user *authModel.UserModel) error {
	ctx := c.Context()
	if !user.UserIsActive {
		return apperror.Forbidden("account is deactivated, contact the library owner")
	}
	lib, err := authRepo.FindLibraryByID(ctx, db, user.UserLibraryID)
	if err != nil {
		return apperror.FromDB(err, "library")
	}

	now := nowUTC()
	if err := authRepo.TouchLastLogin(ctx, db, user.UserID, now); err != nil {
		log.Printf("[WARN] touch last login %s: %v", user.UserID, err)
	}
	user.UserLastLogin = &now

	resp, err := issueSession(c, *user, *lib)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "login successful", resp)
}

/* ==========================
   LOGIN GOOGLE
========================== */

// LoginGoogle signs in by Google ID token. Unknown accounts are linked by email, or created as a new
// library owner when library_name is sent.
func LoginGoogle(db *gorm.DB, c *fiber.Ctx) error {
	var req dto.GoogleLoginRequest
	if err := helper.BindJSON(c, &req); err != nil {
		return err
	}
	ctx := c.Context()

	v := googleAuthIDTokenVerifier.Verifier{}
	if err := v.VerifyIDToken(req.IDToken, []string{configs.GoogleClientID}); err != nil {
		return apperror.Unauthorized("invalid Google ID token")
	}
	claimSet, err := googleAuthIDTokenVerifier.Decode(req.IDToken)
	if err != nil {
		return apperror.Unauthorized("invalid Google ID token")
	}
	email, name, googleID := authHelper.NormalizeEmail(claimSet.Email), claimSet.Name, claimSet.Sub

	if user, err := authRepo.FindUserByGoogleID(ctx, db, googleID); err == nil {
		return finishLogin(c, db, user)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.FromDB(err, "user")
	}

	if user, err := authRepo.FindUserByEmail(ctx, db, email); err == nil {
		if err := authRepo.LinkGoogleID(ctx, db, user.UserID, googleID); err != nil {
			return apperror.FromDB(err, "user")
		}
		return finishLogin(c, db, user)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.FromDB(err, "user")
	}

	if strings.TrimSpace(req.LibraryName) == "" {
		return apperror.Validation("no account for this Google user", "library_name", "is required to register a new library")
	}
	if strings.TrimSpace(name) == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	user := authModel.UserModel{
		UserName:     name,
		UserEmail:    email,
		UserGoogleID: &googleID,
		UserRole:     constants.RoleOwner,
		UserIsActive: true,
	}
	lib, err := CreateLibraryWithOwner(ctx, db, req.LibraryName, "", &user)
	if err != nil {
		return err
	}
	log.Printf("[INFO] library %s registered via Google by %s", lib.LibrarySlug, email)

	resp, err := issueSession(c, user, *lib)
	if err != nil {
		return err
	}
	return helper.JsonCreated(c, "registration successful", resp)
}

/* ==========================
   LOGOUT
========================== */

// Logout blacklists the current access token until it would have expired anyway.
func Logout(db *gorm.DB, c *fiber.Ctx) error {
	raw := helperAuth.GetRawAccessToken(c)
	if raw != "" {
		exp := nowUTC().Add(configs.JWTTTL)
		if _, tokExp, err := helperAuth.ParseAccessToken(configs.JWTSecret, raw); err == nil && !tokExp.IsZero() {
			exp = tokExp
		}
		if err := helperAuth.AddToBlacklist(c.Context(), db, raw, configs.JWTSecret, exp); err != nil {
			log.Printf("[WARN] failed to blacklist token: %v", err)
		}
	}
	clearAuthCookie(c)
	return helper.JsonOK(c, "logout successful", nil)
}

/* ==========================
   ME
========================== */

func Me(db *gorm.DB, c *fiber.Ctx) error {
	caller, err := helperAuth.GetCaller(c)
	if err != nil {
		return err
	}
	user, err := authRepo.FindUserByID(c.Context(), db, caller.UserID)
	if err != nil || user.UserLibraryID != caller.LibraryID {
		return apperror.NotFound("user")
	}
	lib, err := authRepo.FindLibraryByID(c.Context(), db, caller.LibraryID)
	if err != nil {
		return apperror.FromDB(err, "library")
	}
	return helper.JsonOK(c, "ok", fiber.Map{
		"user":    dto.ToUserResponse(*user),
		"library": dto.ToLibraryResponse(*lib),
	})
}
