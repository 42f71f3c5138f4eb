// internals/features/users/staff/controller/staff_controller.go
package controller

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	authDTO "librarydesk_backend/internals/features/users/auth/dto"
	authHelper "librarydesk_backend/internals/features/users/auth/helper"
	authModel "librarydesk_backend/internals/features/users/auth/model"
	"librarydesk_backend/internals/features/users/staff/dto"
	helper "librarydesk_backend/internals/helpers"
	"librarydesk_backend/internals/helpers/apperror"
	helperAuth "librarydesk_backend/internals/helpers/auth"
)

type StaffController struct {
	DB *gorm.DB
}

func NewStaffController(db *gorm.DB) *StaffController {
	return &StaffController{DB: db}
}

// =========================================================
// LIST - GET /api/a/staff?search=&active=
// =========================================================
func (h *StaffController) List(c *fiber.Ctx) error {
	libraryID, err := helperAuth.GetLibraryIDFromToken(c)
	if err != nil {
		return err
	}
	p := helper.ParseFiber(c, "name", "asc", helper.DefaultOpts)
	order, _ := p.SafeOrderClause(map[string]string{
		"name":       "user_name",
		"created_at": "user_created_at",
		"last_login": "user_last_login_at",
	}, "name")

	q := h.DB.WithContext(c.Context()).Model(&authModel.UserModel{}).Where("user_library_id = ?", libraryID)
	if s := strings.TrimSpace(c.Query("search")); s != "" {
		like := helper.LikePattern(s)
		q = q.Where("(user_name ILIKE ? OR user_email ILIKE ?)", like, like)
	}
	switch strings.ToLower(c.Query("active")) {
	case "true", "1":
		q = q.Where("user_is_active = TRUE")
	case "false", "0":
		q = q.Where("user_is_active = FALSE")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return apperror.FromDB(err, "staff")
	}
	var rows []authModel.UserModel
	if err := q.Order(order).Limit(p.Limit()).Offset(p.Offset()).Find(&rows).Error; err != nil {
		return apperror.FromDB(err, "staff")
	}
	return helper.JsonList(c, "ok", dto.ToStaffResponses(rows), helper.BuildPagination(total, p, len(rows)))
}

// =========================================================
// CREATE - POST /api/a/staff
// =========================================================
func (h *StaffController) Create(c *fiber.Ctx) error {
	libraryID, err := helperAuth.GetLibraryIDFromToken(c)
	if err != nil {
		return err
	}
	var req dto.StaffCreateRequest
	if err := helper.BindJSON(c, &req); err != nil {
		return err
	}
	req.Normalize()
	if err := authHelper.ValidatePassword(req.Password); err != nil {
		return err
	}

	u := authModel.UserModel{
		UserLibraryID: libraryID,
		UserName:      req.Name,
		UserEmail:     req.Email,
		UserPhone:     req.Phone,
		UserRole:      req.Role,
		UserIsActive:  true,
	}
	if err := u.SetPassword(req.Password); err != nil {
		return apperror.OperationFailed(err, "failed to hash password")
	}
	if err := h.DB.WithContext(c.Context()).Create(&u).Error; err != nil {
		return apperror.FromDB(err, "staff")
	}
	return helper.JsonCreated(c, "staff created", authDTO.ToUserResponse(u))
}

// =========================================================
// PATCH - PATCH /api/a/staff/:id
// =========================================================
func (h *StaffController) Patch(c *fiber.Ctx) error {
	caller, err := helperAuth.GetCaller(c)
	if err != nil {
		return err
	}
	id, err := helper.ParamUUID(c, "id", "staff")
	if err != nil {
		return err
	}
	var req dto.StaffPatchRequest
	if err := helper.BindJSON(c, &req); err != nil {
		return err
	}

	var u authModel.UserModel
	if err := h.DB.WithContext(c.Context()).
		First(&u, "user_id = ? AND user_library_id = ?", id, caller.LibraryID).Error; err != nil {
		return apperror.FromDB(err, "staff")
	}

	// Owners cannot lock themselves out.
	if u.UserID == caller.UserID {
		if req.IsActive != nil && !*req.IsActive {
			return apperror.Validation("cannot deactivate yourself", "is_active", "cannot deactivate yourself")
		}
		if req.Role != nil && *req.Role != u.UserRole {
			return apperror.Validation("cannot change your own role", "role", "cannot change your own role")
		}
	}

	req.ApplyToModel(&u)
	if req.Password != nil {
		if err := authHelper.ValidatePassword(*req.Password); err != nil {
			return err
		}
		if err := u.SetPassword(*req.Password); err != nil {
			return apperror.OperationFailed(err, "failed to hash password")
		}
	}
	if err := h.DB.WithContext(c.Context()).Save(&u).Error; err != nil {
		return apperror.FromDB(err, "staff")
	}
	return helper.JsonUpdated(c, "staff updated", authDTO.ToUserResponse(u))
}
