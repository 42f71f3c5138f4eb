// internals/features/libraries/branches/controller/branch_controller.go
package controller

import (
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"librarydesk_backend/internals/features/libraries/branches/dto"
	"librarydesk_backend/internals/features/libraries/branches/model"
	branchRepo "librarydesk_backend/internals/features/libraries/branches/repository"
	helper "librarydesk_backend/internals/helpers"
	"librarydesk_backend/internals/helpers/apperror"
	helperAuth "librarydesk_backend/internals/helpers/auth"
	"librarydesk_backend/internals/helpers/dbtime"
)

type BranchController struct {
	DB *gorm.DB
}

func NewBranchController(db *gorm.DB) *BranchController {
	return &BranchController{DB: db}
}

func slugScope(libraryID uuid.UUID, exclude *uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		q = q.Where("branch_library_id = ? AND branch_deleted_at IS NULL", libraryID)
		if exclude != nil {
			q = q.Where("branch_id <> ?", *exclude)
		}
		return q
	}
}

// =========================================================
// LIST - GET /api/a/branches?active=
// =========================================================
func (h *BranchController) List(c *fiber.Ctx) error {
	caller, err := helperAuth.GetCaller(c)
	if err != nil {
		return err
	}
	ctx := c.Context()

	q := h.DB.WithContext(ctx).Where("branch_library_id = ?", caller.LibraryID)
	if strings.EqualFold(c.Query("active"), "true") {
		q = q.Where("branch_is_active = TRUE")
	}
	var rows []model.BranchModel
	if err := q.Order("branch_name ASC").Find(&rows).Error; err != nil {
		return apperror.FromDB(err, "branch")
	}

	now := time.Now()
	stats, err := branchRepo.SeatStatsByBranch(ctx, h.DB, caller.LibraryID, now)
	if err != nil {
		return apperror.FromDB(err, "branch")
	}
	local := dbtime.NowInLibrary(c)
	out := make([]dto.BranchResponse, 0, len(rows))
	for _, b := range rows {
		r := dto.ToBranchResponse(b, local, caller.IsOwner())
		r.SeatCount = stats[b.BranchID].Seats
		r.OccupiedSeats = stats[b.BranchID].Occupied
		out = append(out, r)
	}
	return helper.JsonOK(c, "ok", out)
}

// =========================================================
// GET - GET /api/a/branches/:id
// =========================================================
func (h *BranchController) Get(c *fiber.Ctx) error {
	caller, err := helperAuth.GetCaller(c)
	if err != nil {
		return err
	}
	id, err := helper.ParamUUID(c, "id", "branch")
	if err != nil {
		return err
	}
	b, err := branchRepo.FindBranch(c.Context(), h.DB, caller.LibraryID, id)
	if err != nil {
		return apperror.FromDB(err, "branch")
	}
	stats, err := branchRepo.SeatStatsByBranch(c.Context(), h.DB, caller.LibraryID, time.Now())
	if err != nil {
		return apperror.FromDB(err, "branch")
	}
	r := dto.ToBranchResponse(*b, dbtime.NowInLibrary(c), caller.IsOwner())
	r.SeatCount = stats[b.BranchID].Seats
	r.OccupiedSeats = stats[b.BranchID].Occupied
	return helper.JsonOK(c, "ok", r)
}

// =========================================================
// CREATE - POST /api/a/branches (owner)
// =========================================================
func (h *BranchController) Create(c *fiber.Ctx) error {
	libraryID, err := helperAuth.GetLibraryIDFromToken(c)
	if err != nil {
		return err
	}
	var req dto.BranchCreateRequest
	if err := helper.BindJSON(c, &req); err != nil {
		return err
	}
	req.Normalize()
	if err := dto.ValidateHours(req.Hours); err != nil {
		return err
	}

	base := req.Name
	if req.Slug != nil && strings.TrimSpace(*req.Slug) != "" {
		base = *req.Slug
	}
	ctx := c.Context()
	slug, err := helper.EnsureUniqueSlug(ctx, h.DB, "branches", "branch_slug", helper.Slugify(base, 120), slugScope(libraryID, nil))
	if err != nil {
		return apperror.OperationFailed(err, "failed to generate slug")
	}

	m := req.ToModel(libraryID, slug, branchRepo.NewQRToken())
	if err := h.DB.WithContext(ctx).Create(m).Error; err != nil {
		return apperror.FromDB(err, "branch")
	}
	return helper.JsonCreated(c, "branch created", dto.ToBranchResponse(*m, dbtime.NowInLibrary(c), true))
}

// =========================================================
// PATCH - PATCH /api/a/branches/:id (owner)
// =========================================================
func (h *BranchController) Patch(c *fiber.Ctx) error {
	libraryID, err := helperAuth.GetLibraryIDFromToken(c)
	if err != nil {
		return err
	}
	id, err := helper.ParamUUID(c, "id", "branch")
	if err != nil {
		return err
	}
	var req dto.BranchPatchRequest
	if err := helper.BindJSON(c, &req); err != nil {
		return err
	}
	req.Normalize()
	if req.Hours != nil {
		if err := dto.ValidateHours(*req.Hours); err != nil {
			return err
		}
	}

	ctx := c.Context()
	b, err := branchRepo.FindBranch(ctx, h.DB, libraryID, id)
	if err != nil {
		return apperror.FromDB(err, "branch")
	}
	if req.Name != nil && *req.Name != b.BranchName {
		slug, err := helper.EnsureUniqueSlug(ctx, h.DB, "branches", "branch_slug", helper.Slugify(*req.Name, 120), slugScope(libraryID, &b.BranchID))
		if err != nil {
			return apperror.OperationFailed(err, "failed to generate slug")
		}
		b.BranchSlug = slug
	}
	req.ApplyToModel(b)

	if err := h.DB.WithContext(ctx).Save(b).Error; err != nil {
		return apperror.FromDB(err, "branch")
	}
	return helper.JsonUpdated(c, "branch updated", dto.ToBranchResponse(*b, dbtime.NowInLibrary(c), true))
}

// =========================================================
// DELETE (soft) - DELETE /api/a/branches/:id (owner)
// =========================================================
func (h *BranchController) Delete(c *fiber.Ctx) error {
	libraryID, err := helperAuth.GetLibraryIDFromToken(c)
	if err != nil {
		return err
	}
	id, err := helper.ParamUUID(c, "id", "branch")
	if err != nil {
		return err
	}
	ctx := c.Context()
	b, err := branchRepo.FindBranch(ctx, h.DB, libraryID, id)
	if err != nil {
		return apperror.FromDB(err, "branch")
	}
	busy, err := branchRepo.HasLiveSubscriptions(ctx, h.DB, b.BranchID, time.Now())
	if err != nil {
		return apperror.FromDB(err, "branch")
	}
	if busy {
		return apperror.Conflict("branch still has running subscriptions")
	}
	if err := h.DB.WithContext(ctx).Delete(b).Error; err != nil {
		return apperror.FromDB(err, "branch")
	}
	return helper.JsonDeleted(c, "branch deleted", fiber.Map{"branch_id": b.BranchID})
}

// =========================================================
// ROTATE QR - POST /api/a/branches/:id/qr/rotate (owner)
// Old printed codes stop working immediately.
// =========================================================
func (h *BranchController) RotateQR(c *fiber.Ctx) error {
	libraryID, err := helperAuth.GetLibraryIDFromToken(c)
	if err != nil {
		return err
	}
	id, err := helper.ParamUUID(c, "id", "branch")
	if err != nil {
		return err
	}
	ctx := c.Context()
	b, err := branchRepo.FindBranch(ctx, h.DB, libraryID, id)
	if err != nil {
		return apperror.FromDB(err, "branch")
	}

	now := time.Now().UTC()
	b.BranchQRToken = branchRepo.NewQRToken()
	b.BranchQRRotated = &now
	if err := h.DB.WithContext(ctx).Model(b).Updates(map[string]any{
		"branch_qr_token":      b.BranchQRToken,
		"branch_qr_rotated_at": now,
	}).Error; err != nil {
		return apperror.FromDB(err, "branch")
	}
	log.Printf("[INFO] branch %s QR rotated", b.BranchID)
	return helper.JsonUpdated(c, "QR code rotated", fiber.Map{
		"branch_id":            b.BranchID,
		"branch_qr_token":      b.BranchQRToken,
		"branch_qr_rotated_at": now,
	})
}
