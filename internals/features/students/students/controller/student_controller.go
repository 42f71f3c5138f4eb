// internals/features/students/students/controller/student_controller.go
package controller

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	branchRepo "librarydesk_backend/internals/features/libraries/branches/repository"
	"librarydesk_backend/internals/features/students/status"
	"librarydesk_backend/internals/features/students/students/dto"
	"librarydesk_backend/internals/features/students/students/model"
	studentRepo "librarydesk_backend/internals/features/students/students/repository"
	"librarydesk_backend/internals/features/students/students/service"
	helper "librarydesk_backend/internals/helpers"
	"librarydesk_backend/internals/helpers/apperror"
	helperAuth "librarydesk_backend/internals/helpers/auth"
	"librarydesk_backend/internals/helpers/dbtime"
	helperOSS "librarydesk_backend/internals/helpers/oss"
)

type StudentController struct {
	DB   *gorm.DB
	Repo *studentRepo.GormRepository
	Svc  *service.Service
	Blob helperOSS.BlobService
}

func NewStudentController(db *gorm.DB, blob helperOSS.BlobService) *StudentController {
	repo := studentRepo.NewGormRepository(db)
	return &StudentController{DB: db, Repo: repo, Svc: service.New(repo), Blob: blob}
}

func (h *StudentController) ensureBranch(c *fiber.Ctx, libraryID uuid.UUID, branchID *uuid.UUID) error {
	if branchID == nil {
		return nil
	}
	if _, err := branchRepo.FindBranch(c.Context(), h.DB, libraryID, *branchID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.Validation("unknown branch", "branch_id", "does not exist")
		}
		return apperror.FromDB(err, "branch")
	}
	return nil
}

// =========================================================
// LIST - GET /api/a/students?search=&branch_id=&status=&page=&limit=
// =========================================================
func (h *StudentController) List(c *fiber.Ctx) error {
	libraryID, err := helperAuth.GetLibraryIDFromToken(c)
	if err != nil {
		return err
	}
	var q dto.ListQuery
	if err := helper.BindQuery(c, &q); err != nil {
		return err
	}
	p := helper.ParseFiber(c, "created_at", "desc", helper.DefaultOpts)

	f := status.Filter{LibraryID: libraryID, Search: q.Search, Status: status.Status(q.Status)}
	if f.BranchID, err = helper.OptionalUUID(q.BranchID, "branch_id"); err != nil {
		return err
	}
	loc := dbtime.GetLibraryLocation(c)
	if q.CreatedFrom != "" {
		from, err := dbtime.ParseDate(q.CreatedFrom, loc)
		if err != nil {
			return apperror.Validation(err.Error(), "created_from", "must be YYYY-MM-DD")
		}
		f.CreatedFrom = &from
	}
	if q.CreatedTo != "" {
		to, err := dbtime.ParseDate(q.CreatedTo, loc)
		if err != nil {
			return apperror.Validation(err.Error(), "created_to", "must be YYYY-MM-DD")
		}
		to = to.AddDate(0, 0, 1)
		f.CreatedTo = &to
	}

	res, err := h.Svc.List(c.Context(), f, p.Page, p.PerPage)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "ok", res)
}

// =========================================================
// GET - GET /api/a/students/:id
// =========================================================
func (h *StudentController) Get(c *fiber.Ctx) error {
	libraryID, err := helperAuth.GetLibraryIDFromToken(c)
	if err != nil {
		return err
	}
	id, err := helper.ParamUUID(c, "id", "student")
	if err != nil {
		return err
	}
	d, err := h.Svc.Detail(c.Context(), libraryID, id)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "ok", d)
}

// =========================================================
// CREATE - POST /api/a/students
// =========================================================
func (h *StudentController) Create(c *fiber.Ctx) error {
	libraryID, err := helperAuth.GetLibraryIDFromToken(c)
	if err != nil {
		return err
	}
	var req dto.StudentCreateRequest
	if err := helper.BindJSON(c, &req); err != nil {
		return err
	}
	req.Normalize()
	if err := req.Check(); err != nil {
		return err
	}
	if err := h.ensureBranch(c, libraryID, req.BranchID); err != nil {
		return err
	}
	m, err := req.ToModel(libraryID)
	if err != nil {
		return err
	}
	if err := h.DB.WithContext(c.Context()).Create(m).Error; err != nil {
		return apperror.FromDB(err, "student")
	}
	return helper.JsonCreated(c, "student created", m)
}

// =========================================================
// PATCH - PATCH /api/a/students/:id
// =========================================================
func (h *StudentController) Patch(c *fiber.Ctx) error {
	libraryID, err := helperAuth.GetLibraryIDFromToken(c)
	if err != nil {
		return err
	}
	id, err := helper.ParamUUID(c, "id", "student")
	if err != nil {
		return err
	}
	var req dto.StudentPatchRequest
	if err := helper.BindJSON(c, &req); err != nil {
		return err
	}
	if err := h.ensureBranch(c, libraryID, req.BranchID); err != nil {
		return err
	}

	m, err := h.Repo.FindOwned(c.Context(), libraryID, id)
	if err != nil {
		return apperror.FromDB(err, "student")
	}
	if err := req.ApplyToModel(m); err != nil {
		return err
	}
	if err := h.DB.WithContext(c.Context()).Save(m).Error; err != nil {
		return apperror.FromDB(err, "student")
	}
	return helper.JsonUpdated(c, "student updated", m)
}

// =========================================================
// DELETE - DELETE /api/a/students/:id (owner)
// Cascades subscriptions, fees, notes and attendance. Students with payments are blocked instead.
// =========================================================
func (h *StudentController) Delete(c *fiber.Ctx) error {
	libraryID, err := helperAuth.GetLibraryIDFromToken(c)
	if err != nil {
		return err
	}
	id, err := helper.ParamUUID(c, "id", "student")
	if err != nil {
		return err
	}
	purged, err := h.Svc.Delete(c.Context(), libraryID, id)
	if err != nil {
		return err
	}
	return helper.JsonDeleted(c, "student deleted", fiber.Map{"student_id": id, "removed": purged})
}

// =========================================================
// BLOCK / UNBLOCK - POST /api/a/students/:id/block | /unblock
// =========================================================
func (h *StudentController) Block(c *fiber.Ctx) error {
	var req dto.BlockRequest
	if err := helper.BindJSON(c, &req); err != nil {
		return err
	}
	reason := strings.TrimSpace(req.Reason)
	return h.setBlocked(c, true, &reason)
}

func (h *StudentController) Unblock(c *fiber.Ctx) error {
	return h.setBlocked(c, false, nil)
}

func (h *StudentController) setBlocked(c *fiber.Ctx, blocked bool, reason *string) error {
	libraryID, err := helperAuth.GetLibraryIDFromToken(c)
	if err != nil {
		return err
	}
	id, err := helper.ParamUUID(c, "id", "student")
	if err != nil {
		return err
	}
	res := h.DB.WithContext(c.Context()).Model(&model.StudentModel{}).
		Where("student_id = ? AND student_library_id = ?", id, libraryID).
		Updates(map[string]any{
			"student_is_blocked":     blocked,
			"student_blocked_reason": reason,
			"student_updated_at":     time.Now(),
		})
	if res.Error != nil {
		return apperror.FromDB(res.Error, "student")
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("student")
	}
	d, err := h.Svc.Detail(c.Context(), libraryID, id)
	if err != nil {
		return err
	}
	msg := "student unblocked"
	if blocked {
		msg = "student blocked"
	}
	return helper.JsonUpdated(c, msg, d)
}

// =========================================================
// ID DOCUMENT - POST /api/a/students/:id/id-document (multipart: document)
// =========================================================
func (h *StudentController) UploadIDDocument(c *fiber.Ctx) error {
	libraryID, err := helperAuth.GetLibraryIDFromToken(c)
	if err != nil {
		return err
	}
	id, err := helper.ParamUUID(c, "id", "student")
	if err != nil {
		return err
	}
	ctx := c.Context()
	m, err := h.Repo.FindOwned(ctx, libraryID, id)
	if err != nil {
		return apperror.FromDB(err, "student")
	}
	if m.StudentIDStatus == model.IDVerificationVerified {
		return apperror.Conflict("ID is already verified")
	}

	fh, err := helperOSS.GetUploadFile(c, "document", "file")
	if err != nil {
		return err
	}
	url, err := h.Blob.UploadAny(ctx, libraryID, helperOSS.SlotIDDocument, fh)
	if err != nil {
		return err
	}
	old := m.StudentIDDocumentURL

	m.StudentIDDocumentURL = &url
	m.StudentIDStatus = model.IDVerificationPending
	m.StudentIDVerifiedBy = nil
	m.StudentIDVerifiedAt = nil
	if err := h.DB.WithContext(ctx).Save(m).Error; err != nil {
		_ = h.Blob.DeleteByPublicURL(ctx, url)
		return apperror.FromDB(err, "student")
	}
	if old != nil && *old != url {
		_ = h.Blob.DeleteByPublicURL(ctx, *old)
	}
	return helper.JsonUpdated(c, "ID document uploaded", m)
}

// =========================================================
// VERIFY ID - POST /api/a/students/:id/verify-id
// pending -> verified | rejected
// =========================================================
func (h *StudentController) VerifyID(c *fiber.Ctx) error {
	caller, err := helperAuth.GetCaller(c)
	if err != nil {
		return err
	}
	id, err := helper.ParamUUID(c, "id", "student")
	if err != nil {
		return err
	}
	var req dto.VerifyIDRequest
	if err := helper.BindJSON(c, &req); err != nil {
		return err
	}

	next := model.IDVerificationRejected
	if req.Approve {
		next = model.IDVerificationVerified
	}
	now := time.Now()
	res := h.DB.WithContext(c.Context()).Model(&model.StudentModel{}).
		Where("student_id = ? AND student_library_id = ? AND student_id_verification_status = ?",
			id, caller.LibraryID, model.IDVerificationPending).
		Updates(map[string]any{
			"student_id_verification_status": next,
			"student_id_verified_by":         caller.UserID,
			"student_id_verified_at":         now,
			"student_updated_at":             now,
		})
	if res.Error != nil {
		return apperror.FromDB(res.Error, "student")
	}
	if res.RowsAffected == 0 {
		if _, err := h.Repo.FindOwned(c.Context(), caller.LibraryID, id); err != nil {
			return apperror.FromDB(err, "student")
		}
		return apperror.InvalidTransition("no ID document is awaiting verification")
	}
	m, err := h.Repo.FindOwned(c.Context(), caller.LibraryID, id)
	if err != nil {
		return apperror.FromDB(err, "student")
	}
	return helper.JsonUpdated(c, "ID "+string(next), m)
}
