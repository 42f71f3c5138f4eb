// internals/features/finance/handovers/controller/handover_controller.go
package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"

	"librarydesk_backend/internals/features/finance/handovers/dto"
	"librarydesk_backend/internals/features/finance/handovers/repository"
	"librarydesk_backend/internals/features/finance/handovers/service"
	helper "librarydesk_backend/internals/helpers"
	"librarydesk_backend/internals/helpers/apperror"
	helperAuth "librarydesk_backend/internals/helpers/auth"
	"librarydesk_backend/internals/helpers/dbtime"
	helperOSS "librarydesk_backend/internals/helpers/oss"
)

type HandoverController struct {
	DB   *gorm.DB
	Repo *repository.GormRepository
	Svc  *service.Service
	Blob helperOSS.BlobService
}

func NewHandoverController(db *gorm.DB, blob helperOSS.BlobService) *HandoverController {
	repo := repository.NewGormRepository(db)
	return &HandoverController{DB: db, Repo: repo, Svc: service.New(repo), Blob: blob}
}

func actor(c *fiber.Ctx) (service.Actor, helperAuth.Caller, error) {
	caller, err := helperAuth.GetCaller(c)
	if err != nil {
		return service.Actor{}, caller, err
	}
	return service.Actor{UserID: caller.UserID, LibraryID: caller.LibraryID, Loc: dbtime.GetLibraryLocation(c)}, caller, nil
}

// staffFor picks whose book to read. Staff always get their own; owners may pass ?staff_id.
func staffFor(caller helperAuth.Caller, q dto.PeriodQuery) uuid.UUID {
	if caller.IsOwner() && q.StaffID != "" {
		if id, err := uuid.Parse(q.StaffID); err == nil {
			return id
		}
	}
	return caller.UserID
}

// GET /api/a/handovers/summary?month=YYYY-MM&staff_id=
func (h *HandoverController) Summary(c *fiber.Ctx) error {
	a, caller, err := actor(c)
	if err != nil {
		return err
	}
	var q dto.PeriodQuery
	if err := helper.BindQuery(c, &q); err != nil {
		return err
	}
	res, err := h.Svc.Summary(c.Context(), a, staffFor(caller, q), q.Month)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "ok", res)
}

// GET /api/a/handovers/transactions?month=YYYY-MM&staff_id=
func (h *HandoverController) Transactions(c *fiber.Ctx) error {
	a, caller, err := actor(c)
	if err != nil {
		return err
	}
	var q dto.PeriodQuery
	if err := helper.BindQuery(c, &q); err != nil {
		return err
	}
	res, err := h.Svc.Transactions(c.Context(), a, staffFor(caller, q), q.Month)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "ok", res)
}

// list resolves the shared filters of LIST and EXPORT. Owners without staff_id see everyone.
func (h *HandoverController) list(c *fiber.Ctx, limit, offset int) ([]dto.HandoverRow, int64, error) {
	a, caller, err := actor(c)
	if err != nil {
		return nil, 0, err
	}
	var q dto.ListQuery
	if err := helper.BindQuery(c, &q); err != nil {
		return nil, 0, err
	}
	start, end, err := dbtime.ParseMonth(q.Month, dbtime.NowInLibrary(c), a.Loc)
	if err != nil {
		return nil, 0, apperror.Validation(err.Error(), "month", "must be YYYY-MM")
	}
	var staff *uuid.UUID
	if !caller.IsOwner() || q.StaffID != "" {
		id := staffFor(caller, q.PeriodQuery)
		staff = &id
	}
	rows, total, err := h.Repo.List(c.Context(), a.LibraryID, staff, q.Status, start, end, limit, offset)
	if err != nil {
		return nil, 0, apperror.FromDB(err, "handover")
	}
	if rows == nil {
		rows = []dto.HandoverRow{}
	}
	return rows, total, nil
}

// =========================================================
// LIST - GET /api/a/handovers?month=&staff_id=&status=
// =========================================================
func (h *HandoverController) List(c *fiber.Ctx) error {
	p := helper.ParseFiber(c, "created_at", "desc", helper.DefaultOpts)
	rows, total, err := h.list(c, p.Limit(), p.Offset())
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "ok", fiber.Map{
		"handovers": rows,
		"total":     total,
		"page":      p.Page,
		"limit":     p.PerPage,
	})
}

// POST /api/a/handovers
func (h *HandoverController) Submit(c *fiber.Ctx) error {
	a, _, err := actor(c)
	if err != nil {
		return err
	}
	var req dto.SubmitRequest
	if err := helper.BindJSON(c, &req); err != nil {
		return err
	}
	row, err := h.Svc.Submit(c.Context(), a, req)
	if err != nil {
		return err
	}
	return helper.JsonCreated(c, "handover submitted", row)
}

// POST /api/a/handovers/attachments (multipart "file") -> {url}
func (h *HandoverController) UploadAttachment(c *fiber.Ctx) error {
	libraryID, err := helperAuth.GetLibraryIDFromToken(c)
	if err != nil {
		return err
	}
	fh, err := c.FormFile("file")
	if err != nil || fh == nil {
		return apperror.Validation("file is required", "file", "is required")
	}
	url, err := h.Blob.UploadAny(c.Context(), libraryID, helperOSS.SlotHandoverProof, fh)
	if err != nil {
		return err
	}
	return helper.JsonCreated(c, "uploaded", fiber.Map{"url": url})
}

// POST /api/a/handovers/:id/verify
func (h *HandoverController) Verify(c *fiber.Ctx) error {
	return h.review(c, true)
}

// POST /api/a/handovers/:id/reject
func (h *HandoverController) Reject(c *fiber.Ctx) error {
	return h.review(c, false)
}

func (h *HandoverController) review(c *fiber.Ctx, approve bool) error {
	a, _, err := actor(c)
	if err != nil {
		return err
	}
	id, err := helper.ParamUUID(c, "id", "handover")
	if err != nil {
		return err
	}
	var req dto.ReviewRequest
	if len(c.Body()) > 0 {
		if err := helper.BindJSON(c, &req); err != nil {
			return err
		}
	}
	if approve {
		row, err := h.Svc.Verify(c.Context(), a, id, req.Note)
		if err != nil {
			return err
		}
		return helper.JsonUpdated(c, "handover verified", row)
	}
	row, err := h.Svc.Reject(c.Context(), a, id, req.Note)
	if err != nil {
		return err
	}
	return helper.JsonUpdated(c, "handover rejected", row)
}

// =========================================================
// EXPORT - GET /api/a/handovers/export.csv (same filters as LIST)
// =========================================================
func (h *HandoverController) ExportCSV(c *fiber.Ctx) error {
	rows, _, err := h.list(c, helper.ExportOpts.AllHardCap, 0)
	if err != nil {
		return err
	}
	loc := dbtime.GetLibraryLocation(c)
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		reviewed := ""
		if r.HandoverReviewedAt != nil {
			reviewed = r.HandoverReviewedAt.In(loc).Format("2006-01-02 15:04")
		}
		out = append(out, []string{
			r.CreatedAt.In(loc).Format("2006-01-02 15:04"),
			r.StaffName,
			string(r.HandoverMethod),
			string(r.HandoverStatus),
			r.HandoverAmount.StringFixed(2),
			lo.FromPtr(r.HandoverNotes),
			lo.FromPtr(r.ReviewerName),
			reviewed,
			lo.FromPtr(r.HandoverReviewNote),
		})
	}
	header := []string{"date", "staff", "method", "status", "amount", "notes", "reviewed_by", "reviewed_at", "review_note"}
	return helper.SendCSV(c, "handovers.csv", header, out)
}
