// internals/features/finance/payments/controller/payment_controller.go
package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
	"gorm.io/gorm"

	"librarydesk_backend/internals/features/finance/payments/dto"
	"librarydesk_backend/internals/features/finance/payments/gateway"
	"librarydesk_backend/internals/features/finance/payments/model"
	"librarydesk_backend/internals/features/finance/payments/repository"
	"librarydesk_backend/internals/features/finance/payments/service"
	helper "librarydesk_backend/internals/helpers"
	"librarydesk_backend/internals/helpers/apperror"
	helperAuth "librarydesk_backend/internals/helpers/auth"
	"librarydesk_backend/internals/helpers/dbtime"
	"librarydesk_backend/internals/helpers/mail"
	helperOSS "librarydesk_backend/internals/helpers/oss"
)

type PaymentController struct {
	DB   *gorm.DB
	Repo *repository.GormRepository
	Svc  *service.Service
	Blob helperOSS.BlobService
}

func NewPaymentController(db *gorm.DB, blob helperOSS.BlobService, mailer mail.Sender) *PaymentController {
	repo := repository.NewGormRepository(db)
	return &PaymentController{DB: db, Repo: repo, Svc: service.New(repo, mailer), Blob: blob}
}

func actor(c *fiber.Ctx) (service.Actor, error) {
	caller, err := helperAuth.GetCaller(c)
	if err != nil {
		return service.Actor{}, err
	}
	return service.Actor{UserID: caller.UserID, LibraryID: caller.LibraryID, Loc: dbtime.GetLibraryLocation(c)}, nil
}

// =========================================================
// LIST - GET /api/a/payments?status=&method=&student_id=&branch_id=&collected_by=&from=&to=&search=
// =========================================================
func (h *PaymentController) List(c *fiber.Ctx) error {
	libraryID, err := helperAuth.GetLibraryIDFromToken(c)
	if err != nil {
		return err
	}
	var q dto.ListQuery
	if err := helper.BindQuery(c, &q); err != nil {
		return err
	}
	p := helper.ParseFiber(c, "paid_at", "desc", helper.DefaultOpts)

	rows, total, sum, err := h.Repo.List(c.Context(), libraryID, q, dbtime.GetLibraryLocation(c), p.Limit(), p.Offset())
	if err != nil {
		return apperror.FromDB(err, "payment")
	}
	if rows == nil {
		rows = []dto.PaymentRow{}
	}
	return helper.JsonOK(c, "ok", dto.PaymentListResponse{
		Payments: rows, Total: total, Sum: sum.StringFixed(2), Page: p.Page, Limit: p.PerPage,
	})
}

// =========================================================
// RECORD - POST /api/a/payments (JSON or multipart with "proof")
// =========================================================
func (h *PaymentController) Create(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var req dto.RecordRequest
	if err := helper.BindJSON(c, &req); err != nil {
		return err
	}

	var uploaded string
	if helperOSS.IsMultipart(c) {
		if fh, err := c.FormFile("proof"); err == nil && fh != nil {
			url, err := h.Blob.UploadImage(c.Context(), a.LibraryID, helperOSS.SlotPaymentProof, fh)
			if err != nil {
				return err
			}
			uploaded = url
			req.ProofURL = &uploaded
		}
	}

	res, err := h.Svc.Record(c.Context(), a, req)
	if err != nil {
		if uploaded != "" {
			_ = h.Blob.DeleteByPublicURL(c.Context(), uploaded)
		}
		return err
	}
	return helper.JsonCreated(c, "payment recorded", res)
}

// POST /api/a/payments/:id/verify
func (h *PaymentController) Verify(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := helper.ParamUUID(c, "id", "payment")
	if err != nil {
		return err
	}
	p, err := h.Svc.Verify(c.Context(), a, id)
	if err != nil {
		return err
	}
	return helper.JsonUpdated(c, "payment verified", p)
}

// POST /api/a/payments/:id/reject
func (h *PaymentController) Reject(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := helper.ParamUUID(c, "id", "payment")
	if err != nil {
		return err
	}
	var req dto.RejectRequest
	if len(c.Body()) > 0 {
		if err := helper.BindJSON(c, &req); err != nil {
			return err
		}
	}
	p, err := h.Svc.Reject(c.Context(), a, id, req.Reason)
	if err != nil {
		return err
	}
	return helper.JsonUpdated(c, "payment rejected", p)
}

// GET /api/a/payments/:id/invoice
func (h *PaymentController) Invoice(c *fiber.Ctx) error {
	libraryID, err := helperAuth.GetLibraryIDFromToken(c)
	if err != nil {
		return err
	}
	id, err := helper.ParamUUID(c, "id", "payment")
	if err != nil {
		return err
	}
	inv, err := h.Repo.Invoice(c.Context(), libraryID, id, dbtime.NowInLibrary(c))
	if err != nil {
		return apperror.FromDB(err, "payment")
	}
	return helper.JsonOK(c, "ok", inv)
}

// =========================================================
// EXPORT - GET /api/a/payments/export.csv (same filters as LIST)
// Columns: invoice_number, date, student, branch, method, status, amount, collected_by, reference, note
// =========================================================
func (h *PaymentController) ExportCSV(c *fiber.Ctx) error {
	libraryID, err := helperAuth.GetLibraryIDFromToken(c)
	if err != nil {
		return err
	}
	var q dto.ListQuery
	if err := helper.BindQuery(c, &q); err != nil {
		return err
	}
	loc := dbtime.GetLibraryLocation(c)
	rows, _, _, err := h.Repo.List(c.Context(), libraryID, q, loc, helper.ExportOpts.AllHardCap, 0)
	if err != nil {
		return apperror.FromDB(err, "payment")
	}

	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		at := lo.FromPtrOr(r.PaymentPaidAt, r.CreatedAt)
		out = append(out, []string{
			r.PaymentInvoiceNumber,
			at.In(loc).Format("2006-01-02 15:04"),
			r.StudentName,
			r.BranchName,
			string(r.PaymentMethod),
			string(r.PaymentStatus),
			r.PaymentAmount.StringFixed(2),
			lo.FromPtr(r.CollectedByName),
			lo.FromPtr(r.PaymentReference),
			lo.FromPtr(r.PaymentNote),
		})
	}
	header := []string{"invoice_number", "date", "student", "branch", "method", "status", "amount", "collected_by", "reference", "note"}
	return helper.SendCSV(c, "payments.csv", header, out)
}

// =========================================================
// WEBHOOK - POST /api/public/payments/midtrans/notify
// =========================================================
func (h *PaymentController) MidtransNotify(c *fiber.Ctx) error {
	var n gateway.Notification
	if err := c.BodyParser(&n); err != nil {
		return apperror.BadRequest("invalid payload")
	}
	if !n.SignatureValid(gateway.ServerKey()) {
		return apperror.Unauthorized("invalid signature")
	}

	p, applied, err := h.Svc.ApplyNotification(c.Context(), n)
	if err != nil {
		return err
	}
	if p == nil {
		log.Printf("[PAYMENT] notify ignored order_id=%s status=%s", n.OrderID, n.TransactionStatus)
		return helper.JsonOK(c, "ignored", fiber.Map{"order_id": n.OrderID})
	}
	return helper.JsonOK(c, "ok", fiber.Map{
		"payment_id":     p.PaymentID,
		"payment_status": p.PaymentStatus,
		"applied":        applied,
		"final":          p.PaymentStatus == model.PaymentStatusCompleted || p.PaymentStatus == model.PaymentStatusFailed,
	})
}
