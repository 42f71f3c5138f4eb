// internals/features/finance/fees/controller/fee_controller.go
package controller

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"librarydesk_backend/internals/features/finance/fees/dto"
	"librarydesk_backend/internals/features/finance/fees/model"
	branchRepo "librarydesk_backend/internals/features/libraries/branches/repository"
	studentRepo "librarydesk_backend/internals/features/students/students/repository"
	helper "librarydesk_backend/internals/helpers"
	"librarydesk_backend/internals/helpers/apperror"
	helperAuth "librarydesk_backend/internals/helpers/auth"
	"librarydesk_backend/internals/helpers/dbtime"
)

type FeeController struct {
	DB *gorm.DB
}

func NewFeeController(db *gorm.DB) *FeeController {
	return &FeeController{DB: db}
}

// POST /api/a/students/:id/fees
func (h *FeeController) Create(c *fiber.Ctx) error {
	libraryID, err := helperAuth.GetLibraryIDFromToken(c)
	if err != nil {
		return err
	}
	studentID, err := helper.ParamUUID(c, "id", "student")
	if err != nil {
		return err
	}
	var req dto.FeeCreateRequest
	if err := helper.BindJSON(c, &req); err != nil {
		return err
	}
	if err := req.Check(); err != nil {
		return err
	}

	st, err := studentRepo.NewGormRepository(h.DB).FindOwned(c.Context(), libraryID, studentID)
	if err != nil {
		return apperror.FromDB(err, "student")
	}
	branchID := req.BranchID
	if branchID == nil {
		branchID = st.StudentBranchID
	}
	if branchID == nil {
		return apperror.Validation("branch is required", "branch_id", "student has no home branch")
	}
	if _, err := branchRepo.FindBranch(c.Context(), h.DB, libraryID, *branchID); err != nil {
		return apperror.FromDB(err, "branch")
	}

	m := req.ToModel(libraryID, st.StudentID, *branchID, dbtime.GetLibraryLocation(c))
	if err := h.DB.WithContext(c.Context()).Create(&m).Error; err != nil {
		return apperror.FromDB(err, "fee")
	}
	return helper.JsonCreated(c, "fee added", m)
}

// GET /api/a/students/:id/fees?status=unpaid
func (h *FeeController) List(c *fiber.Ctx) error {
	libraryID, err := helperAuth.GetLibraryIDFromToken(c)
	if err != nil {
		return err
	}
	studentID, err := helper.ParamUUID(c, "id", "student")
	if err != nil {
		return err
	}
	if _, err := studentRepo.NewGormRepository(h.DB).Find(c.Context(), libraryID, studentID); err != nil {
		return apperror.FromDB(err, "student")
	}

	q := h.DB.WithContext(c.Context()).
		Where("fee_library_id = ? AND fee_student_id = ?", libraryID, studentID)
	switch st := model.FeeStatus(c.Query("status")); st {
	case "":
	case model.FeeUnpaid, model.FeePaid:
		q = q.Where("fee_status = ?", st)
	default:
		return apperror.Validation("invalid status", "status", "must be one of: unpaid paid")
	}

	var rows []model.AdditionalFeeModel
	if err := q.Order("fee_created_at DESC").Find(&rows).Error; err != nil {
		return apperror.FromDB(err, "fee")
	}
	return helper.JsonOK(c, "ok", dto.ToFeeList(rows))
}
