package controller

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"librarydesk_backend/internals/features/libraries/plans/dto"
	"librarydesk_backend/internals/features/libraries/plans/model"
	helper "librarydesk_backend/internals/helpers"
	"librarydesk_backend/internals/helpers/apperror"
	helperAuth "librarydesk_backend/internals/helpers/auth"
)

type PlanController struct {
	DB *gorm.DB
}

func NewPlanController(db *gorm.DB) *PlanController {
	return &PlanController{DB: db}
}

// GET /api/a/plans?active=true
func (h *PlanController) List(c *fiber.Ctx) error {
	libraryID, err := helperAuth.GetLibraryIDFromToken(c)
	if err != nil {
		return err
	}
	q := h.DB.WithContext(c.Context()).Where("plan_library_id = ?", libraryID)
	if strings.EqualFold(c.Query("active"), "true") {
		q = q.Where("plan_is_active = TRUE")
	}
	var rows []model.PlanModel
	if err := q.Order("plan_duration_days ASC, plan_price ASC").Find(&rows).Error; err != nil {
		return apperror.FromDB(err, "plan")
	}
	return helper.JsonOK(c, "ok", rows)
}

// POST /api/a/plans (owner)
func (h *PlanController) Create(c *fiber.Ctx) error {
	libraryID, err := helperAuth.GetLibraryIDFromToken(c)
	if err != nil {
		return err
	}
	var req dto.PlanCreateRequest
	if err := helper.BindJSON(c, &req); err != nil {
		return err
	}
	if err := req.Check(); err != nil {
		return err
	}
	m := req.ToModel(libraryID)
	if err := h.DB.WithContext(c.Context()).Create(m).Error; err != nil {
		return apperror.FromDB(err, "plan")
	}
	return helper.JsonCreated(c, "plan created", m)
}

// PATCH /api/a/plans/:id (owner)
func (h *PlanController) Patch(c *fiber.Ctx) error {
	libraryID, err := helperAuth.GetLibraryIDFromToken(c)
	if err != nil {
		return err
	}
	id, err := helper.ParamUUID(c, "id", "plan")
	if err != nil {
		return err
	}
	var req dto.PlanPatchRequest
	if err := helper.BindJSON(c, &req); err != nil {
		return err
	}
	if err := req.Check(); err != nil {
		return err
	}

	var m model.PlanModel
	if err := h.DB.WithContext(c.Context()).
		First(&m, "plan_id = ? AND plan_library_id = ?", id, libraryID).Error; err != nil {
		return apperror.FromDB(err, "plan")
	}
	req.ApplyToModel(&m)
	if err := h.DB.WithContext(c.Context()).Save(&m).Error; err != nil {
		return apperror.FromDB(err, "plan")
	}
	return helper.JsonUpdated(c, "plan updated", m)
}
