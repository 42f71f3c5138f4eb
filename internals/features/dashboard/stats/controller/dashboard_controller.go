// internals/features/dashboard/stats/controller/dashboard_controller.go
package controller

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"librarydesk_backend/internals/features/dashboard/stats/dto"
	"librarydesk_backend/internals/features/dashboard/stats/repository"
	"librarydesk_backend/internals/features/dashboard/stats/service"
	studentRepo "librarydesk_backend/internals/features/students/students/repository"
	studentService "librarydesk_backend/internals/features/students/students/service"
	helper "librarydesk_backend/internals/helpers"
	helperAuth "librarydesk_backend/internals/helpers/auth"
	"librarydesk_backend/internals/helpers/dbtime"
)

type DashboardController struct {
	DB  *gorm.DB
	Svc *service.Service
}

func NewDashboardController(db *gorm.DB) *DashboardController {
	students := studentService.New(studentRepo.NewGormRepository(db))
	return &DashboardController{
		DB:  db,
		Svc: service.New(repository.NewGormRepository(db), students.CountByStatus),
	}
}

// GET /api/a/dashboard/summary?branch_id=
func (h *DashboardController) Summary(c *fiber.Ctx) error {
	libraryID, err := helperAuth.GetLibraryIDFromToken(c)
	if err != nil {
		return err
	}
	var q dto.SummaryQuery
	if err := helper.BindQuery(c, &q); err != nil {
		return err
	}
	branchID, err := helper.OptionalUUID(q.BranchID, "branch_id")
	if err != nil {
		return err
	}
	res, err := h.Svc.Summary(c.Context(), libraryID, branchID, dbtime.GetLibraryLocation(c))
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "ok", res)
}

// GET /api/a/dashboard/revenue?months=N
func (h *DashboardController) Revenue(c *fiber.Ctx) error {
	libraryID, err := helperAuth.GetLibraryIDFromToken(c)
	if err != nil {
		return err
	}
	var q dto.RevenueQuery
	if err := helper.BindQuery(c, &q); err != nil {
		return err
	}
	pts, err := h.Svc.RevenueSeries(c.Context(), libraryID, q.Months, dbtime.GetLibraryLocation(c))
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "ok", fiber.Map{"months": pts})
}
