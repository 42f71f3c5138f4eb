// internals/features/attendance/attendance/controller/attendance_controller.go
package controller

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"librarydesk_backend/internals/configs"
	"librarydesk_backend/internals/features/attendance/attendance/dto"
	"librarydesk_backend/internals/features/attendance/attendance/repository"
	"librarydesk_backend/internals/features/attendance/attendance/service"
	database "librarydesk_backend/internals/databases"
	helper "librarydesk_backend/internals/helpers"
	"librarydesk_backend/internals/helpers/apperror"
	helperAuth "librarydesk_backend/internals/helpers/auth"
	"librarydesk_backend/internals/helpers/dbtime"
)

type AttendanceController struct {
	DB   *gorm.DB
	Repo *repository.GormRepository
	Svc  *service.Service
}

func NewAttendanceController(db *gorm.DB) *AttendanceController {
	repo := repository.NewGormRepository(db)
	debounce := service.NewRedisDebouncer(database.RDB, time.Duration(configs.GetInt("SCAN_DEBOUNCE_SECONDS"))*time.Second)
	return &AttendanceController{DB: db, Repo: repo, Svc: service.New(repo, debounce)}
}

// POST /api/public/attendance/scan
func (h *AttendanceController) Scan(c *fiber.Ctx) error {
	var req dto.ScanRequest
	if err := helper.BindJSON(c, &req); err != nil {
		return err
	}
	res, err := h.Svc.Scan(c.Context(), req)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, string(res.Action), res)
}

// POST /api/a/attendance/toggle
func (h *AttendanceController) Toggle(c *fiber.Ctx) error {
	libraryID, err := helperAuth.GetLibraryIDFromToken(c)
	if err != nil {
		return err
	}
	var req dto.ToggleRequest
	if err := helper.BindJSON(c, &req); err != nil {
		return err
	}
	res, err := h.Svc.Toggle(c.Context(), libraryID, dbtime.GetLibraryLocation(c), req)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, string(res.Action), res)
}

// =========================================================
// LIST - GET /api/a/attendance?date=YYYY-MM-DD&branch_id=&student_id=&open=
// =========================================================
func (h *AttendanceController) List(c *fiber.Ctx) error {
	libraryID, err := helperAuth.GetLibraryIDFromToken(c)
	if err != nil {
		return err
	}
	var q dto.ListQuery
	if err := helper.BindQuery(c, &q); err != nil {
		return err
	}
	loc := dbtime.GetLibraryLocation(c)
	now := dbtime.NowInLibrary(c)

	day := now
	if q.Date != "" {
		if day, err = dbtime.ParseDate(q.Date, loc); err != nil {
			return apperror.Validation(err.Error(), "date", "must be YYYY-MM-DD")
		}
	}
	from, to := dbtime.DayWindow(day, loc)

	f := repository.ListFilter{LibraryID: libraryID, From: from, To: to, OpenOnly: q.OpenOnly}
	if f.BranchID, err = helper.OptionalUUID(q.BranchID, "branch_id"); err != nil {
		return err
	}
	if f.StudentID, err = helper.OptionalUUID(q.StudentID, "student_id"); err != nil {
		return err
	}

	p := helper.ParseFiber(c, "check_in_at", "desc", helper.DefaultOpts)
	rows, total, present, err := h.Repo.List(c.Context(), f, p.Limit(), p.Offset())
	if err != nil {
		return apperror.FromDB(err, "attendance")
	}
	if rows == nil {
		rows = []dto.AttendanceRow{}
	}
	for i := range rows {
		rows[i].Minutes = rows[i].VisitMinutes(now)
	}
	return helper.JsonOK(c, "ok", dto.AttendanceListResponse{
		Attendance: rows, Total: total, Present: present, Page: p.Page, Limit: p.PerPage,
	})
}
