// internals/features/libraries/seats/controller/unit_controller.go
package controller

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	branchRepo "librarydesk_backend/internals/features/libraries/branches/repository"
	"librarydesk_backend/internals/features/libraries/seats/dto"
	"librarydesk_backend/internals/features/libraries/seats/model"
	seatRepo "librarydesk_backend/internals/features/libraries/seats/repository"
	helper "librarydesk_backend/internals/helpers"
	"librarydesk_backend/internals/helpers/apperror"
	helperAuth "librarydesk_backend/internals/helpers/auth"
)

// UnitController serves both the seat and the locker grid.
type UnitController struct {
	DB   *gorm.DB
	Unit seatRepo.Unit
}

func NewSeatController(db *gorm.DB) *UnitController {
	return &UnitController{DB: db, Unit: seatRepo.Seat}
}

func NewLockerController(db *gorm.DB) *UnitController {
	return &UnitController{DB: db, Unit: seatRepo.Locker}
}

// =========================================================
// GRID - GET /api/a/branches/:id/seats | /lockers
// =========================================================
func (h *UnitController) Grid(c *fiber.Ctx) error {
	libraryID, err := helperAuth.GetLibraryIDFromToken(c)
	if err != nil {
		return err
	}
	branchID, err := helper.ParamUUID(c, "id", "branch")
	if err != nil {
		return err
	}
	ctx := c.Context()
	if _, err := branchRepo.FindBranch(ctx, h.DB, libraryID, branchID); err != nil {
		return apperror.FromDB(err, "branch")
	}

	rows, err := seatRepo.Grid(ctx, h.DB, h.Unit, libraryID, branchID, time.Now())
	if err != nil {
		return apperror.FromDB(err, h.Unit.Name)
	}
	var occupied int
	for _, r := range rows {
		if r.Occupied() {
			occupied++
		}
	}
	return helper.JsonOK(c, "ok", fiber.Map{
		"items":    rows,
		"total":    len(rows),
		"occupied": occupied,
		"free":     len(rows) - occupied,
	})
}

// =========================================================
// CREATE - POST /api/a/branches/:id/seats | /lockers (owner)
// =========================================================
func (h *UnitController) Create(c *fiber.Ctx) error {
	libraryID, err := helperAuth.GetLibraryIDFromToken(c)
	if err != nil {
		return err
	}
	branchID, err := helper.ParamUUID(c, "id", "branch")
	if err != nil {
		return err
	}
	var req dto.UnitCreateRequest
	if err := helper.BindJSON(c, &req); err != nil {
		return err
	}
	numbers, err := req.Expand()
	if err != nil {
		return err
	}

	ctx := c.Context()
	if _, err := branchRepo.FindBranch(ctx, h.DB, libraryID, branchID); err != nil {
		return apperror.FromDB(err, "branch")
	}

	var rows any
	switch h.Unit {
	case seatRepo.Seat:
		seats := make([]model.SeatModel, 0, len(numbers))
		for _, n := range numbers {
			seats = append(seats, model.SeatModel{
				SeatLibraryID: libraryID, SeatBranchID: branchID, SeatNumber: n, SeatSection: req.Section, SeatIsActive: true,
			})
		}
		rows = &seats
	default:
		lockers := make([]model.LockerModel, 0, len(numbers))
		for _, n := range numbers {
			lockers = append(lockers, model.LockerModel{
				LockerLibraryID: libraryID, LockerBranchID: branchID, LockerNumber: n, LockerIsActive: true,
			})
		}
		rows = &lockers
	}
	if err := h.DB.WithContext(ctx).Create(rows).Error; err != nil {
		return apperror.FromDB(err, h.Unit.Name)
	}

	grid, err := seatRepo.Grid(ctx, h.DB, h.Unit, libraryID, branchID, time.Now())
	if err != nil {
		return apperror.FromDB(err, h.Unit.Name)
	}
	return helper.JsonCreated(c, h.Unit.Name+"s created", fiber.Map{"created": len(numbers), "items": grid})
}

// =========================================================
// PATCH - PATCH /api/a/seats/:id | /lockers/:id (owner)
// =========================================================
func (h *UnitController) Patch(c *fiber.Ctx) error {
	libraryID, err := helperAuth.GetLibraryIDFromToken(c)
	if err != nil {
		return err
	}
	id, err := helper.ParamUUID(c, "id", h.Unit.Name)
	if err != nil {
		return err
	}
	var req dto.UnitPatchRequest
	if err := helper.BindJSON(c, &req); err != nil {
		return err
	}

	ctx := c.Context()
	now := time.Now()
	if req.IsActive != nil && !*req.IsActive {
		held, err := seatRepo.HeldUntil(ctx, h.DB, h.Unit, id, now)
		if err != nil {
			return apperror.FromDB(err, h.Unit.Name)
		}
		if held {
			return apperror.Conflict(h.Unit.Name + " is assigned to a running subscription")
		}
	}

	updates := map[string]any{}
	p := h.Unit.Prefix
	if req.Number != nil {
		updates[p+"_number"] = strings.ToUpper(strings.TrimSpace(*req.Number))
	}
	if req.Section != nil && h.Unit.HasSect {
		updates[p+"_section"] = strings.TrimSpace(*req.Section)
	}
	if req.IsActive != nil {
		updates[p+"_is_active"] = *req.IsActive
	}
	if len(updates) > 0 {
		updates[p+"_updated_at"] = now
		res := h.DB.WithContext(ctx).Table(h.Unit.Table).
			Where(p+"_id = ? AND "+p+"_library_id = ?", id, libraryID).
			Updates(updates)
		if res.Error != nil {
			return apperror.FromDB(res.Error, h.Unit.Name)
		}
		if res.RowsAffected == 0 {
			return apperror.NotFound(h.Unit.Name)
		}
	}

	row, err := seatRepo.GridRowByID(ctx, h.DB, h.Unit, libraryID, id, now)
	if err != nil {
		return apperror.FromDB(err, h.Unit.Name)
	}
	return helper.JsonUpdated(c, h.Unit.Name+" updated", row)
}

// =========================================================
// DELETE - DELETE /api/a/seats/:id | /lockers/:id (owner)
// =========================================================
func (h *UnitController) Delete(c *fiber.Ctx) error {
	libraryID, err := helperAuth.GetLibraryIDFromToken(c)
	if err != nil {
		return err
	}
	id, err := helper.ParamUUID(c, "id", h.Unit.Name)
	if err != nil {
		return err
	}
	ctx := c.Context()
	held, err := seatRepo.HeldUntil(ctx, h.DB, h.Unit, id, time.Now())
	if err != nil {
		return apperror.FromDB(err, h.Unit.Name)
	}
	if held {
		return apperror.Conflict(h.Unit.Name + " is assigned to a running subscription")
	}

	p := h.Unit.Prefix
	res := h.DB.WithContext(ctx).Exec(
		"DELETE FROM "+h.Unit.Table+" WHERE "+p+"_id = ? AND "+p+"_library_id = ?", id, libraryID)
	if res.Error != nil {
		return apperror.FromDB(res.Error, h.Unit.Name)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound(h.Unit.Name)
	}
	return helper.JsonDeleted(c, h.Unit.Name+" deleted", fiber.Map{"id": id})
}
