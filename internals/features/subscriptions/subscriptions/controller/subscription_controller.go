// internals/features/subscriptions/subscriptions/controller/subscription_controller.go
package controller

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	seatRepo "librarydesk_backend/internals/features/libraries/seats/repository"
	"librarydesk_backend/internals/features/subscriptions/subscriptions/dto"
	"librarydesk_backend/internals/features/subscriptions/subscriptions/repository"
	"librarydesk_backend/internals/features/subscriptions/subscriptions/service"
	helper "librarydesk_backend/internals/helpers"
	helperAuth "librarydesk_backend/internals/helpers/auth"
	"librarydesk_backend/internals/helpers/dbtime"
)

type SubscriptionController struct {
	DB  *gorm.DB
	Svc *service.Service
}

func NewSubscriptionController(db *gorm.DB) *SubscriptionController {
	return &SubscriptionController{DB: db, Svc: service.New(repository.NewGormRepository(db))}
}

func actor(c *fiber.Ctx) (service.Actor, error) {
	caller, err := helperAuth.GetCaller(c)
	if err != nil {
		return service.Actor{}, err
	}
	return service.Actor{UserID: caller.UserID, LibraryID: caller.LibraryID, Loc: dbtime.GetLibraryLocation(c)}, nil
}

// POST /api/a/subscriptions
func (h *SubscriptionController) Create(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var req dto.CreateRequest
	if err := helper.BindJSON(c, &req); err != nil {
		return err
	}
	res, err := h.Svc.Create(c.Context(), a, req)
	if err != nil {
		return err
	}
	return helper.JsonCreated(c, "subscription created", res)
}

// GET /api/a/students/:id/subscriptions
func (h *SubscriptionController) ListForStudent(c *fiber.Ctx) error {
	libraryID, err := helperAuth.GetLibraryIDFromToken(c)
	if err != nil {
		return err
	}
	studentID, err := helper.ParamUUID(c, "id", "student")
	if err != nil {
		return err
	}
	res, err := h.Svc.ListForStudent(c.Context(), libraryID, studentID)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "ok", res)
}

// POST /api/a/subscriptions/:id/renew
func (h *SubscriptionController) Renew(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := helper.ParamUUID(c, "id", "subscription")
	if err != nil {
		return err
	}
	var req dto.RenewRequest
	if len(c.Body()) > 0 {
		if err := helper.BindJSON(c, &req); err != nil {
			return err
		}
	}
	res, err := h.Svc.Renew(c.Context(), a, id, req)
	if err != nil {
		return err
	}
	return helper.JsonCreated(c, "subscription renewed", res)
}

// POST /api/a/subscriptions/:id/cancel
func (h *SubscriptionController) Cancel(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := helper.ParamUUID(c, "id", "subscription")
	if err != nil {
		return err
	}
	var req dto.CancelRequest
	if len(c.Body()) > 0 {
		if err := helper.BindJSON(c, &req); err != nil {
			return err
		}
	}
	res, err := h.Svc.Cancel(c.Context(), a, id, req)
	if err != nil {
		return err
	}
	return helper.JsonUpdated(c, "subscription cancelled", res)
}

// PATCH /api/a/subscriptions/:id/seat
func (h *SubscriptionController) ChangeSeat(c *fiber.Ctx) error {
	return h.reassign(c, seatRepo.Seat)
}

// PATCH /api/a/subscriptions/:id/locker
func (h *SubscriptionController) ChangeLocker(c *fiber.Ctx) error {
	return h.reassign(c, seatRepo.Locker)
}

func (h *SubscriptionController) reassign(c *fiber.Ctx, u seatRepo.Unit) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := helper.ParamUUID(c, "id", "subscription")
	if err != nil {
		return err
	}
	var req dto.AssignRequest
	if err := helper.BindJSON(c, &req); err != nil {
		return err
	}
	res, err := h.Svc.Reassign(c.Context(), a, u, id, req.ID)
	if err != nil {
		return err
	}
	return helper.JsonUpdated(c, u.Name+" updated", res)
}
