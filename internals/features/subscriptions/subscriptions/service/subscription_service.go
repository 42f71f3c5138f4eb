// internals/features/subscriptions/subscriptions/service/subscription_service.go
package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	planModel "librarydesk_backend/internals/features/libraries/plans/model"
	seatRepo "librarydesk_backend/internals/features/libraries/seats/repository"
	noteModel "librarydesk_backend/internals/features/students/notes/model"
	studentModel "librarydesk_backend/internals/features/students/students/model"
	studentRepo "librarydesk_backend/internals/features/students/students/repository"
	studentService "librarydesk_backend/internals/features/students/students/service"
	"librarydesk_backend/internals/features/subscriptions/subscriptions/dto"
	"librarydesk_backend/internals/features/subscriptions/subscriptions/model"
	"librarydesk_backend/internals/features/subscriptions/subscriptions/repository"
	"librarydesk_backend/internals/helpers/apperror"
	"librarydesk_backend/internals/helpers/dbtime"
)

// Actor is the desk user performing a mutation plus the library's clock.
type Actor struct {
	UserID    uuid.UUID
	LibraryID uuid.UUID
	Loc       *time.Location
}

type Service struct {
	Store repository.Store
	Now   func() time.Time
}

func New(store repository.Store) *Service {
	return &Service{Store: store, Now: time.Now}
}

/* ===== Create ===== */

func (s *Service) Create(ctx context.Context, a Actor, req dto.CreateRequest) (dto.SubscriptionResponse, error) {
	if err := checkAmount(req.Amount); err != nil {
		return dto.SubscriptionResponse{}, err
	}
	now := s.Now().In(a.Loc)
	start := now
	if strings.TrimSpace(req.StartDate) != "" {
		d, err := dbtime.ParseDate(req.StartDate, a.Loc)
		if err != nil {
			return dto.SubscriptionResponse{}, apperror.Validation("invalid start date", "start_date", err.Error())
		}
		start = d
		if d.Before(startOfDay(now, a.Loc)) {
			return dto.SubscriptionResponse{}, apperror.Validation("invalid start date", "start_date", "cannot be in the past")
		}
		if sameDay(d, now, a.Loc) {
			start = now
		}
	}

	var out model.SubscriptionModel
	var student *studentModel.StudentModel
	err := s.Store.Tx(ctx, func(tx repository.Store) error {
		st, plan, err := s.loadParties(ctx, tx, a.LibraryID, req.StudentID, req.BranchID, req.PlanID)
		if err != nil {
			return err
		}
		student = st
		if req.LockerID != nil && !plan.PlanIncludesLocker {
			return apperror.Validation("plan has no locker", "locker_id", "plan does not include a locker")
		}

		sub := model.SubscriptionModel{
			SubscriptionID:        uuid.New(),
			SubscriptionLibraryID: a.LibraryID,
			SubscriptionStudentID: st.StudentID,
			SubscriptionBranchID:  req.BranchID,
			SubscriptionPlanID:    plan.PlanID,
			SubscriptionStartDate: start,
			SubscriptionEndDate:   EndDate(start, plan.PlanDurationDays, a.Loc),
			SubscriptionAmount:    amountOr(req.Amount, plan.PlanPrice),
			SubscriptionCreatedBy: &a.UserID,
		}
		sub.SubscriptionStatus = initialStatus(sub.SubscriptionStartDate, now)

		if err := s.claim(ctx, tx, seatRepo.Seat, &sub, req.SeatID); err != nil {
			return err
		}
		if err := s.claim(ctx, tx, seatRepo.Locker, &sub, req.LockerID); err != nil {
			return err
		}
		if err := tx.Create(ctx, &sub); err != nil {
			return apperror.FromDB(err, "subscription")
		}
		out = sub
		return nil
	})
	if err != nil {
		return dto.SubscriptionResponse{}, apperror.FromDB(err, "subscription")
	}
	return s.respond(ctx, a.LibraryID, out, student)
}

/* ===== Renew ===== */

// Renew chains a new subscription after the student's last running one in the same branch.
// Seat and locker carry over unless the request says otherwise.
func (s *Service) Renew(ctx context.Context, a Actor, id uuid.UUID, req dto.RenewRequest) (dto.SubscriptionResponse, error) {
	if err := checkAmount(req.Amount); err != nil {
		return dto.SubscriptionResponse{}, err
	}
	now := s.Now().In(a.Loc)

	var out model.SubscriptionModel
	var student *studentModel.StudentModel
	err := s.Store.Tx(ctx, func(tx repository.Store) error {
		prev, err := tx.LockSubscription(ctx, a.LibraryID, id)
		if err != nil {
			return apperror.FromDB(err, "subscription")
		}
		planID := prev.SubscriptionPlanID
		if req.PlanID != nil {
			planID = *req.PlanID
		}
		st, plan, err := s.loadParties(ctx, tx, a.LibraryID, prev.SubscriptionStudentID, prev.SubscriptionBranchID, planID)
		if err != nil {
			return err
		}
		student = st

		start := now
		last, err := tx.LatestEnd(ctx, a.LibraryID, prev.SubscriptionStudentID, prev.SubscriptionBranchID)
		if err != nil {
			return apperror.FromDB(err, "subscription")
		}
		if last != nil && !last.Before(now) {
			start = nextDay(*last, a.Loc)
		}

		sub := model.SubscriptionModel{
			SubscriptionID:        uuid.New(),
			SubscriptionLibraryID: a.LibraryID,
			SubscriptionStudentID: prev.SubscriptionStudentID,
			SubscriptionBranchID:  prev.SubscriptionBranchID,
			SubscriptionPlanID:    plan.PlanID,
			SubscriptionStartDate: start,
			SubscriptionEndDate:   EndDate(start, plan.PlanDurationDays, a.Loc),
			SubscriptionAmount:    amountOr(req.Amount, plan.PlanPrice),
			SubscriptionCreatedBy: &a.UserID,
		}
		sub.SubscriptionStatus = initialStatus(start, now)

		var seatID, lockerID *uuid.UUID
		if keep(req.KeepSeat, true) {
			seatID = prev.SubscriptionSeatID
		}
		if keep(req.KeepLocker, plan.PlanIncludesLocker) && plan.PlanIncludesLocker {
			lockerID = prev.SubscriptionLockerID
		}
		if err := s.claim(ctx, tx, seatRepo.Seat, &sub, seatID); err != nil {
			return err
		}
		if err := s.claim(ctx, tx, seatRepo.Locker, &sub, lockerID); err != nil {
			return err
		}
		if err := tx.Create(ctx, &sub); err != nil {
			return apperror.FromDB(err, "subscription")
		}
		out = sub
		return nil
	})
	if err != nil {
		return dto.SubscriptionResponse{}, apperror.FromDB(err, "subscription")
	}
	return s.respond(ctx, a.LibraryID, out, student)
}

/* ===== Cancel ===== */

func (s *Service) Cancel(ctx context.Context, a Actor, id uuid.UUID, req dto.CancelRequest) (dto.SubscriptionResponse, error) {
	var out model.SubscriptionModel
	err := s.Store.Tx(ctx, func(tx repository.Store) error {
		sub, err := tx.LockSubscription(ctx, a.LibraryID, id)
		if err != nil {
			return apperror.FromDB(err, "subscription")
		}
		if !running(sub.SubscriptionStatus) {
			return apperror.InvalidTransition("cannot cancel a " + string(sub.SubscriptionStatus) + " subscription")
		}
		sub.SubscriptionStatus = model.SubscriptionCancelled
		if err := tx.Save(ctx, sub); err != nil {
			return apperror.FromDB(err, "subscription")
		}
		if reason := strings.TrimSpace(req.Reason); reason != "" {
			note := &noteModel.StudentNoteModel{
				NoteLibraryID: a.LibraryID,
				NoteStudentID: sub.SubscriptionStudentID,
				NoteAuthorID:  a.UserID,
				NoteKind:      noteModel.NoteKindNote,
				NoteBody:      "Subscription cancelled: " + reason,
			}
			if err := tx.AddNote(ctx, note); err != nil {
				return apperror.FromDB(err, "note")
			}
		}
		out = *sub
		return nil
	})
	if err != nil {
		return dto.SubscriptionResponse{}, apperror.FromDB(err, "subscription")
	}
	return s.respond(ctx, a.LibraryID, out, nil)
}

/* ===== Seat / locker change ===== */

// Reassign moves a running subscription to another seat or locker of its branch.
// A nil id releases the current one.
func (s *Service) Reassign(ctx context.Context, a Actor, u seatRepo.Unit, id uuid.UUID, unitID *uuid.UUID) (dto.SubscriptionResponse, error) {
	var out model.SubscriptionModel
	err := s.Store.Tx(ctx, func(tx repository.Store) error {
		sub, err := tx.LockSubscription(ctx, a.LibraryID, id)
		if err != nil {
			return apperror.FromDB(err, "subscription")
		}
		if !running(sub.SubscriptionStatus) {
			return apperror.InvalidTransition("cannot change the " + u.Name + " of a " + string(sub.SubscriptionStatus) + " subscription")
		}
		if u == seatRepo.Locker && unitID != nil {
			plan, err := tx.Plan(ctx, a.LibraryID, sub.SubscriptionPlanID)
			if err != nil {
				return apperror.FromDB(err, "plan")
			}
			if !plan.PlanIncludesLocker {
				return apperror.Validation("plan has no locker", "id", "plan does not include a locker")
			}
		}
		if err := s.claim(ctx, tx, u, sub, unitID); err != nil {
			return err
		}
		if err := tx.Save(ctx, sub); err != nil {
			return apperror.FromDB(err, "subscription")
		}
		out = *sub
		return nil
	})
	if err != nil {
		return dto.SubscriptionResponse{}, apperror.FromDB(err, "subscription")
	}
	return s.respond(ctx, a.LibraryID, out, nil)
}

/* ===== Reads ===== */

func (s *Service) ListForStudent(ctx context.Context, libraryID, studentID uuid.UUID) ([]dto.SubscriptionResponse, error) {
	st, err := s.Store.VisibleStudent(ctx, libraryID, studentID)
	if err != nil {
		return nil, apperror.FromDB(err, "student")
	}
	subs, err := s.Store.ListForStudent(ctx, libraryID, studentID)
	if err != nil {
		return nil, apperror.FromDB(err, "subscription")
	}
	names, err := s.Store.Names(ctx, libraryID, subs)
	if err != nil {
		return nil, apperror.FromDB(err, "subscription")
	}
	out := make([]dto.SubscriptionResponse, 0, len(subs))
	for _, sub := range subs {
		out = append(out, toResponse(sub, st, names))
	}
	return out, nil
}

// Sweep moves due pending rows to active and lapsed rows to expired.
func (s *Service) Sweep(ctx context.Context) (dto.SweepResult, error) {
	activated, expired, err := s.Store.Sweep(ctx, s.Now())
	if err != nil {
		return dto.SweepResult{}, err
	}
	return dto.SweepResult{Activated: activated, Expired: expired}, nil
}

/* ===== helpers ===== */

func (s *Service) loadParties(ctx context.Context, tx repository.Store, libraryID, studentID, branchID, planID uuid.UUID) (*studentModel.StudentModel, *planModel.PlanModel, error) {
	st, err := tx.Student(ctx, libraryID, studentID)
	if err != nil {
		return nil, nil, apperror.FromDB(err, "student")
	}
	if st.StudentIsBlocked {
		return nil, nil, apperror.Conflict("student is blocked")
	}
	br, err := tx.Branch(ctx, libraryID, branchID)
	if err != nil {
		return nil, nil, apperror.FromDB(err, "branch")
	}
	if !br.BranchIsActive {
		return nil, nil, apperror.Validation("branch is inactive", "branch_id", "branch is inactive")
	}
	plan, err := tx.Plan(ctx, libraryID, planID)
	if err != nil {
		return nil, nil, apperror.FromDB(err, "plan")
	}
	if !plan.PlanIsActive {
		return nil, nil, apperror.Validation("plan is inactive", "plan_id", "plan is inactive")
	}
	return st, plan, nil
}

// claim points sub at unitID after locking the unit row and checking nobody else holds it
// anywhere in sub's window. Must run inside Tx.
func (s *Service) claim(ctx context.Context, tx repository.Store, u seatRepo.Unit, sub *model.SubscriptionModel, unitID *uuid.UUID) error {
	set := func(v *uuid.UUID) {
		if u == seatRepo.Seat {
			sub.SubscriptionSeatID = v
		} else {
			sub.SubscriptionLockerID = v
		}
	}
	if unitID == nil {
		set(nil)
		return nil
	}
	number, err := tx.LockUnit(ctx, u, sub.SubscriptionLibraryID, sub.SubscriptionBranchID, *unitID)
	if err != nil {
		return apperror.FromDB(err, u.Name)
	}
	others, err := tx.Occupants(ctx, u, *unitID, sub.SubscriptionStartDate, sub.SubscriptionEndDate, &sub.SubscriptionID)
	if err != nil {
		return apperror.FromDB(err, u.Name)
	}
	if len(others) > 0 {
		return apperror.Conflict(u.Name + " " + number + " is taken until " + others[0].SubscriptionEndDate.Format("2006-01-02"))
	}
	id := *unitID
	set(&id)
	return nil
}

func (s *Service) respond(ctx context.Context, libraryID uuid.UUID, sub model.SubscriptionModel, st *studentModel.StudentModel) (dto.SubscriptionResponse, error) {
	if st == nil {
		var err error
		if st, err = s.Store.VisibleStudent(ctx, libraryID, sub.SubscriptionStudentID); err != nil {
			return dto.SubscriptionResponse{}, apperror.FromDB(err, "student")
		}
	}
	names, err := s.Store.Names(ctx, libraryID, []model.SubscriptionModel{sub})
	if err != nil {
		return dto.SubscriptionResponse{}, apperror.FromDB(err, "subscription")
	}
	return toResponse(sub, st, names), nil
}

func toResponse(sub model.SubscriptionModel, st *studentModel.StudentModel, names studentRepo.Names) dto.SubscriptionResponse {
	return dto.SubscriptionResponse{
		SubscriptionBrief: studentService.ToBrief(sub, names),
		StudentID:         sub.SubscriptionStudentID,
		StudentName:       st.StudentName,
		BranchID:          sub.SubscriptionBranchID,
		PlanID:            sub.SubscriptionPlanID,
		SeatID:            sub.SubscriptionSeatID,
		LockerID:          sub.SubscriptionLockerID,
		CreatedAt:         sub.CreatedAt,
	}
}

// EndDate is the last instant of the plan's final day; a 30-day plan starting today ends 29 days later.
func EndDate(start time.Time, days int, loc *time.Location) time.Time {
	if days < 1 {
		days = 1
	}
	return dbtime.EndOfDay(start.In(loc).AddDate(0, 0, days-1), loc)
}

func initialStatus(start, now time.Time) model.SubscriptionStatus {
	if start.After(now) {
		return model.SubscriptionPending
	}
	return model.SubscriptionActive
}

func running(st model.SubscriptionStatus) bool {
	return st == model.SubscriptionActive || st == model.SubscriptionPending
}

func checkAmount(v *decimal.Decimal) error {
	if v != nil && v.IsNegative() {
		return apperror.Validation("invalid amount", "amount", "must not be negative")
	}
	return nil
}

func amountOr(v *decimal.Decimal, fallback decimal.Decimal) decimal.Decimal {
	if v == nil {
		return fallback.Round(2)
	}
	return v.Round(2)
}

func keep(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	start, _ := dbtime.DayWindow(t, loc)
	return start
}

func nextDay(t time.Time, loc *time.Location) time.Time {
	_, next := dbtime.DayWindow(t, loc)
	return next
}

func sameDay(a, b time.Time, loc *time.Location) bool {
	return startOfDay(a, loc).Equal(startOfDay(b, loc))
}
