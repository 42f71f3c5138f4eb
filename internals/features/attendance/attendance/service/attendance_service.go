// internals/features/attendance/attendance/service/attendance_service.go
package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"librarydesk_backend/internals/features/attendance/attendance/dto"
	"librarydesk_backend/internals/features/attendance/attendance/model"
	"librarydesk_backend/internals/features/attendance/attendance/repository"
	branchModel "librarydesk_backend/internals/features/libraries/branches/model"
	"librarydesk_backend/internals/helpers/apperror"
	"librarydesk_backend/internals/helpers/dbtime"
)

const (
	SourceDesk = "desk"
	SourceQR   = "qr"
)

type Service struct {
	Store    repository.Store
	Debounce Debouncer
	Now      func() time.Time
}

func New(store repository.Store, debounce Debouncer) *Service {
	if debounce == nil {
		debounce = noDebounce{}
	}
	return &Service{Store: store, Debounce: debounce, Now: time.Now}
}

// Scan is the kiosk entry: the QR token names the branch and through it the library.
func (s *Service) Scan(ctx context.Context, req dto.ScanRequest) (dto.ToggleResponse, error) {
	branch, err := s.Store.BranchByToken(ctx, req.Token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ToggleResponse{}, apperror.NotFound("qr code")
		}
		return dto.ToggleResponse{}, apperror.OperationFailed(err, "failed to resolve qr code")
	}
	if !branch.BranchIsActive {
		return dto.ToggleResponse{}, apperror.NotFound("qr code")
	}
	lib, err := s.Store.Library(ctx, branch.BranchLibraryID)
	if err != nil {
		return dto.ToggleResponse{}, apperror.FromDB(err, "library")
	}

	if !s.Debounce.First(ctx, branch.BranchID.String()+":"+req.StudentID.String()) {
		return dto.ToggleResponse{Action: dto.ActionDuplicate, BranchName: branch.BranchName}, nil
	}
	return s.toggle(ctx, branch, req.StudentID, lib.Location(), SourceQR)
}

// Toggle is the desk button for the same flow.
func (s *Service) Toggle(ctx context.Context, libraryID uuid.UUID, loc *time.Location, req dto.ToggleRequest) (dto.ToggleResponse, error) {
	branch, err := s.Store.Branch(ctx, libraryID, req.BranchID)
	if err != nil {
		return dto.ToggleResponse{}, apperror.FromDB(err, "branch")
	}
	if !branch.BranchIsActive {
		return dto.ToggleResponse{}, apperror.Validation("branch is inactive", "branch_id", "must be active")
	}
	return s.toggle(ctx, branch, req.StudentID, loc, SourceDesk)
}

// toggle checks the student out when they have an open visit at this branch today, and in
// otherwise. An open visit elsewhere, or from an earlier day, is closed first: at now for
// another branch today, at the end of its own day for a forgotten check-out. That close is
// committed even when the check-in itself is refused.
func (s *Service) toggle(ctx context.Context, branch *branchModel.BranchModel, studentID uuid.UUID, loc *time.Location, source string) (dto.ToggleResponse, error) {
	libraryID := branch.BranchLibraryID
	now := s.Now().In(loc)
	dayStart, _ := dbtime.DayWindow(now, loc)
	res := dto.ToggleResponse{BranchName: branch.BranchName}
	var refused error

	err := s.Store.Tx(ctx, func(tx repository.Store) error {
		st, err := tx.LockStudent(ctx, libraryID, studentID)
		if err != nil {
			return apperror.FromDB(err, "student")
		}
		res.StudentName = st.StudentName

		open, err := tx.OpenVisit(ctx, libraryID, studentID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.OperationFailed(err, "failed to load attendance")
		}

		if open != nil {
			sameDay := !open.AttendanceCheckIn.Before(dayStart)
			out := now
			if !sameDay {
				out = dbtime.EndOfDay(open.AttendanceCheckIn, loc)
			}
			open.AttendanceCheckOut = &out
			if err := tx.Save(ctx, open); err != nil {
				return apperror.OperationFailed(err, "failed to check out")
			}
			if sameDay && open.AttendanceBranchID == branch.BranchID {
				res.Action = dto.ActionCheckOut
				res.Attendance = open
				return nil
			}
			res.Closed = open
		}

		if st.StudentIsBlocked {
			refused = apperror.Conflict("student is blocked")
			return nil
		}
		live, err := tx.HasLiveSubscription(ctx, libraryID, studentID, now)
		if err != nil {
			return apperror.OperationFailed(err, "failed to check subscription")
		}
		if !live {
			refused = apperror.Validation("student has no running subscription", "student_id", "needs a running subscription")
			return nil
		}

		visit := &model.AttendanceModel{
			AttendanceID:        uuid.New(),
			AttendanceLibraryID: libraryID,
			AttendanceBranchID:  branch.BranchID,
			AttendanceStudentID: studentID,
			AttendanceCheckIn:   now,
			AttendanceSource:    source,
		}
		if err := tx.Create(ctx, visit); err != nil {
			return apperror.OperationFailed(err, "failed to check in")
		}
		res.Action = dto.ActionCheckIn
		res.Attendance = visit
		return nil
	})
	if err != nil {
		return dto.ToggleResponse{}, err
	}
	if refused != nil {
		if res.Closed != nil {
			log.Printf("[ATTENDANCE] closed stale visit=%s student=%s, check-in refused", res.Closed.AttendanceID, studentID)
		}
		return dto.ToggleResponse{}, refused
	}
	log.Printf("[ATTENDANCE] %s student=%s branch=%s source=%s", res.Action, studentID, branch.BranchID, source)
	return res, nil
}
