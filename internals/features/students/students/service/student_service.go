// internals/features/students/students/service/student_service.go
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"librarydesk_backend/internals/features/students/status"
	"librarydesk_backend/internals/features/students/students/dto"
	"librarydesk_backend/internals/features/students/students/model"
	studentRepo "librarydesk_backend/internals/features/students/students/repository"
	subModel "librarydesk_backend/internals/features/subscriptions/subscriptions/model"
	helper "librarydesk_backend/internals/helpers"
	"librarydesk_backend/internals/helpers/apperror"
)

type Repository interface {
	Page(ctx context.Context, pred status.Predicate, limit, offset int) ([]model.StudentModel, int64, error)
	Count(ctx context.Context, pred status.Predicate) (int64, error)
	Find(ctx context.Context, libraryID, studentID uuid.UUID) (*model.StudentModel, error)
	Subscriptions(ctx context.Context, libraryID uuid.UUID, studentIDs []uuid.UUID) ([]subModel.SubscriptionModel, error)
	Names(ctx context.Context, libraryID uuid.UUID, subs []subModel.SubscriptionModel) (studentRepo.Names, error)
	Purge(ctx context.Context, libraryID, studentID uuid.UUID, check func(studentRepo.Blockers) error) (studentRepo.Purged, error)
}

type Service struct {
	Repo Repository
	Now  func() time.Time
}

func New(repo Repository) *Service {
	return &Service{Repo: repo, Now: time.Now}
}

/* ===== List ===== */

// List runs the compiled filter for one page and tags every row with its derived status.
func (s *Service) List(ctx context.Context, f status.Filter, page, limit int) (dto.StudentListResponse, error) {
	now := s.Now()
	pred, err := status.Compile(f, now)
	if err != nil {
		return dto.StudentListResponse{}, err
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = helper.DefaultOpts.DefaultPerPage
	}

	rows, total, err := s.Repo.Page(ctx, pred, limit, (page-1)*limit)
	if err != nil {
		return dto.StudentListResponse{}, apperror.OperationFailed(err, "failed to list students")
	}

	subs, err := s.Repo.Subscriptions(ctx, f.LibraryID, lo.Map(rows, func(m model.StudentModel, _ int) uuid.UUID { return m.StudentID }))
	if err != nil {
		return dto.StudentListResponse{}, apperror.OperationFailed(err, "failed to list students")
	}
	names, err := s.Repo.Names(ctx, f.LibraryID, subs)
	if err != nil {
		return dto.StudentListResponse{}, apperror.OperationFailed(err, "failed to list students")
	}
	byStudent := lo.GroupBy(subs, func(sub subModel.SubscriptionModel) uuid.UUID { return sub.SubscriptionStudentID })

	out := make([]dto.StudentRow, 0, len(rows))
	for _, st := range rows {
		res := status.Derive(status.Record{
			LibraryID:     f.LibraryID,
			Student:       st,
			Subscriptions: byStudent[st.StudentID],
		}, f.BranchID, now)
		out = append(out, toRow(st, res, names))
	}

	return dto.StudentListResponse{
		Students: out,
		Total:    total,
		Pages:    helper.Pages(total, limit),
		Page:     page,
		Limit:    limit,
	}, nil
}

func toRow(st model.StudentModel, res status.Result, names studentRepo.Names) dto.StudentRow {
	row := dto.StudentRow{
		StudentID:    st.StudentID,
		Name:         st.StudentName,
		Email:        st.StudentEmail,
		Phone:        st.StudentPhone,
		HomeBranchID: st.StudentBranchID,
		IsBlocked:    st.StudentIsBlocked,
		IDStatus:     string(st.StudentIDStatus),
		CreatedAt:    st.CreatedAt,
		Status:       string(res.Status),
	}
	if res.Display != nil {
		b := ToBrief(*res.Display, names)
		row.CurrentSub = &b
		row.CurrentPlan = &b.PlanName
		row.CurrentBranch = &b.BranchName
		row.SeatNumber = b.SeatNumber
	}
	return row
}

// ToBrief flattens a subscription with display names.
func ToBrief(sub subModel.SubscriptionModel, names studentRepo.Names) dto.SubscriptionBrief {
	b := dto.SubscriptionBrief{
		SubscriptionID: sub.SubscriptionID,
		PlanName:       names.Plans[sub.SubscriptionPlanID],
		BranchName:     names.Branches[sub.SubscriptionBranchID],
		Status:         string(sub.SubscriptionStatus),
		StartDate:      sub.SubscriptionStartDate,
		EndDate:        sub.SubscriptionEndDate,
		Amount:         sub.SubscriptionAmount.StringFixed(2),
	}
	if sub.SubscriptionSeatID != nil {
		if n, ok := names.Seats[*sub.SubscriptionSeatID]; ok {
			b.SeatNumber = &n
		}
	}
	if sub.SubscriptionLockerID != nil {
		if n, ok := names.Lockers[*sub.SubscriptionLockerID]; ok {
			b.LockerNumber = &n
		}
	}
	return b
}

/* ===== Detail ===== */

func (s *Service) Detail(ctx context.Context, libraryID, studentID uuid.UUID) (dto.StudentDetail, error) {
	st, err := s.Repo.Find(ctx, libraryID, studentID)
	if err != nil {
		return dto.StudentDetail{}, apperror.FromDB(err, "student")
	}
	subs, err := s.Repo.Subscriptions(ctx, libraryID, []uuid.UUID{st.StudentID})
	if err != nil {
		return dto.StudentDetail{}, apperror.OperationFailed(err, "failed to load student")
	}
	names, err := s.Repo.Names(ctx, libraryID, subs)
	if err != nil {
		return dto.StudentDetail{}, apperror.OperationFailed(err, "failed to load student")
	}

	res := status.Derive(status.Record{LibraryID: libraryID, Student: *st, Subscriptions: subs}, nil, s.Now())
	out := dto.StudentDetail{
		Student:       *st,
		Status:        string(res.Status),
		Subscriptions: lo.Map(subs, func(sub subModel.SubscriptionModel, _ int) dto.SubscriptionBrief { return ToBrief(sub, names) }),
	}
	if res.Display != nil {
		b := ToBrief(*res.Display, names)
		out.Current = &b
	}
	return out, nil
}

/* ===== Delete ===== */

// Delete removes a student the tenant owns together with its subscriptions, fees, notes and
// attendance. Students with payments stay, so the cash ledger keeps its history; block them instead.
func (s *Service) Delete(ctx context.Context, libraryID, studentID uuid.UUID) (studentRepo.Purged, error) {
	purged, err := s.Repo.Purge(ctx, libraryID, studentID, func(b studentRepo.Blockers) error {
		if b.Payments > 0 {
			return apperror.Conflict("student has payments, block the student instead")
		}
		if b.ForeignSubscriptions > 0 {
			return apperror.Conflict("student is subscribed at another library")
		}
		return nil
	})
	if err != nil {
		return studentRepo.Purged{}, apperror.FromDB(err, "student")
	}
	return purged, nil
}

/* ===== Counts ===== */

// CountByStatus counts the tenant's students per derived status using the compiled predicates.
func (s *Service) CountByStatus(ctx context.Context, libraryID uuid.UUID, branchID *uuid.UUID) (map[status.Status]int64, error) {
	now := s.Now()
	out := make(map[status.Status]int64, len(status.All))
	for _, st := range status.All {
		pred, err := status.Compile(status.Filter{LibraryID: libraryID, BranchID: branchID, Status: st}, now)
		if err != nil {
			return nil, err
		}
		n, err := s.Repo.Count(ctx, pred)
		if err != nil {
			return nil, apperror.OperationFailed(err, "failed to count students")
		}
		out[st] = n
	}
	return out, nil
}
