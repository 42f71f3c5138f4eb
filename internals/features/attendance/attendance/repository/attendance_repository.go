// internals/features/attendance/attendance/repository/attendance_repository.go
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"librarydesk_backend/internals/features/attendance/attendance/dto"
	"librarydesk_backend/internals/features/attendance/attendance/model"
	branchModel "librarydesk_backend/internals/features/libraries/branches/model"
	branchRepo "librarydesk_backend/internals/features/libraries/branches/repository"
	libModel "librarydesk_backend/internals/features/libraries/libraries/model"
	studentModel "librarydesk_backend/internals/features/students/students/model"
	studentRepo "librarydesk_backend/internals/features/students/students/repository"
	subModel "librarydesk_backend/internals/features/subscriptions/subscriptions/model"
)

type Store interface {
	Tx(ctx context.Context, fn func(tx Store) error) error

	Library(ctx context.Context, libraryID uuid.UUID) (*libModel.LibraryModel, error)
	BranchByToken(ctx context.Context, token string) (*branchModel.BranchModel, error)
	Branch(ctx context.Context, libraryID, branchID uuid.UUID) (*branchModel.BranchModel, error)
	// LockStudent locks the student row; visits of one student are toggled one at a time.
	LockStudent(ctx context.Context, libraryID, studentID uuid.UUID) (*studentModel.StudentModel, error)
	HasLiveSubscription(ctx context.Context, libraryID, studentID uuid.UUID, now time.Time) (bool, error)

	OpenVisit(ctx context.Context, libraryID, studentID uuid.UUID) (*model.AttendanceModel, error)
	Create(ctx context.Context, a *model.AttendanceModel) error
	Save(ctx context.Context, a *model.AttendanceModel) error
}

type GormRepository struct {
	DB *gorm.DB
}

var _ Store = (*GormRepository)(nil)

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{DB: db}
}

func (r *GormRepository) with(ctx context.Context) *gorm.DB { return r.DB.WithContext(ctx) }

func (r *GormRepository) Tx(ctx context.Context, fn func(tx Store) error) error {
	return r.with(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRepository{DB: tx})
	})
}

func (r *GormRepository) Library(ctx context.Context, libraryID uuid.UUID) (*libModel.LibraryModel, error) {
	var l libModel.LibraryModel
	if err := r.with(ctx).First(&l, "library_id = ?", libraryID).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *GormRepository) BranchByToken(ctx context.Context, token string) (*branchModel.BranchModel, error) {
	return branchRepo.FindBranchByQRToken(ctx, r.DB, token)
}

func (r *GormRepository) Branch(ctx context.Context, libraryID, branchID uuid.UUID) (*branchModel.BranchModel, error) {
	return branchRepo.FindBranch(ctx, r.DB, libraryID, branchID)
}

// LockStudent accepts any student visible to the library, owned or subscribed.
func (r *GormRepository) LockStudent(ctx context.Context, libraryID, studentID uuid.UUID) (*studentModel.StudentModel, error) {
	if _, err := studentRepo.NewGormRepository(r.DB).Find(ctx, libraryID, studentID); err != nil {
		return nil, err
	}
	var m studentModel.StudentModel
	err := r.with(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&m, "student_id = ?", studentID).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *GormRepository) HasLiveSubscription(ctx context.Context, libraryID, studentID uuid.UUID, now time.Time) (bool, error) {
	var n int64
	err := r.with(ctx).Model(&subModel.SubscriptionModel{}).
		Where("subscription_library_id = ? AND subscription_student_id = ?", libraryID, studentID).
		Where("subscription_status = ? AND subscription_end_date >= ?", subModel.SubscriptionActive, now).
		Count(&n).Error
	return n > 0, errors.Wrap(err, "check live subscription")
}

// OpenVisit returns the student's latest visit without a check-out, or gorm.ErrRecordNotFound.
func (r *GormRepository) OpenVisit(ctx context.Context, libraryID, studentID uuid.UUID) (*model.AttendanceModel, error) {
	var a model.AttendanceModel
	err := r.with(ctx).
		Where("attendance_library_id = ? AND attendance_student_id = ? AND attendance_check_out_at IS NULL", libraryID, studentID).
		Order("attendance_check_in_at DESC").
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *GormRepository) Create(ctx context.Context, a *model.AttendanceModel) error {
	return r.with(ctx).Create(a).Error
}

func (r *GormRepository) Save(ctx context.Context, a *model.AttendanceModel) error {
	return r.with(ctx).Save(a).Error
}

/* ===== Listing ===== */

type ListFilter struct {
	LibraryID uuid.UUID
	From, To  time.Time
	BranchID  *uuid.UUID
	StudentID *uuid.UUID
	OpenOnly  bool
}

// List returns visits checked in during [From, To), newest first, plus the total and how many are still open.
func (r *GormRepository) List(ctx context.Context, f ListFilter, limit, offset int) ([]dto.AttendanceRow, int64, int64, error) {
	q := r.with(ctx).Table("attendance a").
		Joins("JOIN students s ON s.student_id = a.attendance_student_id").
		Joins("JOIN branches b ON b.branch_id = a.attendance_branch_id").
		Where("a.attendance_library_id = ?", f.LibraryID).
		Where("a.attendance_check_in_at >= ? AND a.attendance_check_in_at < ?", f.From, f.To)
	if f.BranchID != nil {
		q = q.Where("a.attendance_branch_id = ?", *f.BranchID)
	}
	if f.StudentID != nil {
		q = q.Where("a.attendance_student_id = ?", *f.StudentID)
	}
	if f.OpenOnly {
		q = q.Where("a.attendance_check_out_at IS NULL")
	}

	var total, present int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, 0, errors.Wrap(err, "count attendance")
	}
	if err := q.Session(&gorm.Session{}).Where("a.attendance_check_out_at IS NULL").Count(&present).Error; err != nil {
		return nil, 0, 0, errors.Wrap(err, "count present")
	}

	var rows []dto.AttendanceRow
	err := q.Session(&gorm.Session{}).
		Select("a.*, s.student_name, b.branch_name").
		Order("a.attendance_check_in_at DESC").
		Limit(limit).Offset(offset).
		Scan(&rows).Error
	return rows, total, present, errors.Wrap(err, "list attendance")
}

// CheckIns counts visits started in [from, to); used by the dashboard.
func (r *GormRepository) CheckIns(ctx context.Context, libraryID uuid.UUID, from, to time.Time) (int64, error) {
	var n int64
	err := r.with(ctx).Model(&model.AttendanceModel{}).
		Where("attendance_library_id = ? AND attendance_check_in_at >= ? AND attendance_check_in_at < ?", libraryID, from, to).
		Count(&n).Error
	return n, errors.Wrap(err, "count check-ins")
}
