// internals/features/subscriptions/subscriptions/repository/subscription_repository.go
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	branchModel "librarydesk_backend/internals/features/libraries/branches/model"
	planModel "librarydesk_backend/internals/features/libraries/plans/model"
	seatModel "librarydesk_backend/internals/features/libraries/seats/model"
	seatRepo "librarydesk_backend/internals/features/libraries/seats/repository"
	noteModel "librarydesk_backend/internals/features/students/notes/model"
	studentModel "librarydesk_backend/internals/features/students/students/model"
	studentRepo "librarydesk_backend/internals/features/students/students/repository"
	"librarydesk_backend/internals/features/subscriptions/subscriptions/model"
)

// Store is what the subscription service needs from persistence.
type Store interface {
	Tx(ctx context.Context, fn func(tx Store) error) error

	Student(ctx context.Context, libraryID, id uuid.UUID) (*studentModel.StudentModel, error)
	VisibleStudent(ctx context.Context, libraryID, id uuid.UUID) (*studentModel.StudentModel, error)
	Branch(ctx context.Context, libraryID, id uuid.UUID) (*branchModel.BranchModel, error)
	Plan(ctx context.Context, libraryID, id uuid.UUID) (*planModel.PlanModel, error)
	Subscription(ctx context.Context, libraryID, id uuid.UUID) (*model.SubscriptionModel, error)
	LockSubscription(ctx context.Context, libraryID, id uuid.UUID) (*model.SubscriptionModel, error)
	LockUnit(ctx context.Context, u seatRepo.Unit, libraryID, branchID, id uuid.UUID) (string, error)
	Occupants(ctx context.Context, u seatRepo.Unit, id uuid.UUID, from, to time.Time, exclude *uuid.UUID) ([]model.SubscriptionModel, error)
	LatestEnd(ctx context.Context, libraryID, studentID, branchID uuid.UUID) (*time.Time, error)

	Create(ctx context.Context, m *model.SubscriptionModel) error
	Save(ctx context.Context, m *model.SubscriptionModel) error
	AddNote(ctx context.Context, n *noteModel.StudentNoteModel) error

	ListForStudent(ctx context.Context, libraryID, studentID uuid.UUID) ([]model.SubscriptionModel, error)
	Names(ctx context.Context, libraryID uuid.UUID, subs []model.SubscriptionModel) (studentRepo.Names, error)
	Sweep(ctx context.Context, now time.Time) (activated, expired int64, err error)
}

type GormRepository struct {
	DB *gorm.DB
}

var _ Store = (*GormRepository)(nil)

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{DB: db}
}

func (r *GormRepository) with(ctx context.Context) *gorm.DB { return r.DB.WithContext(ctx) }

// Tx runs fn against a repository bound to one transaction.
func (r *GormRepository) Tx(ctx context.Context, fn func(tx Store) error) error {
	return r.with(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRepository{DB: tx})
	})
}

func (r *GormRepository) Student(ctx context.Context, libraryID, id uuid.UUID) (*studentModel.StudentModel, error) {
	var m studentModel.StudentModel
	if err := r.with(ctx).First(&m, "student_id = ? AND student_library_id = ?", id, libraryID).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// VisibleStudent also admits students of other libraries holding one of this tenant's subscriptions.
func (r *GormRepository) VisibleStudent(ctx context.Context, libraryID, id uuid.UUID) (*studentModel.StudentModel, error) {
	return studentRepo.NewGormRepository(r.DB).Find(ctx, libraryID, id)
}

func (r *GormRepository) Branch(ctx context.Context, libraryID, id uuid.UUID) (*branchModel.BranchModel, error) {
	var m branchModel.BranchModel
	if err := r.with(ctx).First(&m, "branch_id = ? AND branch_library_id = ?", id, libraryID).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *GormRepository) Plan(ctx context.Context, libraryID, id uuid.UUID) (*planModel.PlanModel, error) {
	var m planModel.PlanModel
	if err := r.with(ctx).First(&m, "plan_id = ? AND plan_library_id = ?", id, libraryID).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// LockSubscription reads the row FOR UPDATE; call inside Tx.
func (r *GormRepository) LockSubscription(ctx context.Context, libraryID, id uuid.UUID) (*model.SubscriptionModel, error) {
	var m model.SubscriptionModel
	if err := r.with(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&m, "subscription_id = ? AND subscription_library_id = ?", id, libraryID).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *GormRepository) Subscription(ctx context.Context, libraryID, id uuid.UUID) (*model.SubscriptionModel, error) {
	var m model.SubscriptionModel
	if err := r.with(ctx).First(&m, "subscription_id = ? AND subscription_library_id = ?", id, libraryID).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// LockUnit locks a seat or locker row of the branch so two desks cannot hand out the same one.
// It returns the unit's number.
func (r *GormRepository) LockUnit(ctx context.Context, u seatRepo.Unit, libraryID, branchID, id uuid.UUID) (string, error) {
	q := r.with(ctx).Clauses(clause.Locking{Strength: "UPDATE"})
	cond := fmt.Sprintf("%[1]s_id = ? AND %[1]s_library_id = ? AND %[1]s_branch_id = ? AND %[1]s_is_active = TRUE", u.Prefix)
	if u == seatRepo.Seat {
		var s seatModel.SeatModel
		if err := q.First(&s, cond, id, libraryID, branchID).Error; err != nil {
			return "", err
		}
		return s.SeatNumber, nil
	}
	var l seatModel.LockerModel
	if err := q.First(&l, cond, id, libraryID, branchID).Error; err != nil {
		return "", err
	}
	return l.LockerNumber, nil
}

// Occupants lists subscriptions other than exclude holding the unit somewhere in [from, to].
func (r *GormRepository) Occupants(ctx context.Context, u seatRepo.Unit, id uuid.UUID, from, to time.Time, exclude *uuid.UUID) ([]model.SubscriptionModel, error) {
	q := r.with(ctx).
		Where(u.SubColumn+" = ?", id).
		Where("subscription_status IN ?", []model.SubscriptionStatus{model.SubscriptionActive, model.SubscriptionPending}).
		Where("subscription_start_date < ? AND subscription_end_date > ?", to, from)
	if exclude != nil {
		q = q.Where("subscription_id <> ?", *exclude)
	}
	var rows []model.SubscriptionModel
	err := q.Find(&rows).Error
	return rows, errors.Wrap(err, "load occupants")
}

func (r *GormRepository) Create(ctx context.Context, m *model.SubscriptionModel) error {
	return r.with(ctx).Create(m).Error
}

func (r *GormRepository) Save(ctx context.Context, m *model.SubscriptionModel) error {
	return r.with(ctx).Save(m).Error
}

// LatestEnd is the furthest end date among the student's running subscriptions in a branch.
func (r *GormRepository) LatestEnd(ctx context.Context, libraryID, studentID, branchID uuid.UUID) (*time.Time, error) {
	var end sql.NullTime
	err := r.with(ctx).Model(&model.SubscriptionModel{}).
		Select("MAX(subscription_end_date)").
		Where("subscription_library_id = ? AND subscription_student_id = ? AND subscription_branch_id = ?", libraryID, studentID, branchID).
		Where("subscription_status IN ?", []model.SubscriptionStatus{model.SubscriptionActive, model.SubscriptionPending}).
		Scan(&end).Error
	if err != nil || !end.Valid {
		return nil, errors.Wrap(err, "latest end")
	}
	return &end.Time, nil
}

func (r *GormRepository) AddNote(ctx context.Context, n *noteModel.StudentNoteModel) error {
	return r.with(ctx).Create(n).Error
}

func (r *GormRepository) ListForStudent(ctx context.Context, libraryID, studentID uuid.UUID) ([]model.SubscriptionModel, error) {
	var rows []model.SubscriptionModel
	err := r.with(ctx).
		Where("subscription_library_id = ? AND subscription_student_id = ?", libraryID, studentID).
		Order("subscription_start_date DESC").
		Find(&rows).Error
	return rows, errors.Wrap(err, "list subscriptions")
}

func (r *GormRepository) Names(ctx context.Context, libraryID uuid.UUID, subs []model.SubscriptionModel) (studentRepo.Names, error) {
	return studentRepo.NewGormRepository(r.DB).Names(ctx, libraryID, subs)
}

/* ===== Sweep ===== */

// Sweep starts due pending subscriptions and expires lapsed active ones across all tenants.
func (r *GormRepository) Sweep(ctx context.Context, now time.Time) (activated, expired int64, err error) {
	err = r.with(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.SubscriptionModel{}).
			Where("subscription_status = ? AND subscription_start_date <= ? AND subscription_end_date >= ?", model.SubscriptionPending, now, now).
			Updates(map[string]any{"subscription_status": model.SubscriptionActive, "subscription_updated_at": now})
		if res.Error != nil {
			return errors.Wrap(res.Error, "activate pending")
		}
		activated = res.RowsAffected

		res = tx.Model(&model.SubscriptionModel{}).
			Where("subscription_status IN ? AND subscription_end_date < ?",
				[]model.SubscriptionStatus{model.SubscriptionActive, model.SubscriptionPending}, now).
			Updates(map[string]any{"subscription_status": model.SubscriptionExpired, "subscription_updated_at": now})
		if res.Error != nil {
			return errors.Wrap(res.Error, "expire lapsed")
		}
		expired = res.RowsAffected
		return nil
	})
	return activated, expired, err
}
