package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	branchModel "librarydesk_backend/internals/features/libraries/branches/model"
	planModel "librarydesk_backend/internals/features/libraries/plans/model"
	seatModel "librarydesk_backend/internals/features/libraries/seats/model"
	"librarydesk_backend/internals/features/students/status"
	"librarydesk_backend/internals/features/students/students/model"
	subModel "librarydesk_backend/internals/features/subscriptions/subscriptions/model"
)

// Names resolves ids shown on student rows.
type Names struct {
	Plans    map[uuid.UUID]string
	Branches map[uuid.UUID]string
	Seats    map[uuid.UUID]string
	Lockers  map[uuid.UUID]string
}

type GormRepository struct {
	DB *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{DB: db}
}

// Page returns one page of students matching pred plus the total under the same predicate.
func (r *GormRepository) Page(ctx context.Context, pred status.Predicate, limit, offset int) ([]model.StudentModel, int64, error) {
	q := r.DB.WithContext(ctx).Model(&model.StudentModel{}).Scopes(status.Scope(pred))

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count students")
	}
	var rows []model.StudentModel
	if err := q.Order("student_created_at DESC, student_id").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, 0, errors.Wrap(err, "list students")
	}
	return rows, total, nil
}

func (r *GormRepository) Count(ctx context.Context, pred status.Predicate) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.StudentModel{}).Scopes(status.Scope(pred)).Count(&n).Error
	return n, errors.Wrap(err, "count students")
}

// Find loads a student visible to the tenant: owned by it or holding one of its subscriptions.
func (r *GormRepository) Find(ctx context.Context, libraryID, studentID uuid.UUID) (*model.StudentModel, error) {
	base, args := status.Or(status.TenantOwned{LibraryID: libraryID}, status.HasSubscription{LibraryID: libraryID}).SQL()

	var m model.StudentModel
	err := r.DB.WithContext(ctx).
		Where("student_id = ?", studentID).
		Where(base, args...).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// FindOwned is Find restricted to rows the tenant may edit.
func (r *GormRepository) FindOwned(ctx context.Context, libraryID, studentID uuid.UUID) (*model.StudentModel, error) {
	var m model.StudentModel
	err := r.DB.WithContext(ctx).
		First(&m, "student_id = ? AND student_library_id = ?", studentID, libraryID).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Subscriptions returns the tenant's subscriptions of the given students.
func (r *GormRepository) Subscriptions(ctx context.Context, libraryID uuid.UUID, studentIDs []uuid.UUID) ([]subModel.SubscriptionModel, error) {
	if len(studentIDs) == 0 {
		return nil, nil
	}
	var rows []subModel.SubscriptionModel
	err := r.DB.WithContext(ctx).
		Where("subscription_library_id = ? AND subscription_student_id IN ?", libraryID, studentIDs).
		Order("subscription_start_date DESC").
		Find(&rows).Error
	return rows, errors.Wrap(err, "load subscriptions")
}

func (r *GormRepository) Names(ctx context.Context, libraryID uuid.UUID, subs []subModel.SubscriptionModel) (Names, error) {
	out := Names{
		Plans:    map[uuid.UUID]string{},
		Branches: map[uuid.UUID]string{},
		Seats:    map[uuid.UUID]string{},
		Lockers:  map[uuid.UUID]string{},
	}
	var planIDs, branchIDs, seatIDs, lockerIDs []uuid.UUID
	for _, s := range subs {
		planIDs = append(planIDs, s.SubscriptionPlanID)
		branchIDs = append(branchIDs, s.SubscriptionBranchID)
		if s.SubscriptionSeatID != nil {
			seatIDs = append(seatIDs, *s.SubscriptionSeatID)
		}
		if s.SubscriptionLockerID != nil {
			lockerIDs = append(lockerIDs, *s.SubscriptionLockerID)
		}
	}
	db := r.DB.WithContext(ctx)

	if len(planIDs) > 0 {
		var plans []planModel.PlanModel
		if err := db.Where("plan_library_id = ? AND plan_id IN ?", libraryID, planIDs).Find(&plans).Error; err != nil {
			return out, errors.Wrap(err, "load plans")
		}
		for _, p := range plans {
			out.Plans[p.PlanID] = p.PlanName
		}
	}
	if len(branchIDs) > 0 {
		var branches []branchModel.BranchModel
		if err := db.Unscoped().Where("branch_library_id = ? AND branch_id IN ?", libraryID, branchIDs).Find(&branches).Error; err != nil {
			return out, errors.Wrap(err, "load branches")
		}
		for _, b := range branches {
			out.Branches[b.BranchID] = b.BranchName
		}
	}
	if len(seatIDs) > 0 {
		var seats []seatModel.SeatModel
		if err := db.Where("seat_library_id = ? AND seat_id IN ?", libraryID, seatIDs).Find(&seats).Error; err != nil {
			return out, errors.Wrap(err, "load seats")
		}
		for _, s := range seats {
			out.Seats[s.SeatID] = s.SeatNumber
		}
	}
	if len(lockerIDs) > 0 {
		var lockers []seatModel.LockerModel
		if err := db.Where("locker_library_id = ? AND locker_id IN ?", libraryID, lockerIDs).Find(&lockers).Error; err != nil {
			return out, errors.Wrap(err, "load lockers")
		}
		for _, l := range lockers {
			out.Lockers[l.LockerID] = l.LockerNumber
		}
	}
	return out, nil
}

/* ===== Delete ===== */

// Blockers are rows that keep a student from being hard-deleted.
type Blockers struct {
	Payments             int64 // any tenant; payments feed the cash ledger
	ForeignSubscriptions int64 // subscriptions held at another library
}

// Purged counts what a cascade removed.
type Purged struct {
	Subscriptions int64 `json:"subscriptions"`
	Fees          int64 `json:"fees"`
	Notes         int64 `json:"notes"`
	Attendance    int64 `json:"attendance"`
}

// Purge locks the tenant's own student row, hands the blockers to check and, when check passes,
// deletes the student with its subscriptions, unpaid fees, notes and attendance in one tx.
func (r *GormRepository) Purge(ctx context.Context, libraryID, studentID uuid.UUID, check func(Blockers) error) (Purged, error) {
	var out Purged
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m model.StudentModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&m, "student_id = ? AND student_library_id = ?", studentID, libraryID).Error; err != nil {
			return err
		}

		var b Blockers
		if err := tx.Table("payments").Where("payment_student_id = ?", studentID).Count(&b.Payments).Error; err != nil {
			return errors.Wrap(err, "count payments")
		}
		if err := tx.Model(&subModel.SubscriptionModel{}).
			Where("subscription_student_id = ? AND subscription_library_id <> ?", studentID, libraryID).
			Count(&b.ForeignSubscriptions).Error; err != nil {
			return errors.Wrap(err, "count subscriptions")
		}
		if err := check(b); err != nil {
			return err
		}

		steps := []struct {
			sql string
			n   *int64
		}{
			{`DELETE FROM subscriptions WHERE subscription_student_id = ? AND subscription_library_id = ?`, &out.Subscriptions},
			{`DELETE FROM additional_fees WHERE fee_student_id = ? AND fee_library_id = ?`, &out.Fees},
			{`DELETE FROM student_notes WHERE note_student_id = ? AND note_library_id = ?`, &out.Notes},
			{`DELETE FROM attendance WHERE attendance_student_id = ? AND attendance_library_id = ?`, &out.Attendance},
		}
		for _, st := range steps {
			res := tx.Exec(st.sql, studentID, libraryID)
			if res.Error != nil {
				return errors.Wrap(res.Error, "cascade student")
			}
			*st.n = res.RowsAffected
		}
		return tx.Delete(&m).Error
	})
	return out, err
}
