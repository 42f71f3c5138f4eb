// internals/features/finance/handovers/repository/handover_repository.go
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"librarydesk_backend/internals/features/finance/handovers/dto"
	"librarydesk_backend/internals/features/finance/handovers/ledger"
	"librarydesk_backend/internals/features/finance/handovers/model"
	paymentModel "librarydesk_backend/internals/features/finance/payments/model"
	authModel "librarydesk_backend/internals/features/users/auth/model"
)

// Store is what the handover service needs from persistence.
type Store interface {
	Tx(ctx context.Context, fn func(tx Store) error) error

	Staff(ctx context.Context, libraryID, staffID uuid.UUID) (*authModel.UserModel, error)
	LockStaff(ctx context.Context, libraryID, staffID uuid.UUID) (*authModel.UserModel, error)

	Collections(ctx context.Context, libraryID, staffID uuid.UUID, before time.Time) ([]ledger.Collection, error)
	Handovers(ctx context.Context, libraryID, staffID uuid.UUID, before time.Time) ([]ledger.Handover, error)
	LockPayments(ctx context.Context, libraryID uuid.UUID, ids []uuid.UUID) ([]paymentModel.PaymentModel, error)

	Create(ctx context.Context, h *model.CashHandoverModel) error
	LinkPayments(ctx context.Context, handoverID uuid.UUID, ids []uuid.UUID) error
	UnlinkPayments(ctx context.Context, handoverID uuid.UUID) error
	LockHandover(ctx context.Context, libraryID, id uuid.UUID) (*model.CashHandoverModel, error)
	Save(ctx context.Context, h *model.CashHandoverModel) error
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

func (r *GormRepository) Staff(ctx context.Context, libraryID, staffID uuid.UUID) (*authModel.UserModel, error) {
	var u authModel.UserModel
	if err := r.with(ctx).First(&u, "user_id = ? AND user_library_id = ?", staffID, libraryID).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// LockStaff takes the staff row FOR UPDATE; submissions of one staff member queue behind it.
func (r *GormRepository) LockStaff(ctx context.Context, libraryID, staffID uuid.UUID) (*authModel.UserModel, error) {
	var u authModel.UserModel
	err := r.with(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&u, "user_id = ? AND user_library_id = ?", staffID, libraryID).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Collections are the staff member's completed cash/upi payments paid before the cut-off.
func (r *GormRepository) Collections(ctx context.Context, libraryID, staffID uuid.UUID, before time.Time) ([]ledger.Collection, error) {
	var rows []struct {
		PaymentID            uuid.UUID
		PaymentInvoiceNumber string
		StudentName          string
		PaymentMethod        string
		PaymentAmount        string
		PaymentPaidAt        time.Time
		PaymentHandoverID    *uuid.UUID
	}
	err := r.with(ctx).Table("payments p").
		Select("p.payment_id, p.payment_invoice_number, s.student_name, p.payment_method, p.payment_amount::text AS payment_amount, p.payment_paid_at, p.payment_handover_id").
		Joins("JOIN students s ON s.student_id = p.payment_student_id").
		Where("p.payment_library_id = ? AND p.payment_collected_by = ?", libraryID, staffID).
		Where("p.payment_status = ? AND p.payment_method IN ?", paymentModel.PaymentStatusCompleted, paymentModel.HandCollectedMethods).
		Where("p.payment_paid_at < ?", before).
		Order("p.payment_paid_at").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "load collections")
	}
	out := make([]ledger.Collection, 0, len(rows))
	for _, row := range rows {
		c := ledger.Collection{
			PaymentID:     row.PaymentID,
			InvoiceNumber: row.PaymentInvoiceNumber,
			StudentName:   row.StudentName,
			Method:        row.PaymentMethod,
			PaidAt:        row.PaymentPaidAt,
			HandoverID:    row.PaymentHandoverID,
		}
		if c.Amount, err = parseAmount(row.PaymentAmount); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *GormRepository) Handovers(ctx context.Context, libraryID, staffID uuid.UUID, before time.Time) ([]ledger.Handover, error) {
	var rows []model.CashHandoverModel
	err := r.with(ctx).
		Where("handover_library_id = ? AND handover_staff_id = ? AND handover_created_at < ?", libraryID, staffID, before).
		Order("handover_created_at").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "load handovers")
	}
	out := make([]ledger.Handover, 0, len(rows))
	for _, h := range rows {
		out = append(out, ledger.Handover{
			ID: h.HandoverID, Amount: h.HandoverAmount, Method: string(h.HandoverMethod),
			Status: h.HandoverStatus, CreatedAt: h.CreatedAt,
		})
	}
	return out, nil
}

func (r *GormRepository) LockPayments(ctx context.Context, libraryID uuid.UUID, ids []uuid.UUID) ([]paymentModel.PaymentModel, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []paymentModel.PaymentModel
	err := r.with(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("payment_library_id = ? AND payment_id IN ?", libraryID, ids).
		Find(&rows).Error
	return rows, errors.Wrap(err, "lock payments")
}

func (r *GormRepository) Create(ctx context.Context, h *model.CashHandoverModel) error {
	return r.with(ctx).Create(h).Error
}

func (r *GormRepository) LinkPayments(ctx context.Context, handoverID uuid.UUID, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.with(ctx).Model(&paymentModel.PaymentModel{}).
		Where("payment_id IN ?", ids).
		Update("payment_handover_id", handoverID).Error
}

func (r *GormRepository) UnlinkPayments(ctx context.Context, handoverID uuid.UUID) error {
	return r.with(ctx).Model(&paymentModel.PaymentModel{}).
		Where("payment_handover_id = ?", handoverID).
		Update("payment_handover_id", nil).Error
}

func (r *GormRepository) LockHandover(ctx context.Context, libraryID, id uuid.UUID) (*model.CashHandoverModel, error) {
	var h model.CashHandoverModel
	err := r.with(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&h, "handover_id = ? AND handover_library_id = ?", id, libraryID).Error
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *GormRepository) Save(ctx context.Context, h *model.CashHandoverModel) error {
	return r.with(ctx).Save(h).Error
}

/* ===== Listing ===== */

// List returns handovers of [from, to) with staff and reviewer names, newest first.
func (r *GormRepository) List(ctx context.Context, libraryID uuid.UUID, staffID *uuid.UUID, status string, from, to time.Time, limit, offset int) ([]dto.HandoverRow, int64, error) {
	q := r.with(ctx).Table("cash_handovers h").
		Joins("JOIN users su ON su.user_id = h.handover_staff_id").
		Joins("LEFT JOIN users ru ON ru.user_id = h.handover_reviewed_by").
		Where("h.handover_library_id = ?", libraryID).
		Where("h.handover_created_at >= ? AND h.handover_created_at < ?", from, to)
	if staffID != nil {
		q = q.Where("h.handover_staff_id = ?", *staffID)
	}
	if status != "" {
		q = q.Where("h.handover_status = ?", status)
	}
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count handovers")
	}
	var rows []dto.HandoverRow
	err := q.Session(&gorm.Session{}).
		Select("h.*, su.user_name AS staff_name, ru.user_name AS reviewer_name").
		Order("h.handover_created_at DESC").
		Limit(limit).Offset(offset).
		Scan(&rows).Error
	return rows, total, errors.Wrap(err, "list handovers")
}

// PendingTotal is what the library still has to review; used by the dashboard.
func (r *GormRepository) PendingTotal(ctx context.Context, libraryID uuid.UUID) (string, int64, error) {
	var row struct {
		Total string
		Count int64
	}
	err := r.with(ctx).Model(&model.CashHandoverModel{}).
		Select("COALESCE(SUM(handover_amount), 0)::text AS total, COUNT(*) AS count").
		Where("handover_library_id = ? AND handover_status = ?", libraryID, model.HandoverPending).
		Scan(&row).Error
	return row.Total, row.Count, errors.Wrap(err, "pending handovers")
}
