// internals/features/dashboard/stats/repository/dashboard_repository.go
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	attendanceRepo "librarydesk_backend/internals/features/attendance/attendance/repository"
	"librarydesk_backend/internals/features/dashboard/stats/dto"
	handoverRepo "librarydesk_backend/internals/features/finance/handovers/repository"
	paymentModel "librarydesk_backend/internals/features/finance/payments/model"
	branchRepo "librarydesk_backend/internals/features/libraries/branches/repository"
)

// MonthMethodSum is one (month, method) bucket of completed payments.
type MonthMethodSum struct {
	Month  string
	Method string
	Total  decimal.Decimal
	Count  int64
}

type GormRepository struct {
	DB *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{DB: db}
}

func (r *GormRepository) CheckIns(ctx context.Context, libraryID uuid.UUID, from, to time.Time) (int64, error) {
	return attendanceRepo.NewGormRepository(r.DB).CheckIns(ctx, libraryID, from, to)
}

// Revenue sums completed payments paid in [from, to).
func (r *GormRepository) Revenue(ctx context.Context, libraryID uuid.UUID, from, to time.Time) (decimal.Decimal, int64, error) {
	var row struct {
		Total string
		Count int64
	}
	err := r.DB.WithContext(ctx).Model(&paymentModel.PaymentModel{}).
		Select("COALESCE(SUM(payment_amount), 0)::text AS total, COUNT(*) AS count").
		Where("payment_library_id = ? AND payment_status = ?", libraryID, paymentModel.PaymentStatusCompleted).
		Where("payment_paid_at >= ? AND payment_paid_at < ?", from, to).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, 0, errors.Wrap(err, "sum revenue")
	}
	total, err := decimal.NewFromString(row.Total)
	return total, row.Count, errors.Wrap(err, "parse revenue")
}

func (r *GormRepository) PendingVerifications(ctx context.Context, libraryID uuid.UUID) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&paymentModel.PaymentModel{}).
		Where("payment_library_id = ? AND payment_status = ?", libraryID, paymentModel.PaymentStatusPendingVerification).
		Count(&n).Error
	return n, errors.Wrap(err, "count pending verifications")
}

func (r *GormRepository) PendingHandovers(ctx context.Context, libraryID uuid.UUID) (dto.PendingAmount, error) {
	s, n, err := handoverRepo.NewGormRepository(r.DB).PendingTotal(ctx, libraryID)
	if err != nil {
		return dto.PendingAmount{}, err
	}
	total, err := decimal.NewFromString(s)
	return dto.PendingAmount{Count: n, Total: total}, errors.Wrap(err, "parse pending handovers")
}

func (r *GormRepository) Seats(ctx context.Context, libraryID uuid.UUID, branchID *uuid.UUID, now time.Time) (dto.SeatUsage, error) {
	stats, err := branchRepo.SeatStatsByBranch(ctx, r.DB, libraryID, now)
	if err != nil {
		return dto.SeatUsage{}, errors.Wrap(err, "seat stats")
	}
	var u dto.SeatUsage
	for id, s := range stats {
		if branchID != nil && id != *branchID {
			continue
		}
		u.Total += s.Seats
		u.Occupied += s.Occupied
	}
	u.Free = u.Total - u.Occupied
	return u, nil
}

// RevenueByMonth buckets completed payments of [from, to) by library-local month and method.
func (r *GormRepository) RevenueByMonth(ctx context.Context, libraryID uuid.UUID, from, to time.Time, tz string) ([]MonthMethodSum, error) {
	var rows []struct {
		Month  string
		Method string
		Total  string
		Count  int64
	}
	err := r.DB.WithContext(ctx).Model(&paymentModel.PaymentModel{}).
		Select(`to_char(payment_paid_at AT TIME ZONE ?, 'YYYY-MM') AS month,
		        payment_method AS method,
		        SUM(payment_amount)::text AS total,
		        COUNT(*) AS count`, tz).
		Where("payment_library_id = ? AND payment_status = ?", libraryID, paymentModel.PaymentStatusCompleted).
		Where("payment_paid_at >= ? AND payment_paid_at < ?", from, to).
		Group("1, 2").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "revenue by month")
	}
	out := make([]MonthMethodSum, 0, len(rows))
	for _, row := range rows {
		total, err := decimal.NewFromString(row.Total)
		if err != nil {
			return nil, errors.Wrap(err, "parse revenue")
		}
		out = append(out, MonthMethodSum{Month: row.Month, Method: row.Method, Total: total, Count: row.Count})
	}
	return out, nil
}
