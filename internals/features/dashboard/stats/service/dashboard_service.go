// internals/features/dashboard/stats/service/dashboard_service.go
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"librarydesk_backend/internals/features/dashboard/stats/dto"
	"librarydesk_backend/internals/features/dashboard/stats/repository"
	"librarydesk_backend/internals/features/students/status"
	"librarydesk_backend/internals/helpers/apperror"
	"librarydesk_backend/internals/helpers/dbtime"
)

const DefaultRevenueMonths = 6

// Source is everything the dashboard reads.
type Source interface {
	CheckIns(ctx context.Context, libraryID uuid.UUID, from, to time.Time) (int64, error)
	Revenue(ctx context.Context, libraryID uuid.UUID, from, to time.Time) (decimal.Decimal, int64, error)
	PendingVerifications(ctx context.Context, libraryID uuid.UUID) (int64, error)
	PendingHandovers(ctx context.Context, libraryID uuid.UUID) (dto.PendingAmount, error)
	Seats(ctx context.Context, libraryID uuid.UUID, branchID *uuid.UUID, now time.Time) (dto.SeatUsage, error)
	RevenueByMonth(ctx context.Context, libraryID uuid.UUID, from, to time.Time, tz string) ([]repository.MonthMethodSum, error)
}

// StudentCounter is the students service's CountByStatus.
type StudentCounter func(ctx context.Context, libraryID uuid.UUID, branchID *uuid.UUID) (map[status.Status]int64, error)

type Service struct {
	Src      Source
	Students StudentCounter
	Now      func() time.Time
}

func New(src Source, students StudentCounter) *Service {
	return &Service{Src: src, Students: students, Now: time.Now}
}

func (s *Service) Summary(ctx context.Context, libraryID uuid.UUID, branchID *uuid.UUID, loc *time.Location) (dto.SummaryResponse, error) {
	now := s.Now().In(loc)
	var out dto.SummaryResponse
	var err error

	if out.Students, err = s.Students(ctx, libraryID, branchID); err != nil {
		return out, err
	}
	dayFrom, dayTo := dbtime.DayWindow(now, loc)
	if out.CheckInsToday, err = s.Src.CheckIns(ctx, libraryID, dayFrom, dayTo); err != nil {
		return out, apperror.OperationFailed(err, "failed to count check-ins")
	}
	monthFrom, monthTo := dbtime.MonthWindow(now, loc)
	if out.MonthRevenue, out.MonthPayments, err = s.Src.Revenue(ctx, libraryID, monthFrom, monthTo); err != nil {
		return out, apperror.OperationFailed(err, "failed to sum revenue")
	}
	if out.PendingVerifications, err = s.Src.PendingVerifications(ctx, libraryID); err != nil {
		return out, apperror.OperationFailed(err, "failed to count pending payments")
	}
	if out.PendingHandovers, err = s.Src.PendingHandovers(ctx, libraryID); err != nil {
		return out, apperror.OperationFailed(err, "failed to sum pending handovers")
	}
	if out.Seats, err = s.Src.Seats(ctx, libraryID, branchID, now); err != nil {
		return out, apperror.OperationFailed(err, "failed to count seats")
	}
	return out, nil
}

// RevenueSeries returns the last n months, oldest first, ending with the current month.
// Months without payments are present with zero totals.
func (s *Service) RevenueSeries(ctx context.Context, libraryID uuid.UUID, months int, loc *time.Location) ([]dto.RevenuePoint, error) {
	if months <= 0 {
		months = DefaultRevenueMonths
	}
	cur, to := dbtime.MonthWindow(s.Now(), loc)
	from := cur.AddDate(0, -(months - 1), 0)

	rows, err := s.Src.RevenueByMonth(ctx, libraryID, from, to, loc.String())
	if err != nil {
		return nil, apperror.OperationFailed(err, "failed to load revenue")
	}
	return FillSeries(from, months, rows), nil
}

// FillSeries lays bucket rows onto n consecutive months starting at from.
func FillSeries(from time.Time, n int, rows []repository.MonthMethodSum) []dto.RevenuePoint {
	out := make([]dto.RevenuePoint, n)
	idx := make(map[string]int, n)
	for i := range out {
		m := from.AddDate(0, i, 0).Format("2006-01")
		out[i] = dto.RevenuePoint{Month: m, Total: decimal.Zero, ByMethod: map[string]decimal.Decimal{}}
		idx[m] = i
	}
	for _, r := range rows {
		i, ok := idx[r.Month]
		if !ok {
			continue
		}
		p := &out[i]
		p.Total = p.Total.Add(r.Total)
		p.Count += r.Count
		p.ByMethod[r.Method] = p.ByMethod[r.Method].Add(r.Total)
	}
	return out
}
