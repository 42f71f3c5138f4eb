package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"librarydesk_backend/internals/features/dashboard/stats/dto"
	"librarydesk_backend/internals/features/dashboard/stats/repository"
	"librarydesk_backend/internals/features/students/status"
)

type fakeSource struct {
	buckets  []repository.MonthMethodSum
	gotFrom  time.Time
	gotTo    time.Time
	gotTZ    string
	dayFrom  time.Time
	branchID *uuid.UUID
}

func (f *fakeSource) CheckIns(_ context.Context, _ uuid.UUID, from, _ time.Time) (int64, error) {
	f.dayFrom = from
	return 12, nil
}

func (f *fakeSource) Revenue(context.Context, uuid.UUID, time.Time, time.Time) (decimal.Decimal, int64, error) {
	return decimal.NewFromInt(4500), 3, nil
}

func (f *fakeSource) PendingVerifications(context.Context, uuid.UUID) (int64, error) { return 2, nil }

func (f *fakeSource) PendingHandovers(context.Context, uuid.UUID) (dto.PendingAmount, error) {
	return dto.PendingAmount{Count: 1, Total: decimal.NewFromInt(800)}, nil
}

func (f *fakeSource) Seats(_ context.Context, _ uuid.UUID, branchID *uuid.UUID, _ time.Time) (dto.SeatUsage, error) {
	f.branchID = branchID
	return dto.SeatUsage{Total: 40, Occupied: 31, Free: 9}, nil
}

func (f *fakeSource) RevenueByMonth(_ context.Context, _ uuid.UUID, from, to time.Time, tz string) ([]repository.MonthMethodSum, error) {
	f.gotFrom, f.gotTo, f.gotTZ = from, to, tz
	return f.buckets, nil
}

func newService(t *testing.T, src *fakeSource) (*Service, *time.Location) {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	now := time.Date(2026, 3, 10, 1, 0, 0, 0, loc)
	counts := func(context.Context, uuid.UUID, *uuid.UUID) (map[status.Status]int64, error) {
		return map[status.Status]int64{status.Active: 20, status.Expired: 4}, nil
	}
	return &Service{Src: src, Students: counts, Now: func() time.Time { return now }}, loc
}

func TestSummary(t *testing.T) {
	src := &fakeSource{}
	svc, loc := newService(t, src)
	branch := uuid.New()

	s, err := svc.Summary(context.Background(), uuid.New(), &branch, loc)
	require.NoError(t, err)
	assert.Equal(t, int64(20), s.Students[status.Active])
	assert.Equal(t, int64(12), s.CheckInsToday)
	assert.True(t, s.MonthRevenue.Equal(decimal.NewFromInt(4500)))
	assert.Equal(t, int64(2), s.PendingVerifications)
	assert.Equal(t, int64(1), s.PendingHandovers.Count)
	assert.Equal(t, int64(9), s.Seats.Free)
	assert.Equal(t, &branch, src.branchID)
	assert.True(t, src.dayFrom.Equal(time.Date(2026, 3, 10, 0, 0, 0, 0, loc)), "day window is library-local")
}

func TestRevenueSeriesFillsGaps(t *testing.T) {
	src := &fakeSource{buckets: []repository.MonthMethodSum{
		{Month: "2026-01", Method: "cash", Total: decimal.NewFromInt(1000), Count: 2},
		{Month: "2026-01", Method: "upi", Total: decimal.NewFromInt(500), Count: 1},
		{Month: "2026-03", Method: "online", Total: decimal.NewFromInt(1500), Count: 1},
		{Month: "2025-06", Method: "cash", Total: decimal.NewFromInt(9), Count: 1},
	}}
	svc, loc := newService(t, src)

	pts, err := svc.RevenueSeries(context.Background(), uuid.New(), 4, loc)
	require.NoError(t, err)
	require.Len(t, pts, 4)
	assert.Equal(t, []string{"2025-12", "2026-01", "2026-02", "2026-03"},
		[]string{pts[0].Month, pts[1].Month, pts[2].Month, pts[3].Month})

	assert.True(t, pts[0].Total.IsZero())
	assert.True(t, pts[1].Total.Equal(decimal.NewFromInt(1500)))
	assert.Equal(t, int64(3), pts[1].Count)
	assert.True(t, pts[1].ByMethod["upi"].Equal(decimal.NewFromInt(500)))
	assert.True(t, pts[2].Total.IsZero())
	assert.True(t, pts[3].Total.Equal(decimal.NewFromInt(1500)))

	assert.True(t, src.gotFrom.Equal(time.Date(2025, 12, 1, 0, 0, 0, 0, loc)))
	assert.True(t, src.gotTo.Equal(time.Date(2026, 4, 1, 0, 0, 0, 0, loc)))
	assert.Equal(t, "Asia/Kolkata", src.gotTZ)
}

func TestRevenueSeriesDefaultsToSixMonths(t *testing.T) {
	svc, loc := newService(t, &fakeSource{})
	pts, err := svc.RevenueSeries(context.Background(), uuid.New(), 0, loc)
	require.NoError(t, err)
	assert.Len(t, pts, DefaultRevenueMonths)
	assert.Equal(t, "2026-03", pts[len(pts)-1].Month)
}
