package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	branchModel "librarydesk_backend/internals/features/libraries/branches/model"
	planModel "librarydesk_backend/internals/features/libraries/plans/model"
	seatRepo "librarydesk_backend/internals/features/libraries/seats/repository"
	noteModel "librarydesk_backend/internals/features/students/notes/model"
	studentModel "librarydesk_backend/internals/features/students/students/model"
	studentRepo "librarydesk_backend/internals/features/students/students/repository"
	"librarydesk_backend/internals/features/subscriptions/subscriptions/dto"
	"librarydesk_backend/internals/features/subscriptions/subscriptions/model"
	"librarydesk_backend/internals/features/subscriptions/subscriptions/repository"
	"librarydesk_backend/internals/helpers/apperror"
)

type memStore struct {
	students map[uuid.UUID]studentModel.StudentModel
	branches map[uuid.UUID]branchModel.BranchModel
	plans    map[uuid.UUID]planModel.PlanModel
	seats    map[uuid.UUID]string // id -> number, all in branch
	lockers  map[uuid.UUID]string
	subs     []model.SubscriptionModel
	notes    []noteModel.StudentNoteModel
	branch   uuid.UUID
	library  uuid.UUID
}

var _ repository.Store = (*memStore)(nil)

func (m *memStore) Tx(ctx context.Context, fn func(tx repository.Store) error) error { return fn(m) }

func (m *memStore) Student(_ context.Context, libraryID, id uuid.UUID) (*studentModel.StudentModel, error) {
	st, ok := m.students[id]
	if !ok || st.StudentLibraryID != libraryID {
		return nil, gorm.ErrRecordNotFound
	}
	return &st, nil
}

func (m *memStore) VisibleStudent(ctx context.Context, libraryID, id uuid.UUID) (*studentModel.StudentModel, error) {
	return m.Student(ctx, libraryID, id)
}

func (m *memStore) Branch(_ context.Context, libraryID, id uuid.UUID) (*branchModel.BranchModel, error) {
	b, ok := m.branches[id]
	if !ok || b.BranchLibraryID != libraryID {
		return nil, gorm.ErrRecordNotFound
	}
	return &b, nil
}

func (m *memStore) Plan(_ context.Context, libraryID, id uuid.UUID) (*planModel.PlanModel, error) {
	p, ok := m.plans[id]
	if !ok || p.PlanLibraryID != libraryID {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (m *memStore) Subscription(_ context.Context, libraryID, id uuid.UUID) (*model.SubscriptionModel, error) {
	for _, s := range m.subs {
		if s.SubscriptionID == id && s.SubscriptionLibraryID == libraryID {
			cp := s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memStore) LockSubscription(ctx context.Context, libraryID, id uuid.UUID) (*model.SubscriptionModel, error) {
	return m.Subscription(ctx, libraryID, id)
}

func (m *memStore) LockUnit(_ context.Context, u seatRepo.Unit, libraryID, branchID, id uuid.UUID) (string, error) {
	src := m.seats
	if u == seatRepo.Locker {
		src = m.lockers
	}
	n, ok := src[id]
	if !ok || libraryID != m.library || branchID != m.branch {
		return "", gorm.ErrRecordNotFound
	}
	return n, nil
}

func (m *memStore) Occupants(_ context.Context, u seatRepo.Unit, id uuid.UUID, from, to time.Time, exclude *uuid.UUID) ([]model.SubscriptionModel, error) {
	var out []model.SubscriptionModel
	for _, s := range m.subs {
		held := s.SubscriptionSeatID
		if u == seatRepo.Locker {
			held = s.SubscriptionLockerID
		}
		if held == nil || *held != id || (exclude != nil && s.SubscriptionID == *exclude) {
			continue
		}
		if s.Occupies(from, to) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) LatestEnd(_ context.Context, libraryID, studentID, branchID uuid.UUID) (*time.Time, error) {
	var last *time.Time
	for _, s := range m.subs {
		if s.SubscriptionLibraryID != libraryID || s.SubscriptionStudentID != studentID || s.SubscriptionBranchID != branchID {
			continue
		}
		if !running(s.SubscriptionStatus) {
			continue
		}
		if last == nil || s.SubscriptionEndDate.After(*last) {
			end := s.SubscriptionEndDate
			last = &end
		}
	}
	return last, nil
}

func (m *memStore) Create(_ context.Context, s *model.SubscriptionModel) error {
	m.subs = append(m.subs, *s)
	return nil
}

func (m *memStore) Save(_ context.Context, s *model.SubscriptionModel) error {
	for i := range m.subs {
		if m.subs[i].SubscriptionID == s.SubscriptionID {
			m.subs[i] = *s
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *memStore) AddNote(_ context.Context, n *noteModel.StudentNoteModel) error {
	m.notes = append(m.notes, *n)
	return nil
}

func (m *memStore) ListForStudent(_ context.Context, libraryID, studentID uuid.UUID) ([]model.SubscriptionModel, error) {
	var out []model.SubscriptionModel
	for _, s := range m.subs {
		if s.SubscriptionLibraryID == libraryID && s.SubscriptionStudentID == studentID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) Names(_ context.Context, _ uuid.UUID, subs []model.SubscriptionModel) (studentRepo.Names, error) {
	n := studentRepo.Names{Plans: map[uuid.UUID]string{}, Branches: map[uuid.UUID]string{}, Seats: m.seats, Lockers: m.lockers}
	for id, p := range m.plans {
		n.Plans[id] = p.PlanName
	}
	for id, b := range m.branches {
		n.Branches[id] = b.BranchName
	}
	return n, nil
}

func (m *memStore) Sweep(_ context.Context, now time.Time) (int64, int64, error) {
	var activated, expired int64
	for i := range m.subs {
		s := &m.subs[i]
		switch {
		case running(s.SubscriptionStatus) && s.SubscriptionEndDate.Before(now):
			s.SubscriptionStatus = model.SubscriptionExpired
			expired++
		case s.SubscriptionStatus == model.SubscriptionPending && !s.SubscriptionStartDate.After(now):
			s.SubscriptionStatus = model.SubscriptionActive
			activated++
		}
	}
	return activated, expired, nil
}

/* ===== fixture ===== */

var (
	libID     = uuid.New()
	ownerID   = uuid.New()
	branchID  = uuid.New()
	aliceID   = uuid.New()
	bobID     = uuid.New()
	blockedID = uuid.New()
	monthID   = uuid.New()
	lockerPID = uuid.New()
	seatA1    = uuid.New()
	seatA2    = uuid.New()
	locker1   = uuid.New()
)

func fixture(t *testing.T) (*Service, *memStore, Actor) {
	t.Helper()
	loc := time.FixedZone("IST", 5*3600+1800)
	st := &memStore{
		library: libID,
		branch:  branchID,
		students: map[uuid.UUID]studentModel.StudentModel{
			aliceID:   {StudentID: aliceID, StudentLibraryID: libID, StudentName: "Alice"},
			bobID:     {StudentID: bobID, StudentLibraryID: libID, StudentName: "Bob"},
			blockedID: {StudentID: blockedID, StudentLibraryID: libID, StudentName: "Mallory", StudentIsBlocked: true},
		},
		branches: map[uuid.UUID]branchModel.BranchModel{
			branchID: {BranchID: branchID, BranchLibraryID: libID, BranchName: "Main", BranchIsActive: true},
		},
		plans: map[uuid.UUID]planModel.PlanModel{
			monthID:   {PlanID: monthID, PlanLibraryID: libID, PlanName: "Monthly", PlanDurationDays: 30, PlanPrice: decimal.NewFromInt(1500), PlanIsActive: true},
			lockerPID: {PlanID: lockerPID, PlanLibraryID: libID, PlanName: "Monthly + Locker", PlanDurationDays: 30, PlanPrice: decimal.NewFromInt(1800), PlanIncludesLocker: true, PlanIsActive: true},
		},
		seats:   map[uuid.UUID]string{seatA1: "A1", seatA2: "A2"},
		lockers: map[uuid.UUID]string{locker1: "L1"},
	}
	svc := New(st)
	now := time.Date(2026, 3, 10, 11, 0, 0, 0, loc)
	svc.Now = func() time.Time { return now }
	return svc, st, Actor{UserID: ownerID, LibraryID: libID, Loc: loc}
}

func ptr[T any](v T) *T { return &v }

func kindOf(t *testing.T, err error) apperror.Kind {
	t.Helper()
	require.Error(t, err)
	return apperror.From(err).Kind
}

/* ===== tests ===== */

func TestEndDate_CoversDurationInclusive(t *testing.T) {
	loc := time.UTC
	start := time.Date(2026, 1, 1, 9, 30, 0, 0, loc)
	end := EndDate(start, 30, loc)
	assert.Equal(t, 2026, end.Year())
	assert.Equal(t, time.January, end.Month())
	assert.Equal(t, 30, end.Day())
	assert.Equal(t, 23, end.Hour())

	assert.Equal(t, 1, EndDate(start, 0, loc).Day())
}

func TestCreate_TodayIsActiveWithSeat(t *testing.T) {
	svc, store, a := fixture(t)

	res, err := svc.Create(context.Background(), a, dto.CreateRequest{
		StudentID: aliceID, BranchID: branchID, PlanID: monthID, SeatID: ptr(seatA1),
	})
	require.NoError(t, err)
	assert.Equal(t, "active", res.Status)
	assert.Equal(t, "Alice", res.StudentName)
	assert.Equal(t, "Monthly", res.PlanName)
	assert.Equal(t, "Main", res.BranchName)
	require.NotNil(t, res.SeatNumber)
	assert.Equal(t, "A1", *res.SeatNumber)
	assert.Equal(t, "1500.00", res.Amount)
	require.Len(t, store.subs, 1)
	assert.Equal(t, ownerID, *store.subs[0].SubscriptionCreatedBy)
}

func TestCreate_FutureStartIsPending(t *testing.T) {
	svc, _, a := fixture(t)

	res, err := svc.Create(context.Background(), a, dto.CreateRequest{
		StudentID: aliceID, BranchID: branchID, PlanID: monthID, StartDate: "2026-03-15",
		Amount: ptr(decimal.RequireFromString("1200.499")),
	})
	require.NoError(t, err)
	assert.Equal(t, "pending", res.Status)
	assert.Equal(t, 15, res.StartDate.Day())
	assert.Equal(t, time.April, res.EndDate.Month())
	assert.Equal(t, 13, res.EndDate.Day())
	assert.Equal(t, "1200.50", res.Amount)
}

func TestCreate_Rejections(t *testing.T) {
	cases := []struct {
		name string
		req  dto.CreateRequest
		kind apperror.Kind
	}{
		{"blocked student", dto.CreateRequest{StudentID: blockedID, BranchID: branchID, PlanID: monthID}, apperror.KindConflict},
		{"unknown student", dto.CreateRequest{StudentID: uuid.New(), BranchID: branchID, PlanID: monthID}, apperror.KindNotFound},
		{"unknown plan", dto.CreateRequest{StudentID: aliceID, BranchID: branchID, PlanID: uuid.New()}, apperror.KindNotFound},
		{"past start", dto.CreateRequest{StudentID: aliceID, BranchID: branchID, PlanID: monthID, StartDate: "2026-03-01"}, apperror.KindValidation},
		{"locker without plan", dto.CreateRequest{StudentID: aliceID, BranchID: branchID, PlanID: monthID, LockerID: ptr(locker1)}, apperror.KindValidation},
		{"negative amount", dto.CreateRequest{StudentID: aliceID, BranchID: branchID, PlanID: monthID, Amount: ptr(decimal.NewFromInt(-1))}, apperror.KindValidation},
		{"foreign seat", dto.CreateRequest{StudentID: aliceID, BranchID: branchID, PlanID: monthID, SeatID: ptr(uuid.New())}, apperror.KindNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, store, a := fixture(t)
			_, err := svc.Create(context.Background(), a, tc.req)
			assert.Equal(t, tc.kind, kindOf(t, err))
			assert.Empty(t, store.subs)
		})
	}
}

func TestCreate_SeatSingleOccupancy(t *testing.T) {
	svc, store, a := fixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, a, dto.CreateRequest{StudentID: aliceID, BranchID: branchID, PlanID: monthID, SeatID: ptr(seatA1)})
	require.NoError(t, err)

	_, err = svc.Create(ctx, a, dto.CreateRequest{StudentID: bobID, BranchID: branchID, PlanID: monthID, SeatID: ptr(seatA1)})
	assert.Equal(t, apperror.KindConflict, kindOf(t, err))

	// a window after Alice's ends is free
	_, err = svc.Create(ctx, a, dto.CreateRequest{StudentID: bobID, BranchID: branchID, PlanID: monthID, SeatID: ptr(seatA1), StartDate: "2026-04-09"})
	require.NoError(t, err)
	assert.Len(t, store.subs, 2)
}

func TestRenew_StartsAfterCurrentEnd(t *testing.T) {
	svc, store, a := fixture(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, a, dto.CreateRequest{StudentID: aliceID, BranchID: branchID, PlanID: lockerPID, SeatID: ptr(seatA1), LockerID: ptr(locker1)})
	require.NoError(t, err)

	next, err := svc.Renew(ctx, a, first.SubscriptionID, dto.RenewRequest{})
	require.NoError(t, err)
	assert.Equal(t, "pending", next.Status)
	assert.True(t, next.StartDate.After(first.EndDate))
	assert.True(t, first.EndDate.Add(time.Nanosecond).Equal(next.StartDate))
	require.NotNil(t, next.SeatNumber)
	assert.Equal(t, "A1", *next.SeatNumber)
	require.NotNil(t, next.LockerNumber)
	assert.Equal(t, "L1", *next.LockerNumber)
	assert.Len(t, store.subs, 2)
}

func TestRenew_DropSeatAndSwitchPlan(t *testing.T) {
	svc, _, a := fixture(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, a, dto.CreateRequest{StudentID: aliceID, BranchID: branchID, PlanID: lockerPID, SeatID: ptr(seatA1), LockerID: ptr(locker1)})
	require.NoError(t, err)

	next, err := svc.Renew(ctx, a, first.SubscriptionID, dto.RenewRequest{PlanID: ptr(monthID), KeepSeat: ptr(false)})
	require.NoError(t, err)
	assert.Equal(t, "Monthly", next.PlanName)
	assert.Nil(t, next.SeatID)
	assert.Nil(t, next.LockerID)
}

func TestRenew_ExpiredStartsNow(t *testing.T) {
	svc, store, a := fixture(t)
	old := model.SubscriptionModel{
		SubscriptionID: uuid.New(), SubscriptionLibraryID: libID, SubscriptionStudentID: bobID,
		SubscriptionBranchID: branchID, SubscriptionPlanID: monthID, SubscriptionStatus: model.SubscriptionExpired,
		SubscriptionStartDate: svc.Now().AddDate(0, -2, 0), SubscriptionEndDate: svc.Now().AddDate(0, -1, 0),
	}
	store.subs = append(store.subs, old)

	next, err := svc.Renew(context.Background(), a, old.SubscriptionID, dto.RenewRequest{})
	require.NoError(t, err)
	assert.Equal(t, "active", next.Status)
	assert.True(t, next.StartDate.Equal(svc.Now()))
}

func TestCancel_ReleasesSeatAndNotes(t *testing.T) {
	svc, store, a := fixture(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, a, dto.CreateRequest{StudentID: aliceID, BranchID: branchID, PlanID: monthID, SeatID: ptr(seatA1)})
	require.NoError(t, err)

	res, err := svc.Cancel(ctx, a, first.SubscriptionID, dto.CancelRequest{Reason: "moved away"})
	require.NoError(t, err)
	assert.Equal(t, "cancelled", res.Status)
	require.Len(t, store.notes, 1)
	assert.Contains(t, store.notes[0].NoteBody, "moved away")

	_, err = svc.Cancel(ctx, a, first.SubscriptionID, dto.CancelRequest{})
	assert.Equal(t, apperror.KindInvalidTransition, kindOf(t, err))

	_, err = svc.Create(ctx, a, dto.CreateRequest{StudentID: bobID, BranchID: branchID, PlanID: monthID, SeatID: ptr(seatA1)})
	require.NoError(t, err)
}

func TestReassign(t *testing.T) {
	svc, store, a := fixture(t)
	ctx := context.Background()

	alice, err := svc.Create(ctx, a, dto.CreateRequest{StudentID: aliceID, BranchID: branchID, PlanID: monthID, SeatID: ptr(seatA1)})
	require.NoError(t, err)
	bob, err := svc.Create(ctx, a, dto.CreateRequest{StudentID: bobID, BranchID: branchID, PlanID: monthID, SeatID: ptr(seatA2)})
	require.NoError(t, err)

	_, err = svc.Reassign(ctx, a, seatRepo.Seat, bob.SubscriptionID, ptr(seatA1))
	assert.Equal(t, apperror.KindConflict, kindOf(t, err))

	// moving onto the seat it already holds is a no-op, not a conflict
	res, err := svc.Reassign(ctx, a, seatRepo.Seat, alice.SubscriptionID, ptr(seatA1))
	require.NoError(t, err)
	assert.Equal(t, "A1", *res.SeatNumber)

	res, err = svc.Reassign(ctx, a, seatRepo.Seat, alice.SubscriptionID, nil)
	require.NoError(t, err)
	assert.Nil(t, res.SeatID)

	res, err = svc.Reassign(ctx, a, seatRepo.Seat, bob.SubscriptionID, ptr(seatA1))
	require.NoError(t, err)
	assert.Equal(t, seatA1, *res.SeatID)
	assert.Equal(t, seatA1, *store.subs[1].SubscriptionSeatID)

	_, err = svc.Reassign(ctx, a, seatRepo.Locker, bob.SubscriptionID, ptr(locker1))
	assert.Equal(t, apperror.KindValidation, kindOf(t, err))
}

func TestListForStudentAndSweep(t *testing.T) {
	svc, _, a := fixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, a, dto.CreateRequest{StudentID: aliceID, BranchID: branchID, PlanID: monthID})
	require.NoError(t, err)
	_, err = svc.Create(ctx, a, dto.CreateRequest{StudentID: aliceID, BranchID: branchID, PlanID: monthID, StartDate: "2026-05-01"})
	require.NoError(t, err)

	list, err := svc.ListForStudent(ctx, libID, aliceID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = svc.ListForStudent(ctx, uuid.New(), aliceID)
	assert.Equal(t, apperror.KindNotFound, kindOf(t, err))

	// jump to mid May: the first lapsed, the second is due
	svc.Now = func() time.Time { return time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC) }
	res, err := svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, dto.SweepResult{Activated: 1, Expired: 1}, res)
}
