package service

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"librarydesk_backend/internals/features/students/status"
	"librarydesk_backend/internals/features/students/students/model"
	studentRepo "librarydesk_backend/internals/features/students/students/repository"
	subModel "librarydesk_backend/internals/features/subscriptions/subscriptions/model"
	"librarydesk_backend/internals/helpers/apperror"
)

// memRepo evaluates predicates in memory with Match, the same predicate the SQL path renders.
type memRepo struct {
	students []model.StudentModel
	subs     []subModel.SubscriptionModel
	names    studentRepo.Names
	payments map[uuid.UUID]int64
	notes    map[uuid.UUID]int64
}

func (r *memRepo) record(libraryID uuid.UUID, st model.StudentModel) status.Record {
	var subs []subModel.SubscriptionModel
	for _, s := range r.subs {
		if s.SubscriptionStudentID == st.StudentID {
			subs = append(subs, s)
		}
	}
	return status.Record{LibraryID: libraryID, Student: st, Subscriptions: subs}
}

func (r *memRepo) matching(pred status.Predicate, libraryID uuid.UUID) []model.StudentModel {
	var out []model.StudentModel
	for _, st := range r.students {
		if pred.Match(r.record(libraryID, st)) {
			out = append(out, st)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// The fake needs the tenant to build records; tests always use one tenant per call.
var tenant uuid.UUID

func (r *memRepo) Page(_ context.Context, pred status.Predicate, limit, offset int) ([]model.StudentModel, int64, error) {
	all := r.matching(pred, tenant)
	if offset > len(all) {
		offset = len(all)
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], int64(len(all)), nil
}

func (r *memRepo) Count(_ context.Context, pred status.Predicate) (int64, error) {
	return int64(len(r.matching(pred, tenant))), nil
}

func (r *memRepo) Find(_ context.Context, libraryID, id uuid.UUID) (*model.StudentModel, error) {
	base := status.Or(status.TenantOwned{LibraryID: libraryID}, status.HasSubscription{LibraryID: libraryID})
	for _, st := range r.students {
		if st.StudentID == id && base.Match(r.record(libraryID, st)) {
			cp := st
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memRepo) Subscriptions(_ context.Context, libraryID uuid.UUID, ids []uuid.UUID) ([]subModel.SubscriptionModel, error) {
	want := map[uuid.UUID]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var out []subModel.SubscriptionModel
	for _, s := range r.subs {
		if s.SubscriptionLibraryID == libraryID && want[s.SubscriptionStudentID] {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memRepo) Names(context.Context, uuid.UUID, []subModel.SubscriptionModel) (studentRepo.Names, error) {
	return r.names, nil
}

func (r *memRepo) Purge(_ context.Context, libraryID, id uuid.UUID, check func(studentRepo.Blockers) error) (studentRepo.Purged, error) {
	idx := -1
	for i, st := range r.students {
		if st.StudentID == id && st.StudentLibraryID == libraryID {
			idx = i
		}
	}
	if idx < 0 {
		return studentRepo.Purged{}, gorm.ErrRecordNotFound
	}
	b := studentRepo.Blockers{Payments: r.payments[id]}
	for _, s := range r.subs {
		if s.SubscriptionStudentID == id && s.SubscriptionLibraryID != libraryID {
			b.ForeignSubscriptions++
		}
	}
	if err := check(b); err != nil {
		return studentRepo.Purged{}, err
	}

	out := studentRepo.Purged{Notes: r.notes[id]}
	kept := r.subs[:0:0]
	for _, s := range r.subs {
		if s.SubscriptionStudentID == id {
			out.Subscriptions++
			continue
		}
		kept = append(kept, s)
	}
	r.subs = kept
	delete(r.notes, id)
	r.students = append(r.students[:idx:idx], r.students[idx+1:]...)
	return out, nil
}

type fixture struct {
	repo              *memRepo
	svc               *Service
	now               time.Time
	lib, other        uuid.UUID
	north, south      uuid.UUID
	seat              uuid.UUID
	active, lapsed    uuid.UUID
	fresh, old        uuid.UUID
	blocked, southern uuid.UUID
}

func newFixture() *fixture {
	f := &fixture{
		now:   time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC),
		lib:   uuid.New(),
		other: uuid.New(),
		north: uuid.New(),
		south: uuid.New(),
		seat:  uuid.New(),
	}
	tenant = f.lib
	plan := uuid.New()

	student := func(name string, created time.Time, blocked bool) model.StudentModel {
		return model.StudentModel{
			StudentID: uuid.New(), StudentLibraryID: f.lib, StudentName: name,
			StudentIsBlocked: blocked, CreatedAt: created,
		}
	}
	sub := func(st uuid.UUID, branch uuid.UUID, start, end time.Time, seat *uuid.UUID) subModel.SubscriptionModel {
		return subModel.SubscriptionModel{
			SubscriptionID: uuid.New(), SubscriptionLibraryID: f.lib, SubscriptionStudentID: st,
			SubscriptionBranchID: branch, SubscriptionPlanID: plan, SubscriptionSeatID: seat,
			SubscriptionStatus: subModel.SubscriptionActive, SubscriptionStartDate: start, SubscriptionEndDate: end,
			SubscriptionAmount: decimal.NewFromInt(1500),
		}
	}

	day := 24 * time.Hour
	a := student("Aarav", f.now.Add(-60*day), false)
	l := student("Lakshmi", f.now.Add(-90*day), false)
	n := student("Neha", f.now.Add(-2*time.Hour), false)
	o := student("Omkar", f.now.Add(-10*day), false)
	b := student("Bhavesh", f.now.Add(-20*day), true)
	s := student("Sana", f.now.Add(-30*day), false)
	foreign := model.StudentModel{StudentID: uuid.New(), StudentLibraryID: f.other, StudentName: "Zed", CreatedAt: f.now}

	f.active, f.lapsed, f.fresh, f.old, f.blocked, f.southern = a.StudentID, l.StudentID, n.StudentID, o.StudentID, b.StudentID, s.StudentID

	f.repo = &memRepo{
		students: []model.StudentModel{a, l, n, o, b, s, foreign},
		subs: []subModel.SubscriptionModel{
			sub(a.StudentID, f.north, f.now.Add(-5*day), f.now.Add(25*day), &f.seat),
			sub(l.StudentID, f.north, f.now.Add(-60*day), f.now.Add(-30*day), nil),
			sub(b.StudentID, f.north, f.now.Add(-5*day), f.now.Add(25*day), nil),
			sub(s.StudentID, f.south, f.now.Add(-5*day), f.now.Add(25*day), nil),
		},
		names: studentRepo.Names{
			Plans:    map[uuid.UUID]string{plan: "Monthly"},
			Branches: map[uuid.UUID]string{f.north: "North", f.south: "South"},
			Seats:    map[uuid.UUID]string{f.seat: "A12"},
		},
	}
	f.svc = &Service{Repo: f.repo, Now: func() time.Time { return f.now }}
	return f
}

func TestList_TagsRowsAndCountsAgree(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	all, err := f.svc.List(ctx, status.Filter{LibraryID: f.lib}, 1, 50)
	require.NoError(t, err)
	assert.EqualValues(t, 6, all.Total, "foreign student is invisible")

	derived := map[string]int{}
	for _, r := range all.Students {
		derived[r.Status]++
	}

	for _, st := range status.All {
		res, err := f.svc.List(ctx, status.Filter{LibraryID: f.lib, Status: st}, 1, 50)
		require.NoError(t, err)
		assert.EqualValues(t, derived[string(st)], res.Total, st)
		for _, r := range res.Students {
			assert.Equal(t, string(st), r.Status, "row %s under filter %s", r.Name, st)
		}
	}
}

func TestList_Statuses(t *testing.T) {
	f := newFixture()
	res, err := f.svc.List(context.Background(), status.Filter{LibraryID: f.lib}, 1, 50)
	require.NoError(t, err)

	got := map[uuid.UUID]string{}
	for _, r := range res.Students {
		got[r.StudentID] = r.Status
	}
	assert.Equal(t, "active", got[f.active])
	assert.Equal(t, "expired", got[f.lapsed])
	assert.Equal(t, "new", got[f.fresh])
	assert.Equal(t, "no_plan", got[f.old])
	assert.Equal(t, "blocked", got[f.blocked])
	assert.Equal(t, "active", got[f.southern])
}

func TestList_DisplayColumns(t *testing.T) {
	f := newFixture()
	res, err := f.svc.List(context.Background(), status.Filter{LibraryID: f.lib, Search: "aarav"}, 1, 10)
	require.NoError(t, err)
	require.Len(t, res.Students, 1)

	row := res.Students[0]
	require.NotNil(t, row.CurrentPlan)
	assert.Equal(t, "Monthly", *row.CurrentPlan)
	assert.Equal(t, "North", *row.CurrentBranch)
	require.NotNil(t, row.SeatNumber)
	assert.Equal(t, "A12", *row.SeatNumber)
}

func TestList_BranchFilter(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	res, err := f.svc.List(ctx, status.Filter{LibraryID: f.lib, BranchID: &f.south, Status: status.NoPlan}, 1, 50)
	require.NoError(t, err)
	names := map[string]bool{}
	for _, r := range res.Students {
		names[r.Name] = true
	}
	assert.True(t, names["Lakshmi"], "history only in another branch is no_plan here")
	assert.True(t, names["Aarav"])
	assert.False(t, names["Sana"])

	res, err = f.svc.List(ctx, status.Filter{LibraryID: f.lib, BranchID: &f.south, Status: status.Blocked}, 1, 50)
	require.NoError(t, err)
	require.Len(t, res.Students, 1, "blocked ignores the branch filter")
	assert.Equal(t, "Bhavesh", res.Students[0].Name)
}

func TestList_Pagination(t *testing.T) {
	f := newFixture()
	res, err := f.svc.List(context.Background(), status.Filter{LibraryID: f.lib}, 2, 4)
	require.NoError(t, err)
	assert.EqualValues(t, 6, res.Total)
	assert.Equal(t, 2, res.Pages)
	assert.Len(t, res.Students, 2)
}

func TestList_InvalidStatus(t *testing.T) {
	f := newFixture()
	_, err := f.svc.List(context.Background(), status.Filter{LibraryID: f.lib, Status: "vip"}, 1, 10)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestDetail_TenantScoped(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	d, err := f.svc.Detail(ctx, f.lib, f.active)
	require.NoError(t, err)
	assert.Equal(t, "active", d.Status)
	require.NotNil(t, d.Current)
	assert.Len(t, d.Subscriptions, 1)

	_, err = f.svc.Detail(ctx, f.other, f.active)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestCountByStatus(t *testing.T) {
	f := newFixture()
	counts, err := f.svc.CountByStatus(context.Background(), f.lib, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, counts[status.Active])
	assert.EqualValues(t, 1, counts[status.Expired])
	assert.EqualValues(t, 1, counts[status.New])
	assert.EqualValues(t, 1, counts[status.NoPlan])
	assert.EqualValues(t, 1, counts[status.Blocked])
}

func TestDelete_CascadesWithoutPayments(t *testing.T) {
	f := newFixture()
	f.repo.notes = map[uuid.UUID]int64{f.active: 2}
	ctx := context.Background()

	purged, err := f.svc.Delete(ctx, f.lib, f.active)
	require.NoError(t, err)
	assert.EqualValues(t, 1, purged.Subscriptions)
	assert.EqualValues(t, 2, purged.Notes)

	_, err = f.svc.Detail(ctx, f.lib, f.active)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	for _, s := range f.repo.subs {
		assert.NotEqual(t, f.active, s.SubscriptionStudentID)
	}
}

func TestDelete_Refusals(t *testing.T) {
	f := newFixture()
	f.repo.payments = map[uuid.UUID]int64{f.lapsed: 1}
	f.repo.subs = append(f.repo.subs, subModel.SubscriptionModel{
		SubscriptionID: uuid.New(), SubscriptionLibraryID: f.other, SubscriptionStudentID: f.southern,
	})
	ctx := context.Background()

	cases := []struct {
		name    string
		library uuid.UUID
		student uuid.UUID
		want    error
	}{
		{"has payments", f.lib, f.lapsed, apperror.ErrConflict},
		{"subscribed elsewhere", f.lib, f.southern, apperror.ErrConflict},
		{"other tenant", f.other, f.fresh, apperror.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Delete(ctx, tc.library, tc.student)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	_, err := f.svc.Detail(ctx, f.lib, f.lapsed)
	assert.NoError(t, err)
	_, err = f.svc.Detail(ctx, f.lib, f.southern)
	assert.NoError(t, err)
}
