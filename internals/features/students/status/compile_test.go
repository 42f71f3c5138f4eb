package status

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	subModel "librarydesk_backend/internals/features/subscriptions/subscriptions/model"
	"librarydesk_backend/internals/helpers/apperror"
)

func randomRecord(r *rand.Rand) Record {
	ages := []time.Duration{0, time.Hour, 23 * time.Hour, NewWindow, NewWindow + time.Minute, days(10), days(400)}
	st := student(now.Add(-ages[r.Intn(len(ages))]), r.Intn(5) == 0)
	if r.Intn(3) == 0 {
		b := []uuid.UUID{branchA, branchB}[r.Intn(2)]
		st.StudentBranchID = &b
	}
	if r.Intn(8) == 0 {
		// student row of another tenant that only subscribes here
		st.StudentLibraryID = otherLb
	}

	statuses := []subModel.SubscriptionStatus{
		subModel.SubscriptionActive, subModel.SubscriptionExpired,
		subModel.SubscriptionPending, subModel.SubscriptionCancelled,
	}
	n := r.Intn(4)
	subs := make([]subModel.SubscriptionModel, 0, n)
	for i := 0; i < n; i++ {
		start := now.Add(time.Duration(r.Intn(120)-90) * 24 * time.Hour)
		end := start.Add(time.Duration(1+r.Intn(60)) * 24 * time.Hour)
		if r.Intn(10) == 0 {
			end = now // boundary: ends exactly now
		}
		s := sub([]uuid.UUID{branchA, branchB}[r.Intn(2)], statuses[r.Intn(len(statuses))], start, end)
		if r.Intn(10) == 0 {
			s.SubscriptionLibraryID = otherLb
		}
		subs = append(subs, s)
	}
	return Record{LibraryID: lib, Student: st, Subscriptions: subs}
}

// inTenant mirrors the base clause: records outside it never reach the list at all.
func inTenant(rec Record) bool {
	return Or(TenantOwned{LibraryID: lib}, HasSubscription{LibraryID: lib}).Match(rec)
}

func TestCompile_AgreesWithDerive(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	branches := []*uuid.UUID{nil, &branchA, &branchB}

	checked := 0
	for i := 0; i < 3000; i++ {
		rec := randomRecord(r)
		if !inTenant(rec) {
			continue
		}
		for _, br := range branches {
			derived := Derive(rec, br, now).Status
			for _, st := range All {
				p, err := Compile(Filter{LibraryID: lib, BranchID: br, Status: st}, now)
				require.NoError(t, err)
				if !assert.Equal(t, derived == st, p.Match(rec), "status=%s branch=%v derived=%s rec=%+v", st, br, derived, rec) {
					return
				}
			}
			checked++
		}
	}
	assert.Greater(t, checked, 1000)
}

func TestCompile_ExactlyOneStatusMatches(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		rec := randomRecord(r)
		if !inTenant(rec) {
			continue
		}
		matched := 0
		for _, st := range All {
			p, err := Compile(Filter{LibraryID: lib, BranchID: &branchA, Status: st}, now)
			require.NoError(t, err)
			if p.Match(rec) {
				matched++
			}
		}
		assert.Equal(t, 1, matched)
	}
}

func TestCompile_BaseAndBranch(t *testing.T) {
	old := now.Add(-days(30))

	foreign := Record{LibraryID: lib, Student: student(old, false)}
	foreign.Student.StudentLibraryID = otherLb

	foreignSubscriber := foreign
	foreignSubscriber.Subscriptions = []subModel.SubscriptionModel{sub(branchA, subModel.SubscriptionExpired, old, old.Add(days(5)))}

	homeB := Record{LibraryID: lib, Student: student(old, false)}
	homeB.Student.StudentBranchID = &branchB

	p, err := Compile(Filter{LibraryID: lib}, now)
	require.NoError(t, err)
	assert.False(t, p.Match(foreign), "other tenant's student without subscription here")
	assert.True(t, p.Match(foreignSubscriber))
	assert.True(t, p.Match(homeB))

	p, err = Compile(Filter{LibraryID: lib, BranchID: &branchA}, now)
	require.NoError(t, err)
	assert.True(t, p.Match(foreignSubscriber), "subscription in branch A")
	assert.False(t, p.Match(homeB), "home branch B, no subscription in A")

	p, err = Compile(Filter{LibraryID: lib, BranchID: &branchB}, now)
	require.NoError(t, err)
	assert.True(t, p.Match(homeB))
}

func TestCompile_BlockedIgnoresBranch(t *testing.T) {
	rec := Record{LibraryID: lib, Student: student(now.Add(-days(3)), true)}
	p, err := Compile(Filter{LibraryID: lib, BranchID: &branchA, Status: Blocked}, now)
	require.NoError(t, err)
	assert.True(t, p.Match(rec))
}

func TestCompile_SearchAndWindow(t *testing.T) {
	email := "Asha.K@Example.com"
	phone := "98765_43210"
	rec := Record{LibraryID: lib, Student: student(now.Add(-days(3)), false)}
	rec.Student.StudentEmail = &email
	rec.Student.StudentPhone = &phone

	from := now.Add(-days(5))
	to := now.Add(-days(2))

	tests := []struct {
		name string
		f    Filter
		want bool
	}{
		{"name ci", Filter{Search: "ASHA"}, true},
		{"email ci", Filter{Search: "example.COM"}, true},
		{"phone substring", Filter{Search: "765"}, true},
		{"literal underscore", Filter{Search: "5_4"}, true},
		{"no match", Filter{Search: "ravi"}, false},
		{"search does not override status", Filter{Search: "asha", Status: Active}, false},
		{"window inside", Filter{CreatedFrom: &from, CreatedTo: &to}, true},
		{"window end exclusive", Filter{CreatedTo: &rec.Student.CreatedAt}, false},
		{"window start inclusive", Filter{CreatedFrom: &rec.Student.CreatedAt}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.f.LibraryID = lib
			p, err := Compile(tt.f, now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Match(rec))
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	_, err := Compile(Filter{}, now)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = Compile(Filter{LibraryID: lib, Status: "archived"}, now)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}
