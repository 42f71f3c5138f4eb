package status

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	studentModel "librarydesk_backend/internals/features/students/students/model"
	subModel "librarydesk_backend/internals/features/subscriptions/subscriptions/model"
)

var (
	lib     = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	otherLb = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	branchA = uuid.MustParse("aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa")
	branchB = uuid.MustParse("bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb")
	now     = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
)

func student(createdAt time.Time, blocked bool) studentModel.StudentModel {
	return studentModel.StudentModel{
		StudentID:        uuid.New(),
		StudentLibraryID: lib,
		StudentName:      "Asha",
		StudentIsBlocked: blocked,
		CreatedAt:        createdAt,
	}
}

func sub(branch uuid.UUID, st subModel.SubscriptionStatus, start, end time.Time) subModel.SubscriptionModel {
	return subModel.SubscriptionModel{
		SubscriptionID:        uuid.New(),
		SubscriptionLibraryID: lib,
		SubscriptionBranchID:  branch,
		SubscriptionStatus:    st,
		SubscriptionStartDate: start,
		SubscriptionEndDate:   end,
	}
}

func days(n int) time.Duration { return time.Duration(n) * 24 * time.Hour }

func TestDerive(t *testing.T) {
	old := now.Add(-days(30))
	liveA := sub(branchA, subModel.SubscriptionActive, now.Add(-days(10)), now.Add(days(20)))
	pastA := sub(branchA, subModel.SubscriptionExpired, now.Add(-days(60)), now.Add(-days(30)))
	lapsedA := sub(branchA, subModel.SubscriptionActive, now.Add(-days(40)), now.Add(-days(1)))
	pastB := sub(branchB, subModel.SubscriptionExpired, now.Add(-days(50)), now.Add(-days(20)))

	tests := []struct {
		name   string
		rec    Record
		branch *uuid.UUID
		want   Status
	}{
		{"blocked wins over live sub", Record{lib, student(old, true), []subModel.SubscriptionModel{liveA}}, nil, Blocked},
		{"blocked with no history", Record{lib, student(now, true), nil}, nil, Blocked},
		{"live sub unfiltered", Record{lib, student(old, false), []subModel.SubscriptionModel{liveA, pastB}}, nil, Active},
		{"live sub in filtered branch", Record{lib, student(old, false), []subModel.SubscriptionModel{liveA}}, &branchA, Active},
		{"live sub elsewhere, history here", Record{lib, student(old, false), []subModel.SubscriptionModel{liveA, pastB}}, &branchB, Expired},
		{"only history unfiltered", Record{lib, student(old, false), []subModel.SubscriptionModel{pastA}}, nil, Expired},
		{"active status but ended", Record{lib, student(old, false), []subModel.SubscriptionModel{lapsedA}}, nil, Expired},
		{"out-of-branch history under filter", Record{lib, student(old, false), []subModel.SubscriptionModel{pastB}}, &branchA, NoPlan},
		{"out-of-branch live under filter", Record{lib, student(old, false), []subModel.SubscriptionModel{liveA}}, &branchB, NoPlan},
		{"fresh student", Record{lib, student(now.Add(-time.Hour), false), nil}, nil, New},
		{"fresh student under branch filter", Record{lib, student(now.Add(-time.Hour), false), nil}, &branchA, New},
		{"fresh student with history is not new", Record{lib, student(now.Add(-time.Hour), false), []subModel.SubscriptionModel{pastB}}, &branchA, NoPlan},
		{"old student without history", Record{lib, student(old, false), nil}, nil, NoPlan},
		{"other tenant subs ignored", Record{lib, student(old, false), []subModel.SubscriptionModel{func() subModel.SubscriptionModel {
			s := liveA
			s.SubscriptionLibraryID = otherLb
			return s
		}()}}, nil, NoPlan},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Derive(tt.rec, tt.branch, now).Status)
		})
	}
}

func TestDerive_NewBoundary(t *testing.T) {
	tests := []struct {
		age  time.Duration
		want Status
	}{
		{0, New},
		{23*time.Hour + 59*time.Minute + 59*time.Second, New},
		{24 * time.Hour, NoPlan},
		{24*time.Hour + time.Second, NoPlan},
	}
	for _, tt := range tests {
		t.Run(tt.age.String(), func(t *testing.T) {
			rec := Record{LibraryID: lib, Student: student(now.Add(-tt.age), false)}
			assert.Equal(t, tt.want, Derive(rec, nil, now).Status)
		})
	}
}

func TestDerive_ClockAdvance(t *testing.T) {
	s := sub(branchA, subModel.SubscriptionActive, now.Add(-days(29)), now.Add(days(1)))
	rec := Record{LibraryID: lib, Student: student(now.Add(-days(29)), false), Subscriptions: []subModel.SubscriptionModel{s}}

	assert.Equal(t, Active, Derive(rec, nil, now).Status)
	assert.Equal(t, Active, Derive(rec, nil, s.SubscriptionEndDate).Status, "end date itself is still live")
	assert.Equal(t, Expired, Derive(rec, nil, now.Add(days(2))).Status)
}

func TestDerive_Display(t *testing.T) {
	old := now.Add(-days(90))
	liveA := sub(branchA, subModel.SubscriptionActive, now.Add(-days(5)), now.Add(days(25)))
	newerPastB := sub(branchB, subModel.SubscriptionExpired, now.Add(-days(40)), now.Add(-days(10)))
	olderPastB := sub(branchB, subModel.SubscriptionExpired, now.Add(-days(80)), now.Add(-days(50)))
	futureA := sub(branchA, subModel.SubscriptionPending, now.Add(days(25)), now.Add(days(55)))

	rec := Record{lib, student(old, false), []subModel.SubscriptionModel{olderPastB, liveA, newerPastB, futureA}}

	t.Run("live sub preferred over later pending", func(t *testing.T) {
		res := Derive(rec, nil, now)
		require.NotNil(t, res.Display)
		assert.Equal(t, liveA.SubscriptionID, res.Display.SubscriptionID)
	})

	t.Run("branch-matching latest when no live", func(t *testing.T) {
		res := Derive(rec, &branchB, now)
		require.NotNil(t, res.Display)
		assert.Equal(t, newerPastB.SubscriptionID, res.Display.SubscriptionID)
		assert.Equal(t, Expired, res.Status)
	})

	t.Run("global latest when nothing in branch", func(t *testing.T) {
		other := uuid.New()
		res := Derive(rec, &other, now)
		require.NotNil(t, res.Display)
		assert.Equal(t, futureA.SubscriptionID, res.Display.SubscriptionID)
		assert.Equal(t, NoPlan, res.Status)
	})

	t.Run("none", func(t *testing.T) {
		res := Derive(Record{LibraryID: lib, Student: student(old, false)}, nil, now)
		assert.Nil(t, res.Display)
	})
}

func TestParse(t *testing.T) {
	st, ok := Parse("no_plan")
	assert.True(t, ok)
	assert.Equal(t, NoPlan, st)

	_, ok = Parse("archived")
	assert.False(t, ok)
}
