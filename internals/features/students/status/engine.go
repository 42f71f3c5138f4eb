// Package status derives a student's lifecycle tag from subscription history and compiles
// list filters into predicates that agree with that derivation.
package status

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	studentModel "librarydesk_backend/internals/features/students/students/model"
	subModel "librarydesk_backend/internals/features/subscriptions/subscriptions/model"
)

type Status string

const (
	Blocked Status = "blocked"
	Active  Status = "active"
	Expired Status = "expired"
	New     Status = "new"
	NoPlan  Status = "no_plan"
)

// All is every tag in priority order.
var All = []Status{Blocked, Active, Expired, New, NoPlan}

// NewWindow is how long a student without any subscription stays "new".
const NewWindow = 24 * time.Hour

func Parse(s string) (Status, bool) {
	st := Status(s)
	return st, lo.Contains(All, st)
}

// Record is one student plus the subscriptions loaded for it. LibraryID is the tenant
// the record is viewed from; subscriptions of other tenants never count.
type Record struct {
	LibraryID     uuid.UUID
	Student       studentModel.StudentModel
	Subscriptions []subModel.SubscriptionModel
}

type Result struct {
	Status  Status
	Display *subModel.SubscriptionModel
}

func (r Record) tenantSubs() []subModel.SubscriptionModel {
	return lo.Filter(r.Subscriptions, func(s subModel.SubscriptionModel, _ int) bool {
		return r.LibraryID == uuid.Nil || s.SubscriptionLibraryID == r.LibraryID
	})
}

func inBranch(branchID *uuid.UUID) func(subModel.SubscriptionModel, int) bool {
	return func(s subModel.SubscriptionModel, _ int) bool {
		return branchID == nil || s.SubscriptionBranchID == *branchID
	}
}

// latestStart returns the subscription with the latest start date, ties broken by creation.
func latestStart(subs []subModel.SubscriptionModel) *subModel.SubscriptionModel {
	if len(subs) == 0 {
		return nil
	}
	sorted := append([]subModel.SubscriptionModel(nil), subs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].SubscriptionStartDate.Equal(sorted[j].SubscriptionStartDate) {
			return sorted[i].SubscriptionStartDate.After(sorted[j].SubscriptionStartDate)
		}
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	return &sorted[0]
}

// Derive classifies rec. First match wins:
// blocked, active (live sub in scope), expired (history in scope), new (no history at all
// and younger than NewWindow), no_plan.
// With branchID set, scope is that branch; history only in other branches yields no_plan.
func Derive(rec Record, branchID *uuid.UUID, now time.Time) Result {
	all := rec.tenantSubs()
	scoped := lo.Filter(all, inBranch(branchID))
	live := lo.Filter(scoped, func(s subModel.SubscriptionModel, _ int) bool { return s.IsLive(now) })

	display := latestStart(live)
	if display == nil {
		display = latestStart(scoped)
	}
	if display == nil {
		display = latestStart(all)
	}

	res := Result{Display: display}
	switch {
	case rec.Student.StudentIsBlocked:
		res.Status = Blocked
	case len(live) > 0:
		res.Status = Active
	case len(scoped) > 0:
		res.Status = Expired
	case len(all) == 0 && IsNew(rec.Student.CreatedAt, now):
		res.Status = New
	default:
		res.Status = NoPlan
	}
	return res
}

// IsNew is true strictly inside the window; at exactly NewWindow the student is no longer new.
func IsNew(createdAt, now time.Time) bool {
	return createdAt.After(now.Add(-NewWindow))
}
