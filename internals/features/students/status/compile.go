package status

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"librarydesk_backend/internals/helpers/apperror"
)

// Filter is the list query of the students screen.
type Filter struct {
	LibraryID   uuid.UUID
	Search      string
	BranchID    *uuid.UUID
	Status      Status // empty means any
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// Compile turns f into one predicate. For every tenant record and status S,
// Compile(S).Match(rec) equals Derive(rec).Status == S.
func Compile(f Filter, now time.Time) (Predicate, error) {
	if f.LibraryID == uuid.Nil {
		return nil, apperror.Unauthorized("library scope missing")
	}
	if f.Status != "" {
		if _, ok := Parse(string(f.Status)); !ok {
			return nil, apperror.Validation("invalid status", "status", "must be one of active, expired, new, no_plan, blocked")
		}
	}

	tenantSub := HasSubscription{LibraryID: f.LibraryID}
	scopeSub := HasSubscription{LibraryID: f.LibraryID, BranchID: f.BranchID}
	liveSub := HasSubscription{LibraryID: f.LibraryID, BranchID: f.BranchID, LiveAt: &now}
	notBlocked := Not(IsBlocked{})
	isNew := And(notBlocked, CreatedAfter{At: now.Add(-NewWindow)}, Not(tenantSub))

	clauses := []Predicate{Or(TenantOwned{LibraryID: f.LibraryID}, tenantSub)}

	switch f.Status {
	case Blocked:
		clauses = append(clauses, IsBlocked{})
	case Active:
		clauses = append(clauses, liveSub, notBlocked)
	case Expired:
		clauses = append(clauses, scopeSub, Not(liveSub), notBlocked)
	case New:
		clauses = append(clauses, isNew)
	case NoPlan:
		clauses = append(clauses, notBlocked, Not(scopeSub), Not(isNew))
	default:
		if f.BranchID != nil {
			clauses = append(clauses, Or(HomeBranch{BranchID: *f.BranchID}, scopeSub))
		}
	}

	if q := strings.TrimSpace(f.Search); q != "" {
		clauses = append(clauses, Search{Q: q})
	}
	if f.CreatedFrom != nil {
		clauses = append(clauses, CreatedFrom{At: *f.CreatedFrom})
	}
	if f.CreatedTo != nil {
		clauses = append(clauses, CreatedBefore{At: *f.CreatedTo})
	}
	return And(clauses...), nil
}
