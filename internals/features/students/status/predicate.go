package status

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"

	subModel "librarydesk_backend/internals/features/subscriptions/subscriptions/model"
)

// Predicate renders to a WHERE fragment over the students table and evaluates the same
// condition against an in-memory Record.
type Predicate interface {
	SQL() (string, []any)
	Match(Record) bool
}

// Scope applies p to a students query.
func Scope(p Predicate) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		sql, args := p.SQL()
		return db.Where(sql, args...)
	}
}

/* ===== Combinators ===== */

type and []Predicate
type or []Predicate
type not struct{ p Predicate }

func And(ps ...Predicate) Predicate { return and(ps) }
func Or(ps ...Predicate) Predicate  { return or(ps) }
func Not(p Predicate) Predicate     { return not{p} }

func join(ps []Predicate, op, empty string) (string, []any) {
	if len(ps) == 0 {
		return empty, nil
	}
	parts := make([]string, 0, len(ps))
	var args []any
	for _, p := range ps {
		s, a := p.SQL()
		parts = append(parts, "("+s+")")
		args = append(args, a...)
	}
	return strings.Join(parts, " "+op+" "), args
}

func (a and) SQL() (string, []any) { return join(a, "AND", "TRUE") }
func (a and) Match(r Record) bool {
	return lo.EveryBy([]Predicate(a), func(p Predicate) bool { return p.Match(r) })
}

func (o or) SQL() (string, []any) { return join(o, "OR", "FALSE") }
func (o or) Match(r Record) bool {
	return lo.SomeBy([]Predicate(o), func(p Predicate) bool { return p.Match(r) })
}

func (n not) SQL() (string, []any) {
	s, a := n.p.SQL()
	return "NOT (" + s + ")", a
}
func (n not) Match(r Record) bool { return !n.p.Match(r) }

/* ===== Leaves over the student row ===== */

// TenantOwned: the student row belongs to the library.
type TenantOwned struct{ LibraryID uuid.UUID }

func (t TenantOwned) SQL() (string, []any) {
	return "students.student_library_id = ?", []any{t.LibraryID}
}
func (t TenantOwned) Match(r Record) bool { return r.Student.StudentLibraryID == t.LibraryID }

type IsBlocked struct{}

func (IsBlocked) SQL() (string, []any) { return "students.student_is_blocked = TRUE", nil }
func (IsBlocked) Match(r Record) bool  { return r.Student.StudentIsBlocked }

// CreatedAfter is strict: created_at > At.
type CreatedAfter struct{ At time.Time }

func (c CreatedAfter) SQL() (string, []any) { return "students.student_created_at > ?", []any{c.At} }
func (c CreatedAfter) Match(r Record) bool  { return r.Student.CreatedAt.After(c.At) }

// CreatedFrom is inclusive: created_at >= At.
type CreatedFrom struct{ At time.Time }

func (c CreatedFrom) SQL() (string, []any) { return "students.student_created_at >= ?", []any{c.At} }
func (c CreatedFrom) Match(r Record) bool  { return !r.Student.CreatedAt.Before(c.At) }

// CreatedBefore is exclusive: created_at < At.
type CreatedBefore struct{ At time.Time }

func (c CreatedBefore) SQL() (string, []any) { return "students.student_created_at < ?", []any{c.At} }
func (c CreatedBefore) Match(r Record) bool  { return r.Student.CreatedAt.Before(c.At) }

type HomeBranch struct{ BranchID uuid.UUID }

func (h HomeBranch) SQL() (string, []any) {
	return "students.student_branch_id = ?", []any{h.BranchID}
}
func (h HomeBranch) Match(r Record) bool {
	return r.Student.StudentBranchID != nil && *r.Student.StudentBranchID == h.BranchID
}

// Search is a case-insensitive substring over name and email, and a plain substring over phone.
type Search struct{ Q string }

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (s Search) SQL() (string, []any) {
	pat := "%" + escapeLike(s.Q) + "%"
	return "students.student_name ILIKE ? OR students.student_email ILIKE ? OR students.student_phone LIKE ?",
		[]any{pat, pat, pat}
}

func (s Search) Match(r Record) bool {
	q := strings.ToLower(s.Q)
	st := r.Student
	if strings.Contains(strings.ToLower(st.StudentName), q) {
		return true
	}
	if st.StudentEmail != nil && strings.Contains(strings.ToLower(*st.StudentEmail), q) {
		return true
	}
	return st.StudentPhone != nil && strings.Contains(*st.StudentPhone, s.Q)
}

/* ===== Subscription existence ===== */

// HasSubscription: at least one subscription of the student in the library, optionally
// narrowed to a branch, optionally only live ones (active and not ended at LiveAt).
type HasSubscription struct {
	LibraryID uuid.UUID
	BranchID  *uuid.UUID
	LiveAt    *time.Time
}

func (h HasSubscription) SQL() (string, []any) {
	var b strings.Builder
	b.WriteString("EXISTS (SELECT 1 FROM subscriptions sub WHERE sub.subscription_student_id = students.student_id AND sub.subscription_library_id = ?")
	args := []any{h.LibraryID}
	if h.BranchID != nil {
		b.WriteString(" AND sub.subscription_branch_id = ?")
		args = append(args, *h.BranchID)
	}
	if h.LiveAt != nil {
		b.WriteString(" AND sub.subscription_status = ? AND sub.subscription_end_date >= ?")
		args = append(args, string(subModel.SubscriptionActive), *h.LiveAt)
	}
	b.WriteString(")")
	return b.String(), args
}

func (h HasSubscription) Match(r Record) bool {
	return lo.SomeBy(r.Subscriptions, func(s subModel.SubscriptionModel) bool {
		if s.SubscriptionLibraryID != h.LibraryID {
			return false
		}
		if h.BranchID != nil && s.SubscriptionBranchID != *h.BranchID {
			return false
		}
		return h.LiveAt == nil || s.IsLive(*h.LiveAt)
	})
}
