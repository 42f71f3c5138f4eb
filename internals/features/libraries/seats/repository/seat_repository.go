package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Unit describes one kind of rentable slot. Seats and lockers share the grid logic.
type Unit struct {
	Name      string // seat | locker
	Table     string
	Prefix    string // column prefix
	SubColumn string // subscriptions column pointing at the unit
	HasSect   bool
}

var (
	Seat   = Unit{Name: "seat", Table: "seats", Prefix: "seat", SubColumn: "subscription_seat_id", HasSect: true}
	Locker = Unit{Name: "locker", Table: "lockers", Prefix: "locker", SubColumn: "subscription_locker_id"}
)

// GridRow is a unit plus whoever holds it right now.
type GridRow struct {
	ID             uuid.UUID  `json:"id"`
	BranchID       uuid.UUID  `json:"branch_id"`
	Number         string     `json:"number"`
	Section        *string    `json:"section,omitempty"`
	IsActive       bool       `json:"is_active"`
	SubscriptionID *uuid.UUID `json:"subscription_id,omitempty"`
	OccupiedUntil  *time.Time `json:"occupied_until,omitempty"`
	StudentID      *uuid.UUID `json:"student_id,omitempty"`
	StudentName    *string    `json:"student_name,omitempty"`
}

func (r GridRow) Occupied() bool { return r.SubscriptionID != nil }

func (u Unit) gridSQL(where string) string {
	section := "NULL::varchar"
	if u.HasSect {
		section = "x." + u.Prefix + "_section"
	}
	return fmt.Sprintf(`
		SELECT x.%[1]s_id AS id,
		       x.%[1]s_branch_id AS branch_id,
		       x.%[1]s_number AS number,
		       %[2]s AS section,
		       x.%[1]s_is_active AS is_active,
		       cur.subscription_id,
		       cur.subscription_end_date AS occupied_until,
		       st.student_id,
		       st.student_name
		FROM %[3]s x
		LEFT JOIN LATERAL (
		    SELECT sub.subscription_id, sub.subscription_end_date, sub.subscription_student_id
		    FROM subscriptions sub
		    WHERE sub.%[4]s = x.%[1]s_id
		      AND sub.subscription_status = 'active'
		      AND sub.subscription_start_date <= ?
		      AND sub.subscription_end_date >= ?
		    ORDER BY sub.subscription_end_date DESC
		    LIMIT 1
		) cur ON TRUE
		LEFT JOIN students st ON st.student_id = cur.subscription_student_id
		WHERE x.%[1]s_library_id = ? AND %[5]s
		ORDER BY length(x.%[1]s_number), x.%[1]s_number`,
		u.Prefix, section, u.Table, u.SubColumn, where)
}

// Grid lists every unit of a branch with its current occupant at now.
func Grid(ctx context.Context, db *gorm.DB, u Unit, libraryID, branchID uuid.UUID, now time.Time) ([]GridRow, error) {
	rows := []GridRow{}
	err := db.WithContext(ctx).
		Raw(u.gridSQL(fmt.Sprintf("x.%s_branch_id = ?", u.Prefix)), now, now, libraryID, branchID).
		Scan(&rows).Error
	return rows, err
}

// GridRowByID is Grid for a single unit, used to answer mutations with the fresh row.
func GridRowByID(ctx context.Context, db *gorm.DB, u Unit, libraryID, id uuid.UUID, now time.Time) (*GridRow, error) {
	var rows []GridRow
	err := db.WithContext(ctx).
		Raw(u.gridSQL(fmt.Sprintf("x.%s_id = ?", u.Prefix)), now, now, libraryID, id).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}

// HeldUntil reports whether any active or pending subscription still references the unit on or
// after now.
func HeldUntil(ctx context.Context, db *gorm.DB, u Unit, id uuid.UUID, now time.Time) (bool, error) {
	var exists bool
	err := db.WithContext(ctx).Raw(fmt.Sprintf(`
		SELECT EXISTS (
			SELECT 1 FROM subscriptions
			WHERE %s = ?
			  AND subscription_status IN ('active','pending')
			  AND subscription_end_date >= ?
		)`, u.SubColumn), id, now).Scan(&exists).Error
	return exists, err
}
