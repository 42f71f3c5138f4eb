package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"librarydesk_backend/internals/features/libraries/branches/model"
)

// NewQRToken is 32 hex chars, unguessable enough for a kiosk code.
func NewQRToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func FindBranch(ctx context.Context, db *gorm.DB, libraryID, branchID uuid.UUID) (*model.BranchModel, error) {
	var b model.BranchModel
	if err := db.WithContext(ctx).
		First(&b, "branch_id = ? AND branch_library_id = ?", branchID, libraryID).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func FindBranchByQRToken(ctx context.Context, db *gorm.DB, token string) (*model.BranchModel, error) {
	var b model.BranchModel
	if err := db.WithContext(ctx).
		First(&b, "branch_qr_token = ? AND branch_is_active = TRUE", strings.TrimSpace(token)).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

type SeatStats struct {
	BranchID uuid.UUID
	Seats    int64
	Occupied int64
}

// SeatStatsByBranch counts active seats and those held by a live subscription at now.
func SeatStatsByBranch(ctx context.Context, db *gorm.DB, libraryID uuid.UUID, now time.Time) (map[uuid.UUID]SeatStats, error) {
	var rows []SeatStats
	err := db.WithContext(ctx).Raw(`
		SELECT s.seat_branch_id AS branch_id,
		       COUNT(*) AS seats,
		       COUNT(*) FILTER (WHERE EXISTS (
		           SELECT 1 FROM subscriptions sub
		           WHERE sub.subscription_seat_id = s.seat_id
		             AND sub.subscription_status = 'active'
		             AND sub.subscription_start_date <= ?
		             AND sub.subscription_end_date >= ?
		       )) AS occupied
		FROM seats s
		WHERE s.seat_library_id = ? AND s.seat_is_active = TRUE
		GROUP BY s.seat_branch_id
	`, now, now, libraryID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]SeatStats, len(rows))
	for _, r := range rows {
		out[r.BranchID] = r
	}
	return out, nil
}

// HasLiveSubscriptions blocks deleting a branch somebody is still paying for.
func HasLiveSubscriptions(ctx context.Context, db *gorm.DB, branchID uuid.UUID, now time.Time) (bool, error) {
	var exists bool
	err := db.WithContext(ctx).Raw(`
		SELECT EXISTS (
			SELECT 1 FROM subscriptions
			WHERE subscription_branch_id = ?
			  AND subscription_status IN ('active','pending')
			  AND subscription_end_date >= ?
		)`, branchID, now).Scan(&exists).Error
	return exists, err
}
