package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"librarydesk_backend/internals/features/finance/payments/model"
)

// InvoicePrefix is "INV-YYYYMM-" for the month of at (already in library time).
func InvoicePrefix(at time.Time) string {
	return "INV-" + at.Format("200601") + "-"
}

func FormatInvoice(prefix string, seq int64) string {
	return fmt.Sprintf("%s%05d", prefix, seq)
}

// nextInvoiceNumber hands out the next monthly sequence of the library. The advisory lock
// serialises concurrent issuers until the surrounding transaction ends.
func nextInvoiceNumber(ctx context.Context, tx *gorm.DB, libraryID uuid.UUID, at time.Time) (string, error) {
	prefix := InvoicePrefix(at)
	if err := tx.WithContext(ctx).
		Exec("SELECT pg_advisory_xact_lock(hashtextextended(?, 0))", libraryID.String()+prefix).Error; err != nil {
		return "", errors.Wrap(err, "invoice lock")
	}
	var last int64
	err := tx.WithContext(ctx).Model(&model.PaymentModel{}).
		Select("COALESCE(MAX(CAST(SUBSTRING(payment_invoice_number FROM ?) AS BIGINT)), 0)", len(prefix)+1).
		Where("payment_library_id = ? AND payment_invoice_number LIKE ?", libraryID, prefix+"%").
		Scan(&last).Error
	if err != nil {
		return "", errors.Wrap(err, "invoice sequence")
	}
	return FormatInvoice(prefix, last+1), nil
}
