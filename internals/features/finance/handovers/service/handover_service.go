// internals/features/finance/handovers/service/handover_service.go
package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/samber/lo"

	"librarydesk_backend/internals/features/finance/handovers/dto"
	"librarydesk_backend/internals/features/finance/handovers/ledger"
	"librarydesk_backend/internals/features/finance/handovers/model"
	"librarydesk_backend/internals/features/finance/handovers/repository"
	paymentModel "librarydesk_backend/internals/features/finance/payments/model"
	"librarydesk_backend/internals/helpers/apperror"
	"librarydesk_backend/internals/helpers/dbtime"
)

type Actor struct {
	UserID    uuid.UUID
	LibraryID uuid.UUID
	Loc       *time.Location
}

type Service struct {
	Store repository.Store
	Now   func() time.Time
}

func New(store repository.Store) *Service {
	return &Service{Store: store, Now: time.Now}
}

// book loads everything the ledger needs for [start, end) of one staff member.
func book(ctx context.Context, st repository.Store, lib, staff uuid.UUID, end time.Time) ([]ledger.Collection, []ledger.Handover, error) {
	cols, err := st.Collections(ctx, lib, staff, end)
	if err != nil {
		return nil, nil, apperror.OperationFailed(err, "failed to load collections")
	}
	hos, err := st.Handovers(ctx, lib, staff, end)
	if err != nil {
		return nil, nil, apperror.OperationFailed(err, "failed to load handovers")
	}
	return cols, hos, nil
}

func (s *Service) window(a Actor, month string) (time.Time, time.Time, error) {
	start, end, err := dbtime.ParseMonth(month, s.Now().In(a.Loc), a.Loc)
	if err != nil {
		return time.Time{}, time.Time{}, apperror.Validation(err.Error(), "month", "must be YYYY-MM")
	}
	return start, end, nil
}

/* ===== Reads ===== */

func (s *Service) Summary(ctx context.Context, a Actor, staffID uuid.UUID, month string) (dto.SummaryResponse, error) {
	start, end, err := s.window(a, month)
	if err != nil {
		return dto.SummaryResponse{}, err
	}
	staff, err := s.Store.Staff(ctx, a.LibraryID, staffID)
	if err != nil {
		return dto.SummaryResponse{}, apperror.FromDB(err, "staff")
	}
	cols, hos, err := book(ctx, s.Store, a.LibraryID, staffID, end)
	if err != nil {
		return dto.SummaryResponse{}, err
	}
	return dto.SummaryResponse{
		StaffID:   staffID,
		StaffName: staff.UserName,
		Month:     dto.MonthLabel(start),
		Summary:   ledger.Summarize(start, end, cols, hos),
	}, nil
}

func (s *Service) Transactions(ctx context.Context, a Actor, staffID uuid.UUID, month string) (dto.TransactionsResponse, error) {
	start, end, err := s.window(a, month)
	if err != nil {
		return dto.TransactionsResponse{}, err
	}
	if _, err := s.Store.Staff(ctx, a.LibraryID, staffID); err != nil {
		return dto.TransactionsResponse{}, apperror.FromDB(err, "staff")
	}
	cols, hos, err := book(ctx, s.Store, a.LibraryID, staffID, end)
	if err != nil {
		return dto.TransactionsResponse{}, err
	}
	opening := ledger.Summarize(start, end, cols, hos).CarriedForward
	return dto.TransactionsResponse{
		StaffID: staffID,
		Month:   dto.MonthLabel(start),
		Opening: opening.StringFixed(2),
		Entries: ledger.Entries(start, end, cols, hos),
	}, nil
}

/* ===== Submit ===== */

// Submit books a pending handover for the caller. The staff row lock serialises concurrent
// submissions, so two requests cannot both spend the same available balance.
func (s *Service) Submit(ctx context.Context, a Actor, req dto.SubmitRequest) (*model.CashHandoverModel, error) {
	req.Normalize()
	var out *model.CashHandoverModel

	err := s.Store.Tx(ctx, func(tx repository.Store) error {
		if _, err := tx.LockStaff(ctx, a.LibraryID, a.UserID); err != nil {
			return apperror.FromDB(err, "staff")
		}

		now := s.Now().In(a.Loc)
		start, end := dbtime.MonthWindow(now, a.Loc)
		cols, hos, err := book(ctx, tx, a.LibraryID, a.UserID, end)
		if err != nil {
			return err
		}
		if err := ledger.CheckAvailable(ledger.Summarize(start, end, cols, hos), req.Amount); err != nil {
			return err
		}

		if err := s.checkClaims(ctx, tx, a, req.PaymentIDs); err != nil {
			return err
		}

		h := &model.CashHandoverModel{
			HandoverID:         uuid.New(),
			HandoverLibraryID:  a.LibraryID,
			HandoverStaffID:    a.UserID,
			HandoverAmount:     req.Amount,
			HandoverMethod:     model.HandoverMethod(req.Method),
			HandoverStatus:     model.HandoverPending,
			HandoverNotes:      req.Notes,
			HandoverAttachment: req.AttachmentURL,
			HandoverPaymentIDs: pq.StringArray(lo.Map(req.PaymentIDs, func(id uuid.UUID, _ int) string { return id.String() })),
			CreatedAt:          now,
		}
		if err := tx.Create(ctx, h); err != nil {
			return apperror.OperationFailed(err, "failed to submit handover")
		}
		if err := tx.LinkPayments(ctx, h.HandoverID, req.PaymentIDs); err != nil {
			return apperror.OperationFailed(err, "failed to claim payments")
		}
		out = h
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[HANDOVER] submitted %s staff=%s amount=%s claims=%d",
		out.HandoverID, a.UserID, out.HandoverAmount.StringFixed(2), len(req.PaymentIDs))
	return out, nil
}

func (s *Service) checkClaims(ctx context.Context, tx repository.Store, a Actor, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	rows, err := tx.LockPayments(ctx, a.LibraryID, ids)
	if err != nil {
		return apperror.OperationFailed(err, "failed to load payments")
	}
	found := lo.KeyBy(rows, func(p paymentModel.PaymentModel) uuid.UUID { return p.PaymentID })
	for _, id := range ids {
		p, ok := found[id]
		if !ok {
			return apperror.NotFound("payment " + id.String())
		}
		if !p.Claimable(a.UserID) {
			return apperror.Validation(
				"payment "+p.PaymentInvoiceNumber+" cannot be claimed",
				"payment_ids", "must be your own completed cash/upi payments not yet handed over",
			)
		}
	}
	return nil
}

/* ===== Review ===== */

func (s *Service) Verify(ctx context.Context, a Actor, id uuid.UUID, note string) (*model.CashHandoverModel, error) {
	return s.review(ctx, a, id, model.HandoverVerified, note)
}

// Reject returns the amount to the staff member's available balance and frees claimed payments.
func (s *Service) Reject(ctx context.Context, a Actor, id uuid.UUID, note string) (*model.CashHandoverModel, error) {
	return s.review(ctx, a, id, model.HandoverRejected, note)
}

func (s *Service) review(ctx context.Context, a Actor, id uuid.UUID, to model.HandoverStatus, note string) (*model.CashHandoverModel, error) {
	var out *model.CashHandoverModel
	err := s.Store.Tx(ctx, func(tx repository.Store) error {
		h, err := tx.LockHandover(ctx, a.LibraryID, id)
		if err != nil {
			return apperror.FromDB(err, "handover")
		}
		if err := ledger.Transition(h.HandoverStatus, to); err != nil {
			return err
		}

		now := s.Now()
		h.HandoverStatus = to
		h.HandoverReviewedBy = &a.UserID
		h.HandoverReviewedAt = &now
		if note != "" {
			h.HandoverReviewNote = &note
		}
		if err := tx.Save(ctx, h); err != nil {
			return apperror.OperationFailed(err, "failed to update handover")
		}
		if to == model.HandoverRejected {
			if err := tx.UnlinkPayments(ctx, h.HandoverID); err != nil {
				return apperror.OperationFailed(err, "failed to release payments")
			}
		}
		out = h
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[HANDOVER] %s %s by %s", out.HandoverID, to, a.UserID)
	return out, nil
}
