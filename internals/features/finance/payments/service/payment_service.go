// internals/features/finance/payments/service/payment_service.go
package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	feeModel "librarydesk_backend/internals/features/finance/fees/model"
	"librarydesk_backend/internals/features/finance/payments/dto"
	"librarydesk_backend/internals/features/finance/payments/gateway"
	"librarydesk_backend/internals/features/finance/payments/model"
	"librarydesk_backend/internals/features/finance/payments/repository"
	studentModel "librarydesk_backend/internals/features/students/students/model"
	"librarydesk_backend/internals/helpers/apperror"
	"librarydesk_backend/internals/helpers/mail"
	"librarydesk_backend/internals/helpers/reporter"
)

type Actor struct {
	UserID    uuid.UUID
	LibraryID uuid.UUID
	Loc       *time.Location
}

// CheckoutFunc opens an online checkout and returns (token, redirect url).
type CheckoutFunc func(orderID string, amount decimal.Decimal, item string, cust gateway.Customer) (string, string, error)

type Service struct {
	Store    repository.Store
	Mailer   mail.Sender
	Checkout CheckoutFunc
	Online   func() bool
	Now      func() time.Time
	// Spawn runs post-commit side effects such as receipts.
	Spawn func(func())
}

func New(store repository.Store, mailer mail.Sender) *Service {
	return &Service{
		Store:    store,
		Mailer:   mailer,
		Checkout: gateway.CreateCheckout,
		Online:   gateway.Enabled,
		Now:      time.Now,
		Spawn:    func(f func()) { go f() },
	}
}

/* ===== State machine ===== */

var transitions = map[model.PaymentStatus][]model.PaymentStatus{
	model.PaymentStatusPending:             {model.PaymentStatusCompleted, model.PaymentStatusFailed},
	model.PaymentStatusPendingVerification: {model.PaymentStatusCompleted, model.PaymentStatusFailed},
}

func Transition(from, to model.PaymentStatus) error {
	if lo.Contains(transitions[from], to) {
		return nil
	}
	return apperror.InvalidTransition("payment cannot move from " + string(from) + " to " + string(to))
}

/* ===== Record ===== */

// Record books a payment taken at the desk. Cash, upi and card complete immediately and count
// as collected by the caller; bank transfers need a proof and wait for verification; online
// payments open a gateway checkout and wait for its webhook.
func (s *Service) Record(ctx context.Context, a Actor, req dto.RecordRequest) (dto.RecordResponse, error) {
	req.Normalize()
	if err := req.Check(); err != nil {
		return dto.RecordResponse{}, err
	}
	method := model.PaymentMethod(req.Method)
	if !method.Valid() {
		return dto.RecordResponse{}, apperror.Validation("invalid method", "method", "is not supported")
	}
	if method == model.PaymentMethodBankTransfer && req.ProofURL == nil {
		return dto.RecordResponse{}, apperror.Validation("proof is required", "proof", "is required for bank transfers")
	}
	if method == model.PaymentMethodOnline && !s.Online() {
		return dto.RecordResponse{}, apperror.Validation("online payments are not configured", "method", "online payments are not configured")
	}
	now := s.Now()

	var p model.PaymentModel
	var student *studentModel.StudentModel
	err := s.Store.Tx(ctx, func(tx repository.Store) error {
		st, err := tx.Student(ctx, a.LibraryID, req.StudentID)
		if err != nil {
			return apperror.FromDB(err, "student")
		}
		student = st

		p = model.PaymentModel{
			PaymentID:        uuid.New(),
			PaymentLibraryID: a.LibraryID,
			PaymentStudentID: st.StudentID,
			PaymentMethod:    method,
			PaymentReference: req.Reference,
			PaymentProofURL:  req.ProofURL,
			PaymentNote:      req.Note,
		}
		if err := s.bindTarget(ctx, tx, a.LibraryID, &p, req); err != nil {
			return err
		}

		switch {
		case method.AtDesk():
			p.PaymentStatus = model.PaymentStatusCompleted
			p.PaymentCollectedBy = &a.UserID
			p.PaymentPaidAt = &now
		case method == model.PaymentMethodBankTransfer:
			p.PaymentStatus = model.PaymentStatusPendingVerification
		default:
			p.PaymentStatus = model.PaymentStatusPending
			ext := "LD-" + p.PaymentID.String()
			p.PaymentExternalID = &ext
		}

		inv, err := tx.NextInvoiceNumber(ctx, a.LibraryID, now.In(a.Loc))
		if err != nil {
			return apperror.FromDB(err, "payment")
		}
		p.PaymentInvoiceNumber = inv

		if err := tx.Create(ctx, &p); err != nil {
			return apperror.FromDB(err, "payment")
		}
		if p.PaymentStatus == model.PaymentStatusCompleted && p.PaymentFeeID != nil {
			if err := tx.MarkFeePaid(ctx, a.LibraryID, *p.PaymentFeeID); err != nil {
				return apperror.FromDB(err, "fee")
			}
		}
		return nil
	})
	if err != nil {
		return dto.RecordResponse{}, apperror.FromDB(err, "payment")
	}

	out := dto.RecordResponse{Payment: p}
	switch p.PaymentStatus {
	case model.PaymentStatusCompleted:
		s.sendReceipt(p)
	case model.PaymentStatusPending:
		token, url, err := s.openCheckout(ctx, &p, student)
		if err != nil {
			return dto.RecordResponse{}, err
		}
		out.Payment, out.SnapToken, out.CheckoutURL = p, &token, &url
	}
	return out, nil
}

// bindTarget points p at its subscription or fee, inheriting branch and default amount.
func (s *Service) bindTarget(ctx context.Context, tx repository.Store, libraryID uuid.UUID, p *model.PaymentModel, req dto.RecordRequest) error {
	var due decimal.Decimal
	if req.SubscriptionID != nil {
		sub, err := tx.Subscription(ctx, libraryID, *req.SubscriptionID)
		if err != nil {
			return apperror.FromDB(err, "subscription")
		}
		if sub.SubscriptionStudentID != p.PaymentStudentID {
			return apperror.NotFound("subscription")
		}
		p.PaymentSubscriptionID = &sub.SubscriptionID
		p.PaymentBranchID = sub.SubscriptionBranchID
		due = sub.SubscriptionAmount
	} else {
		fee, err := tx.LockFee(ctx, libraryID, *req.FeeID)
		if err != nil {
			return apperror.FromDB(err, "fee")
		}
		if fee.FeeStudentID != p.PaymentStudentID {
			return apperror.NotFound("fee")
		}
		if fee.FeeStatus == feeModel.FeePaid {
			return apperror.Conflict("fee is already paid")
		}
		p.PaymentFeeID = &fee.FeeID
		p.PaymentBranchID = fee.FeeBranchID
		due = fee.FeeAmount
	}

	if req.Amount != nil {
		p.PaymentAmount = req.Amount.Round(2)
	} else {
		p.PaymentAmount = due.Round(2)
	}
	if !p.PaymentAmount.IsPositive() {
		return apperror.Validation("invalid amount", "amount", "must be greater than zero")
	}
	return nil
}

func (s *Service) openCheckout(ctx context.Context, p *model.PaymentModel, st *studentModel.StudentModel) (string, string, error) {
	item, _ := s.Store.Describe(ctx, *p)
	if item == "" {
		item = "Library payment " + p.PaymentInvoiceNumber
	}
	cust := gateway.Customer{Name: st.StudentName, Email: lo.FromPtr(st.StudentEmail), Phone: lo.FromPtr(st.StudentPhone)}
	token, url, err := s.Checkout(*p.PaymentExternalID, p.PaymentAmount, item, cust)
	if err != nil {
		p.PaymentStatus = model.PaymentStatusFailed
		p.PaymentMeta = datatypes.JSONMap{"checkout_error": err.Error()}
		if saveErr := s.Store.Save(ctx, p); saveErr != nil {
			log.Printf("[PAYMENT] mark checkout failure %s: %v", p.PaymentID, saveErr)
		}
		return "", "", apperror.OperationFailed(err, "could not open online checkout")
	}
	p.PaymentCheckoutURL = &url
	p.PaymentMeta = datatypes.JSONMap{"snap_token": token}
	if err := s.Store.Save(ctx, p); err != nil {
		return "", "", apperror.FromDB(err, "payment")
	}
	return token, url, nil
}

/* ===== Verify / Reject ===== */

// Verify approves a bank transfer waiting for review.
func (s *Service) Verify(ctx context.Context, a Actor, id uuid.UUID) (model.PaymentModel, error) {
	p, err := s.review(ctx, a, id, model.PaymentStatusCompleted, "")
	if err == nil {
		s.sendReceipt(p)
	}
	return p, err
}

func (s *Service) Reject(ctx context.Context, a Actor, id uuid.UUID, reason string) (model.PaymentModel, error) {
	return s.review(ctx, a, id, model.PaymentStatusFailed, reason)
}

func (s *Service) review(ctx context.Context, a Actor, id uuid.UUID, to model.PaymentStatus, reason string) (model.PaymentModel, error) {
	var out model.PaymentModel
	err := s.Store.Tx(ctx, func(tx repository.Store) error {
		p, err := tx.LockPayment(ctx, a.LibraryID, id)
		if err != nil {
			return apperror.FromDB(err, "payment")
		}
		if p.PaymentStatus != model.PaymentStatusPendingVerification {
			return apperror.InvalidTransition("only payments pending verification can be reviewed")
		}
		if err := Transition(p.PaymentStatus, to); err != nil {
			return err
		}
		now := s.Now()
		p.PaymentStatus = to
		p.PaymentVerifiedBy = &a.UserID
		p.PaymentVerifiedAt = &now
		if to == model.PaymentStatusCompleted {
			p.PaymentPaidAt = &now
		}
		if reason != "" {
			note := "Rejected: " + reason
			if p.PaymentNote != nil {
				note = *p.PaymentNote + "\n" + note
			}
			p.PaymentNote = &note
		}
		if err := tx.Save(ctx, p); err != nil {
			return apperror.FromDB(err, "payment")
		}
		if to == model.PaymentStatusCompleted && p.PaymentFeeID != nil {
			if err := tx.MarkFeePaid(ctx, a.LibraryID, *p.PaymentFeeID); err != nil {
				return apperror.FromDB(err, "fee")
			}
		}
		out = *p
		return nil
	})
	if err != nil {
		return model.PaymentModel{}, apperror.FromDB(err, "payment")
	}
	return out, nil
}

/* ===== Gateway webhook ===== */

// ApplyNotification settles an online payment from a verified gateway callback. Unknown orders
// and repeats for already-final payments are ignored so the gateway stops retrying.
func (s *Service) ApplyNotification(ctx context.Context, n gateway.Notification) (*model.PaymentModel, bool, error) {
	to, ok := gateway.MapStatus(n)
	if !ok {
		return nil, false, nil
	}
	var out *model.PaymentModel
	applied := false
	err := s.Store.Tx(ctx, func(tx repository.Store) error {
		p, err := tx.LockByExternalID(ctx, n.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return apperror.FromDB(err, "payment")
		}
		out = p
		if p.PaymentStatus == to || Transition(p.PaymentStatus, to) != nil {
			return nil
		}
		now := s.Now()
		p.PaymentStatus = to
		if n.TransactionID != "" {
			ref := n.TransactionID
			p.PaymentReference = &ref
		}
		if p.PaymentMeta == nil {
			p.PaymentMeta = datatypes.JSONMap{}
		}
		p.PaymentMeta["transaction_status"] = n.TransactionStatus
		p.PaymentMeta["payment_type"] = n.PaymentType
		if to == model.PaymentStatusCompleted {
			p.PaymentPaidAt = &now
		}
		if err := tx.Save(ctx, p); err != nil {
			return apperror.FromDB(err, "payment")
		}
		if to == model.PaymentStatusCompleted && p.PaymentFeeID != nil {
			if err := tx.MarkFeePaid(ctx, p.PaymentLibraryID, *p.PaymentFeeID); err != nil {
				return apperror.FromDB(err, "fee")
			}
		}
		applied = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if applied && out.PaymentStatus == model.PaymentStatusCompleted {
		s.sendReceipt(*out)
	}
	return out, applied, nil
}

/* ===== Receipt ===== */

func (s *Service) sendReceipt(p model.PaymentModel) {
	if s.Mailer == nil {
		return
	}
	s.Spawn(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.deliverReceipt(ctx, p); err != nil {
			reporter.Error(err, map[string]interface{}{"payment_id": p.PaymentID.String(), "job": "receipt"})
		}
	})
}

func (s *Service) deliverReceipt(ctx context.Context, p model.PaymentModel) error {
	st, err := s.Store.Student(ctx, p.PaymentLibraryID, p.PaymentStudentID)
	if err != nil {
		return err
	}
	if st.StudentEmail == nil {
		return nil
	}
	lib, err := s.Store.Library(ctx, p.PaymentLibraryID)
	if err != nil {
		return err
	}
	desc, err := s.Store.Describe(ctx, p)
	if err != nil {
		return err
	}
	paidAt := lo.FromPtrOr(p.PaymentPaidAt, s.Now())
	msg, ok, err := mail.ReceiptMessage(mail.Receipt{
		LibraryName:   lib.LibraryName,
		StudentName:   st.StudentName,
		StudentEmail:  *st.StudentEmail,
		InvoiceNumber: p.PaymentInvoiceNumber,
		Amount:        p.PaymentAmount.StringFixed(2),
		Method:        string(p.PaymentMethod),
		PaidAt:        paidAt.In(lib.Location()),
		Description:   desc,
	})
	if err != nil || !ok {
		return err
	}
	return s.Mailer.Send(ctx, msg)
}
