package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	feeModel "librarydesk_backend/internals/features/finance/fees/model"
	"librarydesk_backend/internals/features/finance/payments/dto"
	"librarydesk_backend/internals/features/finance/payments/gateway"
	"librarydesk_backend/internals/features/finance/payments/model"
	"librarydesk_backend/internals/features/finance/payments/repository"
	libModel "librarydesk_backend/internals/features/libraries/libraries/model"
	studentModel "librarydesk_backend/internals/features/students/students/model"
	subModel "librarydesk_backend/internals/features/subscriptions/subscriptions/model"
	"librarydesk_backend/internals/helpers/apperror"
	"librarydesk_backend/internals/helpers/mail"
)

type memStore struct {
	students map[uuid.UUID]studentModel.StudentModel
	subs     map[uuid.UUID]subModel.SubscriptionModel
	fees     map[uuid.UUID]*feeModel.AdditionalFeeModel
	payments []*model.PaymentModel
	seq      map[string]int64
}

var _ repository.Store = (*memStore)(nil)

func (m *memStore) Tx(ctx context.Context, fn func(tx repository.Store) error) error { return fn(m) }

func (m *memStore) Student(_ context.Context, libraryID, id uuid.UUID) (*studentModel.StudentModel, error) {
	st, ok := m.students[id]
	if !ok || st.StudentLibraryID != libraryID {
		return nil, gorm.ErrRecordNotFound
	}
	return &st, nil
}

func (m *memStore) Subscription(_ context.Context, libraryID, id uuid.UUID) (*subModel.SubscriptionModel, error) {
	s, ok := m.subs[id]
	if !ok || s.SubscriptionLibraryID != libraryID {
		return nil, gorm.ErrRecordNotFound
	}
	return &s, nil
}

func (m *memStore) LockFee(_ context.Context, libraryID, id uuid.UUID) (*feeModel.AdditionalFeeModel, error) {
	f, ok := m.fees[id]
	if !ok || f.FeeLibraryID != libraryID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *f
	return &cp, nil
}

func (m *memStore) MarkFeePaid(_ context.Context, _, feeID uuid.UUID) error {
	m.fees[feeID].FeeStatus = feeModel.FeePaid
	return nil
}

func (m *memStore) Library(_ context.Context, libraryID uuid.UUID) (*libModel.LibraryModel, error) {
	return &libModel.LibraryModel{LibraryID: libraryID, LibraryName: "Quiet Corner", LibraryTimezone: "Asia/Kolkata"}, nil
}

func (m *memStore) Describe(_ context.Context, p model.PaymentModel) (string, error) {
	if p.PaymentFeeID != nil {
		return m.fees[*p.PaymentFeeID].FeeTitle, nil
	}
	return "Monthly", nil
}

func (m *memStore) NextInvoiceNumber(_ context.Context, _ uuid.UUID, at time.Time) (string, error) {
	prefix := repository.InvoicePrefix(at)
	m.seq[prefix]++
	return repository.FormatInvoice(prefix, m.seq[prefix]), nil
}

func (m *memStore) Create(_ context.Context, p *model.PaymentModel) error {
	cp := *p
	m.payments = append(m.payments, &cp)
	return nil
}

func (m *memStore) Save(_ context.Context, p *model.PaymentModel) error {
	for i, q := range m.payments {
		if q.PaymentID == p.PaymentID {
			cp := *p
			m.payments[i] = &cp
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *memStore) find(match func(*model.PaymentModel) bool) (*model.PaymentModel, error) {
	for _, p := range m.payments {
		if match(p) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memStore) LockPayment(_ context.Context, libraryID, id uuid.UUID) (*model.PaymentModel, error) {
	return m.find(func(p *model.PaymentModel) bool { return p.PaymentID == id && p.PaymentLibraryID == libraryID })
}

func (m *memStore) LockByExternalID(_ context.Context, ext string) (*model.PaymentModel, error) {
	return m.find(func(p *model.PaymentModel) bool { return p.PaymentExternalID != nil && *p.PaymentExternalID == ext })
}

/* ===== fixture ===== */

var (
	libID     = uuid.New()
	staffID   = uuid.New()
	ravi      = uuid.New()
	noMail    = uuid.New()
	subID     = uuid.New()
	feeID     = uuid.New()
	branchID  = uuid.New()
	ist       = time.FixedZone("IST", 5*3600+1800)
	fixedTime = time.Date(2026, 3, 10, 11, 0, 0, 0, ist)
)

func fixture(t *testing.T) (*Service, *memStore, *mail.ConsoleSender, Actor) {
	t.Helper()
	email := "ravi@example.com"
	store := &memStore{
		students: map[uuid.UUID]studentModel.StudentModel{
			ravi:   {StudentID: ravi, StudentLibraryID: libID, StudentName: "Ravi", StudentEmail: &email},
			noMail: {StudentID: noMail, StudentLibraryID: libID, StudentName: "Asha"},
		},
		subs: map[uuid.UUID]subModel.SubscriptionModel{
			subID: {SubscriptionID: subID, SubscriptionLibraryID: libID, SubscriptionStudentID: ravi,
				SubscriptionBranchID: branchID, SubscriptionAmount: decimal.NewFromInt(1500)},
		},
		fees: map[uuid.UUID]*feeModel.AdditionalFeeModel{
			feeID: {FeeID: feeID, FeeLibraryID: libID, FeeStudentID: ravi, FeeBranchID: branchID,
				FeeTitle: "Locker key", FeeAmount: decimal.NewFromInt(200), FeeStatus: feeModel.FeeUnpaid},
		},
		seq: map[string]int64{},
	}
	mailer := mail.NewConsole("LibraryDesk", "noreply@example.com")
	svc := New(store, mailer)
	svc.Now = func() time.Time { return fixedTime }
	svc.Spawn = func(f func()) { f() }
	svc.Online = func() bool { return true }
	svc.Checkout = func(orderID string, amount decimal.Decimal, item string, cust gateway.Customer) (string, string, error) {
		return "snap-" + orderID, "https://pay.example/" + orderID, nil
	}
	return svc, store, mailer, Actor{UserID: staffID, LibraryID: libID, Loc: ist}
}

func ptr[T any](v T) *T { return &v }

func kindOf(t *testing.T, err error) apperror.Kind {
	t.Helper()
	require.Error(t, err)
	return apperror.From(err).Kind
}

/* ===== tests ===== */

func TestRecord_CashCompletesAndIsCollectedByCaller(t *testing.T) {
	svc, store, mailer, a := fixture(t)

	res, err := svc.Record(context.Background(), a, dto.RecordRequest{StudentID: ravi, SubscriptionID: ptr(subID), Method: "CASH"})
	require.NoError(t, err)

	p := res.Payment
	assert.Equal(t, model.PaymentStatusCompleted, p.PaymentStatus)
	assert.Equal(t, model.PaymentMethodCash, p.PaymentMethod)
	assert.Equal(t, staffID, *p.PaymentCollectedBy)
	assert.True(t, decimal.NewFromInt(1500).Equal(p.PaymentAmount))
	assert.Equal(t, branchID, p.PaymentBranchID)
	assert.Equal(t, "INV-202603-00001", p.PaymentInvoiceNumber)
	assert.True(t, p.Claimable(staffID))
	require.Len(t, store.payments, 1)

	require.Len(t, mailer.Sent, 1)
	assert.Equal(t, "ravi@example.com", mailer.Sent[0].ToEmail)
	assert.Contains(t, mailer.Sent[0].Text, "INV-202603-00001")
}

func TestRecord_InvoiceSequence(t *testing.T) {
	svc, _, _, a := fixture(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		res, err := svc.Record(ctx, a, dto.RecordRequest{StudentID: ravi, SubscriptionID: ptr(subID), Method: "upi", Amount: ptr(decimal.NewFromInt(100))})
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("INV-202603-%05d", i), res.Payment.PaymentInvoiceNumber)
	}
}

func TestRecord_FeeMarkedPaid(t *testing.T) {
	svc, store, _, a := fixture(t)
	ctx := context.Background()

	res, err := svc.Record(ctx, a, dto.RecordRequest{StudentID: ravi, FeeID: ptr(feeID), Method: "card"})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(200).Equal(res.Payment.PaymentAmount))
	assert.Equal(t, feeModel.FeePaid, store.fees[feeID].FeeStatus)
	assert.False(t, res.Payment.Claimable(staffID), "card is not hand-collected cash")

	_, err = svc.Record(ctx, a, dto.RecordRequest{StudentID: ravi, FeeID: ptr(feeID), Method: "cash"})
	assert.Equal(t, apperror.KindConflict, kindOf(t, err))
}

func TestRecord_Validation(t *testing.T) {
	cases := []struct {
		name string
		req  dto.RecordRequest
		kind apperror.Kind
	}{
		{"no target", dto.RecordRequest{StudentID: ravi, Method: "cash"}, apperror.KindValidation},
		{"two targets", dto.RecordRequest{StudentID: ravi, SubscriptionID: ptr(subID), FeeID: ptr(feeID), Method: "cash"}, apperror.KindValidation},
		{"zero amount", dto.RecordRequest{StudentID: ravi, SubscriptionID: ptr(subID), Method: "cash", Amount: ptr(decimal.Zero)}, apperror.KindValidation},
		{"bank transfer without proof", dto.RecordRequest{StudentID: ravi, SubscriptionID: ptr(subID), Method: "bank_transfer"}, apperror.KindValidation},
		{"unknown method", dto.RecordRequest{StudentID: ravi, SubscriptionID: ptr(subID), Method: "cheque"}, apperror.KindValidation},
		{"someone else's subscription", dto.RecordRequest{StudentID: noMail, SubscriptionID: ptr(subID), Method: "cash"}, apperror.KindNotFound},
		{"unknown student", dto.RecordRequest{StudentID: uuid.New(), SubscriptionID: ptr(subID), Method: "cash"}, apperror.KindNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, store, _, a := fixture(t)
			_, err := svc.Record(context.Background(), a, tc.req)
			assert.Equal(t, tc.kind, kindOf(t, err))
			assert.Empty(t, store.payments)
		})
	}
}

func TestBankTransfer_VerifyAndReject(t *testing.T) {
	svc, store, mailer, a := fixture(t)
	ctx := context.Background()
	proof := "https://files.example/proof.png"

	res, err := svc.Record(ctx, a, dto.RecordRequest{StudentID: ravi, FeeID: ptr(feeID), Method: "bank_transfer", ProofURL: &proof})
	require.NoError(t, err)
	p := res.Payment
	assert.Equal(t, model.PaymentStatusPendingVerification, p.PaymentStatus)
	assert.Nil(t, p.PaymentCollectedBy)
	assert.Nil(t, p.PaymentPaidAt)
	assert.Equal(t, feeModel.FeeUnpaid, store.fees[feeID].FeeStatus)
	assert.Empty(t, mailer.Sent)

	verified, err := svc.Verify(ctx, a, p.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusCompleted, verified.PaymentStatus)
	assert.Equal(t, staffID, *verified.PaymentVerifiedBy)
	assert.NotNil(t, verified.PaymentPaidAt)
	assert.Equal(t, feeModel.FeePaid, store.fees[feeID].FeeStatus)
	assert.Len(t, mailer.Sent, 1)

	_, err = svc.Verify(ctx, a, p.PaymentID)
	assert.Equal(t, apperror.KindInvalidTransition, kindOf(t, err))
	_, err = svc.Reject(ctx, a, p.PaymentID, "late")
	assert.Equal(t, apperror.KindInvalidTransition, kindOf(t, err))
}

func TestBankTransfer_RejectKeepsReason(t *testing.T) {
	svc, _, _, a := fixture(t)
	ctx := context.Background()
	proof := "https://files.example/proof.png"

	res, err := svc.Record(ctx, a, dto.RecordRequest{StudentID: ravi, SubscriptionID: ptr(subID), Method: "bank_transfer", ProofURL: &proof})
	require.NoError(t, err)

	rejected, err := svc.Reject(ctx, a, res.Payment.PaymentID, "blurry screenshot")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusFailed, rejected.PaymentStatus)
	require.NotNil(t, rejected.PaymentNote)
	assert.Contains(t, *rejected.PaymentNote, "blurry screenshot")

	_, err = svc.Reject(ctx, a, res.Payment.PaymentID, "")
	assert.Equal(t, apperror.KindInvalidTransition, kindOf(t, err))

	_, err = svc.Verify(ctx, Actor{UserID: staffID, LibraryID: uuid.New(), Loc: ist}, res.Payment.PaymentID)
	assert.Equal(t, apperror.KindNotFound, kindOf(t, err))
}

func TestOnline_CheckoutAndWebhook(t *testing.T) {
	svc, store, mailer, a := fixture(t)
	ctx := context.Background()

	res, err := svc.Record(ctx, a, dto.RecordRequest{StudentID: ravi, FeeID: ptr(feeID), Method: "online"})
	require.NoError(t, err)
	p := res.Payment
	assert.Equal(t, model.PaymentStatusPending, p.PaymentStatus)
	require.NotNil(t, p.PaymentExternalID)
	require.NotNil(t, res.SnapToken)
	assert.Equal(t, "snap-"+*p.PaymentExternalID, *res.SnapToken)
	assert.Equal(t, "https://pay.example/"+*p.PaymentExternalID, *store.payments[0].PaymentCheckoutURL)

	got, applied, err := svc.ApplyNotification(ctx, gateway.Notification{OrderID: *p.PaymentExternalID, TransactionStatus: "settlement", TransactionID: "tx-1"})
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, model.PaymentStatusCompleted, got.PaymentStatus)
	assert.Equal(t, "tx-1", *got.PaymentReference)
	assert.Equal(t, feeModel.FeePaid, store.fees[feeID].FeeStatus)
	assert.Len(t, mailer.Sent, 1)

	// repeats and late failures do not reopen a settled payment
	_, applied, err = svc.ApplyNotification(ctx, gateway.Notification{OrderID: *p.PaymentExternalID, TransactionStatus: "settlement"})
	require.NoError(t, err)
	assert.False(t, applied)
	_, applied, err = svc.ApplyNotification(ctx, gateway.Notification{OrderID: *p.PaymentExternalID, TransactionStatus: "expire"})
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Len(t, mailer.Sent, 1)

	got, applied, err = svc.ApplyNotification(ctx, gateway.Notification{OrderID: "LD-unknown", TransactionStatus: "settlement"})
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Nil(t, got)
}

func TestOnline_CheckoutFailureMarksFailed(t *testing.T) {
	svc, store, _, a := fixture(t)
	svc.Checkout = func(string, decimal.Decimal, string, gateway.Customer) (string, string, error) {
		return "", "", errors.New("gateway down")
	}

	_, err := svc.Record(context.Background(), a, dto.RecordRequest{StudentID: ravi, SubscriptionID: ptr(subID), Method: "online"})
	assert.Equal(t, apperror.KindOperationFailed, kindOf(t, err))
	require.Len(t, store.payments, 1)
	assert.Equal(t, model.PaymentStatusFailed, store.payments[0].PaymentStatus)

	svc.Online = func() bool { return false }
	_, err = svc.Record(context.Background(), a, dto.RecordRequest{StudentID: ravi, SubscriptionID: ptr(subID), Method: "online"})
	assert.Equal(t, apperror.KindValidation, kindOf(t, err))
}

func TestReceipt_SkippedWithoutEmail(t *testing.T) {
	svc, _, mailer, a := fixture(t)
	store := svc.Store.(*memStore)
	store.subs[subID] = subModel.SubscriptionModel{SubscriptionID: subID, SubscriptionLibraryID: libID, SubscriptionStudentID: noMail,
		SubscriptionBranchID: branchID, SubscriptionAmount: decimal.NewFromInt(900)}

	_, err := svc.Record(context.Background(), a, dto.RecordRequest{StudentID: noMail, SubscriptionID: ptr(subID), Method: "cash"})
	require.NoError(t, err)
	assert.Empty(t, mailer.Sent)
}

func TestTransitionTable(t *testing.T) {
	assert.NoError(t, Transition(model.PaymentStatusPendingVerification, model.PaymentStatusCompleted))
	assert.NoError(t, Transition(model.PaymentStatusPending, model.PaymentStatusFailed))
	assert.Error(t, Transition(model.PaymentStatusCompleted, model.PaymentStatusFailed))
	assert.Error(t, Transition(model.PaymentStatusFailed, model.PaymentStatusCompleted))
}
