package model

type PaymentStatus string
type PaymentMethod string

const (
	PaymentStatusPending             PaymentStatus = "pending"
	PaymentStatusCompleted           PaymentStatus = "completed"
	PaymentStatusFailed              PaymentStatus = "failed"
	PaymentStatusPendingVerification PaymentStatus = "pending_verification"
)

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodUPI          PaymentMethod = "upi"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodOnline       PaymentMethod = "online"
)

// HandCollected methods are the ones a desk staff physically holds until handover.
func (m PaymentMethod) HandCollected() bool {
	return m == PaymentMethodCash || m == PaymentMethodUPI
}

// AtDesk methods complete immediately when recorded by staff.
func (m PaymentMethod) AtDesk() bool {
	return m == PaymentMethodCash || m == PaymentMethodUPI || m == PaymentMethodCard
}

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodUPI, PaymentMethodCard, PaymentMethodBankTransfer, PaymentMethodOnline:
		return true
	}
	return false
}

// HandCollectedMethods mirrors HandCollected for SQL IN clauses.
var HandCollectedMethods = []PaymentMethod{PaymentMethodCash, PaymentMethodUPI}
