package gateway

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"librarydesk_backend/internals/features/finance/payments/model"
)

func TestSignatureValid(t *testing.T) {
	n := Notification{OrderID: "LD-1", StatusCode: "200", GrossAmount: "1500.00"}
	n.SignatureKey = Signature(n.OrderID, n.StatusCode, n.GrossAmount, "server-key")

	assert.True(t, n.SignatureValid("server-key"))
	assert.False(t, n.SignatureValid("other-key"))
	assert.False(t, n.SignatureValid(""))

	n.GrossAmount = "1.00"
	assert.False(t, n.SignatureValid("server-key"), "tampered amount")

	assert.False(t, Notification{OrderID: "LD-1"}.SignatureValid("server-key"))
}

func TestMapStatus(t *testing.T) {
	cases := []struct {
		status, fraud string
		want          model.PaymentStatus
		ok            bool
	}{
		{"settlement", "", model.PaymentStatusCompleted, true},
		{"capture", "accept", model.PaymentStatusCompleted, true},
		{"capture", "challenge", model.PaymentStatusPending, true},
		{"capture", "deny", model.PaymentStatusFailed, true},
		{"pending", "", model.PaymentStatusPending, true},
		{"expire", "", model.PaymentStatusFailed, true},
		{"CANCEL", "", model.PaymentStatusFailed, true},
		{"refund", "", "", false},
	}
	for _, tc := range cases {
		got, ok := MapStatus(Notification{TransactionStatus: tc.status, FraudStatus: tc.fraud})
		assert.Equal(t, tc.ok, ok, tc.status)
		assert.Equal(t, tc.want, got, tc.status)
	}
}

func TestCreateCheckout_DisabledWithoutKey(t *testing.T) {
	InitMidtrans("", false)
	assert.False(t, Enabled())
	_, _, err := CreateCheckout("LD-1", decimal.NewFromInt(100), "plan", Customer{})
	assert.Error(t, err)
}
