// internals/features/finance/payments/gateway/midtrans.go
package gateway

import (
	"crypto/sha512"
	"encoding/hex"
	"log"
	"strings"

	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"librarydesk_backend/internals/features/finance/payments/model"
)

/* =========================================================
   Midtrans Snap client
========================================================= */

var (
	SnapClient snap.Client
	serverKey  string
)

// InitMidtrans must run at boot. An empty key leaves online payments disabled.
func InitMidtrans(key string, useProduction bool) {
	serverKey = strings.TrimSpace(key)
	if serverKey == "" {
		log.Println("[INFO] MIDTRANS_SERVER_KEY not set, online payments disabled")
		return
	}
	env := midtrans.Sandbox
	if useProduction {
		env = midtrans.Production
	}
	SnapClient.New(serverKey, env)
	log.Printf("✅ Midtrans snap ready (production=%v)", useProduction)
}

func Enabled() bool { return serverKey != "" }

func ServerKey() string { return serverKey }

type Customer struct {
	Name  string
	Email string
	Phone string
}

// CreateCheckout opens a snap transaction for orderID and returns the token and redirect url.
func CreateCheckout(orderID string, amount decimal.Decimal, item string, cust Customer) (string, string, error) {
	if !Enabled() {
		return "", "", errors.New("midtrans is not configured")
	}
	gross := amount.Round(0).IntPart()
	if gross <= 0 {
		return "", "", errors.New("amount must be positive")
	}
	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  orderID,
			GrossAmt: gross,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: cust.Name,
			Email: cust.Email,
			Phone: cust.Phone,
		},
		Items: &[]midtrans.ItemDetails{{
			ID:    orderID,
			Price: gross,
			Qty:   1,
			Name:  truncate(item, 50),
		}},
	}
	resp, mErr := SnapClient.CreateTransaction(req)
	if mErr != nil {
		return "", "", errors.Wrap(mErr, "midtrans create transaction")
	}
	return resp.Token, resp.RedirectURL, nil
}

/* =========================================================
   Webhook
========================================================= */

type Notification struct {
	TransactionTime   string `json:"transaction_time"`
	TransactionStatus string `json:"transaction_status"`
	TransactionID     string `json:"transaction_id"`
	StatusCode        string `json:"status_code"`
	SignatureKey      string `json:"signature_key"`
	OrderID           string `json:"order_id"`
	GrossAmount       string `json:"gross_amount"`
	PaymentType       string `json:"payment_type"`
	FraudStatus       string `json:"fraud_status"`
}

// Signature is SHA512(order_id + status_code + gross_amount + server_key), hex.
func Signature(orderID, statusCode, grossAmount, key string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + key))
	return hex.EncodeToString(sum[:])
}

func (n Notification) SignatureValid(key string) bool {
	want := strings.ToLower(strings.TrimSpace(n.SignatureKey))
	return want != "" && key != "" && want == Signature(n.OrderID, n.StatusCode, n.GrossAmount, key)
}

// MapStatus turns a notification into our payment status. ok is false for events that
// must not touch the payment (refunds, unknown states).
func MapStatus(n Notification) (model.PaymentStatus, bool) {
	switch strings.ToLower(n.TransactionStatus) {
	case "capture":
		switch strings.ToLower(n.FraudStatus) {
		case "accept", "":
			return model.PaymentStatusCompleted, true
		case "challenge":
			return model.PaymentStatusPending, true
		}
		return model.PaymentStatusFailed, true
	case "settlement":
		return model.PaymentStatusCompleted, true
	case "pending":
		return model.PaymentStatusPending, true
	case "deny", "cancel", "expire", "failure":
		return model.PaymentStatusFailed, true
	}
	return "", false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
