// Package ledger is the staff cash book: what a desk staff member collected, what they
// handed over, and what they may still hand over.
package ledger

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	handoverModel "librarydesk_backend/internals/features/finance/handovers/model"
	"librarydesk_backend/internals/helpers/apperror"
)

// Collection is a completed hand-collected (cash/upi) payment of the staff member.
type Collection struct {
	PaymentID     uuid.UUID
	InvoiceNumber string
	StudentName   string
	Method        string
	Amount        decimal.Decimal
	PaidAt        time.Time
	HandoverID    *uuid.UUID
}

type Handover struct {
	ID        uuid.UUID
	Amount    decimal.Decimal
	Method    string
	Status    handoverModel.HandoverStatus
	CreatedAt time.Time
}

type Summary struct {
	PeriodStart      time.Time       `json:"period_start"`
	PeriodEnd        time.Time       `json:"period_end"`
	CarriedForward   decimal.Decimal `json:"carried_forward"`
	Collected        decimal.Decimal `json:"collected"`
	Verified         decimal.Decimal `json:"verified"`
	CashInHand       decimal.Decimal `json:"cash_in_hand"`
	PendingHandover  decimal.Decimal `json:"pending_handover_amount"`
	AvailableBalance decimal.Decimal `json:"available_balance"`
	CollectedCount   int             `json:"collected_count"`
	PendingCount     int             `json:"pending_count"`
}

// Summarize computes the month [start, end):
//
//	carried_forward = collected before start - verified handovers created before start
//	cash_in_hand    = carried_forward + collected in window - verified created in window
//	pending         = pending handovers created before end
//	available       = cash_in_hand - pending
//
// A pending handover never reduces cash_in_hand; it only blocks that amount from new claims.
func Summarize(start, end time.Time, cols []Collection, hos []Handover) Summary {
	s := Summary{
		PeriodStart:      start,
		PeriodEnd:        end,
		CarriedForward:   decimal.Zero,
		Collected:        decimal.Zero,
		Verified:         decimal.Zero,
		PendingHandover:  decimal.Zero,
		CashInHand:       decimal.Zero,
		AvailableBalance: decimal.Zero,
	}

	for _, c := range cols {
		switch {
		case c.PaidAt.Before(start):
			s.CarriedForward = s.CarriedForward.Add(c.Amount)
		case c.PaidAt.Before(end):
			s.Collected = s.Collected.Add(c.Amount)
			s.CollectedCount++
		}
	}

	for _, h := range hos {
		switch h.Status {
		case handoverModel.HandoverVerified:
			switch {
			case h.CreatedAt.Before(start):
				s.CarriedForward = s.CarriedForward.Sub(h.Amount)
			case h.CreatedAt.Before(end):
				s.Verified = s.Verified.Add(h.Amount)
			}
		case handoverModel.HandoverPending:
			if h.CreatedAt.Before(end) {
				s.PendingHandover = s.PendingHandover.Add(h.Amount)
				s.PendingCount++
			}
		}
	}

	s.CashInHand = s.CarriedForward.Add(s.Collected).Sub(s.Verified)
	s.AvailableBalance = s.CashInHand.Sub(s.PendingHandover)
	return s
}

// CheckAvailable validates a new handover amount against the summary.
func CheckAvailable(s Summary, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperror.Validation("amount must be greater than zero", "amount", "must be greater than zero")
	}
	if amount.GreaterThan(s.AvailableBalance) {
		return apperror.InsufficientBalance(
			"amount " + amount.StringFixed(2) + " exceeds available balance " + s.AvailableBalance.StringFixed(2),
		)
	}
	return nil
}

/* ===== State machine ===== */

var transitions = map[handoverModel.HandoverStatus][]handoverModel.HandoverStatus{
	handoverModel.HandoverPending: {handoverModel.HandoverVerified, handoverModel.HandoverRejected},
}

// Transition allows only pending -> verified | rejected. Anything else, including a second
// reject, fails and must change nothing.
func Transition(from, to handoverModel.HandoverStatus) error {
	if lo.Contains(transitions[from], to) {
		return nil
	}
	return apperror.InvalidTransition("handover cannot move from " + string(from) + " to " + string(to))
}

/* ===== Khatabook rows ===== */

type EntryKind string

const (
	EntryCollection EntryKind = "collection"
	EntryHandover   EntryKind = "handover"
)

// Entry is one line of the staff cash book. Balance is cash in hand after the line,
// so pending and rejected handovers leave it unchanged.
type Entry struct {
	At        time.Time       `json:"at"`
	Kind      EntryKind       `json:"kind"`
	RefID     uuid.UUID       `json:"ref_id"`
	Reference string          `json:"reference"`
	Party     string          `json:"party"`
	Method    string          `json:"method"`
	Status    string          `json:"status"`
	Credit    decimal.Decimal `json:"credit"`
	Debit     decimal.Decimal `json:"debit"`
	Balance   decimal.Decimal `json:"balance"`
}

// Entries interleaves collections and handovers of [start, end) by time, opening from
// the carried-forward balance.
func Entries(start, end time.Time, cols []Collection, hos []Handover) []Entry {
	opening := Summarize(start, end, cols, hos).CarriedForward
	out := make([]Entry, 0, len(cols)+len(hos))

	for _, c := range cols {
		if c.PaidAt.Before(start) || !c.PaidAt.Before(end) {
			continue
		}
		out = append(out, Entry{
			At: c.PaidAt, Kind: EntryCollection, RefID: c.PaymentID, Reference: c.InvoiceNumber,
			Party: c.StudentName, Method: c.Method, Status: "completed",
			Credit: c.Amount, Debit: decimal.Zero,
		})
	}
	for _, h := range hos {
		if h.CreatedAt.Before(start) || !h.CreatedAt.Before(end) {
			continue
		}
		out = append(out, Entry{
			At: h.CreatedAt, Kind: EntryHandover, RefID: h.ID, Method: h.Method, Status: string(h.Status),
			Credit: decimal.Zero, Debit: h.Amount,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })

	bal := opening
	for i := range out {
		switch {
		case out[i].Kind == EntryCollection:
			bal = bal.Add(out[i].Credit)
		case out[i].Status == string(handoverModel.HandoverVerified):
			bal = bal.Sub(out[i].Debit)
		}
		out[i].Balance = bal
	}
	return out
}
