package ledger

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	handoverModel "librarydesk_backend/internals/features/finance/handovers/model"
	"librarydesk_backend/internals/helpers/apperror"
)

var (
	monthStart = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	monthEnd   = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func col(amount string, at time.Time) Collection {
	return Collection{PaymentID: uuid.New(), Amount: d(amount), PaidAt: at, Method: "cash"}
}

func ho(amount string, st handoverModel.HandoverStatus, at time.Time) Handover {
	return Handover{ID: uuid.New(), Amount: d(amount), Status: st, CreatedAt: at, Method: "cash"}
}

func TestSummarize(t *testing.T) {
	april := time.Date(2024, 4, 20, 10, 0, 0, 0, time.UTC)
	may := time.Date(2024, 5, 10, 10, 0, 0, 0, time.UTC)
	june := time.Date(2024, 6, 2, 10, 0, 0, 0, time.UTC)

	cols := []Collection{col("1000", april), col("300", may), col("200", may), col("999", june)}
	hos := []Handover{
		ho("600", handoverModel.HandoverVerified, april),
		ho("100", handoverModel.HandoverVerified, may),
		ho("50", handoverModel.HandoverPending, april),
		ho("150", handoverModel.HandoverPending, may),
		ho("70", handoverModel.HandoverPending, june),
		ho("400", handoverModel.HandoverRejected, may),
	}

	s := Summarize(monthStart, monthEnd, cols, hos)

	assert.True(t, d("400").Equal(s.CarriedForward), s.CarriedForward.String())
	assert.True(t, d("500").Equal(s.Collected))
	assert.True(t, d("100").Equal(s.Verified))
	assert.True(t, d("800").Equal(s.CashInHand))
	assert.True(t, d("200").Equal(s.PendingHandover), "pending from april and may, not june")
	assert.True(t, d("600").Equal(s.AvailableBalance))
	assert.Equal(t, 2, s.CollectedCount)
	assert.Equal(t, 2, s.PendingCount)
}

func TestSummarize_WindowEdges(t *testing.T) {
	cols := []Collection{col("10", monthStart), col("20", monthEnd), col("5", monthStart.Add(-time.Nanosecond))}
	s := Summarize(monthStart, monthEnd, cols, nil)

	assert.True(t, d("5").Equal(s.CarriedForward))
	assert.True(t, d("10").Equal(s.Collected), "start inclusive, end exclusive")
}

func TestCheckAvailable(t *testing.T) {
	s := Summary{AvailableBalance: d("500")}

	assert.NoError(t, CheckAvailable(s, d("500")))
	assert.ErrorIs(t, CheckAvailable(s, d("500.01")), apperror.ErrInsufficientBalance)
	assert.ErrorIs(t, CheckAvailable(s, d("0")), apperror.ErrValidation)
	assert.ErrorIs(t, CheckAvailable(s, d("-1")), apperror.ErrValidation)
}

func TestTransition(t *testing.T) {
	statuses := []handoverModel.HandoverStatus{handoverModel.HandoverPending, handoverModel.HandoverVerified, handoverModel.HandoverRejected}
	allowed := map[[2]handoverModel.HandoverStatus]bool{
		{handoverModel.HandoverPending, handoverModel.HandoverVerified}: true,
		{handoverModel.HandoverPending, handoverModel.HandoverRejected}: true,
	}
	for _, from := range statuses {
		for _, to := range statuses {
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				err := Transition(from, to)
				if allowed[[2]handoverModel.HandoverStatus{from, to}] {
					assert.NoError(t, err)
				} else {
					assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
				}
			})
		}
	}
}

// Spend the whole ₹500, then ₹1 more must fail.
func TestScenario_ExactBalanceThenOneMore(t *testing.T) {
	at := time.Date(2024, 5, 3, 9, 0, 0, 0, time.UTC)
	cols := []Collection{col("500", at)}
	var hos []Handover

	s := Summarize(monthStart, monthEnd, cols, hos)
	require.NoError(t, CheckAvailable(s, d("500")))
	hos = append(hos, ho("500", handoverModel.HandoverPending, at.Add(time.Hour)))

	s = Summarize(monthStart, monthEnd, cols, hos)
	assert.True(t, s.AvailableBalance.IsZero())
	assert.True(t, d("500").Equal(s.CashInHand), "pending does not touch cash in hand")

	assert.ErrorIs(t, CheckAvailable(s, d("1")), apperror.ErrInsufficientBalance)
}

// Random submit / verify / reject sequences keep available >= 0 and follow the two-stage rules.
func TestProperty_AvailableNeverNegative(t *testing.T) {
	r := rand.New(rand.NewSource(20240501))

	for run := 0; run < 200; run++ {
		var cols []Collection
		var hos []Handover
		clock := monthStart.Add(time.Hour)

		for step := 0; step < 40; step++ {
			clock = clock.Add(time.Duration(1+r.Intn(600)) * time.Minute)
			if !clock.Before(monthEnd) {
				break
			}
			before := Summarize(monthStart, monthEnd, cols, hos)

			switch r.Intn(4) {
			case 0: // collect
				cols = append(cols, col(decimal.NewFromInt(int64(1+r.Intn(500))).String(), clock))
				after := Summarize(monthStart, monthEnd, cols, hos)
				assert.True(t, after.AvailableBalance.GreaterThan(before.AvailableBalance))

			case 1: // submit
				amt := decimal.NewFromInt(int64(1 + r.Intn(800)))
				err := CheckAvailable(before, amt)
				if amt.GreaterThan(before.AvailableBalance) {
					require.ErrorIs(t, err, apperror.ErrInsufficientBalance)
					continue
				}
				require.NoError(t, err)
				hos = append(hos, Handover{ID: uuid.New(), Amount: amt, Status: handoverModel.HandoverPending, CreatedAt: clock})
				after := Summarize(monthStart, monthEnd, cols, hos)
				assert.True(t, after.CashInHand.Equal(before.CashInHand))
				assert.True(t, after.AvailableBalance.Equal(before.AvailableBalance.Sub(amt)))

			case 2, 3: // review a random handover
				if len(hos) == 0 {
					continue
				}
				i := r.Intn(len(hos))
				to := handoverModel.HandoverVerified
				if r.Intn(2) == 0 {
					to = handoverModel.HandoverRejected
				}
				wasPending := hos[i].Status == handoverModel.HandoverPending
				err := Transition(hos[i].Status, to)
				if !wasPending {
					require.ErrorIs(t, err, apperror.ErrInvalidTransition)
					unchanged := Summarize(monthStart, monthEnd, cols, hos)
					assert.True(t, unchanged.AvailableBalance.Equal(before.AvailableBalance))
					assert.True(t, unchanged.CashInHand.Equal(before.CashInHand))
					continue
				}
				require.NoError(t, err)
				hos[i].Status = to
				after := Summarize(monthStart, monthEnd, cols, hos)
				if to == handoverModel.HandoverVerified {
					assert.True(t, after.AvailableBalance.Equal(before.AvailableBalance), "verify keeps available")
					assert.True(t, after.CashInHand.Equal(before.CashInHand.Sub(hos[i].Amount)))
				} else {
					assert.True(t, after.AvailableBalance.Equal(before.AvailableBalance.Add(hos[i].Amount)), "reject restores")
					assert.True(t, after.CashInHand.Equal(before.CashInHand))
				}
			}

			s := Summarize(monthStart, monthEnd, cols, hos)
			require.False(t, s.AvailableBalance.IsNegative(), "run %d step %d: %s", run, step, s.AvailableBalance)
		}
	}
}

func TestEntries(t *testing.T) {
	april := time.Date(2024, 4, 28, 10, 0, 0, 0, time.UTC)
	c1 := col("300", time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC))
	c1.InvoiceNumber = "INV-202405-00001"
	h1 := ho("200", handoverModel.HandoverVerified, time.Date(2024, 5, 3, 9, 0, 0, 0, time.UTC))
	h2 := ho("50", handoverModel.HandoverPending, time.Date(2024, 5, 4, 9, 0, 0, 0, time.UTC))

	rows := Entries(monthStart, monthEnd, []Collection{col("100", april), c1}, []Handover{h2, h1})
	require.Len(t, rows, 3)

	assert.Equal(t, EntryCollection, rows[0].Kind)
	assert.Equal(t, "INV-202405-00001", rows[0].Reference)
	assert.True(t, d("400").Equal(rows[0].Balance), "opens from carried forward 100")
	assert.Equal(t, h1.ID, rows[1].RefID)
	assert.True(t, d("200").Equal(rows[1].Balance))
	assert.Equal(t, "pending", rows[2].Status)
	assert.True(t, d("200").Equal(rows[2].Balance), "pending does not move the balance")
}
