package mail

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceiptMessage(t *testing.T) {
	paid := time.Date(2024, 3, 2, 10, 30, 0, 0, time.UTC)

	t.Run("no email", func(t *testing.T) {
		_, ok, err := ReceiptMessage(Receipt{StudentName: "Asha"})
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("renders", func(t *testing.T) {
		msg, ok, err := ReceiptMessage(Receipt{
			LibraryName:   "Quiet Corner",
			StudentName:   "Asha",
			StudentEmail:  "asha@example.com",
			InvoiceNumber: "INV-202403-00001",
			Amount:        "1500.00",
			Method:        "upi",
			PaidAt:        paid,
			Description:   "Monthly plan",
		})
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "Payment receipt INV-202403-00001", msg.Subject)
		assert.Contains(t, msg.Text, "Amount: 1500.00")
		assert.Contains(t, msg.HTML, "<b>Quiet Corner</b>")
		assert.Contains(t, msg.HTML, "02 Mar 2024 10:30")
	})
}

func TestConsoleSender(t *testing.T) {
	c := NewConsole("LibraryDesk", "noreply@test")
	require.NoError(t, c.Send(context.Background(), Message{ToEmail: "a@b.c", Subject: "hi", Text: "x"}))
	require.NoError(t, c.Send(context.Background(), Message{Subject: "dropped", Text: "x"}))

	require.Len(t, c.Sent, 1)
	assert.Equal(t, "hi", c.Sent[0].Subject)
}

func TestSendgridPrepare(t *testing.T) {
	s := NewSendgrid("key", "LibraryDesk", "noreply@test").(*sendgridSender)
	m := s.prepare(Message{ToName: "Asha", ToEmail: "asha@example.com", Subject: "hi", Text: "t", HTML: "<p>t</p>"})

	require.Len(t, m.Personalizations, 1)
	assert.Equal(t, "[LibraryDesk] hi", m.Personalizations[0].Subject)
	assert.Equal(t, "asha@example.com", m.Personalizations[0].To[0].Address)
	assert.Len(t, m.Content, 2)
}
