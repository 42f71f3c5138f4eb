package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInvoiceNumbers(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	at := time.Date(2026, 3, 31, 23, 50, 0, 0, ist)

	prefix := InvoicePrefix(at)
	assert.Equal(t, "INV-202603-", prefix)
	assert.Equal(t, "INV-202603-00001", FormatInvoice(prefix, 1))
	assert.Equal(t, "INV-202603-00420", FormatInvoice(prefix, 420))
	assert.Equal(t, "INV-202603-123456", FormatInvoice(prefix, 123456))

	// the same instant in UTC is still March; callers pass library time
	assert.Equal(t, "INV-202603-", InvoicePrefix(at.UTC()))
	assert.Equal(t, "INV-202604-", InvoicePrefix(at.Add(20*time.Minute)))
}
