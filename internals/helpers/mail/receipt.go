package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"
)

type Receipt struct {
	LibraryName   string
	StudentName   string
	StudentEmail  string
	InvoiceNumber string
	Amount        string
	Method        string
	PaidAt        time.Time
	Description   string
}

var receiptHTML = template.Must(template.New("receipt").Parse(`<p>Hi {{.StudentName}},</p>
<p>We received your payment at <b>{{.LibraryName}}</b>.</p>
<table>
<tr><td>Invoice</td><td>{{.InvoiceNumber}}</td></tr>
<tr><td>For</td><td>{{.Description}}</td></tr>
<tr><td>Amount</td><td>{{.Amount}}</td></tr>
<tr><td>Method</td><td>{{.Method}}</td></tr>
<tr><td>Date</td><td>{{.PaidAt.Format "02 Jan 2006 15:04"}}</td></tr>
</table>`))

// ReceiptMessage renders a payment receipt. ok is false when the student has no email.
func ReceiptMessage(r Receipt) (Message, bool, error) {
	if strings.TrimSpace(r.StudentEmail) == "" {
		return Message{}, false, nil
	}
	var html bytes.Buffer
	if err := receiptHTML.Execute(&html, r); err != nil {
		return Message{}, false, err
	}
	text := fmt.Sprintf(
		"Hi %s,\n\nWe received your payment at %s.\nInvoice: %s\nFor: %s\nAmount: %s\nMethod: %s\nDate: %s\n",
		r.StudentName, r.LibraryName, r.InvoiceNumber, r.Description, r.Amount, r.Method, r.PaidAt.Format("02 Jan 2006 15:04"),
	)
	return Message{
		ToName:  r.StudentName,
		ToEmail: r.StudentEmail,
		Subject: "Payment receipt " + r.InvoiceNumber,
		Text:    text,
		HTML:    html.String(),
	}, true, nil
}
