// internals/helpers/mail/mail.go
package mail

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"librarydesk_backend/internals/configs"
)

const (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

type Message struct {
	ToName  string
	ToEmail string
	Subject string
	Text    string
	HTML    string
}

func (m Message) valid() bool {
	return strings.TrimSpace(m.ToEmail) != "" && (m.Text != "" || m.HTML != "")
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NewFromEnv picks sendgrid when SENDGRID_API_KEY is set, the console otherwise.
func NewFromEnv() Sender {
	appName := configs.GetEnv("MAIL_FROM_NAME")
	from := configs.GetEnv("MAIL_FROM")
	if key := configs.GetEnv("SENDGRID_API_KEY"); key != "" {
		log.Println("[MAIL] using sendgrid")
		return NewSendgrid(key, appName, from)
	}
	log.Println("[MAIL] SENDGRID_API_KEY not set, printing mail to console")
	return NewConsole(appName, from)
}

/* ===== Sendgrid ===== */

type sendgridSender struct {
	key        string
	from       *sgmail.Email
	subjPrefix string
}

func NewSendgrid(key, appName, fromEmail string) Sender {
	return &sendgridSender{
		key:        key,
		from:       sgmail.NewEmail(appName, fromEmail),
		subjPrefix: "[" + appName + "] ",
	}
}

func (s *sendgridSender) prepare(msg Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = s.subjPrefix + msg.Subject
	p.AddTos(sgmail.NewEmail(msg.ToName, msg.ToEmail))

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	if msg.Text != "" {
		m.AddContent(sgmail.NewContent("text/plain", msg.Text))
	}
	if msg.HTML != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTML))
	}
	return m
}

func (s *sendgridSender) Send(_ context.Context, msg Message) error {
	if !msg.valid() {
		return nil
	}
	req := sendgrid.GetRequest(s.key, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(s.prepare(msg))

	res, err := sendgrid.API(req)
	if err != nil {
		return errors.Wrap(err, "sendgrid request")
	}
	if res.StatusCode >= http.StatusBadRequest {
		return errors.Errorf("sendgrid status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

/* ===== Console ===== */

type ConsoleSender struct {
	from       string
	subjPrefix string

	mu   sync.Mutex
	Sent []Message
}

func NewConsole(appName, fromEmail string) *ConsoleSender {
	return &ConsoleSender{from: fmt.Sprintf("%s <%s>", appName, fromEmail), subjPrefix: "[" + appName + "] "}
}

func (c *ConsoleSender) Send(_ context.Context, msg Message) error {
	if !msg.valid() {
		return nil
	}
	c.mu.Lock()
	c.Sent = append(c.Sent, msg)
	c.mu.Unlock()

	log.Printf("[MAIL] From: %s | To: %s <%s> | Subject: %s\n%s", c.from, msg.ToName, msg.ToEmail, c.subjPrefix+msg.Subject, msg.Text)
	return nil
}
