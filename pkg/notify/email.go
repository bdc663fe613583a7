package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPConfig holds the mail relay settings for the email target.
type SMTPConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	From       string
	Recipients []string
}

// sendFunc matches smtp.SendMail; swapped out in tests.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailTarget delivers visitor events as HTML email over SMTP.
type EmailTarget struct {
	cfg  SMTPConfig
	send sendFunc
}

// NewEmailTarget creates an email target from SMTP configuration.
func NewEmailTarget(cfg SMTPConfig) *EmailTarget {
	return &EmailTarget{cfg: cfg, send: smtp.SendMail}
}

// Name identifies the target in dispatch results.
func (t *EmailTarget) Name() string {
	return "email"
}

// Send renders the event as an HTML email and submits it to the relay.
// Every visitor-supplied value is HTML-escaped before it reaches the body.
func (t *EmailTarget) Send(ctx context.Context, event *Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if t.cfg.Username != "" {
		auth = smtp.PlainAuth("", t.cfg.Username, t.cfg.Password, t.cfg.Host)
	}

	msg := t.buildMessage(event)
	addr := fmt.Sprintf("%s:%d", t.cfg.Host, t.cfg.Port)
	if err := t.send(addr, auth, t.cfg.From, t.cfg.Recipients, msg); err != nil {
		return fmt.Errorf("smtp delivery failed: %w", err)
	}
	return nil
}

// buildMessage assembles headers plus an HTML body with escaped fields.
func (t *EmailTarget) buildMessage(event *Event) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "From: %s\r\n", t.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(t.cfg.Recipients, ", "))
	fmt.Fprintf(&b, "Subject: %s: %s\r\n", event.Title(), EscapeHTML(event.Visitor.Name))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "<html><body><h2>%s</h2><table>", event.Title())
	writeRow(&b, "Visitor", event.Visitor.Name)
	writeRow(&b, "Badge", event.Visitor.BadgeID)
	writeRow(&b, "Company", event.Visitor.Company)
	writeRow(&b, "Email", event.Visitor.Email)
	writeRow(&b, "Phone", event.Visitor.Phone)
	writeRow(&b, "Host", event.Visitor.HostName)
	writeRow(&b, "Purpose", event.Visitor.Purpose)
	writeRow(&b, "Time", event.OccurredAt.Format("2006-01-02 15:04:05 MST"))
	b.WriteString("</table></body></html>\r\n")

	return []byte(b.String())
}

func writeRow(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "<tr><td><b>%s</b></td><td>%s</td></tr>", label, EscapeHTML(value))
}

// Ensure EmailTarget implements Target at compile time.
var _ Target = (*EmailTarget)(nil)
