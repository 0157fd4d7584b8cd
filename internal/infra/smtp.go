package infra

import (
	"bytes"
	"errors"
	"fmt"
	"net/smtp"

	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/config"

	"github.com/jordan-wright/email"
)

// ErrMailerDisabled is returned by Send when no SMTP host is configured.
var ErrMailerDisabled = errors.New("mailer: SMTP_HOST not configured")

// Mailer delivers alert and report mails over SMTP.
type Mailer struct {
	addr string
	from string
	auth smtp.Auth
}

func NewMailer(cfg *config.Config) *Mailer {
	m := &Mailer{from: cfg.SMTPUser}
	if cfg.SMTPHost == "" {
		return m
	}
	m.addr = fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort)
	if m.from == "" {
		m.from = "stock@" + cfg.SMTPHost
	}
	// Local relays (mailhog, postfix on localhost) accept unauthenticated mail.
	if cfg.SMTPUser != "" {
		m.auth = smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPHost)
	}
	return m
}

// Send delivers a plain-text email.
func (m *Mailer) Send(to, subject, body string) error {
	return m.send(m.compose(to, subject, body))
}

// SendAttachment delivers a plain-text email with one attached file.
func (m *Mailer) SendAttachment(to, subject, body, filename, contentType string, data []byte) error {
	e := m.compose(to, subject, body)
	if _, err := e.Attach(bytes.NewReader(data), filename, contentType); err != nil {
		return fmt.Errorf("mailer: attach %s: %w", filename, err)
	}
	return m.send(e)
}

func (m *Mailer) compose(to, subject, body string) *email.Email {
	e := email.NewEmail()
	e.From = m.from
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body)
	return e
}

func (m *Mailer) send(e *email.Email) error {
	if m.addr == "" {
		return ErrMailerDisabled
	}
	if err := e.Send(m.addr, m.auth); err != nil {
		return fmt.Errorf("mailer: send to %v: %w", e.To, err)
	}
	return nil
}
