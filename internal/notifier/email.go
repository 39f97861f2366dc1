package notifier

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"example.com/coldchain/config"
)

// emailSender delivers notifications over SMTP
type emailSender struct {
	cfg config.SMTPConfig
}

// NewEmailSender creates a new SMTP email sender
func NewEmailSender(cfg config.SMTPConfig) EmailSender {
	return &emailSender{cfg: cfg}
}

// SendEmail sends one message addressed to all recipients. An empty
// recipient list is a no-op.
func (s *emailSender) SendEmail(ctx context.Context, subject, body string, recipients []string) error {
	if len(recipients) == 0 {
		return nil
	}

	msg := strings.Join([]string{
		"From: " + s.cfg.From,
		"To: " + strings.Join(recipients, ", "),
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	return smtp.SendMail(addr, auth, s.cfg.From, recipients, []byte(msg))
}
