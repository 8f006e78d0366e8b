package notify

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"store-monitor/config"
)

// EmailSender delivers notifications over SMTP.
type EmailSender struct {
	cfg config.MailConfig
}

// NewEmailSender creates an SMTP sender from mail config.
func NewEmailSender(cfg config.MailConfig) *EmailSender {
	return &EmailSender{cfg: cfg}
}

func (s *EmailSender) Send(recipient, subject, body string, isHTML bool) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.Sender)
	m.SetHeader("To", recipient)
	m.SetHeader("Subject", subject)
	if isHTML {
		m.SetBody("text/html", body)
	} else {
		m.SetBody("text/plain", body)
	}

	d := gomail.NewDialer(s.cfg.Server, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("send mail to %s: %w", recipient, err)
	}
	return nil
}
