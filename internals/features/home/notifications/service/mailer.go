package service

import (
	"log"

	"gopkg.in/gomail.v2"

	"hoa_backend/internals/configs"
)

type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPMailer sends plain-text mail through gomail.
type SMTPMailer struct {
	From   string
	dialer *gomail.Dialer
}

// NewSMTPMailerFromConfig returns nil when SMTP is not configured.
func NewSMTPMailerFromConfig() *SMTPMailer {
	if configs.SMTPHost == "" {
		return nil
	}
	return &SMTPMailer{
		From:   configs.SMTPFrom,
		dialer: gomail.NewDialer(configs.SMTPHost, configs.SMTPPort, configs.SMTPUser, configs.SMTPPassword),
	}
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		log.Printf("[ERROR] send mail to %s: %v", to, err)
		return err
	}
	log.Printf("[INFO] mail sent to %s (%s)", to, subject)
	return nil
}
