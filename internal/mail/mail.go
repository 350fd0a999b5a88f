package mail

import (
	"context"
	"errors"
	"fmt"

	"arriendo-cajas-backend/internal/config"
	"arriendo-cajas-backend/internal/logger"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"gopkg.in/gomail.v2"
)

// ErrNotConfigured is reported when no outbound transport is available
var ErrNotConfigured = errors.New("mail transport not configured")

// Message is a rendered email ready for delivery
type Message struct {
	To      string
	ToName  string
	Subject string
	HTML    string
}

// Sender delivers rendered messages
type Sender interface {
	Send(ctx context.Context, msg Message) error
	Name() string
}

// New builds the transport selected by configuration. It returns nil when mail is not configured.
func New(cfg *config.Config) Sender {
	switch {
	case cfg.Mail.Provider == "sendgrid":
		return NewSendGridSender(cfg.SendGrid.APIKey, cfg.SendGrid.From, cfg.Mail.FromName)
	case cfg.SMTP.Host != "":
		return NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.SMTP.From, cfg.Mail.FromName)
	}
	logger.Warn("No mail transport configured, notifications will be logged as failed")
	return nil
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type smtpSender struct {
	dialer   dialer
	from     string
	fromName string
}

func NewSMTPSender(host string, port int, username, password, from, fromName string) Sender {
	return &smtpSender{
		dialer:   gomail.NewDialer(host, port, username, password),
		from:     from,
		fromName: fromName,
	}
}

func (s *smtpSender) Name() string { return "smtp" }

func (s *smtpSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.from, s.fromName)
	if msg.ToName != "" {
		m.SetAddressHeader("To", msg.To, msg.ToName)
	} else {
		m.SetHeader("To", msg.To)
	}
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)

	logger.ExternalServiceCall("smtp", "DialAndSend", "to", msg.To)
	err := s.dialer.DialAndSend(m)
	logger.ExternalServiceResult("smtp", "DialAndSend", err)
	if err != nil {
		return fmt.Errorf("failed to send email via gomail: %w", err)
	}
	return nil
}

type sendGridSender struct {
	from     string
	fromName string
	send     func(ctx context.Context, m *sgmail.SGMailV3) (int, string, error)
}

func NewSendGridSender(apiKey, from, fromName string) Sender {
	client := sendgrid.NewSendClient(apiKey)
	return &sendGridSender{
		from:     from,
		fromName: fromName,
		send: func(ctx context.Context, m *sgmail.SGMailV3) (int, string, error) {
			resp, err := client.SendWithContext(ctx, m)
			if err != nil {
				return 0, "", err
			}
			return resp.StatusCode, resp.Body, nil
		},
	}
}

func (s *sendGridSender) Name() string { return "sendgrid" }

func (s *sendGridSender) Send(ctx context.Context, msg Message) error {
	from := sgmail.NewEmail(s.fromName, s.from)
	to := sgmail.NewEmail(msg.ToName, msg.To)
	message := sgmail.NewV3Mail()
	message.SetFrom(from)
	message.Subject = msg.Subject
	p := sgmail.NewPersonalization()
	p.AddTos(to)
	message.AddPersonalizations(p)
	message.AddContent(sgmail.NewContent("text/html", msg.HTML))

	logger.ExternalServiceCall("sendgrid", "Send", "to", msg.To)
	status, body, err := s.send(ctx, message)
	if err == nil && status >= 400 {
		err = fmt.Errorf("sendgrid error: status %d, body: %s", status, body)
	}
	logger.ExternalServiceResult("sendgrid", "Send", err, "status", status)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
