package mail

import (
	"context"
	"errors"
	"strings"
	"testing"

	"arriendo-cajas-backend/internal/config"

	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type fakeDialer struct {
	sent []*gomail.Message
	err  error
}

func (d *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	d.sent = append(d.sent, m...)
	return d.err
}

func TestNew_SelectsTransport(t *testing.T) {
	cfg := &config.Config{}
	assert.Nil(t, New(cfg))

	cfg.SMTP = config.SMTPConfig{Host: "smtp.example.com", Port: 587, From: "no-reply@example.com"}
	require.NotNil(t, New(cfg))
	assert.Equal(t, "smtp", New(cfg).Name())

	cfg.Mail.Provider = "sendgrid"
	cfg.SendGrid.APIKey = "SG.key"
	assert.Equal(t, "sendgrid", New(cfg).Name())
}

func TestSMTPSender_Send(t *testing.T) {
	d := &fakeDialer{}
	s := &smtpSender{dialer: d, from: "no-reply@example.com", fromName: "Arriendo de Cajas"}

	err := s.Send(context.Background(), Message{To: "ana@example.com", ToName: "Ana", Subject: "Hola", HTML: "<p>hola</p>"})
	require.NoError(t, err)
	require.Len(t, d.sent, 1)

	var buf strings.Builder
	_, err = d.sent[0].WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Subject: Hola")
	assert.Contains(t, buf.String(), "text/html")
}

func TestSMTPSender_Error(t *testing.T) {
	s := &smtpSender{dialer: &fakeDialer{err: errors.New("connection refused")}}
	err := s.Send(context.Background(), Message{To: "ana@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestSMTPSender_CancelledContext(t *testing.T) {
	d := &fakeDialer{}
	s := &smtpSender{dialer: d}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Send(ctx, Message{To: "ana@example.com"}), context.Canceled)
	assert.Empty(t, d.sent)
}

func TestSendGridSender_Status(t *testing.T) {
	var got *sgmail.SGMailV3
	s := &sendGridSender{
		from:     "no-reply@example.com",
		fromName: "Arriendo de Cajas",
		send: func(ctx context.Context, m *sgmail.SGMailV3) (int, string, error) {
			got = m
			return 401, "unauthorized", nil
		},
	}

	err := s.Send(context.Background(), Message{To: "ana@example.com", Subject: "Hola", HTML: "<p>x</p>"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
	require.NotNil(t, got)
	assert.Equal(t, "Hola", got.Subject)
	require.Len(t, got.Content, 1)
	assert.Equal(t, "text/html", got.Content[0].Type)

	s.send = func(ctx context.Context, m *sgmail.SGMailV3) (int, string, error) { return 202, "", nil }
	assert.NoError(t, s.Send(context.Background(), Message{To: "ana@example.com"}))
}
