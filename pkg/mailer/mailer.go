package mailer

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/kurskollen/kurskollen-api/pkg/config"
)

// Kind selects the message template.
type Kind string

const (
	KindWelcome       Kind = "welcome"
	KindPasswordReset Kind = "password_reset"
)

// Message describes an outbound email before template rendering.
type Message struct {
	Recipient string
	Kind      Kind
	Variables map[string]string
}

// Mailer delivers a single message. Implementations must respect the
// context deadline.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SendGridMailer delivers messages through the SendGrid v3 API.
type SendGridMailer struct {
	client *sendgrid.Client
	cfg    config.MailConfig
}

// NewSendGrid constructs a SendGrid-backed mailer.
func NewSendGrid(cfg config.MailConfig) *SendGridMailer {
	return &SendGridMailer{client: sendgrid.NewSendClient(cfg.APIKey), cfg: cfg}
}

// Send renders and delivers the message.
func (m *SendGridMailer) Send(ctx context.Context, msg Message) error {
	subject, body, err := render(msg, m.cfg.BaseURL)
	if err != nil {
		return err
	}

	from := mail.NewEmail(m.cfg.FromName, m.cfg.FromAddress)
	to := mail.NewEmail("", msg.Recipient)
	message := mail.NewSingleEmail(from, subject, to, body, body)

	resp, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send: status %d", resp.StatusCode)
	}
	return nil
}

func render(msg Message, baseURL string) (subject, body string, err error) {
	switch msg.Kind {
	case KindWelcome:
		subject = "Welcome to Kurskollen"
		body = fmt.Sprintf("Hi %s, your account is ready. Sign in at %s to start reading course reviews.",
			msg.Variables["username"], baseURL)
	case KindPasswordReset:
		subject = "Reset your Kurskollen password"
		body = fmt.Sprintf("Use the link below to reset your password. The link expires in one hour.\n\n%s/reset-password?token=%s",
			baseURL, msg.Variables["token"])
	default:
		return "", "", fmt.Errorf("unknown mail kind %q", msg.Kind)
	}
	return subject, body, nil
}

// Noop discards messages. Used when MAIL_ENABLED is off.
type Noop struct{}

// Send implements Mailer.
func (Noop) Send(context.Context, Message) error { return nil }
