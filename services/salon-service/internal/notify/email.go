package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type Mailer interface {
	SendEmail(ctx context.Context, to, name, subject, body string) error
}

type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

type SendGridMailer struct {
	client *sendgrid.Client
	from   *mail.Email
}

func NewSendGridMailer(cfg SendGridConfig) (*SendGridMailer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" || strings.TrimSpace(cfg.FromEmail) == "" {
		return nil, fmt.Errorf("sendgrid: %w (SENDGRID_API_KEY and SENDGRID_FROM_EMAIL are required)", errNotConfigured)
	}
	if cfg.FromName == "" {
		cfg.FromName = "Salon"
	}
	return &SendGridMailer{
		client: sendgrid.NewSendClient(cfg.APIKey),
		from:   mail.NewEmail(cfg.FromName, cfg.FromEmail),
	}, nil
}

func (m *SendGridMailer) SendEmail(ctx context.Context, to, name, subject, body string) error {
	msg := mail.NewSingleEmail(m.from, subject, mail.NewEmail(name, to), body, "<p>"+html.EscapeString(body)+"</p>")
	resp, err := m.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
