// Package notify delivers booking notifications to customers by SMS and,
// when an address is known, e-mail.
package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
)

type Kind string

const (
	KindConfirmation Kind = "confirmation"
	KindCancellation Kind = "cancellation"
	KindCompletion   Kind = "completion"
)

// Details is the booking data rendered into a message.
type Details struct {
	Name    string
	Service string
	Date    string
	Time    string
	Email   string
}

type Notifier interface {
	Send(ctx context.Context, phone string, kind Kind, d Details) error
}

var subjects = map[Kind]string{
	KindConfirmation: "Your appointment is confirmed",
	KindCancellation: "Your appointment was cancelled",
	KindCompletion:   "Thanks for visiting",
}

var bodies = template.Must(template.New("notify").Parse(`
{{- define "confirmation" -}}
Hi {{.Name}}, your {{.Service}} appointment at {{.Salon}} on {{.Date}} at {{.Time}} is confirmed.
{{- end -}}
{{- define "cancellation" -}}
Hi {{.Name}}, your {{.Service}} appointment at {{.Salon}} on {{.Date}} at {{.Time}} has been cancelled.
{{- end -}}
{{- define "completion" -}}
Thank you {{.Name}} for choosing {{.Salon}} for your {{.Service}}. We hope to see you again!
{{- end -}}
`))

type Config struct {
	SalonName   string
	CountryCode string
}

// Dispatcher renders a message per Kind and hands it to the configured senders.
type Dispatcher struct {
	cfg    Config
	sms    Sender
	mail   Mailer
	logger *slog.Logger
}

// NewDispatcher builds a Dispatcher. mail may be nil to disable e-mail.
func NewDispatcher(cfg Config, sms Sender, mail Mailer, logger *slog.Logger) *Dispatcher {
	if strings.TrimSpace(cfg.SalonName) == "" {
		cfg.SalonName = "our salon"
	}
	if sms == nil {
		sms = NewNoopSender()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{cfg: cfg, sms: sms, mail: mail, logger: logger}
}

func (d *Dispatcher) Send(ctx context.Context, phone string, kind Kind, det Details) error {
	body, err := Render(kind, d.cfg.SalonName, det)
	if err != nil {
		return err
	}

	smsErr := d.sms.Send(ctx, FormatPhone(d.cfg.CountryCode, phone), body)
	if smsErr != nil {
		smsErr = fmt.Errorf("%s: %w", d.sms.ProviderID(), smsErr)
	}

	if d.mail != nil && det.Email != "" {
		if err := d.mail.SendEmail(ctx, det.Email, det.Name, subjects[kind], body); err != nil {
			d.logger.Warn("notification email failed", "kind", string(kind), "err", err)
		}
	}
	return smsErr
}

// Render produces the message text for kind.
func Render(kind Kind, salon string, det Details) (string, error) {
	if bodies.Lookup(string(kind)) == nil {
		return "", fmt.Errorf("unknown notification kind %q", kind)
	}
	data := struct {
		Details
		Salon string
	}{det, salon}

	var buf bytes.Buffer
	if err := bodies.ExecuteTemplate(&buf, string(kind), data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// FormatPhone prefixes a bare national number with the country code.
func FormatPhone(countryCode, phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" || strings.HasPrefix(phone, "+") || countryCode == "" {
		return phone
	}
	if !strings.HasPrefix(countryCode, "+") {
		countryCode = "+" + countryCode
	}
	return countryCode + phone
}

var errNotConfigured = errors.New("provider not configured")
