package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	to, body string
	err      error
}

func (s *recordingSender) Send(_ context.Context, to, body string) error {
	s.to, s.body = to, body
	return s.err
}

func (s *recordingSender) ProviderID() string { return "recording" }

type recordingMailer struct {
	to, subject string
	err         error
}

func (m *recordingMailer) SendEmail(_ context.Context, to, _, subject, _ string) error {
	m.to, m.subject = to, subject
	return m.err
}

func TestRenderKinds(t *testing.T) {
	det := Details{Name: "Asha", Service: "Haircut", Date: "2026-01-28", Time: "14:00"}

	body, err := Render(KindConfirmation, "Glow", det)
	require.NoError(t, err)
	assert.Equal(t, "Hi Asha, your Haircut appointment at Glow on 2026-01-28 at 14:00 is confirmed.", body)

	body, err = Render(KindCancellation, "Glow", det)
	require.NoError(t, err)
	assert.Contains(t, body, "has been cancelled")

	body, err = Render(KindCompletion, "Glow", det)
	require.NoError(t, err)
	assert.Contains(t, body, "Thank you Asha")

	_, err = Render(Kind("reminder"), "Glow", det)
	assert.Error(t, err)
}

func TestFormatPhone(t *testing.T) {
	assert.Equal(t, "+15551234567", FormatPhone("+1", "5551234567"))
	assert.Equal(t, "+915551234567", FormatPhone("91", "5551234567"))
	assert.Equal(t, "+445551234567", FormatPhone("+1", "+445551234567"))
	assert.Equal(t, "5551234567", FormatPhone("", "5551234567"))
}

func TestDispatcherSendsSMSAndEmail(t *testing.T) {
	sms := &recordingSender{}
	mailer := &recordingMailer{}
	d := NewDispatcher(Config{SalonName: "Glow", CountryCode: "+1"}, sms, mailer, nil)

	err := d.Send(context.Background(), "5551234567", KindConfirmation, Details{Name: "Asha", Service: "Facial", Date: "2026-01-28", Time: "10:00", Email: "asha@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "+15551234567", sms.to)
	assert.Contains(t, sms.body, "Facial")
	assert.Equal(t, "asha@example.com", mailer.to)
	assert.Equal(t, subjects[KindConfirmation], mailer.subject)
}

func TestDispatcherEmailFailureDoesNotHideSMSResult(t *testing.T) {
	sms := &recordingSender{}
	mailer := &recordingMailer{err: errors.New("smtp down")}
	d := NewDispatcher(Config{}, sms, mailer, nil)

	err := d.Send(context.Background(), "5551234567", KindCompletion, Details{Name: "Asha", Email: "a@example.com"})
	assert.NoError(t, err)

	sms.err = errors.New("carrier rejected")
	err = d.Send(context.Background(), "5551234567", KindCompletion, Details{Name: "Asha"})
	assert.ErrorContains(t, err, "carrier rejected")
}

func TestWebhookSender(t *testing.T) {
	var got map[string]string
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := NewWebhookSender(srv.URL, "secret")
	require.NoError(t, s.Send(context.Background(), "+15551234567", "hello"))
	assert.Equal(t, "Bearer secret", auth)
	assert.Equal(t, map[string]string{"to": "+15551234567", "body": "hello"}, got)
}

func TestWebhookSenderErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	assert.ErrorContains(t, NewWebhookSender(srv.URL, "").Send(context.Background(), "x", "y"), "502")
	assert.ErrorIs(t, NewWebhookSender("", "").Send(context.Background(), "x", "y"), errNotConfigured)
}

func TestProviderConstructorsRequireCredentials(t *testing.T) {
	_, err := NewTwilioSender(TwilioConfig{AccountSID: "AC123"})
	assert.ErrorIs(t, err, errNotConfigured)

	_, err = NewSendGridMailer(SendGridConfig{APIKey: "key"})
	assert.ErrorIs(t, err, errNotConfigured)

	m, err := NewSendGridMailer(SendGridConfig{APIKey: "key", FromEmail: "salon@example.com"})
	require.NoError(t, err)
	assert.NotNil(t, m)
}
