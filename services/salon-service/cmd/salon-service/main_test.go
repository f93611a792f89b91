package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/md-rashed-zaman/salonbook/libs/runtime"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/catalog"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettingsDefaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")

	s, err := loadSettings()
	require.NoError(t, err)
	assert.Equal(t, "8080", s.Port)
	assert.Equal(t, driverMemory, s.Driver)
	assert.Equal(t, time.UTC, s.Location)
	assert.Equal(t, 9, s.Hours.OpenHour)
	assert.Equal(t, 18, s.Hours.CloseHour)
	assert.Equal(t, time.Hour, s.Hours.Step)
	assert.Equal(t, 5*time.Second, s.SideEffectTimeout)
	assert.Equal(t, 14, s.RepairDays)
}

func TestLoadSettingsRejectsBadValues(t *testing.T) {
	cases := map[string][2]string{
		"unknown driver":   {"STORAGE_DRIVER", "sqlite"},
		"postgres w/o url": {"STORAGE_DRIVER", "postgres"},
		"bad zone":         {"SALON_TIMEZONE", "Mars/Olympus"},
		"bad hours":        {"SLOT_CLOSE_HOUR", "30"},
		"bad timeout":      {"SIDE_EFFECT_TIMEOUT", "soon"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("STORAGE_DRIVER", "memory")
			t.Setenv("DATABASE_URL", "")
			t.Setenv(kv[0], kv[1])
			_, err := loadSettings()
			assert.Error(t, err)
		})
	}
}

func TestBuildNotifierRejectsUnknownProvider(t *testing.T) {
	t.Setenv("SMS_PROVIDER", "pigeon")
	_, err := buildNotifier(testLogger())
	assert.Error(t, err)

	t.Setenv("SMS_PROVIDER", "twilio")
	t.Setenv("TWILIO_ACCOUNT_SID", "")
	_, err = buildNotifier(testLogger())
	assert.Error(t, err, "twilio needs credentials")

	t.Setenv("SMS_PROVIDER", "noop")
	d, err := buildNotifier(testLogger())
	require.NoError(t, err)
	assert.NotNil(t, d)
}

func TestParseSeedExampleFile(t *testing.T) {
	f, err := os.Open("../../services.example.yaml")
	require.NoError(t, err)
	defer f.Close()

	services, err := parseSeed(f)
	require.NoError(t, err)
	require.Len(t, services, 3)
	assert.Equal(t, "Haircut & Styling", services[0].Name)
	assert.Equal(t, model.CategoryHair, services[0].Category)
	assert.Equal(t, 180, services[2].DurationMinutes)
}

func TestParseSeedRejectsInvalidEntries(t *testing.T) {
	_, err := parseSeed(strings.NewReader("services:\n  - name: X\n    category: nails\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "services[0]")

	var verr *model.ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = parseSeed(strings.NewReader("services: []\n"))
	assert.Error(t, err)

	_, err = parseSeed(strings.NewReader("services:\n  - name: Trim\n    colour: red\n"))
	assert.Error(t, err, "unknown keys are rejected")
}

func TestSeedServicesWritesToCatalog(t *testing.T) {
	price, minutes := 30.0, 45
	services, err := parseSeed(strings.NewReader(
		"services:\n  - name: Blowout\n    price: 30\n    durationMinutes: 45\n    category: hair\n"))
	require.NoError(t, err)

	store := catalog.NewMemoryStore()
	n, err := seedServices(context.Background(), store, services)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	listed, err := store.List(context.Background(), model.CategoryHair)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, price, listed[0].Price)
	assert.Equal(t, minutes, listed[0].DurationMinutes)
	assert.NotEmpty(t, listed[0].ID)
}

func TestStartupUndoReleasesNewestFirst(t *testing.T) {
	var order []string
	stop := func(name string, err error) runtime.ShutdownHook {
		return runtime.ShutdownHook{Name: name, Stop: func(context.Context) error {
			order = append(order, name)
			return err
		}}
	}

	var undo startupUndo
	undo.push(stop("otel", nil))
	undo.push(stop("storage", errors.New("pool busy")))
	undo.push(stop("events", nil))

	err := undo.run(time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage: pool busy")
	assert.Equal(t, []string{"events", "storage", "otel"}, order)
}

func TestStartupUndoWithNothingOpened(t *testing.T) {
	var undo startupUndo
	assert.NoError(t, undo.run(time.Second))
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
