package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()
	m.Booking(OutcomeCreated)
	m.Booking(OutcomeCreated)
	m.Booking(OutcomeConflict)
	m.BestEffortFailure("slot_board.mark_unavailable")
	m.Notification("confirmation", nil)
	m.Notification("confirmation", errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.bookings.WithLabelValues(OutcomeCreated)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bookings.WithLabelValues(OutcomeConflict)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifications.WithLabelValues("confirmation", "failed")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `salon_best_effort_failures_total{step="slot_board.mark_unavailable"} 1`)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.Booking(OutcomeCreated)
	m.BestEffortFailure("x")
	m.Notification("x", nil)
	assert.NotNil(t, m.Handler())
}
