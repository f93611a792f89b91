package validation

import (
	"errors"
	"testing"
	"time"

	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *model.ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
	out := map[string]string{}
	for _, f := range verr.Fields {
		out[f.Field] = f.Message
	}
	return out
}

func validRequest() BookingRequest {
	return BookingRequest{
		Name:    "Asha Verma",
		Phone:   "9876543210",
		Email:   "Asha@Example.com",
		Service: "Hair Spa",
		Date:    "2026-01-28",
		Time:    "14:00",
	}
}

func TestBookingNormalizesInput(t *testing.T) {
	b, err := Booking(validRequest(), time.UTC)
	require.NoError(t, err)

	assert.Equal(t, "asha@example.com", b.Email)
	assert.Equal(t, time.Date(2026, 1, 28, 0, 0, 0, 0, time.UTC), b.Date)
	assert.Equal(t, "14:00", b.Time)
	assert.Equal(t, "14:00", b.TimeSlot)
	assert.Empty(t, b.Status)
}

func TestBookingAcceptsTimeSlotAlone(t *testing.T) {
	req := validRequest()
	req.Time = ""
	req.TimeSlot = "10:00"

	b, err := Booking(req, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "10:00", b.Time)
	assert.Equal(t, "10:00", b.TimeSlot)
}

func TestBookingReportsEveryBadField(t *testing.T) {
	req := BookingRequest{
		Name:   "A",
		Phone:  "98765-4321",
		Email:  "not-an-email",
		Date:   "tomorrow",
		Time:   "25:00",
		Status: "archived",
	}
	fields := fieldsOf(t, func() error { _, err := Booking(req, time.UTC); return err }())

	assert.Contains(t, fields, "name")
	assert.Equal(t, "must be exactly 10 digits", fields["phone"])
	assert.Contains(t, fields, "email")
	assert.Equal(t, "is required", fields["service"])
	assert.Contains(t, fields, "date")
	assert.Contains(t, fields, "time")
	assert.Contains(t, fields, "status")
}

func TestBookingRequiresATime(t *testing.T) {
	req := validRequest()
	req.Time = ""
	_, err := Booking(req, time.UTC)
	assert.Equal(t, "is required", fieldsOf(t, err)["time"])
}

func TestBookingRejectsLongNotes(t *testing.T) {
	req := validRequest()
	long := make([]byte, 501)
	for i := range long {
		long[i] = 'x'
	}
	req.Notes = string(long)
	_, err := Booking(req, time.UTC)
	assert.Contains(t, fieldsOf(t, err), "notes")
}

func TestStatusUpdate(t *testing.T) {
	notes := "  walk-in  "
	status, gotNotes, err := StatusUpdate(StatusUpdateRequest{Status: "completed", Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, status)
	require.NotNil(t, gotNotes)
	assert.Equal(t, "walk-in", *gotNotes)

	_, _, err = StatusUpdate(StatusUpdateRequest{Status: "done"})
	assert.Contains(t, fieldsOf(t, err), "status")
}

func TestServiceAndReview(t *testing.T) {
	price := 1500.0
	duration := 60
	s, err := Service(ServiceRequest{Name: "Bridal Makeup", Price: &price, DurationMinutes: &duration, Category: "Bridal"})
	require.NoError(t, err)
	assert.Equal(t, model.CategoryBridal, s.Category)

	_, err = Service(ServiceRequest{Name: "Massage", Category: "spa"})
	fields := fieldsOf(t, err)
	assert.Contains(t, fields, "price")
	assert.Contains(t, fields, "durationMinutes")
	assert.Contains(t, fields, "category")

	r, err := Review(ReviewRequest{Name: "Meera", Rating: 5, Comment: "Lovely", Service: "Facial"})
	require.NoError(t, err)
	assert.False(t, r.Approved)

	_, err = Review(ReviewRequest{Name: "Meera", Rating: 6, Comment: "", Service: "Facial"})
	fields = fieldsOf(t, err)
	assert.Contains(t, fields, "rating")
	assert.Contains(t, fields, "comment")
}

func TestSlotTimeAndDay(t *testing.T) {
	got, err := SlotTime(" 09:00 ")
	require.NoError(t, err)
	assert.Equal(t, "09:00", got)

	_, err = SlotTime("9am")
	assert.Error(t, err)

	_, err = Day("", time.UTC)
	assert.Equal(t, "is required", fieldsOf(t, err)["date"])
}
