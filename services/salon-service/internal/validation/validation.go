// Package validation turns raw request payloads into normalized model values
// or a *model.ValidationError listing every offending field.
package validation

import (
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/model"
)

var (
	phonePattern = regexp.MustCompile(`^[0-9]{10}$`)
	clockPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
)

const (
	maxNotes   = 500
	maxComment = 500
)

type BookingRequest struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Service   string `json:"service"`
	ServiceID string `json:"serviceId"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	TimeSlot  string `json:"timeSlot"`
	Status    string `json:"status"`
	Notes     string `json:"notes"`
	UserID    string `json:"userId"`
}

// Booking validates a create request. Day parsing uses loc for timestamp inputs.
// An empty status is left empty so the caller can apply its default.
func Booking(req BookingRequest, loc *time.Location) (model.Booking, error) {
	var verr model.ValidationError

	b := model.Booking{
		Name:      strings.TrimSpace(req.Name),
		Phone:     strings.TrimSpace(req.Phone),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Service:   strings.TrimSpace(req.Service),
		ServiceID: strings.TrimSpace(req.ServiceID),
		Time:      req.Time,
		TimeSlot:  req.TimeSlot,
		Notes:     strings.TrimSpace(req.Notes),
		UserID:    strings.TrimSpace(req.UserID),
	}

	checkLength(&verr, "name", b.Name, 2, 100)
	if !phonePattern.MatchString(b.Phone) {
		verr.Add("phone", "must be exactly 10 digits")
	}
	if b.Email != "" && !validEmail(b.Email) {
		verr.Add("email", "must be a valid email address")
	}
	if b.Service == "" {
		verr.Add("service", "is required")
	} else if utf8.RuneCountInString(b.Service) > 100 {
		verr.Add("service", "must be at most 100 characters")
	}

	if strings.TrimSpace(req.Date) == "" {
		verr.Add("date", "is required")
	} else if day, err := model.ParseDay(req.Date, loc); err != nil {
		verr.Add("date", "must be a date like 2026-01-28")
	} else {
		b.Date = day
	}

	b.Normalize()
	switch {
	case b.Time == "":
		verr.Add("time", "is required")
	default:
		if !clockPattern.MatchString(b.Time) {
			verr.Add("time", "must be HH:MM in 24-hour format")
		}
		if b.TimeSlot != b.Time && !clockPattern.MatchString(b.TimeSlot) {
			verr.Add("timeSlot", "must be HH:MM in 24-hour format")
		}
	}

	if raw := strings.TrimSpace(req.Status); raw != "" {
		status, ok := model.ParseStatus(raw)
		if !ok {
			verr.Add("status", "must be one of pending, confirmed, cancelled, completed")
		}
		b.Status = status
	}
	if utf8.RuneCountInString(b.Notes) > maxNotes {
		verr.Add("notes", "must be at most 500 characters")
	}

	if err := verr.Err(); err != nil {
		return model.Booking{}, err
	}
	return b, nil
}

type StatusUpdateRequest struct {
	Status string  `json:"status"`
	Notes  *string `json:"notes"`
}

func StatusUpdate(req StatusUpdateRequest) (model.Status, *string, error) {
	var verr model.ValidationError
	status, ok := model.ParseStatus(req.Status)
	if !ok {
		verr.Add("status", "must be one of pending, confirmed, cancelled, completed")
	}
	var notes *string
	if req.Notes != nil {
		n := strings.TrimSpace(*req.Notes)
		if utf8.RuneCountInString(n) > maxNotes {
			verr.Add("notes", "must be at most 500 characters")
		}
		notes = &n
	}
	if err := verr.Err(); err != nil {
		return "", nil, err
	}
	return status, notes, nil
}

// SlotTime validates a bare HH:MM label used by the slot board endpoints.
func SlotTime(raw string) (string, error) {
	t := strings.TrimSpace(raw)
	if !clockPattern.MatchString(t) {
		return "", model.Invalid("time", "must be HH:MM in 24-hour format")
	}
	return t, nil
}

func Day(raw string, loc *time.Location) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, model.Invalid("date", "is required")
	}
	day, err := model.ParseDay(raw, loc)
	if err != nil {
		return time.Time{}, model.Invalid("date", "must be a date like 2026-01-28")
	}
	return day, nil
}

func checkLength(verr *model.ValidationError, field, v string, min, max int) {
	n := utf8.RuneCountInString(v)
	switch {
	case n == 0:
		verr.Add(field, "is required")
	case n < min || n > max:
		verr.Add(field, "must be between "+strconv.Itoa(min)+" and "+strconv.Itoa(max)+" characters")
	}
}

func validEmail(v string) bool {
	addr, err := mail.ParseAddress(v)
	return err == nil && addr.Address == v
}
