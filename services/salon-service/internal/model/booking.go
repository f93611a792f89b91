package model

import (
	"strings"
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// Statuses lists every accepted status in display order.
var Statuses = []Status{StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted}

func ParseStatus(raw string) (Status, bool) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Statuses {
		if s == known {
			return s, true
		}
	}
	return "", false
}

// Booking is one appointment in the ledger.
//
// Time and TimeSlot are two names for the same value; Normalize keeps them in
// step and EffectiveTime picks the one that governs slot uniqueness.
type Booking struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email,omitempty"`
	Service   string    `json:"service"`
	ServiceID string    `json:"serviceId,omitempty"`
	Date      time.Time `json:"date"`
	Time      string    `json:"time"`
	TimeSlot  string    `json:"timeSlot"`
	Status    Status    `json:"status"`
	Notes     string    `json:"notes,omitempty"`
	UserID    string    `json:"userId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Normalize copies time into timeSlot (or the reverse) when only one is set.
// When both are set they are left as they are.
func (b *Booking) Normalize() {
	b.Time = strings.TrimSpace(b.Time)
	b.TimeSlot = strings.TrimSpace(b.TimeSlot)
	switch {
	case b.Time == "" && b.TimeSlot != "":
		b.Time = b.TimeSlot
	case b.TimeSlot == "" && b.Time != "":
		b.TimeSlot = b.Time
	}
}

func (b Booking) EffectiveTime() string {
	if b.TimeSlot != "" {
		return b.TimeSlot
	}
	return b.Time
}

// Active bookings hold their slot.
func (b Booking) Active() bool {
	return b.Status != StatusCancelled
}

// SlotKey identifies a (day, time) pair, e.g. "2026-01-28 14:00".
func SlotKey(day time.Time, t string) string {
	return FormatDay(day) + " " + t
}
