package model

import "time"

type Slot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
	BookingID string `json:"bookingId,omitempty"`
}

// Blocked is a slot taken out of service by hand rather than by a booking.
func (s Slot) Blocked() bool {
	return !s.Available && s.BookingID == ""
}

// SlotBoard is one day's availability sheet.
type SlotBoard struct {
	Date      time.Time `json:"date"`
	Slots     []Slot    `json:"slots"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Index returns the position of the slot labelled t, or -1.
func (b SlotBoard) Index(t string) int {
	for i, s := range b.Slots {
		if s.Time == t {
			return i
		}
	}
	return -1
}
