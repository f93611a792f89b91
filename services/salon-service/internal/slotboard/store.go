// Package slotboard keeps the per-day availability sheet. It is a projection
// of the booking ledger: every write here is allowed to fail, and Rebuild can
// recompute a sheet from the ledger at any time.
package slotboard

import (
	"context"
	"errors"
	"time"

	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/model"
)

var (
	// ErrNoSlot means the day has no board yet or the board has no such time.
	ErrNoSlot = errors.New("slot not on board")
	// ErrHeldByOther means a release named a booking that no longer holds the slot.
	ErrHeldByOther = errors.New("slot held by another booking")
)

type Store interface {
	// Get returns model.ErrNotFound when the day was never materialized.
	Get(ctx context.Context, day time.Time) (model.SlotBoard, error)
	// GetOrCreate persists gen(day) when the day has no board. created reports
	// whether this call wrote it.
	GetOrCreate(ctx context.Context, day time.Time, gen Generator) (board model.SlotBoard, created bool, err error)
	MarkUnavailable(ctx context.Context, day time.Time, slotTime, bookingID string) error
	// MarkAvailable releases the slot. A non-empty bookingID makes the release
	// conditional on that booking still holding it (ErrHeldByOther otherwise).
	MarkAvailable(ctx context.Context, day time.Time, slotTime, bookingID string) error
	BlockManually(ctx context.Context, day time.Time, slotTime string) error
	// Replace overwrites (or creates) the whole board.
	Replace(ctx context.Context, board model.SlotBoard) error
}

func markUnavailable(bookingID string) func(*model.Slot) error {
	return func(s *model.Slot) error {
		s.Available = false
		s.BookingID = bookingID
		return nil
	}
}

func markAvailable(bookingID string) func(*model.Slot) error {
	return func(s *model.Slot) error {
		if bookingID != "" && !s.Available && s.BookingID != bookingID {
			return ErrHeldByOther
		}
		s.Available = true
		s.BookingID = ""
		return nil
	}
}

func block(s *model.Slot) error {
	s.Available = false
	s.BookingID = ""
	return nil
}

// apply runs fn on the slot labelled slotTime.
func apply(slots []model.Slot, slotTime string, fn func(*model.Slot) error) error {
	for i := range slots {
		if slots[i].Time == slotTime {
			return fn(&slots[i])
		}
	}
	return ErrNoSlot
}

func cloneSlots(slots []model.Slot) []model.Slot {
	out := make([]model.Slot, len(slots))
	copy(out, slots)
	return out
}
