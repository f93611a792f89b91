package slotboard

import (
	"fmt"
	"sort"
	"time"

	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/model"
)

// Generator returns the default, all-available slots for a day.
type Generator func(day time.Time) []model.Slot

// Hours is the salon's bookable day: one slot every Step from OpenHour
// through CloseHour inclusive.
type Hours struct {
	OpenHour  int
	CloseHour int
	Step      time.Duration
}

// DefaultHours yields hourly slots 09:00 to 18:00.
func DefaultHours() Hours {
	return Hours{OpenHour: 9, CloseHour: 18, Step: time.Hour}
}

func (h Hours) Validate() error {
	if h.OpenHour < 0 || h.CloseHour > 23 || h.OpenHour > h.CloseHour {
		return fmt.Errorf("invalid opening hours %d-%d", h.OpenHour, h.CloseHour)
	}
	if h.Step < 5*time.Minute || h.Step > 12*time.Hour {
		return fmt.Errorf("slot step %s out of range", h.Step)
	}
	return nil
}

func (h Hours) Generator() Generator {
	return func(day time.Time) []model.Slot {
		// Labels are wall-clock values, so build them on a UTC midnight to stay clear of DST.
		base := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
		start := base.Add(time.Duration(h.OpenHour) * time.Hour)
		end := base.Add(time.Duration(h.CloseHour) * time.Hour)

		var slots []model.Slot
		for t := start; !t.After(end); t = t.Add(h.Step) {
			slots = append(slots, model.Slot{Time: t.Format("15:04"), Available: true})
		}
		return slots
	}
}

// Rebuild recomputes a board from the ledger's view of the day. booked maps
// effective time to booking id. Manual blocks survive; booked times missing
// from the board are added in time order.
func Rebuild(board model.SlotBoard, booked map[string]string) model.SlotBoard {
	out := board
	out.Slots = make([]model.Slot, 0, len(board.Slots))
	seen := make(map[string]bool, len(board.Slots))

	for _, s := range board.Slots {
		seen[s.Time] = true
		switch id, ok := booked[s.Time]; {
		case ok:
			out.Slots = append(out.Slots, model.Slot{Time: s.Time, Available: false, BookingID: id})
		case s.Blocked():
			out.Slots = append(out.Slots, model.Slot{Time: s.Time, Available: false})
		default:
			out.Slots = append(out.Slots, model.Slot{Time: s.Time, Available: true})
		}
	}

	var extra bool
	for t, id := range booked {
		if !seen[t] {
			out.Slots = append(out.Slots, model.Slot{Time: t, Available: false, BookingID: id})
			extra = true
		}
	}
	if extra {
		// HH:MM labels sort lexically.
		sort.SliceStable(out.Slots, func(i, j int) bool { return out.Slots[i].Time < out.Slots[j].Time })
	}
	return out
}
