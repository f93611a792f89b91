// Package ledger is the durable record of bookings and the final arbiter of
// slot ownership: each backend enforces at most one non-cancelled booking per
// (date, effective time) with a storage-level unique constraint.
package ledger

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/model"
)

type Store interface {
	// FindConflict returns the non-cancelled booking holding (day, effectiveTime), if any.
	FindConflict(ctx context.Context, day time.Time, effectiveTime string) (model.Booking, bool, error)
	// Insert stores b and returns it with id and timestamps set. A uniqueness
	// violation is reported as model.ErrConflict.
	Insert(ctx context.Context, b model.Booking) (model.Booking, error)
	Get(ctx context.Context, id string) (model.Booking, error)
	// UpdateStatus returns the updated booking and the status it replaced.
	// Moving a cancelled booking back to an active status re-claims its slot
	// and can fail with model.ErrConflict.
	UpdateStatus(ctx context.Context, id string, status model.Status, notes *string) (model.Booking, model.Status, error)
	// Cancel fails with model.ErrNotFound, model.ErrAlreadyCancelled or
	// model.ErrPastDate (date strictly before today), checked in that order.
	Cancel(ctx context.Context, id string, today time.Time) (model.Booking, error)
	Delete(ctx context.Context, id string) error
	// ListBookedTimes returns the sorted, de-duplicated effective times of the
	// day's non-cancelled bookings.
	ListBookedTimes(ctx context.Context, day time.Time) ([]string, error)
	// ListActive returns the day's non-cancelled bookings.
	ListActive(ctx context.Context, day time.Time) ([]model.Booking, error)
	List(ctx context.Context, f Filter) (Page, error)
}

// Filter drives the admin listing. Zero values mean "any".
type Filter struct {
	Day    time.Time
	Status model.Status
	Search string
	Page   int
	Limit  int
}

type Page struct {
	Bookings []model.Booking
	Total    int64
}

const (
	defaultLimit = 10
	maxLimit     = 100
	// MaxPage keeps (Page-1)*Limit far from int overflow.
	MaxPage = math.MaxInt32 / maxLimit
)

// Normalize clamps paging to sane values.
func (f Filter) Normalize() Filter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	if f.Page > MaxPage {
		f.Page = MaxPage
	}
	f.Search = strings.TrimSpace(f.Search)
	return f
}

func (f Filter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// cancelFailure explains why a conditional cancel matched nothing, given a fresh read.
func cancelFailure(id string, current model.Booking, getErr error, today time.Time) error {
	switch {
	case getErr != nil:
		return getErr
	case current.Status == model.StatusCancelled:
		return model.ErrAlreadyCancelled
	case model.IsPastDay(current.Date, today):
		return model.ErrPastDate
	default:
		return fmt.Errorf("cancel booking %s: modified concurrently", id)
	}
}

func uniqueTimes(bookings []model.Booking) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(bookings))
	for _, b := range bookings {
		t := b.EffectiveTime()
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// prepareInsert fills defaults shared by every backend.
func prepareInsert(b model.Booking, id string, now time.Time) model.Booking {
	b.Normalize()
	if b.ID == "" {
		b.ID = id
	}
	if b.Status == "" {
		b.Status = model.StatusConfirmed
	}
	b.CreatedAt = now
	b.UpdatedAt = now
	return b
}
