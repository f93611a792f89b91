package ledger

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	today = time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	day   = time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)
)

func newBooking(name, at string) model.Booking {
	return model.Booking{Name: name, Phone: "9876543210", Service: "Haircut", Date: day, Time: at}
}

func TestInsertDefaultsAndAliases(t *testing.T) {
	store := NewMemoryStore()

	b, err := store.Insert(context.Background(), newBooking("Asha", "14:00"))
	require.NoError(t, err)
	assert.NotEmpty(t, b.ID)
	assert.Equal(t, model.StatusConfirmed, b.Status)
	assert.Equal(t, "14:00", b.TimeSlot)
	assert.False(t, b.CreatedAt.IsZero())
}

func TestInsertRejectsSecondActiveBooking(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	first, err := store.Insert(ctx, newBooking("Asha", "14:00"))
	require.NoError(t, err)

	// Different field names, same effective time.
	dup := newBooking("Ravi", "")
	dup.TimeSlot = "14:00"
	_, err = store.Insert(ctx, dup)
	assert.ErrorIs(t, err, model.ErrConflict)

	held, found, err := store.FindConflict(ctx, day, "14:00")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, first.ID, held.ID)
}

func TestConcurrentInsertsHaveOneWinner(t *testing.T) {
	store := NewMemoryStore()
	var (
		wg        sync.WaitGroup
		ok, clash atomic.Int32
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Insert(context.Background(), newBooking("Racer", "11:00"))
			if err == nil {
				ok.Add(1)
			} else if err == model.ErrConflict {
				clash.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), ok.Load())
	assert.Equal(t, int32(19), clash.Load())
}

func TestCancelErrors(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Cancel(ctx, "missing", today)
	assert.ErrorIs(t, err, model.ErrNotFound)

	b, err := store.Insert(ctx, newBooking("Asha", "14:00"))
	require.NoError(t, err)

	cancelled, err := store.Cancel(ctx, b.ID, today)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, cancelled.Status)

	_, err = store.Cancel(ctx, b.ID, today)
	assert.ErrorIs(t, err, model.ErrAlreadyCancelled)

	past := newBooking("Old", "10:00")
	past.Date = today.AddDate(0, 0, -1)
	past.Status = model.StatusPending
	old, err := store.Insert(ctx, past)
	require.NoError(t, err)
	_, err = store.Cancel(ctx, old.ID, today)
	assert.ErrorIs(t, err, model.ErrPastDate)

	sameDay := newBooking("Today", "10:00")
	sameDay.Date = today
	current, err := store.Insert(ctx, sameDay)
	require.NoError(t, err)
	_, err = store.Cancel(ctx, current.ID, today)
	assert.NoError(t, err)
}

func TestCancelFreesSlotForNewBooking(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	a, err := store.Insert(ctx, newBooking("A", "14:00"))
	require.NoError(t, err)
	_, err = store.Cancel(ctx, a.ID, today)
	require.NoError(t, err)

	_, found, err := store.FindConflict(ctx, day, "14:00")
	require.NoError(t, err)
	assert.False(t, found)

	_, err = store.Insert(ctx, newBooking("B", "14:00"))
	assert.NoError(t, err)
}

func TestUpdateStatusReturnsPreviousAndGuardsReactivation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	a, err := store.Insert(ctx, newBooking("A", "14:00"))
	require.NoError(t, err)

	notes := "arrived early"
	updated, prev, err := store.UpdateStatus(ctx, a.ID, model.StatusCompleted, &notes)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, prev)
	assert.Equal(t, model.StatusCompleted, updated.Status)
	assert.Equal(t, "arrived early", updated.Notes)

	_, prev, err = store.UpdateStatus(ctx, a.ID, model.StatusCancelled, nil)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, prev)

	_, err = store.Insert(ctx, newBooking("B", "14:00"))
	require.NoError(t, err)

	_, _, err = store.UpdateStatus(ctx, a.ID, model.StatusConfirmed, nil)
	assert.ErrorIs(t, err, model.ErrConflict)

	_, _, err = store.UpdateStatus(ctx, "missing", model.StatusConfirmed, nil)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestListBookedTimesIsDeduplicated(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	both := newBooking("Both", "14:00")
	both.TimeSlot = "14:00"
	_, err := store.Insert(ctx, both)
	require.NoError(t, err)
	_, err = store.Insert(ctx, newBooking("Early", "09:00"))
	require.NoError(t, err)
	gone, err := store.Insert(ctx, newBooking("Gone", "16:00"))
	require.NoError(t, err)
	_, err = store.Cancel(ctx, gone.ID, today)
	require.NoError(t, err)

	times, err := store.ListBookedTimes(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "14:00"}, times)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	b, err := store.Insert(ctx, newBooking("A", "14:00"))
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, b.ID))
	assert.ErrorIs(t, store.Delete(ctx, b.ID), model.ErrNotFound)
	_, err = store.Get(ctx, b.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestListFiltersAndPaginates(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	for i, at := range []string{"09:00", "10:00", "11:00", "12:00", "13:00"} {
		b := newBooking("Client", at)
		if i == 0 {
			b.Name = "Priya Nair"
			b.Status = model.StatusPending
		}
		_, err := store.Insert(ctx, b)
		require.NoError(t, err)
	}

	page, err := store.List(ctx, Filter{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	assert.Len(t, page.Bookings, 2)

	page, err = store.List(ctx, Filter{Search: "priya"})
	require.NoError(t, err)
	require.Len(t, page.Bookings, 1)
	assert.Equal(t, "09:00", page.Bookings[0].Time)

	page, err = store.List(ctx, Filter{Status: model.StatusConfirmed, Day: day})
	require.NoError(t, err)
	assert.Equal(t, int64(4), page.Total)

	page, err = store.List(ctx, Filter{Page: 9})
	require.NoError(t, err)
	assert.Empty(t, page.Bookings)
}

func TestFilterNormalize(t *testing.T) {
	f := Filter{Page: -1, Limit: 1000, Search: "  x "}.Normalize()
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, 100, f.Limit)
	assert.Equal(t, "x", f.Search)
	assert.Equal(t, 0, f.Offset())
}

func TestHugePageIsAnEmptyPage(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	_, err := store.Insert(ctx, newBooking("Asha", "10:00"))
	require.NoError(t, err)

	f := Filter{Page: 922337203685477582, Limit: 10}.Normalize()
	assert.Equal(t, MaxPage, f.Page)
	assert.Positive(t, f.Offset())

	page, err := store.List(ctx, Filter{Page: 922337203685477582, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Bookings)
	assert.Equal(t, int64(1), page.Total)
}
