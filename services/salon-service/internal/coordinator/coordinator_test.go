package coordinator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/events"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/ledger"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/metrics"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/model"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/notify"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/slotboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sent struct {
	phone string
	kind  notify.Kind
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sent
	err  error
}

func (n *recordingNotifier) Send(_ context.Context, phone string, kind notify.Kind, _ notify.Details) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sent{phone: phone, kind: kind})
	return n.err
}

func (n *recordingNotifier) kinds() []notify.Kind {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notify.Kind, 0, len(n.sent))
	for _, s := range n.sent {
		out = append(out, s.kind)
	}
	return out
}

type recordingPublisher struct {
	mu    sync.Mutex
	types []string
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.types = append(p.types, e.Type)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type fixture struct {
	c         *Coordinator
	ledger    ledger.Store
	board     slotboard.Store
	notifier  *recordingNotifier
	publisher *recordingPublisher
	metrics   *metrics.Metrics
	clock     *clock
}

func newFixture(t *testing.T, opts ...func(*Deps)) *fixture {
	t.Helper()
	f := &fixture{
		ledger:    ledger.NewMemoryStore(),
		board:     slotboard.NewMemoryStore(),
		notifier:  &recordingNotifier{},
		publisher: &recordingPublisher{},
		metrics:   metrics.New(),
		clock:     &clock{now: time.Date(2026, 1, 20, 10, 0, 0, 0, time.UTC)},
	}
	deps := Deps{
		Ledger:   f.ledger,
		Board:    f.board,
		Notifier: f.notifier,
		Events:   f.publisher,
		Metrics:  f.metrics,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&deps)
	}
	f.ledger, f.board = deps.Ledger, deps.Board
	f.c = New(deps, Config{Location: time.UTC, SideEffectTimeout: time.Second, Now: f.clock.Now})
	return f
}

func (f *fixture) wait(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, f.c.Wait(ctx))
}

func day(raw string) time.Time {
	d, err := model.ParseDay(raw, time.UTC)
	if err != nil {
		panic(err)
	}
	return d
}

func booking(name, date, at string) model.Booking {
	return model.Booking{Name: name, Phone: "5551234567", Service: "Haircut", Date: day(date), Time: at}
}

func slotAt(t *testing.T, board model.SlotBoard, at string) model.Slot {
	t.Helper()
	i := board.Index(at)
	require.GreaterOrEqual(t, i, 0, "slot %s missing", at)
	return board.Slots[i]
}

func TestDoubleBookCancelRebook(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.c.SlotBoard(ctx, day("2026-01-28"))
	require.NoError(t, err)

	a, err := f.c.Create(ctx, booking("Asha", "2026-01-28", "14:00"))
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, a.Status)

	_, err = f.c.Create(ctx, booking("Bina", "2026-01-28", "14:00"))
	assert.ErrorIs(t, err, model.ErrConflict)

	_, err = f.c.Cancel(ctx, a.ID)
	require.NoError(t, err)
	board, err := f.board.Get(ctx, day("2026-01-28"))
	require.NoError(t, err)
	assert.True(t, slotAt(t, board, "14:00").Available)

	b, err := f.c.Create(ctx, booking("Bina", "2026-01-28", "14:00"))
	require.NoError(t, err)

	board, err = f.board.Get(ctx, day("2026-01-28"))
	require.NoError(t, err)
	assert.Equal(t, model.Slot{Time: "14:00", Available: false, BookingID: b.ID}, slotAt(t, board, "14:00"))

	f.wait(t)
	assert.ElementsMatch(t, []notify.Kind{notify.KindConfirmation, notify.KindCancellation, notify.KindConfirmation}, f.notifier.kinds())
	assert.Contains(t, scrape(t, f.metrics), `salon_bookings_total{outcome="created"} 2`)
	assert.Contains(t, scrape(t, f.metrics), `salon_bookings_total{outcome="conflict"} 1`)
}

func TestConflictWithoutSlotBoard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.c.Create(ctx, booking("Asha", "2026-02-02", "10:00"))
	require.NoError(t, err)

	_, err = f.c.Create(ctx, model.Booking{Name: "Bina", Phone: "5550000000", Service: "Facial", Date: day("2026-02-02"), TimeSlot: "10:00"})
	assert.ErrorIs(t, err, model.ErrConflict)
}

// blindLedger skips the pre-check so racing creates reach the store's constraint.
type blindLedger struct {
	*ledger.MemoryStore
}

func (blindLedger) FindConflict(context.Context, time.Time, string) (model.Booking, bool, error) {
	return model.Booking{}, false, nil
}

func TestConcurrentCreatesExactlyOneWins(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, func(d *Deps) { d.Ledger = blindLedger{ledger.NewMemoryStore()} })

	const n = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok        int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.c.Create(ctx, booking("Racer", "2026-03-03", "12:00"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, model.ErrConflict):
				conflicts++
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, conflicts)
}

func TestCreateRejectsPastDate(t *testing.T) {
	f := newFixture(t)
	_, err := f.c.Create(context.Background(), booking("Asha", "2026-01-19", "10:00"))
	assert.ErrorIs(t, err, model.ErrPastDate)

	_, err = f.c.Create(context.Background(), booking("Asha", "2026-01-20", "10:00"))
	assert.NoError(t, err, "today is bookable")
}

func TestCreateNormalizesAlias(t *testing.T) {
	f := newFixture(t)

	b, err := f.c.Create(context.Background(), model.Booking{Name: "Asha", Phone: "5551234567", Service: "Haircut", Date: day("2026-02-01"), TimeSlot: "15:00"})
	require.NoError(t, err)
	assert.Equal(t, "15:00", b.Time)
	assert.Equal(t, "15:00", b.TimeSlot)

	b, err = f.c.Create(context.Background(), booking("Bina", "2026-02-01", "16:00"))
	require.NoError(t, err)
	assert.Equal(t, "16:00", b.TimeSlot)
}

func TestCancelFailures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	b, err := f.c.Create(ctx, booking("Asha", "2026-01-22", "09:00"))
	require.NoError(t, err)

	_, err = f.c.Cancel(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)

	f.clock.Set(time.Date(2026, 1, 23, 8, 0, 0, 0, time.UTC))
	_, err = f.c.Cancel(ctx, b.ID)
	assert.ErrorIs(t, err, model.ErrPastDate)

	f.clock.Set(time.Date(2026, 1, 22, 23, 59, 0, 0, time.UTC))
	_, err = f.c.Cancel(ctx, b.ID)
	require.NoError(t, err, "same day is not in the past")

	_, err = f.c.Cancel(ctx, b.ID)
	assert.ErrorIs(t, err, model.ErrAlreadyCancelled)

	f.clock.Set(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	_, err = f.c.Cancel(ctx, b.ID)
	assert.ErrorIs(t, err, model.ErrAlreadyCancelled, "already cancelled wins over past date")
}

func TestStatusNotifications(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	b := booking("Asha", "2026-01-25", "11:00")
	b.Status = model.StatusPending
	created, err := f.c.Create(ctx, b)
	require.NoError(t, err)
	f.wait(t)
	before := len(f.notifier.kinds())

	_, err = f.c.UpdateStatus(ctx, created.ID, model.StatusCompleted, nil)
	require.NoError(t, err)
	f.wait(t)
	assert.Equal(t, []notify.Kind{notify.KindCompletion}, f.notifier.kinds()[before:])

	notes := "paid in cash"
	updated, err := f.c.UpdateStatus(ctx, created.ID, model.StatusCompleted, &notes)
	require.NoError(t, err)
	f.wait(t)
	assert.Len(t, f.notifier.kinds(), before+1, "no-op update sends nothing")
	assert.Equal(t, "paid in cash", updated.Notes)

	_, err = f.c.UpdateStatus(ctx, "missing", model.StatusConfirmed, nil)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestStatusCancelReleasesAndReactivateClaims(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	d := day("2026-01-26")
	_, err := f.c.SlotBoard(ctx, d)
	require.NoError(t, err)

	a, err := f.c.Create(ctx, booking("Asha", "2026-01-26", "13:00"))
	require.NoError(t, err)

	_, err = f.c.UpdateStatus(ctx, a.ID, model.StatusCancelled, nil)
	require.NoError(t, err)
	board, _ := f.board.Get(ctx, d)
	assert.True(t, slotAt(t, board, "13:00").Available)

	_, err = f.c.UpdateStatus(ctx, a.ID, model.StatusPending, nil)
	require.NoError(t, err)
	board, _ = f.board.Get(ctx, d)
	assert.Equal(t, a.ID, slotAt(t, board, "13:00").BookingID)

	_, err = f.c.UpdateStatus(ctx, a.ID, model.StatusCancelled, nil)
	require.NoError(t, err)
	_, err = f.c.Create(ctx, booking("Bina", "2026-01-26", "13:00"))
	require.NoError(t, err)

	_, err = f.c.UpdateStatus(ctx, a.ID, model.StatusConfirmed, nil)
	assert.ErrorIs(t, err, model.ErrConflict)
}

func TestDeleteReleasesSlot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	d := day("2026-01-27")
	_, err := f.c.SlotBoard(ctx, d)
	require.NoError(t, err)

	b, err := f.c.Create(ctx, booking("Asha", "2026-01-27", "10:00"))
	require.NoError(t, err)

	require.NoError(t, f.c.Delete(ctx, b.ID))
	board, err := f.board.Get(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, model.Slot{Time: "10:00", Available: true}, slotAt(t, board, "10:00"))

	_, err = f.ledger.Get(ctx, b.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.ErrorIs(t, f.c.Delete(ctx, b.ID), model.ErrNotFound)

	f.wait(t)
	assert.Contains(t, f.publisher.types, events.TypeDeleted)
}

func TestDeleteCancelledKeepsRebookedSlot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	d := day("2026-01-27")
	_, err := f.c.SlotBoard(ctx, d)
	require.NoError(t, err)

	a, err := f.c.Create(ctx, booking("Asha", "2026-01-27", "12:00"))
	require.NoError(t, err)
	_, err = f.c.Cancel(ctx, a.ID)
	require.NoError(t, err)
	b, err := f.c.Create(ctx, booking("Bina", "2026-01-27", "12:00"))
	require.NoError(t, err)

	require.NoError(t, f.c.Delete(ctx, a.ID))
	board, _ := f.board.Get(ctx, d)
	assert.Equal(t, b.ID, slotAt(t, board, "12:00").BookingID)
}

func TestStaleReleaseLeavesNewHolderAlone(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	d := day("2026-02-10")
	_, err := f.c.SlotBoard(ctx, d)
	require.NoError(t, err)

	a, err := f.c.Create(ctx, booking("Asha", "2026-02-10", "11:00"))
	require.NoError(t, err)

	// A's cancel commits, B claims the slot, and only then does A's release run.
	cancelled, err := f.ledger.Cancel(ctx, a.ID, f.c.Today())
	require.NoError(t, err)
	b, err := f.ledger.Insert(ctx, booking("Bina", "2026-02-10", "11:00"))
	require.NoError(t, err)
	f.c.claimSlot(ctx, b)
	f.c.releaseSlot(ctx, cancelled)

	board, err := f.board.Get(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, model.Slot{Time: "11:00", Available: false, BookingID: b.ID}, slotAt(t, board, "11:00"))
	assert.NotContains(t, scrape(t, f.metrics), `step="slot_board.mark_available"`)
}

func TestBookedTimesAreUnique(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	b := booking("Asha", "2026-01-29", "10:00")
	b.TimeSlot = "10:00"
	_, err := f.c.Create(ctx, b)
	require.NoError(t, err)
	_, err = f.c.Create(ctx, booking("Bina", "2026-01-29", "09:00"))
	require.NoError(t, err)

	times, err := f.c.BookedTimes(ctx, day("2026-01-29"))
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "10:00"}, times)
}

func TestSlotBoardIsMaterializedOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	d := day("2026-04-01")

	first, err := f.c.SlotBoard(ctx, d)
	require.NoError(t, err)
	require.Len(t, first.Slots, 10)
	assert.Equal(t, "09:00", first.Slots[0].Time)
	assert.Equal(t, "18:00", first.Slots[9].Time)
	for _, s := range first.Slots {
		assert.True(t, s.Available)
	}

	require.NoError(t, f.board.BlockManually(ctx, d, "15:00"))
	second, err := f.c.SlotBoard(ctx, d)
	require.NoError(t, err)
	assert.True(t, slotAt(t, second, "15:00").Blocked(), "repeat read returns the stored board")
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
}

func TestLateBoardOverlaysBookings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	b, err := f.c.Create(ctx, booking("Asha", "2026-04-02", "11:00"))
	require.NoError(t, err)

	board, err := f.c.SlotBoard(ctx, day("2026-04-02"))
	require.NoError(t, err)
	assert.Equal(t, model.Slot{Time: "11:00", Available: false, BookingID: b.ID}, slotAt(t, board, "11:00"))

	stored, err := f.board.Get(ctx, day("2026-04-02"))
	require.NoError(t, err)
	assert.Equal(t, board.Slots, stored.Slots)
}

func TestBlockAndUnblock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	d := day("2026-04-03")

	board, err := f.c.BlockSlot(ctx, d, "11:00")
	require.NoError(t, err)
	assert.True(t, slotAt(t, board, "11:00").Blocked())

	_, err = f.c.Create(ctx, booking("Asha", "2026-04-03", "11:00"))
	assert.ErrorIs(t, err, model.ErrConflict)

	_, err = f.c.BlockSlot(ctx, d, "07:30")
	assert.ErrorIs(t, err, model.ErrNotFound)

	board, err = f.c.UnblockSlot(ctx, d, "11:00")
	require.NoError(t, err)
	assert.True(t, slotAt(t, board, "11:00").Available)

	_, err = f.c.Create(ctx, booking("Asha", "2026-04-03", "11:00"))
	require.NoError(t, err)

	_, err = f.c.UnblockSlot(ctx, d, "11:00")
	assert.ErrorIs(t, err, model.ErrConflict)
	_, err = f.c.BlockSlot(ctx, d, "11:00")
	assert.ErrorIs(t, err, model.ErrConflict)

	_, err = f.c.UnblockSlot(ctx, day("2026-04-04"), "11:00")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestRepairRestoresDriftedBoard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	d := day("2026-04-05")
	_, err := f.c.SlotBoard(ctx, d)
	require.NoError(t, err)

	b, err := f.c.Create(ctx, booking("Asha", "2026-04-05", "16:00"))
	require.NoError(t, err)
	require.NoError(t, f.board.MarkAvailable(ctx, d, "16:00", ""))
	require.NoError(t, f.board.MarkUnavailable(ctx, d, "17:00", "ghost"))
	require.NoError(t, f.board.BlockManually(ctx, d, "09:00"))

	board, err := f.c.Repair(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, b.ID, slotAt(t, board, "16:00").BookingID)
	assert.True(t, slotAt(t, board, "17:00").Available)
	assert.True(t, slotAt(t, board, "09:00").Blocked())

	n, err := f.c.RepairRange(ctx, d, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

// brokenBoard fails every slot write.
type brokenBoard struct {
	*slotboard.MemoryStore
}

func (brokenBoard) MarkUnavailable(context.Context, time.Time, string, string) error {
	return errors.New("board offline")
}

func (brokenBoard) MarkAvailable(context.Context, time.Time, string, string) error {
	return errors.New("board offline")
}

func TestSlotBoardFailuresNeverFailTheBooking(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, func(d *Deps) { d.Board = brokenBoard{slotboard.NewMemoryStore()} })
	f.notifier.err = errors.New("sms down")

	b, err := f.c.Create(ctx, booking("Asha", "2026-05-01", "10:00"))
	require.NoError(t, err)
	_, err = f.c.Cancel(ctx, b.ID)
	require.NoError(t, err)
	require.NoError(t, f.c.Delete(ctx, b.ID))
	f.wait(t)

	body := scrape(t, f.metrics)
	assert.Contains(t, body, `salon_best_effort_failures_total{step="slot_board.mark_unavailable"} 1`)
	assert.Contains(t, body, `salon_best_effort_failures_total{step="slot_board.mark_available"} 2`)
	assert.Contains(t, body, `salon_best_effort_failures_total{step="notify.confirmation"} 1`)
	assert.Contains(t, body, `salon_notifications_total{kind="cancellation",result="failed"} 1`)
}

func scrape(t *testing.T, m *metrics.Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}
