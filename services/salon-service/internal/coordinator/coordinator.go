// Package coordinator owns every booking state transition and keeps the
// slot board in step with the ledger.
//
// The ledger write is the only step that decides success. Slot board writes,
// notifications and lifecycle events run afterwards under their own bounded
// context; their failures are logged and counted, never returned.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	otelx "github.com/md-rashed-zaman/salonbook/libs/otel"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/events"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/ledger"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/metrics"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/model"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/notify"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/slotboard"
	"go.opentelemetry.io/otel/attribute"
)

const tracerName = "salon-service/coordinator"

type Deps struct {
	Ledger   ledger.Store
	Board    slotboard.Store
	Notifier notify.Notifier
	Events   events.Publisher
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

type Config struct {
	Location          *time.Location
	Hours             slotboard.Hours
	SideEffectTimeout time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

type Coordinator struct {
	ledger   ledger.Store
	board    slotboard.Store
	notifier notify.Notifier
	events   events.Publisher
	metrics  *metrics.Metrics
	logger   *slog.Logger

	gen     slotboard.Generator
	loc     *time.Location
	timeout time.Duration
	now     func() time.Time

	tasks sync.WaitGroup
}

func New(deps Deps, cfg Config) *Coordinator {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Hours == (slotboard.Hours{}) {
		cfg.Hours = slotboard.DefaultHours()
	}
	if cfg.SideEffectTimeout <= 0 {
		cfg.SideEffectTimeout = 5 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.NewDispatcher(notify.Config{}, nil, nil, deps.Logger)
	}
	if deps.Events == nil {
		deps.Events = events.NoopPublisher{}
	}
	return &Coordinator{
		ledger:   deps.Ledger,
		board:    deps.Board,
		notifier: deps.Notifier,
		events:   deps.Events,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
		gen:      cfg.Hours.Generator(),
		loc:      cfg.Location,
		timeout:  cfg.SideEffectTimeout,
		now:      cfg.Now,
	}
}

// Today is the current calendar day in the salon's time zone.
func (c *Coordinator) Today() time.Time {
	return model.DayOf(c.now(), c.loc)
}

func (c *Coordinator) Location() *time.Location {
	return c.loc
}

// Create books b.Date at b's effective time. b must already be validated.
func (c *Coordinator) Create(ctx context.Context, b model.Booking) (created model.Booking, err error) {
	b.Normalize()
	slotTime := b.EffectiveTime()
	ctx, span := otelx.StartSpan(ctx, tracerName, "coordinator.create",
		attribute.String("booking.date", model.FormatDay(b.Date)),
		attribute.String("booking.time", slotTime),
	)
	defer func() { otelx.EndSpan(span, err) }()

	if model.IsPastDay(b.Date, c.Today()) {
		c.metrics.Booking(metrics.OutcomePastDate)
		return model.Booking{}, model.ErrPastDate
	}

	if c.boardSaysTaken(ctx, b.Date, slotTime) {
		c.metrics.Booking(metrics.OutcomeConflict)
		return model.Booking{}, model.ErrConflict
	}

	if _, taken, err := c.ledger.FindConflict(ctx, b.Date, slotTime); err != nil {
		return model.Booking{}, fmt.Errorf("check slot: %w", err)
	} else if taken {
		c.metrics.Booking(metrics.OutcomeConflict)
		return model.Booking{}, model.ErrConflict
	}

	if b.Status == "" {
		b.Status = model.StatusConfirmed
	}
	// Two requests can both pass the check above; the store's unique
	// constraint lets exactly one insert through.
	created, err = c.ledger.Insert(ctx, b)
	if err != nil {
		if errors.Is(err, model.ErrConflict) {
			c.metrics.Booking(metrics.OutcomeConflict)
		}
		return model.Booking{}, err
	}
	c.metrics.Booking(metrics.OutcomeCreated)
	c.logger.Info("booking created", "booking_id", created.ID, "date", model.FormatDay(created.Date), "time", slotTime)

	if created.Active() {
		c.claimSlot(ctx, created)
		c.notify(ctx, created, notify.KindConfirmation)
	}
	c.publish(ctx, events.NewEvent(events.TypeCreated, created, ""))
	return created, nil
}

// UpdateStatus sets any status from any status. Notifications fire only when
// the status actually changes.
func (c *Coordinator) UpdateStatus(ctx context.Context, id string, status model.Status, notes *string) (updated model.Booking, err error) {
	ctx, span := otelx.StartSpan(ctx, tracerName, "coordinator.update_status",
		attribute.String("booking.id", id),
		attribute.String("booking.status", string(status)),
	)
	defer func() { otelx.EndSpan(span, err) }()

	updated, prev, err := c.ledger.UpdateStatus(ctx, id, status, notes)
	if err != nil {
		return model.Booking{}, err
	}
	if prev == status {
		return updated, nil
	}
	c.logger.Info("booking status changed", "booking_id", id, "from", string(prev), "to", string(status))

	switch {
	case status == model.StatusCancelled:
		c.releaseSlot(ctx, updated)
	case prev == model.StatusCancelled:
		c.claimSlot(ctx, updated)
	}

	switch status {
	case model.StatusCancelled:
		c.notify(ctx, updated, notify.KindCancellation)
	case model.StatusConfirmed:
		c.notify(ctx, updated, notify.KindConfirmation)
	case model.StatusCompleted:
		c.notify(ctx, updated, notify.KindCompletion)
	}
	c.publish(ctx, events.NewEvent(events.TypeStatusChanged, updated, prev))
	return updated, nil
}

// Cancel rejects bookings that are already cancelled or dated before today.
func (c *Coordinator) Cancel(ctx context.Context, id string) (cancelled model.Booking, err error) {
	ctx, span := otelx.StartSpan(ctx, tracerName, "coordinator.cancel", attribute.String("booking.id", id))
	defer func() { otelx.EndSpan(span, err) }()

	cancelled, err = c.ledger.Cancel(ctx, id, c.Today())
	if err != nil {
		return model.Booking{}, err
	}
	c.logger.Info("booking cancelled", "booking_id", id)

	c.releaseSlot(ctx, cancelled)
	c.notify(ctx, cancelled, notify.KindCancellation)
	c.publish(ctx, events.NewEvent(events.TypeCancelled, cancelled, ""))
	return cancelled, nil
}

// Delete removes the booking for good. The slot is released first, while
// the booking's date and time are still readable.
func (c *Coordinator) Delete(ctx context.Context, id string) (err error) {
	ctx, span := otelx.StartSpan(ctx, tracerName, "coordinator.delete", attribute.String("booking.id", id))
	defer func() { otelx.EndSpan(span, err) }()

	b, err := c.ledger.Get(ctx, id)
	if err != nil {
		return err
	}

	// The release only frees a slot this booking still holds, so deleting an
	// old cancelled record never frees a slot that was booked again.
	c.releaseSlot(ctx, b)

	if err := c.ledger.Delete(ctx, id); err != nil {
		return err
	}
	c.logger.Info("booking deleted", "booking_id", id)
	c.publish(ctx, events.NewEvent(events.TypeDeleted, b, b.Status))
	return nil
}

// BookedTimes lists the day's occupied effective times.
func (c *Coordinator) BookedTimes(ctx context.Context, day time.Time) ([]string, error) {
	return c.ledger.ListBookedTimes(ctx, day)
}

// Wait blocks until background notifications and events finish or ctx ends.
func (c *Coordinator) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.tasks.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// boardSaysTaken consults an existing board only. A missing board or a
// failed read is not an error here.
func (c *Coordinator) boardSaysTaken(ctx context.Context, day time.Time, slotTime string) bool {
	board, err := c.board.Get(ctx, day)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			c.logger.Warn("slot board read failed", "date", model.FormatDay(day), "err", err)
		}
		return false
	}
	i := board.Index(slotTime)
	return i >= 0 && !board.Slots[i].Available
}

