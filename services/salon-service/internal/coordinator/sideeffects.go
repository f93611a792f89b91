package coordinator

import (
	"context"
	"errors"

	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/events"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/model"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/notify"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/slotboard"
)

const (
	stepMarkUnavailable = "slot_board.mark_unavailable"
	stepMarkAvailable   = "slot_board.mark_available"
	stepPublish         = "events.publish"
)

func (c *Coordinator) claimSlot(ctx context.Context, b model.Booking) {
	c.slotWrite(ctx, stepMarkUnavailable, b, func(ctx context.Context) error {
		return c.board.MarkUnavailable(ctx, b.Date, b.EffectiveTime(), b.ID)
	})
}

func (c *Coordinator) releaseSlot(ctx context.Context, b model.Booking) {
	c.slotWrite(ctx, stepMarkAvailable, b, func(ctx context.Context) error {
		return c.board.MarkAvailable(ctx, b.Date, b.EffectiveTime(), b.ID)
	})
}

// slotWrite runs inline so the response reflects the board, but it is
// detached from the caller's cancellation and bounded by the side-effect timeout.
func (c *Coordinator) slotWrite(ctx context.Context, step string, b model.Booking, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	err := fn(ctx)
	switch {
	case err == nil:
	case errors.Is(err, slotboard.ErrNoSlot):
		c.logger.Info("slot board has no matching slot", "step", step, "booking_id", b.ID,
			"date", model.FormatDay(b.Date), "time", b.EffectiveTime())
	case errors.Is(err, slotboard.ErrHeldByOther):
		c.logger.Info("slot now held by another booking; left as is", "step", step, "booking_id", b.ID,
			"date", model.FormatDay(b.Date), "time", b.EffectiveTime())
	default:
		c.metrics.BestEffortFailure(step)
		c.logger.Warn("best-effort step failed", "step", step, "booking_id", b.ID, "err", err)
	}
}

func (c *Coordinator) notify(ctx context.Context, b model.Booking, kind notify.Kind) {
	step := "notify." + string(kind)
	details := notify.Details{
		Name:    b.Name,
		Service: b.Service,
		Date:    model.FormatDay(b.Date),
		Time:    b.EffectiveTime(),
		Email:   b.Email,
	}
	c.background(ctx, func(ctx context.Context) {
		err := c.notifier.Send(ctx, b.Phone, kind, details)
		c.metrics.Notification(string(kind), err)
		if err != nil {
			c.metrics.BestEffortFailure(step)
			c.logger.Warn("best-effort step failed", "step", step, "booking_id", b.ID, "err", err)
		}
	})
}

func (c *Coordinator) publish(ctx context.Context, e events.Event) {
	c.background(ctx, func(ctx context.Context) {
		if err := c.events.Publish(ctx, e); err != nil {
			c.metrics.BestEffortFailure(stepPublish)
			c.logger.Warn("best-effort step failed", "step", stepPublish, "event_type", e.Type,
				"booking_id", e.Booking.ID, "err", err)
		}
	})
}

// background runs fn after the response with a bounded, detached context.
// Wait drains these at shutdown.
func (c *Coordinator) background(ctx context.Context, fn func(context.Context)) {
	ctx = context.WithoutCancel(ctx)
	c.tasks.Add(1)
	go func() {
		defer c.tasks.Done()
		ctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		fn(ctx)
	}()
}
