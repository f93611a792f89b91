package coordinator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/model"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/slotboard"
)

// SlotBoard returns the day's board, materializing it on first access. A
// freshly materialized board is overlaid with the ledger's bookings.
func (c *Coordinator) SlotBoard(ctx context.Context, day time.Time) (model.SlotBoard, error) {
	board, created, err := c.board.GetOrCreate(ctx, day, c.gen)
	if err != nil {
		return model.SlotBoard{}, fmt.Errorf("slot board %s: %w", model.FormatDay(day), err)
	}
	if !created {
		return board, nil
	}

	booked, err := c.bookedByTime(ctx, day)
	if err != nil {
		c.logger.Warn("slot board overlay skipped", "date", model.FormatDay(day), "err", err)
		return board, nil
	}
	if len(booked) == 0 {
		return board, nil
	}
	rebuilt := slotboard.Rebuild(board, booked)
	if err := c.board.Replace(ctx, rebuilt); err != nil {
		c.metrics.BestEffortFailure("slot_board.overlay")
		c.logger.Warn("slot board overlay not saved", "date", model.FormatDay(day), "err", err)
	}
	return rebuilt, nil
}

// BlockSlot takes a free slot out of service without a booking.
func (c *Coordinator) BlockSlot(ctx context.Context, day time.Time, slotTime string) (model.SlotBoard, error) {
	board, err := c.SlotBoard(ctx, day)
	if err != nil {
		return model.SlotBoard{}, err
	}
	i := board.Index(slotTime)
	if i < 0 {
		return model.SlotBoard{}, fmt.Errorf("slot %s on %s: %w", slotTime, model.FormatDay(day), model.ErrNotFound)
	}
	if board.Slots[i].BookingID != "" {
		return model.SlotBoard{}, model.ErrConflict
	}
	if _, taken, err := c.ledger.FindConflict(ctx, day, slotTime); err != nil {
		return model.SlotBoard{}, fmt.Errorf("check slot: %w", err)
	} else if taken {
		return model.SlotBoard{}, model.ErrConflict
	}

	if err := c.board.BlockManually(ctx, day, slotTime); err != nil {
		return model.SlotBoard{}, c.slotErr(day, slotTime, err)
	}
	c.logger.Info("slot blocked", "date", model.FormatDay(day), "time", slotTime)
	return c.board.Get(ctx, day)
}

// UnblockSlot releases a manual block. Slots held by a booking stay taken.
func (c *Coordinator) UnblockSlot(ctx context.Context, day time.Time, slotTime string) (model.SlotBoard, error) {
	board, err := c.board.Get(ctx, day)
	if err != nil {
		return model.SlotBoard{}, err
	}
	i := board.Index(slotTime)
	if i < 0 {
		return model.SlotBoard{}, fmt.Errorf("slot %s on %s: %w", slotTime, model.FormatDay(day), model.ErrNotFound)
	}
	if board.Slots[i].Available {
		return board, nil
	}
	if !board.Slots[i].Blocked() {
		return model.SlotBoard{}, model.ErrConflict
	}
	if _, taken, err := c.ledger.FindConflict(ctx, day, slotTime); err != nil {
		return model.SlotBoard{}, fmt.Errorf("check slot: %w", err)
	} else if taken {
		return model.SlotBoard{}, model.ErrConflict
	}

	if err := c.board.MarkAvailable(ctx, day, slotTime, ""); err != nil {
		return model.SlotBoard{}, c.slotErr(day, slotTime, err)
	}
	c.logger.Info("slot unblocked", "date", model.FormatDay(day), "time", slotTime)
	return c.board.Get(ctx, day)
}

// Repair recomputes the day's board from the ledger.
func (c *Coordinator) Repair(ctx context.Context, day time.Time) (model.SlotBoard, error) {
	board, _, err := c.board.GetOrCreate(ctx, day, c.gen)
	if err != nil {
		return model.SlotBoard{}, fmt.Errorf("slot board %s: %w", model.FormatDay(day), err)
	}
	booked, err := c.bookedByTime(ctx, day)
	if err != nil {
		return model.SlotBoard{}, err
	}
	rebuilt := slotboard.Rebuild(board, booked)
	if err := c.board.Replace(ctx, rebuilt); err != nil {
		return model.SlotBoard{}, fmt.Errorf("save slot board %s: %w", model.FormatDay(day), err)
	}
	return rebuilt, nil
}

// RepairRange repairs days consecutive days starting at from. It keeps going
// past failures and returns how many days were repaired.
func (c *Coordinator) RepairRange(ctx context.Context, from time.Time, days int) (int, error) {
	var (
		repaired int
		errs     []error
	)
	for i := 0; i < days; i++ {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		day := from.AddDate(0, 0, i)
		if _, err := c.Repair(ctx, day); err != nil {
			errs = append(errs, err)
			continue
		}
		repaired++
	}
	return repaired, errors.Join(errs...)
}

func (c *Coordinator) bookedByTime(ctx context.Context, day time.Time) (map[string]string, error) {
	active, err := c.ledger.ListActive(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("list bookings %s: %w", model.FormatDay(day), err)
	}
	booked := make(map[string]string, len(active))
	for _, b := range active {
		booked[b.EffectiveTime()] = b.ID
	}
	return booked, nil
}

func (c *Coordinator) slotErr(day time.Time, slotTime string, err error) error {
	if errors.Is(err, slotboard.ErrNoSlot) {
		return fmt.Errorf("slot %s on %s: %w", slotTime, model.FormatDay(day), model.ErrNotFound)
	}
	return err
}
