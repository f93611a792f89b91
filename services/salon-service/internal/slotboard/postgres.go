package slotboard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/salonbook/libs/db"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/model"
)

// PostgresStore keeps one row per day with the slots in a jsonb column.
type PostgresStore struct {
	pool *db.Pool
}

func NewPostgresStore(pool *db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Get(ctx context.Context, day time.Time) (model.SlotBoard, error) {
	board, err := scanBoard(s.pool.QueryRow(ctx, `
		SELECT board_date, slots, created_at, updated_at
		FROM slot_boards
		WHERE board_date = $1
	`, day))
	if err != nil {
		if db.IsNoRows(err) {
			return model.SlotBoard{}, model.ErrNotFound
		}
		return model.SlotBoard{}, fmt.Errorf("get slot board: %w", err)
	}
	return board, nil
}

func (s *PostgresStore) GetOrCreate(ctx context.Context, day time.Time, gen Generator) (model.SlotBoard, bool, error) {
	raw, err := json.Marshal(gen(day))
	if err != nil {
		return model.SlotBoard{}, false, err
	}
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO slot_boards (board_date, slots)
		VALUES ($1, $2)
		ON CONFLICT (board_date) DO NOTHING
	`, day, raw)
	if err != nil {
		return model.SlotBoard{}, false, fmt.Errorf("materialize slot board: %w", err)
	}

	board, err := s.Get(ctx, day)
	if err != nil {
		return model.SlotBoard{}, false, err
	}
	return board, tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) MarkUnavailable(ctx context.Context, day time.Time, slotTime, bookingID string) error {
	return s.updateSlot(ctx, day, slotTime, markUnavailable(bookingID))
}

func (s *PostgresStore) MarkAvailable(ctx context.Context, day time.Time, slotTime, bookingID string) error {
	return s.updateSlot(ctx, day, slotTime, markAvailable(bookingID))
}

func (s *PostgresStore) BlockManually(ctx context.Context, day time.Time, slotTime string) error {
	return s.updateSlot(ctx, day, slotTime, block)
}

func (s *PostgresStore) Replace(ctx context.Context, board model.SlotBoard) error {
	raw, err := json.Marshal(board.Slots)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO slot_boards (board_date, slots)
		VALUES ($1, $2)
		ON CONFLICT (board_date) DO UPDATE
		SET slots = EXCLUDED.slots,
			updated_at = now()
	`, board.Date, raw)
	if err != nil {
		return fmt.Errorf("replace slot board %s: %w", model.FormatDay(board.Date), err)
	}
	return nil
}

// updateSlot locks the day's row so concurrent slot edits do not overwrite each other's jsonb.
func (s *PostgresStore) updateSlot(ctx context.Context, day time.Time, slotTime string, fn func(*model.Slot) error) error {
	return s.pool.InTx(ctx, func(tx pgx.Tx) error {
		var raw []byte
		err := tx.QueryRow(ctx, `
			SELECT slots FROM slot_boards WHERE board_date = $1 FOR UPDATE
		`, day).Scan(&raw)
		if err != nil {
			if db.IsNoRows(err) {
				return ErrNoSlot
			}
			return err
		}
		var slots []model.Slot
		if err := json.Unmarshal(raw, &slots); err != nil {
			return fmt.Errorf("decode slots: %w", err)
		}
		if err := apply(slots, slotTime, fn); err != nil {
			return err
		}
		raw, err = json.Marshal(slots)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			UPDATE slot_boards SET slots = $2, updated_at = now() WHERE board_date = $1
		`, day, raw)
		return err
	})
}

func scanBoard(row pgx.Row) (model.SlotBoard, error) {
	var (
		b   model.SlotBoard
		raw []byte
	)
	if err := row.Scan(&b.Date, &raw, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return model.SlotBoard{}, err
	}
	if err := json.Unmarshal(raw, &b.Slots); err != nil {
		return model.SlotBoard{}, fmt.Errorf("decode slots: %w", err)
	}
	b.Date = b.Date.UTC()
	return b, nil
}
