package ledger

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/salonbook/libs/db"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/model"
)

// PostgresStore relies on the partial unique index
// bookings_active_slot_uniq (booking_date, effective_time) WHERE status <> 'cancelled'.
type PostgresStore struct {
	pool *db.Pool
}

func NewPostgresStore(pool *db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const bookingColumns = `id, name, phone, email, service, service_id, booking_date, time, time_slot,
	status, notes, user_id, created_at, updated_at`

func (s *PostgresStore) FindConflict(ctx context.Context, day time.Time, effectiveTime string) (model.Booking, bool, error) {
	b, err := scanBooking(s.pool.QueryRow(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE booking_date = $1 AND effective_time = $2 AND status <> 'cancelled'
		LIMIT 1
	`, day, effectiveTime))
	if err != nil {
		if db.IsNoRows(err) {
			return model.Booking{}, false, nil
		}
		return model.Booking{}, false, fmt.Errorf("find conflict: %w", err)
	}
	return b, true, nil
}

func (s *PostgresStore) Insert(ctx context.Context, b model.Booking) (model.Booking, error) {
	b = prepareInsert(b, uuid.NewString(), time.Now().UTC())
	_, err := s.pool.Exec(ctx, `
		INSERT INTO bookings
			(id, name, phone, email, service, service_id, booking_date, time, time_slot, status, notes, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, b.ID, b.Name, b.Phone, b.Email, b.Service, b.ServiceID, b.Date, b.Time, b.TimeSlot,
		string(b.Status), b.Notes, b.UserID, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return model.Booking{}, model.ErrConflict
		}
		return model.Booking{}, fmt.Errorf("insert booking: %w", err)
	}
	return b, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (model.Booking, error) {
	b, err := scanBooking(s.pool.QueryRow(ctx, `
		SELECT `+bookingColumns+` FROM bookings WHERE id = $1
	`, id))
	if err != nil {
		if db.IsNoRows(err) {
			return model.Booking{}, model.ErrNotFound
		}
		return model.Booking{}, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id string, status model.Status, notes *string) (model.Booking, model.Status, error) {
	var (
		updated model.Booking
		prev    model.Status
	)
	err := s.pool.InTx(ctx, func(tx pgx.Tx) error {
		current, err := scanBooking(tx.QueryRow(ctx, `
			SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE
		`, id))
		if err != nil {
			return err
		}
		prev = current.Status
		current.Normalize()

		updated, err = scanBooking(tx.QueryRow(ctx, `
			UPDATE bookings
			SET status = $2,
				notes = COALESCE($3, notes),
				time = $4,
				time_slot = $5,
				updated_at = now()
			WHERE id = $1
			RETURNING `+bookingColumns,
			id, string(status), notes, current.Time, current.TimeSlot))
		return err
	})
	switch {
	case err == nil:
		return updated, prev, nil
	case db.IsNoRows(err):
		return model.Booking{}, "", model.ErrNotFound
	case db.IsUniqueViolation(err):
		return model.Booking{}, "", model.ErrConflict
	default:
		return model.Booking{}, "", fmt.Errorf("update booking status: %w", err)
	}
}

func (s *PostgresStore) Cancel(ctx context.Context, id string, today time.Time) (model.Booking, error) {
	b, err := scanBooking(s.pool.QueryRow(ctx, `
		UPDATE bookings
		SET status = 'cancelled', updated_at = now()
		WHERE id = $1 AND status <> 'cancelled' AND booking_date >= $2
		RETURNING `+bookingColumns,
		id, today))
	if err == nil {
		return b, nil
	}
	if !db.IsNoRows(err) {
		return model.Booking{}, fmt.Errorf("cancel booking: %w", err)
	}
	current, getErr := s.Get(ctx, id)
	return model.Booking{}, cancelFailure(id, current, getErr, today)
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListBookedTimes(ctx context.Context, day time.Time) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT effective_time
		FROM bookings
		WHERE booking_date = $1 AND status <> 'cancelled'
		ORDER BY effective_time
	`, day)
	if err != nil {
		return nil, fmt.Errorf("list booked times: %w", err)
	}
	times, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list booked times: %w", err)
	}
	if times == nil {
		times = []string{}
	}
	return times, nil
}

func (s *PostgresStore) ListActive(ctx context.Context, day time.Time) ([]model.Booking, error) {
	return s.query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE booking_date = $1 AND status <> 'cancelled'
		ORDER BY effective_time
	`, day)
}

func (s *PostgresStore) List(ctx context.Context, f Filter) (Page, error) {
	f = f.Normalize()

	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if !f.Day.IsZero() {
		where = append(where, "booking_date = "+arg(f.Day))
	}
	if f.Status != "" {
		where = append(where, "status = "+arg(string(f.Status)))
	}
	if f.Search != "" {
		p := arg("%" + escapeLike(f.Search) + "%")
		where = append(where, "(name ILIKE "+p+" OR phone ILIKE "+p+" OR email ILIKE "+p+" OR service ILIKE "+p+")")
	}
	clause := ""
	if len(where) > 0 {
		clause = "WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM bookings `+clause, args...).Scan(&total); err != nil {
		return Page{}, fmt.Errorf("count bookings: %w", err)
	}

	limit, offset := arg(f.Limit), arg(f.Offset())
	bookings, err := s.query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings `+clause+`
		ORDER BY created_at DESC, id DESC
		LIMIT `+limit+` OFFSET `+offset, args...)
	if err != nil {
		return Page{}, err
	}
	return Page{Bookings: bookings, Total: total}, nil
}

func (s *PostgresStore) query(ctx context.Context, sql string, args ...any) ([]model.Booking, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query bookings: %w", err)
	}
	defer rows.Close()

	var out []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanBooking(row pgx.Row) (model.Booking, error) {
	var (
		b      model.Booking
		status string
	)
	err := row.Scan(&b.ID, &b.Name, &b.Phone, &b.Email, &b.Service, &b.ServiceID, &b.Date, &b.Time, &b.TimeSlot,
		&status, &b.Notes, &b.UserID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return model.Booking{}, err
	}
	b.Status = model.Status(status)
	b.Date = b.Date.UTC()
	return b, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
