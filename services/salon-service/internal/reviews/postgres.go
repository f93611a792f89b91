package reviews

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/salonbook/libs/db"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/model"
)

type PostgresStore struct {
	pool *db.Pool
}

func NewPostgresStore(pool *db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const reviewColumns = `id, name, rating, comment, service, approved, created_at, updated_at`

func (s *PostgresStore) List(ctx context.Context, approvedOnly bool) ([]model.Review, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+reviewColumns+`
		FROM reviews
		WHERE NOT $1 OR approved
		ORDER BY created_at DESC
	`, approvedOnly)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Review, error) {
		return scanReview(row)
	})
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	if out == nil {
		out = []model.Review{}
	}
	return out, nil
}

func (s *PostgresStore) Create(ctx context.Context, r model.Review) (model.Review, error) {
	created, err := scanReview(s.pool.QueryRow(ctx, `
		INSERT INTO reviews (id, name, rating, comment, service, approved)
		VALUES ($1, $2, $3, $4, $5, false)
		RETURNING `+reviewColumns,
		uuid.NewString(), r.Name, r.Rating, r.Comment, r.Service))
	if err != nil {
		return model.Review{}, fmt.Errorf("insert review: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) SetApproved(ctx context.Context, id string, approved bool) (model.Review, error) {
	r, err := scanReview(s.pool.QueryRow(ctx, `
		UPDATE reviews SET approved = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+reviewColumns,
		id, approved))
	if err != nil {
		if db.IsNoRows(err) {
			return model.Review{}, model.ErrNotFound
		}
		return model.Review{}, fmt.Errorf("approve review: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func scanReview(row pgx.Row) (model.Review, error) {
	var r model.Review
	err := row.Scan(&r.ID, &r.Name, &r.Rating, &r.Comment, &r.Service, &r.Approved, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}
