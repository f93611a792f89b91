package catalog

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

const serviceColumns = `id, name, description, price, duration_minutes, category, image, created_at, updated_at`

func (s *PostgresStore) List(ctx context.Context, category model.Category) ([]model.Service, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+serviceColumns+`
		FROM services
		WHERE $1 = '' OR category = $1
		ORDER BY category, name
	`, string(category))
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	out := []model.Service{}
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		out = append(out, svc)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Get(ctx context.Context, id string) (model.Service, error) {
	svc, err := scanService(s.pool.QueryRow(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = $1`, id))
	if err != nil {
		if db.IsNoRows(err) {
			return model.Service{}, model.ErrNotFound
		}
		return model.Service{}, fmt.Errorf("get service: %w", err)
	}
	return svc, nil
}

func (s *PostgresStore) Create(ctx context.Context, svc model.Service) (model.Service, error) {
	created, err := scanService(s.pool.QueryRow(ctx, `
		INSERT INTO services (id, name, description, price, duration_minutes, category, image)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+serviceColumns,
		uuid.NewString(), svc.Name, svc.Description, svc.Price, svc.DurationMinutes, string(svc.Category), svc.Image))
	if err != nil {
		return model.Service{}, fmt.Errorf("insert service: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) Update(ctx context.Context, id string, svc model.Service) (model.Service, error) {
	updated, err := scanService(s.pool.QueryRow(ctx, `
		UPDATE services
		SET name = $2, description = $3, price = $4, duration_minutes = $5, category = $6, image = $7, updated_at = now()
		WHERE id = $1
		RETURNING `+serviceColumns,
		id, svc.Name, svc.Description, svc.Price, svc.DurationMinutes, string(svc.Category), svc.Image))
	if err != nil {
		if db.IsNoRows(err) {
			return model.Service{}, model.ErrNotFound
		}
		return model.Service{}, fmt.Errorf("update service: %w", err)
	}
	return updated, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete service: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func scanService(row pgx.Row) (model.Service, error) {
	var (
		svc      model.Service
		category string
	)
	err := row.Scan(&svc.ID, &svc.Name, &svc.Description, &svc.Price, &svc.DurationMinutes, &category, &svc.Image,
		&svc.CreatedAt, &svc.UpdatedAt)
	svc.Category = model.Category(category)
	return svc, err
}
