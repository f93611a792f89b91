// Package catalog stores the salon's service menu.
package catalog

import (
	"context"

	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/model"
)

type Store interface {
	// List returns services ordered by category then name; an empty category means all.
	List(ctx context.Context, category model.Category) ([]model.Service, error)
	Get(ctx context.Context, id string) (model.Service, error)
	Create(ctx context.Context, s model.Service) (model.Service, error)
	Update(ctx context.Context, id string, s model.Service) (model.Service, error)
	Delete(ctx context.Context, id string) error
}
