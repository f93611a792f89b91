// Package reviews stores customer feedback and its moderation flag.
package reviews

import (
	"context"

	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/model"
)

type Store interface {
	// List returns newest first; approvedOnly hides unmoderated reviews.
	List(ctx context.Context, approvedOnly bool) ([]model.Review, error)
	Create(ctx context.Context, r model.Review) (model.Review, error)
	SetApproved(ctx context.Context, id string, approved bool) (model.Review, error)
	Delete(ctx context.Context, id string) error
}
