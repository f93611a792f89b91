// Package migrate prepares the selected storage backend: the Postgres
// schema or the Mongo indexes.
package migrate

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/md-rashed-zaman/salonbook/libs/db"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/catalog"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/ledger"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/reviews"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/slotboard"
	"go.mongodb.org/mongo-driver/mongo"
)

//go:embed schema.sql
var schema string

// Schema returns the Postgres DDL. Every statement is idempotent.
func Schema() string {
	return schema
}

func Postgres(ctx context.Context, pool *db.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply postgres schema: %w", err)
	}
	return nil
}

type indexer interface {
	EnsureIndexes(ctx context.Context) error
}

func Mongo(ctx context.Context, database *mongo.Database) error {
	steps := []struct {
		name string
		idx  indexer
	}{
		{"bookings", ledger.NewMongoStore(database)},
		{"slot boards", slotboard.NewMongoStore(database)},
		{"services", catalog.NewMongoStore(database)},
		{"reviews", reviews.NewMongoStore(database)},
	}
	for _, s := range steps {
		if err := s.idx.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("ensure %s indexes: %w", s.name, err)
		}
	}
	return nil
}
