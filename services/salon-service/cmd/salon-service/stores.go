package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/md-rashed-zaman/salonbook/libs/db"
	"github.com/md-rashed-zaman/salonbook/libs/mongox"
	"github.com/md-rashed-zaman/salonbook/libs/runtime"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/catalog"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/ledger"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/migrate"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/reviews"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/slotboard"
)

// stores is the storage backend chosen by STORAGE_DRIVER.
type stores struct {
	Ledger   ledger.Store
	Board    slotboard.Store
	Services catalog.Store
	Reviews  reviews.Store

	ready   runtime.ReadyCheck
	migrate func(context.Context) error
	close   func(context.Context) error
}

func openStores(ctx context.Context, s settings, logger *slog.Logger) (*stores, error) {
	switch s.Driver {
	case driverMongo:
		client, err := mongox.Open(ctx, s.MongoURI, s.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		logger.Info("storage ready", "driver", s.Driver, "database", s.MongoDatabase)
		return &stores{
			Ledger:   ledger.NewMongoStore(client.DB),
			Board:    slotboard.NewMongoStore(client.DB),
			Services: catalog.NewMongoStore(client.DB),
			Reviews:  reviews.NewMongoStore(client.DB),
			ready:    runtime.ReadyCheck{Name: "mongo", Check: mongox.ReadyCheck(client)},
			migrate:  func(ctx context.Context) error { return migrate.Mongo(ctx, client.DB) },
			close:    client.Close,
		}, nil

	case driverPostgres:
		pool, err := db.Open(ctx, s.DatabaseURL, 0)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		logger.Info("storage ready", "driver", s.Driver)
		return &stores{
			Ledger:   ledger.NewPostgresStore(pool),
			Board:    slotboard.NewPostgresStore(pool),
			Services: catalog.NewPostgresStore(pool),
			Reviews:  reviews.NewPostgresStore(pool),
			ready:    runtime.ReadyCheck{Name: "postgres", Check: db.ReadyCheck(pool)},
			migrate:  func(ctx context.Context) error { return migrate.Postgres(ctx, pool) },
			close: func(context.Context) error {
				pool.Close()
				return nil
			},
		}, nil

	default:
		logger.Warn("using in-memory storage; data is lost on restart")
		return &stores{
			Ledger:   ledger.NewMemoryStore(),
			Board:    slotboard.NewMemoryStore(),
			Services: catalog.NewMemoryStore(),
			Reviews:  reviews.NewMemoryStore(),
			migrate:  func(context.Context) error { return nil },
			close:    func(context.Context) error { return nil },
		}, nil
	}
}
