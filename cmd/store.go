package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/CameronXie/prosthesis-orders/internal/api/rest/handlers"
	"github.com/CameronXie/prosthesis-orders/internal/config"
	firestorerepo "github.com/CameronXie/prosthesis-orders/internal/repository/firestore"
	mongorepo "github.com/CameronXie/prosthesis-orders/internal/repository/mongo"
	sqliterepo "github.com/CameronXie/prosthesis-orders/internal/repository/sqlite"
)

// orderStore is an order repository owning a connection that must be released on shutdown.
type orderStore interface {
	handlers.OrderRepository
	Close() error
}

// newStore connects the order repository selected by cfg.Driver.
func newStore(ctx context.Context, cfg config.StoreConfig, collection string, logger *slog.Logger) (orderStore, error) {
	logger.Info("initializing order store", "driver", cfg.Driver, "collection", collection)

	switch cfg.Driver {
	case config.DriverFirestore:
		credentialsJSON, err := cfg.Firestore.Credentials().Fetch()
		if err != nil {
			return nil, fmt.Errorf("failed to load firebase credentials: %w", err)
		}

		client, err := firestorerepo.NewClient(ctx, cfg.Firestore.ProjectID, credentialsJSON)
		if err != nil {
			return nil, err
		}

		return firestorerepo.NewOrderRepository(client, collection), nil
	case config.DriverMongo:
		client, err := mongorepo.Connect(ctx, cfg.Mongo.URI)
		if err != nil {
			return nil, err
		}

		return mongorepo.NewOrderRepository(client, cfg.Mongo.Database, collection), nil
	case config.DriverSQLite:
		db, err := sqliterepo.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}

		return sqliterepo.NewOrderRepository(db, collection), nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
}
