package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/jwalitptl/salon-ingest/internal/config"
	"github.com/jwalitptl/salon-ingest/internal/repository"
)

func NewDB(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// NewStore wires every postgres repository onto one connection pool.
func NewStore(ctx context.Context, cfg config.DatabaseConfig) (*repository.Store, error) {
	db, err := NewDB(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
	}

	base := NewBaseRepository(db)
	return &repository.Store{
		Bookings:  NewBookingRepository(base),
		Clients:   NewClientRepository(base),
		Catalog:   NewCatalogRepository(base),
		Pending:   NewPendingRepository(base),
		SyncStats: NewSyncStatsRepository(base),
		Outbox:    NewOutboxRepository(base),
		Pinger:    &base,
		Close:     db.Close,
	}, nil
}
