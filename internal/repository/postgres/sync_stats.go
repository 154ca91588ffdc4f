package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/salon-ingest/internal/model"
	"github.com/jwalitptl/salon-ingest/internal/repository"
)

type syncStatsRepository struct {
	BaseRepository
}

func NewSyncStatsRepository(base BaseRepository) repository.SyncStatsRepository {
	return &syncStatsRepository{base}
}

// Upsert is a single statement so concurrent batches for one tenant add up.
func (r *syncStatsRepository) Upsert(ctx context.Context, tenantID uuid.UUID, delta model.SyncDelta, at time.Time) error {
	query := `
		INSERT INTO sync_stats (tenant_id, total, success, errors, last_sync_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tenant_id) DO UPDATE SET
			total = sync_stats.total + EXCLUDED.total,
			success = sync_stats.success + EXCLUDED.success,
			errors = sync_stats.errors + EXCLUDED.errors,
			last_sync_at = EXCLUDED.last_sync_at
	`
	if _, err := r.db.ExecContext(ctx, query, tenantID, delta.Total, delta.Success, delta.Errors, at); err != nil {
		return fmt.Errorf("failed to upsert sync stats: %w", err)
	}
	return nil
}

func (r *syncStatsRepository) Get(ctx context.Context, tenantID uuid.UUID) (*model.SyncStats, error) {
	query := `
		SELECT tenant_id, total, success, errors, last_sync_at
		FROM sync_stats
		WHERE tenant_id = $1
	`
	var s model.SyncStats
	err := r.db.GetContext(ctx, &s, query, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync stats: %w", err)
	}
	return &s, nil
}
