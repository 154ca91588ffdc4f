package model

import (
	"time"

	"github.com/google/uuid"
)

// SyncStats is the per-tenant ingestion aggregate.
type SyncStats struct {
	TenantID   uuid.UUID  `db:"tenant_id" json:"-"`
	Total      int64      `db:"total" json:"total"`
	Success    int64      `db:"success" json:"success"`
	Errors     int64      `db:"errors" json:"errors"`
	LastSyncAt *time.Time `db:"last_sync_at" json:"-"`
}

// SyncDelta is what one batch adds to SyncStats.
type SyncDelta struct {
	Total   int64
	Success int64
	Errors  int64
}
