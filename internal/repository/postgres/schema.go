package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schema is applied in order by Migrate. Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS clients (
		id UUID PRIMARY KEY,
		tenant_id UUID NOT NULL,
		name TEXT NOT NULL,
		phone TEXT NOT NULL,
		email TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS clients_tenant_phone_idx ON clients (tenant_id, phone)`,

	`CREATE TABLE IF NOT EXISTS services (
		id UUID PRIMARY KEY,
		tenant_id UUID NOT NULL,
		name TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE INDEX IF NOT EXISTS services_tenant_idx ON services (tenant_id) WHERE active`,

	`CREATE TABLE IF NOT EXISTS employees (
		id UUID PRIMARY KEY,
		tenant_id UUID NOT NULL,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL DEFAULT '',
		active BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE INDEX IF NOT EXISTS employees_tenant_idx ON employees (tenant_id) WHERE active`,

	`CREATE TABLE IF NOT EXISTS bookings (
		id UUID PRIMARY KEY,
		tenant_id UUID NOT NULL,
		client_id UUID NOT NULL REFERENCES clients (id),
		employee_id UUID NOT NULL REFERENCES employees (id),
		service_id UUID NOT NULL REFERENCES services (id),
		date DATE NOT NULL,
		start_time TEXT NOT NULL,
		duration_minutes INTEGER NOT NULL CHECK (duration_minutes > 0),
		price_cents BIGINT NOT NULL,
		status TEXT NOT NULL,
		source TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		provider_event_id TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS bookings_tenant_event_uidx
		ON bookings (tenant_id, provider_event_id)
		WHERE provider_event_id IS NOT NULL`,

	`CREATE TABLE IF NOT EXISTS pending_notifications (
		id UUID PRIMARY KEY,
		tenant_id UUID NOT NULL,
		subject TEXT NOT NULL,
		body TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		reason TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS pending_tenant_created_idx
		ON pending_notifications (tenant_id, created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS sync_stats (
		tenant_id UUID PRIMARY KEY,
		total BIGINT NOT NULL DEFAULT 0,
		success BIGINT NOT NULL DEFAULT 0,
		errors BIGINT NOT NULL DEFAULT 0,
		last_sync_at TIMESTAMPTZ
	)`,

	`CREATE TABLE IF NOT EXISTS outbox_events (
		id UUID PRIMARY KEY,
		tenant_id UUID NOT NULL,
		event_type TEXT NOT NULL,
		payload JSONB NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		error_message TEXT,
		retry_count INTEGER NOT NULL DEFAULT 0,
		retry_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		processed_at TIMESTAMPTZ,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS outbox_events_due_idx
		ON outbox_events (status, created_at)
		WHERE status IN ('pending', 'retry')`,
}

// Migrate creates the tables and indexes this service reads and writes.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
