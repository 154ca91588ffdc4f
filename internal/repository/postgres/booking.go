package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/salon-ingest/internal/model"
	"github.com/jwalitptl/salon-ingest/internal/repository"
)

type bookingRepository struct {
	BaseRepository
}

func NewBookingRepository(base BaseRepository) repository.BookingRepository {
	return &bookingRepository{base}
}

const bookingColumns = `id, tenant_id, client_id, employee_id, service_id, date, start_time,
	duration_minutes, price_cents, status, source, notes, provider_event_id, created_at, updated_at`

// FindByEventID checks the dedicated column first; strpos keeps rows that
// only carry the notes marker matchable.
func (r *bookingRepository) FindByEventID(ctx context.Context, tenantID uuid.UUID, eventID string) (*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE tenant_id = $1
		AND (provider_event_id = $2 OR strpos(notes, $3) > 0)
		ORDER BY created_at DESC
		LIMIT 1
	`
	var b model.Booking
	err := r.db.GetContext(ctx, &b, query, tenantID, eventID, model.EventMarker(eventID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find booking by event id: %w", err)
	}
	return &b, nil
}

func (r *bookingRepository) Create(ctx context.Context, b *model.Booking, event *model.OutboxEvent) error {
	now := time.Now().UTC()
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	b.CreatedAt, b.UpdatedAt = now, now

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO bookings (` + bookingColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		`
		if _, err := tx.ExecContext(ctx, query,
			b.ID, b.TenantID, b.ClientID, b.EmployeeID, b.ServiceID,
			b.Date, b.StartTime, b.DurationMinutes, b.PriceCents,
			b.Status, b.Source, b.Notes, b.ProviderEventID,
			b.CreatedAt, b.UpdatedAt,
		); err != nil {
			return err
		}
		if event == nil {
			return nil
		}
		return insertOutboxEvent(ctx, tx, event)
	})
	if isUniqueViolation(err) {
		return repository.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}
