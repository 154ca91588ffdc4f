package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/salon-ingest/internal/model"
)

var (
	// ErrNotFound is returned by single-row lookups that match nothing.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when an insert hits a uniqueness constraint.
	ErrConflict = errors.New("record already exists")
)

// All repository interfaces in one file. Every method that reads or writes
// tenant-owned rows takes the tenant id and filters on it in the query.
type (
	BookingRepository interface {
		// FindByEventID returns the most recent booking carrying eventID.
		FindByEventID(ctx context.Context, tenantID uuid.UUID, eventID string) (*model.Booking, error)
		// Create inserts the booking and, when event is non-nil, its outbox
		// event atomically. A duplicate provider event id yields ErrConflict.
		Create(ctx context.Context, booking *model.Booking, event *model.OutboxEvent) error
	}

	ClientRepository interface {
		FindByPhone(ctx context.Context, tenantID uuid.UUID, phone string) (*model.Client, error)
		Create(ctx context.Context, client *model.Client) error
	}

	CatalogRepository interface {
		ListActiveServices(ctx context.Context, tenantID uuid.UUID) ([]*model.Service, error)
		ListActiveEmployees(ctx context.Context, tenantID uuid.UUID) ([]*model.Employee, error)
	}

	PendingRepository interface {
		Create(ctx context.Context, p *model.PendingNotification) error
		// List returns newest first. PendingStatusAll disables the status filter.
		List(ctx context.Context, tenantID uuid.UUID, status model.PendingStatus, limit int) ([]*model.PendingNotification, error)
		UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status model.PendingStatus) (*model.PendingNotification, error)
	}

	SyncStatsRepository interface {
		// Upsert adds delta to the tenant's counters and sets last_sync_at.
		Upsert(ctx context.Context, tenantID uuid.UUID, delta model.SyncDelta, at time.Time) error
		Get(ctx context.Context, tenantID uuid.UUID) (*model.SyncStats, error)
	}

	OutboxRepository interface {
		// ClaimPending moves up to limit due events to processing and returns them.
		// Events left in processing for longer than lease are claimed again.
		ClaimPending(ctx context.Context, limit int, lease time.Duration) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		// MarkFailed records the error. A nil retryAt marks the event failed
		// for good; otherwise it is scheduled for another attempt.
		MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, retryAt *time.Time) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}

	// Pinger is implemented by stores that can report readiness.
	Pinger interface {
		Ping(ctx context.Context) error
	}
)

// Store bundles every repository the service needs.
type Store struct {
	Bookings  BookingRepository
	Clients   ClientRepository
	Catalog   CatalogRepository
	Pending   PendingRepository
	SyncStats SyncStatsRepository
	Outbox    OutboxRepository
	Pinger    Pinger
	Close     func() error
}
