package postgres

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/salon-ingest/internal/config"
	"github.com/jwalitptl/salon-ingest/internal/model"
	"github.com/jwalitptl/salon-ingest/internal/repository"
)

func integrationStore(t *testing.T) (*repository.Store, BaseRepository) {
	t.Helper()
	dsn := strings.TrimSpace(os.Getenv("INGEST_TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("set INGEST_TEST_POSTGRES_DSN to run Postgres integration tests")
	}
	store, err := NewStore(context.Background(), config.DatabaseConfig{DSN: dsn, AutoMigrate: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	db, err := NewDB(config.DatabaseConfig{DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return store, NewBaseRepository(db)
}

type roster struct {
	tenant   uuid.UUID
	service  uuid.UUID
	employee uuid.UUID
	client   *model.Client
}

func seedRoster(t *testing.T, ctx context.Context, store *repository.Store, base BaseRepository) roster {
	t.Helper()
	r := roster{tenant: uuid.New(), service: uuid.New(), employee: uuid.New()}
	_, err := base.GetDB().ExecContext(ctx,
		`INSERT INTO services (id, tenant_id, name, active) VALUES ($1, $2, 'Strzyżenie', TRUE)`, r.service, r.tenant)
	require.NoError(t, err)
	_, err = base.GetDB().ExecContext(ctx,
		`INSERT INTO employees (id, tenant_id, first_name, last_name, active) VALUES ($1, $2, 'Anna', 'Nowak', TRUE)`, r.employee, r.tenant)
	require.NoError(t, err)

	r.client = &model.Client{Base: model.Base{TenantID: r.tenant}, Name: "Jan", Phone: "+48600700800"}
	require.NoError(t, store.Clients.Create(ctx, r.client))
	return r
}

func TestPostgresIntegrationBookingIdempotency(t *testing.T) {
	store, base := integrationStore(t)
	ctx := context.Background()
	r := seedRoster(t, ctx, store, base)

	eventID := "evt-" + uuid.NewString()
	newBooking := func() *model.Booking {
		return &model.Booking{
			Base:            model.Base{TenantID: r.tenant},
			ClientID:        r.client.ID,
			EmployeeID:      r.employee,
			ServiceID:       r.service,
			Date:            time.Date(2024, 10, 27, 0, 0, 0, 0, time.UTC),
			StartTime:       "16:00",
			DurationMinutes: 60,
			PriceCents:      25000,
			Status:          model.BookingStatusScheduled,
			Source:          model.BookingSourceExternalProvider,
			Notes:           model.EventMarker(eventID),
			ProviderEventID: &eventID,
		}
	}

	_, err := store.Bookings.FindByEventID(ctx, r.tenant, eventID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	payload, _ := json.Marshal(map[string]string{"eventId": eventID})
	first := newBooking()
	require.NoError(t, store.Bookings.Create(ctx, first, &model.OutboxEvent{
		TenantID:  r.tenant,
		EventType: model.EventTypeBookingIngested,
		Payload:   payload,
	}))

	found, err := store.Bookings.FindByEventID(ctx, r.tenant, eventID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)
	assert.Equal(t, "2024-10-27", found.Date.Format(model.DateLayout))

	err = store.Bookings.Create(ctx, newBooking(), nil)
	assert.ErrorIs(t, err, repository.ErrConflict)

	// same event id in another tenant is invisible
	_, err = store.Bookings.FindByEventID(ctx, uuid.New(), eventID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPostgresIntegrationPendingAndStats(t *testing.T) {
	store, _ := integrationStore(t)
	ctx := context.Background()
	tenant := uuid.New()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Pending.Create(ctx, &model.PendingNotification{
			TenantID: tenant, Subject: "s", Body: "b", Reason: "MALFORMED_NOTIFICATION",
		}))
	}
	items, err := store.Pending.List(ctx, tenant, model.PendingStatusPending, model.PendingListLimit)
	require.NoError(t, err)
	require.Len(t, items, 3)

	updated, err := store.Pending.UpdateStatus(ctx, tenant, items[0].ID, model.PendingStatusIgnored)
	require.NoError(t, err)
	assert.Equal(t, model.PendingStatusIgnored, updated.Status)

	_, err = store.Pending.UpdateStatus(ctx, uuid.New(), items[1].ID, model.PendingStatusIgnored)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	all, err := store.Pending.List(ctx, tenant, model.PendingStatusAll, model.PendingListLimit)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.SyncStats.Upsert(ctx, tenant, model.SyncDelta{Total: 3, Success: 2, Errors: 1}, now))
	require.NoError(t, store.SyncStats.Upsert(ctx, tenant, model.SyncDelta{Total: 1, Success: 1}, now))
	stats, err := store.SyncStats.Get(ctx, tenant)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.Total)
	assert.Equal(t, int64(3), stats.Success)
	assert.Equal(t, int64(1), stats.Errors)
}
