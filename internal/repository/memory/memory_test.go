package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/salon-ingest/internal/model"
	"github.com/jwalitptl/salon-ingest/internal/repository"
)

func TestBookingsAreTenantScoped(t *testing.T) {
	store, _ := NewStore()
	ctx := context.Background()
	tenantA, tenantB := uuid.New(), uuid.New()
	eventID := "evt-1"

	a := &model.Booking{Base: model.Base{TenantID: tenantA}, ProviderEventID: &eventID, Notes: model.EventMarker(eventID)}
	require.NoError(t, store.Bookings.Create(ctx, a, nil))

	_, err := store.Bookings.FindByEventID(ctx, tenantB, eventID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// the same event id is free in another tenant
	b := &model.Booking{Base: model.Base{TenantID: tenantB}, ProviderEventID: &eventID}
	require.NoError(t, store.Bookings.Create(ctx, b, nil))

	found, err := store.Bookings.FindByEventID(ctx, tenantA, eventID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, found.ID)
}

func TestBookingCreateConflict(t *testing.T) {
	store, db := NewStore()
	ctx := context.Background()
	tenant := uuid.New()
	eventID := "evt-dup"

	require.NoError(t, store.Bookings.Create(ctx, &model.Booking{Base: model.Base{TenantID: tenant}, ProviderEventID: &eventID},
		&model.OutboxEvent{TenantID: tenant, EventType: model.EventTypeBookingIngested, Payload: []byte(`{}`)}))
	err := store.Bookings.Create(ctx, &model.Booking{Base: model.Base{TenantID: tenant}, ProviderEventID: &eventID},
		&model.OutboxEvent{TenantID: tenant, EventType: model.EventTypeBookingIngested, Payload: []byte(`{}`)})

	assert.ErrorIs(t, err, repository.ErrConflict)
	assert.Len(t, db.Bookings(tenant), 1)
	assert.Len(t, db.OutboxEvents(), 1, "conflicting insert must not leave an outbox event")
}

func TestFindByEventIDMatchesNotesMarker(t *testing.T) {
	store, _ := NewStore()
	ctx := context.Background()
	tenant := uuid.New()

	legacy := &model.Booking{Base: model.Base{TenantID: tenant}, Notes: "imported " + model.EventMarker("old-1")}
	require.NoError(t, store.Bookings.Create(ctx, legacy, nil))

	found, err := store.Bookings.FindByEventID(ctx, tenant, "old-1")
	require.NoError(t, err)
	assert.Equal(t, legacy.ID, found.ID)

	_, err = store.Bookings.FindByEventID(ctx, tenant, "old")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPendingListOrderFilterAndLimit(t *testing.T) {
	store, db := NewStore()
	ctx := context.Background()
	tenant, other := uuid.New(), uuid.New()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	db.SetClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	})

	var ids []uuid.UUID
	for i := 0; i < 60; i++ {
		p := &model.PendingNotification{TenantID: tenant, Subject: "s", Body: "b", Reason: "r"}
		require.NoError(t, store.Pending.Create(ctx, p))
		ids = append(ids, p.ID)
	}
	require.NoError(t, store.Pending.Create(ctx, &model.PendingNotification{TenantID: other, Reason: "r"}))

	items, err := store.Pending.List(ctx, tenant, model.PendingStatusPending, model.PendingListLimit)
	require.NoError(t, err)
	require.Len(t, items, model.PendingListLimit)
	assert.Equal(t, ids[59], items[0].ID)
	for i := 1; i < len(items); i++ {
		assert.True(t, items[i-1].CreatedAt.After(items[i].CreatedAt))
	}

	_, err = store.Pending.UpdateStatus(ctx, tenant, ids[0], model.PendingStatusResolved)
	require.NoError(t, err)

	resolved, err := store.Pending.List(ctx, tenant, model.PendingStatusResolved, model.PendingListLimit)
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Equal(t, ids[0], resolved[0].ID)

	_, err = store.Pending.UpdateStatus(ctx, other, ids[1], model.PendingStatusIgnored)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSyncStatsUpsertAccumulates(t *testing.T) {
	store, _ := NewStore()
	ctx := context.Background()
	tenant := uuid.New()

	_, err := store.SyncStats.Get(ctx, tenant)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	t1 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	require.NoError(t, store.SyncStats.Upsert(ctx, tenant, model.SyncDelta{Total: 3, Success: 2, Errors: 1}, t1))
	require.NoError(t, store.SyncStats.Upsert(ctx, tenant, model.SyncDelta{Total: 2, Success: 2}, t2))

	s, err := store.SyncStats.Get(ctx, tenant)
	require.NoError(t, err)
	assert.Equal(t, int64(5), s.Total)
	assert.Equal(t, int64(4), s.Success)
	assert.Equal(t, int64(1), s.Errors)
	assert.Equal(t, t2, *s.LastSyncAt)
}

func TestOutboxLifecycle(t *testing.T) {
	store, db := NewStore()
	ctx := context.Background()
	tenant := uuid.New()
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	db.SetClock(func() time.Time { return now })

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Bookings.Create(ctx, &model.Booking{Base: model.Base{TenantID: tenant}},
			&model.OutboxEvent{TenantID: tenant, EventType: model.EventTypeBookingIngested, Payload: []byte(`{}`)}))
	}

	claimed, err := store.Outbox.ClaimPending(ctx, 2, time.Hour)
	require.NoError(t, err)
	require.Len(t, claimed, 2)

	again, err := store.Outbox.ClaimPending(ctx, 10, time.Hour)
	require.NoError(t, err)
	require.Len(t, again, 1, "claimed events are not handed out twice")

	require.NoError(t, store.Outbox.MarkProcessed(ctx, claimed[0].ID))
	retryAt := now.Add(time.Minute)
	require.NoError(t, store.Outbox.MarkFailed(ctx, claimed[1].ID, "redis down", &retryAt))

	due, err := store.Outbox.ClaimPending(ctx, 10, time.Hour)
	require.NoError(t, err)
	assert.Empty(t, due, "retry is not due yet")

	now = now.Add(2 * time.Minute)
	due, err = store.Outbox.ClaimPending(ctx, 10, time.Hour)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, 1, due[0].RetryCount)

	n, err := store.Outbox.DeleteProcessedBefore(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Len(t, db.OutboxEvents(), 2)
}

func TestOutboxReclaimsExpiredLease(t *testing.T) {
	store, db := NewStore()
	ctx := context.Background()
	tenant := uuid.New()
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	db.SetClock(func() time.Time { return now })

	require.NoError(t, store.Bookings.Create(ctx, &model.Booking{Base: model.Base{TenantID: tenant}},
		&model.OutboxEvent{TenantID: tenant, EventType: model.EventTypeBookingIngested, Payload: []byte(`{}`)}))

	claimed, err := store.Outbox.ClaimPending(ctx, 10, 5*time.Minute)
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	now = now.Add(4 * time.Minute)
	again, err := store.Outbox.ClaimPending(ctx, 10, 5*time.Minute)
	require.NoError(t, err)
	assert.Empty(t, again, "lease still held")

	now = now.Add(2 * time.Minute)
	again, err = store.Outbox.ClaimPending(ctx, 10, 5*time.Minute)
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, claimed[0].ID, again[0].ID)
	assert.Equal(t, now, db.OutboxEvents()[0].UpdatedAt, "reclaim renews the lease")

	require.NoError(t, store.Outbox.MarkProcessed(ctx, again[0].ID))
	done, err := store.Outbox.ClaimPending(ctx, 10, time.Nanosecond)
	require.NoError(t, err)
	assert.Empty(t, done, "processed events are never reclaimed")
}
