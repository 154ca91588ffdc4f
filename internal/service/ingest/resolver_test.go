package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/salon-ingest/internal/model"
	"github.com/jwalitptl/salon-ingest/internal/repository/memory"
	apperrors "github.com/jwalitptl/salon-ingest/pkg/errors"
)

func services(names ...string) []*model.Service {
	out := make([]*model.Service, 0, len(names))
	for _, n := range names {
		out = append(out, &model.Service{ID: uuid.New(), Name: n, Active: true})
	}
	return out
}

func TestMatchService(t *testing.T) {
	roster := services("Strzyżenie męskie", "Strzyżenie damskie", "Koloryzacja", "Manicure")

	cases := []struct {
		name  string
		want  string
		field string
	}{
		{"strzyżenie MĘSKIE", "Strzyżenie męskie", ""},
		{"Koloryzacja włosów", "Koloryzacja", ""},
		{"Mani", "Manicure", ""},
		{"Strzyżenie", "", "service"},
		{"Pedicure", "", "service"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := matchService(roster, tc.name)
			if tc.field != "" {
				require.Error(t, err)
				assert.Equal(t, apperrors.ErrUnresolvedReference, apperrors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.Name)
		})
	}
}

func TestMatchServicePrefersExact(t *testing.T) {
	roster := services("Strzyżenie", "Strzyżenie męskie")
	got, err := matchService(roster, "strzyżenie")
	require.NoError(t, err)
	assert.Equal(t, "Strzyżenie", got.Name)
}

func TestMatchEmployee(t *testing.T) {
	roster := []*model.Employee{
		{ID: uuid.New(), FirstName: "Anna", LastName: "Nowak"},
		{ID: uuid.New(), FirstName: "Kasia", LastName: "Lis"},
		{ID: uuid.New(), FirstName: "Kasia", LastName: "Wróbel"},
	}

	got, err := matchEmployee(roster, "ANNA")
	require.NoError(t, err)
	assert.Equal(t, "Nowak", got.LastName)

	_, err = matchEmployee(roster, "Kasia")
	assert.Equal(t, apperrors.ErrUnresolvedReference, apperrors.CodeOf(err))
	assert.Contains(t, err.Error(), "matches 2")

	_, err = matchEmployee(roster, "Ola")
	assert.Contains(t, TriageReason(err), "UNRESOLVED_REFERENCE (employee)")
}

func TestResolverRosterCacheIsPerTenant(t *testing.T) {
	store, db := memory.NewStore()
	r := NewResolver(store.Clients, store.Catalog, time.Minute)
	ctx := context.Background()

	tenantA, tenantB := uuid.New(), uuid.New()
	db.AddService(tenantA, "Koloryzacja")
	db.AddEmployee(tenantA, "Anna", "Nowak")
	db.AddService(tenantB, "Manicure")
	db.AddEmployee(tenantB, "Anna", "Lis")

	cand := &model.ParsedCandidate{ClientName: "Jan", Phone: "600700800", ServiceName: "Koloryzacja", EmployeeFirstName: "Anna"}
	_, err := r.Resolve(ctx, tenantA, cand)
	require.NoError(t, err)

	// tenant B must not see tenant A's cached roster
	_, err = r.Resolve(ctx, tenantB, cand)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrUnresolvedReference, apperrors.CodeOf(err))

	// a newly added service is invisible until the cache is dropped
	db.AddService(tenantB, "Koloryzacja")
	_, err = r.Resolve(ctx, tenantB, cand)
	require.Error(t, err)

	r.Invalidate(tenantB)
	res, err := r.Resolve(ctx, tenantB, cand)
	require.NoError(t, err)
	assert.True(t, res.ClientCreated)
}

func TestResolverReusesClientByPhone(t *testing.T) {
	store, db := memory.NewStore()
	r := NewResolver(store.Clients, store.Catalog, 0)
	ctx := context.Background()
	tenant := uuid.New()
	db.AddService(tenant, "Koloryzacja")
	db.AddEmployee(tenant, "Anna", "Nowak")

	cand := &model.ParsedCandidate{ClientName: "Jan", Phone: "600700800", Email: "jan@example.com", ServiceName: "Koloryzacja", EmployeeFirstName: "Anna"}
	first, err := r.Resolve(ctx, tenant, cand)
	require.NoError(t, err)
	assert.True(t, first.ClientCreated)

	cand.ClientName = "Jan K."
	second, err := r.Resolve(ctx, tenant, cand)
	require.NoError(t, err)
	assert.False(t, second.ClientCreated)
	assert.Equal(t, first.ClientID, second.ClientID)

	clients := db.Clients(tenant)
	require.Len(t, clients, 1)
	require.NotNil(t, clients[0].Email)
	assert.Equal(t, "jan@example.com", *clients[0].Email)
}

func TestDurationMinutes(t *testing.T) {
	d, err := DurationMinutes(&model.ParsedCandidate{StartTime: "16:00", EndTime: "17:00"})
	require.NoError(t, err)
	assert.Equal(t, 60, d)

	_, err = DurationMinutes(&model.ParsedCandidate{StartTime: "16:00", EndTime: "16:00"})
	assert.Equal(t, apperrors.ErrInvalidTimeRange, apperrors.CodeOf(err))
}
