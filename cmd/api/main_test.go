package main

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/salon-ingest/internal/config"
)

func TestOpenStoreSeedsMemoryCatalog(t *testing.T) {
	tenant := uuid.New()
	other := uuid.New()
	store, err := openStore(context.Background(), config.DatabaseConfig{
		Driver: "memory",
		Seed: []config.TenantSeed{{
			TenantID:  tenant.String(),
			Services:  []string{"Koloryzacja", "Strzyżenie damskie"},
			Employees: []string{"Anna Nowak", "Maria Anna Kowalska-Wiśniewska", "  "},
		}},
	})
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	services, err := store.Catalog.ListActiveServices(ctx, tenant)
	require.NoError(t, err)
	require.Len(t, services, 2)
	assert.Equal(t, "Koloryzacja", services[0].Name)

	staff, err := store.Catalog.ListActiveEmployees(ctx, tenant)
	require.NoError(t, err)
	require.Len(t, staff, 2)
	assert.Equal(t, "Anna", staff[0].FirstName)
	assert.Equal(t, "Nowak", staff[0].LastName)
	assert.Equal(t, "Maria", staff[1].FirstName)
	assert.Equal(t, "Anna Kowalska-Wiśniewska", staff[1].LastName)

	services, err = store.Catalog.ListActiveServices(ctx, other)
	require.NoError(t, err)
	assert.Empty(t, services)
}

func TestOpenStoreRejectsBadSeedTenant(t *testing.T) {
	_, err := openStore(context.Background(), config.DatabaseConfig{
		Driver: "memory",
		Seed:   []config.TenantSeed{{TenantID: "not-a-uuid"}},
	})
	assert.Error(t, err)
}
