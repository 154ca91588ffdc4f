package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/salon-ingest/internal/model"
	"github.com/jwalitptl/salon-ingest/internal/repository"
)

type catalogRepository struct {
	BaseRepository
}

func NewCatalogRepository(base BaseRepository) repository.CatalogRepository {
	return &catalogRepository{base}
}

func (r *catalogRepository) ListActiveServices(ctx context.Context, tenantID uuid.UUID) ([]*model.Service, error) {
	query := `
		SELECT id, tenant_id, name, active
		FROM services
		WHERE tenant_id = $1 AND active
		ORDER BY name
	`
	var services []*model.Service
	if err := r.db.SelectContext(ctx, &services, query, tenantID); err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	return services, nil
}

func (r *catalogRepository) ListActiveEmployees(ctx context.Context, tenantID uuid.UUID) ([]*model.Employee, error) {
	query := `
		SELECT id, tenant_id, first_name, last_name, active
		FROM employees
		WHERE tenant_id = $1 AND active
		ORDER BY first_name, last_name
	`
	var employees []*model.Employee
	if err := r.db.SelectContext(ctx, &employees, query, tenantID); err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	return employees, nil
}
