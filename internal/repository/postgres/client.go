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

type clientRepository struct {
	BaseRepository
}

func NewClientRepository(base BaseRepository) repository.ClientRepository {
	return &clientRepository{base}
}

func (r *clientRepository) FindByPhone(ctx context.Context, tenantID uuid.UUID, phone string) (*model.Client, error) {
	query := `
		SELECT id, tenant_id, name, phone, email, created_at, updated_at
		FROM clients
		WHERE tenant_id = $1 AND phone = $2
		ORDER BY created_at ASC
		LIMIT 1
	`
	var c model.Client
	err := r.db.GetContext(ctx, &c, query, tenantID, phone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find client by phone: %w", err)
	}
	return &c, nil
}

func (r *clientRepository) Create(ctx context.Context, c *model.Client) error {
	now := time.Now().UTC()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt, c.UpdatedAt = now, now

	query := `
		INSERT INTO clients (id, tenant_id, name, phone, email, created_at, updated_at)
		VALUES (:id, :tenant_id, :name, :phone, :email, :created_at, :updated_at)
	`
	if _, err := r.db.NamedExecContext(ctx, query, c); err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	return nil
}
