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

type pendingRepository struct {
	BaseRepository
}

func NewPendingRepository(base BaseRepository) repository.PendingRepository {
	return &pendingRepository{base}
}

const pendingColumns = `id, tenant_id, subject, body, status, reason, created_at, updated_at`

func (r *pendingRepository) Create(ctx context.Context, p *model.PendingNotification) error {
	now := time.Now().UTC()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = model.PendingStatusPending
	}
	p.CreatedAt, p.UpdatedAt = now, now

	query := `
		INSERT INTO pending_notifications (` + pendingColumns + `)
		VALUES (:id, :tenant_id, :subject, :body, :status, :reason, :created_at, :updated_at)
	`
	if _, err := r.db.NamedExecContext(ctx, query, p); err != nil {
		return fmt.Errorf("failed to create pending notification: %w", err)
	}
	return nil
}

func (r *pendingRepository) List(ctx context.Context, tenantID uuid.UUID, status model.PendingStatus, limit int) ([]*model.PendingNotification, error) {
	query := `
		SELECT ` + pendingColumns + `
		FROM pending_notifications
		WHERE tenant_id = $1
		AND ($2 = 'all' OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3
	`
	items := []*model.PendingNotification{}
	if err := r.db.SelectContext(ctx, &items, query, tenantID, string(status), limit); err != nil {
		return nil, fmt.Errorf("failed to list pending notifications: %w", err)
	}
	return items, nil
}

func (r *pendingRepository) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status model.PendingStatus) (*model.PendingNotification, error) {
	query := `
		UPDATE pending_notifications
		SET status = $1, updated_at = NOW()
		WHERE tenant_id = $2 AND id = $3
		RETURNING ` + pendingColumns
	var p model.PendingNotification
	err := r.db.GetContext(ctx, &p, query, string(status), tenantID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update pending notification: %w", err)
	}
	return &p, nil
}
