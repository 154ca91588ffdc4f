// Package pending is the triage queue for notifications the pipeline could
// not turn into a booking. Operators move entries to resolved or ignored.
package pending

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/jwalitptl/salon-ingest/internal/model"
	"github.com/jwalitptl/salon-ingest/internal/repository"
	apperrors "github.com/jwalitptl/salon-ingest/pkg/errors"
)

type Service struct {
	repo repository.PendingRepository
}

func NewService(repo repository.PendingRepository) *Service {
	return &Service{repo: repo}
}

// Enqueue stores the raw notification with the reason it was rejected.
func (s *Service) Enqueue(ctx context.Context, tenantID uuid.UUID, subject, body, reason string) (*model.PendingNotification, error) {
	p := &model.PendingNotification{
		TenantID: tenantID,
		Subject:  subject,
		Body:     body,
		Status:   model.PendingStatusPending,
		Reason:   reason,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, apperrors.StoreFault("enqueue pending notification", err)
	}
	return p, nil
}

// List returns at most PendingListLimit entries, newest first.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, status model.PendingStatus) ([]*model.PendingNotification, error) {
	if status == "" {
		status = model.PendingStatusPending
	}
	items, err := s.repo.List(ctx, tenantID, status, model.PendingListLimit)
	if err != nil {
		return nil, apperrors.StoreFault("list pending notifications", err)
	}
	return items, nil
}

// UpdateStatus records an operator decision. Only resolved, ignored and
// pending (reopen) are accepted.
func (s *Service) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status model.PendingStatus) (*model.PendingNotification, error) {
	switch status {
	case model.PendingStatusPending, model.PendingStatusResolved, model.PendingStatusIgnored:
	default:
		return nil, apperrors.NewBadRequest("status must be one of pending, resolved, ignored", nil)
	}

	p, err := s.repo.UpdateStatus(ctx, tenantID, id, status)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewNotFound("pending notification", err)
	}
	if err != nil {
		return nil, apperrors.StoreFault("update pending notification", err)
	}
	return p, nil
}
