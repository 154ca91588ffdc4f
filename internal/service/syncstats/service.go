package syncstats

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/salon-ingest/internal/model"
	"github.com/jwalitptl/salon-ingest/internal/repository"
	apperrors "github.com/jwalitptl/salon-ingest/pkg/errors"
)

type Service struct {
	repo repository.SyncStatsRepository
	now  func() time.Time
}

func NewService(repo repository.SyncStatsRepository) *Service {
	return &Service{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Record adds one batch's counters to the tenant aggregate and stamps
// lastSyncAt.
func (s *Service) Record(ctx context.Context, tenantID uuid.UUID, delta model.SyncDelta) error {
	if err := s.repo.Upsert(ctx, tenantID, delta, s.now()); err != nil {
		return apperrors.StoreFault("update sync stats", err)
	}
	return nil
}

// Get returns zero counters and a nil LastSyncAt for a tenant that never synced.
func (s *Service) Get(ctx context.Context, tenantID uuid.UUID) (*model.SyncStats, error) {
	stats, err := s.repo.Get(ctx, tenantID)
	if errors.Is(err, repository.ErrNotFound) {
		return &model.SyncStats{TenantID: tenantID}, nil
	}
	if err != nil {
		return nil, apperrors.StoreFault("read sync stats", err)
	}
	return stats, nil
}
