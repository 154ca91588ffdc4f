// Package ingest turns batches of provider notifications into bookings.
//
// Each notification goes through the idempotency gate, the parser, the
// resolver and the materializer in that order. Notifications that cannot be
// resolved land in the pending triage queue; store faults are reported on the
// item and never stop the batch.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/salon-ingest/internal/model"
	"github.com/jwalitptl/salon-ingest/internal/parser"
	"github.com/jwalitptl/salon-ingest/internal/repository"
	apperrors "github.com/jwalitptl/salon-ingest/pkg/errors"
	"github.com/jwalitptl/salon-ingest/pkg/logger"
	"github.com/jwalitptl/salon-ingest/pkg/metrics"
)

// PendingQueue is the triage queue the orchestrator enqueues into.
type PendingQueue interface {
	Enqueue(ctx context.Context, tenantID uuid.UUID, subject, body, reason string) (*model.PendingNotification, error)
}

// StatsRecorder persists per-batch counters.
type StatsRecorder interface {
	Record(ctx context.Context, tenantID uuid.UUID, delta model.SyncDelta) error
}

// ItemResult is the outcome of one notification in a batch.
type ItemResult struct {
	Success      bool           `json:"success"`
	Deduplicated bool           `json:"deduplicated"`
	Pending      bool           `json:"pending"`
	Booking      *model.Booking `json:"booking,omitempty"`
	PendingID    *uuid.UUID     `json:"pendingId,omitempty"`
	Reason       string         `json:"reason,omitempty"`
	Error        string         `json:"error,omitempty"`
	EventID      string         `json:"eventId,omitempty"`
}

// BatchResult aggregates one webhook call. Errors counts every item that did
// not produce or find a booking, triaged or not.
type BatchResult struct {
	Processed  int          `json:"processed"`
	Successful int          `json:"successful"`
	Errors     int          `json:"errors"`
	Results    []ItemResult `json:"results"`
}

type Options struct {
	RosterCacheTTL time.Duration
	Logger         *logger.Logger
	Metrics        *metrics.Metrics
}

type Service struct {
	gate         *Gate
	resolver     *Resolver
	materializer *Materializer
	pending      PendingQueue
	stats        StatsRecorder
	log          *logger.Logger
	metrics      *metrics.Metrics
}

func NewService(store *repository.Store, pending PendingQueue, stats StatsRecorder, opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New("", nil)
	}
	return &Service{
		gate:         NewGate(store.Bookings),
		resolver:     NewResolver(store.Clients, store.Catalog, opts.RosterCacheTTL),
		materializer: NewMaterializer(store.Bookings),
		pending:      pending,
		stats:        stats,
		log:          log,
		metrics:      m,
	}
}

// Resolver exposes the entity resolver, mainly to invalidate its roster cache.
func (s *Service) Resolver() *Resolver {
	return s.resolver
}

// ProcessBatch handles notifications strictly one after another in input
// order, then adds the batch counters to the tenant's sync statistics. A
// failed statistics write is logged and counted; the item results are still
// returned.
func (s *Service) ProcessBatch(ctx context.Context, tenantID uuid.UUID, notifications []model.IncomingNotification) (*BatchResult, error) {
	if tenantID == uuid.Nil {
		return nil, apperrors.NewBadRequest("tenantId is required", nil)
	}
	started := time.Now()
	log := s.log.With("tenant_id", tenantID.String())

	result := &BatchResult{Results: make([]ItemResult, 0, len(notifications))}
	for i, n := range notifications {
		item := s.processOne(ctx, log, tenantID, n)
		result.Processed++
		if item.Success {
			result.Successful++
		} else {
			result.Errors++
		}
		log.Debug("notification processed",
			"index", i,
			"event_id", item.EventID,
			"success", item.Success,
			"deduplicated", item.Deduplicated,
			"pending", item.Pending,
		)
		result.Results = append(result.Results, item)
	}

	delta := model.SyncDelta{
		Total:   int64(result.Processed),
		Success: int64(result.Successful),
		Errors:  int64(result.Errors),
	}
	if err := s.stats.Record(ctx, tenantID, delta); err != nil {
		s.metrics.SyncStatsFailures.Inc()
		log.Error(err, "failed to update sync stats")
	}

	s.metrics.IngestBatchDuration.Observe(time.Since(started).Seconds())
	log.Info("batch processed",
		"processed", result.Processed,
		"successful", result.Successful,
		"errors", result.Errors,
	)
	return result, nil
}

func (s *Service) processOne(ctx context.Context, log *logger.Logger, tenantID uuid.UUID, n model.IncomingNotification) ItemResult {
	eventID := strings.TrimSpace(n.EventID)
	item := ItemResult{EventID: eventID}

	if eventID != "" {
		existing, err := s.gate.CheckExisting(ctx, tenantID, eventID)
		if err != nil {
			return s.fail(log, item, err)
		}
		if existing != nil {
			s.metrics.IngestItems.WithLabelValues(metrics.OutcomeDeduplicated).Inc()
			item.Success, item.Deduplicated, item.Booking = true, true, existing
			return item
		}
	}

	booking, deduplicated, err := s.materialize(ctx, tenantID, n, eventID)
	if err != nil {
		if apperrors.IsTriageable(err) {
			return s.triage(ctx, log, tenantID, n, item, err)
		}
		return s.fail(log, item, err)
	}

	outcome := metrics.OutcomeCreated
	if deduplicated {
		outcome = metrics.OutcomeDeduplicated
	}
	s.metrics.IngestItems.WithLabelValues(outcome).Inc()
	item.Success, item.Deduplicated, item.Booking = true, deduplicated, booking
	return item
}

func (s *Service) materialize(ctx context.Context, tenantID uuid.UUID, n model.IncomingNotification, eventID string) (*model.Booking, bool, error) {
	cand, err := parser.Parse(n.Subject, n.Body)
	if err != nil {
		return nil, false, err
	}
	// reject bad ranges before the resolver can create a client
	if _, err := DurationMinutes(cand); err != nil {
		return nil, false, err
	}
	res, err := s.resolver.Resolve(ctx, tenantID, cand)
	if err != nil {
		return nil, false, err
	}
	return s.materializer.Materialize(ctx, tenantID, cand, res, eventID)
}

func (s *Service) triage(ctx context.Context, log *logger.Logger, tenantID uuid.UUID, n model.IncomingNotification, item ItemResult, cause error) ItemResult {
	code := apperrors.CodeOf(cause)
	reason := TriageReason(cause)
	s.metrics.IngestTriage.WithLabelValues(code.String()).Inc()

	p, err := s.pending.Enqueue(ctx, tenantID, n.Subject, n.Body, reason)
	if err != nil {
		return s.fail(log, item, err)
	}
	log.Warn("notification routed to pending queue", "event_id", item.EventID, "reason", reason)
	s.metrics.IngestItems.WithLabelValues(metrics.OutcomePending).Inc()

	item.Pending = true
	item.PendingID = &p.ID
	item.Reason = reason
	return item
}

func (s *Service) fail(log *logger.Logger, item ItemResult, err error) ItemResult {
	s.metrics.IngestItems.WithLabelValues(metrics.OutcomeFailed).Inc()
	log.Error(err, "notification failed", "event_id", item.EventID, "code", apperrors.CodeOf(err).String())
	item.Error = apperrors.PublicMessage(err)
	return item
}

// TriageReason renders a triage error as "<KIND>[ (<field>)]: <message>".
func TriageReason(err error) string {
	code := apperrors.CodeOf(err)
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return fmt.Sprintf("%s: %v", code, err)
	}
	if appErr.Field != "" {
		return fmt.Sprintf("%s (%s): %s", code, appErr.Field, appErr.Message)
	}
	return fmt.Sprintf("%s: %s", code, appErr.Message)
}
