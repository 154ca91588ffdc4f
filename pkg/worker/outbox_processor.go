package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jwalitptl/salon-ingest/internal/model"
	"github.com/jwalitptl/salon-ingest/internal/repository"
	"github.com/jwalitptl/salon-ingest/pkg/logger"
	"github.com/jwalitptl/salon-ingest/pkg/messaging"
	"github.com/jwalitptl/salon-ingest/pkg/metrics"
)

type OutboxProcessorConfig struct {
	Channel       string
	BatchSize     int
	PollInterval  time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	// MaxDeliveries caps how many polls may try one event before it is
	// marked failed for good.
	MaxDeliveries int
	// Lease is how long a claimed event may stay in processing before
	// another poll takes it over.
	Lease time.Duration
}

// OutboxProcessor publishes booking events written by the ingestion
// pipeline. Publishing is at-least-once.
type OutboxProcessor struct {
	repo    repository.OutboxRepository
	broker  messaging.Broker
	config  OutboxProcessorConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewOutboxProcessor(
	repo repository.OutboxRepository,
	broker messaging.Broker,
	config OutboxProcessorConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) (*OutboxProcessor, error) {
	if config.BatchSize <= 0 {
		return nil, fmt.Errorf("BatchSize must be greater than 0")
	}
	if config.PollInterval <= 0 {
		return nil, fmt.Errorf("PollInterval must be greater than 0")
	}
	if config.RetryAttempts <= 0 {
		return nil, fmt.Errorf("RetryAttempts must be greater than 0")
	}
	if config.RetryDelay <= 0 {
		return nil, fmt.Errorf("RetryDelay must be greater than 0")
	}
	if config.Channel == "" {
		return nil, fmt.Errorf("Channel is required")
	}
	if config.MaxDeliveries <= 0 {
		config.MaxDeliveries = 5
	}
	if config.Lease <= 0 {
		config.Lease = 5 * time.Minute
	}

	return &OutboxProcessor{
		repo:    repo,
		broker:  broker,
		config:  config,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}, nil
}

func (p *OutboxProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.logger.Info("Starting outbox processor", "channel", p.config.Channel)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Shutting down outbox processor")
			return
		case <-ticker.C:
			if _, err := p.ProcessBatch(ctx); err != nil {
				p.logger.Error(err, "Failed to process events")
			}
		}
	}
}

// ProcessBatch claims one batch of due events and publishes them. It returns
// how many were published.
func (p *OutboxProcessor) ProcessBatch(ctx context.Context) (int, error) {
	timer := prometheus.NewTimer(p.metrics.OutboxProcessingLatency)
	defer timer.ObserveDuration()

	events, err := p.repo.ClaimPending(ctx, p.config.BatchSize, p.config.Lease)
	if err != nil {
		p.metrics.DatabaseOperations.WithLabelValues("claim_outbox_events", "error").Inc()
		return 0, fmt.Errorf("failed to claim pending events: %w", err)
	}
	p.metrics.DatabaseOperations.WithLabelValues("claim_outbox_events", "success").Inc()

	published := 0
	for _, event := range events {
		if err := p.processEvent(ctx, event); err != nil {
			p.logger.Error(err, "Failed to process event",
				"event_id", event.ID.String(),
				"event_type", event.EventType,
				"tenant_id", event.TenantID.String())
			continue
		}
		published++
	}
	return published, nil
}

func (p *OutboxProcessor) processEvent(ctx context.Context, event *model.OutboxEvent) error {
	// Status updates must land even when shutdown cancels ctx mid-publish,
	// otherwise the row sits in processing until its lease runs out.
	settleCtx := context.WithoutCancel(ctx)

	msg, err := json.Marshal(messaging.Envelope{
		ID:         event.ID,
		Type:       event.EventType,
		TenantID:   event.TenantID,
		OccurredAt: event.CreatedAt,
		Payload:    event.Payload,
	})
	if err != nil {
		return p.markFailed(settleCtx, event, err, false)
	}

	attempt := 0
	err = retry(ctx, p.config.RetryAttempts, p.config.RetryDelay, func() error {
		if attempt > 0 {
			p.metrics.OutboxRetries.WithLabelValues(event.EventType).Inc()
		}
		attempt++
		return p.broker.Publish(ctx, p.config.Channel, msg)
	})
	if err != nil {
		return p.markFailed(settleCtx, event, err, event.RetryCount+1 < p.config.MaxDeliveries)
	}

	p.metrics.OutboxEventsProcessed.Inc()
	if err := p.repo.MarkProcessed(settleCtx, event.ID); err != nil {
		p.metrics.DatabaseOperations.WithLabelValues("mark_outbox_processed", "error").Inc()
		return fmt.Errorf("failed to mark event processed: %w", err)
	}
	return nil
}

// markFailed schedules another delivery with exponential backoff, or gives
// up when reschedule is false.
func (p *OutboxProcessor) markFailed(ctx context.Context, event *model.OutboxEvent, cause error, reschedule bool) error {
	p.metrics.OutboxEventsFailed.Inc()

	var retryAt *time.Time
	if reschedule {
		at := p.now().Add(p.config.RetryDelay * time.Duration(1<<uint(event.RetryCount)))
		retryAt = &at
	}
	if err := p.repo.MarkFailed(ctx, event.ID, cause.Error(), retryAt); err != nil {
		p.logger.Error(err, "Failed to update event status", "event_id", event.ID.String())
	}
	return cause
}

func retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return err
}
