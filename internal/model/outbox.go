package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "pending"
	OutboxStatusProcessing OutboxStatus = "processing"
	OutboxStatusProcessed  OutboxStatus = "processed"
	OutboxStatusRetry      OutboxStatus = "retry"
	OutboxStatusFailed     OutboxStatus = "failed"
)

const EventTypeBookingIngested = "booking.ingested"

type OutboxEvent struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	TenantID     uuid.UUID       `db:"tenant_id" json:"tenantId"`
	EventType    string          `db:"event_type" json:"eventType"`
	Payload      json.RawMessage `db:"payload" json:"payload"`
	Status       OutboxStatus    `db:"status" json:"status"`
	ErrorMessage *string         `db:"error_message" json:"errorMessage,omitempty"`
	RetryCount   int             `db:"retry_count" json:"retryCount"`
	RetryAt      *time.Time      `db:"retry_at" json:"retryAt,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"createdAt"`
	ProcessedAt  *time.Time      `db:"processed_at" json:"processedAt,omitempty"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updatedAt"`
}

// BookingIngestedPayload is published for every materialized booking.
type BookingIngestedPayload struct {
	BookingID       uuid.UUID `json:"bookingId"`
	TenantID        uuid.UUID `json:"tenantId"`
	ClientID        uuid.UUID `json:"clientId"`
	EmployeeID      uuid.UUID `json:"employeeId"`
	ServiceID       uuid.UUID `json:"serviceId"`
	Date            string    `json:"date"`
	StartTime       string    `json:"startTime"`
	DurationMinutes int       `json:"durationMinutes"`
	ProviderEventID string    `json:"providerEventId,omitempty"`
}
