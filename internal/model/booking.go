package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusScheduled BookingStatus = "scheduled"
)

type BookingSource string

const (
	BookingSourceExternalProvider BookingSource = "external_provider"
)

// Booking is created once by the ingestion pipeline and never mutated by it.
type Booking struct {
	Base
	ClientID        uuid.UUID     `db:"client_id" json:"clientId"`
	EmployeeID      uuid.UUID     `db:"employee_id" json:"employeeId"`
	ServiceID       uuid.UUID     `db:"service_id" json:"serviceId"`
	Date            time.Time     `db:"date" json:"date"`
	StartTime       string        `db:"start_time" json:"startTime"`
	DurationMinutes int           `db:"duration_minutes" json:"durationMinutes"`
	PriceCents      int64         `db:"price_cents" json:"priceCents"`
	Status          BookingStatus `db:"status" json:"status"`
	Source          BookingSource `db:"source" json:"source"`
	Notes           string        `db:"notes" json:"notes"`
	// ProviderEventID backs the (tenant_id, provider_event_id) unique index.
	ProviderEventID *string `db:"provider_event_id" json:"providerEventId,omitempty"`
}

// EventMarker is the idempotency marker embedded in Booking.Notes.
func EventMarker(eventID string) string {
	return fmt.Sprintf("[provider_event_id:%s]", eventID)
}

// HasEventMarker reports whether notes carry the marker for eventID.
func HasEventMarker(notes, eventID string) bool {
	return eventID != "" && strings.Contains(notes, EventMarker(eventID))
}

// MarshalJSON renders Date as a calendar date.
func (b Booking) MarshalJSON() ([]byte, error) {
	type alias Booking
	return json.Marshal(struct {
		alias
		Date string `json:"date"`
	}{alias: alias(b), Date: b.Date.Format(DateLayout)})
}
