package model

import (
	"time"

	"github.com/google/uuid"
)

type PendingStatus string

const (
	PendingStatusPending  PendingStatus = "pending"
	PendingStatusResolved PendingStatus = "resolved"
	PendingStatusIgnored  PendingStatus = "ignored"
	// PendingStatusAll is a list filter only, never stored.
	PendingStatusAll PendingStatus = "all"
)

// PendingListLimit caps every pending queue read.
const PendingListLimit = 50

// ParsePendingFilter maps the status query parameter; empty means pending.
func ParsePendingFilter(raw string) (PendingStatus, bool) {
	switch PendingStatus(raw) {
	case "":
		return PendingStatusPending, true
	case PendingStatusPending, PendingStatusResolved, PendingStatusIgnored, PendingStatusAll:
		return PendingStatus(raw), true
	}
	return "", false
}

// PendingNotification holds a notification the pipeline could not turn into a booking.
type PendingNotification struct {
	ID        uuid.UUID     `db:"id" json:"id"`
	TenantID  uuid.UUID     `db:"tenant_id" json:"tenantId"`
	Subject   string        `db:"subject" json:"subject"`
	Body      string        `db:"body" json:"body"`
	Status    PendingStatus `db:"status" json:"status"`
	Reason    string        `db:"reason" json:"reason"`
	CreatedAt time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time     `db:"updated_at" json:"updatedAt"`
}
