package model

import (
	"time"

	"github.com/google/uuid"
)

// Base contains common fields for tenant-owned records
type Base struct {
	ID        uuid.UUID `json:"id" db:"id"`
	TenantID  uuid.UUID `json:"tenantId" db:"tenant_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// DateLayout is the wire and storage layout of calendar dates.
const DateLayout = "2006-01-02"
