package model

import "github.com/google/uuid"

type Client struct {
	Base
	Name  string  `db:"name" json:"name"`
	Phone string  `db:"phone" json:"phone"`
	Email *string `db:"email" json:"email,omitempty"`
}

// Service is a bookable offering of a salon.
type Service struct {
	ID       uuid.UUID `db:"id" json:"id"`
	TenantID uuid.UUID `db:"tenant_id" json:"tenantId"`
	Name     string    `db:"name" json:"name"`
	Active   bool      `db:"active" json:"active"`
}

type Employee struct {
	ID        uuid.UUID `db:"id" json:"id"`
	TenantID  uuid.UUID `db:"tenant_id" json:"tenantId"`
	FirstName string    `db:"first_name" json:"firstName"`
	LastName  string    `db:"last_name" json:"lastName"`
	Active    bool      `db:"active" json:"active"`
}
