package model

import "time"

// IncomingNotification is one already-extracted provider email.
type IncomingNotification struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	EventID string `json:"eventId,omitempty"`
}

// ParsedCandidate is produced only by a fully successful parse.
type ParsedCandidate struct {
	ClientName        string
	Phone             string
	Email             string
	ServiceName       string
	PriceCents        int64
	Date              time.Time
	StartTime         string
	EndTime           string
	EmployeeFirstName string
}
