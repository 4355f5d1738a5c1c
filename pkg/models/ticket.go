package models

import (
	"time"
)

// TicketStatus represents valid support ticket states
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// Ticket represents a support request filed by a user
type Ticket struct {
	ID          string       `json:"id" db:"id"`
	UserID      string       `json:"user_id" db:"user_id"`
	Subject     string       `json:"subject" db:"subject"`
	Message     string       `json:"message" db:"message"`
	Category    string       `json:"category" db:"category"`
	Status      TicketStatus `json:"status" db:"status"`
	Response    *string      `json:"response,omitempty" db:"response"`
	RespondedBy *string      `json:"responded_by,omitempty" db:"responded_by"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" db:"updated_at"`
}

// CreateTicketRequest files a new ticket
type CreateTicketRequest struct {
	Subject  string `json:"subject" validate:"required"`
	Message  string `json:"message" validate:"required"`
	Category string `json:"category"`
}

// RespondTicketRequest attaches a support response
type RespondTicketRequest struct {
	Response string `json:"response" validate:"required"`
}

// TicketStatusRequest moves a ticket between states
type TicketStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=open in_progress resolved closed"`
}

// IsValidTicketStatus validates a status string against schema constraints
func IsValidTicketStatus(status string) bool {
	switch TicketStatus(status) {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	default:
		return false
	}
}
