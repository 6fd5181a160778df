package admission

import (
	"time"

	"github.com/google/uuid"
)

// Outcome is the recorded result of a scan attempt.
type Outcome string

const (
	OutcomeAdmitted Outcome = "ADMITTED"
	OutcomeDenied   Outcome = "DENIED"
)

// DenyReason is the concrete reason a scan was rejected. The gate terminal
// always receives one of these, never a generic failure.
type DenyReason string

const (
	ReasonIntegrity       DenyReason = "INTEGRITY_ERROR"
	ReasonUnknownTicket   DenyReason = "UNKNOWN_TICKET"
	ReasonNotPaid         DenyReason = "NOT_PAID"
	ReasonNotYetValid     DenyReason = "NOT_YET_VALID"
	ReasonExpired         DenyReason = "EXPIRED"
	ReasonAlreadyRedeemed DenyReason = "ALREADY_REDEEMED"
	ReasonVoided          DenyReason = "VOIDED"
	ReasonContention      DenyReason = "CONTENTION_EXHAUSTED"
)

// String returns the string representation of DenyReason
func (r DenyReason) String() string {
	return string(r)
}

// IsRetryable reports whether the gate should prompt a re-scan rather than
// display a final rejection.
func (r DenyReason) IsRetryable() bool {
	return r == ReasonContention
}

// Event is one append-only audit record per scan attempt, admitted or not.
// Records are never mutated after insert.
type Event struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TicketID *uuid.UUID `gorm:"type:uuid;index" json:"ticket_id,omitempty"` // nil when the payload failed integrity and was never looked up
	GateID   string    `gorm:"type:varchar(64);index;not null" json:"gate_id"`
	Outcome  Outcome   `gorm:"type:varchar(10);not null" json:"outcome"`
	Reason   string    `gorm:"type:varchar(30)" json:"reason,omitempty"`
	// ActorID is set for staff-initiated decisions (manual overrides).
	ActorID   string    `gorm:"type:varchar(64)" json:"actor_id,omitempty"`
	ScannedAt time.Time `gorm:"index;not null" json:"scanned_at"`
}

// TableName sets the table name for Event
func (Event) TableName() string {
	return "admission_events"
}

// ScanRequest is the gate terminal's scan submission
type ScanRequest struct {
	Payload string `json:"payload" binding:"required"`
	GateID  string `json:"gate_id" binding:"required"`
}

// ScanResult is the caller-facing admission decision
type ScanResult struct {
	Admitted bool       `json:"admitted"`
	Reason   DenyReason `json:"reason,omitempty"`
	TicketID string     `json:"ticket_id,omitempty"`
	// RedemptionsRemaining is -1 for day passes (unlimited re-entry).
	RedemptionsRemaining int `json:"redemptions_remaining"`
}

// EventListQuery filters the audit log listing
type EventListQuery struct {
	TicketID *uuid.UUID
	GateID   string
	Page     int
	Limit    int
}
