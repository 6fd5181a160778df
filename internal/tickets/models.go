package tickets

import (
	"time"

	"github.com/google/uuid"
)

// Ticket is the ledger record for a single admission credential. The
// immutable identity fields (ID, OwnerRef, ValidFrom, ValidUntil,
// Entitlement, Seal) are fixed at issuance; all state fields change only
// through compare-and-swap on Version.
type Ticket struct {
	ID          uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerRef    string      `gorm:"index;not null" json:"owner_ref"`
	Entitlement Entitlement `gorm:"type:varchar(20);not null" json:"entitlement"`
	ValidFrom   time.Time   `gorm:"not null" json:"valid_from"`
	ValidUntil  time.Time   `gorm:"not null" json:"valid_until"`

	PaymentState    PaymentState    `gorm:"type:varchar(10);not null;default:'PENDING'" json:"payment_state"`
	RedemptionState RedemptionState `gorm:"type:varchar(10);not null;default:'ISSUED'" json:"redemption_state"`
	RedemptionCount int             `gorm:"not null;default:0" json:"redemption_count"`
	MaxRedemptions  int             `gorm:"not null;default:1" json:"max_redemptions"`

	// Seal is the base64url integrity seal computed at issuance over the
	// immutable fields. Stored for audit; verification happens against the
	// scanned payload, never against this column.
	Seal string `gorm:"not null" json:"-"`

	// ReviewFlagged marks refund-after-admission records for manual review.
	ReviewFlagged bool `gorm:"not null;default:false;index" json:"review_flagged"`

	// Version is the optimistic-concurrency counter; every mutation must
	// carry the version it read.
	Version int64 `gorm:"not null;default:1" json:"version"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName sets the table name for Ticket
func (Ticket) TableName() string {
	return "tickets"
}

// IsSettled reports whether the purchase behind the ticket has settled.
func (t *Ticket) IsSettled() bool {
	return t.PaymentState == PaymentSettled
}

// IsVoided reports whether the ticket has been voided.
func (t *Ticket) IsVoided() bool {
	return t.RedemptionState == RedemptionVoided
}

// WithinWindow reports whether now falls inside the validity window.
func (t *Ticket) WithinWindow(now time.Time) bool {
	return !now.Before(t.ValidFrom) && !now.After(t.ValidUntil)
}

// RedemptionsRemaining returns how many admissions the ticket still grants.
// Day passes report -1 (unlimited re-entry within the window).
func (t *Ticket) RedemptionsRemaining() int {
	switch t.Entitlement {
	case EntitlementDayPass:
		return -1
	case EntitlementSingleEntry:
		if t.RedemptionState == RedemptionIssued {
			return 1
		}
		return 0
	default:
		if remaining := t.MaxRedemptions - t.RedemptionCount; remaining > 0 {
			return remaining
		}
		return 0
	}
}

// Clone returns a copy safe to mutate before a compare-and-swap attempt.
func (t *Ticket) Clone() *Ticket {
	cp := *t
	return &cp
}

// TicketResponse is the caller-facing view of a ticket record.
type TicketResponse struct {
	ID              string    `json:"id"`
	OwnerRef        string    `json:"owner_ref"`
	Entitlement     string    `json:"entitlement"`
	ValidFrom       time.Time `json:"valid_from"`
	ValidUntil      time.Time `json:"valid_until"`
	PaymentState    string    `json:"payment_state"`
	RedemptionState string    `json:"redemption_state"`
	RedemptionCount int       `json:"redemption_count"`
	MaxRedemptions  int       `json:"max_redemptions"`
	ReviewFlagged   bool      `json:"review_flagged"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ToResponse converts a Ticket to its caller-facing view
func (t *Ticket) ToResponse() TicketResponse {
	return TicketResponse{
		ID:              t.ID.String(),
		OwnerRef:        t.OwnerRef,
		Entitlement:     string(t.Entitlement),
		ValidFrom:       t.ValidFrom,
		ValidUntil:      t.ValidUntil,
		PaymentState:    string(t.PaymentState),
		RedemptionState: string(t.RedemptionState),
		RedemptionCount: t.RedemptionCount,
		MaxRedemptions:  t.MaxRedemptions,
		ReviewFlagged:   t.ReviewFlagged,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

// IssueRequest represents a ticket issuance request from the purchase flow
type IssueRequest struct {
	OwnerRef       string    `json:"owner_ref" binding:"required"`
	Entitlement    string    `json:"entitlement" binding:"required"`
	ValidFrom      time.Time `json:"valid_from" binding:"required"`
	ValidUntil     time.Time `json:"valid_until" binding:"required"`
	MaxRedemptions int       `json:"max_redemptions,omitempty"`
}

// IssueResponse carries the created record plus the sealed QR payload
type IssueResponse struct {
	Ticket  TicketResponse `json:"ticket"`
	Payload string         `json:"payload"`
}
