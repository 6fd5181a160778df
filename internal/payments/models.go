package payments

// SettlementResult is the outcome reported by the external payment processor.
type SettlementResult string

const (
	SettlementSuccess SettlementResult = "SUCCESS"
	SettlementFailure SettlementResult = "FAILURE"
)

// IsValid checks if the settlement result is valid
func (r SettlementResult) IsValid() bool {
	return r == SettlementSuccess || r == SettlementFailure
}

// SettlementRequest is the payment processor's settlement callback payload
type SettlementRequest struct {
	TicketID string `json:"ticket_id" binding:"required,uuid"`
	Result   string `json:"result" binding:"required"`
}

// RefundRequest is the payment processor's refund callback payload
type RefundRequest struct {
	TicketID string `json:"ticket_id" binding:"required,uuid"`
}
