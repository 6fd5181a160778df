package payments

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"parkgate/internal/tickets"
	"parkgate/pkg/logger"
)

// Service reconciles ticket validity against payment processor callbacks.
// Both operations are idempotent: re-delivered webhooks observe the target
// state already applied and succeed without a write.
type Service interface {
	HandleSettlement(ctx context.Context, ticketID uuid.UUID, result SettlementResult) error
	HandleRefund(ctx context.Context, ticketID uuid.UUID) error
}

type service struct {
	ledger tickets.Ledger
	retry  tickets.RetryPolicy
	logger *logger.Logger
}

// NewService creates a new payment reconciler instance
func NewService(ledger tickets.Ledger, retry tickets.RetryPolicy, log *logger.Logger) Service {
	return &service{
		ledger: ledger,
		retry:  retry,
		logger: log,
	}
}

// HandleSettlement applies the processor's settlement result. SUCCESS moves
// PENDING to SETTLED; FAILURE moves PENDING to DISPUTED. Any other current
// state means the event was already applied (or superseded by a refund) and
// is a no-op.
func (s *service) HandleSettlement(ctx context.Context, ticketID uuid.UUID, result SettlementResult) error {
	if !result.IsValid() {
		return fmt.Errorf("unknown settlement result %q", result)
	}

	return s.retry.Run(ctx, func() error {
		ticket, err := s.ledger.Get(ctx, ticketID)
		if err != nil {
			return err
		}

		target := tickets.PaymentSettled
		if result == SettlementFailure {
			target = tickets.PaymentDisputed
		}

		if ticket.PaymentState == target {
			// Re-delivered webhook; already applied.
			return nil
		}
		if ticket.PaymentState != tickets.PaymentPending {
			s.logger.InfoWithContext(ctx, "settlement ignored for non-pending ticket", map[string]interface{}{
				"ticket_id":     ticketID.String(),
				"payment_state": string(ticket.PaymentState),
				"result":        string(result),
			})
			return nil
		}

		mutated := ticket.Clone()
		mutated.PaymentState = target
		if err := s.ledger.CompareAndSwap(ctx, ticket.Version, mutated); err != nil {
			return err
		}

		s.logger.LogPaymentReconciled(ctx, ticketID.String(), string(target))
		return nil
	})
}

// HandleRefund forces the payment state to REFUNDED. An unredeemed ticket is
// voided with it; a ticket that already admitted keeps its ADMITTED state
// (the physical admission is not erased) and is flagged for manual review.
func (s *service) HandleRefund(ctx context.Context, ticketID uuid.UUID) error {
	return s.retry.Run(ctx, func() error {
		ticket, err := s.ledger.Get(ctx, ticketID)
		if err != nil {
			return err
		}

		if ticket.PaymentState == tickets.PaymentRefunded {
			// Re-delivered webhook; already applied.
			return nil
		}

		mutated := ticket.Clone()
		mutated.PaymentState = tickets.PaymentRefunded
		switch ticket.RedemptionState {
		case tickets.RedemptionIssued:
			mutated.RedemptionState = tickets.RedemptionVoided
		case tickets.RedemptionAdmitted:
			mutated.ReviewFlagged = true
		}
		if ticket.Entitlement != tickets.EntitlementSingleEntry && ticket.RedemptionCount > 0 {
			// Partially consumed multi-entry/day tickets also need a human look.
			mutated.ReviewFlagged = true
			mutated.RedemptionState = tickets.RedemptionVoided
		}

		if err := s.ledger.CompareAndSwap(ctx, ticket.Version, mutated); err != nil {
			return err
		}

		s.logger.LogPaymentReconciled(ctx, ticketID.String(), string(tickets.PaymentRefunded))
		return nil
	})
}
