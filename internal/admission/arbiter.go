package admission

import (
	"context"

	"github.com/google/uuid"

	"parkgate/internal/shared/clock"
	"parkgate/internal/tickets"
)

// Decision is the arbiter's verdict for one scan attempt.
type Decision struct {
	Admitted bool
	Reason   DenyReason
	Ticket   *tickets.Ticket
}

// Arbiter makes the at-most-once admission decision. Each attempt re-reads
// the ticket, checks policy against the version it read, and commits the
// transition with a compare-and-swap carrying that version. Of any set of
// concurrent scans of the same ticket exactly one CAS wins; the losers
// re-read, observe the post-transition state, and deny as already redeemed.
type Arbiter struct {
	ledger tickets.Ledger
	clock  clock.Clock
	retry  tickets.RetryPolicy
}

// NewArbiter creates a redemption arbiter bound to a ledger and clock.
func NewArbiter(ledger tickets.Ledger, clk clock.Clock, retry tickets.RetryPolicy) *Arbiter {
	return &Arbiter{
		ledger: ledger,
		clock:  clk,
		retry:  retry,
	}
}

// Arbitrate decides admission for the given ticket. Policy denials come back
// as a Decision; only storage failures and retry exhaustion are errors.
func (a *Arbiter) Arbitrate(ctx context.Context, ticketID uuid.UUID) (*Decision, error) {
	var decision *Decision

	err := a.retry.Run(ctx, func() error {
		ticket, err := a.ledger.Get(ctx, ticketID)
		if err != nil {
			if err == tickets.ErrNotFound {
				decision = &Decision{Reason: ReasonUnknownTicket}
				return nil
			}
			return err
		}

		if deny := a.checkPolicy(ticket); deny != "" {
			decision = &Decision{Reason: deny, Ticket: ticket}
			return nil
		}

		mutated := ticket.Clone()
		mutated.RedemptionCount++
		if ticket.Entitlement == tickets.EntitlementSingleEntry {
			mutated.RedemptionState = tickets.RedemptionAdmitted
		}

		if err := a.ledger.CompareAndSwap(ctx, ticket.Version, mutated); err != nil {
			// ErrVersionConflict restarts the loop from the read.
			return err
		}

		decision = &Decision{Admitted: true, Ticket: mutated}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return decision, nil
}

// Override force-admits a ticket, bypassing payment and validity-window
// checks. The redemption policy still applies: an override cannot consume an
// admission the ticket no longer has, so at-most-once holds even for manual
// decisions.
func (a *Arbiter) Override(ctx context.Context, ticketID uuid.UUID) (*Decision, error) {
	var decision *Decision

	err := a.retry.Run(ctx, func() error {
		ticket, err := a.ledger.Get(ctx, ticketID)
		if err != nil {
			if err == tickets.ErrNotFound {
				decision = &Decision{Reason: ReasonUnknownTicket}
				return nil
			}
			return err
		}

		if deny := a.checkRedemption(ticket); deny != "" {
			decision = &Decision{Reason: deny, Ticket: ticket}
			return nil
		}

		mutated := ticket.Clone()
		mutated.RedemptionCount++
		if ticket.Entitlement == tickets.EntitlementSingleEntry {
			mutated.RedemptionState = tickets.RedemptionAdmitted
		}

		if err := a.ledger.CompareAndSwap(ctx, ticket.Version, mutated); err != nil {
			return err
		}

		decision = &Decision{Admitted: true, Ticket: mutated}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return decision, nil
}

// checkPolicy validates payment, validity window, and redemption policy in
// order, returning the first concrete deny reason or "" to admit.
func (a *Arbiter) checkPolicy(t *tickets.Ticket) DenyReason {
	if !t.IsSettled() {
		return ReasonNotPaid
	}

	now := a.clock.Now()
	if now.Before(t.ValidFrom) {
		return ReasonNotYetValid
	}
	if now.After(t.ValidUntil) {
		return ReasonExpired
	}

	return a.checkRedemption(t)
}

// checkRedemption applies the entitlement's redemption-count policy.
func (a *Arbiter) checkRedemption(t *tickets.Ticket) DenyReason {
	switch {
	case t.IsVoided():
		return ReasonVoided
	case t.Entitlement == tickets.EntitlementSingleEntry:
		if t.RedemptionState != tickets.RedemptionIssued {
			return ReasonAlreadyRedeemed
		}
	case t.Entitlement == tickets.EntitlementMultiEntry:
		if t.RedemptionCount >= t.MaxRedemptions {
			return ReasonAlreadyRedeemed
		}
	}
	// Day passes re-admit freely within the window.

	return ""
}
