package tickets

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"parkgate/internal/shared/clock"
	"parkgate/internal/users"
)

var ErrInvalidRequest = errors.New("invalid ticket request")

// Service interface defines the contract for ticket issuance and
// administrative ticket operations
type Service interface {
	Issue(ctx context.Context, req IssueRequest) (*IssueResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*Ticket, error)
	Payload(ctx context.Context, id uuid.UUID) (string, error)
	Void(ctx context.Context, id uuid.UUID, actorRole users.Role) error
	ListFlagged(ctx context.Context, limit, offset int) ([]Ticket, int64, error)
}

type service struct {
	ledger Ledger
	codec  *Codec
	clock  clock.Clock
	retry  RetryPolicy
}

// NewService creates a new ticket service instance
func NewService(ledger Ledger, codec *Codec, clk clock.Clock, retry RetryPolicy) Service {
	return &service{
		ledger: ledger,
		codec:  codec,
		clock:  clk,
		retry:  retry,
	}
}

// Issue creates a ticket in PENDING/ISSUED state and seals its payload.
// Payment settlement arrives later through the reconciler webhook.
func (s *service) Issue(ctx context.Context, req IssueRequest) (*IssueResponse, error) {
	entitlement := Entitlement(req.Entitlement)
	if !entitlement.IsValid() {
		return nil, fmt.Errorf("%w: unknown entitlement %q", ErrInvalidRequest, req.Entitlement)
	}
	if !req.ValidUntil.After(req.ValidFrom) {
		return nil, fmt.Errorf("%w: validity window end must be after start", ErrInvalidRequest)
	}
	if req.ValidUntil.Before(s.clock.Now()) {
		return nil, fmt.Errorf("%w: validity window lies entirely in the past", ErrInvalidRequest)
	}

	maxRedemptions := 1
	switch entitlement {
	case EntitlementMultiEntry:
		if req.MaxRedemptions < 1 {
			return nil, fmt.Errorf("%w: multi-entry tickets need max_redemptions >= 1", ErrInvalidRequest)
		}
		maxRedemptions = req.MaxRedemptions
	case EntitlementDayPass:
		maxRedemptions = 0 // unlimited within the window
	}

	ticket := &Ticket{
		ID:              uuid.New(),
		OwnerRef:        req.OwnerRef,
		Entitlement:     entitlement,
		ValidFrom:       req.ValidFrom.UTC(),
		ValidUntil:      req.ValidUntil.UTC(),
		PaymentState:    PaymentPending,
		RedemptionState: RedemptionIssued,
		MaxRedemptions:  maxRedemptions,
		Version:         1,
	}

	seal, err := s.codec.Seal(ticket)
	if err != nil {
		return nil, fmt.Errorf("failed to seal ticket: %w", err)
	}
	ticket.Seal = seal

	if err := s.ledger.Create(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}

	payload, err := s.codec.Encode(ticket)
	if err != nil {
		return nil, fmt.Errorf("failed to encode ticket payload: %w", err)
	}

	resp := &IssueResponse{
		Ticket:  ticket.ToResponse(),
		Payload: payload,
	}
	return resp, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Ticket, error) {
	return s.ledger.Get(ctx, id)
}

// Payload re-encodes the scannable payload for an existing ticket, e.g. for
// re-issuing a QR code to the visitor app.
func (s *service) Payload(ctx context.Context, id uuid.UUID) (string, error) {
	ticket, err := s.ledger.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return s.codec.Encode(ticket)
}

// Void marks a ticket VOIDED. Requires MANAGER or above. Voiding an already
// voided ticket is a no-op so staff retries stay safe.
func (s *service) Void(ctx context.Context, id uuid.UUID, actorRole users.Role) error {
	if !actorRole.IsAdministrative() {
		return users.ErrForbidden
	}

	return s.retry.Run(ctx, func() error {
		ticket, err := s.ledger.Get(ctx, id)
		if err != nil {
			return err
		}
		if ticket.RedemptionState == RedemptionVoided {
			return nil
		}

		mutated := ticket.Clone()
		mutated.RedemptionState = RedemptionVoided
		return s.ledger.CompareAndSwap(ctx, ticket.Version, mutated)
	})
}

func (s *service) ListFlagged(ctx context.Context, limit, offset int) ([]Ticket, int64, error) {
	return s.ledger.ListFlagged(ctx, limit, offset)
}
