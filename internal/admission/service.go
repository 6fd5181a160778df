package admission

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"parkgate/internal/shared/clock"
	"parkgate/internal/tickets"
	"parkgate/internal/users"
	"parkgate/pkg/logger"
)

// Publisher streams audit events to the external admission-event consumer.
// Implementations must treat the stream as append-only.
type Publisher interface {
	Publish(ctx context.Context, event *Event) error
}

// Actor identifies the authenticated staff member behind an administrative
// decision.
type Actor struct {
	ID   string
	Role users.Role
}

// Service interface defines the contract for gate-facing admission logic
type Service interface {
	Scan(ctx context.Context, req ScanRequest) (*ScanResult, error)
	OverrideAdmit(ctx context.Context, ticketID uuid.UUID, gateID string, actor Actor) (*ScanResult, error)
	ListEvents(ctx context.Context, query EventListQuery) ([]Event, int64, error)
}

// service implements the Service interface
type service struct {
	codec     *tickets.Codec
	arbiter   *Arbiter
	events    EventRepository
	publisher Publisher // optional; nil disables streaming
	clock     clock.Clock
	logger    *logger.Logger
}

// NewService creates a new admission service instance
func NewService(codec *tickets.Codec, arbiter *Arbiter, events EventRepository, publisher Publisher, clk clock.Clock, log *logger.Logger) Service {
	return &service{
		codec:     codec,
		arbiter:   arbiter,
		events:    events,
		publisher: publisher,
		clock:     clk,
		logger:    log,
	}
}

// Scan answers "can this ticket admit now, at this gate?" and records the
// outcome. Integrity verification happens before any ledger access: a forged
// payload is rejected without ever probing ticket IDs.
func (s *service) Scan(ctx context.Context, req ScanRequest) (*ScanResult, error) {
	claims, err := s.codec.Decode(req.Payload)
	if err != nil {
		if errors.Is(err, tickets.ErrIntegrity) {
			s.logger.LogSecurityEvent(ctx, req.GateID, "scan payload failed integrity verification")
			s.recordEvent(ctx, nil, req.GateID, OutcomeDenied, ReasonIntegrity, "")
			return &ScanResult{Admitted: false, Reason: ReasonIntegrity}, nil
		}
		return nil, err
	}

	// TicketID format was verified during decode.
	ticketID := uuid.MustParse(claims.TicketID)

	decision, err := s.arbiter.Arbitrate(ctx, ticketID)
	if err != nil {
		if errors.Is(err, tickets.ErrContentionExhausted) {
			s.recordEvent(ctx, &ticketID, req.GateID, OutcomeDenied, ReasonContention, "")
			return &ScanResult{Admitted: false, Reason: ReasonContention, TicketID: claims.TicketID}, nil
		}
		return nil, fmt.Errorf("admission arbitration failed: %w", err)
	}

	return s.finishDecision(ctx, decision, claims.TicketID, req.GateID, "")
}

// OverrideAdmit force-admits a ticket on a manager's authority, bypassing
// payment and validity checks but never the at-most-once guarantee.
func (s *service) OverrideAdmit(ctx context.Context, ticketID uuid.UUID, gateID string, actor Actor) (*ScanResult, error) {
	if !actor.Role.IsAdministrative() {
		return nil, users.ErrForbidden
	}

	decision, err := s.arbiter.Override(ctx, ticketID)
	if err != nil {
		if errors.Is(err, tickets.ErrContentionExhausted) {
			s.recordEvent(ctx, &ticketID, gateID, OutcomeDenied, ReasonContention, actor.ID)
			return &ScanResult{Admitted: false, Reason: ReasonContention, TicketID: ticketID.String()}, nil
		}
		return nil, fmt.Errorf("override arbitration failed: %w", err)
	}

	return s.finishDecision(ctx, decision, ticketID.String(), gateID, actor.ID)
}

func (s *service) ListEvents(ctx context.Context, query EventListQuery) ([]Event, int64, error) {
	return s.events.List(ctx, query)
}

// finishDecision records the audit event and maps the arbiter decision to the
// caller-facing result.
func (s *service) finishDecision(ctx context.Context, decision *Decision, ticketID, gateID, actorID string) (*ScanResult, error) {
	result := &ScanResult{TicketID: ticketID}

	var eventTicketID *uuid.UUID
	if id, err := uuid.Parse(ticketID); err == nil {
		eventTicketID = &id
	}

	if decision.Admitted {
		result.Admitted = true
		result.RedemptionsRemaining = decision.Ticket.RedemptionsRemaining()
		s.recordEvent(ctx, eventTicketID, gateID, OutcomeAdmitted, "", actorID)
		s.logger.LogAdmissionDecision(ctx, ticketID, gateID, string(OutcomeAdmitted), "")
		return result, nil
	}

	result.Reason = decision.Reason
	if decision.Ticket != nil {
		result.RedemptionsRemaining = decision.Ticket.RedemptionsRemaining()
	}
	s.recordEvent(ctx, eventTicketID, gateID, OutcomeDenied, decision.Reason, actorID)
	s.logger.LogAdmissionDecision(ctx, ticketID, gateID, string(OutcomeDenied), string(decision.Reason))
	return result, nil
}

// recordEvent appends to the audit log and streams the event. The admission
// decision of record is the ledger transition; audit failures are logged but
// do not reverse a committed decision.
func (s *service) recordEvent(ctx context.Context, ticketID *uuid.UUID, gateID string, outcome Outcome, reason DenyReason, actorID string) {
	event := &Event{
		ID:        uuid.New(),
		TicketID:  ticketID,
		GateID:    gateID,
		Outcome:   outcome,
		Reason:    string(reason),
		ActorID:   actorID,
		ScannedAt: s.clock.Now(),
	}

	if err := s.events.Append(ctx, event); err != nil {
		s.logger.ErrorWithContext(ctx, "failed to append admission event", err, map[string]interface{}{
			"gate_id": gateID,
			"outcome": outcome,
		})
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.ErrorWithContext(ctx, "failed to publish admission event", err, map[string]interface{}{
				"gate_id": gateID,
				"outcome": outcome,
			})
		}
	}
}
