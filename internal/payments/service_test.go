package payments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkgate/internal/tickets"
	"parkgate/pkg/logger"
)

func newTestReconciler(t *testing.T) (Service, *tickets.MemoryLedger) {
	t.Helper()
	ledger := tickets.NewMemoryLedger()
	svc := NewService(ledger, tickets.DefaultRetryPolicy(), logger.GetDefault())
	return svc, ledger
}

func seedPendingTicket(t *testing.T, ledger *tickets.MemoryLedger, mutate func(*tickets.Ticket)) *tickets.Ticket {
	t.Helper()
	now := time.Now().UTC()
	ticket := &tickets.Ticket{
		ID:              uuid.New(),
		OwnerRef:        "order-55",
		Entitlement:     tickets.EntitlementSingleEntry,
		ValidFrom:       now.Add(-time.Hour),
		ValidUntil:      now.Add(time.Hour),
		PaymentState:    tickets.PaymentPending,
		RedemptionState: tickets.RedemptionIssued,
		MaxRedemptions:  1,
		Version:         1,
	}
	if mutate != nil {
		mutate(ticket)
	}
	require.NoError(t, ledger.Create(context.Background(), ticket))
	return ticket
}

func TestSettlementSuccess(t *testing.T) {
	svc, ledger := newTestReconciler(t)
	ticket := seedPendingTicket(t, ledger, nil)

	require.NoError(t, svc.HandleSettlement(context.Background(), ticket.ID, SettlementSuccess))

	stored, err := ledger.Get(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, tickets.PaymentSettled, stored.PaymentState)
	assert.Equal(t, tickets.RedemptionIssued, stored.RedemptionState)
}

func TestSettlementFailureDisputes(t *testing.T) {
	svc, ledger := newTestReconciler(t)
	ticket := seedPendingTicket(t, ledger, nil)

	require.NoError(t, svc.HandleSettlement(context.Background(), ticket.ID, SettlementFailure))

	stored, err := ledger.Get(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, tickets.PaymentDisputed, stored.PaymentState)
}

func TestSettlementRedeliveryIsIdempotent(t *testing.T) {
	svc, ledger := newTestReconciler(t)
	ticket := seedPendingTicket(t, ledger, nil)

	require.NoError(t, svc.HandleSettlement(context.Background(), ticket.ID, SettlementSuccess))
	require.NoError(t, svc.HandleSettlement(context.Background(), ticket.ID, SettlementSuccess))

	stored, err := ledger.Get(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, tickets.PaymentSettled, stored.PaymentState)
	// The second delivery observed the target state and wrote nothing.
	assert.Equal(t, int64(2), stored.Version)
}

func TestSettlementIgnoredAfterRefund(t *testing.T) {
	svc, ledger := newTestReconciler(t)
	ticket := seedPendingTicket(t, ledger, func(tk *tickets.Ticket) {
		tk.PaymentState = tickets.PaymentRefunded
	})

	require.NoError(t, svc.HandleSettlement(context.Background(), ticket.ID, SettlementSuccess))

	stored, err := ledger.Get(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, tickets.PaymentRefunded, stored.PaymentState)
	assert.Equal(t, int64(1), stored.Version)
}

func TestSettlementRejectsUnknownResult(t *testing.T) {
	svc, ledger := newTestReconciler(t)
	ticket := seedPendingTicket(t, ledger, nil)

	err := svc.HandleSettlement(context.Background(), ticket.ID, SettlementResult("MAYBE"))
	assert.Error(t, err)
}

func TestSettlementUnknownTicket(t *testing.T) {
	svc, _ := newTestReconciler(t)

	err := svc.HandleSettlement(context.Background(), uuid.New(), SettlementSuccess)
	assert.ErrorIs(t, err, tickets.ErrNotFound)
}

func TestRefundVoidsUnredeemedTicket(t *testing.T) {
	svc, ledger := newTestReconciler(t)
	ticket := seedPendingTicket(t, ledger, func(tk *tickets.Ticket) {
		tk.PaymentState = tickets.PaymentSettled
	})

	require.NoError(t, svc.HandleRefund(context.Background(), ticket.ID))

	stored, err := ledger.Get(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, tickets.PaymentRefunded, stored.PaymentState)
	assert.Equal(t, tickets.RedemptionVoided, stored.RedemptionState)
	assert.False(t, stored.ReviewFlagged)
}

func TestRefundAfterAdmissionFlagsForReview(t *testing.T) {
	svc, ledger := newTestReconciler(t)
	ticket := seedPendingTicket(t, ledger, func(tk *tickets.Ticket) {
		tk.PaymentState = tickets.PaymentSettled
		tk.RedemptionState = tickets.RedemptionAdmitted
		tk.RedemptionCount = 1
	})

	require.NoError(t, svc.HandleRefund(context.Background(), ticket.ID))

	stored, err := ledger.Get(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, tickets.PaymentRefunded, stored.PaymentState)
	// The physical admission already happened; the record keeps it and the
	// ticket lands in the review queue instead.
	assert.Equal(t, tickets.RedemptionAdmitted, stored.RedemptionState)
	assert.True(t, stored.ReviewFlagged)

	flagged, total, err := ledger.ListFlagged(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, flagged, 1)
	assert.Equal(t, ticket.ID, flagged[0].ID)
}

func TestRefundPartiallyConsumedMultiEntry(t *testing.T) {
	svc, ledger := newTestReconciler(t)
	ticket := seedPendingTicket(t, ledger, func(tk *tickets.Ticket) {
		tk.Entitlement = tickets.EntitlementMultiEntry
		tk.PaymentState = tickets.PaymentSettled
		tk.MaxRedemptions = 3
		tk.RedemptionCount = 1
	})

	require.NoError(t, svc.HandleRefund(context.Background(), ticket.ID))

	stored, err := ledger.Get(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, tickets.RedemptionVoided, stored.RedemptionState)
	assert.True(t, stored.ReviewFlagged)
}

func TestRefundRedeliveryIsIdempotent(t *testing.T) {
	svc, ledger := newTestReconciler(t)
	ticket := seedPendingTicket(t, ledger, func(tk *tickets.Ticket) {
		tk.PaymentState = tickets.PaymentSettled
	})

	require.NoError(t, svc.HandleRefund(context.Background(), ticket.ID))
	require.NoError(t, svc.HandleRefund(context.Background(), ticket.ID))

	stored, err := ledger.Get(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.Version)
}
