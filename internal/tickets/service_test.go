package tickets

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkgate/internal/shared/clock"
	"parkgate/internal/users"
)

var serviceNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (Service, *MemoryLedger, *Codec) {
	t.Helper()
	ledger := NewMemoryLedger()
	codec := NewCodec([]byte("test-secret"))
	svc := NewService(ledger, codec, clock.NewFixed(serviceNow), DefaultRetryPolicy())
	return svc, ledger, codec
}

func TestIssueSingleEntry(t *testing.T) {
	svc, ledger, codec := newTestService(t)

	resp, err := svc.Issue(context.Background(), IssueRequest{
		OwnerRef:    "order-100",
		Entitlement: string(EntitlementSingleEntry),
		ValidFrom:   serviceNow,
		ValidUntil:  serviceNow.Add(12 * time.Hour),
	})
	require.NoError(t, err)

	id, err := uuid.Parse(resp.Ticket.ID)
	require.NoError(t, err)

	stored, err := ledger.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, PaymentPending, stored.PaymentState)
	assert.Equal(t, RedemptionIssued, stored.RedemptionState)
	assert.Equal(t, 1, stored.MaxRedemptions)
	assert.Equal(t, int64(1), stored.Version)
	assert.NotEmpty(t, stored.Seal)

	// The returned payload must verify and reference the stored record.
	claims, err := codec.Decode(resp.Payload)
	require.NoError(t, err)
	assert.Equal(t, stored.ID.String(), claims.TicketID)
}

func TestIssueEntitlementDefaults(t *testing.T) {
	svc, ledger, _ := newTestService(t)

	multi, err := svc.Issue(context.Background(), IssueRequest{
		OwnerRef:       "order-101",
		Entitlement:    string(EntitlementMultiEntry),
		ValidFrom:      serviceNow,
		ValidUntil:     serviceNow.Add(72 * time.Hour),
		MaxRedemptions: 3,
	})
	require.NoError(t, err)

	dayPass, err := svc.Issue(context.Background(), IssueRequest{
		OwnerRef:    "order-102",
		Entitlement: string(EntitlementDayPass),
		ValidFrom:   serviceNow,
		ValidUntil:  serviceNow.Add(12 * time.Hour),
	})
	require.NoError(t, err)

	multiStored, err := ledger.Get(context.Background(), uuid.MustParse(multi.Ticket.ID))
	require.NoError(t, err)
	assert.Equal(t, 3, multiStored.MaxRedemptions)

	dayStored, err := ledger.Get(context.Background(), uuid.MustParse(dayPass.Ticket.ID))
	require.NoError(t, err)
	assert.Equal(t, 0, dayStored.MaxRedemptions)
	assert.Equal(t, -1, dayStored.RedemptionsRemaining())
}

func TestIssueRejectsBadRequests(t *testing.T) {
	svc, _, _ := newTestService(t)

	cases := map[string]IssueRequest{
		"unknown entitlement": {
			OwnerRef:    "order-1",
			Entitlement: "SEASON_PASS",
			ValidFrom:   serviceNow,
			ValidUntil:  serviceNow.Add(time.Hour),
		},
		"inverted window": {
			OwnerRef:    "order-2",
			Entitlement: string(EntitlementSingleEntry),
			ValidFrom:   serviceNow.Add(time.Hour),
			ValidUntil:  serviceNow,
		},
		"window in the past": {
			OwnerRef:    "order-3",
			Entitlement: string(EntitlementSingleEntry),
			ValidFrom:   serviceNow.Add(-48 * time.Hour),
			ValidUntil:  serviceNow.Add(-24 * time.Hour),
		},
		"multi-entry without max": {
			OwnerRef:    "order-4",
			Entitlement: string(EntitlementMultiEntry),
			ValidFrom:   serviceNow,
			ValidUntil:  serviceNow.Add(time.Hour),
		},
	}

	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Issue(context.Background(), req)
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestVoidRequiresManager(t *testing.T) {
	svc, ledger, _ := newTestService(t)
	ticket := seedTicket(t, ledger)

	err := svc.Void(context.Background(), ticket.ID, users.RoleStaff)
	assert.ErrorIs(t, err, users.ErrForbidden)

	require.NoError(t, svc.Void(context.Background(), ticket.ID, users.RoleManager))

	stored, err := ledger.Get(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, RedemptionVoided, stored.RedemptionState)
	assert.Equal(t, int64(2), stored.Version)
}

func TestVoidIsIdempotent(t *testing.T) {
	svc, ledger, _ := newTestService(t)
	ticket := seedTicket(t, ledger)

	require.NoError(t, svc.Void(context.Background(), ticket.ID, users.RoleAdmin))
	require.NoError(t, svc.Void(context.Background(), ticket.ID, users.RoleAdmin))

	stored, err := ledger.Get(context.Background(), ticket.ID)
	require.NoError(t, err)
	// Second void observed the target state and wrote nothing.
	assert.Equal(t, int64(2), stored.Version)
}

func TestVoidUnknownTicket(t *testing.T) {
	svc, _, _ := newTestService(t)

	err := svc.Void(context.Background(), uuid.New(), users.RoleAdmin)
	assert.ErrorIs(t, err, ErrNotFound)
}
