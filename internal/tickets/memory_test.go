package tickets

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedTicket(t *testing.T, ledger *MemoryLedger) *Ticket {
	t.Helper()
	ticket := &Ticket{
		ID:              uuid.New(),
		OwnerRef:        "order-7",
		Entitlement:     EntitlementSingleEntry,
		ValidFrom:       time.Now().UTC().Add(-time.Hour),
		ValidUntil:      time.Now().UTC().Add(time.Hour),
		PaymentState:    PaymentSettled,
		RedemptionState: RedemptionIssued,
		MaxRedemptions:  1,
		Version:         1,
	}
	require.NoError(t, ledger.Create(context.Background(), ticket))
	return ticket
}

func TestMemoryLedgerGetReturnsCopy(t *testing.T) {
	ledger := NewMemoryLedger()
	ticket := seedTicket(t, ledger)

	first, err := ledger.Get(context.Background(), ticket.ID)
	require.NoError(t, err)

	first.RedemptionState = RedemptionVoided

	second, err := ledger.Get(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, RedemptionIssued, second.RedemptionState)
}

func TestMemoryLedgerCreateDuplicate(t *testing.T) {
	ledger := NewMemoryLedger()
	ticket := seedTicket(t, ledger)

	err := ledger.Create(context.Background(), ticket)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestMemoryLedgerCompareAndSwap(t *testing.T) {
	ledger := NewMemoryLedger()
	ticket := seedTicket(t, ledger)

	mutated := ticket.Clone()
	mutated.RedemptionState = RedemptionAdmitted
	mutated.RedemptionCount = 1

	require.NoError(t, ledger.CompareAndSwap(context.Background(), 1, mutated))
	assert.Equal(t, int64(2), mutated.Version)

	// A write still carrying the old version must lose.
	stale := ticket.Clone()
	stale.RedemptionState = RedemptionVoided
	err := ledger.CompareAndSwap(context.Background(), 1, stale)
	assert.ErrorIs(t, err, ErrVersionConflict)

	current, err := ledger.Get(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, RedemptionAdmitted, current.RedemptionState)
	assert.Equal(t, int64(2), current.Version)
}

func TestMemoryLedgerCompareAndSwapUnknownTicket(t *testing.T) {
	ledger := NewMemoryLedger()

	ghost := &Ticket{ID: uuid.New(), Version: 1}
	err := ledger.CompareAndSwap(context.Background(), 1, ghost)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryLedgerConcurrentCASSingleWinner(t *testing.T) {
	ledger := NewMemoryLedger()
	ticket := seedTicket(t, ledger)

	const attempts = 32
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mutated := ticket.Clone()
			mutated.RedemptionState = RedemptionAdmitted
			mutated.RedemptionCount = 1
			results <- ledger.CompareAndSwap(context.Background(), 1, mutated)
		}()
	}
	wg.Wait()
	close(results)

	var wins, conflicts int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case err == ErrVersionConflict:
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, wins)
	assert.Equal(t, attempts-1, conflicts)
}

func TestMemoryLedgerListFlagged(t *testing.T) {
	ledger := NewMemoryLedger()

	for i := 0; i < 3; i++ {
		ticket := &Ticket{
			ID:            uuid.New(),
			OwnerRef:      "order-flagged",
			Entitlement:   EntitlementSingleEntry,
			ReviewFlagged: i < 2,
			Version:       1,
		}
		require.NoError(t, ledger.Create(context.Background(), ticket))
	}

	flagged, total, err := ledger.ListFlagged(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, flagged, 2)

	page, total, err := ledger.ListFlagged(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, page, 1)
}
