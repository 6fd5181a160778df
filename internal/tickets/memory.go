package tickets

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryLedger is an in-process Ledger for local runs and tests. It gives the
// same per-ticket linearizable compare-and-swap semantics as the PostgreSQL
// ledger: the mutex spans each read-check-write, so exactly one of any set of
// concurrent CAS attempts with the same expected version succeeds.
type MemoryLedger struct {
	mu      sync.Mutex
	tickets map[uuid.UUID]Ticket
}

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		tickets: make(map[uuid.UUID]Ticket),
	}
}

func (m *MemoryLedger) Get(ctx context.Context, id uuid.UUID) (*Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ticket, ok := m.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := ticket
	return &cp, nil
}

func (m *MemoryLedger) Create(ctx context.Context, ticket *Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tickets[ticket.ID]; ok {
		return ErrAlreadyExists
	}

	now := time.Now().UTC()
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = now
	}
	ticket.UpdatedAt = now
	m.tickets[ticket.ID] = *ticket
	return nil
}

func (m *MemoryLedger) CompareAndSwap(ctx context.Context, expectedVersion int64, ticket *Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.tickets[ticket.ID]
	if !ok {
		return ErrNotFound
	}
	if current.Version != expectedVersion {
		return ErrVersionConflict
	}

	next := *ticket
	next.Version = expectedVersion + 1
	next.CreatedAt = current.CreatedAt
	next.UpdatedAt = time.Now().UTC()
	m.tickets[ticket.ID] = next
	ticket.Version = next.Version
	return nil
}

func (m *MemoryLedger) ListFlagged(ctx context.Context, limit, offset int) ([]Ticket, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limit <= 0 {
		limit = 20
	}

	var flagged []Ticket
	for _, t := range m.tickets {
		if t.ReviewFlagged {
			flagged = append(flagged, t)
		}
	}
	sort.Slice(flagged, func(i, j int) bool {
		return flagged[i].UpdatedAt.After(flagged[j].UpdatedAt)
	})

	total := int64(len(flagged))
	if offset >= len(flagged) {
		return nil, total, nil
	}
	flagged = flagged[offset:]
	if len(flagged) > limit {
		flagged = flagged[:limit]
	}
	return flagged, total, nil
}
