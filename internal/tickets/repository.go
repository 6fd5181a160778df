package tickets

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotFound        = errors.New("ticket not found")
	ErrAlreadyExists   = errors.New("ticket already exists")
	ErrVersionConflict = errors.New("ticket version conflict")
)

// Ledger is the durable store of ticket records. All mutations go through
// CompareAndSwap; there is deliberately no plain overwrite. The backing store
// must make CompareAndSwap linearizable per ticket.
type Ledger interface {
	Get(ctx context.Context, id uuid.UUID) (*Ticket, error)
	Create(ctx context.Context, ticket *Ticket) error
	CompareAndSwap(ctx context.Context, expectedVersion int64, ticket *Ticket) error

	ListFlagged(ctx context.Context, limit, offset int) ([]Ticket, int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a PostgreSQL-backed ledger.
func NewRepository(db *gorm.DB) Ledger {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*Ticket, error) {
	var ticket Ticket
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&ticket).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

func (r *repository) Create(ctx context.Context, ticket *Ticket) error {
	err := r.db.WithContext(ctx).Create(ticket).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

// CompareAndSwap commits the mutated ticket only if the stored version still
// matches expectedVersion. The WHERE clause on (id, version) makes the update
// atomic per row; a zero rows-affected result means some concurrent writer
// won and the caller must re-read and retry.
func (r *repository) CompareAndSwap(ctx context.Context, expectedVersion int64, ticket *Ticket) error {
	updates := map[string]interface{}{
		"payment_state":    ticket.PaymentState,
		"redemption_state": ticket.RedemptionState,
		"redemption_count": ticket.RedemptionCount,
		"review_flagged":   ticket.ReviewFlagged,
		"version":          expectedVersion + 1,
		"updated_at":       time.Now().UTC(),
	}

	result := r.db.WithContext(ctx).
		Model(&Ticket{}).
		Where("id = ? AND version = ?", ticket.ID, expectedVersion).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		// Distinguish a lost race from a missing row.
		var count int64
		if err := r.db.WithContext(ctx).Model(&Ticket{}).Where("id = ?", ticket.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrVersionConflict
	}

	ticket.Version = expectedVersion + 1
	return nil
}

func (r *repository) ListFlagged(ctx context.Context, limit, offset int) ([]Ticket, int64, error) {
	if limit <= 0 {
		limit = 20
	}

	var totalCount int64
	baseQuery := r.db.WithContext(ctx).Model(&Ticket{}).Where("review_flagged = ?", true)
	if err := baseQuery.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	var flagged []Ticket
	err := baseQuery.
		Order("updated_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&flagged).Error

	return flagged, totalCount, err
}
