package admission

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EventRepository persists admission decisions as an append-only audit log.
// There are deliberately no update or delete operations.
type EventRepository interface {
	Append(ctx context.Context, event *Event) error
	List(ctx context.Context, query EventListQuery) ([]Event, int64, error)
}

type eventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Append(ctx context.Context, event *Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *eventRepository) List(ctx context.Context, query EventListQuery) ([]Event, int64, error) {
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Limit <= 0 || query.Limit > 100 {
		query.Limit = 20
	}

	baseQuery := r.db.WithContext(ctx).Model(&Event{})
	if query.TicketID != nil {
		baseQuery = baseQuery.Where("ticket_id = ?", *query.TicketID)
	}
	if query.GateID != "" {
		baseQuery = baseQuery.Where("gate_id = ?", query.GateID)
	}

	var totalCount int64
	if err := baseQuery.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	var events []Event
	offset := (query.Page - 1) * query.Limit
	err := baseQuery.
		Order("scanned_at DESC").
		Offset(offset).
		Limit(query.Limit).
		Find(&events).Error

	return events, totalCount, err
}
