package store

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"

	"medremind-backend/internal/model"
)

// Store defines the interface for all database operations.
// Events are append-only: there is deliberately no update or delete.
type Store interface {
	AppendEvent(ctx context.Context, identity, medicine, timeOfDay string, status model.Status) error
	CountEvents(ctx context.Context, identity string, filter EventFilter) (int64, error)
	DB() *gorm.DB
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db    *gorm.DB
	clock clockwork.Clock
}

// NewGormStore creates a new GORM-backed store. The clock supplies the local
// date stamped on appended events.
func NewGormStore(db *gorm.DB, clock clockwork.Clock) Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &gormStore{db: db, clock: clock}
}

// DB exposes the underlying connection for subscription management.
func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// AppendEvent inserts one event stamped with today's local date.
func (s *gormStore) AppendEvent(ctx context.Context, identity, medicine, timeOfDay string, status model.Status) error {
	event := model.MedicationEvent{
		Identity:   identity,
		Medicine:   medicine,
		TimeOfDay:  timeOfDay,
		Status:     status,
		OccurredOn: s.clock.Now().Format(model.DateLayout),
	}
	if err := s.db.WithContext(ctx).Create(&event).Error; err != nil {
		return fmt.Errorf("%w: append %s event for %s: %w", ErrStorage, status, identity, err)
	}
	return nil
}

// CountEvents counts the events of identity matching filter.
func (s *gormStore) CountEvents(ctx context.Context, identity string, filter EventFilter) (int64, error) {
	q := s.db.WithContext(ctx).
		Model(&model.MedicationEvent{}).
		Where("identity = ?", identity)

	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.NotStatus != "" {
		q = q.Where("status <> ?", filter.NotStatus)
	}
	if filter.OnOrAfter != "" {
		q = q.Where("occurred_on >= ?", filter.OnOrAfter)
	}
	if filter.On != "" {
		q = q.Where("occurred_on = ?", filter.On)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("%w: count events for %s: %w", ErrStorage, identity, err)
	}
	return count, nil
}
