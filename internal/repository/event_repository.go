package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"eventify/internal/model"
)

// EventFilter narrows ListEvents. Nil fields are not applied.
type EventFilter struct {
	Done       *bool
	CategoryID *uint
	DateFrom   string // inclusive
	DateTo     string // inclusive
	Search     string // substring of title or notes
}

// EventRepository handles CRUD for events.
type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

// joined selects events together with the display name of their category.
func (r *EventRepository) joined(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&model.Event{}).
		Select("events.*, categories.name AS category").
		Joins("LEFT JOIN categories ON categories.id = events.category_id")
}

// List returns events ordered by date, then time, then newest id first.
func (r *EventRepository) List(ctx context.Context, f EventFilter) ([]model.Event, error) {
	q := r.joined(ctx)
	if f.Done != nil {
		q = q.Where("events.done = ?", *f.Done)
	}
	if f.CategoryID != nil {
		q = q.Where("events.category_id = ?", *f.CategoryID)
	}
	if f.DateFrom != "" {
		q = q.Where("events.date >= ?", f.DateFrom)
	}
	if f.DateTo != "" {
		q = q.Where("events.date <= ?", f.DateTo)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + s + "%"
		q = q.Where("(events.title LIKE ? OR events.notes LIKE ?)", like, like)
	}

	events := []model.Event{}
	if err := q.Order("events.date ASC, events.time ASC, events.id DESC").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// FindByID returns the joined event, or ErrNotFound.
func (r *EventRepository) FindByID(ctx context.Context, id uint) (*model.Event, error) {
	var event model.Event
	err := r.joined(ctx).Where("events.id = ?", id).Take(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find event: %w", err)
	}
	return &event, nil
}

// Exists reports whether an event row with this id is present.
func (r *EventRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Event{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, fmt.Errorf("find event: %w", err)
	}
	return n > 0, nil
}

func (r *EventRepository) Create(ctx context.Context, event *model.Event) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// Update applies columns to one event in a single statement; updated_at is
// refreshed by gorm.
func (r *EventRepository) Update(ctx context.Context, id uint, columns map[string]any) error {
	res := r.db.WithContext(ctx).Model(&model.Event{}).Where("id = ?", id).Updates(columns)
	if res.Error != nil {
		return fmt.Errorf("update event: %w", res.Error)
	}
	return nil
}

// Delete removes an event, returning ErrNotFound when nothing matched.
func (r *EventRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Event{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete event: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
