package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store bundles the repositories over one connection or transaction.
type Store struct {
	db         *gorm.DB
	Categories *CategoryRepository
	Events     *EventRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:         db,
		Categories: NewCategoryRepository(db),
		Events:     NewEventRepository(db),
	}
}

// Transaction runs fn with a Store bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// Ping checks that the underlying database answers.
func (s *Store) Ping(ctx context.Context) error {
	return Ping(ctx, s.db)
}
