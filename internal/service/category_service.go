package service

import (
	"context"
	"errors"

	"eventify/internal/model"
	"eventify/internal/repository"
)

// CategoryService provides CRUD around categories.
type CategoryService struct {
	store *repository.Store
}

func NewCategoryService(store *repository.Store) *CategoryService {
	return &CategoryService{store: store}
}

// List returns all categories, newest id first.
func (s *CategoryService) List(ctx context.Context) ([]model.Category, error) {
	return s.store.Categories.List(ctx)
}

func (s *CategoryService) Get(ctx context.Context, id uint) (*model.Category, error) {
	category, err := s.store.Categories.GetByID(ctx, id)
	return category, mapCategoryErr(err)
}

func (s *CategoryService) Create(ctx context.Context, draft CategoryDraft) (*model.Category, error) {
	category := model.Category{Name: draft.Name, Description: draft.Description}
	if err := s.store.Categories.Create(ctx, &category); err != nil {
		return nil, mapCategoryErr(err)
	}
	return &category, nil
}

// Update replaces name and description.
func (s *CategoryService) Update(ctx context.Context, id uint, draft CategoryDraft) (*model.Category, error) {
	var updated *model.Category
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		updated, err = tx.Categories.Update(ctx, id, draft.Name, draft.Description)
		return err
	})
	if err != nil {
		return nil, mapCategoryErr(err)
	}
	return updated, nil
}

// Delete removes a category that no event references. The reference count and
// the delete share one transaction.
func (s *CategoryService) Delete(ctx context.Context, id uint) error {
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		n, err := tx.Categories.CountEvents(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrCategoryInUse
		}
		return tx.Categories.Delete(ctx, id)
	})
	return mapCategoryErr(err)
}

func mapCategoryErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrCategoryNotFound
	case errors.Is(err, repository.ErrDuplicate):
		return ErrCategoryExists
	}
	return err
}
