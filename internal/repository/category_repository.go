package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"eventify/internal/model"
)

// ErrNotFound is returned when a row addressed by id does not exist.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when a write collides with a unique index.
var ErrDuplicate = errors.New("duplicate key")

// CategoryRepository manages event categories.
type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) List(ctx context.Context) ([]model.Category, error) {
	categories := []model.Category{}
	if err := r.db.WithContext(ctx).Order("id DESC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, id uint) (*model.Category, error) {
	var category model.Category
	err := r.db.WithContext(ctx).First(&category, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &category, nil
}

// FindByName returns the category with exactly this name, or ErrNotFound.
func (r *CategoryRepository) FindByName(ctx context.Context, name string) (*model.Category, error) {
	var category model.Category
	err := r.db.WithContext(ctx).Where("name = ?", name).Take(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find category: %w", err)
	}
	return &category, nil
}

func (r *CategoryRepository) Create(ctx context.Context, category *model.Category) error {
	err := r.db.WithContext(ctx).Create(category).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

// GetOrCreate returns the category named name, inserting it with a null
// description when missing. created reports whether this call inserted the row.
//
// The insert ignores a unique-name conflict and re-reads, so two writers racing
// on the same new name both end up with the single surviving row.
func (r *CategoryRepository) GetOrCreate(ctx context.Context, name string) (category *model.Category, created bool, err error) {
	category, err = r.FindByName(ctx, name)
	switch {
	case err == nil:
		return category, false, nil
	case !errors.Is(err, ErrNotFound):
		return nil, false, err
	}

	category = &model.Category{Name: name}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(category)
	if res.Error != nil {
		return nil, false, fmt.Errorf("create category: %w", res.Error)
	}
	if res.RowsAffected == 1 {
		return category, true, nil
	}

	category, err = r.FindByName(ctx, name)
	if err != nil {
		return nil, false, err
	}
	return category, false, nil
}

// Update replaces name and description of an existing category.
func (r *CategoryRepository) Update(ctx context.Context, id uint, name string, description *string) (*model.Category, error) {
	category, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	err = r.db.WithContext(ctx).Model(category).
		Select("name", "description").
		Updates(model.Category{Name: name, Description: description}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrDuplicate
	}
	if err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	category.Name = name
	category.Description = description
	return category, nil
}

// CountEvents returns how many events reference the category.
func (r *CategoryRepository) CountEvents(ctx context.Context, id uint) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Event{}).Where("category_id = ?", id).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count category events: %w", err)
	}
	return n, nil
}

// Delete removes the category row, returning ErrNotFound when nothing matched.
func (r *CategoryRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Category{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete category: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
