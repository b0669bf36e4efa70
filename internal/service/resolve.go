package service

import (
	"context"
	"errors"

	"eventify/internal/repository"
)

// ResolutionKind reports how a CategoryRef was turned into a category id.
type ResolutionKind int

const (
	// Uncategorized means the ref was empty and the event has no category.
	Uncategorized ResolutionKind = iota
	// Found means an existing category was reused.
	Found
	// Created means a new category row was inserted by this write.
	Created
)

func (k ResolutionKind) String() string {
	switch k {
	case Found:
		return "found"
	case Created:
		return "created"
	default:
		return "uncategorized"
	}
}

// Resolution is the outcome of ResolveOrCreateCategory. An invalid ref is
// reported as a *ValidationError instead.
type Resolution struct {
	Kind       ResolutionKind
	CategoryID *uint
}

// ResolveOrCreateCategory turns ref into a category id. An explicit id must
// exist; a name is reused when present and inserted otherwise. Callers run it
// inside the same transaction as the event write.
func ResolveOrCreateCategory(ctx context.Context, categories *repository.CategoryRepository, ref CategoryRef) (Resolution, error) {
	switch {
	case ref.ID != nil:
		category, err := categories.GetByID(ctx, *ref.ID)
		if errors.Is(err, repository.ErrNotFound) {
			return Resolution{}, invalid("category_id", "category_id does not reference an existing category")
		}
		if err != nil {
			return Resolution{}, err
		}
		return Resolution{Kind: Found, CategoryID: &category.ID}, nil

	case ref.Name != "":
		category, created, err := categories.GetOrCreate(ctx, ref.Name)
		if err != nil {
			return Resolution{}, err
		}
		kind := Found
		if created {
			kind = Created
		}
		return Resolution{Kind: kind, CategoryID: &category.ID}, nil

	default:
		return Resolution{Kind: Uncategorized}, nil
	}
}
