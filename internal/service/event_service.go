package service

import (
	"context"
	"errors"

	"eventify/internal/logging"
	"eventify/internal/metrics"
	"eventify/internal/model"
	"eventify/internal/repository"
)

// EventService wraps event-related business logic.
type EventService struct {
	store *repository.Store
}

func NewEventService(store *repository.Store) *EventService {
	return &EventService{store: store}
}

func (s *EventService) List(ctx context.Context, filter repository.EventFilter) ([]model.Event, error) {
	return s.store.Events.List(ctx, filter)
}

func (s *EventService) Get(ctx context.Context, id uint) (*model.Event, error) {
	event, err := s.store.Events.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrEventNotFound
	}
	return event, err
}

// Create resolves the category and inserts the event in one transaction and
// returns the joined row. New events always start not done.
func (s *EventService) Create(ctx context.Context, draft EventDraft) (*model.Event, error) {
	var (
		created    *model.Event
		resolution Resolution
	)
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		resolution, err = ResolveOrCreateCategory(ctx, tx.Categories, draft.Category)
		if err != nil {
			return err
		}

		event := model.Event{
			Title:      draft.Title,
			Date:       draft.Date,
			Time:       draft.Time,
			CategoryID: resolution.CategoryID,
			Priority:   draft.Priority,
			Notes:      draft.Notes,
			Done:       false,
		}
		if err := tx.Events.Create(ctx, &event); err != nil {
			return err
		}

		created, err = tx.Events.FindByID(ctx, event.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	observeResolution(resolution, created.ID)
	return created, nil
}

// Update applies a partial update and returns the refreshed joined row. The
// category is resolved only when the patch names one.
func (s *EventService) Update(ctx context.Context, id uint, patch EventPatch) (*model.Event, error) {
	var (
		updated    *model.Event
		resolution *Resolution
	)
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		ok, err := tx.Events.Exists(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return ErrEventNotFound
		}

		columns := make(map[string]any, len(patch.Columns)+1)
		for k, v := range patch.Columns {
			columns[k] = v
		}
		if patch.Category != nil {
			res, err := ResolveOrCreateCategory(ctx, tx.Categories, *patch.Category)
			if err != nil {
				return err
			}
			resolution = &res
			columns["category_id"] = res.CategoryID
		}

		if err := tx.Events.Update(ctx, id, columns); err != nil {
			return err
		}
		updated, err = tx.Events.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	if resolution != nil {
		observeResolution(*resolution, id)
	}
	return updated, nil
}

// SetDone sets only the done flag. It goes through Update so both paths end
// in the same row state.
func (s *EventService) SetDone(ctx context.Context, id uint, done bool) (*model.Event, error) {
	return s.Update(ctx, id, EventPatch{Columns: map[string]any{"done": done}})
}

func (s *EventService) Delete(ctx context.Context, id uint) error {
	err := s.store.Events.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrEventNotFound
	}
	return err
}

func observeResolution(res Resolution, eventID uint) {
	metrics.CategoryResolutions.WithLabelValues(res.Kind.String()).Inc()
	if res.Kind == Created {
		logging.Info().Uint("event_id", eventID).Uint("category_id", *res.CategoryID).Msg("category created by event write")
	}
}
