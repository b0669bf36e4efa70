package client

import (
	"context"
	"sync"

	"eventify/internal/logging"
	"eventify/internal/model"
)

// Source names where the in-memory list came from on the last Load.
type Source int

const (
	SourceEmpty Source = iota
	SourceNetwork
	SourceSnapshot
)

func (s Source) String() string {
	switch s {
	case SourceNetwork:
		return "network"
	case SourceSnapshot:
		return "snapshot"
	default:
		return "empty"
	}
}

// EventAPI is the authoritative side of the cache.
type EventAPI interface {
	ListEvents(ctx context.Context) ([]model.Event, error)
	CreateEvent(ctx context.Context, fields map[string]any) (model.Event, error)
	UpdateEvent(ctx context.Context, id uint, fields map[string]any) (model.Event, error)
	SetDone(ctx context.Context, id uint, done bool) (model.Event, error)
	DeleteEvent(ctx context.Context, id uint) error
}

// Repository holds the in-memory event list. It prefers the server, falls
// back to the snapshot, and only ever writes the snapshot from a
// server-confirmed state.
type Repository struct {
	api  EventAPI
	snap SnapshotStore

	mu     sync.Mutex
	events []model.Event
}

func NewRepository(api EventAPI, snap SnapshotStore) *Repository {
	return &Repository{api: api, snap: snap, events: []model.Event{}}
}

// Events returns a copy of the current list.
func (r *Repository) Events() []model.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Event, len(r.events))
	copy(out, r.events)
	return out
}

// FetchAuthoritative returns the server list without touching local state.
func (r *Repository) FetchAuthoritative(ctx context.Context) ([]model.Event, error) {
	return r.api.ListEvents(ctx)
}

// Load refreshes the list from the server and mirrors it to the snapshot. On
// failure it falls back to the snapshot, if any. If ctx is done by the time a
// result arrives, nothing is applied. The returned error is the network error
// when the list came from the snapshot or stayed empty.
func (r *Repository) Load(ctx context.Context) (Source, error) {
	events, fetchErr := r.FetchAuthoritative(ctx)
	if fetchErr == nil {
		if ctx.Err() != nil {
			return SourceEmpty, ctx.Err()
		}
		r.replace(ctx, events)
		return SourceNetwork, nil
	}

	logging.Warn().Err(fetchErr).Msg("load events failed, trying snapshot")
	cached, ok, err := r.snap.ReadSnapshot(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("read snapshot")
		return SourceEmpty, fetchErr
	}
	if !ok || ctx.Err() != nil {
		return SourceEmpty, fetchErr
	}

	r.mu.Lock()
	r.events = cached
	r.mu.Unlock()
	return SourceSnapshot, fetchErr
}

// Add creates an event and appends the server echo.
func (r *Repository) Add(ctx context.Context, fields map[string]any) (model.Event, error) {
	created, err := r.api.CreateEvent(ctx, fields)
	if err != nil {
		return model.Event{}, err
	}
	r.apply(ctx, func(events []model.Event) []model.Event {
		return append(events, created)
	})
	return created, nil
}

// Update sends a partial update and swaps in the server echo.
func (r *Repository) Update(ctx context.Context, id uint, fields map[string]any) (model.Event, error) {
	updated, err := r.api.UpdateEvent(ctx, id, fields)
	if err != nil {
		return model.Event{}, err
	}
	r.apply(ctx, replaceByID(updated))
	return updated, nil
}

// ToggleDone flips done for an event in the current list. Unknown ids are a
// no-op, as there is nothing to flip.
func (r *Repository) ToggleDone(ctx context.Context, id uint) (model.Event, bool, error) {
	current, ok := r.find(id)
	if !ok {
		return model.Event{}, false, nil
	}
	updated, err := r.api.UpdateEvent(ctx, id, map[string]any{"done": !current.Done})
	if err != nil {
		return model.Event{}, false, err
	}
	r.apply(ctx, replaceByID(updated))
	return updated, true, nil
}

// SetDone sets done through the dedicated endpoint.
func (r *Repository) SetDone(ctx context.Context, id uint, done bool) (model.Event, error) {
	updated, err := r.api.SetDone(ctx, id, done)
	if err != nil {
		return model.Event{}, err
	}
	r.apply(ctx, replaceByID(updated))
	return updated, nil
}

// Remove deletes an event and drops it from the list.
func (r *Repository) Remove(ctx context.Context, id uint) error {
	if err := r.api.DeleteEvent(ctx, id); err != nil {
		return err
	}
	r.apply(ctx, func(events []model.Event) []model.Event {
		out := events[:0]
		for _, e := range events {
			if e.ID != id {
				out = append(out, e)
			}
		}
		return out
	})
	return nil
}

func (r *Repository) find(id uint) (model.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.ID == id {
			return e, true
		}
	}
	return model.Event{}, false
}

func (r *Repository) replace(ctx context.Context, events []model.Event) {
	r.apply(ctx, func([]model.Event) []model.Event { return events })
}

// apply derives the next list from a copy of the current one, then mirrors
// it. The lock is held across the write so snapshots land in list order.
// Snapshot failures are logged and do not fail the mutation.
func (r *Repository) apply(ctx context.Context, next func([]model.Event) []model.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current := make([]model.Event, len(r.events))
	copy(current, r.events)
	r.events = next(current)

	if err := r.snap.WriteSnapshot(ctx, r.events); err != nil {
		logging.Warn().Err(err).Msg("write snapshot")
	}
}

func replaceByID(updated model.Event) func([]model.Event) []model.Event {
	return func(events []model.Event) []model.Event {
		for i := range events {
			if events[i].ID == updated.ID {
				events[i] = updated
			}
		}
		return events
	}
}
