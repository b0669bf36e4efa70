package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"eventify/internal/model"
)

// CacheKey is the fixed key holding the last known event list.
const CacheKey = "eventify-events-cache"

// SnapshotStore is the durable side of the client cache.
type SnapshotStore interface {
	// ReadSnapshot returns the stored list; ok is false when none was written.
	ReadSnapshot(ctx context.Context) (events []model.Event, ok bool, err error)
	WriteSnapshot(ctx context.Context, events []model.Event) error
}

// BadgerSnapshot keeps the snapshot as one JSON value in badger.
type BadgerSnapshot struct {
	db    *badger.DB
	owned bool
}

// OpenBadgerSnapshot opens (or creates) a badger directory at dir. An empty
// dir opens an in-memory store.
func OpenBadgerSnapshot(dir string) (*BadgerSnapshot, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}
	snap := NewBadgerSnapshot(db)
	snap.owned = true
	return snap, nil
}

// NewBadgerSnapshot uses an already open db. Close leaves it open.
func NewBadgerSnapshot(db *badger.DB) *BadgerSnapshot {
	return &BadgerSnapshot{db: db}
}

func (s *BadgerSnapshot) ReadSnapshot(ctx context.Context) ([]model.Event, bool, error) {
	var events []model.Event
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(CacheKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &events)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read snapshot: %w", err)
	}
	return events, true, nil
}

func (s *BadgerSnapshot) WriteSnapshot(ctx context.Context, events []model.Event) error {
	if events == nil {
		events = []model.Event{}
	}
	data, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(CacheKey), data)
	})
}

// Close closes the db if OpenBadgerSnapshot opened it.
func (s *BadgerSnapshot) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}
