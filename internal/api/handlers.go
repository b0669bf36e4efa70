// Package api exposes the event and category services over HTTP.
package api

import (
	"context"

	"eventify/internal/service"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds the dependencies of the HTTP handlers.
type Handler struct {
	events     *service.EventService
	categories *service.CategoryService
	db         Pinger
}

func NewHandler(events *service.EventService, categories *service.CategoryService, db Pinger) *Handler {
	return &Handler{events: events, categories: categories, db: db}
}
