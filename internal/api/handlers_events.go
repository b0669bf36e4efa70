package api

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"eventify/internal/repository"
	"eventify/internal/service"
)

// ListEvents serves GET /api/events?done=&category_id=&dateFrom=&dateTo=&q=.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.List(r.Context(), eventFilter(r))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, events)
}

// eventFilter reads list filters. Unrecognized done values are ignored and a
// category_id that is not a row id matches nothing.
func eventFilter(r *http.Request) repository.EventFilter {
	q := r.URL.Query()
	var f repository.EventFilter

	switch q.Get("done") {
	case "0":
		done := false
		f.Done = &done
	case "1":
		done := true
		f.Done = &done
	}

	if raw := strings.TrimSpace(q.Get("category_id")); raw != "" {
		var id uint
		if n, err := strconv.ParseFloat(raw, 64); err == nil && n >= 1 && n <= math.MaxUint32 && n == math.Trunc(n) {
			id = uint(n)
		}
		f.CategoryID = &id
	}

	f.DateFrom = q.Get("dateFrom")
	f.DateTo = q.Get("dateTo")
	f.Search = q.Get("q")
	return f
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondErr(w, r, service.ErrEventNotFound)
		return
	}
	event, err := h.events.Get(r.Context(), id)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, event)
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	p, ok := readPayload(w, r)
	if !ok {
		return
	}
	draft, err := service.ParseEventDraft(p)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	event, err := h.events.Create(r.Context(), draft)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, event)
}

// UpdateEvent serves PATCH /api/events/{id} with the permissive merge policy.
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	p, ok := readPayload(w, r)
	if !ok {
		return
	}
	patch, err := service.ParseEventPatch(p, service.PermissiveFieldMerge)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	id, ok := pathID(r)
	if !ok {
		respondErr(w, r, service.ErrEventNotFound)
		return
	}
	event, err := h.events.Update(r.Context(), id, patch)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, event)
}

// SetEventDone serves PATCH /api/events/{id}/done.
func (h *Handler) SetEventDone(w http.ResponseWriter, r *http.Request) {
	p, ok := readPayload(w, r)
	if !ok {
		return
	}
	done, err := service.ParseDone(p["done"])
	if err != nil {
		respondErr(w, r, err)
		return
	}
	id, ok := pathID(r)
	if !ok {
		respondErr(w, r, service.ErrEventNotFound)
		return
	}
	event, err := h.events.SetDone(r.Context(), id, done)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, event)
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondErr(w, r, service.ErrEventNotFound)
		return
	}
	if err := h.events.Delete(r.Context(), id); err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, okBody{OK: true})
}
