package api

import (
	"net/http"

	"eventify/internal/service"
)

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.List(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, categories)
}

func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondErr(w, r, service.ErrCategoryNotFound)
		return
	}
	category, err := h.categories.Get(r.Context(), id)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, category)
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	p, ok := readPayload(w, r)
	if !ok {
		return
	}
	draft, err := service.ParseCategoryDraft(p)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	category, err := h.categories.Create(r.Context(), draft)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, category)
}

// UpdateCategory replaces name and description; a missing description clears it.
func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	p, ok := readPayload(w, r)
	if !ok {
		return
	}
	draft, err := service.ParseCategoryDraft(p)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	id, ok := pathID(r)
	if !ok {
		respondErr(w, r, service.ErrCategoryNotFound)
		return
	}
	category, err := h.categories.Update(r.Context(), id, draft)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, category)
}

// DeleteCategory refuses with 409 while any event references the category.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondErr(w, r, service.ErrCategoryNotFound)
		return
	}
	if err := h.categories.Delete(r.Context(), id); err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, okBody{OK: true})
}
