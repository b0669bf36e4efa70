package api

import "net/http"

type healthBody struct {
	OK    bool   `json:"ok"`
	DB    string `json:"db"`
	Error string `json:"error,omitempty"`
}

// Health probes the database with a trivial query.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		respondJSON(w, http.StatusInternalServerError, healthBody{OK: false, DB: "disconnected", Error: err.Error()})
		return
	}
	respondJSON(w, http.StatusOK, healthBody{OK: true, DB: "connected"})
}
