package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"

	"eventify/internal/logging"
	"eventify/internal/service"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// errorBody is the shape of every error response.
type errorBody struct {
	Error string `json:"error"`
}

type okBody struct {
	OK bool `json:"ok"`
}

// respondJSON writes v as JSON with the given status.
func respondJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Debug().Err(err).Msg("write response")
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorBody{Error: msg})
}

// respondErr maps service errors to status codes. Anything unrecognized is a
// 500 carrying the underlying message.
func respondErr(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		respondError(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, service.ErrEventNotFound):
		respondError(w, http.StatusNotFound, "Event not found")
	case errors.Is(err, service.ErrCategoryNotFound):
		respondError(w, http.StatusNotFound, "Category not found")
	case errors.Is(err, service.ErrCategoryInUse):
		respondError(w, http.StatusConflict, "Cannot delete category: it is used by events")
	case errors.Is(err, service.ErrCategoryExists):
		respondError(w, http.StatusConflict, "Category name already exists")
	default:
		logging.Error().Err(err).
			Str("request_id", chimiddleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("api error")
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// readPayload decodes the request body as a JSON object.
func readPayload(w http.ResponseWriter, r *http.Request) (service.Payload, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return nil, false
		}
		respondErr(w, r, err)
		return nil, false
	}
	p, err := service.DecodePayload(body)
	if err != nil {
		respondErr(w, r, err)
		return nil, false
	}
	return p, true
}

// pathID parses the {id} URL parameter. ok is false for anything that cannot
// be a row id.
func pathID(r *http.Request) (uint, bool) {
	raw := strings.TrimSpace(chi.URLParam(r, "id"))
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}
