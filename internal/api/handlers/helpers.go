package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"roadtrip-planner/internal/domain"
	"roadtrip-planner/internal/platform/obs"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		obs.LogError(obs.FromContext(r.Context()), "encode failed", err,
			slog.String("method", r.Method), slog.String("path", r.URL.Path))
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// writeServiceError maps the domain error taxonomy onto HTTP statuses.
// Only unexpected failures are logged.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrPositionConflict):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		writeError(w, r, http.StatusBadGateway, "routing service unavailable")
	default:
		obs.LogError(obs.FromContext(r.Context()), op+" failed", err, slog.String("req_id", obs.RequestID(r.Context())))
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}

// decodeJSON reads exactly one JSON object with no unknown fields.
// An empty body leaves v untouched when allowEmpty is set.
func decodeJSON(r *http.Request, v any, allowEmpty bool) error {
	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return nil
		}
		return errors.New("invalid json body")
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("body must contain only one JSON object")
	}
	return nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := httprouter.ParamsFromContext(r.Context()).ByName(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s must be a uuid", name)
	}
	return id, nil
}

// tripAndSubject parses the trip id and, when sub is not empty, a second id.
func tripAndSubject(w http.ResponseWriter, r *http.Request, sub string) (tripID, subID uuid.UUID, ok bool) {
	tripID, err := pathUUID(r, "tripID")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return uuid.Nil, uuid.Nil, false
	}
	if sub == "" {
		return tripID, uuid.Nil, true
	}
	subID, err = pathUUID(r, sub)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return uuid.Nil, uuid.Nil, false
	}
	return tripID, subID, true
}
