package handlers

import (
	"net/http"
	"roadtrip-planner/internal/api/dto"
	"roadtrip-planner/internal/services"
)

type LegHandler struct {
	Legs *services.LegManager
}

func (h *LegHandler) Rebuild(w http.ResponseWriter, r *http.Request) {
	tripID, _, ok := tripAndSubject(w, r, "")
	if !ok {
		return
	}

	legs, err := h.Legs.RebuildLegSkeleton(r.Context(), tripID)
	if err != nil {
		writeServiceError(w, r, "rebuild legs", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.ListLegsResponse{Legs: toLegResponses(legs)})
}

func (h *LegHandler) UpdateMetrics(w http.ResponseWriter, r *http.Request) {
	tripID, legID, ok := tripAndSubject(w, r, "legID")
	if !ok {
		return
	}

	var req dto.LegMetricsRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.DistanceMeters == nil || req.DurationSeconds == nil {
		writeError(w, r, http.StatusBadRequest, "distance_meters and duration_seconds are required")
		return
	}

	if err := h.Legs.UpdateLegMetrics(r.Context(), tripID, legID, *req.DistanceMeters, *req.DurationSeconds); err != nil {
		writeServiceError(w, r, "update leg metrics", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Recalculate reroutes every leg. Unlike the edit paths, a routing failure
// here is reported as an error since nothing else was changed.
func (h *LegHandler) Recalculate(w http.ResponseWriter, r *http.Request) {
	tripID, _, ok := tripAndSubject(w, r, "")
	if !ok {
		return
	}

	res, err := h.Legs.RecalculateLegsFromOsrm(r.Context(), tripID)
	if err != nil {
		writeServiceError(w, r, "recalculate legs", err)
		return
	}
	writeJSON(w, r, http.StatusOK, toLegRecalculationResponse(res))
}
