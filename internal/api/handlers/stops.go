package handlers

import (
	"net/http"
	"roadtrip-planner/internal/api/dto"
	"roadtrip-planner/internal/services"
)

// StopHandler exposes the structural edits: insert, remove and reorder.
type StopHandler struct {
	Editor *services.TripEditor
}

func (h *StopHandler) Add(w http.ResponseWriter, r *http.Request) {
	tripID, _, ok := tripAndSubject(w, r, "")
	if !ok {
		return
	}

	var req dto.AddStopRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	schedule, err := fromStopScheduleDTO(req.StopSchedule)
	if err != nil {
		writeServiceError(w, r, "add stop", err)
		return
	}

	res, err := h.Editor.AddStop(r.Context(), tripID, services.AddStopInput{
		PlaceID:  req.PlaceID,
		Position: req.Position,
		Schedule: schedule,
	})
	if err != nil {
		writeServiceError(w, r, "add stop", err)
		return
	}
	writeJSON(w, r, http.StatusCreated, toEditResponse(res))
}

func (h *StopHandler) Remove(w http.ResponseWriter, r *http.Request) {
	tripID, stopID, ok := tripAndSubject(w, r, "stopID")
	if !ok {
		return
	}

	res, err := h.Editor.RemoveStop(r.Context(), tripID, stopID)
	if err != nil {
		writeServiceError(w, r, "remove stop", err)
		return
	}
	writeJSON(w, r, http.StatusOK, toEditResponse(res))
}

// Reorder sets the drive order to the given stop id list.
func (h *StopHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	tripID, _, ok := tripAndSubject(w, r, "")
	if !ok {
		return
	}

	var req dto.ReorderRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.StopIDs) == 0 {
		writeError(w, r, http.StatusBadRequest, "stop_ids is required")
		return
	}

	res, err := h.Editor.ReorderStops(r.Context(), tripID, req.StopIDs, req.RecalculateSchedule, req.PreserveLockedDays)
	if err != nil {
		writeServiceError(w, r, "reorder stops", err)
		return
	}
	writeJSON(w, r, http.StatusOK, toEditResponse(res))
}
