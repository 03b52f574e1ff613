package handlers

import (
	"net/http"
	"roadtrip-planner/internal/api/dto"
	"roadtrip-planner/internal/services"
)

// ItineraryHandler serves the trip read model and the schedule edits.
type ItineraryHandler struct {
	Schedule *services.ScheduleEngine
	Editor   *services.TripEditor
}

func (h *ItineraryHandler) Get(w http.ResponseWriter, r *http.Request) {
	tripID, _, ok := tripAndSubject(w, r, "")
	if !ok {
		return
	}

	it, found, err := h.Schedule.GetItinerary(r.Context(), tripID)
	if err != nil {
		writeServiceError(w, r, "get itinerary", err)
		return
	}
	if !found {
		writeError(w, r, http.StatusNotFound, "trip not found")
		return
	}

	writeJSON(w, r, http.StatusOK, toItineraryResponse(it))
}

// UpdateTripSchedule replaces the trip's schedule defaults.
func (h *ItineraryHandler) UpdateTripSchedule(w http.ResponseWriter, r *http.Request) {
	tripID, _, ok := tripAndSubject(w, r, "")
	if !ok {
		return
	}

	var req dto.ScheduleDefaults
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	defaults, err := fromScheduleDefaultsDTO(req)
	if err != nil {
		writeServiceError(w, r, "update trip schedule", err)
		return
	}

	if err := h.Schedule.UpdateTripScheduleDefaults(r.Context(), tripID, defaults); err != nil {
		writeServiceError(w, r, "update trip schedule", err)
		return
	}
	writeJSON(w, r, http.StatusOK, toScheduleDefaultsDTO(defaults))
}

// UpdateStopSchedule replaces a stop's schedule and reports whether the new
// start would put the stop out of drive order.
func (h *ItineraryHandler) UpdateStopSchedule(w http.ResponseWriter, r *http.Request) {
	tripID, stopID, ok := tripAndSubject(w, r, "stopID")
	if !ok {
		return
	}

	var req dto.StopSchedule
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	schedule, err := fromStopScheduleDTO(req)
	if err != nil {
		writeServiceError(w, r, "update stop schedule", err)
		return
	}

	res, err := h.Editor.UpdateStopSchedule(r.Context(), tripID, stopID, schedule)
	if err != nil {
		writeServiceError(w, r, "update stop schedule", err)
		return
	}
	writeJSON(w, r, http.StatusOK, toEditResponse(res))
}
