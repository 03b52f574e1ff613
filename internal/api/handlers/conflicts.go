package handlers

import (
	"net/http"
	"roadtrip-planner/internal/api/dto"
	"roadtrip-planner/internal/services"
)

type ConflictHandler struct {
	Conflicts *services.ConflictResolver
	Editor    *services.TripEditor
}

func (h *ConflictHandler) Detect(w http.ResponseWriter, r *http.Request) {
	tripID, _, ok := tripAndSubject(w, r, "")
	if !ok {
		return
	}

	report, err := h.Conflicts.DetectOrderConflicts(r.Context(), tripID)
	if err != nil {
		writeServiceError(w, r, "detect conflicts", err)
		return
	}
	writeJSON(w, r, http.StatusOK, toConflictReportResponse(report))
}

// Check evaluates a schedule edit without applying it.
func (h *ConflictHandler) Check(w http.ResponseWriter, r *http.Request) {
	tripID, _, ok := tripAndSubject(w, r, "")
	if !ok {
		return
	}

	var req dto.ScheduleCheckRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.PlannedStart == nil {
		writeError(w, r, http.StatusBadRequest, "planned_start is required")
		return
	}

	check, err := h.Conflicts.CheckScheduleChangeConflict(r.Context(), tripID, req.StopID, *req.PlannedStart, req.PlannedEnd)
	if err != nil {
		writeServiceError(w, r, "check schedule change", err)
		return
	}
	writeJSON(w, r, http.StatusOK, toScheduleCheckResponse(check))
}

// Resolve makes the drive order follow the timeline. The body is optional.
func (h *ConflictHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	tripID, _, ok := tripAndSubject(w, r, "")
	if !ok {
		return
	}

	var req dto.ResolveRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.Editor.ResolveConflictsByReorder(r.Context(), tripID, req.RecalculateSchedule, req.PreserveLockedDays)
	if err != nil {
		writeServiceError(w, r, "resolve conflicts", err)
		return
	}
	writeJSON(w, r, http.StatusOK, toEditResponse(res))
}

func (h *ConflictHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	tripID, _, ok := tripAndSubject(w, r, "")
	if !ok {
		return
	}

	ids, err := h.Conflicts.CalculateOrderByTimeSequence(r.Context(), tripID)
	if err != nil {
		writeServiceError(w, r, "calculate timeline", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.TimelineResponse{StopIDs: ids})
}
