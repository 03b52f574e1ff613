package api

import (
	"log/slog"
	"net/http"
	"roadtrip-planner/internal/api/handlers"
	"roadtrip-planner/internal/services"

	"github.com/julienschmidt/httprouter"
)

// Services groups the application services the HTTP layer depends on.
type Services struct {
	Schedule  *services.ScheduleEngine
	Conflicts *services.ConflictResolver
	Legs      *services.LegManager
	Editor    *services.TripEditor
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(svc Services, logger *slog.Logger) http.Handler {
	router := httprouter.New()

	itinerary := &handlers.ItineraryHandler{Schedule: svc.Schedule, Editor: svc.Editor}
	stops := &handlers.StopHandler{Editor: svc.Editor}
	conflicts := &handlers.ConflictHandler{Conflicts: svc.Conflicts, Editor: svc.Editor}
	legs := &handlers.LegHandler{Legs: svc.Legs}

	router.HandlerFunc(http.MethodGet, "/health", handlers.Health)

	router.HandlerFunc(http.MethodGet, "/trips/:tripID/itinerary", itinerary.Get)
	router.HandlerFunc(http.MethodPut, "/trips/:tripID/schedule", itinerary.UpdateTripSchedule)
	router.HandlerFunc(http.MethodPut, "/trips/:tripID/stops/:stopID/schedule", itinerary.UpdateStopSchedule)

	router.HandlerFunc(http.MethodPost, "/trips/:tripID/stops", stops.Add)
	router.HandlerFunc(http.MethodDelete, "/trips/:tripID/stops/:stopID", stops.Remove)
	router.HandlerFunc(http.MethodPut, "/trips/:tripID/order", stops.Reorder)

	router.HandlerFunc(http.MethodGet, "/trips/:tripID/conflicts", conflicts.Detect)
	router.HandlerFunc(http.MethodPost, "/trips/:tripID/conflicts/check", conflicts.Check)
	router.HandlerFunc(http.MethodPost, "/trips/:tripID/conflicts/resolve", conflicts.Resolve)
	router.HandlerFunc(http.MethodGet, "/trips/:tripID/timeline", conflicts.Timeline)

	router.HandlerFunc(http.MethodPost, "/trips/:tripID/legs/rebuild", legs.Rebuild)
	router.HandlerFunc(http.MethodPut, "/trips/:tripID/legs/:legID/metrics", legs.UpdateMetrics)
	router.HandlerFunc(http.MethodPost, "/trips/:tripID/legs/recalculate", legs.Recalculate)

	return loggingMiddleware(logger, router)
}
