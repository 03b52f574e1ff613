package domain

// RouteStep is one maneuver of a routed leg with its own path geometry.
type RouteStep struct {
	DistanceMeters  float64
	DurationSeconds float64
	Geometry        []Coordinates
}

// RouteLeg is the routing engine's answer for one consecutive coordinate pair.
type RouteLeg struct {
	DistanceMeters  float64
	DurationSeconds float64
	Steps           []RouteStep
}

// RouteResult is the routing engine's answer for a whole coordinate chain.
// Legs has one entry per consecutive pair of the requested coordinates.
type RouteResult struct {
	Provider string
	Legs     []RouteLeg
}
