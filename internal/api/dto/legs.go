package dto

type LegMetricsRequest struct {
	DistanceMeters  *int `json:"distance_meters"`
	DurationSeconds *int `json:"duration_seconds"`
}

type LegRecalculationResponse struct {
	Provider             string        `json:"provider"`
	TotalDistanceMeters  int           `json:"total_distance_meters"`
	TotalDurationSeconds int           `json:"total_duration_seconds"`
	Legs                 []LegResponse `json:"legs"`
}

type ListLegsResponse struct {
	Legs []LegResponse `json:"legs"`
}
