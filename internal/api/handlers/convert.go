package handlers

import (
	"roadtrip-planner/internal/api/dto"
	"roadtrip-planner/internal/domain"
	"roadtrip-planner/internal/services"
)

func toScheduleDefaultsDTO(s domain.ScheduleDefaults) dto.ScheduleDefaults {
	out := dto.ScheduleDefaults{TimeZone: s.TimeZone, StartAt: s.StartAt, EndAt: s.EndAt}
	if s.DefaultArrival != nil {
		v := s.DefaultArrival.String()
		out.DefaultArrival = &v
	}
	if s.DefaultDeparture != nil {
		v := s.DefaultDeparture.String()
		out.DefaultDeparture = &v
	}
	return out
}

func fromScheduleDefaultsDTO(in dto.ScheduleDefaults) (domain.ScheduleDefaults, error) {
	out := domain.ScheduleDefaults{TimeZone: in.TimeZone, StartAt: in.StartAt, EndAt: in.EndAt}
	if in.DefaultArrival != nil {
		t, err := domain.ParseTimeOfDay(*in.DefaultArrival)
		if err != nil {
			return out, err
		}
		out.DefaultArrival = &t
	}
	if in.DefaultDeparture != nil {
		t, err := domain.ParseTimeOfDay(*in.DefaultDeparture)
		if err != nil {
			return out, err
		}
		out.DefaultDeparture = &t
	}
	return out, nil
}

func toStopScheduleDTO(s domain.StopSchedule) dto.StopSchedule {
	return dto.StopSchedule{
		Kind:         string(s.Kind),
		TimeZone:     s.TimeZone,
		PlannedStart: s.PlannedStart,
		PlannedEnd:   s.PlannedEnd,
		StayNights:   s.Stay.Nights,
		StayMinutes:  s.Stay.Minutes,
		StartLocked:  s.StartLocked,
		EndLocked:    s.EndLocked,
	}
}

func fromStopScheduleDTO(in dto.StopSchedule) (domain.StopSchedule, error) {
	kind, err := domain.ParseStopKind(in.Kind)
	if err != nil {
		return domain.StopSchedule{}, err
	}
	return domain.StopSchedule{
		Kind:         kind,
		TimeZone:     in.TimeZone,
		PlannedStart: in.PlannedStart,
		PlannedEnd:   in.PlannedEnd,
		Stay:         domain.StayDuration{Nights: in.StayNights, Minutes: in.StayMinutes},
		StartLocked:  in.StartLocked,
		EndLocked:    in.EndLocked,
	}, nil
}

func toStopResponse(s *domain.Stop) dto.StopResponse {
	return dto.StopResponse{
		ID:           s.ID,
		PlaceID:      s.Place.ID,
		PlaceName:    s.Place.Name,
		Coordinates:  s.Place.Coordinates.Pair(),
		Position:     s.Position,
		StopSchedule: toStopScheduleDTO(s.Schedule),
	}
}

func toLegResponses(legs []*domain.Leg) []dto.LegResponse {
	out := make([]dto.LegResponse, 0, len(legs))
	for _, l := range legs {
		out = append(out, dto.LegResponse{
			ID:              l.ID,
			Position:        l.Position,
			FromStopID:      l.FromStopID,
			ToStopID:        l.ToStopID,
			DistanceMeters:  l.DistanceMeters,
			DurationSeconds: l.DurationSeconds,
			Provider:        l.Provider,
			CalculatedAt:    l.CalculatedAt,
			Geometry:        domain.PairsFromCoordinates(l.Geometry),
			EncodedPolyline: domain.EncodePolyline(l.Geometry),
		})
	}
	return out
}

func toItineraryResponse(it *services.Itinerary) dto.ItineraryResponse {
	res := dto.ItineraryResponse{
		Trip: dto.TripResponse{
			ID:          it.Trip.ID,
			Name:        it.Trip.Name,
			Description: it.Trip.Description,
			Schedule:    toScheduleDefaultsDTO(it.Trip.Schedule),
		},
		Stops: make([]dto.StopResponse, 0, len(it.Stops)),
		Legs:  toLegResponses(it.Legs),
	}
	for _, s := range it.Stops {
		res.Stops = append(res.Stops, toStopResponse(s))
	}
	return res
}

func toConflictReportResponse(r *domain.ConflictReport) dto.ConflictReportResponse {
	res := dto.ConflictReportResponse{
		Status:           string(r.Status),
		HasConflict:      r.HasConflict,
		Conflicts:        make([]dto.DivergentStop, 0, len(r.Conflicts)),
		PositionSequence: r.PositionSequence,
		TimeSequence:     r.TimeSequence,
	}
	for _, c := range r.Conflicts {
		res.Conflicts = append(res.Conflicts, dto.DivergentStop{
			StopID:            c.StopID,
			PositionIndex:     c.PositionIndex,
			TimeSequenceIndex: c.TimeSequenceIdx,
		})
	}
	return res
}

func toScheduleCheckResponse(c *services.ScheduleChangeCheck) *dto.ScheduleCheckResponse {
	if c == nil {
		return nil
	}
	return &dto.ScheduleCheckResponse{
		StopID:            c.StopID,
		WouldConflict:     c.WouldConflict,
		CurrentIndex:      c.CurrentIndex,
		HypotheticalIndex: c.HypotheticalIndex,
		AffectedStops:     c.AffectedStops,
	}
}

func toLegRecalculationResponse(l *services.LegRecalculation) *dto.LegRecalculationResponse {
	if l == nil {
		return nil
	}
	return &dto.LegRecalculationResponse{
		Provider:             l.Provider,
		TotalDistanceMeters:  l.TotalDistanceMeters,
		TotalDurationSeconds: l.TotalDurationSeconds,
		Legs:                 toLegResponses(l.Legs),
	}
}

func toEditResponse(res *services.EditResult) dto.EditResponse {
	out := dto.EditResponse{
		Check:      toScheduleCheckResponse(res.Check),
		Legs:       toLegRecalculationResponse(res.Legs),
		LegWarning: res.LegWarning,
	}

	if r := res.Reorder; r != nil {
		positions := make([]dto.PositionChange, 0, len(r.Positions))
		for _, p := range r.Positions {
			positions = append(positions, dto.PositionChange{StopID: p.StopID, Position: p.Position})
		}
		out.Reorder = &dto.ReorderResponse{
			Applied:       r.Applied,
			Warning:       r.Warning,
			Positions:     positions,
			PreviousOrder: r.PreviousOrder,
			NewOrder:      r.NewOrder,
		}
	}

	if s := res.Schedule; s != nil {
		stops := make([]dto.StopRescheduleResponse, 0, len(s.Stops))
		for _, c := range s.Stops {
			stops = append(stops, dto.StopRescheduleResponse{
				StopID:        c.StopID,
				Locked:        c.Locked,
				Skipped:       c.Skipped,
				PreviousStart: c.PreviousStart,
				PreviousEnd:   c.PreviousEnd,
				NewStart:      c.NewStart,
				NewEnd:        c.NewEnd,
			})
		}
		out.Schedule = &dto.RecalculationResponse{UpdatedStops: s.UpdatedStops, Stops: stops}
	}

	if res.Stop != nil {
		stop := toStopResponse(res.Stop)
		out.Stop = &stop
	}
	return out
}
