package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"roadtrip-planner/internal/domain"
	"roadtrip-planner/internal/platform/obs"
	"roadtrip-planner/internal/ports"
	"strings"
	"time"
)

const ProviderORS = "ors"

type directionsRequest struct {
	Coordinates  [][]float64 `json:"coordinates"`
	Instructions bool        `json:"instructions"`
	Geometry     bool        `json:"geometry"`
}

type directionsResponse struct {
	Routes []struct {
		Geometry string `json:"geometry"`
		Segments []struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
			Steps    []struct {
				Distance  float64 `json:"distance"`
				Duration  float64 `json:"duration"`
				WayPoints []int   `json:"way_points"`
			} `json:"steps"`
		} `json:"segments"`
	} `json:"routes"`
}

// ORSGateway implements RoutingGateway using the OpenRouteService
// directions endpoint. Step geometry is sliced out of the route's overview
// polyline using each step's way point range.
type ORSGateway struct {
	http    *client
	baseURL string
	profile string
	cache   ports.RouteCache
}

func NewORSGateway(apiKey, baseURL, profile string, timeout time.Duration, cache ports.RouteCache) (*ORSGateway, error) {
	if apiKey == "" {
		return nil, errors.New("ORS api key is empty")
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "https://api.openrouteservice.org"
	}
	if strings.TrimSpace(profile) == "" {
		profile = "driving-car"
	}

	return &ORSGateway{
		http:    newClient(timeout, map[string]string{"Authorization": apiKey}),
		baseURL: strings.TrimRight(baseURL, "/"),
		profile: profile,
		cache:   cache,
	}, nil
}

func (o *ORSGateway) Route(ctx context.Context, coords []domain.Coordinates) (_ *domain.RouteResult, err error) {
	defer obs.Time(ctx, "ors.Route")(&err)

	if err := validateChain(coords); err != nil {
		return nil, fmt.Errorf("ors route: %w", err)
	}

	key := cacheKey(ProviderORS, o.profile, coords)
	if o.cache != nil {
		cached, ok, err := o.cache.Get(ctx, key)
		if err != nil {
			obs.LogError(obs.FromContext(ctx), "route cache read failed", err, slog.String("key", key))
		} else if ok {
			return cached, nil
		}
	}

	locations := make([][]float64, 0, len(coords))
	for _, c := range coords {
		locations = append(locations, c.CoordsToList())
	}

	payload, err := json.Marshal(directionsRequest{Coordinates: locations, Instructions: true, Geometry: true})
	if err != nil {
		return nil, fmt.Errorf("ors route: marshal directions request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v2/directions/%s", o.baseURL, o.profile)
	resp, err := o.http.doWithRetry(ctx, func() (*http.Request, error) {
		return o.http.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	})
	if err != nil {
		return nil, fmt.Errorf("ors route: directions request failed: %w", classifyTransportError(err))
	}
	defer resp.Body.Close()

	var dr directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return nil, fmt.Errorf("ors route: decode directions response: %w: %w", domain.ErrUpstreamUnavailable, err)
	}

	result, err := dr.toResult(len(coords))
	if err != nil {
		return nil, fmt.Errorf("ors route: %w", err)
	}

	if o.cache != nil {
		if err := o.cache.Put(ctx, key, result); err != nil {
			obs.LogError(obs.FromContext(ctx), "route cache write failed", err, slog.String("key", key))
		}
	}

	return result, nil
}

func (r *directionsResponse) toResult(waypoints int) (*domain.RouteResult, error) {
	if len(r.Routes) == 0 {
		return nil, fmt.Errorf("response had zero routes: %w", domain.ErrUpstreamUnavailable)
	}

	route := r.Routes[0]
	if len(route.Segments) != waypoints-1 {
		return nil, fmt.Errorf(
			"expected %d segments, got %d: %w",
			waypoints-1, len(route.Segments), domain.ErrUpstreamUnavailable,
		)
	}

	path, err := decodePolyline(route.Geometry)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)
	}

	out := &domain.RouteResult{Provider: ProviderORS, Legs: make([]domain.RouteLeg, 0, len(route.Segments))}
	for i, seg := range route.Segments {
		leg := domain.RouteLeg{
			DistanceMeters:  seg.Distance,
			DurationSeconds: seg.Duration,
			Steps:           make([]domain.RouteStep, 0, len(seg.Steps)),
		}
		for j, s := range seg.Steps {
			if len(s.WayPoints) != 2 || s.WayPoints[0] < 0 || s.WayPoints[1] >= len(path) || s.WayPoints[0] > s.WayPoints[1] {
				return nil, fmt.Errorf("segment %d step %d: invalid way points %v: %w", i, j, s.WayPoints, domain.ErrUpstreamUnavailable)
			}
			leg.Steps = append(leg.Steps, domain.RouteStep{
				DistanceMeters:  s.Distance,
				DurationSeconds: s.Duration,
				Geometry:        append([]domain.Coordinates(nil), path[s.WayPoints[0]:s.WayPoints[1]+1]...),
			})
		}
		out.Legs = append(out.Legs, leg)
	}
	return out, nil
}
