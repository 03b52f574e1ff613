package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"roadtrip-planner/internal/domain"
	"roadtrip-planner/internal/platform/obs"
	"roadtrip-planner/internal/ports"
	"strings"
	"time"

	"github.com/twpayne/go-polyline"
)

const (
	ProviderOSRM = "osrm"

	polylineScale = 1e5
)

// OSRM status codes that mean the request itself was wrong.
var osrmInputCodes = map[string]struct{}{
	"InvalidUrl":     {},
	"InvalidService": {},
	"InvalidVersion": {},
	"InvalidOptions": {},
	"InvalidQuery":   {},
	"InvalidValue":   {},
}

type osrmResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Legs []struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
			Steps    []struct {
				Distance float64 `json:"distance"`
				Duration float64 `json:"duration"`
				Geometry string  `json:"geometry"`
			} `json:"steps"`
		} `json:"legs"`
	} `json:"routes"`
}

// OSRMGateway implements RoutingGateway against an OSRM /route/v1 service.
// An optional RouteCache is consulted before calling out.
//
// The gateway is safe for concurrent use.
type OSRMGateway struct {
	http    *client
	baseURL string
	profile string
	cache   ports.RouteCache
}

func NewOSRMGateway(baseURL, profile string, timeout time.Duration, cache ports.RouteCache) (*OSRMGateway, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("OSRM base url is empty")
	}
	if strings.TrimSpace(profile) == "" {
		profile = "driving"
	}

	return &OSRMGateway{
		http:    newClient(timeout, nil),
		baseURL: strings.TrimRight(baseURL, "/"),
		profile: profile,
		cache:   cache,
	}, nil
}

// Route requests one route through all coordinates with per-step geometry.
func (o *OSRMGateway) Route(ctx context.Context, coords []domain.Coordinates) (_ *domain.RouteResult, err error) {
	defer obs.Time(ctx, "osrm.Route")(&err)

	if err := validateChain(coords); err != nil {
		return nil, fmt.Errorf("osrm route: %w", err)
	}

	key := cacheKey(ProviderOSRM, o.profile, coords)
	if o.cache != nil {
		cached, ok, err := o.cache.Get(ctx, key)
		if err != nil {
			obs.LogError(obs.FromContext(ctx), "route cache read failed", err, slog.String("key", key))
		} else if ok {
			return cached, nil
		}
	}

	pairs := make([]string, 0, len(coords))
	for _, c := range coords {
		pairs = append(pairs, fmt.Sprintf("%f,%f", c.Lon, c.Lat))
	}
	endpoint := fmt.Sprintf("%s/route/v1/%s/%s", o.baseURL, url.PathEscape(o.profile), strings.Join(pairs, ";"))

	resp, err := o.http.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := o.http.newRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("steps", "true")
		q.Set("geometries", "polyline")
		q.Set("overview", "false")
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("osrm route: %w", o.classify(err))
	}
	defer resp.Body.Close()

	var decoded osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("osrm route: decode response: %w: %w", domain.ErrUpstreamUnavailable, err)
	}

	result, err := decoded.toResult(len(coords))
	if err != nil {
		return nil, fmt.Errorf("osrm route: %w", err)
	}

	if o.cache != nil {
		if err := o.cache.Put(ctx, key, result); err != nil {
			obs.LogError(obs.FromContext(ctx), "route cache write failed", err, slog.String("key", key))
		}
	}

	return result, nil
}

// classify maps a 4xx response carrying an OSRM input code onto
// ErrInvalidInput; everything else is an unavailable upstream.
func (o *OSRMGateway) classify(err error) error {
	var he *httpStatusError
	if errors.As(err, &he) {
		var body osrmResponse
		if json.Unmarshal([]byte(he.Body), &body) == nil && body.Code != "" {
			return codeError(body.Code, body.Message)
		}
	}
	return classifyTransportError(err)
}

func codeError(code, message string) error {
	if _, ok := osrmInputCodes[code]; ok {
		return fmt.Errorf("status %s: %s: %w", code, message, domain.ErrInvalidInput)
	}
	return fmt.Errorf("status %s: %s: %w", code, message, domain.ErrUpstreamUnavailable)
}

func (r *osrmResponse) toResult(waypoints int) (*domain.RouteResult, error) {
	if r.Code != "Ok" {
		return nil, codeError(r.Code, r.Message)
	}
	if len(r.Routes) == 0 {
		return nil, fmt.Errorf("response had zero routes: %w", domain.ErrUpstreamUnavailable)
	}

	route := r.Routes[0]
	if len(route.Legs) != waypoints-1 {
		return nil, fmt.Errorf(
			"expected %d legs, got %d: %w",
			waypoints-1, len(route.Legs), domain.ErrUpstreamUnavailable,
		)
	}

	out := &domain.RouteResult{Provider: ProviderOSRM, Legs: make([]domain.RouteLeg, 0, len(route.Legs))}
	for i, l := range route.Legs {
		leg := domain.RouteLeg{
			DistanceMeters:  l.Distance,
			DurationSeconds: l.Duration,
			Steps:           make([]domain.RouteStep, 0, len(l.Steps)),
		}
		for j, s := range l.Steps {
			geometry, err := decodePolyline(s.Geometry)
			if err != nil {
				return nil, fmt.Errorf("leg %d step %d: %w: %w", i, j, domain.ErrUpstreamUnavailable, err)
			}
			leg.Steps = append(leg.Steps, domain.RouteStep{
				DistanceMeters:  s.Distance,
				DurationSeconds: s.Duration,
				Geometry:        geometry,
			})
		}
		out.Legs = append(out.Legs, leg)
	}
	return out, nil
}

// decodePolyline decodes a precision-5 encoded polyline into (lon, lat) coordinates.
// Values are snapped to the 1e-5 grid so a point shared by adjacent steps
// decodes identically in both.
func decodePolyline(encoded string) ([]domain.Coordinates, error) {
	if encoded == "" {
		return nil, nil
	}
	coords, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("decode polyline: %w", err)
	}
	out := make([]domain.Coordinates, 0, len(coords))
	for _, c := range coords {
		// polyline coordinates are (lat, lon).
		out = append(out, domain.Coordinates{Lon: snap(c[1]), Lat: snap(c[0])})
	}
	return out, nil
}

func snap(v float64) float64 { return math.Round(v*polylineScale) / polylineScale }
