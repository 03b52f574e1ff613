package routing

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"roadtrip-planner/internal/domain"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-polyline"
)

var chain = []domain.Coordinates{
	{Lon: -122.4194, Lat: 37.7749},
	{Lon: -121.8947, Lat: 36.6002},
	{Lon: -120.6625, Lat: 35.2828},
}

func encode(coords ...domain.Coordinates) string {
	latLon := make([][]float64, 0, len(coords))
	for _, c := range coords {
		latLon = append(latLon, []float64{c.Lat, c.Lon})
	}
	return string(polyline.EncodeCoords(latLon))
}

type memoryRouteCache struct {
	mu      sync.Mutex
	entries map[string]*domain.RouteResult
}

func (c *memoryRouteCache) Get(ctx context.Context, key string) (*domain.RouteResult, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.entries[key]
	return r, ok, nil
}

func (c *memoryRouteCache) Put(ctx context.Context, key string, result *domain.RouteResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = result
	return nil
}

func osrmBody(coords []domain.Coordinates) string {
	var legs []string
	for i := 0; i+1 < len(coords); i++ {
		from, to := coords[i], coords[i+1]
		mid := domain.Coordinates{Lon: (from.Lon + to.Lon) / 2, Lat: (from.Lat + to.Lat) / 2}
		legs = append(legs, fmt.Sprintf(`{
			"distance": 1000.4, "duration": 60.6,
			"steps": [
				{"distance": 500, "duration": 30, "geometry": %q},
				{"distance": 500.4, "duration": 30.6, "geometry": %q},
				{"distance": 0, "duration": 0, "geometry": %q}
			]}`, encode(from, mid), encode(mid, to), encode(to)))
	}
	return fmt.Sprintf(`{"code":"Ok","routes":[{"legs":[%s]}]}`, strings.Join(legs, ","))
}

func TestOSRMGatewayRoute(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(osrmBody(chain)))
	}))
	defer srv.Close()

	gw, err := NewOSRMGateway(srv.URL, "", time.Second, nil)
	require.NoError(t, err)

	res, err := gw.Route(context.Background(), chain)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(gotPath, "/route/v1/driving/-122.419400,37.774900;"), gotPath)
	assert.Contains(t, gotQuery, "steps=true")
	assert.Contains(t, gotQuery, "geometries=polyline")
	assert.Contains(t, gotQuery, "overview=false")

	assert.Equal(t, ProviderOSRM, res.Provider)
	require.Len(t, res.Legs, 2)
	assert.InDelta(t, 1000.4, res.Legs[0].DistanceMeters, 1e-9)
	require.Len(t, res.Legs[0].Steps, 3)

	first := res.Legs[0].Steps[0].Geometry
	require.Len(t, first, 2)
	assert.InDelta(t, chain[0].Lon, first[0].Lon, 1e-5)
	assert.InDelta(t, chain[0].Lat, first[0].Lat, 1e-5)

	path, err := domain.MergeLegGeometry(res.Legs[1].Steps)
	require.NoError(t, err)
	assert.Len(t, path, 3)
}

func TestOSRMGatewayErrorCodes(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{name: "invalid query", status: http.StatusBadRequest, body: `{"code":"InvalidQuery","message":"Query string malformed"}`, want: domain.ErrInvalidInput},
		{name: "no route", status: http.StatusBadRequest, body: `{"code":"NoRoute","message":"Impossible route"}`, want: domain.ErrUpstreamUnavailable},
		{name: "ok status with error code", status: http.StatusOK, body: `{"code":"NoSegment","message":"Could not find a matching segment"}`, want: domain.ErrUpstreamUnavailable},
		{name: "leg count mismatch", status: http.StatusOK, body: `{"code":"Ok","routes":[{"legs":[]}]}`, want: domain.ErrUpstreamUnavailable},
		{name: "garbage", status: http.StatusOK, body: `not json`, want: domain.ErrUpstreamUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			gw, err := NewOSRMGateway(srv.URL, "driving", time.Second, nil)
			require.NoError(t, err)

			_, err = gw.Route(context.Background(), chain[:2])
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestOSRMGatewayRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(osrmBody(chain[:2])))
	}))
	defer srv.Close()

	gw, err := NewOSRMGateway(srv.URL, "driving", time.Second, nil)
	require.NoError(t, err)

	res, err := gw.Route(context.Background(), chain[:2])
	require.NoError(t, err)
	assert.Len(t, res.Legs, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestOSRMGatewayUsesCache(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(osrmBody(chain)))
	}))
	defer srv.Close()

	cache := &memoryRouteCache{entries: map[string]*domain.RouteResult{}}
	gw, err := NewOSRMGateway(srv.URL, "driving", time.Second, cache)
	require.NoError(t, err)

	first, err := gw.Route(context.Background(), chain)
	require.NoError(t, err)
	second, err := gw.Route(context.Background(), chain)
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, first, second)
	assert.Contains(t, cache.entries, cacheKey(ProviderOSRM, "driving", chain))
}

func TestOSRMGatewayRejectsShortChain(t *testing.T) {
	gw, err := NewOSRMGateway("http://localhost:5000", "driving", time.Second, nil)
	require.NoError(t, err)

	_, err = gw.Route(context.Background(), chain[:1])
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = NewOSRMGateway(" ", "driving", time.Second, nil)
	assert.Error(t, err)
}

func TestDecodePolylineJoinPointsMatch(t *testing.T) {
	from, to := chain[1], chain[2]
	mid := domain.Coordinates{Lon: (from.Lon + to.Lon) / 2, Lat: (from.Lat + to.Lat) / 2}

	var steps []domain.RouteStep
	for _, enc := range []string{encode(from, mid), encode(mid, to), encode(to)} {
		geometry, err := decodePolyline(enc)
		require.NoError(t, err)
		steps = append(steps, domain.RouteStep{Geometry: geometry})
	}

	assert.Equal(t, steps[0].Geometry[1], steps[1].Geometry[0])
	assert.Equal(t, steps[1].Geometry[1], steps[2].Geometry[0])

	path, err := domain.MergeLegGeometry(steps)
	require.NoError(t, err)
	assert.Equal(t, []domain.Coordinates{
		{Lon: -121.8947, Lat: 36.6002},
		{Lon: -121.2786, Lat: 35.9415},
		{Lon: -120.6625, Lat: 35.2828},
	}, path)
}

func TestClassifyTransportError(t *testing.T) {
	tests := []struct {
		code int
		want error
	}{
		{code: http.StatusBadRequest, want: domain.ErrInvalidInput},
		{code: http.StatusNotFound, want: domain.ErrInvalidInput},
		{code: http.StatusUnauthorized, want: domain.ErrUpstreamUnavailable},
		{code: http.StatusForbidden, want: domain.ErrUpstreamUnavailable},
		{code: http.StatusTooManyRequests, want: domain.ErrUpstreamUnavailable},
		{code: http.StatusBadGateway, want: domain.ErrUpstreamUnavailable},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.code), func(t *testing.T) {
			err := classifyTransportError(&httpStatusError{Code: tt.code})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
