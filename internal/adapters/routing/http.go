package routing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"roadtrip-planner/internal/domain"
	"strings"
	"time"
)

type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("Code %d: %s", e.Code, e.Body)
}

// client is the HTTP plumbing shared by the routing gateways.
type client struct {
	session *http.Client
	headers map[string]string
}

func newClient(timeout time.Duration, headers map[string]string) *client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &client{
		session: &http.Client{Timeout: timeout},
		headers: headers,
	}
}

func (c *client) newRequest(
	ctx context.Context,
	method string,
	url string,
	body io.Reader,
) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

func (c *client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &httpStatusError{
			Code: resp.StatusCode,
			Body: strings.TrimSpace(string(b)),
		}
	}
	return resp, nil
}

// doWithRetry retries transient failures (network errors, 429 and 5xx
// responses) using exponential backoff while respecting context cancellation.
func (c *client) doWithRetry(
	ctx context.Context,
	makeReq func() (*http.Request, error),
) (*http.Response, error) {
	const maxAttempts = 4
	backoff := 200 * time.Millisecond

	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := makeReq()
		if err != nil {
			return nil, fmt.Errorf("make request: %w", err)
		}

		resp, err := c.do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		retry := false
		var he *httpStatusError
		if errors.As(err, &he) {
			switch he.Code {
			case 429, 500, 502, 503, 504:
				retry = true
			}
		}

		var netErr net.Error
		if !retry && errors.As(err, &netErr) {
			retry = true
		}

		if !retry || attempt == maxAttempts {
			return nil, lastErr
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		backoff *= 2
	}

	return nil, lastErr
}

// classifyTransportError separates caller mistakes (4xx other than 401, 403
// and 429) from an unavailable or misconfigured upstream.
func classifyTransportError(err error) error {
	var he *httpStatusError
	if errors.As(err, &he) && he.Code >= 400 && he.Code < 500 && !upstreamFault(he.Code) {
		return fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	return fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)
}

func upstreamFault(code int) bool {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests:
		return true
	}
	return false
}

func validateChain(coords []domain.Coordinates) error {
	if len(coords) < 2 {
		return fmt.Errorf("route needs at least two coordinates, got %d: %w", len(coords), domain.ErrInvalidInput)
	}
	for i, c := range coords {
		if c.Lat < -90 || c.Lat > 90 || c.Lon < -180 || c.Lon > 180 {
			return fmt.Errorf("coordinate #%d out of range (%f,%f): %w", i+1, c.Lon, c.Lat, domain.ErrInvalidInput)
		}
	}
	return nil
}

// cacheKey identifies a route request by provider, profile and coordinate chain.
func cacheKey(provider, profile string, coords []domain.Coordinates) string {
	var b strings.Builder
	b.WriteString(provider)
	b.WriteString(":")
	b.WriteString(profile)
	for _, c := range coords {
		fmt.Fprintf(&b, ";%.6f,%.6f", c.Lon, c.Lat)
	}
	return b.String()
}
