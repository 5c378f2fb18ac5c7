package overlay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hydromonitoring/wain-terminal/internal/models"
)

// Placeholders substituted in the basin and station URL templates
const (
	BasinPlaceholder   = "{basin}"
	StationPlaceholder = "{id}"
)

const maxBodyBytes = 64 << 20

var (
	// ErrStatus wraps non-2xx responses
	ErrStatus = errors.New("unexpected status")
	// ErrNoTarget is returned for basin or station requests without a target
	ErrNoTarget = errors.New("request has no target")
)

// Endpoints holds the three overlay URLs
type Endpoints struct {
	Country string // fixed URL
	Basin   string // template containing {basin}
	Station string // template containing {id}
}

// HTTPFetcher downloads overlay GeoJSON from static file hosting
type HTTPFetcher struct {
	endpoints  Endpoints
	httpClient *http.Client
	userAgent  string
}

// NewHTTPFetcher creates a fetcher for the given endpoints
func NewHTTPFetcher(endpoints Endpoints, userAgent string) *HTTPFetcher {
	return &HTTPFetcher{
		endpoints: endpoints,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		userAgent: userAgent,
	}
}

// URL returns the address a request resolves to
func (c *HTTPFetcher) URL(req Request) (string, error) {
	switch req.Kind {
	case KindCountry:
		return c.endpoints.Country, nil
	case KindBasin:
		if req.Target == "" {
			return "", ErrNoTarget
		}
		return strings.ReplaceAll(c.endpoints.Basin, BasinPlaceholder, url.PathEscape(req.Target)), nil
	case KindStation:
		if req.Target == "" {
			return "", ErrNoTarget
		}
		return strings.ReplaceAll(c.endpoints.Station, StationPlaceholder, url.PathEscape(req.Target)), nil
	default:
		return "", fmt.Errorf("unknown overlay kind %d", req.Kind)
	}
}

// Fetch downloads and normalizes the GeoJSON for a request
func (c *HTTPFetcher) Fetch(ctx context.Context, req Request) (models.GeoJSON, error) {
	target, err := c.URL(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s overlay: %w", req.Kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w %d for %s", ErrStatus, resp.StatusCode, target)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	doc, err := Normalize(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return doc, nil
}
