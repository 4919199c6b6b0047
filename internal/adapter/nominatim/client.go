package nominatim

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/carbon-food-print/internal/domain"
	"github.com/couchcryptid/carbon-food-print/internal/observability"
	"github.com/tidwall/gjson"
)

// maxResponseBytes bounds how much of a search response is read.
const maxResponseBytes = 1 << 20

// Client implements domain.Geocoder using the OpenStreetMap Nominatim search API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Nominatim geocoding client.
func NewClient(baseURL, userAgent string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:   baseURL,
		userAgent: userAgent,
		metrics:   metrics,
		logger:    logger,
	}
}

// Resolve returns the coordinate of the highest ranked match for placeName.
// Every failure is reported as domain.ErrPlaceNotFound; the cause is logged.
func (c *Client) Resolve(ctx context.Context, placeName string) (domain.Coordinate, error) {
	placeName = strings.TrimSpace(placeName)
	if placeName == "" {
		return domain.Coordinate{}, domain.ErrPlaceNotFound
	}

	coord, found, err := c.search(ctx, placeName)
	switch {
	case err != nil:
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		c.logger.Warn("geocode request failed", "place", placeName, "error", err)
		return domain.Coordinate{}, domain.ErrPlaceNotFound
	case !found:
		c.metrics.GeocodeRequests.WithLabelValues("not_found").Inc()
		c.logger.Debug("geocode returned no results", "place", placeName)
		return domain.Coordinate{}, domain.ErrPlaceNotFound
	}

	c.metrics.GeocodeRequests.WithLabelValues("success").Inc()
	return coord, nil
}

func (c *Client) search(ctx context.Context, placeName string) (domain.Coordinate, bool, error) {
	params := url.Values{
		"q":      {placeName},
		"format": {"jsonv2"},
		"limit":  {"1"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return domain.Coordinate{}, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.GeocodeAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return domain.Coordinate{}, false, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return domain.Coordinate{}, false, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return domain.Coordinate{}, false, fmt.Errorf("nominatim API error: status %d: %s", resp.StatusCode, body)
	}

	return parseSearchResponse(body)
}

// parseSearchResponse reads lat/lon of the first match. Nominatim encodes
// both as decimal strings.
func parseSearchResponse(body []byte) (domain.Coordinate, bool, error) {
	if !gjson.ValidBytes(body) {
		return domain.Coordinate{}, false, fmt.Errorf("decode response: invalid JSON")
	}
	results := gjson.ParseBytes(body)
	if !results.IsArray() {
		return domain.Coordinate{}, false, fmt.Errorf("decode response: expected array, got %s", results.Type)
	}
	if results.Get("#").Int() == 0 {
		return domain.Coordinate{}, false, nil
	}

	first := results.Get("0")
	lat, err := parseDegrees(first.Get("lat"))
	if err != nil {
		return domain.Coordinate{}, false, fmt.Errorf("decode lat: %w", err)
	}
	lon, err := parseDegrees(first.Get("lon"))
	if err != nil {
		return domain.Coordinate{}, false, fmt.Errorf("decode lon: %w", err)
	}

	coord := domain.Coordinate{Lat: lat, Lon: lon}
	if err := coord.Validate(); err != nil {
		return domain.Coordinate{}, false, err
	}
	return coord, true, nil
}

func parseDegrees(v gjson.Result) (float64, error) {
	switch v.Type {
	case gjson.String:
		return strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
	case gjson.Number:
		return v.Num, nil
	default:
		return 0, fmt.Errorf("missing or non-numeric value %q", v.Raw)
	}
}
