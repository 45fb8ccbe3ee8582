package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jcroft/spots/internal/core/domain"
	"github.com/jcroft/spots/internal/pkg/metrics"
)

// NeighborhoodConfig configures the neighborhood lookup provider. An empty
// APIKey disables the feature entirely.
type NeighborhoodConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// NeighborhoodClient implements ports.NeighborhoodSource against a
// point-in-polygon neighborhood API. The provider requires an API key, so
// deployments without one run with neighborhood attachment switched off.
type NeighborhoodClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewNeighborhoodClient creates a new NeighborhoodClient.
func NewNeighborhoodClient(cfg NeighborhoodConfig) *NeighborhoodClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &NeighborhoodClient{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Enabled reports whether an API key is configured.
func (c *NeighborhoodClient) Enabled() bool {
	return c.apiKey != ""
}

// Lookup returns the names of the neighborhoods containing the point.
func (c *NeighborhoodClient) Lookup(ctx context.Context, loc domain.Coordinate) ([]string, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(loc.Lat, 'f', -1, 64))
	params.Set("lng", strconv.FormatFloat(loc.Lng, 'f', -1, 64))
	params.Set("format", "json")
	params.Set("apikey", c.apiKey)

	start := time.Now()
	defer func() {
		metrics.ProviderLatency.WithLabelValues("neighborhoods").Observe(time.Since(start).Seconds())
	}()

	u := fmt.Sprintf("%s/neighborhoods/getNearestNeighborhoods?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("neighborhood lookup: %s", resp.Status)
	}

	var payload struct {
		Neighborhoods []struct {
			Name string `json:"name"`
		} `json:"neighborhoods"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(payload.Neighborhoods))
	for _, n := range payload.Neighborhoods {
		names = append(names, n.Name)
	}
	return names, nil
}
