package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/jcroft/spots/internal/core/domain"
	"github.com/jcroft/spots/internal/core/ports"
	"github.com/jcroft/spots/internal/pkg/metrics"
)

// NominatimConfig configures the OSM Nominatim client.
type NominatimConfig struct {
	BaseURL        string
	UserAgent      string
	RequestsPerSec float64
	Timeout        time.Duration
}

// Nominatim implements ports.ForwardGeocoder and ports.ReverseGeocoder
// against the OSM Nominatim HTTP API. Requests are rate-limited; the public
// instance allows one request per second.
type Nominatim struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewNominatim creates a new Nominatim client.
func NewNominatim(cfg NominatimConfig) *Nominatim {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://nominatim.openstreetmap.org"
	}
	if cfg.RequestsPerSec == 0 {
		cfg.RequestsPerSec = 1
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Nominatim{
		baseURL:    cfg.BaseURL,
		userAgent:  cfg.UserAgent,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1),
	}
}

type nominatimAddress struct {
	City          string `json:"city"`
	Town          string `json:"town"`
	Village       string `json:"village"`
	Hamlet        string `json:"hamlet"`
	Municipality  string `json:"municipality"`
	County        string `json:"county"`
	StateDistrict string `json:"state_district"`
	State         string `json:"state"`
	CountryCode   string `json:"country_code"`
}

type nominatimResult struct {
	DisplayName string           `json:"display_name"`
	Lat         string           `json:"lat"`
	Lon         string           `json:"lon"`
	Address     nominatimAddress `json:"address"`
}

// Geocode resolves a free-form address into candidate results.
func (n *Nominatim) Geocode(ctx context.Context, address string) ([]ports.GeocodeResult, error) {
	params := url.Values{}
	params.Set("q", address)
	params.Set("format", "json")
	params.Set("addressdetails", "1")
	params.Set("accept-language", "en")
	params.Set("limit", "5")

	var raw []nominatimResult
	if err := n.doRequest(ctx, "search", params, &raw); err != nil {
		metrics.GeocodeRequests.WithLabelValues("forward", "error").Inc()
		return nil, err
	}

	results := make([]ports.GeocodeResult, 0, len(raw))
	for _, r := range raw {
		results = append(results, toResult(r))
	}
	outcome := "hit"
	if len(results) == 0 {
		outcome = "miss"
	}
	metrics.GeocodeRequests.WithLabelValues("forward", outcome).Inc()
	return results, nil
}

// Reverse resolves a coordinate into the address it falls within.
func (n *Nominatim) Reverse(ctx context.Context, loc domain.Coordinate) (*ports.GeocodeResult, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(loc.Lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(loc.Lng, 'f', -1, 64))
	params.Set("format", "json")
	params.Set("addressdetails", "1")
	params.Set("accept-language", "en")

	var raw nominatimResult
	if err := n.doRequest(ctx, "reverse", params, &raw); err != nil {
		metrics.GeocodeRequests.WithLabelValues("reverse", "error").Inc()
		return nil, err
	}
	if raw.DisplayName == "" {
		metrics.GeocodeRequests.WithLabelValues("reverse", "miss").Inc()
		return nil, nil
	}

	result := toResult(raw)
	// Reverse responses echo the queried point; keep the caller's exact
	// coordinate rather than the string round-trip.
	result.Location = loc
	metrics.GeocodeRequests.WithLabelValues("reverse", "hit").Inc()
	return &result, nil
}

func (n *Nominatim) doRequest(ctx context.Context, endpoint string, params url.Values, v any) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return err
	}

	start := time.Now()
	defer func() {
		metrics.ProviderLatency.WithLabelValues("nominatim").Observe(time.Since(start).Seconds())
	}()

	u := fmt.Sprintf("%s/%s?%s", n.baseURL, endpoint, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", n.userAgent)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("nominatim: %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// toResult maps a Nominatim payload onto the provider-neutral result. The
// locality chain is ordered most-specific first; consumers walk it for the
// first non-blank entry.
func toResult(r nominatimResult) ports.GeocodeResult {
	lat, _ := strconv.ParseFloat(r.Lat, 64)
	lon, _ := strconv.ParseFloat(r.Lon, 64)
	a := r.Address
	return ports.GeocodeResult{
		DisplayName: r.DisplayName,
		Location:    domain.Coordinate{Lat: lat, Lng: lon},
		LocalityChain: []string{
			a.City, a.Town, a.Village, a.Hamlet,
			a.Municipality, a.County, a.StateDistrict, a.State,
		},
		State:       a.State,
		County:      a.County,
		CountryCode: a.CountryCode,
	}
}
