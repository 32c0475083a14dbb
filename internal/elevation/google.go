package elevation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/rfsurvey/antenna-cli/internal/geo"
)

const defaultGoogleBaseURL = "https://maps.googleapis.com/maps/api/elevation/json"

// GoogleProvider queries the Google Maps Elevation API, which samples the
// path server-side.
type GoogleProvider struct {
	key        string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// GoogleOption configures the GoogleProvider.
type GoogleOption func(*GoogleProvider)

// WithGoogleBaseURL sets a custom API base URL (for testing).
func WithGoogleBaseURL(url string) GoogleOption {
	return func(p *GoogleProvider) {
		p.baseURL = url
	}
}

// WithGoogleHTTPClient sets a custom HTTP client.
func WithGoogleHTTPClient(c *http.Client) GoogleOption {
	return func(p *GoogleProvider) {
		p.httpClient = c
	}
}

// NewGoogleProvider creates a Google Elevation API provider.
func NewGoogleProvider(key string, opts ...GoogleOption) *GoogleProvider {
	p := &GoogleProvider{
		key:        key,
		baseURL:    defaultGoogleBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(10, 10),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements Provider.
func (p *GoogleProvider) Name() string { return "google" }

// googleElevationResponse is the JSON response from the Elevation API.
type googleElevationResponse struct {
	Results []struct {
		Elevation float64 `json:"elevation"`
		Location  struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
		Resolution float64 `json:"resolution"`
	} `json:"results"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
}

// AlongPath implements Provider using the sampled-path form of the API.
func (p *GoogleProvider) AlongPath(ctx context.Context, from, to geo.Point, samples int) ([]Sample, error) {
	if p.key == "" {
		return nil, eris.New("elevation: google api key not configured")
	}
	if samples < 2 {
		return nil, eris.Errorf("elevation: need at least 2 samples, got %d", samples)
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "elevation: google rate limit")
	}

	params := url.Values{
		"path":    {fmt.Sprintf("%f,%f|%f,%f", from.Lat, from.Lon, to.Lat, to.Lon)},
		"samples": {fmt.Sprintf("%d", samples)},
		"key":     {p.key},
	}

	reqURL := p.baseURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "elevation: google build request")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "elevation: google request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("elevation: google returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "elevation: google read body")
	}

	var googleResp googleElevationResponse
	if err := json.Unmarshal(body, &googleResp); err != nil {
		return nil, eris.Wrap(err, "elevation: google parse response")
	}

	if googleResp.Status != "OK" {
		return nil, eris.Errorf("elevation: google status %s: %s", googleResp.Status, googleResp.ErrorMessage)
	}

	out := make([]Sample, 0, len(googleResp.Results))
	for _, r := range googleResp.Results {
		out = append(out, Sample{
			Location:    geo.Point{Lat: r.Location.Lat, Lon: r.Location.Lng},
			ElevationM:  r.Elevation,
			ResolutionM: r.Resolution,
		})
	}

	return out, nil
}
