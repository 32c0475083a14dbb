package elevation

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/rfsurvey/antenna-cli/internal/geo"
)

const defaultOpenElevationBaseURL = "https://api.open-elevation.com/api/v1/lookup"

// OpenElevationProvider queries the Open-Elevation public API. The API only
// looks up discrete points, so the path is interpolated client-side.
type OpenElevationProvider struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// OpenElevationOption configures the OpenElevationProvider.
type OpenElevationOption func(*OpenElevationProvider)

// WithOpenElevationBaseURL sets a custom API base URL (for testing).
func WithOpenElevationBaseURL(url string) OpenElevationOption {
	return func(p *OpenElevationProvider) {
		p.baseURL = url
	}
}

// WithOpenElevationHTTPClient sets a custom HTTP client.
func WithOpenElevationHTTPClient(c *http.Client) OpenElevationOption {
	return func(p *OpenElevationProvider) {
		p.httpClient = c
	}
}

// NewOpenElevationProvider creates an Open-Elevation provider.
func NewOpenElevationProvider(opts ...OpenElevationOption) *OpenElevationProvider {
	p := &OpenElevationProvider{
		baseURL:    defaultOpenElevationBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(1, 2),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements Provider.
func (p *OpenElevationProvider) Name() string { return "open-elevation" }

// SamplePath returns n evenly spaced points from one coordinate to another,
// endpoints included. Profile paths are a few kilometers at most, so linear
// interpolation in latitude/longitude is within the terrain data resolution.
func SamplePath(from, to geo.Point, n int) []geo.Point {
	points := make([]geo.Point, 0, n)
	for i := range n {
		t := float64(i) / float64(n-1)
		points = append(points, geo.Point{
			Lat: from.Lat + t*(to.Lat-from.Lat),
			Lon: from.Lon + t*(to.Lon-from.Lon),
		})
	}
	return points
}

type openElevationRequest struct {
	Locations []openElevationLocation `json:"locations"`
}

type openElevationLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Elevation float64 `json:"elevation,omitempty"`
}

type openElevationResponse struct {
	Results []openElevationLocation `json:"results"`
}

// AlongPath implements Provider by interpolating the path locally and
// looking up all points in one POST request.
func (p *OpenElevationProvider) AlongPath(ctx context.Context, from, to geo.Point, samples int) ([]Sample, error) {
	if samples < 2 {
		return nil, eris.Errorf("elevation: need at least 2 samples, got %d", samples)
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "elevation: open-elevation rate limit")
	}

	reqBody := openElevationRequest{}
	for _, pt := range SamplePath(from, to, samples) {
		reqBody.Locations = append(reqBody.Locations, openElevationLocation{
			Latitude:  pt.Lat,
			Longitude: pt.Lon,
		})
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, eris.Wrap(err, "elevation: open-elevation marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, eris.Wrap(err, "elevation: open-elevation build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "elevation: open-elevation request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("elevation: open-elevation returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "elevation: open-elevation read body")
	}

	var oeResp openElevationResponse
	if err := json.Unmarshal(body, &oeResp); err != nil {
		return nil, eris.Wrap(err, "elevation: open-elevation parse response")
	}

	if len(oeResp.Results) != samples {
		return nil, eris.Errorf("elevation: open-elevation returned %d results, want %d", len(oeResp.Results), samples)
	}

	out := make([]Sample, 0, len(oeResp.Results))
	for _, r := range oeResp.Results {
		out = append(out, Sample{
			Location:   geo.Point{Lat: r.Latitude, Lon: r.Longitude},
			ElevationM: r.Elevation,
		})
	}

	return out, nil
}
