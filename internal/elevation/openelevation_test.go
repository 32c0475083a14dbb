package elevation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfsurvey/antenna-cli/internal/geo"
)

func TestSamplePath(t *testing.T) {
	from := geo.Point{Lat: 0, Lon: 0}
	to := geo.Point{Lat: 1, Lon: 2}

	points := SamplePath(from, to, 5)
	require.Len(t, points, 5)
	assert.Equal(t, from, points[0])
	assert.Equal(t, to, points[4])
	assert.InDelta(t, 0.5, points[2].Lat, 1e-12)
	assert.InDelta(t, 1.0, points[2].Lon, 1e-12)
}

func TestSamplePath_TwoPoints(t *testing.T) {
	from := geo.Point{Lat: -22.9, Lon: -43.2}
	to := geo.Point{Lat: -22.8, Lon: -43.1}

	points := SamplePath(from, to, 2)
	require.Len(t, points, 2)
	assert.Equal(t, from, points[0])
	assert.Equal(t, to, points[1])
}

func TestOpenElevationProvider_AlongPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req openElevationRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Locations, 3)

		resp := openElevationResponse{}
		for i, loc := range req.Locations {
			loc.Elevation = float64(10 * i)
			resp.Results = append(resp.Results, loc)
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	p := NewOpenElevationProvider(WithOpenElevationBaseURL(srv.URL))
	samples, err := p.AlongPath(context.Background(), geo.Point{Lat: -22.9, Lon: -43.2}, geo.Point{Lat: -22.8, Lon: -43.1}, 3)
	require.NoError(t, err)
	require.Len(t, samples, 3)
	assert.Equal(t, 0.0, samples[0].ElevationM)
	assert.Equal(t, 20.0, samples[2].ElevationM)
	assert.Equal(t, geo.Point{Lat: -22.9, Lon: -43.2}, samples[0].Location)
}

func TestOpenElevationProvider_ResultCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := openElevationResponse{Results: []openElevationLocation{{Latitude: 1, Longitude: 2}}}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	p := NewOpenElevationProvider(WithOpenElevationBaseURL(srv.URL))
	_, err := p.AlongPath(context.Background(), geo.Point{}, geo.Point{Lat: 1}, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "returned 1 results, want 3")
}

func TestOpenElevationProvider_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := NewOpenElevationProvider(WithOpenElevationBaseURL(srv.URL))
	_, err := p.AlongPath(context.Background(), geo.Point{}, geo.Point{Lat: 1}, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}
