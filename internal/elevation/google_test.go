package elevation

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfsurvey/antenna-cli/internal/geo"
)

func TestGoogleProvider_AlongPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "50", r.URL.Query().Get("samples"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Contains(t, r.URL.Query().Get("path"), "|")

		fmt.Fprint(w, `{
			"status": "OK",
			"results": [
				{"elevation": 11.2, "location": {"lat": -22.9, "lng": -43.2}, "resolution": 152.7},
				{"elevation": 30.5, "location": {"lat": -22.89, "lng": -43.19}, "resolution": 152.7}
			]
		}`)
	}))
	defer srv.Close()

	p := NewGoogleProvider("test-key", WithGoogleBaseURL(srv.URL))
	samples, err := p.AlongPath(context.Background(), geo.Point{Lat: -22.9, Lon: -43.2}, geo.Point{Lat: -22.89, Lon: -43.19}, 50)
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, 11.2, samples[0].ElevationM)
	assert.Equal(t, geo.Point{Lat: -22.89, Lon: -43.19}, samples[1].Location)
	assert.Equal(t, 152.7, samples[1].ResolutionM)
}

func TestGoogleProvider_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status": "REQUEST_DENIED", "error_message": "key invalid", "results": []}`)
	}))
	defer srv.Close()

	p := NewGoogleProvider("bad-key", WithGoogleBaseURL(srv.URL))
	_, err := p.AlongPath(context.Background(), geo.Point{}, geo.Point{Lat: 1}, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REQUEST_DENIED")
	assert.Contains(t, err.Error(), "key invalid")
}

func TestGoogleProvider_MissingKey(t *testing.T) {
	p := NewGoogleProvider("")
	_, err := p.AlongPath(context.Background(), geo.Point{}, geo.Point{Lat: 1}, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key not configured")
}

func TestGoogleProvider_TooFewSamples(t *testing.T) {
	p := NewGoogleProvider("test-key")
	_, err := p.AlongPath(context.Background(), geo.Point{}, geo.Point{Lat: 1}, 1)
	require.Error(t, err)
}

func TestGoogleProvider_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewGoogleProvider("test-key", WithGoogleBaseURL(srv.URL))
	_, err := p.AlongPath(context.Background(), geo.Point{}, geo.Point{Lat: 1}, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}
