// Package elevation retrieves terrain elevation samples along the line of
// sight between a reference point and selected antenna sites.
package elevation

import (
	"context"

	"github.com/rfsurvey/antenna-cli/internal/geo"
)

// Sample is one elevation reading along a path.
type Sample struct {
	Location   geo.Point `json:"location"`
	ElevationM float64   `json:"elevation_m"`
	// ResolutionM is the ground distance, in meters, of the data point the
	// reading was interpolated from. Zero when the provider doesn't report it.
	ResolutionM float64 `json:"resolution_m,omitempty"`
}

// Provider represents a single elevation backend.
type Provider interface {
	Name() string

	// AlongPath returns the given number of evenly spaced elevation samples
	// on the great-circle path from one point to another, endpoints included.
	AlongPath(ctx context.Context, from, to geo.Point, samples int) ([]Sample, error)
}
