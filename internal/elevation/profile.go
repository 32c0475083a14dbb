package elevation

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rfsurvey/antenna-cli/internal/geo"
)

// Profile is the terrain between a reference point and one antenna site.
// DistancesM holds the cumulative ground distance in meters at each sample,
// starting at zero.
type Profile struct {
	Target     geo.Point `json:"target"`
	Samples    []Sample  `json:"samples"`
	DistancesM []float64 `json:"distances_m"`
}

// NewProfile annotates a sample run with cumulative ground distances.
func NewProfile(target geo.Point, samples []Sample) Profile {
	distances := make([]float64, len(samples))
	for i := 1; i < len(samples); i++ {
		step := geo.Distance(samples[i-1].Location, samples[i].Location)
		distances[i] = distances[i-1] + step*1000
	}
	return Profile{Target: target, Samples: samples, DistancesM: distances}
}

// FetchProfiles retrieves the elevation profile from ref to every target,
// with bounded parallelism. Results keep the order of targets.
func FetchProfiles(ctx context.Context, p Provider, ref geo.Point, targets []geo.Point, samples, concurrency int) ([]Profile, error) {
	if len(targets) == 0 {
		return nil, nil
	}
	if concurrency <= 0 {
		concurrency = 4
	}

	profiles := make([]Profile, len(targets))

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(concurrency)

	for i, target := range targets {
		eg.Go(func() error {
			run, err := p.AlongPath(gCtx, ref, target, samples)
			if err != nil {
				return eris.Wrapf(err, "elevation: profile to %.5f,%.5f", target.Lat, target.Lon)
			}
			profiles[i] = NewProfile(target, run)
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	zap.L().Info("fetched elevation profiles",
		zap.String("provider", p.Name()),
		zap.Int("profiles", len(profiles)),
		zap.Int("samples", samples),
	)

	return profiles, nil
}
