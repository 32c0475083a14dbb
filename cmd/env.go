package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/rfsurvey/antenna-cli/internal/antenna"
	"github.com/rfsurvey/antenna-cli/internal/config"
	"github.com/rfsurvey/antenna-cli/internal/elevation"
	"github.com/rfsurvey/antenna-cli/internal/fetcher"
	"github.com/rfsurvey/antenna-cli/internal/store"
)

// openStore opens the SQLite store and applies migrations. Callers should
// defer Close.
func openStore(ctx context.Context) (*store.Store, error) {
	s, err := store.New(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func newFetcher() fetcher.Fetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{})
}

// elevationProvider builds the configured provider, wrapped with the
// SQLite response cache.
func elevationProvider(cfg config.ElevationConfig, s *store.Store) (elevation.Provider, error) {
	var inner elevation.Provider
	switch cfg.Provider {
	case "google":
		var opts []elevation.GoogleOption
		if cfg.BaseURL != "" {
			opts = append(opts, elevation.WithGoogleBaseURL(cfg.BaseURL))
		}
		inner = elevation.NewGoogleProvider(cfg.APIKey, opts...)
	case "open-elevation":
		var opts []elevation.OpenElevationOption
		if cfg.BaseURL != "" {
			opts = append(opts, elevation.WithOpenElevationBaseURL(cfg.BaseURL))
		}
		inner = elevation.NewOpenElevationProvider(opts...)
	default:
		return nil, eris.Errorf("unknown elevation provider %q", cfg.Provider)
	}

	ttl := time.Duration(cfg.CacheTTLHours) * time.Hour
	return elevation.NewCachingProvider(inner, s, ttl), nil
}

// loadStations reads the station CSV, applying the configured charset and
// operator alias table.
func loadStations(ctx context.Context, path string) ([]antenna.Record, error) {
	opts := antenna.LoadOptions{Encoding: cfg.Portal.Encoding}
	if cfg.Portal.Aliases != "" {
		aliases, err := antenna.LoadAliases(cfg.Portal.Aliases)
		if err != nil {
			return nil, err
		}
		opts.Aliases = aliases
	}
	return antenna.LoadStations(ctx, path, opts)
}
