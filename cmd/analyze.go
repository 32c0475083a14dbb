package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rfsurvey/antenna-cli/internal/antenna"
	"github.com/rfsurvey/antenna-cli/internal/elevation"
	"github.com/rfsurvey/antenna-cli/internal/geo"
	"github.com/rfsurvey/antenna-cli/internal/portal"
	"github.com/rfsurvey/antenna-cli/internal/report"
	"github.com/rfsurvey/antenna-cli/internal/selector"
)

var (
	analyzeStations    string
	analyzePoints      string
	analyzeOutput      string
	analyzeBuckets     int
	analyzeOperators   int
	analyzeSamples     int
	analyzeConcurrency int
	analyzeNoProfiles  bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze antenna coverage around reference points",
	Long:  "For each reference point, selects the nearest antenna sites, writes the selection as output.json, and fetches terrain elevation profiles toward each site into profiles.json.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		stationsPath := analyzeStations
		if stationsPath == "" {
			stationsPath = portal.CSVPath(cfg.Portal.DataDir, cfg.Portal.State)
		}

		records, err := loadStations(ctx, stationsPath)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return eris.Errorf("no station records in %s, run 'antenna-cli sync' first", stationsPath)
		}

		points, err := antenna.LoadReferencePoints(ctx, analyzePoints)
		if err != nil {
			return err
		}

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		provider, err := elevationProvider(cfg.Elevation, s)
		if err != nil {
			return err
		}

		outputDir := analyzeOutput
		if outputDir == "" {
			outputDir = cfg.Output.Dir
		}
		writer := report.NewWriter(outputDir)

		concurrency := analyzeConcurrency
		if concurrency == 0 {
			concurrency = cfg.Analyze.Concurrency
		}

		run := analysisRun{
			writer:       writer,
			provider:     provider,
			records:      records,
			minBuckets:   analyzeBuckets,
			minOperators: analyzeOperators,
			samples:      analyzeSamples,
			concurrency:  concurrency,
			skipProfiles: analyzeNoProfiles,
		}
		if !cmd.Flags().Changed("buckets") {
			run.minBuckets = cfg.Selector.MinDistanceBuckets
		}
		if !cmd.Flags().Changed("operators") {
			run.minOperators = cfg.Selector.MinOperators
		}
		if !cmd.Flags().Changed("samples") {
			run.samples = cfg.Elevation.Samples
		}

		eg, gCtx := errgroup.WithContext(ctx)
		eg.SetLimit(concurrency)

		for _, ref := range points {
			eg.Go(func() error {
				return run.analyzePoint(gCtx, ref)
			})
		}
		if err := eg.Wait(); err != nil {
			return err
		}

		zap.L().Info("analysis complete",
			zap.Int("points", len(points)),
			zap.String("output_dir", outputDir),
		)
		return nil
	},
}

// analysisRun carries the resolved settings for one analyze invocation.
type analysisRun struct {
	writer       *report.Writer
	provider     elevation.Provider
	records      []antenna.Record
	minBuckets   int
	minOperators int
	samples      int
	concurrency  int
	skipProfiles bool
}

// analyzePoint runs the selection and profile retrieval for one reference
// point and writes both result files.
func (r analysisRun) analyzePoint(ctx context.Context, ref geo.Point) error {
	log := zap.L().With(zap.Float64("lat", ref.Lat), zap.Float64("lon", ref.Lon))

	result := selector.Select(r.records, ref, r.minBuckets, r.minOperators)
	if len(result) == 0 {
		log.Warn("no antennas selected for point")
	}

	if _, err := r.writer.WriteSelection(ref, result); err != nil {
		return err
	}
	log.Info("selection written", zap.Int("buckets", len(result)))

	if r.skipProfiles || len(result) == 0 {
		return nil
	}

	targets := report.ExtractTargets(result)
	locations := make([]geo.Point, len(targets))
	for i, t := range targets {
		locations[i] = t.Location
	}

	profiles, err := elevation.FetchProfiles(ctx, r.provider, ref, locations, r.samples, r.concurrency)
	if err != nil {
		return err
	}

	if _, err := r.writer.WriteProfiles(ref, profiles); err != nil {
		return err
	}
	log.Info("profiles written", zap.Int("profiles", len(profiles)))
	return nil
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeStations, "stations", "", "station CSV path (default from last sync)")
	analyzeCmd.Flags().StringVar(&analyzePoints, "points", "", "reference points file (.csv with ';' delimiter, or .xlsx)")
	analyzeCmd.Flags().StringVar(&analyzeOutput, "output", "", "output directory (default from config)")
	analyzeCmd.Flags().IntVar(&analyzeBuckets, "buckets", 4, "minimum distinct distances to include")
	analyzeCmd.Flags().IntVar(&analyzeOperators, "operators", 2, "minimum distinct operators to include")
	analyzeCmd.Flags().IntVar(&analyzeSamples, "samples", 50, "elevation samples per profile")
	analyzeCmd.Flags().IntVar(&analyzeConcurrency, "concurrency", 0, "parallel points (default from config)")
	analyzeCmd.Flags().BoolVar(&analyzeNoProfiles, "no-profiles", false, "skip elevation profile retrieval")
	_ = analyzeCmd.MarkFlagRequired("points")
	rootCmd.AddCommand(analyzeCmd)
}
