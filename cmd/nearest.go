package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/rfsurvey/antenna-cli/internal/geo"
	"github.com/rfsurvey/antenna-cli/internal/portal"
	"github.com/rfsurvey/antenna-cli/internal/selector"
)

var (
	nearestLat       float64
	nearestLon       float64
	nearestStations  string
	nearestBuckets   int
	nearestOperators int
)

var nearestCmd = &cobra.Command{
	Use:   "nearest",
	Short: "Select the nearest antennas for one coordinate",
	Long:  "Runs the nearest-antenna selection for a single latitude/longitude and prints the result as JSON.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		stationsPath := nearestStations
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

		minBuckets, minOperators := nearestBuckets, nearestOperators
		if !cmd.Flags().Changed("buckets") {
			minBuckets = cfg.Selector.MinDistanceBuckets
		}
		if !cmd.Flags().Changed("operators") {
			minOperators = cfg.Selector.MinOperators
		}

		ref := geo.Point{Lat: nearestLat, Lon: nearestLon}
		result := selector.Select(records, ref, minBuckets, minOperators)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "    ")
		return enc.Encode(result)
	},
}

func init() {
	nearestCmd.Flags().Float64Var(&nearestLat, "lat", 0, "reference latitude")
	nearestCmd.Flags().Float64Var(&nearestLon, "lon", 0, "reference longitude")
	nearestCmd.Flags().StringVar(&nearestStations, "stations", "", "station CSV path (default from last sync)")
	nearestCmd.Flags().IntVar(&nearestBuckets, "buckets", 4, "minimum distinct distances to include")
	nearestCmd.Flags().IntVar(&nearestOperators, "operators", 2, "minimum distinct operators to include")
	_ = nearestCmd.MarkFlagRequired("lat")
	_ = nearestCmd.MarkFlagRequired("lon")
	rootCmd.AddCommand(nearestCmd)
}
