package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rfsurvey/antenna-cli/internal/portal"
)

var syncStates []string

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Download antenna licensing exports",
	Long:  "Downloads the licensing CSV export for each state from the Anatel portal, skipping states whose export is unchanged since the last sync.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		states := syncStates
		if len(states) == 0 {
			states = []string{cfg.Portal.State}
		}

		client := portal.NewClient(newFetcher(), s, cfg.Portal.DataDir, portal.WithBaseURL(cfg.Portal.BaseURL))

		for _, uf := range states {
			rec, err := client.SyncState(ctx, uf)
			if err != nil {
				return err
			}
			zap.L().Info("state synced",
				zap.String("state", rec.State),
				zap.String("path", rec.Path),
				zap.Int64("rows", rec.Rows),
			)
		}

		return nil
	},
}

func init() {
	syncCmd.Flags().StringSliceVar(&syncStates, "state", nil, "state codes to sync (default from config)")
	rootCmd.AddCommand(syncCmd)
}
