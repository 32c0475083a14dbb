package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rfsurvey/antenna-cli/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the last sync per state",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		syncs, err := s.ListSyncs(ctx)
		if err != nil {
			return err
		}

		if len(syncs) == 0 {
			zap.L().Info("no syncs recorded, run 'antenna-cli sync' to download exports")
			return nil
		}

		formatSyncs(os.Stdout, syncs)
		return nil
	},
}

// formatSyncs writes a tabular representation of sync records to w.
func formatSyncs(out io.Writer, syncs []store.SyncRecord) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "STATE\tSYNCED\tROWS\tPATH")
	_, _ = fmt.Fprintln(w, "-----\t------\t----\t----")

	for _, rec := range syncs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
			rec.State,
			rec.SyncedAt.Format("2006-01-02 15:04"),
			rec.Rows,
			rec.Path,
		)
	}
	_ = w.Flush()
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
