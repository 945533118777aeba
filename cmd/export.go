package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/sitetrack/internal/export"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the progress workbook for the configured site",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		snap, err := e.Store.LoadState(ctx, cfg.Site)
		if err != nil {
			return err
		}

		completed := make(map[string]bool, len(snap.Completed))
		for _, id := range snap.Completed {
			completed[id] = true
		}

		out := exportOut
		if out == "" {
			out = cfg.Export.Path
		}
		if err := export.WriteProgress(out, e.Derived.Labels, completed, snap.Notes); err != nil {
			return err
		}

		zap.L().Info("workbook written",
			zap.String("site", cfg.Site),
			zap.String("path", out),
			zap.Int("tracked", len(e.Derived.Labels)),
			zap.Int("done", len(snap.Completed)),
		)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output path (default from config)")
	rootCmd.AddCommand(exportCmd)
}
