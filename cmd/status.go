package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print per-layer completion for the configured site",
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

		fmt.Printf("Site: %s\n\n", cfg.Site)

		var order []string
		totals := make(map[string]int)
		done := make(map[string]int)
		for _, l := range e.Derived.Labels {
			if totals[l.Layer] == 0 {
				order = append(order, l.Layer)
			}
			totals[l.Layer]++
			if completed[l.ID] {
				done[l.Layer]++
			}
		}

		var allTotal, allDone int
		for _, layerName := range order {
			allTotal += totals[layerName]
			allDone += done[layerName]
			fmt.Printf("  %-20s %4d / %-4d (%.1f%%)\n",
				layerName, done[layerName], totals[layerName],
				100*float64(done[layerName])/float64(totals[layerName]))
		}
		if allTotal > 0 {
			fmt.Printf("\n  %-20s %4d / %-4d (%.1f%%)\n",
				"all", allDone, allTotal, 100*float64(allDone)/float64(allTotal))
		}
		fmt.Printf("\n  Notes: %d\n", len(snap.Notes))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
