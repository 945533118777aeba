package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/sitetrack/internal/geomx"
	"github.com/sells-group/sitetrack/internal/layer"
)

var layersCmd = &cobra.Command{
	Use:   "layers",
	Short: "Validate the layer manifest and print layer stats",
	RunE: func(cmd *cobra.Command, args []string) error {
		manifest, err := layer.LoadManifest(cfg.Layers.Manifest)
		if err != nil {
			return err
		}

		layers, err := layer.LoadAll(cmd.Context(), manifest)
		if err != nil {
			return err
		}

		bounds, err := geomx.ComputeBounds(layers)
		if err != nil {
			return err
		}

		fmt.Printf("Manifest: %s (%d of %d layers loaded)\n\n",
			cfg.Layers.Manifest, len(layers), len(manifest.Layers))
		for _, l := range layers {
			fmt.Printf("  %-20s %-10s %5d features\n", l.Name, l.Role, len(l.Features))
		}
		fmt.Printf("\nBounds: x [%.4f, %.4f]  y [%.4f, %.4f]\n",
			bounds.MinX, bounds.MaxX, bounds.MinY, bounds.MaxY)

		derived := layer.Derive(manifest.Layers, layers)
		fmt.Printf("Tracked features: %d\n", len(derived.Labels))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(layersCmd)
}
