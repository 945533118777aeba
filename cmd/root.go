package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/sitetrack/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "sitetrack",
	Short: "Interactive completion tracker for solar site assets",
	Long:  "Loads site layers from GeoJSON and shapefiles, serves an interactive viewer for marking assets complete and placing field notes, and exports progress workbooks.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
