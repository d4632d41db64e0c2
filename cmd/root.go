package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/booking-insights/internal/config"

	_ "time/tzdata" // business time zones on hosts without zoneinfo
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "booking-insights",
	Short: "Booking metrics and owner insights engine",
	Long:  "Scores client reliability, booking risk, deposit policy, demand and revenue exposure for a salon booking platform, and rolls them into a business health dashboard.",
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
