package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/arrivalkit/formpilot/pkg/config"
)

var rootCmd = &cobra.Command{
	Use:   "formpilot",
	Short: "Arrival form auto-fill engine",
	Long: `Formpilot drives traveler arrival-registration web forms: it fills
multi-step forms from a traveler profile, pauses before the final
submission for user review, and captures the confirmation artifact
once the user submits.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("db-path", config.DefaultDBPath(), "SQLite database path for captured records")
	rootCmd.PersistentFlags().Bool("headless", false, "Run the browser headless")
	rootCmd.PersistentFlags().Duration("tick-interval", config.DefaultTickInterval, "Orchestrator retry tick interval")
	rootCmd.PersistentFlags().Int("max-ticks", config.DefaultMaxTicks, "Retry ticks per step")
	rootCmd.PersistentFlags().Duration("marker-wait", config.DefaultMarkerWait, "Wait budget for next-step markers")

	viper.BindPFlag("db-path", rootCmd.PersistentFlags().Lookup("db-path"))
	viper.BindPFlag("headless", rootCmd.PersistentFlags().Lookup("headless"))
	viper.BindPFlag("tick-interval", rootCmd.PersistentFlags().Lookup("tick-interval"))
	viper.BindPFlag("max-ticks", rootCmd.PersistentFlags().Lookup("max-ticks"))
	viper.BindPFlag("marker-wait", rootCmd.PersistentFlags().Lookup("marker-wait"))
}
