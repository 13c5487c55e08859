package main

import (
	"context"
	"fmt"
	"os"

	"github.com/21namanpandey/e-library/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:     "elib",
	Short:   "E-library API server",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		setupLogging(cfg)
		cmd.SetContext(withConfig(cmd.Context(), cfg))
		return nil
	},
	// serve is the default when no subcommand is given
	RunE:         runServe,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
