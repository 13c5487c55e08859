package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/21namanpandey/e-library/tempstore"
	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove stale staged uploads",
	Long: `Remove files in UPLOAD_DIR that are older than --older-than.

Requests clean up their own staged files; this catches what a crashed or
killed process left behind.`,
	RunE: runSweep,
}

var sweepOlderThan time.Duration

func init() {
	sweepCmd.Flags().DurationVar(&sweepOlderThan, "older-than", time.Hour, "minimum age of files to remove")
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	if sweepOlderThan <= 0 {
		return fmt.Errorf("--older-than must be positive")
	}
	cfg, err := configFromContext(cmd.Context())
	if err != nil {
		return err
	}
	temp, err := tempstore.New(cfg.UploadDir, slog.Default())
	if err != nil {
		return err
	}
	removed, err := temp.Sweep(sweepOlderThan)
	slog.Info("sweep complete", "dir", temp.Dir(), "removed", removed, "olderThan", sweepOlderThan)
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}
	return nil
}
