// Package cmd - movers command
package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"kitchen-cost/core/output"
)

var moversWindow int

// moversCmd shows the biggest best-price changes over a trailing window
var moversCmd = &cobra.Command{
	Use:   "movers",
	Short: "Show ingredients whose best price moved recently",
	Long: `Compare each ingredient's current best per-base-unit price against its
best price before the window, largest absolute change first. Moves under one
percent are dropped as noise.

Examples:
  kitchen-cost movers
  kitchen-cost movers --window 90 --format json`,
	RunE: runMovers,
}

func init() {
	moversCmd.Flags().IntVarP(&moversWindow, "window", "w", 30, "trailing window in days")
}

func runMovers(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	format, err := renderFormat()
	if err != nil {
		return err
	}
	eng, store, err := loadEngine(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	movers := eng.PriceMovers(ctx, moversWindow)
	return output.RenderMovers(os.Stdout, movers, moversWindow, format, false)
}
