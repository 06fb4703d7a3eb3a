// Package cmd - compare command
package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"kitchen-cost/core/output"
	"kitchen-cost/internal/errors"
)

// compareCmd shows the per-distributor price matrix for one ingredient
var compareCmd = &cobra.Command{
	Use:   "compare <ingredient>",
	Short: "Compare distributor prices for an ingredient",
	Long: `Show every distributor's latest offer for an ingredient side by side,
normalized to price per base unit, with the best offer marked and the
spread between cheapest and dearest.

Examples:
  kitchen-cost compare butter
  kitchen-cost compare "olive oil" --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runCompare,
}

func runCompare(cmd *cobra.Command, args []string) error {
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

	ing, ok := eng.FindIngredient(args[0])
	if !ok {
		return errors.NotFound("ingredient", args[0])
	}
	cmpView, err := eng.PriceComparison(ctx, ing.ID)
	if err != nil {
		return err
	}
	return output.RenderComparison(os.Stdout, cmpView, format, false)
}
