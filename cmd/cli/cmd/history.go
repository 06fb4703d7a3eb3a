// Package cmd - history command
package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"kitchen-cost/core/output"
	"kitchen-cost/internal/errors"
)

// historyCmd shows an ingredient's price history
var historyCmd = &cobra.Command{
	Use:   "history <ingredient>",
	Short: "Show price history for an ingredient",
	Long: `List every recorded price observation for an ingredient, grouped by
distributor and SKU, newest first. Deactivated SKUs keep their history.

Examples:
  kitchen-cost history butter
  kitchen-cost history flour --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
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
	groups, err := eng.PriceHistory(ctx, ing.ID)
	if err != nil {
		return err
	}
	return output.RenderHistory(os.Stdout, groups, format, false)
}
