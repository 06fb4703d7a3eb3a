// Package cmd - cost command
package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"kitchen-cost/core/output"
	"kitchen-cost/internal/errors"
)

// costCmd resolves a node's cost with its per-line breakdown
var costCmd = &cobra.Command{
	Use:   "cost <name>",
	Short: "Roll up the cost of an ingredient, component, or recipe",
	Long: `Resolve the per-base-unit cost of a node, rolling up through nested
components and sub-recipes. Unpriced ingredients surface the whole chain as
unknown rather than guessing; cyclic compositions report the cycle path.

Examples:
  kitchen-cost cost "beurre blanc"
  kitchen-cost cost butter --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runCost,
}

func runCost(cmd *cobra.Command, args []string) error {
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

	ref, name, ok := eng.FindNode(args[0])
	if !ok {
		return errors.NotFound("node", args[0])
	}
	res, err := eng.CostPerBaseUnit(ctx, ref)
	if err != nil {
		return err
	}
	return output.RenderCost(os.Stdout, name, res, format, false)
}
