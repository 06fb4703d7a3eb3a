// Package cmd - pricing command
package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"kitchen-cost/core/engine"
	"kitchen-cost/core/output"
)

var (
	pricingSearch     string
	pricingCategory   string
	pricingRaw        bool
	pricingComponents bool
	pricingRecipes    bool
)

// pricingCmd renders the unified multi-unit pricing view
var pricingCmd = &cobra.Command{
	Use:   "pricing",
	Short: "Show unified multi-unit pricing for ingredients, components, and recipes",
	Long: `Resolve the current best cost of every catalog node and project it into
the display units of its base family: grams, ounces, and pounds for mass;
milliliters, fluid ounces, and liters for volume; each for counted goods.

Examples:
  kitchen-cost pricing --catalog ./catalog
  kitchen-cost pricing --search butter
  kitchen-cost pricing --recipes --format json`,
	RunE: runPricing,
}

func init() {
	pricingCmd.Flags().StringVarP(&pricingSearch, "search", "s", "", "filter by name substring")
	pricingCmd.Flags().StringVar(&pricingCategory, "category", "", "filter ingredients by category")
	pricingCmd.Flags().BoolVar(&pricingRaw, "raw", false, "include raw ingredients only")
	pricingCmd.Flags().BoolVar(&pricingComponents, "components", false, "include components only")
	pricingCmd.Flags().BoolVar(&pricingRecipes, "recipes", false, "include recipes only")
}

func runPricing(cmd *cobra.Command, args []string) error {
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

	view, err := eng.UnifiedPricing(ctx, engine.Filter{
		Search:            pricingSearch,
		Category:          pricingCategory,
		IncludeRaw:        pricingRaw,
		IncludeComponents: pricingComponents,
		IncludeRecipes:    pricingRecipes,
	})
	if err != nil {
		return err
	}
	return output.RenderUnifiedPricing(os.Stdout, view, format, false)
}
