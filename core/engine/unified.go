package engine

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"kitchen-cost/core/catalog"
	"kitchen-cost/core/cost"
	"kitchen-cost/core/projection"
)

// Filter narrows the unified pricing view. The zero value includes every
// node kind with no search or category restriction.
type Filter struct {
	// Search is a case-insensitive substring match on the node name
	Search string

	// Category restricts ingredient rows to one category. Recipes carry no
	// category and are excluded when this is set.
	Category string

	IncludeRaw        bool
	IncludeComponents bool
	IncludeRecipes    bool
}

// wantsAll reports whether no kind flag was set, which means all kinds
func (f Filter) wantsAll() bool {
	return !f.IncludeRaw && !f.IncludeComponents && !f.IncludeRecipes
}

// PricingRow is one node in the unified pricing view
type PricingRow struct {
	Ref      catalog.NodeRef
	Name     string
	Category string
	BaseUnit string

	// State is the resolution outcome; Pricing is populated only for Known
	State   cost.State
	Reason  string
	Pricing projection.MultiUnitPricing

	// BestDistributor names the winning offer for raw ingredient rows
	BestDistributor string
}

// UnifiedPricingView is the node list with projected multi-unit pricing and
// per-kind counts.
type UnifiedPricingView struct {
	Rows []PricingRow

	IngredientCount int
	ComponentCount  int
	RecipeCount     int
}

// UnifiedPricing resolves every node passing the filter and projects known
// costs into the multi-unit display view. Rows sort by kind then name.
func (e *Engine) UnifiedPricing(ctx context.Context, f Filter) (*UnifiedPricingView, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	view := &UnifiedPricingView{}

	for _, ing := range e.graph.Ingredients() {
		if ing.IsComponent() {
			if !f.wantsAll() && !f.IncludeComponents {
				continue
			}
		} else {
			if !f.wantsAll() && !f.IncludeRaw {
				continue
			}
		}
		if !matches(f, ing.Name, ing.Category) {
			continue
		}

		row := e.buildRow(ctx, ing.Ref(), ing.Name, ing.BaseUnit.String())
		row.Category = ing.Category
		view.Rows = append(view.Rows, row)
		if ing.IsComponent() {
			view.ComponentCount++
		} else {
			view.IngredientCount++
		}
	}

	if f.wantsAll() || f.IncludeRecipes {
		for _, r := range e.graph.Recipes() {
			if f.Category != "" || !matches(f, r.Name, "") {
				continue
			}
			_, base, ok := r.BaseYield()
			baseUnit := ""
			if ok {
				baseUnit = base.String()
			}
			view.Rows = append(view.Rows, e.buildRow(ctx, r.Ref(), r.Name, baseUnit))
			view.RecipeCount++
		}
	}

	sort.Slice(view.Rows, func(i, j int) bool {
		a, b := view.Rows[i], view.Rows[j]
		if a.Ref.Kind != b.Ref.Kind {
			return a.Ref.Kind < b.Ref.Kind
		}
		return a.Name < b.Name
	})
	return view, nil
}

func (e *Engine) buildRow(ctx context.Context, ref catalog.NodeRef, name, baseUnit string) PricingRow {
	row := PricingRow{
		Ref:      ref,
		Name:     name,
		BaseUnit: baseUnit,
	}

	res := e.resolver.Resolve(ctx, ref)
	row.State = res.State()
	switch {
	case res.IsKnown():
		perBase, _ := res.PerBaseUnit()
		row.Pricing = projection.Project(perBase, res.BaseUnit())
		row.BestDistributor = e.distributorName(res.Provenance().BestDistributorID)
	case res.IsCyclic():
		row.Reason = res.CyclePath()
	default:
		row.Reason = res.Reason()
	}
	return row
}

func (e *Engine) distributorName(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	if d, ok := e.graph.Distributor(*id); ok {
		return d.Name
	}
	return ""
}

func matches(f Filter, name, category string) bool {
	if f.Search != "" && !strings.Contains(strings.ToLower(name), strings.ToLower(f.Search)) {
		return false
	}
	if f.Category != "" && !strings.EqualFold(category, f.Category) {
		return false
	}
	return true
}
