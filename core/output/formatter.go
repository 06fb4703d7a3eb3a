package output

import (
	"encoding/json"
	"fmt"
	"io"

	"kitchen-cost/core/cost"
	"kitchen-cost/core/engine"
	"kitchen-cost/core/money"
	"kitchen-cost/core/pricing"
	"kitchen-cost/internal/errors"
)

// Format represents output format type
type Format string

const (
	// FormatCLI is a human-readable table
	FormatCLI Format = "cli"

	// FormatJSON is machine-readable JSON
	FormatJSON Format = "json"
)

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatCLI, FormatJSON:
		return Format(s), nil
	default:
		return "", errors.Validation("unknown output format: " + s)
	}
}

func renderJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// packCents renders a whole-cent pack price as dollars
func packCents(c *int64) string {
	if c == nil {
		return "—"
	}
	return fmt.Sprintf("$%d.%02d", *c/100, *c%100)
}

func perBase(c *money.Cents, unit string) string {
	if c == nil {
		return "—"
	}
	if unit == "" {
		return c.Dollars()
	}
	return c.PerUnit(unit)
}

// RenderUnifiedPricing writes the unified multi-unit pricing view
func RenderUnifiedPricing(out io.Writer, view *engine.UnifiedPricingView, format Format, noColor bool) error {
	if format == FormatJSON {
		return renderJSON(out, view)
	}

	w := NewWriter(out, noColor)
	w.Header("Unified Pricing")

	t := w.NewTable("Kind", "Name", "Base", "Per Base", "Per oz/fl oz", "Per lb/L", "Status", "Best Offer")
	for _, row := range view.Rows {
		status := row.State.String()
		if row.Reason != "" {
			status = row.Reason
		}
		var base, mid, big *money.Cents
		switch {
		case row.Pricing.PerGram != nil:
			base, mid, big = row.Pricing.PerGram, row.Pricing.PerOunce, row.Pricing.PerPound
		case row.Pricing.PerMilliliter != nil:
			base, mid, big = row.Pricing.PerMilliliter, row.Pricing.PerFluidOunce, row.Pricing.PerLiter
		case row.Pricing.PerEach != nil:
			base = row.Pricing.PerEach
		}
		t.AddRow(
			row.Ref.Kind.String(),
			row.Name,
			row.BaseUnit,
			perBase(base, row.BaseUnit),
			perBase(mid, ""),
			perBase(big, ""),
			status,
			row.BestDistributor,
		)
	}
	t.Render()
	w.Println("")
	w.Println("%d ingredients, %d components, %d recipes",
		view.IngredientCount, view.ComponentCount, view.RecipeCount)
	return nil
}

// RenderComparison writes the per-distributor price matrix
func RenderComparison(out io.Writer, cmp *pricing.Comparison, format Format, noColor bool) error {
	if format == FormatJSON {
		return renderJSON(out, cmp)
	}

	w := NewWriter(out, noColor)
	w.Header("Price Comparison: " + cmp.IngredientName)

	t := w.NewTable("Distributor", "SKU", "Pack", "Pack Price", "Per "+cmp.BaseUnit, "As Of", "Best")
	for _, p := range cmp.Prices {
		best := ""
		if p.IsBest {
			best = "◀ best"
		}
		asOf := "—"
		if p.EffectiveDate != nil {
			asOf = p.EffectiveDate.Format("2006-01-02")
		}
		per := perBase(p.PerBaseUnit, cmp.BaseUnit)
		if p.HasPriceNoBaseUnit {
			per = "no conversion"
		}
		t.AddRow(p.DistributorName, p.SKU, p.Description, packCents(p.PriceCents), per, asOf, best)
	}
	t.Render()

	if cmp.SpreadPercent != nil {
		w.Println("")
		w.Println("Spread: %s%%", cmp.SpreadPercent.StringFixed(1))
	}
	return nil
}

// RenderHistory writes price history grouped by distributor and SKU
func RenderHistory(out io.Writer, groups []pricing.VariantHistory, format Format, noColor bool) error {
	if format == FormatJSON {
		return renderJSON(out, groups)
	}

	w := NewWriter(out, noColor)
	for _, g := range groups {
		w.Header(fmt.Sprintf("%s — %s (%s)", g.DistributorName, g.SKU, g.Description))
		t := w.NewTable("Date", "Pack Price", "Per Base", "Source", "Ref")
		for _, e := range g.Entries {
			price := e.PriceCents
			t.AddRow(
				e.EffectiveDate.Format("2006-01-02"),
				packCents(&price),
				perBase(e.PerBaseUnit, ""),
				string(e.Source),
				e.SourceRef,
			)
		}
		t.Render()
	}
	return nil
}

// costView is the JSON shape for a resolved cost
type costView struct {
	Ref         string          `json:"ref"`
	State       string          `json:"state"`
	PerBaseUnit *string         `json:"per_base_unit,omitempty"`
	Reason      string          `json:"reason,omitempty"`
	CyclePath   string          `json:"cycle_path,omitempty"`
	Lines       []cost.LineCost `json:"lines,omitempty"`
	BatchCost   string          `json:"batch_cost,omitempty"`
}

// RenderCost writes a resolved cost with its per-line breakdown
func RenderCost(out io.Writer, name string, res cost.Result, format Format, noColor bool) error {
	prov := res.Provenance()

	if format == FormatJSON {
		v := costView{
			Ref:   name,
			State: res.State().String(),
			Lines: prov.Lines,
		}
		switch {
		case res.IsKnown():
			pb, _ := res.PerBaseUnit()
			s := pb.PerUnit(res.BaseUnit().String())
			v.PerBaseUnit = &s
			v.BatchCost = prov.TotalBatchCents.Dollars()
		case res.IsCyclic():
			v.CyclePath = res.CyclePath()
		default:
			v.Reason = res.Reason()
		}
		return renderJSON(out, v)
	}

	w := NewWriter(out, noColor)
	w.Header("Cost: " + name)

	switch {
	case res.IsCyclic():
		w.Warning("cyclic composition: %s", res.CyclePath())
		return nil
	case res.IsUnknown():
		w.Warning("unknown: %s", res.Reason())
	default:
		pb, _ := res.PerBaseUnit()
		w.Println("Per base unit: %s", w.color(Green, pb.PerUnit(res.BaseUnit().String())))
	}

	if len(prov.Lines) > 0 {
		w.Println("")
		t := w.NewTable("Line", "Qty", "Unit", "Per Base", "Cost")
		for _, l := range prov.Lines {
			costCell := "unknown"
			if l.CostCents != nil {
				costCell = l.CostCents.Dollars()
			} else if l.Reason != "" {
				costCell = l.Reason
			}
			t.AddRow(l.Name, l.Quantity.String(), l.Unit.String(), perBase(l.PerBaseUnit, ""), costCell)
		}
		t.Render()
		w.Println("")
		w.Println("Batch total: %s", prov.TotalBatchCents.Dollars())
		if prov.CostPerYieldUnit != nil {
			w.Println("Per yield unit: %s", prov.CostPerYieldUnit.Dollars())
		}
	}
	return nil
}

// RenderMovers writes the biggest best-price changes over a window
func RenderMovers(out io.Writer, movers []pricing.Mover, windowDays int, format Format, noColor bool) error {
	if format == FormatJSON {
		return renderJSON(out, movers)
	}

	w := NewWriter(out, noColor)
	w.Header(fmt.Sprintf("Price Movers (last %d days)", windowDays))
	if len(movers) == 0 {
		w.Println("No movement above one percent.")
		return nil
	}

	t := w.NewTable("Ingredient", "Was", "Now", "Change")
	for _, m := range movers {
		change := m.ChangePercent.StringFixed(1) + "%"
		if m.ChangePercent.IsPositive() {
			change = "+" + change
		}
		t.AddRow(m.IngredientName, m.OldPerBaseUnit.Dollars(), m.NewPerBaseUnit.Dollars(), change)
	}
	t.Render()
	return nil
}
