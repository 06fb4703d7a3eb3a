// Package projection turns a single per-base-unit cost into the multi-unit
// display view: a mass-tracked ingredient shows per-g/oz/lb, a volume-tracked
// one per-ml/fl oz/L, a counted one per-each. Cross-family fields stay absent
// (nil): "not applicable", which is distinct from "unknown because unpriced".
package projection

import (
	"kitchen-cost/core/money"
	"kitchen-cost/core/units"
)

// MultiUnitPricing is the projected price view. Only the fields of the base
// unit's family are populated.
type MultiUnitPricing struct {
	PerGram  *money.Cents `json:"per_g_cents,omitempty"`
	PerOunce *money.Cents `json:"per_oz_cents,omitempty"`
	PerPound *money.Cents `json:"per_lb_cents,omitempty"`

	PerMilliliter *money.Cents `json:"per_ml_cents,omitempty"`
	PerFluidOunce *money.Cents `json:"per_fl_oz_cents,omitempty"`
	PerLiter      *money.Cents `json:"per_l_cents,omitempty"`

	PerEach *money.Cents `json:"per_each_cents,omitempty"`
}

// displayUnits lists the units projected per family
var displayUnits = map[units.Family][]units.Unit{
	units.FamilyMass:   {units.Gram, units.Ounce, units.Pound},
	units.FamilyVolume: {units.Milliliter, units.FluidOunce, units.Liter},
	units.FamilyCount:  {units.Each},
}

// Project produces the multi-unit view for a cost per base unit.
// Cost per unit U = cost per base × (base units in one U), so the projection
// multiplies by each display unit's base factor.
func Project(perBase money.Cents, base units.Unit) MultiUnitPricing {
	var p MultiUnitPricing
	for _, u := range displayUnits[base.Family()] {
		cost := perBase.Mul(u.BaseFactor())
		switch u {
		case units.Gram:
			p.PerGram = &cost
		case units.Ounce:
			p.PerOunce = &cost
		case units.Pound:
			p.PerPound = &cost
		case units.Milliliter:
			p.PerMilliliter = &cost
		case units.FluidOunce:
			p.PerFluidOunce = &cost
		case units.Liter:
			p.PerLiter = &cost
		case units.Each:
			p.PerEach = &cost
		}
	}
	return p
}

// Empty reports whether no field is populated
func (p MultiUnitPricing) Empty() bool {
	return p.PerGram == nil && p.PerOunce == nil && p.PerPound == nil &&
		p.PerMilliliter == nil && p.PerFluidOunce == nil && p.PerLiter == nil &&
		p.PerEach == nil
}
