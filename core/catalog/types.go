// Package catalog holds the priceable node graph: ingredients, their
// distributor SKU variants, and recipes. The graph is the input the cost
// resolver walks; it carries no computed costs itself.
package catalog

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"kitchen-cost/core/units"
)

// NodeKind identifies what kind of priceable node a reference points at
type NodeKind int

const (
	// KindRawIngredient is an ingredient priced from distributor offers
	KindRawIngredient NodeKind = iota

	// KindComponent is an ingredient whose cost derives from one recipe
	KindComponent

	// KindRecipe is a batch recipe with a yield
	KindRecipe
)

// String returns the kind name
func (k NodeKind) String() string {
	switch k {
	case KindRawIngredient:
		return "raw_ingredient"
	case KindComponent:
		return "component"
	case KindRecipe:
		return "recipe"
	default:
		return "unknown"
	}
}

// MarshalText renders the kind name
func (k NodeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// NodeRef identifies a priceable node by (kind, id)
type NodeRef struct {
	Kind NodeKind
	ID   uuid.UUID
}

// String returns "kind:id", used in cycle paths and log fields
func (r NodeRef) String() string {
	return fmt.Sprintf("%s:%s", r.Kind, r.ID)
}

// IngredientType distinguishes how an ingredient gets its cost
type IngredientType int

const (
	// IngredientRaw is purchased from distributors
	IngredientRaw IngredientType = iota

	// IngredientComponent is made in-house from a source recipe
	IngredientComponent

	// IngredientPackaging is purchased non-food stock (cups, lids)
	IngredientPackaging
)

// String returns the type name
func (t IngredientType) String() string {
	switch t {
	case IngredientRaw:
		return "raw"
	case IngredientComponent:
		return "component"
	case IngredientPackaging:
		return "packaging"
	default:
		return "unknown"
	}
}

// Ingredient is a canonical ingredient tracked in one base unit
type Ingredient struct {
	ID       uuid.UUID
	Name     string
	Category string

	// BaseUnit is the unit costs are tracked in; must be g, ml, or each
	BaseUnit units.Unit

	// Type selects raw (buy) vs component (make); packaging prices like raw
	Type IngredientType

	// SourceRecipeID is the recipe a component ingredient derives from.
	// Exactly one for component-typed ingredients, nil otherwise.
	SourceRecipeID *uuid.UUID

	// YieldFactor is the usable fraction after trim/prep loss, default 1
	YieldFactor decimal.Decimal

	Notes string
}

// Ref returns the node reference for this ingredient
func (i *Ingredient) Ref() NodeRef {
	if i.IsComponent() {
		return NodeRef{Kind: KindComponent, ID: i.ID}
	}
	return NodeRef{Kind: KindRawIngredient, ID: i.ID}
}

// IsComponent reports whether the ingredient's cost derives from a recipe
func (i *Ingredient) IsComponent() bool {
	return i.Type == IngredientComponent || i.SourceRecipeID != nil
}

// Distributor is a supplier of SKU variants
type Distributor struct {
	ID     uuid.UUID
	Name   string
	Active bool
}

// SKUVariant is one distributor's packaging of an ingredient.
// Variants are deactivated when discontinued, never deleted; their price
// history stays attached.
type SKUVariant struct {
	ID            uuid.UUID
	DistributorID uuid.UUID

	// IngredientID is nil until the SKU is mapped to a canonical ingredient
	IngredientID *uuid.UUID

	SKU         string
	Description string

	// PackSize and PackUnit describe how the distributor packages it
	PackSize     decimal.Decimal
	PackUnit     string
	UnitsPerPack int

	// BaseUnitsPerPack converts one pack price into the ingredient's base
	// unit (the grams-per-unit factor). Nil means the factor is missing and
	// the variant's prices cannot join a comparison yet.
	BaseUnitsPerPack *decimal.Decimal

	Active bool
}

// HasConversion reports whether the pack-to-base-unit factor is usable
func (v *SKUVariant) HasConversion() bool {
	return v.BaseUnitsPerPack != nil && v.BaseUnitsPerPack.IsPositive()
}

// RecipeLine is one ingredient consumption within a recipe. The referenced
// node may be any priceable kind, including another recipe.
type RecipeLine struct {
	Node     NodeRef
	Quantity decimal.Decimal
	Unit     units.Unit
	Note     string

	// Optional exempts the line from unknown propagation: an unpriced
	// garnish contributes zero instead of making the recipe unknown
	Optional bool
}

// Recipe is a batch recipe with a yield
type Recipe struct {
	ID   uuid.UUID
	Name string

	// YieldQty and YieldUnit describe how much one batch produces.
	// YieldUnit is free-form ("servings", "g", "qt"); when it parses to a
	// measurement unit the recipe also has a per-base-unit cost.
	YieldQty  decimal.Decimal
	YieldUnit string

	// YieldWeightGrams overrides the yield for component costing when the
	// finished weight differs from the nominal yield (evaporation, cook-down)
	YieldWeightGrams *decimal.Decimal

	Lines  []RecipeLine
	Active bool
}

// Ref returns the node reference for this recipe
func (r *Recipe) Ref() NodeRef {
	return NodeRef{Kind: KindRecipe, ID: r.ID}
}

// BaseYield resolves the recipe's yield into a family base unit.
// Priority follows component costing: the explicit yield weight wins, then a
// yield unit that parses to a measurement unit. Returns false when the yield
// is only expressible in non-measurement units (servings).
func (r *Recipe) BaseYield() (qty decimal.Decimal, base units.Unit, ok bool) {
	if r.YieldWeightGrams != nil && r.YieldWeightGrams.IsPositive() {
		return *r.YieldWeightGrams, units.Gram, true
	}
	u, err := units.Parse(r.YieldUnit)
	if err != nil {
		return decimal.Zero, units.Gram, false
	}
	if !r.YieldQty.IsPositive() {
		return decimal.Zero, units.Gram, false
	}
	return units.ToBase(r.YieldQty, u), u.Family().Base(), true
}
