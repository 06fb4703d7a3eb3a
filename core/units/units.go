// Package units provides the measurement unit system for ingredient costing.
// Units belong to one of three families (mass, volume, count); conversion is
// only ever defined within a family and is an exact decimal multiplication,
// never an iteratively-rounded float.
package units

import (
	"strings"

	"github.com/shopspring/decimal"

	"kitchen-cost/internal/errors"
)

// Family classifies units by what they measure
type Family int

const (
	// FamilyMass covers weight units, base unit grams
	FamilyMass Family = iota

	// FamilyVolume covers liquid units, base unit milliliters
	FamilyVolume

	// FamilyCount covers discrete units, base unit each
	FamilyCount
)

// String returns the family name
func (f Family) String() string {
	switch f {
	case FamilyMass:
		return "mass"
	case FamilyVolume:
		return "volume"
	case FamilyCount:
		return "count"
	default:
		return "unknown"
	}
}

// Base returns the family's canonical base unit
func (f Family) Base() Unit {
	switch f {
	case FamilyMass:
		return Gram
	case FamilyVolume:
		return Milliliter
	default:
		return Each
	}
}

// Unit is one of the fixed measurement unit enumeration
type Unit int

const (
	// Mass units
	Gram Unit = iota
	Kilogram
	Ounce
	Pound

	// Volume units
	Milliliter
	Liter
	FluidOunce
	Teaspoon
	Tablespoon
	Cup
	Pint
	Quart
	Gallon

	// Count units
	Each
	Dozen
)

// unitInfo carries the family and the exact factor to the family base unit
type unitInfo struct {
	name   string
	family Family
	factor decimal.Decimal
}

// Factors match the conversion table the purchasing data was recorded against.
var unitTable = map[Unit]unitInfo{
	Gram:       {"g", FamilyMass, decimal.RequireFromString("1")},
	Kilogram:   {"kg", FamilyMass, decimal.RequireFromString("1000")},
	Ounce:      {"oz", FamilyMass, decimal.RequireFromString("28.3495")},
	Pound:      {"lb", FamilyMass, decimal.RequireFromString("453.592")},
	Milliliter: {"ml", FamilyVolume, decimal.RequireFromString("1")},
	Liter:      {"L", FamilyVolume, decimal.RequireFromString("1000")},
	FluidOunce: {"fl_oz", FamilyVolume, decimal.RequireFromString("29.5735")},
	Teaspoon:   {"tsp", FamilyVolume, decimal.RequireFromString("4.92892")},
	Tablespoon: {"tbsp", FamilyVolume, decimal.RequireFromString("14.7868")},
	Cup:        {"cup", FamilyVolume, decimal.RequireFromString("236.588")},
	Pint:       {"pt", FamilyVolume, decimal.RequireFromString("473.176")},
	Quart:      {"qt", FamilyVolume, decimal.RequireFromString("946.353")},
	Gallon:     {"gal", FamilyVolume, decimal.RequireFromString("3785.41")},
	Each:       {"each", FamilyCount, decimal.RequireFromString("1")},
	Dozen:      {"dozen", FamilyCount, decimal.RequireFromString("12")},
}

// aliases maps the unit spellings that show up on invoices and in recipes
// to canonical units. Keys are normalized (lowercase, separators collapsed).
var aliases = map[string]Unit{
	"g": Gram, "gram": Gram, "grams": Gram,
	"kg": Kilogram, "kilogram": Kilogram, "kilograms": Kilogram,
	"oz": Ounce, "ounce": Ounce, "ounces": Ounce,
	"lb": Pound, "lbs": Pound, "pound": Pound, "pounds": Pound, "#": Pound,
	"ml": Milliliter, "milliliter": Milliliter, "milliliters": Milliliter,
	"l": Liter, "liter": Liter, "liters": Liter, "litre": Liter, "litres": Liter,
	"fl oz": FluidOunce, "floz": FluidOunce, "fluid ounce": FluidOunce, "fluid ounces": FluidOunce,
	"tsp": Teaspoon, "teaspoon": Teaspoon, "teaspoons": Teaspoon,
	"tbsp": Tablespoon, "tablespoon": Tablespoon, "tablespoons": Tablespoon,
	"cup": Cup, "cups": Cup, "c": Cup,
	"pt": Pint, "pint": Pint, "pints": Pint,
	"qt": Quart, "quart": Quart, "quarts": Quart,
	"gal": Gallon, "gallon": Gallon, "gallons": Gallon,
	"ea": Each, "each": Each, "ct": Each, "count": Each,
	"pc": Each, "piece": Each, "pieces": Each, "unit": Each, "units": Each,
	"dz": Dozen, "doz": Dozen, "dozen": Dozen,
}

// String returns the canonical unit symbol
func (u Unit) String() string {
	if info, ok := unitTable[u]; ok {
		return info.name
	}
	return "unknown"
}

// MarshalText renders the unit symbol
func (u Unit) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// Family returns the measurement family the unit belongs to
func (u Unit) Family() Family {
	return unitTable[u].family
}

// BaseFactor returns the exact multiplier from this unit to its family base
func (u Unit) BaseFactor() decimal.Decimal {
	return unitTable[u].factor
}

// IsBase reports whether the unit is a family base unit (g, ml, each)
func (u Unit) IsBase() bool {
	return u == Gram || u == Milliliter || u == Each
}

// Normalize lowercases a raw unit string and collapses separators for lookup
func Normalize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")
	return s
}

// Parse resolves a raw unit spelling to a canonical Unit
func Parse(raw string) (Unit, error) {
	if u, ok := aliases[Normalize(raw)]; ok {
		return u, nil
	}
	return Gram, errors.Newf(errors.TypeParsing, "unknown unit: %q", raw)
}

// Convert converts a value between two units of the same family.
// Fails with an IncompatibleFamily error when the families differ
// (e.g. grams to fluid ounces).
func Convert(value decimal.Decimal, from, to Unit) (decimal.Decimal, error) {
	if from.Family() != to.Family() {
		return decimal.Zero, errors.IncompatibleFamily(from.String(), to.String())
	}
	if from == to {
		return value, nil
	}
	// value × (from→base) ÷ (to→base), exact rational arithmetic
	return value.Mul(from.BaseFactor()).Div(to.BaseFactor()), nil
}

// ToBase converts a value from the given unit into its family base unit
func ToBase(value decimal.Decimal, from Unit) decimal.Decimal {
	return value.Mul(from.BaseFactor())
}
