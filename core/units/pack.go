// Pack description parsing. Distributor catalogs encode pack configuration
// inside free-text descriptions like "BUTTER AA 36/1LB CS" or "4/1GAL";
// parsing one yields the pack-to-base-unit conversion factor a SKU variant
// needs before its prices can join a cost comparison.
package units

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"kitchen-cost/core/money"
)

// PackInfo is a parsed pack configuration
type PackInfo struct {
	// PackQty is the number of units in the pack (the 36 in "36/1LB")
	PackQty decimal.Decimal

	// UnitQty is the size of each unit (the 1 in "36/1LB")
	UnitQty decimal.Decimal

	// Unit is the measurement unit of each inner unit
	Unit Unit

	// TotalBaseUnits is the whole pack expressed in the family base unit
	TotalBaseUnits decimal.Decimal

	// BaseUnit is the family base unit (g, ml, each)
	BaseUnit Unit
}

// TotalQuantity returns the pack total in source units
func (p PackInfo) TotalQuantity() decimal.Decimal {
	return p.PackQty.Mul(p.UnitQty)
}

// Unit alternations ordered longest-first so GAL matches before G, etc.
const sizeUnitAlt = `GAL|GALLON|QT|QUART|PT|PINT|ML|LB|OZ|KG|G|L`

var (
	// "9/1/2GAL" = 9 × (1/2) gallon
	fractionPackRe = regexp.MustCompile(`(?i)(\d+)\s*/\s*(\d+)\s*/\s*(\d+)\s*(` + sizeUnitAlt + `)`)

	packRes = []*regexp.Regexp{
		// "36/1LB" - 36 units of 1 lb each
		regexp.MustCompile(`(?i)(\d+)\s*/\s*(\d+\.?\d*)\s*(` + sizeUnitAlt + `)`),
		// "36X1LB" or "36 X 1LB" - alternate separator
		regexp.MustCompile(`(?i)(\d+)\s*[Xx]\s*(\d+\.?\d*)\s*(` + sizeUnitAlt + `)`),
		// "15DZ" - dozen count
		regexp.MustCompile(`(?i)(\d+)\s*(DZ|DOZ|DOZEN)`),
		// "10LB CS" - standalone quantity+unit, optionally cased
		regexp.MustCompile(`(?i)(\d+\.?\d*)\s*(` + sizeUnitAlt + `)\s*(CS|CASE|BX|BOX|PK|PACK)?`),
		// "4CT" - plain count
		regexp.MustCompile(`(?i)(\d+)\s*(CT|EA|PC|EACH)`),
	}
)

// ParsePack extracts pack configuration from a distributor description.
// Returns false when no known pattern matches.
//
//	"36/1LB"   -> 36 × 1 lb  = 16329.312 g
//	"4/1GAL"   -> 4 × 1 gal  = 15141.64 ml
//	"9/1/2GAL" -> 9 × 0.5 gal = 17034.345 ml
//	"15DZ"     -> 15 × 12     = 180 each
//	"10LB CS"  -> 1 × 10 lb   = 4535.92 g
func ParsePack(description string) (PackInfo, bool) {
	desc := strings.ToUpper(description)

	if m := fractionPackRe.FindStringSubmatch(desc); m != nil {
		packQty := decimal.RequireFromString(m[1])
		num := decimal.RequireFromString(m[2])
		den := decimal.RequireFromString(m[3])
		if info, ok := sizedPack(packQty, num.Div(den), m[4]); ok {
			return info, true
		}
	}

	for _, re := range packRes {
		m := re.FindStringSubmatch(desc)
		if m == nil {
			continue
		}
		groups := m[1:]

		// Count patterns carry two capture groups
		if len(groups) == 2 || groups[2] == "" && isCountToken(groups[1]) {
			switch strings.ToUpper(groups[1]) {
			case "DZ", "DOZ", "DOZEN":
				packQty := decimal.RequireFromString(groups[0])
				return PackInfo{
					PackQty:        packQty,
					UnitQty:        decimal.NewFromInt(12),
					Unit:           Each,
					TotalBaseUnits: packQty.Mul(decimal.NewFromInt(12)),
					BaseUnit:       Each,
				}, true
			case "CT", "EA", "PC", "EACH":
				packQty := decimal.RequireFromString(groups[0])
				return PackInfo{
					PackQty:        packQty,
					UnitQty:        decimal.NewFromInt(1),
					Unit:           Each,
					TotalBaseUnits: packQty,
					BaseUnit:       Each,
				}, true
			}
		}

		if len(groups) >= 3 {
			var packQty, unitQty decimal.Decimal
			var unitToken string
			if qty, err := decimal.NewFromString(groups[1]); err == nil {
				// "36/1LB" or "36X1LB"
				packQty = decimal.RequireFromString(groups[0])
				unitQty = qty
				unitToken = groups[2]
			} else {
				// "10LB CS" - single sized unit
				packQty = decimal.NewFromInt(1)
				unitQty = decimal.RequireFromString(groups[0])
				unitToken = groups[1]
			}
			if info, ok := sizedPack(packQty, unitQty, unitToken); ok {
				return info, true
			}
		}
	}

	return PackInfo{}, false
}

// sizedPack builds a PackInfo for a mass or volume unit token
func sizedPack(packQty, unitQty decimal.Decimal, unitToken string) (PackInfo, bool) {
	u, err := Parse(unitToken)
	if err != nil {
		return PackInfo{}, false
	}
	family := u.Family()
	if family == FamilyCount {
		return PackInfo{}, false
	}
	total := ToBase(packQty.Mul(unitQty), u)
	return PackInfo{
		PackQty:        packQty,
		UnitQty:        unitQty,
		Unit:           u,
		TotalBaseUnits: total,
		BaseUnit:       family.Base(),
	}, true
}

func isCountToken(tok string) bool {
	switch strings.ToUpper(tok) {
	case "DZ", "DOZ", "DOZEN", "CT", "EA", "PC", "EACH":
		return true
	}
	return false
}

// PricePerBaseUnit derives the price per base unit from a pack price.
// $142.56 for a 36/1LB butter case comes out at 0.873 cents per gram.
// Returns false when the pack has no usable base quantity.
func PricePerBaseUnit(priceCents int64, pack PackInfo) (money.Cents, bool) {
	if pack.TotalBaseUnits.IsZero() {
		return money.Zero(), false
	}
	return money.FromInt(priceCents).Div(pack.TotalBaseUnits), true
}
