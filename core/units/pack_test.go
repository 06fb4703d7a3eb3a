package units

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParsePack(t *testing.T) {
	tests := []struct {
		desc      string
		wantTotal string
		wantBase  Unit
	}{
		{"36/1LB", "16329.312", Pound.Family().Base()},
		{"BUTTER AA 36/1LB CS", "16329.312", Gram},
		{"36 X 1LB", "16329.312", Gram},
		{"36X1LB", "16329.312", Gram},
		{"4/1GAL", "15141.64", Milliliter},
		{"9/1/2GAL", "17034.345", Milliliter},
		{"15DZ", "180", Each},
		{"10LB CS", "4535.92", Gram},
		{"10LB BOX", "4535.92", Gram},
		{"4CT", "4", Each},
		{"2/5KG", "10000", Gram},
		{"6/750ML", "4500", Milliliter},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			info, ok := ParsePack(tt.desc)
			if !ok {
				t.Fatalf("ParsePack(%q) did not match", tt.desc)
			}
			want := decimal.RequireFromString(tt.wantTotal)
			if !info.TotalBaseUnits.Round(6).Equal(want.Round(6)) {
				t.Errorf("ParsePack(%q).TotalBaseUnits = %s, want %s", tt.desc, info.TotalBaseUnits, want)
			}
			if info.BaseUnit != tt.wantBase {
				t.Errorf("ParsePack(%q).BaseUnit = %v, want %v", tt.desc, info.BaseUnit, tt.wantBase)
			}
		})
	}
}

func TestParsePackNoMatch(t *testing.T) {
	for _, desc := range []string{"", "BUTTER UNSALTED", "PREMIUM QUALITY"} {
		if _, ok := ParsePack(desc); ok {
			t.Errorf("ParsePack(%q) matched, want no match", desc)
		}
	}
}

func TestPricePerBaseUnit(t *testing.T) {
	pack, ok := ParsePack("36/1LB")
	if !ok {
		t.Fatal("pack did not parse")
	}

	// $142.56 case of 36 one-pound blocks: 14256 / 16329.312 ≈ 0.873 ¢/g
	perBase, ok := PricePerBaseUnit(14256, pack)
	if !ok {
		t.Fatal("expected a usable price")
	}
	got := perBase.Decimal().Round(3)
	if want := decimal.RequireFromString("0.873"); !got.Equal(want) {
		t.Errorf("price per gram = %s cents, want %s", got, want)
	}
}

func TestPricePerBaseUnitZeroPack(t *testing.T) {
	if _, ok := PricePerBaseUnit(1000, PackInfo{}); ok {
		t.Fatal("zero pack should not price")
	}
}
