package projection

import (
	"testing"

	"github.com/shopspring/decimal"

	"kitchen-cost/core/money"
	"kitchen-cost/core/units"
)

func TestProjectMassFamily(t *testing.T) {
	perGram := money.MustFromString("0.873")
	p := Project(perGram, units.Gram)

	if p.PerGram == nil || !p.PerGram.Decimal().Equal(decimal.RequireFromString("0.873")) {
		t.Errorf("PerGram = %v, want 0.873", p.PerGram)
	}
	// 0.873 × 28.3495
	if p.PerOunce == nil || !p.PerOunce.Decimal().Round(4).Equal(decimal.RequireFromString("24.7491")) {
		t.Errorf("PerOunce = %v, want 24.7491", p.PerOunce)
	}
	// 0.873 × 453.592
	if p.PerPound == nil || !p.PerPound.Decimal().Round(4).Equal(decimal.RequireFromString("395.9858")) {
		t.Errorf("PerPound = %v, want 395.9858", p.PerPound)
	}

	if p.PerMilliliter != nil || p.PerFluidOunce != nil || p.PerLiter != nil || p.PerEach != nil {
		t.Error("cross-family fields must stay absent for a mass base")
	}
}

func TestProjectVolumeFamily(t *testing.T) {
	perML := money.MustFromString("0.5")
	p := Project(perML, units.Milliliter)

	if p.PerMilliliter == nil || !p.PerMilliliter.Decimal().Equal(decimal.RequireFromString("0.5")) {
		t.Errorf("PerMilliliter = %v, want 0.5", p.PerMilliliter)
	}
	if p.PerLiter == nil || !p.PerLiter.Decimal().Equal(decimal.NewFromInt(500)) {
		t.Errorf("PerLiter = %v, want 500", p.PerLiter)
	}
	if p.PerFluidOunce == nil || !p.PerFluidOunce.Decimal().Round(5).Equal(decimal.RequireFromString("14.78675")) {
		t.Errorf("PerFluidOunce = %v, want 14.78675", p.PerFluidOunce)
	}

	if p.PerGram != nil || p.PerOunce != nil || p.PerPound != nil || p.PerEach != nil {
		t.Error("cross-family fields must stay absent for a volume base")
	}
}

func TestProjectCountFamily(t *testing.T) {
	perEach := money.FromInt(35)
	p := Project(perEach, units.Each)

	if p.PerEach == nil || !p.PerEach.Decimal().Equal(decimal.NewFromInt(35)) {
		t.Errorf("PerEach = %v, want 35", p.PerEach)
	}
	if p.PerGram != nil || p.PerMilliliter != nil {
		t.Error("counted items project only per-each")
	}
}

func TestEmpty(t *testing.T) {
	var p MultiUnitPricing
	if !p.Empty() {
		t.Error("zero value should be empty")
	}
	p = Project(money.FromInt(1), units.Gram)
	if p.Empty() {
		t.Error("projected view should not be empty")
	}
}
