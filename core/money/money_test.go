package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestArithmetic(t *testing.T) {
	a := FromInt(150)
	b := FromInt(50)

	if got := a.Add(b).RoundCents(); got != 200 {
		t.Errorf("Add = %d, want 200", got)
	}
	if got := a.Sub(b).RoundCents(); got != 100 {
		t.Errorf("Sub = %d, want 100", got)
	}
	if got := a.Mul(decimal.NewFromInt(3)).RoundCents(); got != 450 {
		t.Errorf("Mul = %d, want 450", got)
	}
	if got := a.Div(decimal.NewFromInt(4)).Decimal().String(); got != "37.5" {
		t.Errorf("Div = %s, want 37.5", got)
	}
}

func TestFractionalCentsSurvive(t *testing.T) {
	// 14256 cents over 16329.312 g should keep full precision, not truncate
	perGram := FromInt(14256).Div(decimal.RequireFromString("16329.312"))
	if perGram.IsZero() {
		t.Fatal("per-gram price collapsed to zero")
	}
	if got := perGram.Decimal().Round(3).String(); got != "0.873" {
		t.Errorf("per-gram cents = %s, want 0.873", got)
	}
}

func TestRoundCentsHalfUp(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"10.4", 10},
		{"10.5", 11},
		{"10.6", 11},
		{"0.5", 1},
		{"-2.5", -3},
	}

	for _, tt := range tests {
		c := MustFromString(tt.in)
		if got := c.RoundCents(); got != tt.want {
			t.Errorf("RoundCents(%s) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestCmpAndEqual(t *testing.T) {
	small := MustFromString("0.8")
	big := MustFromString("0.9")

	if small.Cmp(big) >= 0 {
		t.Error("0.8 should compare below 0.9")
	}
	if !small.Equal(MustFromString("0.80")) {
		t.Error("0.8 should equal 0.80")
	}
}

func TestDollarsScalesPrecision(t *testing.T) {
	tests := []struct {
		cents string
		want  string
	}{
		{"0.873", "$0.0087"},
		{"15.3", "$0.153"},
		{"396", "$3.96"},
		{"14256", "$142.56"},
	}

	for _, tt := range tests {
		c := MustFromString(tt.cents)
		if got := c.Dollars(); got != tt.want {
			t.Errorf("Dollars(%s cents) = %s, want %s", tt.cents, got, tt.want)
		}
	}
}

func TestPerUnit(t *testing.T) {
	c := MustFromString("0.873")
	if got := c.PerUnit("g"); got != "$0.0087/g" {
		t.Errorf("PerUnit = %s, want $0.0087/g", got)
	}
}
