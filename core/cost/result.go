// Package cost implements the dependency graph resolver: the recursive
// rollup that turns distributor prices and recipe composition into a cost
// per base unit for every priceable node.
package cost

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"kitchen-cost/core/catalog"
	"kitchen-cost/core/money"
	"kitchen-cost/core/units"
)

// State tags a cost result
type State int

const (
	// StateKnown carries a computed cost per base unit
	StateKnown State = iota

	// StateUnknown means no usable price data exists. Unknown is a
	// first-class cost state, never zero and never an error.
	StateUnknown

	// StateCyclic means the node participates in (or depends on) a
	// circular composition
	StateCyclic
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateKnown:
		return "known"
	case StateUnknown:
		return "unknown"
	case StateCyclic:
		return "cyclic"
	default:
		return "invalid"
	}
}

// MarshalText renders the state name
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// LineCost is one recipe line's contribution to a rollup
type LineCost struct {
	Node     catalog.NodeRef
	Name     string
	Quantity decimal.Decimal
	Unit     units.Unit

	// QuantityBase is the consumed quantity in the child's base unit
	QuantityBase decimal.Decimal

	// PerBaseUnit is the child's resolved cost, nil when unknown
	PerBaseUnit *money.Cents

	// CostCents is the line contribution, nil when unknown
	CostCents *money.Cents

	// Optional marks a line exempt from unknown propagation; an unknown
	// optional line is reported here but does not poison the recipe
	Optional bool

	Unknown bool
	Reason  string
}

// Provenance records how a cost was derived
type Provenance struct {
	// BestDistributorID and BestVariantID identify the winning offer for
	// raw ingredient nodes
	BestDistributorID *uuid.UUID
	BestVariantID     *uuid.UUID

	// FlaggedVariants are priced variants excluded for want of a
	// conversion factor
	FlaggedVariants []uuid.UUID

	// SourceRecipeID is set for component nodes
	SourceRecipeID *uuid.UUID

	// Lines is the per-line breakdown for recipe nodes
	Lines []LineCost

	// TotalBatchCents is the whole-batch cost for recipe nodes
	TotalBatchCents money.Cents

	// CostPerYieldUnit is the batch cost divided by the nominal yield
	// quantity, available even when no per-base-unit cost exists
	CostPerYieldUnit *money.Cents
}

// Result is the tagged outcome of resolving a node:
// Known(cost) | Unknown(reason) | Cyclic(path).
type Result struct {
	state      State
	perBase    money.Cents
	baseUnit   units.Unit
	provenance Provenance
	reason     string
	cycle      []catalog.NodeRef
}

// Known builds a known cost result
func Known(perBase money.Cents, baseUnit units.Unit, prov Provenance) Result {
	return Result{state: StateKnown, perBase: perBase, baseUnit: baseUnit, provenance: prov}
}

// Unknown builds an unknown cost result
func Unknown(reason string, prov Provenance) Result {
	return Result{state: StateUnknown, reason: reason, provenance: prov}
}

// Cyclic builds a cyclic result carrying the ordered cycle path
func Cyclic(path []catalog.NodeRef) Result {
	return Result{state: StateCyclic, cycle: path}
}

// State returns the result tag
func (r Result) State() State {
	return r.state
}

// IsKnown reports whether the cost was computed
func (r Result) IsKnown() bool {
	return r.state == StateKnown
}

// IsUnknown reports whether the cost is unknown
func (r Result) IsUnknown() bool {
	return r.state == StateUnknown
}

// IsCyclic reports whether resolution hit a circular composition
func (r Result) IsCyclic() bool {
	return r.state == StateCyclic
}

// PerBaseUnit returns the cost per base unit; ok is false unless Known
func (r Result) PerBaseUnit() (money.Cents, bool) {
	return r.perBase, r.state == StateKnown
}

// BaseUnit returns the base unit the cost is denominated in
func (r Result) BaseUnit() units.Unit {
	return r.baseUnit
}

// Provenance returns the cost derivation record
func (r Result) Provenance() Provenance {
	return r.provenance
}

// Reason explains an unknown result
func (r Result) Reason() string {
	if r.state == StateCyclic {
		return "circular composition: " + r.CyclePath()
	}
	return r.reason
}

// Cycle returns the ordered node refs forming the cycle
func (r Result) Cycle() []catalog.NodeRef {
	return r.cycle
}

// CyclePath renders the cycle as "a -> b -> a"
func (r Result) CyclePath() string {
	parts := make([]string, 0, len(r.cycle))
	for _, ref := range r.cycle {
		parts = append(parts, ref.String())
	}
	return strings.Join(parts, " -> ")
}
