package pricing

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"kitchen-cost/core/catalog"
	"kitchen-cost/core/money"
	"kitchen-cost/internal/errors"
)

// Mode selects how a variant's current price is chosen
type Mode string

const (
	// ModeRecent uses the latest observation per variant
	ModeRecent Mode = "recent"

	// ModeAverage uses the mean pack price over a trailing window,
	// falling back to the latest observation when the window is empty
	ModeAverage Mode = "average"
)

// Selector picks the authoritative current price for an ingredient among
// competing distributor offers.
type Selector struct {
	graph *catalog.Graph
	store *Store

	mode        Mode
	averageDays int

	// now is swappable for tests
	now func() time.Time
}

// NewSelector creates a selector over a graph and observation store
func NewSelector(graph *catalog.Graph, store *Store, mode Mode, averageDays int) *Selector {
	if mode == "" {
		mode = ModeRecent
	}
	if averageDays <= 0 {
		averageDays = 30
	}
	return &Selector{
		graph:       graph,
		store:       store,
		mode:        mode,
		averageDays: averageDays,
		now:         time.Now,
	}
}

// SetClock overrides the time source
func (s *Selector) SetClock(now func() time.Time) {
	s.now = now
}

// BestPrice is the selection result for one ingredient.
// A nil PerBaseUnit means the ingredient's cost is unknown: no active,
// mapped, converted variant carries a price. Unknown is not zero.
type BestPrice struct {
	IngredientID uuid.UUID

	// PerBaseUnit is the lowest current price per base unit, nil if unknown
	PerBaseUnit *money.Cents

	// DistributorID and VariantID identify the winning offer
	DistributorID *uuid.UUID
	VariantID     *uuid.UUID

	// FlaggedNoBaseUnit lists variants with a recorded price that cannot be
	// reduced to base-unit cost (missing conversion factor). Data
	// completeness, not failure: supplying the factor and re-resolving
	// recovers them.
	FlaggedNoBaseUnit []uuid.UUID
}

// Unknown reports whether no usable price exists
func (b BestPrice) Unknown() bool {
	return b.PerBaseUnit == nil
}

// BestPrice selects the lowest current price per base unit for an ingredient
// across its active mapped variants. A variant with no price history
// contributes nothing; a priced variant without a conversion factor is
// excluded but flagged.
func (s *Selector) BestPrice(ingredientID uuid.UUID) BestPrice {
	result := BestPrice{IngredientID: ingredientID}

	for _, v := range s.graph.ActiveVariants(ingredientID) {
		packPrice, ok := s.currentPackPrice(v.ID)
		if !ok {
			continue
		}
		if !v.HasConversion() {
			result.FlaggedNoBaseUnit = append(result.FlaggedNoBaseUnit, v.ID)
			continue
		}
		perBase := money.FromDecimal(packPrice.Div(*v.BaseUnitsPerPack))
		if result.PerBaseUnit == nil || perBase.Cmp(*result.PerBaseUnit) < 0 {
			p := perBase
			distID := v.DistributorID
			varID := v.ID
			result.PerBaseUnit = &p
			result.DistributorID = &distID
			result.VariantID = &varID
		}
	}
	return result
}

// DistributorPrice is one distributor's current offer in a comparison view
type DistributorPrice struct {
	DistributorID   uuid.UUID
	DistributorName string
	VariantID       uuid.UUID
	SKU             string
	Description     string
	PackUnit        string

	// PriceCents is the latest pack price, nil when never priced
	PriceCents *int64

	// PerBaseUnit is derived from PriceCents and the conversion factor,
	// nil when either is missing
	PerBaseUnit *money.Cents

	EffectiveDate *time.Time
	IsBest        bool

	// HasPriceNoBaseUnit flags a priced variant missing its factor
	HasPriceNoBaseUnit bool
}

// Comparison is the side-by-side distributor price view for one ingredient
type Comparison struct {
	IngredientID   uuid.UUID
	IngredientName string
	BaseUnit       string

	Prices []DistributorPrice

	// Best is the lowest per-base-unit price across priced distributors
	Best          *money.Cents
	BestDistID    *uuid.UUID
	BestVariantID *uuid.UUID

	// SpreadPercent = (max - min) / min × 100 across priced distributors;
	// nil with fewer than two priced offers
	SpreadPercent *decimal.Decimal
}

// Comparison builds the per-distributor price matrix for an ingredient
func (s *Selector) Comparison(ingredientID uuid.UUID) (*Comparison, error) {
	ing, ok := s.graph.Ingredient(ingredientID)
	if !ok {
		return nil, errors.NotFound("ingredient", ingredientID.String())
	}

	cmp := &Comparison{
		IngredientID:   ingredientID,
		IngredientName: ing.Name,
		BaseUnit:       ing.BaseUnit.String(),
	}

	var perBase []money.Cents
	for _, v := range s.graph.ActiveVariants(ingredientID) {
		dist, _ := s.graph.Distributor(v.DistributorID)
		dp := DistributorPrice{
			DistributorID: v.DistributorID,
			VariantID:     v.ID,
			SKU:           v.SKU,
			Description:   v.Description,
			PackUnit:      v.PackUnit,
		}
		if dist != nil {
			dp.DistributorName = dist.Name
		}

		if obs, ok := s.store.Latest(v.ID); ok {
			price := obs.PriceCents
			date := obs.EffectiveDate
			dp.PriceCents = &price
			dp.EffectiveDate = &date

			if v.HasConversion() {
				packPrice, _ := s.currentPackPrice(v.ID)
				p := money.FromDecimal(packPrice.Div(*v.BaseUnitsPerPack))
				dp.PerBaseUnit = &p
				perBase = append(perBase, p)
			} else {
				dp.HasPriceNoBaseUnit = true
			}
		}
		cmp.Prices = append(cmp.Prices, dp)
	}

	if len(perBase) > 0 {
		min, max := perBase[0], perBase[0]
		for _, p := range perBase[1:] {
			if p.Cmp(min) < 0 {
				min = p
			}
			if p.Cmp(max) > 0 {
				max = p
			}
		}
		best := min
		cmp.Best = &best

		for i := range cmp.Prices {
			dp := &cmp.Prices[i]
			if dp.PerBaseUnit != nil && dp.PerBaseUnit.Equal(min) {
				dp.IsBest = true
				if cmp.BestDistID == nil {
					distID := dp.DistributorID
					varID := dp.VariantID
					cmp.BestDistID = &distID
					cmp.BestVariantID = &varID
				}
			}
		}

		if len(perBase) > 1 && !min.IsZero() {
			spread := max.Sub(min).Decimal().Div(min.Decimal()).Mul(decimal.NewFromInt(100))
			cmp.SpreadPercent = &spread
		}
	}

	return cmp, nil
}

// HistoryEntry is one price observation with its derived per-base-unit price
type HistoryEntry struct {
	PriceCents    int64
	PerBaseUnit   *money.Cents
	EffectiveDate time.Time
	Source        Source
	SourceRef     string
}

// VariantHistory groups a variant's chronological price entries
type VariantHistory struct {
	VariantID       uuid.UUID
	SKU             string
	Description     string
	DistributorID   uuid.UUID
	DistributorName string
	Entries         []HistoryEntry
}

// History returns an ingredient's price history grouped by distributor/SKU,
// each group newest-first. Inactive variants are included: discontinuation
// retains history.
func (s *Selector) History(ingredientID uuid.UUID) ([]VariantHistory, error) {
	if _, ok := s.graph.Ingredient(ingredientID); !ok {
		return nil, errors.NotFound("ingredient", ingredientID.String())
	}

	var groups []VariantHistory
	for _, v := range s.variantsIncludingInactive(ingredientID) {
		dist, _ := s.graph.Distributor(v.DistributorID)
		vh := VariantHistory{
			VariantID:     v.ID,
			SKU:           v.SKU,
			Description:   v.Description,
			DistributorID: v.DistributorID,
		}
		if dist != nil {
			vh.DistributorName = dist.Name
		}
		for _, obs := range s.store.History(v.ID) {
			entry := HistoryEntry{
				PriceCents:    obs.PriceCents,
				EffectiveDate: obs.EffectiveDate,
				Source:        obs.Source,
				SourceRef:     obs.SourceRef,
			}
			if v.HasConversion() {
				p := money.FromInt(obs.PriceCents).Div(*v.BaseUnitsPerPack)
				entry.PerBaseUnit = &p
			}
			vh.Entries = append(vh.Entries, entry)
		}
		if len(vh.Entries) > 0 {
			groups = append(groups, vh)
		}
	}

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].DistributorName != groups[j].DistributorName {
			return groups[i].DistributorName < groups[j].DistributorName
		}
		return groups[i].SKU < groups[j].SKU
	})
	return groups, nil
}

// Mover is an ingredient whose best price moved over a trailing window
type Mover struct {
	IngredientID   uuid.UUID
	IngredientName string
	OldPerBaseUnit money.Cents
	NewPerBaseUnit money.Cents
	ChangePercent  decimal.Decimal
}

// Movers finds ingredients with the biggest best-price changes over the last
// windowDays, largest absolute move first. Changes under one percent are
// noise and dropped.
func (s *Selector) Movers(windowDays int) []Mover {
	cutoff := s.now().AddDate(0, 0, -windowDays)
	var movers []Mover

	for _, ing := range s.graph.Ingredients() {
		if ing.IsComponent() {
			continue
		}
		oldBest, okOld := s.bestBefore(ing.ID, cutoff)
		newBest := s.BestPrice(ing.ID)
		if !okOld || newBest.Unknown() || oldBest.IsZero() {
			continue
		}
		change := newBest.PerBaseUnit.Sub(oldBest).Decimal().
			Div(oldBest.Decimal()).Mul(decimal.NewFromInt(100))
		if change.Abs().LessThan(decimal.NewFromInt(1)) {
			continue
		}
		movers = append(movers, Mover{
			IngredientID:   ing.ID,
			IngredientName: ing.Name,
			OldPerBaseUnit: oldBest,
			NewPerBaseUnit: *newBest.PerBaseUnit,
			ChangePercent:  change,
		})
	}

	sort.Slice(movers, func(i, j int) bool {
		return movers[i].ChangePercent.Abs().GreaterThan(movers[j].ChangePercent.Abs())
	})
	return movers
}

// currentPackPrice returns the mode-selected pack price for a variant
func (s *Selector) currentPackPrice(variantID uuid.UUID) (decimal.Decimal, bool) {
	if s.mode == ModeAverage {
		cutoff := s.now().AddDate(0, 0, -s.averageDays)
		if avg, ok := s.store.AverageCentsSince(variantID, cutoff); ok {
			return avg, true
		}
		// empty window falls back to the latest observation
	}
	obs, ok := s.store.Latest(variantID)
	if !ok {
		return decimal.Zero, false
	}
	return decimal.NewFromInt(obs.PriceCents), true
}

// bestBefore computes the lowest per-base-unit price among observations
// strictly before the cutoff
func (s *Selector) bestBefore(ingredientID uuid.UUID, cutoff time.Time) (money.Cents, bool) {
	var best *money.Cents
	for _, v := range s.graph.ActiveVariants(ingredientID) {
		if !v.HasConversion() {
			continue
		}
		obs, ok := s.store.LatestBefore(v.ID, cutoff)
		if !ok {
			continue
		}
		p := money.FromInt(obs.PriceCents).Div(*v.BaseUnitsPerPack)
		if best == nil || p.Cmp(*best) < 0 {
			best = &p
		}
	}
	if best == nil {
		return money.Zero(), false
	}
	return *best, true
}

func (s *Selector) variantsIncludingInactive(ingredientID uuid.UUID) []*catalog.SKUVariant {
	var out []*catalog.SKUVariant
	seen := make(map[uuid.UUID]bool)
	for _, v := range s.graph.ActiveVariants(ingredientID) {
		out = append(out, v)
		seen[v.ID] = true
	}
	for _, v := range s.graph.AllVariants() {
		if v.IngredientID != nil && *v.IngredientID == ingredientID && !seen[v.ID] {
			out = append(out, v)
		}
	}
	return out
}
