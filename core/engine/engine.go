// Package engine provides the API-primary costing engine.
// CLI is a thin wrapper around this engine.
//
// The engine is read-mostly: pricing views and cost resolution take a shared
// lock, while catalog mutations and observation appends take the exclusive
// lock and invalidate the affected cost-cache closure before releasing it. A
// reader never sees a mutated graph paired with a stale cache.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"kitchen-cost/core/catalog"
	"kitchen-cost/core/cost"
	"kitchen-cost/core/pricing"
	"kitchen-cost/internal/errors"
	"kitchen-cost/internal/logging"
)

// Config configures the costing engine
type Config struct {
	// PricingMode selects how a variant's current pack price is read
	PricingMode pricing.Mode

	// AverageDays is the trailing window for ModeAverage
	AverageDays int
}

// Engine is the primary API for ingredient and recipe costing.
// All other interfaces (CLI, adapters) are thin wrappers.
type Engine struct {
	mu sync.RWMutex

	graph    *catalog.Graph
	store    *pricing.Store
	selector *pricing.Selector
	resolver *cost.Resolver

	log *zap.Logger
}

// New creates an engine over an empty catalog and observation log
func New(cfg Config) *Engine {
	if cfg.PricingMode == "" {
		cfg.PricingMode = pricing.ModeRecent
	}
	if cfg.AverageDays <= 0 {
		cfg.AverageDays = 30
	}

	graph := catalog.NewGraph()
	store := pricing.NewStore()
	selector := pricing.NewSelector(graph, store, cfg.PricingMode, cfg.AverageDays)

	return &Engine{
		graph:    graph,
		store:    store,
		selector: selector,
		resolver: cost.NewResolver(graph, selector),
		log:      logging.Named("engine"),
	}
}

// SetClock overrides the time source for window-based views. Test hook.
func (e *Engine) SetClock(now func() time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selector.SetClock(now)
}

// CostPerBaseUnit resolves a node's cost per base unit, with full per-line
// provenance. The result is Known, Unknown, or Cyclic; a missing node is the
// only error case.
func (e *Engine) CostPerBaseUnit(ctx context.Context, ref catalog.NodeRef) (cost.Result, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.graph.Exists(ref) {
		return cost.Result{}, errors.NotFound("node", ref.String())
	}
	return e.resolver.Resolve(ctx, ref), nil
}

// PriceComparison builds the side-by-side distributor matrix for an
// ingredient. Component ingredients additionally get a synthetic "From
// Recipe" row carrying the source recipe's cost, so made-in-house and
// purchased offers compare in one view.
func (e *Engine) PriceComparison(ctx context.Context, ingredientID uuid.UUID) (*pricing.Comparison, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	cmp, err := e.selector.Comparison(ingredientID)
	if err != nil {
		return nil, err
	}

	ing, _ := e.graph.Ingredient(ingredientID)
	if ing != nil && ing.IsComponent() {
		row := pricing.DistributorPrice{
			DistributorName: "From Recipe",
			Description:     ing.Name,
		}
		res := e.resolver.Resolve(ctx, ing.Ref())
		if perBase, ok := res.PerBaseUnit(); ok {
			p := perBase
			row.PerBaseUnit = &p
			if cmp.Best == nil || p.Cmp(*cmp.Best) < 0 {
				best := p
				cmp.Best = &best
				row.IsBest = true
				for i := range cmp.Prices {
					cmp.Prices[i].IsBest = false
				}
			}
		}
		cmp.Prices = append(cmp.Prices, row)
	}
	return cmp, nil
}

// PriceHistory returns an ingredient's chronological price history grouped
// by distributor and SKU, inactive variants included.
func (e *Engine) PriceHistory(ctx context.Context, ingredientID uuid.UUID) ([]pricing.VariantHistory, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.selector.History(ingredientID)
}

// PriceMovers lists ingredients whose best price moved over the trailing
// window, biggest absolute change first.
func (e *Engine) PriceMovers(ctx context.Context, windowDays int) []pricing.Mover {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.selector.Movers(windowDays)
}

// RecordObservation appends a price observation for a SKU variant and
// invalidates the cost-cache closure of the ingredient it maps to.
func (e *Engine) RecordObservation(obs pricing.Observation) (pricing.Observation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, ok := e.graph.Variant(obs.VariantID)
	if !ok {
		return pricing.Observation{}, errors.NotFound("variant", obs.VariantID.String())
	}
	if obs.PriceCents < 0 {
		return pricing.Observation{}, errors.Validation("price cents must not be negative")
	}
	if obs.EffectiveDate.IsZero() {
		return pricing.Observation{}, errors.Validation("observation needs an effective date")
	}

	stored := e.store.Append(obs)
	if v.IngredientID != nil {
		e.invalidateIngredient(*v.IngredientID)
	}
	e.log.Debug("observation recorded",
		zap.String("variant", v.SKU),
		zap.Int64("price_cents", stored.PriceCents))
	return stored, nil
}

// AddDistributor registers a distributor
func (e *Engine) AddDistributor(d *catalog.Distributor) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.graph.AddDistributor(d)
}

// UpsertIngredient adds or replaces an ingredient. Both node kinds for the
// id are invalidated: a raw-to-component flip moves the node across kinds
// and either may sit in the cache.
func (e *Engine) UpsertIngredient(ing *catalog.Ingredient) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.graph.AddIngredient(ing); err != nil {
		return err
	}
	e.invalidateIngredient(ing.ID)
	return nil
}

// UpsertRecipe adds or replaces a recipe and invalidates everything that
// consumes it, directly or transitively.
func (e *Engine) UpsertRecipe(r *catalog.Recipe) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.graph.AddRecipe(r); err != nil {
		return err
	}
	evicted := e.resolver.Invalidate(r.Ref())
	e.log.Debug("recipe upserted",
		zap.String("recipe", r.Name),
		zap.Int("evicted", len(evicted)))
	return nil
}

// LinkComponent turns an ingredient into a component backed by a source
// recipe. The recipe must already exist.
func (e *Engine) LinkComponent(ingredientID, sourceRecipeID uuid.UUID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	ing, ok := e.graph.Ingredient(ingredientID)
	if !ok {
		return errors.NotFound("ingredient", ingredientID.String())
	}
	if _, ok := e.graph.Recipe(sourceRecipeID); !ok {
		return errors.NotFound("recipe", sourceRecipeID.String())
	}

	src := sourceRecipeID
	ing.Type = catalog.IngredientComponent
	ing.SourceRecipeID = &src
	e.invalidateIngredient(ingredientID)
	return nil
}

// AddVariant registers a SKU variant
func (e *Engine) AddVariant(v *catalog.SKUVariant) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.graph.AddVariant(v)
}

// MapVariant links a SKU variant to the ingredient it supplies
func (e *Engine) MapVariant(variantID, ingredientID uuid.UUID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.graph.MapVariant(variantID, ingredientID); err != nil {
		return err
	}
	e.invalidateIngredient(ingredientID)
	return nil
}

// SetVariantConversion sets a variant's base-units-per-pack factor, the
// piece that turns a pack price into a per-base-unit price.
func (e *Engine) SetVariantConversion(variantID uuid.UUID, baseUnitsPerPack decimal.Decimal) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.graph.SetVariantConversion(variantID, baseUnitsPerPack); err != nil {
		return err
	}
	if v, ok := e.graph.Variant(variantID); ok && v.IngredientID != nil {
		e.invalidateIngredient(*v.IngredientID)
	}
	return nil
}

// DeactivateVariant retires a variant from best-price selection. Its price
// history is retained.
func (e *Engine) DeactivateVariant(variantID uuid.UUID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, ok := e.graph.Variant(variantID)
	if !ok {
		return errors.NotFound("variant", variantID.String())
	}
	if err := e.graph.DeactivateVariant(variantID); err != nil {
		return err
	}
	if v.IngredientID != nil {
		e.invalidateIngredient(*v.IngredientID)
	}
	return nil
}

// invalidateIngredient evicts both node kinds an ingredient id can resolve
// under. Caller holds the write lock.
func (e *Engine) invalidateIngredient(id uuid.UUID) {
	e.resolver.Invalidate(catalog.NodeRef{Kind: catalog.KindRawIngredient, ID: id})
	e.resolver.Invalidate(catalog.NodeRef{Kind: catalog.KindComponent, ID: id})
}
