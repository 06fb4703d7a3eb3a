package cost

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"kitchen-cost/core/catalog"
	"kitchen-cost/core/money"
	"kitchen-cost/core/pricing"
	"kitchen-cost/core/units"
	"kitchen-cost/internal/logging"
)

// Resolver computes cost per base unit for any priceable node, memoized
// across passes. The cache is an explicit arena keyed by node ref with an
// explicit reverse-dependency index, so invalidation scope stays auditable:
// a change to one node evicts exactly its reverse-dependency closure.
//
// Concurrent readers may resolve at the same time: the shared memo tables
// are guarded by an internal mutex, never held across recursion. Writers
// (graph or price mutations plus Invalidate) are serialized above this
// package by the engine's exclusive lock, so a reader never observes a
// partially-invalidated cache.
type Resolver struct {
	graph    *catalog.Graph
	selector *pricing.Selector

	// mu guards cache, deps, revDeps, and recomputes
	mu sync.Mutex

	cache map[catalog.NodeRef]Result

	// forward edges recorded during resolution (parent -> children),
	// kept so a re-resolved parent can retract stale edges
	deps map[catalog.NodeRef][]catalog.NodeRef

	// reverse edges (child -> parents), walked by Invalidate
	revDeps map[catalog.NodeRef]map[catalog.NodeRef]struct{}

	// recomputes counts actual resolutions per node (cache misses),
	// exposed so invalidation scope is testable
	recomputes map[catalog.NodeRef]int

	log *zap.Logger
}

// NewResolver creates a resolver over a graph and price selector
func NewResolver(graph *catalog.Graph, selector *pricing.Selector) *Resolver {
	return &Resolver{
		graph:      graph,
		selector:   selector,
		cache:      make(map[catalog.NodeRef]Result),
		deps:       make(map[catalog.NodeRef][]catalog.NodeRef),
		revDeps:    make(map[catalog.NodeRef]map[catalog.NodeRef]struct{}),
		recomputes: make(map[catalog.NodeRef]int),
		log:        logging.Named("resolver"),
	}
}

// resolving is the explicit set of node refs on the active call path,
// checked before each descent so a cycle is detected instead of recursing
// until the stack gives out. Order is kept to report the full cycle.
type resolving struct {
	order []catalog.NodeRef
	set   map[catalog.NodeRef]struct{}
}

func newResolving() *resolving {
	return &resolving{set: make(map[catalog.NodeRef]struct{})}
}

func (p *resolving) push(ref catalog.NodeRef) {
	p.order = append(p.order, ref)
	p.set[ref] = struct{}{}
}

func (p *resolving) pop() {
	last := p.order[len(p.order)-1]
	p.order = p.order[:len(p.order)-1]
	delete(p.set, last)
}

func (p *resolving) contains(ref catalog.NodeRef) bool {
	_, ok := p.set[ref]
	return ok
}

// cycleFrom returns the ordered cycle starting at ref: ref -> ... -> ref
func (p *resolving) cycleFrom(ref catalog.NodeRef) []catalog.NodeRef {
	for i, r := range p.order {
		if r == ref {
			cycle := make([]catalog.NodeRef, 0, len(p.order)-i+1)
			cycle = append(cycle, p.order[i:]...)
			return append(cycle, ref)
		}
	}
	return []catalog.NodeRef{ref, ref}
}

// Resolve computes the cost per base unit for a node. It never returns an
// error: missing data yields Unknown, circular composition yields Cyclic,
// and neither aborts resolution of unrelated nodes in the same batch.
func (r *Resolver) Resolve(ctx context.Context, ref catalog.NodeRef) Result {
	if err := ctx.Err(); err != nil {
		return Unknown("resolution canceled: "+err.Error(), Provenance{})
	}
	return r.resolve(ref, newResolving())
}

func (r *Resolver) resolve(ref catalog.NodeRef, path *resolving) Result {
	r.mu.Lock()
	cached, ok := r.cache[ref]
	r.mu.Unlock()
	if ok {
		return cached
	}
	if path.contains(ref) {
		// Re-entry marker for the parent; parents on the cycle compute
		// and cache their own Cyclic results.
		return Cyclic(path.cycleFrom(ref))
	}

	path.push(ref)
	defer path.pop()

	r.mu.Lock()
	r.recomputes[ref]++
	r.retractEdges(ref)
	r.mu.Unlock()

	var result Result
	switch ref.Kind {
	case catalog.KindRecipe:
		result = r.resolveRecipe(ref, path)
	case catalog.KindComponent:
		result = r.resolveComponent(ref, path)
	default:
		result = r.resolveRaw(ref, path)
	}

	r.mu.Lock()
	r.cache[ref] = result
	r.mu.Unlock()
	return result
}

// resolveRaw prices a raw ingredient from its best distributor offer.
// A raw-kinded ref to an ingredient that declares a source recipe is routed
// through component resolution; the kind follows the declaration, not the
// caller's spelling.
func (r *Resolver) resolveRaw(ref catalog.NodeRef, path *resolving) Result {
	ing, ok := r.graph.Ingredient(ref.ID)
	if !ok {
		return Unknown("ingredient not found", Provenance{})
	}
	if ing.IsComponent() {
		return r.resolveComponent(ref, path)
	}

	best := r.selector.BestPrice(ing.ID)
	prov := Provenance{FlaggedVariants: best.FlaggedNoBaseUnit}
	if best.Unknown() {
		reason := "no priced distributor offers"
		if len(best.FlaggedNoBaseUnit) > 0 {
			reason = "priced offers lack a base-unit conversion factor"
		}
		return Unknown(reason, prov)
	}

	prov.BestDistributorID = best.DistributorID
	prov.BestVariantID = best.VariantID
	return Known(*best.PerBaseUnit, ing.BaseUnit, prov)
}

// resolveComponent surfaces the source recipe's cost as the component's own
func (r *Resolver) resolveComponent(ref catalog.NodeRef, path *resolving) Result {
	ing, ok := r.graph.Ingredient(ref.ID)
	if !ok || ing.SourceRecipeID == nil {
		return Unknown("component has no source recipe", Provenance{})
	}

	recipeRef := catalog.NodeRef{Kind: catalog.KindRecipe, ID: *ing.SourceRecipeID}
	r.recordEdge(ref, recipeRef)

	sub := r.resolve(recipeRef, path)
	prov := Provenance{SourceRecipeID: ing.SourceRecipeID}
	switch sub.State() {
	case StateCyclic:
		return Cyclic(sub.Cycle())
	case StateUnknown:
		return Unknown("source recipe cost is unknown: "+sub.Reason(), prov)
	}

	perBase, _ := sub.PerBaseUnit()
	if sub.BaseUnit() != ing.BaseUnit {
		// Both sides are family base units, so a mismatch means the recipe
		// yields in a different family than the component is tracked in;
		// cost/ml has no defined factor into cost/g.
		return Unknown("source recipe yield unit family differs from component base unit", prov)
	}
	return Known(perBase, ing.BaseUnit, prov)
}

// resolveRecipe rolls up line contributions and divides by the yield
func (r *Resolver) resolveRecipe(ref catalog.NodeRef, path *resolving) Result {
	recipe, ok := r.graph.Recipe(ref.ID)
	if !ok {
		return Unknown("recipe not found", Provenance{})
	}

	prov := Provenance{}
	total := money.Zero()
	unknownLines := 0
	var cycle []catalog.NodeRef

	for _, line := range recipe.Lines {
		r.recordEdge(ref, line.Node)

		lc := LineCost{
			Node:     line.Node,
			Name:     r.nodeName(line.Node),
			Quantity: line.Quantity,
			Unit:     line.Unit,
			Optional: line.Optional,
		}

		sub := r.resolve(line.Node, path)
		switch sub.State() {
		case StateCyclic:
			if cycle == nil {
				cycle = sub.Cycle()
			}
			lc.Unknown = true
			lc.Reason = "circular composition"
		case StateUnknown:
			// optional garnish lines are exempt from unknown propagation
			if !line.Optional {
				unknownLines++
			}
			lc.Unknown = true
			lc.Reason = sub.Reason()
		default:
			perBase, _ := sub.PerBaseUnit()
			qtyBase, err := units.Convert(line.Quantity, line.Unit, sub.BaseUnit())
			if err != nil {
				// Line consumes in a family the child is not priced in
				if !line.Optional {
					unknownLines++
				}
				lc.Unknown = true
				lc.Reason = err.Error()
				break
			}
			contribution := perBase.Mul(qtyBase)
			lc.QuantityBase = qtyBase
			lc.PerBaseUnit = &perBase
			lc.CostCents = &contribution
			total = total.Add(contribution)
		}
		prov.Lines = append(prov.Lines, lc)
	}

	if cycle != nil {
		r.log.Warn("circular recipe composition",
			zap.String("recipe", recipe.Name),
			zap.Int("cycle_len", len(cycle)))
		return Cyclic(cycle)
	}
	if unknownLines > 0 {
		// Any unknown line makes the whole node unknown: missing data is
		// never silently treated as free.
		return Unknown("recipe has unpriced lines", prov)
	}

	prov.TotalBatchCents = total
	if recipe.YieldQty.IsPositive() {
		perYield := total.Div(recipe.YieldQty)
		prov.CostPerYieldUnit = &perYield
	}

	yieldBase, baseUnit, ok := recipe.BaseYield()
	if !ok {
		return Unknown("yield is not expressible in a base unit", prov)
	}
	return Known(total.Div(yieldBase), baseUnit, prov)
}

// Invalidate evicts a node and its reverse-dependency closure from the
// cache, leaving unrelated entries untouched. Returns the refs evicted.
func (r *Resolver) Invalidate(ref catalog.NodeRef) []catalog.NodeRef {
	r.mu.Lock()
	defer r.mu.Unlock()

	var evicted []catalog.NodeRef
	seen := make(map[catalog.NodeRef]struct{})
	queue := []catalog.NodeRef{ref}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if _, done := seen[cur]; done {
			continue
		}
		seen[cur] = struct{}{}

		if _, ok := r.cache[cur]; ok {
			delete(r.cache, cur)
			evicted = append(evicted, cur)
		}
		for parent := range r.revDeps[cur] {
			queue = append(queue, parent)
		}
	}

	if len(evicted) > 0 {
		r.log.Debug("cache invalidated",
			zap.String("node", ref.String()),
			zap.Int("evicted", len(evicted)))
	}
	return evicted
}

// InvalidateAll drops the whole cache and dependency index
func (r *Resolver) InvalidateAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[catalog.NodeRef]Result)
	r.deps = make(map[catalog.NodeRef][]catalog.NodeRef)
	r.revDeps = make(map[catalog.NodeRef]map[catalog.NodeRef]struct{})
}

// RecomputeCount returns how many times a node was actually resolved
// (cache misses), for verifying invalidation scope
func (r *Resolver) RecomputeCount(ref catalog.NodeRef) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recomputes[ref]
}

// Cached reports whether a node currently has a cached cost
func (r *Resolver) Cached(ref catalog.NodeRef) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.cache[ref]
	return ok
}

// recordEdge notes parent consumes child, in both directions
func (r *Resolver) recordEdge(parent, child catalog.NodeRef) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deps[parent] = append(r.deps[parent], child)
	if r.revDeps[child] == nil {
		r.revDeps[child] = make(map[catalog.NodeRef]struct{})
	}
	r.revDeps[child][parent] = struct{}{}
}

// retractEdges removes a parent's stale forward edges before re-resolution,
// so an edited recipe no longer receives invalidations from dropped lines
func (r *Resolver) retractEdges(parent catalog.NodeRef) {
	for _, child := range r.deps[parent] {
		delete(r.revDeps[child], parent)
	}
	delete(r.deps, parent)
}

func (r *Resolver) nodeName(ref catalog.NodeRef) string {
	if ref.Kind == catalog.KindRecipe {
		if rec, ok := r.graph.Recipe(ref.ID); ok {
			return rec.Name
		}
		return ""
	}
	if ing, ok := r.graph.Ingredient(ref.ID); ok {
		return ing.Name
	}
	return ""
}
