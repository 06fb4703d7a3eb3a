package cost

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"kitchen-cost/core/catalog"
	"kitchen-cost/core/pricing"
	"kitchen-cost/core/units"
)

type fixture struct {
	graph    *catalog.Graph
	store    *pricing.Store
	resolver *Resolver
	dist     *catalog.Distributor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	g := catalog.NewGraph()
	d := &catalog.Distributor{ID: uuid.New(), Name: "Sysco", Active: true}
	if err := g.AddDistributor(d); err != nil {
		t.Fatal(err)
	}
	store := pricing.NewStore()
	sel := pricing.NewSelector(g, store, pricing.ModeRecent, 30)
	return &fixture{graph: g, store: store, resolver: NewResolver(g, sel), dist: d}
}

// pricedIngredient adds a raw ingredient with one variant priced at
// centsPerBase per base unit (via a 1000-unit pack).
func (f *fixture) pricedIngredient(t *testing.T, name string, base units.Unit, centsPerBase int64) *catalog.Ingredient {
	t.Helper()
	ing := &catalog.Ingredient{ID: uuid.New(), Name: name, BaseUnit: base}
	if err := f.graph.AddIngredient(ing); err != nil {
		t.Fatal(err)
	}
	factor := decimal.NewFromInt(1000)
	v := &catalog.SKUVariant{
		ID:               uuid.New(),
		DistributorID:    f.dist.ID,
		IngredientID:     &ing.ID,
		SKU:              strings.ToUpper(name),
		BaseUnitsPerPack: &factor,
		Active:           true,
	}
	if err := f.graph.AddVariant(v); err != nil {
		t.Fatal(err)
	}
	f.store.Append(pricing.Observation{
		VariantID:     v.ID,
		PriceCents:    centsPerBase * 1000,
		EffectiveDate: time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		Source:        pricing.SourceInvoice,
	})
	return ing
}

func (f *fixture) unpricedIngredient(t *testing.T, name string, base units.Unit) *catalog.Ingredient {
	t.Helper()
	ing := &catalog.Ingredient{ID: uuid.New(), Name: name, BaseUnit: base}
	if err := f.graph.AddIngredient(ing); err != nil {
		t.Fatal(err)
	}
	return ing
}

func (f *fixture) addRecipe(t *testing.T, r *catalog.Recipe) *catalog.Recipe {
	t.Helper()
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	r.Active = true
	if err := f.graph.AddRecipe(r); err != nil {
		t.Fatal(err)
	}
	return r
}

func (f *fixture) component(t *testing.T, name string, base units.Unit, sourceID uuid.UUID) *catalog.Ingredient {
	t.Helper()
	ing := &catalog.Ingredient{
		ID: uuid.New(), Name: name, BaseUnit: base,
		Type: catalog.IngredientComponent, SourceRecipeID: &sourceID,
	}
	if err := f.graph.AddIngredient(ing); err != nil {
		t.Fatal(err)
	}
	return ing
}

func line(node catalog.NodeRef, qty int64, unit units.Unit) catalog.RecipeLine {
	return catalog.RecipeLine{Node: node, Quantity: decimal.NewFromInt(qty), Unit: unit}
}

func TestRecipeRollup(t *testing.T) {
	f := newFixture(t)
	butter := f.pricedIngredient(t, "Butter", units.Gram, 2)
	cream := f.pricedIngredient(t, "Cream", units.Gram, 1)

	recipe := f.addRecipe(t, &catalog.Recipe{
		Name:     "Beurre Blanc",
		YieldQty: decimal.NewFromInt(1000), YieldUnit: "g",
		Lines: []catalog.RecipeLine{
			line(butter.Ref(), 600, units.Gram),
			line(cream.Ref(), 400, units.Gram),
		},
	})

	res := f.resolver.Resolve(context.Background(), recipe.Ref())
	if !res.IsKnown() {
		t.Fatalf("state = %s, want known (%s)", res.State(), res.Reason())
	}
	perBase, _ := res.PerBaseUnit()
	// (600g × 2¢ + 400g × 1¢) / 1000g
	if !perBase.Decimal().Equal(decimal.RequireFromString("1.6")) {
		t.Errorf("per base unit = %s, want 1.6", perBase.Decimal())
	}
	if res.BaseUnit() != units.Gram {
		t.Errorf("base unit = %s, want g", res.BaseUnit())
	}

	prov := res.Provenance()
	if !prov.TotalBatchCents.Decimal().Equal(decimal.NewFromInt(1600)) {
		t.Errorf("batch total = %s, want 1600", prov.TotalBatchCents.Decimal())
	}
	if len(prov.Lines) != 2 {
		t.Fatalf("line count = %d, want 2", len(prov.Lines))
	}
	if prov.Lines[0].CostCents == nil || !prov.Lines[0].CostCents.Decimal().Equal(decimal.NewFromInt(1200)) {
		t.Errorf("butter line cost = %v, want 1200", prov.Lines[0].CostCents)
	}
}

func TestRecipeLineUnitConversion(t *testing.T) {
	f := newFixture(t)
	butter := f.pricedIngredient(t, "Butter", units.Gram, 2)

	// 1 lb = 453.592 g
	recipe := f.addRecipe(t, &catalog.Recipe{
		Name:     "Compound Butter",
		YieldQty: decimal.RequireFromString("453.592"), YieldUnit: "g",
		Lines:    []catalog.RecipeLine{line(butter.Ref(), 1, units.Pound)},
	})

	res := f.resolver.Resolve(context.Background(), recipe.Ref())
	if !res.IsKnown() {
		t.Fatalf("state = %s, want known", res.State())
	}
	perBase, _ := res.PerBaseUnit()
	if !perBase.Decimal().Equal(decimal.NewFromInt(2)) {
		t.Errorf("per base unit = %s, want 2", perBase.Decimal())
	}
}

func TestUnknownPropagation(t *testing.T) {
	f := newFixture(t)
	butter := f.pricedIngredient(t, "Butter", units.Gram, 2)
	saffron := f.unpricedIngredient(t, "Saffron", units.Gram)

	recipe := f.addRecipe(t, &catalog.Recipe{
		Name:     "Saffron Butter",
		YieldQty: decimal.NewFromInt(1000), YieldUnit: "g",
		Lines: []catalog.RecipeLine{
			line(butter.Ref(), 900, units.Gram),
			line(saffron.Ref(), 100, units.Gram),
		},
	})

	res := f.resolver.Resolve(context.Background(), recipe.Ref())
	if !res.IsUnknown() {
		t.Fatalf("state = %s, want unknown: missing data is never free", res.State())
	}

	// known lines keep their detail so the gap is visible
	prov := res.Provenance()
	if len(prov.Lines) != 2 {
		t.Fatalf("line count = %d, want 2", len(prov.Lines))
	}
	if prov.Lines[0].Unknown || prov.Lines[0].CostCents == nil {
		t.Error("priced line should remain costed in the breakdown")
	}
	if !prov.Lines[1].Unknown || prov.Lines[1].Reason == "" {
		t.Error("unpriced line should carry a reason")
	}

	// and the unknown flows through a consuming component
	comp := f.component(t, "Saffron Butter Base", units.Gram, recipe.ID)
	sub := f.resolver.Resolve(context.Background(), comp.Ref())
	if !sub.IsUnknown() {
		t.Errorf("component over unknown recipe = %s, want unknown", sub.State())
	}
}

func TestIncompatibleLineUnitIsUnknown(t *testing.T) {
	f := newFixture(t)
	oil := f.pricedIngredient(t, "Olive Oil", units.Milliliter, 3)

	recipe := f.addRecipe(t, &catalog.Recipe{
		Name:     "Confit",
		YieldQty: decimal.NewFromInt(500), YieldUnit: "g",
		Lines:    []catalog.RecipeLine{line(oil.Ref(), 200, units.Gram)},
	})

	res := f.resolver.Resolve(context.Background(), recipe.Ref())
	if !res.IsUnknown() {
		t.Fatalf("mass quantity of a volume-priced child should be unknown, got %s", res.State())
	}
}

func TestComponentPassthrough(t *testing.T) {
	f := newFixture(t)
	butter := f.pricedIngredient(t, "Butter", units.Gram, 2)

	recipe := f.addRecipe(t, &catalog.Recipe{
		Name:     "Clarified Butter",
		YieldQty: decimal.NewFromInt(800), YieldUnit: "g",
		Lines:    []catalog.RecipeLine{line(butter.Ref(), 1000, units.Gram)},
	})
	comp := f.component(t, "Clarified Butter", units.Gram, recipe.ID)

	res := f.resolver.Resolve(context.Background(), comp.Ref())
	if !res.IsKnown() {
		t.Fatalf("state = %s, want known (%s)", res.State(), res.Reason())
	}
	perBase, _ := res.PerBaseUnit()
	// 1000g × 2¢ / 800g yield
	if !perBase.Decimal().Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("per base unit = %s, want 2.5", perBase.Decimal())
	}
	if res.Provenance().SourceRecipeID == nil || *res.Provenance().SourceRecipeID != recipe.ID {
		t.Error("component provenance should carry the source recipe")
	}
}

func TestRawKindRefOfComponentResolves(t *testing.T) {
	f := newFixture(t)
	butter := f.pricedIngredient(t, "Butter", units.Gram, 2)

	recipe := f.addRecipe(t, &catalog.Recipe{
		Name:     "Clarified Butter",
		YieldQty: decimal.NewFromInt(800), YieldUnit: "g",
		Lines:    []catalog.RecipeLine{line(butter.Ref(), 1000, units.Gram)},
	})
	comp := f.component(t, "Clarified Butter", units.Gram, recipe.ID)

	// the caller's spelling does not decide the kind; the declaration does
	rawRef := catalog.NodeRef{Kind: catalog.KindRawIngredient, ID: comp.ID}
	res := f.resolver.Resolve(context.Background(), rawRef)
	if !res.IsKnown() {
		t.Fatalf("raw-kinded ref to component = %s (%s), want known", res.State(), res.Reason())
	}
	perBase, _ := res.PerBaseUnit()
	if !perBase.Decimal().Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("per base unit = %s, want 2.5", perBase.Decimal())
	}
	if res.Provenance().SourceRecipeID == nil {
		t.Error("provenance should carry the source recipe")
	}
}

func TestOptionalLineDoesNotPoisonRollup(t *testing.T) {
	f := newFixture(t)
	butter := f.pricedIngredient(t, "Butter", units.Gram, 2)
	saffron := f.unpricedIngredient(t, "Saffron", units.Gram)

	recipe := f.addRecipe(t, &catalog.Recipe{
		Name:     "Saffron Butter",
		YieldQty: decimal.NewFromInt(1000), YieldUnit: "g",
		Lines: []catalog.RecipeLine{
			line(butter.Ref(), 600, units.Gram),
			{Node: saffron.Ref(), Quantity: decimal.NewFromInt(1), Unit: units.Gram, Optional: true},
		},
	})

	res := f.resolver.Resolve(context.Background(), recipe.Ref())
	if !res.IsKnown() {
		t.Fatalf("state = %s (%s), want known: optional lines are garnish", res.State(), res.Reason())
	}
	perBase, _ := res.PerBaseUnit()
	// 600g × 2¢ / 1000g, the optional line contributing nothing
	if !perBase.Decimal().Equal(decimal.RequireFromString("1.2")) {
		t.Errorf("per base unit = %s, want 1.2", perBase.Decimal())
	}

	prov := res.Provenance()
	if len(prov.Lines) != 2 {
		t.Fatalf("line count = %d, want 2", len(prov.Lines))
	}
	skipped := prov.Lines[1]
	if !skipped.Unknown || !skipped.Optional || skipped.Reason == "" {
		t.Errorf("optional unpriced line = %+v, want unknown+optional with reason", skipped)
	}

	// a required unpriced line still poisons the recipe
	required := f.addRecipe(t, &catalog.Recipe{
		Name:     "Saffron Butter Strict",
		YieldQty: decimal.NewFromInt(1000), YieldUnit: "g",
		Lines: []catalog.RecipeLine{
			line(butter.Ref(), 600, units.Gram),
			line(saffron.Ref(), 1, units.Gram),
		},
	})
	if got := f.resolver.Resolve(context.Background(), required.Ref()); !got.IsUnknown() {
		t.Errorf("required unpriced line: state = %s, want unknown", got.State())
	}
}

func TestYieldWeightWinsOverYieldUnit(t *testing.T) {
	f := newFixture(t)
	butter := f.pricedIngredient(t, "Butter", units.Gram, 1)

	weight := decimal.NewFromInt(950)
	recipe := f.addRecipe(t, &catalog.Recipe{
		Name:     "Beurre Monte",
		YieldQty: decimal.NewFromInt(1), YieldUnit: "qt",
		YieldWeightGrams: &weight,
		Lines:            []catalog.RecipeLine{line(butter.Ref(), 950, units.Gram)},
	})

	res := f.resolver.Resolve(context.Background(), recipe.Ref())
	if !res.IsKnown() {
		t.Fatalf("state = %s, want known", res.State())
	}
	if res.BaseUnit() != units.Gram {
		t.Errorf("base unit = %s, want g (explicit yield weight wins)", res.BaseUnit())
	}
	perBase, _ := res.PerBaseUnit()
	if !perBase.Decimal().Equal(decimal.NewFromInt(1)) {
		t.Errorf("per base unit = %s, want 1", perBase.Decimal())
	}
}

func TestOpaqueYieldKeepsBatchCost(t *testing.T) {
	f := newFixture(t)
	butter := f.pricedIngredient(t, "Butter", units.Gram, 2)

	recipe := f.addRecipe(t, &catalog.Recipe{
		Name:     "Dinner Rolls",
		YieldQty: decimal.NewFromInt(24), YieldUnit: "servings",
		Lines:    []catalog.RecipeLine{line(butter.Ref(), 600, units.Gram)},
	})

	res := f.resolver.Resolve(context.Background(), recipe.Ref())
	if !res.IsUnknown() {
		t.Fatalf("servings yield has no base-unit cost, got %s", res.State())
	}
	prov := res.Provenance()
	if !prov.TotalBatchCents.Decimal().Equal(decimal.NewFromInt(1200)) {
		t.Errorf("batch total = %s, want 1200", prov.TotalBatchCents.Decimal())
	}
	// 1200¢ / 24 servings
	if prov.CostPerYieldUnit == nil || !prov.CostPerYieldUnit.Decimal().Equal(decimal.NewFromInt(50)) {
		t.Errorf("cost per yield unit = %v, want 50", prov.CostPerYieldUnit)
	}
}

func TestCycleDetection(t *testing.T) {
	f := newFixture(t)

	inner := f.addRecipe(t, &catalog.Recipe{
		Name:     "Mother Sauce",
		YieldQty: decimal.NewFromInt(1000), YieldUnit: "g",
	})
	comp := f.component(t, "Mother Sauce Base", units.Gram, inner.ID)
	inner.Lines = []catalog.RecipeLine{line(comp.Ref(), 500, units.Gram)}

	outer := f.addRecipe(t, &catalog.Recipe{
		Name:     "Derived Sauce",
		YieldQty: decimal.NewFromInt(1000), YieldUnit: "g",
		Lines:    []catalog.RecipeLine{line(comp.Ref(), 200, units.Gram)},
	})

	res := f.resolver.Resolve(context.Background(), outer.Ref())
	if !res.IsCyclic() {
		t.Fatalf("state = %s, want cyclic", res.State())
	}

	cycle := res.Cycle()
	if len(cycle) < 3 {
		t.Fatalf("cycle len = %d, want at least 3", len(cycle))
	}
	if cycle[0] != cycle[len(cycle)-1] {
		t.Errorf("cycle should close on its first node: %v", cycle)
	}
	if !strings.Contains(res.CyclePath(), " -> ") {
		t.Errorf("CyclePath = %q, want arrow-joined path", res.CyclePath())
	}

	// every node on the cycle caches cyclic, not an exploded stack
	if got := f.resolver.Resolve(context.Background(), comp.Ref()); !got.IsCyclic() {
		t.Errorf("component on cycle = %s, want cyclic", got.State())
	}
}

func TestCycleRecoversAfterEdit(t *testing.T) {
	f := newFixture(t)
	butter := f.pricedIngredient(t, "Butter", units.Gram, 2)

	inner := f.addRecipe(t, &catalog.Recipe{
		Name:     "Mother Sauce",
		YieldQty: decimal.NewFromInt(1000), YieldUnit: "g",
	})
	comp := f.component(t, "Mother Sauce Base", units.Gram, inner.ID)
	inner.Lines = []catalog.RecipeLine{line(comp.Ref(), 500, units.Gram)}

	if got := f.resolver.Resolve(context.Background(), comp.Ref()); !got.IsCyclic() {
		t.Fatalf("setup should be cyclic, got %s", got.State())
	}

	// break the cycle and invalidate the edited recipe
	inner.Lines = []catalog.RecipeLine{line(butter.Ref(), 1000, units.Gram)}
	f.resolver.Invalidate(inner.Ref())

	res := f.resolver.Resolve(context.Background(), comp.Ref())
	if !res.IsKnown() {
		t.Fatalf("after breaking the cycle: state = %s (%s), want known", res.State(), res.Reason())
	}
	perBase, _ := res.PerBaseUnit()
	if !perBase.Decimal().Equal(decimal.NewFromInt(2)) {
		t.Errorf("per base unit = %s, want 2", perBase.Decimal())
	}
}

func TestMemoizationIsIdempotent(t *testing.T) {
	f := newFixture(t)
	butter := f.pricedIngredient(t, "Butter", units.Gram, 2)

	recipe := f.addRecipe(t, &catalog.Recipe{
		Name:     "Compound Butter",
		YieldQty: decimal.NewFromInt(1000), YieldUnit: "g",
		Lines:    []catalog.RecipeLine{line(butter.Ref(), 1000, units.Gram)},
	})

	ctx := context.Background()
	first := f.resolver.Resolve(ctx, recipe.Ref())
	second := f.resolver.Resolve(ctx, recipe.Ref())

	p1, _ := first.PerBaseUnit()
	p2, _ := second.PerBaseUnit()
	if !p1.Equal(p2) {
		t.Errorf("re-resolution changed the answer: %s vs %s", p1.Decimal(), p2.Decimal())
	}
	if n := f.resolver.RecomputeCount(recipe.Ref()); n != 1 {
		t.Errorf("recipe recomputed %d times, want 1", n)
	}
	if n := f.resolver.RecomputeCount(butter.Ref()); n != 1 {
		t.Errorf("ingredient recomputed %d times, want 1", n)
	}
}

func TestInvalidationScope(t *testing.T) {
	f := newFixture(t)
	butter := f.pricedIngredient(t, "Butter", units.Gram, 2)
	cream := f.pricedIngredient(t, "Cream", units.Gram, 1)

	uses := f.addRecipe(t, &catalog.Recipe{
		Name:     "Beurre Blanc",
		YieldQty: decimal.NewFromInt(1000), YieldUnit: "g",
		Lines: []catalog.RecipeLine{
			line(butter.Ref(), 600, units.Gram),
			line(cream.Ref(), 400, units.Gram),
		},
	})
	unrelated := f.addRecipe(t, &catalog.Recipe{
		Name:     "Whipped Cream",
		YieldQty: decimal.NewFromInt(1000), YieldUnit: "g",
		Lines:    []catalog.RecipeLine{line(cream.Ref(), 1000, units.Gram)},
	})

	ctx := context.Background()
	f.resolver.Resolve(ctx, uses.Ref())
	f.resolver.Resolve(ctx, unrelated.Ref())

	evicted := f.resolver.Invalidate(butter.Ref())
	if len(evicted) != 2 {
		t.Fatalf("evicted %d nodes %v, want 2 (butter and its consumer)", len(evicted), evicted)
	}
	if f.resolver.Cached(uses.Ref()) {
		t.Error("consuming recipe should be evicted")
	}
	if !f.resolver.Cached(unrelated.Ref()) {
		t.Error("unrelated recipe should stay cached")
	}

	f.resolver.Resolve(ctx, uses.Ref())
	f.resolver.Resolve(ctx, unrelated.Ref())

	if n := f.resolver.RecomputeCount(uses.Ref()); n != 2 {
		t.Errorf("consumer recomputed %d times, want 2", n)
	}
	if n := f.resolver.RecomputeCount(unrelated.Ref()); n != 1 {
		t.Errorf("unrelated recipe recomputed %d times, want 1", n)
	}
	if n := f.resolver.RecomputeCount(cream.Ref()); n != 1 {
		t.Errorf("untouched ingredient recomputed %d times, want 1", n)
	}
}

func TestInvalidationCascadesThroughComponents(t *testing.T) {
	f := newFixture(t)
	butter := f.pricedIngredient(t, "Butter", units.Gram, 2)

	inner := f.addRecipe(t, &catalog.Recipe{
		Name:     "Clarified Butter",
		YieldQty: decimal.NewFromInt(1000), YieldUnit: "g",
		Lines:    []catalog.RecipeLine{line(butter.Ref(), 1000, units.Gram)},
	})
	comp := f.component(t, "Clarified Butter", units.Gram, inner.ID)
	outer := f.addRecipe(t, &catalog.Recipe{
		Name:     "Hollandaise",
		YieldQty: decimal.NewFromInt(1000), YieldUnit: "g",
		Lines:    []catalog.RecipeLine{line(comp.Ref(), 500, units.Gram)},
	})

	f.resolver.Resolve(context.Background(), outer.Ref())

	evicted := f.resolver.Invalidate(butter.Ref())
	// butter -> inner recipe -> component -> outer recipe
	if len(evicted) != 4 {
		t.Errorf("evicted %d nodes %v, want full closure of 4", len(evicted), evicted)
	}
	for _, ref := range []catalog.NodeRef{butter.Ref(), inner.Ref(), comp.Ref(), outer.Ref()} {
		if f.resolver.Cached(ref) {
			t.Errorf("%s still cached after invalidation", ref)
		}
	}
}

func TestResolveCanceledContext(t *testing.T) {
	f := newFixture(t)
	butter := f.pricedIngredient(t, "Butter", units.Gram, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := f.resolver.Resolve(ctx, butter.Ref())
	if !res.IsUnknown() {
		t.Errorf("canceled resolve = %s, want unknown", res.State())
	}
}
