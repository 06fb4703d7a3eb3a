package catalog

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"kitchen-cost/internal/errors"
)

// Graph is the in-memory priceable node graph. It is not safe for concurrent
// mutation; the engine serializes writes and shares reads under its own lock.
//
// Acyclicity is deliberately NOT validated here. Edits may create cycles in
// any order; the resolver detects them at resolution time and reports the
// full cycle path instead of rejecting the edit.
type Graph struct {
	ingredients  map[uuid.UUID]*Ingredient
	recipes      map[uuid.UUID]*Recipe
	distributors map[uuid.UUID]*Distributor
	variants     map[uuid.UUID]*SKUVariant

	// variantsByIngredient indexes mapped variants per ingredient
	variantsByIngredient map[uuid.UUID][]uuid.UUID
}

// NewGraph creates an empty graph
func NewGraph() *Graph {
	return &Graph{
		ingredients:          make(map[uuid.UUID]*Ingredient),
		recipes:              make(map[uuid.UUID]*Recipe),
		distributors:         make(map[uuid.UUID]*Distributor),
		variants:             make(map[uuid.UUID]*SKUVariant),
		variantsByIngredient: make(map[uuid.UUID][]uuid.UUID),
	}
}

// AddDistributor registers a distributor
func (g *Graph) AddDistributor(d *Distributor) error {
	if d.Name == "" {
		return errors.Validation("distributor name is required")
	}
	g.distributors[d.ID] = d
	return nil
}

// AddIngredient registers an ingredient after validating its invariants
func (g *Graph) AddIngredient(ing *Ingredient) error {
	if ing.Name == "" {
		return errors.Validation("ingredient name is required")
	}
	if !ing.BaseUnit.IsBase() {
		return errors.Newf(errors.TypeValidation,
			"ingredient %s: base unit must be g, ml, or each, got %s", ing.Name, ing.BaseUnit)
	}
	if ing.Type == IngredientComponent && ing.SourceRecipeID == nil {
		return errors.Newf(errors.TypeValidation,
			"component ingredient %s must reference exactly one source recipe", ing.Name)
	}
	if ing.Type != IngredientComponent && ing.SourceRecipeID != nil {
		return errors.Newf(errors.TypeValidation,
			"ingredient %s carries a source recipe but is not component-typed", ing.Name)
	}
	if ing.YieldFactor.IsZero() {
		ing.YieldFactor = decimal.NewFromInt(1)
	}
	g.ingredients[ing.ID] = ing
	return nil
}

// AddRecipe registers or replaces a recipe
func (g *Graph) AddRecipe(r *Recipe) error {
	if r.Name == "" {
		return errors.Validation("recipe name is required")
	}
	if !r.YieldQty.IsPositive() {
		return errors.Newf(errors.TypeValidation, "recipe %s: yield quantity must be positive", r.Name)
	}
	g.recipes[r.ID] = r
	return nil
}

// AddVariant registers a distributor SKU variant
func (g *Graph) AddVariant(v *SKUVariant) error {
	if _, ok := g.distributors[v.DistributorID]; !ok {
		return errors.NotFound("distributor", v.DistributorID.String())
	}
	if v.IngredientID != nil {
		if _, ok := g.ingredients[*v.IngredientID]; !ok {
			return errors.NotFound("ingredient", v.IngredientID.String())
		}
	}
	g.variants[v.ID] = v
	g.reindexVariant(v)
	return nil
}

// MapVariant links a variant to a canonical ingredient
func (g *Graph) MapVariant(variantID, ingredientID uuid.UUID) error {
	v, ok := g.variants[variantID]
	if !ok {
		return errors.NotFound("variant", variantID.String())
	}
	if _, ok := g.ingredients[ingredientID]; !ok {
		return errors.NotFound("ingredient", ingredientID.String())
	}
	if v.IngredientID != nil {
		g.removeVariantIndex(*v.IngredientID, variantID)
	}
	v.IngredientID = &ingredientID
	g.reindexVariant(v)
	return nil
}

// SetVariantConversion supplies the pack-to-base-unit factor for a variant
func (g *Graph) SetVariantConversion(variantID uuid.UUID, baseUnitsPerPack decimal.Decimal) error {
	v, ok := g.variants[variantID]
	if !ok {
		return errors.NotFound("variant", variantID.String())
	}
	if !baseUnitsPerPack.IsPositive() {
		return errors.Validation("base units per pack must be positive")
	}
	v.BaseUnitsPerPack = &baseUnitsPerPack
	return nil
}

// DeactivateVariant marks a variant discontinued; history is retained
func (g *Graph) DeactivateVariant(variantID uuid.UUID) error {
	v, ok := g.variants[variantID]
	if !ok {
		return errors.NotFound("variant", variantID.String())
	}
	v.Active = false
	return nil
}

// Ingredient looks up an ingredient by id
func (g *Graph) Ingredient(id uuid.UUID) (*Ingredient, bool) {
	ing, ok := g.ingredients[id]
	return ing, ok
}

// Recipe looks up a recipe by id
func (g *Graph) Recipe(id uuid.UUID) (*Recipe, bool) {
	r, ok := g.recipes[id]
	return r, ok
}

// Distributor looks up a distributor by id
func (g *Graph) Distributor(id uuid.UUID) (*Distributor, bool) {
	d, ok := g.distributors[id]
	return d, ok
}

// Variant looks up a SKU variant by id
func (g *Graph) Variant(id uuid.UUID) (*SKUVariant, bool) {
	v, ok := g.variants[id]
	return v, ok
}

// ActiveVariants returns the active variants mapped to an ingredient,
// ordered by id for deterministic selection
func (g *Graph) ActiveVariants(ingredientID uuid.UUID) []*SKUVariant {
	ids := g.variantsByIngredient[ingredientID]
	out := make([]*SKUVariant, 0, len(ids))
	for _, id := range ids {
		if v := g.variants[id]; v != nil && v.Active {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}

// AllVariants returns every variant, active or not, ordered by id
func (g *Graph) AllVariants() []*SKUVariant {
	out := make([]*SKUVariant, 0, len(g.variants))
	for _, v := range g.variants {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}

// Ingredients returns all ingredients ordered by category then name
func (g *Graph) Ingredients() []*Ingredient {
	out := make([]*Ingredient, 0, len(g.ingredients))
	for _, ing := range g.ingredients {
		out = append(out, ing)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Recipes returns all active recipes ordered by name
func (g *Graph) Recipes() []*Recipe {
	out := make([]*Recipe, 0, len(g.recipes))
	for _, r := range g.recipes {
		if r.Active {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Exists reports whether a node reference resolves to a known node
func (g *Graph) Exists(ref NodeRef) bool {
	switch ref.Kind {
	case KindRecipe:
		_, ok := g.recipes[ref.ID]
		return ok
	default:
		_, ok := g.ingredients[ref.ID]
		return ok
	}
}

// Dependencies returns the nodes a node directly consumes: recipe lines for
// recipes, the source recipe for components, nothing for raw ingredients.
func (g *Graph) Dependencies(ref NodeRef) []NodeRef {
	switch ref.Kind {
	case KindRecipe:
		r, ok := g.recipes[ref.ID]
		if !ok {
			return nil
		}
		deps := make([]NodeRef, 0, len(r.Lines))
		for _, line := range r.Lines {
			deps = append(deps, line.Node)
		}
		return deps
	case KindComponent:
		ing, ok := g.ingredients[ref.ID]
		if !ok || ing.SourceRecipeID == nil {
			return nil
		}
		return []NodeRef{{Kind: KindRecipe, ID: *ing.SourceRecipeID}}
	default:
		return nil
	}
}

func (g *Graph) reindexVariant(v *SKUVariant) {
	if v.IngredientID == nil {
		return
	}
	for _, id := range g.variantsByIngredient[*v.IngredientID] {
		if id == v.ID {
			return
		}
	}
	g.variantsByIngredient[*v.IngredientID] = append(g.variantsByIngredient[*v.IngredientID], v.ID)
}

func (g *Graph) removeVariantIndex(ingredientID, variantID uuid.UUID) {
	ids := g.variantsByIngredient[ingredientID]
	for i, id := range ids {
		if id == variantID {
			g.variantsByIngredient[ingredientID] = append(ids[:i], ids[i+1:]...)
			return
		}
	}
}
