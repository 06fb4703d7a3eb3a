package hclcatalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"kitchen-cost/core/catalog"
	"kitchen-cost/core/engine"
	"kitchen-cost/core/pricing"
	"kitchen-cost/core/units"
	"kitchen-cost/internal/errors"
)

// dateLayout is the observation date format in price blocks
const dateLayout = "2006-01-02"

// Label-derived ids are deterministic (UUIDv5 over the label) so the same
// catalog file yields the same node ids on every load. Persisted price
// observations keep pointing at the right variants across restarts.
var (
	nsDistributor = uuid.NewSHA1(uuid.NameSpaceOID, []byte("kitchen-cost/distributor"))
	nsIngredient  = uuid.NewSHA1(uuid.NameSpaceOID, []byte("kitchen-cost/ingredient"))
	nsRecipe      = uuid.NewSHA1(uuid.NameSpaceOID, []byte("kitchen-cost/recipe"))
	nsVariant     = uuid.NewSHA1(uuid.NameSpaceOID, []byte("kitchen-cost/variant"))
)

// registry maps HCL labels to node ids, so blocks can reference each other
// by label before everything is registered
type registry struct {
	distributors map[string]uuid.UUID
	ingredients  map[string]uuid.UUID
	recipes      map[string]uuid.UUID

	// components records which ingredient labels declare source_recipe, so
	// node references resolve to the kind the declaration implies
	components map[string]bool
}

func newRegistry(doc *Document) *registry {
	r := &registry{
		distributors: make(map[string]uuid.UUID),
		ingredients:  make(map[string]uuid.UUID),
		recipes:      make(map[string]uuid.UUID),
		components:   make(map[string]bool),
	}
	for _, d := range doc.Distributors {
		r.distributors[d.Label] = uuid.NewSHA1(nsDistributor, []byte(d.Label))
	}
	for _, i := range doc.Ingredients {
		r.ingredients[i.Label] = uuid.NewSHA1(nsIngredient, []byte(i.Label))
		if i.SourceRecipe != nil {
			r.components[i.Label] = true
		}
	}
	for _, rc := range doc.Recipes {
		r.recipes[rc.Label] = uuid.NewSHA1(nsRecipe, []byte(rc.Label))
	}
	return r
}

// nodeRef resolves a "kind.label" reference from a recipe line
func (r *registry) nodeRef(s string) (catalog.NodeRef, error) {
	kind, label, ok := strings.Cut(s, ".")
	if !ok {
		return catalog.NodeRef{}, errors.Validation("node reference must be kind.label, got " + s)
	}
	switch kind {
	case "ingredient", "component":
		id, ok := r.ingredients[label]
		if !ok {
			return catalog.NodeRef{}, errors.NotFound("ingredient", label)
		}
		// The declaration decides the kind: an ingredient block with
		// source_recipe is a component however the line spells it.
		k := catalog.KindRawIngredient
		if r.components[label] {
			k = catalog.KindComponent
		}
		return catalog.NodeRef{Kind: k, ID: id}, nil
	case "recipe":
		id, ok := r.recipes[label]
		if !ok {
			return catalog.NodeRef{}, errors.NotFound("recipe", label)
		}
		return catalog.NodeRef{Kind: catalog.KindRecipe, ID: id}, nil
	default:
		return catalog.NodeRef{}, errors.Validation("unknown node kind: " + kind)
	}
}

// Apply replays a document into the engine: distributors, recipes,
// ingredients, then variants and their price observations. Recipes go first
// so component ingredients can reference their source recipe.
func Apply(doc *Document, eng *engine.Engine) error {
	reg := newRegistry(doc)

	for _, d := range doc.Distributors {
		if err := eng.AddDistributor(&catalog.Distributor{
			ID:     reg.distributors[d.Label],
			Name:   d.Name,
			Active: true,
		}); err != nil {
			return err
		}
	}

	for _, rc := range doc.Recipes {
		recipe, err := buildRecipe(rc, reg)
		if err != nil {
			return err
		}
		if err := eng.UpsertRecipe(recipe); err != nil {
			return err
		}
	}

	for _, ib := range doc.Ingredients {
		ing, err := buildIngredient(ib, reg)
		if err != nil {
			return err
		}
		if err := eng.UpsertIngredient(ing); err != nil {
			return err
		}
		if err := applyVariants(ib, ing.ID, reg, eng); err != nil {
			return err
		}
	}
	return nil
}

func buildIngredient(ib IngredientBlock, reg *registry) (*catalog.Ingredient, error) {
	base, err := units.Parse(ib.BaseUnit)
	if err != nil {
		return nil, err
	}

	ing := &catalog.Ingredient{
		ID:       reg.ingredients[ib.Label],
		Name:     ib.Name,
		Category: ib.Category,
		BaseUnit: base,
		Type:     catalog.IngredientRaw,
		Notes:    ib.Notes,
	}
	if ib.YieldFactor != nil {
		ing.YieldFactor = decimal.NewFromFloat(*ib.YieldFactor)
	}
	if ib.SourceRecipe != nil {
		srcID, ok := reg.recipes[*ib.SourceRecipe]
		if !ok {
			return nil, errors.NotFound("recipe", *ib.SourceRecipe)
		}
		ing.Type = catalog.IngredientComponent
		ing.SourceRecipeID = &srcID
	}
	return ing, nil
}

func buildRecipe(rc RecipeBlock, reg *registry) (*catalog.Recipe, error) {
	name := rc.Name
	if name == "" {
		name = rc.Label
	}
	recipe := &catalog.Recipe{
		ID:        reg.recipes[rc.Label],
		Name:      name,
		YieldQty:  decimal.NewFromFloat(rc.YieldQty),
		YieldUnit: rc.YieldUnit,
		Active:    !rc.Inactive,
	}
	if rc.YieldWeightGrams != nil {
		w := decimal.NewFromFloat(*rc.YieldWeightGrams)
		recipe.YieldWeightGrams = &w
	}

	for _, lb := range rc.Lines {
		ref, err := reg.nodeRef(lb.Node)
		if err != nil {
			return nil, err
		}
		unit, err := units.Parse(lb.Unit)
		if err != nil {
			return nil, err
		}
		recipe.Lines = append(recipe.Lines, catalog.RecipeLine{
			Node:     ref,
			Quantity: decimal.NewFromFloat(lb.Qty),
			Unit:     unit,
			Optional: lb.Optional,
			Note:     lb.Note,
		})
	}
	return recipe, nil
}

func applyVariants(ib IngredientBlock, ingredientID uuid.UUID, reg *registry, eng *engine.Engine) error {
	for _, vb := range ib.Variants {
		distID, ok := reg.distributors[vb.Distributor]
		if !ok {
			return errors.NotFound("distributor", vb.Distributor)
		}

		ingID := ingredientID
		v := &catalog.SKUVariant{
			ID:            uuid.NewSHA1(nsVariant, []byte(vb.Distributor+"/"+vb.SKU)),
			DistributorID: distID,
			IngredientID:  &ingID,
			SKU:           vb.SKU,
			Description:   vb.Description,
			PackUnit:      vb.PackUnit,
			Active:        !vb.Inactive,
		}
		if factor, ok := conversionFactor(vb); ok {
			v.BaseUnitsPerPack = &factor
		}
		if err := eng.AddVariant(v); err != nil {
			return err
		}

		for _, pb := range vb.Prices {
			date, err := time.Parse(dateLayout, pb.Date)
			if err != nil {
				return errors.Parsing("price date "+pb.Date, err)
			}
			source := pricing.Source(pb.Source)
			if pb.Source == "" {
				source = pricing.SourceCatalog
			}
			if _, err := eng.RecordObservation(pricing.Observation{
				VariantID:     v.ID,
				PriceCents:    pb.Cents,
				EffectiveDate: date,
				Source:        source,
				SourceRef:     pb.Ref,
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

// conversionFactor prefers an explicit base_units_per_pack and otherwise
// derives one from the pack description
func conversionFactor(vb VariantBlock) (decimal.Decimal, bool) {
	if vb.BaseUnitsPerPack != nil {
		return decimal.NewFromFloat(*vb.BaseUnitsPerPack), true
	}
	if pack, ok := units.ParsePack(vb.Description); ok {
		return pack.TotalBaseUnits, true
	}
	return decimal.Zero, false
}
