package engine

import (
	"strings"

	"kitchen-cost/core/catalog"
)

// FindIngredient resolves a name to an ingredient: exact case-insensitive
// match first, then a unique substring match.
func (e *Engine) FindIngredient(name string) (*catalog.Ingredient, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	needle := strings.ToLower(name)
	var partial *catalog.Ingredient
	ambiguous := false
	for _, ing := range e.graph.Ingredients() {
		lower := strings.ToLower(ing.Name)
		if lower == needle {
			return ing, true
		}
		if strings.Contains(lower, needle) {
			if partial != nil {
				ambiguous = true
			}
			partial = ing
		}
	}
	if partial != nil && !ambiguous {
		return partial, true
	}
	return nil, false
}

// FindNode resolves a name to any priceable node, ingredients before
// recipes. Returns the ref and the node's display name.
func (e *Engine) FindNode(name string) (catalog.NodeRef, string, bool) {
	if ing, ok := e.FindIngredient(name); ok {
		return ing.Ref(), ing.Name, true
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	needle := strings.ToLower(name)
	var partial *catalog.Recipe
	ambiguous := false
	for _, r := range e.graph.Recipes() {
		lower := strings.ToLower(r.Name)
		if lower == needle {
			return r.Ref(), r.Name, true
		}
		if strings.Contains(lower, needle) {
			if partial != nil {
				ambiguous = true
			}
			partial = r
		}
	}
	if partial != nil && !ambiguous {
		return partial.Ref(), partial.Name, true
	}
	return catalog.NodeRef{}, "", false
}

// FindVariantBySKU resolves a distributor SKU code to its variant
func (e *Engine) FindVariantBySKU(sku string) (*catalog.SKUVariant, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, v := range e.graph.AllVariants() {
		if strings.EqualFold(v.SKU, sku) {
			return v, true
		}
	}
	return nil, false
}
