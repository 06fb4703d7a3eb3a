// Package hclcatalog loads a catalog definition (distributors, ingredients,
// SKU variants with price observations, and recipes) from HCL files.
//
// The format is declarative input, not an ingestion pipeline: a file states
// what the catalog contains, and Apply replays it through the engine's
// mutation API so the usual validation and cache invalidation run.
package hclcatalog

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"go.uber.org/zap"

	"kitchen-cost/internal/errors"
	"kitchen-cost/internal/logging"
)

// Document is the decoded contents of one or more catalog HCL files
type Document struct {
	Distributors []DistributorBlock `hcl:"distributor,block"`
	Ingredients  []IngredientBlock  `hcl:"ingredient,block"`
	Recipes      []RecipeBlock      `hcl:"recipe,block"`
}

// DistributorBlock declares a supplier
type DistributorBlock struct {
	Label string `hcl:"label,label"`
	Name  string `hcl:"name"`
}

// IngredientBlock declares a canonical ingredient. Setting source_recipe
// makes it a component backed by that recipe.
type IngredientBlock struct {
	Label        string   `hcl:"label,label"`
	Name         string   `hcl:"name"`
	Category     string   `hcl:"category,optional"`
	BaseUnit     string   `hcl:"base_unit"`
	SourceRecipe *string  `hcl:"source_recipe,optional"`
	YieldFactor  *float64 `hcl:"yield_factor,optional"`
	Notes        string   `hcl:"notes,optional"`

	Variants []VariantBlock `hcl:"variant,block"`
}

// VariantBlock declares one distributor SKU for the enclosing ingredient.
// When base_units_per_pack is omitted the loader tries to derive it from the
// pack description ("36/1LB" style).
type VariantBlock struct {
	Distributor      string   `hcl:"distributor"`
	SKU              string   `hcl:"sku"`
	Description      string   `hcl:"description,optional"`
	PackUnit         string   `hcl:"pack_unit,optional"`
	BaseUnitsPerPack *float64 `hcl:"base_units_per_pack,optional"`
	Inactive         bool     `hcl:"inactive,optional"`

	Prices []PriceBlock `hcl:"price,block"`
}

// PriceBlock is one price observation for the enclosing variant
type PriceBlock struct {
	Cents  int64  `hcl:"cents"`
	Date   string `hcl:"date"`
	Source string `hcl:"source,optional"`
	Ref    string `hcl:"ref,optional"`
}

// RecipeBlock declares a recipe and its lines
type RecipeBlock struct {
	Label            string   `hcl:"label,label"`
	Name             string   `hcl:"name,optional"`
	YieldQty         float64  `hcl:"yield_qty"`
	YieldUnit        string   `hcl:"yield_unit"`
	YieldWeightGrams *float64 `hcl:"yield_weight_grams,optional"`
	Inactive         bool     `hcl:"inactive,optional"`

	Lines []LineBlock `hcl:"line,block"`
}

// LineBlock references a node as "ingredient.<label>" or "recipe.<label>"
type LineBlock struct {
	Node     string  `hcl:"node"`
	Qty      float64 `hcl:"qty"`
	Unit     string  `hcl:"unit"`
	Optional bool    `hcl:"optional,optional"`
	Note     string  `hcl:"note,optional"`
}

// Loader parses catalog HCL files
type Loader struct {
	parser *hclparse.Parser
	log    *zap.Logger
}

// NewLoader creates a loader
func NewLoader() *Loader {
	return &Loader{
		parser: hclparse.NewParser(),
		log:    logging.Named("hclcatalog"),
	}
}

// LoadFile parses a single catalog file
func (l *Loader) LoadFile(path string) (*Document, error) {
	file, diags := l.parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, errors.Parsing("parsing "+path, diags)
	}
	return l.decode(file.Body, path)
}

// LoadDir parses every .hcl file in a directory and merges the documents
func (l *Loader) LoadDir(dir string) (*Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Storage("reading catalog directory", err)
	}

	merged := &Document{}
	found := false
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".hcl") {
			continue
		}
		found = true
		doc, err := l.LoadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		merged.Distributors = append(merged.Distributors, doc.Distributors...)
		merged.Ingredients = append(merged.Ingredients, doc.Ingredients...)
		merged.Recipes = append(merged.Recipes, doc.Recipes...)
	}
	if !found {
		return nil, errors.Newf(errors.TypeParsing, "no .hcl files in %s", dir)
	}
	return merged, nil
}

func (l *Loader) decode(body hcl.Body, path string) (*Document, error) {
	var doc Document
	if diags := gohcl.DecodeBody(body, nil, &doc); diags.HasErrors() {
		return nil, errors.Parsing("decoding "+path, diags)
	}
	l.log.Debug("catalog file decoded",
		zap.String("path", path),
		zap.Int("distributors", len(doc.Distributors)),
		zap.Int("ingredients", len(doc.Ingredients)),
		zap.Int("recipes", len(doc.Recipes)))
	return &doc, nil
}
