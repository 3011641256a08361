package core

import (
	"encoding/binary"
	"sort"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for staged products.
// It is generated by content-based hashing of the product code.
type ID uint64

// IDFromCode generates a deterministic ID from a product code using BLAKE2b hashing.
// This ensures that identical codes produce identical IDs, which makes bulk
// upserts idempotent.
func IDFromCode(code string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(code))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Source identifies the provenance of a staged product.
type Source int

const (
	// SourceOpenFoodFacts is the Open Food Facts community database.
	SourceOpenFoodFacts Source = iota + 1
	// SourceUSDA is the USDA FoodData Central database.
	SourceUSDA
	// SourceManual is a manually entered record.
	SourceManual
)

// String returns the canonical name of the source.
func (s Source) String() string {
	switch s {
	case SourceOpenFoodFacts:
		return "openfoodfacts"
	case SourceUSDA:
		return "usda"
	case SourceManual:
		return "manual"
	default:
		return "unknown"
	}
}

// ParseSource parses a source name into a Source.
// Returns ErrInvalidSource for unrecognized names.
func ParseSource(name string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "openfoodfacts", "off":
		return SourceOpenFoodFacts, nil
	case "usda":
		return SourceUSDA, nil
	case "manual":
		return SourceManual, nil
	default:
		return 0, ErrInvalidSource
	}
}

// IsValid reports whether the source is a known provenance.
func (s Source) IsValid() bool {
	return s >= SourceOpenFoodFacts && s <= SourceManual
}

// TagSets holds the named tag collections attached to a product.
// Each set is deduplicated, trimmed and case-normalized by the cleaner.
type TagSets struct {
	Brands              []string
	Categories          []string
	Ingredients         []string
	IngredientsAnalysis []string
	Allergens           []string
	AllergensHierarchy  []string
	Traces              []string
	Labels              []string
}

// Named returns the tag sets keyed by field name.
// The returned map points into the receiver; mutations through it are visible.
func (t *TagSets) Named() map[string]*[]string {
	return map[string]*[]string{
		"brands":               &t.Brands,
		"categories":           &t.Categories,
		"ingredients_tags":     &t.Ingredients,
		"ingredients_analysis": &t.IngredientsAnalysis,
		"allergens_tags":       &t.Allergens,
		"allergens_hierarchy":  &t.AllergensHierarchy,
		"traces_tags":          &t.Traces,
		"labels_tags":          &t.Labels,
	}
}

// DietaryFlags holds the derived dietary compliance attributes.
type DietaryFlags struct {
	Vegan      bool
	Vegetarian bool
	GlutenFree bool
	Kosher     bool
	Halal      bool
	Organic    bool
}

// ConfidenceScores holds the per-flag confidence values, each in [0,1].
type ConfidenceScores struct {
	Vegan      float64
	Vegetarian float64
	GlutenFree float64
	Kosher     float64
	Halal      float64
	Organic    float64
}

// Mean returns the average confidence across all flags.
func (c *ConfidenceScores) Mean() float64 {
	return (c.Vegan + c.Vegetarian + c.GlutenFree + c.Kosher + c.Halal + c.Organic) / 6.0
}

// NutritionalInfo holds unit-normalized nutrition values per 100g.
// Sodium is in grams (salt inputs are converted), calories in kcal
// (kJ inputs are converted).
type NutritionalInfo struct {
	Calories float64
	Sodium   float64
	Sugar    float64
}

// StagedProduct is the canonical entity flowing through the pipeline.
// It is created by the extractor from one raw source record, normalized by the
// cleaner, annotated with dietary flags, and finally persisted with embeddings
// attached by the bulk loader.
type StagedProduct struct {
	Id              ID
	Code            string // normalized UPC/EAN/GTIN digit string
	ProductName     string
	IngredientsText string
	Tags            TagSets
	Dietary         DietaryFlags
	Confidence      ConfidenceScores

	DataQualityScore  float64
	PopularityScore   float64
	CompletenessScore float64

	Nutrition *NutritionalInfo
	ImageURL  string
	Source    Source

	// LastModified is the source's own last-modification time, used for
	// recency scoring. Zero when the source does not report one.
	LastModified time.Time

	// Embedding vectors, populated by the bulk loader.
	IngredientsVector []float32
	NameVector        []float32
	AllergenVector    []float32

	InsertedAt  time.Time // when the record was first persisted
	LastUpdated time.Time // when the record was last written
}

// AllergenSummary returns a single line of text describing the product's
// allergens, suitable as input to the embedding model.
func (p *StagedProduct) AllergenSummary() string {
	seen := make(map[string]struct{})
	var names []string
	for _, tag := range append(append([]string{}, p.Tags.Allergens...), p.Tags.AllergensHierarchy...) {
		name := strings.TrimSpace(strings.TrimPrefix(tag, "en:"))
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	if len(names) == 0 {
		return "no known allergens"
	}
	sort.Strings(names)
	return "allergens: " + strings.Join(names, ", ")
}

// HasEmbeddings reports whether all three embedding vectors are attached.
func (p *StagedProduct) HasEmbeddings() bool {
	return len(p.IngredientsVector) > 0 && len(p.NameVector) > 0 && len(p.AllergenVector) > 0
}

// Checkpoint records bulk load progress. It is persisted after every batch
// chunk so an interrupted or abandoned run can be inspected and resumed by an
// operator.
type Checkpoint struct {
	RunID            string
	BatchesCompleted int
	ProductsLoaded   int
	UpdatedAt        time.Time
}
