package extract

import (
	"errors"
	"iter"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/staple/core"
)

const (
	// kcalPerKj converts kilojoules to kilocalories.
	kcalPerKj = 1.0 / 4.184
	// sodiumPerSalt converts salt grams to sodium grams.
	sodiumPerSalt = 1.0 / 2.5
)

// Config holds extraction settings.
type Config struct {
	// RequireCode rejects records without a barcode. Default true.
	RequireCode bool

	// RequireIngredients rejects records without ingredients text. Default true.
	RequireIngredients bool

	// MaxProducts stops extraction after this many products.
	// Zero means no limit.
	MaxProducts int

	// Languages is the preference order for localized name/ingredients
	// fields. The record's generic field is the final fallback.
	// Default: ["en"].
	Languages []string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		RequireCode:        true,
		RequireIngredients: true,
		Languages:          []string{"en"},
	}
}

// Extractor shapes raw dump records into staged products.
type Extractor struct {
	config *Config
	logger *slog.Logger
}

// NewExtractor creates an extractor with the given configuration.
// A nil config uses DefaultConfig.
func NewExtractor(config *Config, logger *slog.Logger) *Extractor {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		config: config,
		logger: logger.With("component", "extractor"),
	}
}

// Extract maps one raw record to a staged product.
// Returns (nil, false) when the record is missing required fields per the
// configuration; partial data is never produced.
func (e *Extractor) Extract(rec *Record) (*core.StagedProduct, bool) {
	if rec == nil {
		return nil, false
	}

	code := strings.TrimSpace(rec.Code)
	if e.config.RequireCode && code == "" {
		return nil, false
	}

	name := e.preferredName(rec)
	ingredients := e.preferredIngredients(rec)
	if e.config.RequireIngredients && strings.TrimSpace(ingredients) == "" {
		return nil, false
	}

	product := &core.StagedProduct{
		Code:            code,
		ProductName:     name,
		IngredientsText: ingredients,
		Tags: core.TagSets{
			Brands:              rec.BrandsTags,
			Categories:          rec.CategoriesTags,
			Ingredients:         rec.IngredientsTags,
			IngredientsAnalysis: rec.IngredientsAnalysisTags,
			Allergens:           rec.AllergensTags,
			AllergensHierarchy:  rec.AllergensHierarchy,
			Traces:              rec.TracesTags,
			Labels:              rec.LabelsTags,
		},
		ImageURL: rec.ImageURL,
		Source:   core.SourceOpenFoodFacts,
	}

	if rec.LastModifiedT > 0 {
		product.LastModified = time.Unix(rec.LastModifiedT, 0).UTC()
	}

	if n := rec.Nutriments; n != nil {
		product.Nutrition = normalizeNutriments(n)
	}

	product.DataQualityScore = dataQualityScore(rec)
	product.PopularityScore = popularityScore(rec)
	product.CompletenessScore = completenessScore(rec)

	return product, true
}

// Tally counts record outcomes over one extraction pass.
type Tally struct {
	// RecordsRead counts records the source produced, malformed ones
	// included.
	RecordsRead int

	// Malformed counts records the source could not decode.
	Malformed int

	// Rejected counts records dropped for missing required fields.
	Rejected int

	// Extracted counts records that produced a staged product.
	Extracted int
}

// Products returns a lazy sequence of staged products extracted from records.
// Malformed records are logged and skipped; a source-level error is yielded
// and ends the sequence. The sequence stops once MaxProducts have been
// produced, and restarts from the beginning on each iteration if the
// underlying record sequence does.
//
// tally, when non-nil, receives the pass's counts. It is reset at the start
// of each iteration, so after a completed pass it describes that pass alone.
func (e *Extractor) Products(records iter.Seq2[*Record, error], tally *Tally) iter.Seq2[*core.StagedProduct, error] {
	return func(yield func(*core.StagedProduct, error) bool) {
		if tally == nil {
			tally = &Tally{}
		}
		*tally = Tally{}
		for rec, err := range records {
			if err != nil {
				if isFatal(err) {
					yield(nil, err)
					return
				}
				tally.RecordsRead++
				tally.Malformed++
				e.logger.Warn("skipping malformed record", "err", err)
				continue
			}
			tally.RecordsRead++

			product, ok := e.Extract(rec)
			if !ok {
				tally.Rejected++
				continue
			}

			if !yield(product, nil) {
				return
			}
			tally.Extracted++
			if e.config.MaxProducts > 0 && tally.Extracted >= e.config.MaxProducts {
				break
			}
		}
		e.logger.Info("extraction pass complete",
			"records", tally.RecordsRead, "malformed", tally.Malformed,
			"produced", tally.Extracted, "rejected", tally.Rejected)
	}
}

// isFatal distinguishes source-level failures from single bad records.
func isFatal(err error) bool {
	return err != nil && !errors.Is(err, ErrMalformedRecord)
}

// preferredName resolves the product name per the language preference,
// falling back to the generic field.
func (e *Extractor) preferredName(rec *Record) string {
	for _, lang := range e.config.Languages {
		if name := strings.TrimSpace(rec.localizedName(lang)); name != "" {
			return name
		}
	}
	return strings.TrimSpace(rec.ProductName)
}

// preferredIngredients resolves the ingredients text per the language
// preference, falling back to the generic field.
func (e *Extractor) preferredIngredients(rec *Record) string {
	for _, lang := range e.config.Languages {
		if text := strings.TrimSpace(rec.localizedIngredients(lang)); text != "" {
			return text
		}
	}
	return strings.TrimSpace(rec.IngredientsText)
}

// normalizeNutriments converts the dump's nutrition fields to the canonical
// units: kcal for energy, grams of sodium for salt/sodium.
func normalizeNutriments(n *Nutriments) *core.NutritionalInfo {
	info := &core.NutritionalInfo{Sugar: n.Sugars100g}

	switch {
	case n.EnergyKcal100g > 0:
		info.Calories = n.EnergyKcal100g
	case n.EnergyKj100g > 0:
		info.Calories = n.EnergyKj100g * kcalPerKj
	}

	switch {
	case n.Sodium100g > 0:
		info.Sodium = n.Sodium100g
	case n.Salt100g > 0:
		info.Sodium = n.Salt100g * sodiumPerSalt
	}

	return info
}
