package clean

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/poiesic/staple/core"
)

// Confidence levels for the dietary rule engine.
const (
	// confidenceExplicitPositive applies to explicit analysis or
	// certification tag matches.
	confidenceExplicitPositive = 0.9
	// confidenceExplicitNegative applies to explicit negative tag matches,
	// including allergen tags that contradict a flag.
	confidenceExplicitNegative = 0.8
	// confidenceKeywordNegative applies to ingredient-text keyword matches.
	confidenceKeywordNegative = 0.7

	// Assumed-positive confidences. Vegan, vegetarian and gluten-free may be
	// assumed when no negative evidence exists and the product carries at
	// least one analysis tag. Kosher, halal and organic are never assumed:
	// they are certification-gated claims, not inferable from ingredients.
	confidenceAssumedVegan      = 0.3
	confidenceAssumedVegetarian = 0.35
	confidenceAssumedGlutenFree = 0.4
)

// Quality adjustments applied after flag derivation.
const (
	qualityConfidenceBonus   = 0.2
	qualityNoAnalysisPenalty = 0.9
	qualityNoLabelsPenalty   = 0.95
)

// Compliance is the result of dietary flag derivation.
type Compliance struct {
	Flags      core.DietaryFlags
	Confidence core.ConfidenceScores

	// DataQualityScore is the product's quality score after the
	// confidence bonus and tag-coverage penalties.
	DataQualityScore float64

	// CompletenessScore is carried through unchanged; flag derivation adds
	// no new source fields.
	CompletenessScore float64
}

// finding is one resolved flag: value, confidence, and whether any evidence
// existed at all.
type finding struct {
	value      bool
	confidence float64
}

// DeriveCompliance derives the dietary flags and confidences for a product.
//
// Each flag checks three evidence sources in priority order: explicit
// ingredient-analysis tags, certification/label tags, and an ingredient-text
// keyword scan. Negative evidence from any source overrides positive evidence
// from any other.
func DeriveCompliance(p *core.StagedProduct) Compliance {
	analysis := lowered(p.Tags.IngredientsAnalysis)
	labels := lowered(p.Tags.Labels)
	allergens := lowered(append(append([]string{}, p.Tags.Allergens...), p.Tags.AllergensHierarchy...))
	text := strings.ToLower(p.IngredientsText)

	hasAnalysis := len(analysis) > 0

	vegan := deriveFlag(flagEvidence{
		analysisPositive:  hasAny(analysis, "en:vegan"),
		analysisNegative:  hasAny(analysis, "en:non-vegan"),
		labelPositive:     hasAny(labels, "en:vegan", "en:certified-vegan"),
		allergenNegative:  hasAny(allergens, "en:milk", "en:eggs", "en:fish", "en:crustaceans", "en:molluscs"),
		keywordNegative:   containsAnyWord(text, meatIngredients) || containsAnyWord(text, animalDerivedIngredients),
		assumable:         hasAnalysis,
		assumedConfidence: confidenceAssumedVegan,
	})

	vegetarian := deriveFlag(flagEvidence{
		// A vegan analysis tag implies vegetarian.
		analysisPositive:  hasAny(analysis, "en:vegetarian", "en:vegan"),
		analysisNegative:  hasAny(analysis, "en:non-vegetarian", "en:non-vegan"),
		labelPositive:     hasAny(labels, "en:vegetarian", "en:vegan"),
		allergenNegative:  hasAny(allergens, "en:fish", "en:crustaceans", "en:molluscs"),
		keywordNegative:   containsAnyWord(text, meatIngredients),
		assumable:         hasAnalysis,
		assumedConfidence: confidenceAssumedVegetarian,
	})

	glutenFree := deriveFlag(flagEvidence{
		labelPositive:     hasAny(labels, "en:gluten-free", "en:no-gluten"),
		allergenNegative:  hasAny(allergens, "en:gluten"),
		keywordNegative:   containsAnyWord(text, glutenIngredients),
		assumable:         hasAnalysis,
		assumedConfidence: confidenceAssumedGlutenFree,
	})

	kosher := deriveFlag(flagEvidence{
		labelPositive: hasAny(labels, "en:kosher", "en:kosher-certified", "en:kosher-parve"),
	})

	halal := deriveFlag(flagEvidence{
		labelPositive: hasAny(labels, "en:halal", "en:halal-certified"),
	})

	organic := deriveFlag(flagEvidence{
		labelPositive: hasAny(labels, "en:organic", "en:eu-organic", "en:usda-organic",
			"fr:ab-agriculture-biologique"),
	})

	flags := core.DietaryFlags{
		Vegan:      vegan.value,
		Vegetarian: vegetarian.value,
		GlutenFree: glutenFree.value,
		Kosher:     kosher.value,
		Halal:      halal.value,
		Organic:    organic.value,
	}
	confidence := core.ConfidenceScores{
		Vegan:      vegan.confidence,
		Vegetarian: vegetarian.confidence,
		GlutenFree: glutenFree.confidence,
		Kosher:     kosher.confidence,
		Halal:      halal.confidence,
		Organic:    organic.confidence,
	}

	quality := p.DataQualityScore + qualityConfidenceBonus*confidence.Mean()
	if len(p.Tags.IngredientsAnalysis) == 0 {
		quality *= qualityNoAnalysisPenalty
	}
	if len(p.Tags.Labels) == 0 {
		quality *= qualityNoLabelsPenalty
	}

	return Compliance{
		Flags:             flags,
		Confidence:        confidence,
		DataQualityScore:  clampScore(quality),
		CompletenessScore: p.CompletenessScore,
	}
}

// flagEvidence collects the evidence for one flag across the three sources.
type flagEvidence struct {
	analysisPositive bool
	analysisNegative bool
	labelPositive    bool
	allergenNegative bool
	keywordNegative  bool

	assumable         bool
	assumedConfidence float64
}

// deriveFlag resolves evidence into a flag value and confidence.
// Negative evidence always wins over positive evidence.
func deriveFlag(ev flagEvidence) finding {
	switch {
	case ev.analysisNegative, ev.allergenNegative:
		return finding{value: false, confidence: confidenceExplicitNegative}
	case ev.keywordNegative:
		return finding{value: false, confidence: confidenceKeywordNegative}
	case ev.analysisPositive, ev.labelPositive:
		return finding{value: true, confidence: confidenceExplicitPositive}
	case ev.assumable:
		return finding{value: true, confidence: ev.assumedConfidence}
	default:
		return finding{value: false, confidence: 0}
	}
}

func lowered(tags []string) []string {
	out := make([]string, len(tags))
	for i, tag := range tags {
		out[i] = strings.ToLower(strings.TrimSpace(tag))
	}
	return out
}

func hasAny(tags []string, wanted ...string) bool {
	for _, tag := range tags {
		for _, w := range wanted {
			if tag == w {
				return true
			}
		}
	}
	return false
}

// containsAnyWord reports whether any keyword occurs word-bounded in text.
// text must already be lowercase.
func containsAnyWord(text string, keywords []string) bool {
	for _, kw := range keywords {
		if containsWord(text, kw) {
			return true
		}
	}
	return false
}

func containsWord(text, word string) bool {
	for start := 0; ; {
		idx := strings.Index(text[start:], word)
		if idx < 0 {
			return false
		}
		idx += start

		before, _ := utf8.DecodeLastRuneInString(text[:idx])
		after, _ := utf8.DecodeRuneInString(text[idx+len(word):])
		if !isWordRune(before) && !isWordRune(after) {
			return true
		}
		start = idx + len(word)
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
