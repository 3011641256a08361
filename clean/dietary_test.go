package clean

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/staple/core"
)

func product(mutate func(*core.StagedProduct)) *core.StagedProduct {
	p := &core.StagedProduct{
		Code:            "4006381333931",
		ProductName:     "Test Product",
		IngredientsText: "water, sugar",
	}
	if mutate != nil {
		mutate(p)
	}
	return p
}

func TestDeriveCompliance_NegativeEvidenceWins(t *testing.T) {
	// Explicit vegan analysis tag, but milk in the allergens: vegan must
	// resolve false.
	p := product(func(p *core.StagedProduct) {
		p.Tags.IngredientsAnalysis = []string{"en:vegan"}
		p.Tags.Allergens = []string{"en:milk"}
	})

	c := DeriveCompliance(p)
	assert.False(t, c.Flags.Vegan)
	assert.Equal(t, confidenceExplicitNegative, c.Confidence.Vegan)

	// Milk does not contradict vegetarian; the vegan analysis tag implies it.
	assert.True(t, c.Flags.Vegetarian)
	assert.Equal(t, confidenceExplicitPositive, c.Confidence.Vegetarian)
}

func TestDeriveCompliance_KeywordNegative(t *testing.T) {
	p := product(func(p *core.StagedProduct) {
		p.IngredientsText = "wheat flour, water, yeast"
		p.Tags.IngredientsAnalysis = []string{"en:vegan"}
	})

	c := DeriveCompliance(p)
	assert.False(t, c.Flags.GlutenFree)
	assert.Equal(t, confidenceKeywordNegative, c.Confidence.GlutenFree)
	assert.True(t, c.Flags.Vegan, "wheat does not contradict vegan")
}

func TestDeriveCompliance_MultiLanguageKeywords(t *testing.T) {
	fr := product(func(p *core.StagedProduct) {
		p.IngredientsText = "lait écrémé, sucre"
	})
	assert.False(t, DeriveCompliance(fr).Flags.Vegan, "French dairy keyword")

	es := product(func(p *core.StagedProduct) {
		p.IngredientsText = "pollo, sal"
	})
	c := DeriveCompliance(es)
	assert.False(t, c.Flags.Vegan, "Spanish meat keyword")
	assert.False(t, c.Flags.Vegetarian)
}

func TestDeriveCompliance_WordBoundaries(t *testing.T) {
	// "hammer" must not match "ham".
	p := product(func(p *core.StagedProduct) {
		p.IngredientsText = "hammered oats, water"
		p.Tags.IngredientsAnalysis = []string{"en:vegan"}
	})
	assert.True(t, DeriveCompliance(p).Flags.Vegan)
}

func TestDeriveCompliance_AssumedPositives(t *testing.T) {
	// No negative evidence, at least one analysis tag: vegan, vegetarian and
	// gluten-free may be assumed with low confidence.
	p := product(func(p *core.StagedProduct) {
		p.Tags.IngredientsAnalysis = []string{"en:palm-oil-free"}
	})

	c := DeriveCompliance(p)
	assert.True(t, c.Flags.Vegan)
	assert.Equal(t, confidenceAssumedVegan, c.Confidence.Vegan)
	assert.True(t, c.Flags.Vegetarian)
	assert.Equal(t, confidenceAssumedVegetarian, c.Confidence.Vegetarian)
	assert.True(t, c.Flags.GlutenFree)
	assert.Equal(t, confidenceAssumedGlutenFree, c.Confidence.GlutenFree)
}

func TestDeriveCompliance_NoAssumptionWithoutAnalysisTags(t *testing.T) {
	p := product(nil)

	c := DeriveCompliance(p)
	assert.False(t, c.Flags.Vegan)
	assert.Equal(t, 0.0, c.Confidence.Vegan)
	assert.False(t, c.Flags.GlutenFree)
}

func TestDeriveCompliance_CertificationGatedFlags(t *testing.T) {
	// Kosher and halal never resolve true without explicit certification,
	// regardless of how innocent the ingredients look.
	p := product(func(p *core.StagedProduct) {
		p.IngredientsText = "water, salt"
		p.Tags.IngredientsAnalysis = []string{"en:vegan"}
	})

	c := DeriveCompliance(p)
	assert.False(t, c.Flags.Kosher)
	assert.Equal(t, 0.0, c.Confidence.Kosher)
	assert.False(t, c.Flags.Halal)
	assert.False(t, c.Flags.Organic)

	certified := product(func(p *core.StagedProduct) {
		p.Tags.Labels = []string{"en:kosher", "en:halal", "en:organic"}
	})
	cc := DeriveCompliance(certified)
	assert.True(t, cc.Flags.Kosher)
	assert.Equal(t, confidenceExplicitPositive, cc.Confidence.Kosher)
	assert.True(t, cc.Flags.Halal)
	assert.True(t, cc.Flags.Organic)
}

func TestDeriveCompliance_ExplicitNegativeAnalysisTag(t *testing.T) {
	p := product(func(p *core.StagedProduct) {
		p.Tags.IngredientsAnalysis = []string{"en:non-vegan"}
	})

	c := DeriveCompliance(p)
	assert.False(t, c.Flags.Vegan)
	assert.Equal(t, confidenceExplicitNegative, c.Confidence.Vegan)
}

func TestDeriveCompliance_QualityAdjustment(t *testing.T) {
	p := product(func(p *core.StagedProduct) {
		p.DataQualityScore = 0.5
		p.Tags.IngredientsAnalysis = []string{"en:vegan"}
		p.Tags.Labels = []string{"en:organic"}
	})

	c := DeriveCompliance(p)
	// Bonus only, no penalties: quality strictly above the base.
	assert.Greater(t, c.DataQualityScore, 0.5)
	assert.LessOrEqual(t, c.DataQualityScore, 1.0)

	bare := product(func(p *core.StagedProduct) {
		p.DataQualityScore = 0.5
	})
	cb := DeriveCompliance(bare)
	assert.Less(t, cb.DataQualityScore, c.DataQualityScore,
		"missing analysis and label tags must be penalized")
}

func TestDeriveCompliance_RandomInputsScoresInRange(t *testing.T) {
	// Seeded so a failure names a reproducible case.
	rng := rand.New(rand.NewSource(20260824))

	analysisPool := []string{"en:vegan", "en:non-vegan", "en:vegetarian",
		"en:non-vegetarian", "en:palm-oil-free", " EN:Vegan "}
	labelPool := []string{"en:organic", "en:vegan", "en:gluten-free", "en:kosher",
		"en:halal", "fr:ab-agriculture-biologique", "mystery-label"}
	allergenPool := []string{"en:milk", "en:eggs", "en:fish", "en:gluten",
		"en:peanuts", "en:soybeans", "en:crustaceans"}
	wordPool := []string{"water", "sugar", "salt", "beef", "milk", "wheat",
		"gelatin", "rice", "œufs", "tofu", "saumon", "cacao"}

	pickTags := func(pool []string) []string {
		tags := make([]string, rng.Intn(4))
		for i := range tags {
			tags[i] = pool[rng.Intn(len(pool))]
		}
		return tags
	}

	for i := 0; i < 1000; i++ {
		words := make([]string, rng.Intn(6))
		for j := range words {
			words[j] = wordPool[rng.Intn(len(wordPool))]
		}

		p := product(func(p *core.StagedProduct) {
			p.IngredientsText = strings.Join(words, ", ")
			// Deliberately past both ends of the valid range.
			p.DataQualityScore = rng.Float64()*4 - 1
			p.CompletenessScore = rng.Float64()
			p.Tags.IngredientsAnalysis = pickTags(analysisPool)
			p.Tags.Labels = pickTags(labelPool)
			p.Tags.Allergens = pickTags(allergenPool)
			p.Tags.AllergensHierarchy = pickTags(allergenPool)
		})

		c := DeriveCompliance(p)
		for name, score := range map[string]float64{
			"quality":      c.DataQualityScore,
			"completeness": c.CompletenessScore,
			"vegan":        c.Confidence.Vegan,
			"vegetarian":   c.Confidence.Vegetarian,
			"glutenFree":   c.Confidence.GlutenFree,
			"kosher":       c.Confidence.Kosher,
			"halal":        c.Confidence.Halal,
			"organic":      c.Confidence.Organic,
		} {
			require.GreaterOrEqual(t, score, 0.0, "%s score below range at case %d", name, i)
			require.LessOrEqual(t, score, 1.0, "%s score above range at case %d", name, i)
		}
	}
}

func TestDeriveCompliance_ScoresAlwaysInRange(t *testing.T) {
	candidates := []*core.StagedProduct{
		product(func(p *core.StagedProduct) { p.DataQualityScore = 1.0; p.Tags.Labels = []string{"en:vegan"} }),
		product(func(p *core.StagedProduct) { p.DataQualityScore = -0.5 }),
		product(func(p *core.StagedProduct) { p.DataQualityScore = 2.0 }),
		product(func(p *core.StagedProduct) { p.IngredientsText = "" }),
	}

	for _, p := range candidates {
		c := DeriveCompliance(p)
		assert.GreaterOrEqual(t, c.DataQualityScore, 0.0)
		assert.LessOrEqual(t, c.DataQualityScore, 1.0)
		for _, conf := range []float64{
			c.Confidence.Vegan, c.Confidence.Vegetarian, c.Confidence.GlutenFree,
			c.Confidence.Kosher, c.Confidence.Halal, c.Confidence.Organic,
		} {
			assert.GreaterOrEqual(t, conf, 0.0)
			assert.LessOrEqual(t, conf, 1.0)
		}
	}
}
