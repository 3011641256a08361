package extract

import (
	"strings"
	"time"
)

// Scoring heuristics for freshly extracted records. All results are clamped
// to [0,1].

// dataQualityScore starts from a perfect score and subtracts a fixed penalty
// per declared quality error (-0.1) and warning (-0.05). When the source
// reports its own completeness estimate, the score never drops below it.
func dataQualityScore(rec *Record) float64 {
	score := 1.0
	score -= 0.1 * float64(len(rec.DataQualityErrorsTags))
	score -= 0.05 * float64(len(rec.DataQualityWarningsTags))

	if rec.Completeness > 0 && score < rec.Completeness {
		score = rec.Completeness
	}
	return clamp01(score)
}

// popularityScore combines the dump's popularity tier tags with presence
// signals (image, nutrition) and recency of the last modification.
func popularityScore(rec *Record) float64 {
	score := popularityTierBonus(rec.PopularityTags)

	if rec.ImageURL != "" {
		score += 0.2
	}
	if rec.Nutriments != nil {
		score += 0.2
	}

	if rec.LastModifiedT > 0 {
		age := time.Since(time.Unix(rec.LastModifiedT, 0))
		switch {
		case age < 365*24*time.Hour:
			score += 0.2
		case age < 2*365*24*time.Hour:
			score += 0.1
		}
	}

	return clamp01(score)
}

// popularityTierBonus maps the best popularity tier tag to a base score.
func popularityTierBonus(tags []string) float64 {
	best := 0.0
	for _, tag := range tags {
		var bonus float64
		switch {
		case strings.Contains(tag, "top-5-percent"):
			bonus = 0.4
		case strings.Contains(tag, "top-10-percent"):
			bonus = 0.3
		case strings.Contains(tag, "top-50-percent"):
			bonus = 0.2
		case strings.Contains(tag, "bottom"):
			bonus = 0.05
		}
		if bonus > best {
			best = bonus
		}
	}
	return best
}

// completenessScore is the filled ratio over the ten tracked fields.
func completenessScore(rec *Record) float64 {
	filled := 0
	checks := []bool{
		strings.TrimSpace(rec.Code) != "",
		hasAnyName(rec),
		hasAnyIngredients(rec),
		len(rec.BrandsTags) > 0,
		len(rec.CategoriesTags) > 0,
		len(rec.AllergensTags) > 0 || len(rec.AllergensHierarchy) > 0,
		len(rec.LabelsTags) > 0,
		rec.Nutriments != nil,
		rec.ImageURL != "",
		rec.LastModifiedT > 0,
	}
	for _, ok := range checks {
		if ok {
			filled++
		}
	}
	return float64(filled) / float64(len(checks))
}

func hasAnyName(rec *Record) bool {
	return rec.ProductName != "" || rec.ProductNameEn != "" ||
		rec.ProductNameFr != "" || rec.ProductNameEs != ""
}

func hasAnyIngredients(rec *Record) bool {
	return rec.IngredientsText != "" || rec.IngredientsTextEn != "" ||
		rec.IngredientsTextFr != "" || rec.IngredientsTextEs != ""
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
