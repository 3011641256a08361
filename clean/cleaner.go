package clean

import (
	"log/slog"
	"slices"
	"sort"
	"strings"

	"github.com/poiesic/staple/core"
)

const (
	// maxTagLength caps individual tag entries; longer entries are truncated.
	maxTagLength = 100
)

// ChangeSummary reports what Clean touched on a product.
type ChangeSummary struct {
	// FieldsTouched lists the names of fields that changed, sorted.
	FieldsTouched []string

	// DuplicatesRemoved counts tag entries dropped as duplicates or empties.
	DuplicatesRemoved int

	// CharactersNormalized counts repaired or removed characters across all
	// text fields.
	CharactersNormalized int
}

func (s *ChangeSummary) touch(field string) {
	for _, f := range s.FieldsTouched {
		if f == field {
			return
		}
	}
	s.FieldsTouched = append(s.FieldsTouched, field)
	sort.Strings(s.FieldsTouched)
}

// Cleaner normalizes staged products. Safe for concurrent use.
type Cleaner struct {
	logger *slog.Logger
}

// NewCleaner creates a cleaner.
func NewCleaner(logger *slog.Logger) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{logger: logger.With("component", "cleaner")}
}

// Clean returns a normalized copy of the product and a summary of changes.
// The input is never mutated. Cleaning also derives the dietary compliance
// flags, confidences and the adjusted data quality score.
func (c *Cleaner) Clean(p *core.StagedProduct) (*core.StagedProduct, *ChangeSummary) {
	out := *p
	summary := &ChangeSummary{}

	if code := CleanCode(p.Code); code != p.Code {
		out.Code = code
		summary.touch("code")
	}
	out.Id = core.IDFromCode(out.Code)

	if name, changed := normalizeText(p.ProductName); name != p.ProductName {
		out.ProductName = name
		summary.CharactersNormalized += changed
		summary.touch("productName")
	}

	if text, changed := normalizeIngredientsText(p.IngredientsText); text != p.IngredientsText {
		out.IngredientsText = text
		summary.CharactersNormalized += changed
		summary.touch("ingredientsText")
	}

	out.Tags = core.TagSets{}
	srcSets := p.Tags.Named()
	dstSets := out.Tags.Named()
	for field, src := range srcSets {
		cleaned, dropped := CleanTags(*src)
		*dstSets[field] = cleaned
		summary.DuplicatesRemoved += dropped
		if dropped > 0 || !slices.Equal(cleaned, *src) {
			summary.touch(field)
		}
	}

	for _, field := range []string{"allergens_tags", "allergens_hierarchy", "traces_tags"} {
		dst := dstSets[field]
		canonical, changed := canonicalizeAllergens(*dst)
		if changed {
			*dst = canonical
			summary.touch(field)
		}
	}

	if url := CleanImageURL(p.ImageURL); url != p.ImageURL {
		out.ImageURL = url
		summary.touch("imageUrl")
	}

	// Drop empty optional fields.
	if out.Nutrition != nil && *out.Nutrition == (core.NutritionalInfo{}) {
		out.Nutrition = nil
		summary.touch("nutritionalInfo")
	}

	compliance := DeriveCompliance(&out)
	out.Dietary = compliance.Flags
	out.Confidence = compliance.Confidence
	out.DataQualityScore = compliance.DataQualityScore
	out.CompletenessScore = compliance.CompletenessScore

	if len(summary.FieldsTouched) > 0 {
		c.logger.Debug("cleaned product", "code", out.Code,
			"fields", summary.FieldsTouched,
			"duplicatesRemoved", summary.DuplicatesRemoved,
			"charactersNormalized", summary.CharactersNormalized)
	}

	return &out, summary
}

// CleanCode strips non-digit characters from a barcode and zero-pads short
// codes to the nearest standard length (7 digits to EAN-8, 11 to UPC-A).
// Idempotent: CleanCode(CleanCode(s)) == CleanCode(s).
func CleanCode(code string) string {
	var b strings.Builder
	b.Grow(len(code))
	for _, r := range code {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch len(digits) {
	case 7:
		return "0" + digits
	case 11:
		return "0" + digits
	default:
		return digits
	}
}

// CleanTags trims, lowercases, length-caps and deduplicates a tag set,
// preserving first-seen order. Returns the cleaned set and the number of
// entries dropped as empty or duplicate.
func CleanTags(tags []string) ([]string, int) {
	if len(tags) == 0 {
		return nil, 0
	}

	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	dropped := 0
	for _, tag := range tags {
		cleaned := strings.ToLower(strings.TrimSpace(tag))
		if len(cleaned) > maxTagLength {
			cleaned = cleaned[:maxTagLength]
		}
		if cleaned == "" {
			dropped++
			continue
		}
		if _, ok := seen[cleaned]; ok {
			dropped++
			continue
		}
		seen[cleaned] = struct{}{}
		out = append(out, cleaned)
	}
	if len(out) == 0 {
		return nil, dropped
	}
	return out, dropped
}

// canonicalizeAllergens maps every entry through the synonym table,
// deduplicating the results.
func canonicalizeAllergens(tags []string) ([]string, bool) {
	if len(tags) == 0 {
		return tags, false
	}

	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	changed := false
	for _, tag := range tags {
		canonical := CanonicalAllergen(tag)
		if canonical != tag {
			changed = true
		}
		if canonical == "" {
			continue
		}
		if _, ok := seen[canonical]; ok {
			changed = true
			continue
		}
		seen[canonical] = struct{}{}
		out = append(out, canonical)
	}
	return out, changed
}

// CleanImageURL forces HTTPS and collapses duplicate slashes in the path.
func CleanImageURL(url string) string {
	url = strings.TrimSpace(url)
	if url == "" {
		return ""
	}

	if strings.HasPrefix(url, "http://") {
		url = "https://" + url[len("http://"):]
	}

	scheme := ""
	rest := url
	if idx := strings.Index(url, "://"); idx >= 0 {
		scheme = url[:idx+3]
		rest = url[idx+3:]
	}
	for strings.Contains(rest, "//") {
		rest = strings.ReplaceAll(rest, "//", "/")
	}
	return scheme + rest
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
