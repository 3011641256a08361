package clean

import "strings"

// allergenSynonyms maps English, French and Spanish allergen names to the
// canonical en:-prefixed tokens used across the tag sets. Keys are matched
// after lowercasing and locale-prefix stripping.
var allergenSynonyms = map[string]string{
	// milk
	"milk":              "en:milk",
	"dairy":             "en:milk",
	"lactose":           "en:milk",
	"lait":              "en:milk",
	"produits laitiers": "en:milk",
	"leche":             "en:milk",
	"lacteos":           "en:milk",
	"lácteos":           "en:milk",

	// eggs
	"egg":    "en:eggs",
	"eggs":   "en:eggs",
	"oeuf":   "en:eggs",
	"oeufs":  "en:eggs",
	"œuf":    "en:eggs",
	"œufs":   "en:eggs",
	"huevo":  "en:eggs",
	"huevos": "en:eggs",

	// gluten
	"gluten": "en:gluten",
	"wheat":  "en:gluten",
	"blé":    "en:gluten",
	"ble":    "en:gluten",
	"trigo":  "en:gluten",

	// nuts
	"nuts":           "en:nuts",
	"tree nuts":      "en:nuts",
	"fruits à coque": "en:nuts",
	"frutos secos":   "en:nuts",

	// peanuts
	"peanut":     "en:peanuts",
	"peanuts":    "en:peanuts",
	"arachide":   "en:peanuts",
	"arachides":  "en:peanuts",
	"cacahuete":  "en:peanuts",
	"cacahuetes": "en:peanuts",
	"cacahuète":  "en:peanuts",

	// soy
	"soy":      "en:soybeans",
	"soya":     "en:soybeans",
	"soybeans": "en:soybeans",
	"soja":     "en:soybeans",

	// fish
	"fish":    "en:fish",
	"poisson": "en:fish",
	"pescado": "en:fish",

	// crustaceans
	"shellfish":   "en:crustaceans",
	"crustaceans": "en:crustaceans",
	"crustacés":   "en:crustaceans",
	"crustaces":   "en:crustaceans",
	"crustaceos":  "en:crustaceans",
	"crustáceos":  "en:crustaceans",

	// molluscs
	"molluscs":   "en:molluscs",
	"mollusks":   "en:molluscs",
	"mollusques": "en:molluscs",
	"moluscos":   "en:molluscs",

	// sesame
	"sesame": "en:sesame-seeds",
	"sésame": "en:sesame-seeds",
	"sesamo": "en:sesame-seeds",
	"sésamo": "en:sesame-seeds",

	// celery
	"celery": "en:celery",
	"céleri": "en:celery",
	"celeri": "en:celery",
	"apio":   "en:celery",

	// mustard
	"mustard":  "en:mustard",
	"moutarde": "en:mustard",
	"mostaza":  "en:mustard",

	// sulphites
	"sulphites": "en:sulphur-dioxide-and-sulphites",
	"sulfites":  "en:sulphur-dioxide-and-sulphites",
	"sulfitos":  "en:sulphur-dioxide-and-sulphites",

	// lupin
	"lupin":    "en:lupin",
	"altramuz": "en:lupin",
}

// localePrefixes are the tag locale prefixes recognized before synonym lookup.
var localePrefixes = []string{"en:", "fr:", "es:"}

// CanonicalAllergen maps an allergen name or tag to its canonical en: token.
// Unrecognized names are returned lowercased with an en: prefix so that all
// entries in an allergen set share one namespace.
func CanonicalAllergen(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	if s == "" {
		return ""
	}

	for _, prefix := range localePrefixes {
		if strings.HasPrefix(s, prefix) {
			s = s[len(prefix):]
			break
		}
	}

	if canonical, ok := allergenSynonyms[s]; ok {
		return canonical
	}
	return "en:" + s
}
