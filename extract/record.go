package extract

// Record is one raw product entry from an Open Food Facts style dump.
//
// The schema is deliberately typed rather than decoded into map[string]any:
// unknown fields are dropped at decode time and the mapping into
// core.StagedProduct works from known fields only.
type Record struct {
	Code string `json:"code"`

	ProductName   string `json:"product_name"`
	ProductNameEn string `json:"product_name_en"`
	ProductNameFr string `json:"product_name_fr"`
	ProductNameEs string `json:"product_name_es"`

	IngredientsText   string `json:"ingredients_text"`
	IngredientsTextEn string `json:"ingredients_text_en"`
	IngredientsTextFr string `json:"ingredients_text_fr"`
	IngredientsTextEs string `json:"ingredients_text_es"`

	BrandsTags              []string `json:"brands_tags"`
	CategoriesTags          []string `json:"categories_tags"`
	IngredientsTags         []string `json:"ingredients_tags"`
	IngredientsAnalysisTags []string `json:"ingredients_analysis_tags"`
	AllergensTags           []string `json:"allergens_tags"`
	AllergensHierarchy      []string `json:"allergens_hierarchy"`
	TracesTags              []string `json:"traces_tags"`
	LabelsTags              []string `json:"labels_tags"`

	DataQualityErrorsTags   []string `json:"data_quality_errors_tags"`
	DataQualityWarningsTags []string `json:"data_quality_warnings_tags"`
	PopularityTags          []string `json:"popularity_tags"`

	// Completeness is the source's own completeness estimate in [0,1],
	// 0 when absent.
	Completeness float64 `json:"completeness"`

	Nutriments *Nutriments `json:"nutriments"`

	ImageURL string `json:"image_url"`

	// LastModifiedT is a unix timestamp, 0 when absent.
	LastModifiedT int64 `json:"last_modified_t"`
}

// Nutriments carries the per-100g nutrition values as the dump reports them.
// Energy may be given in kcal or kJ, and sodium directly or as salt.
type Nutriments struct {
	EnergyKcal100g float64 `json:"energy-kcal_100g"`
	EnergyKj100g   float64 `json:"energy_100g"`
	Sodium100g     float64 `json:"sodium_100g"`
	Salt100g       float64 `json:"salt_100g"`
	Sugars100g     float64 `json:"sugars_100g"`
}

// localizedName returns the product name for the given language code, or ""
// when the record has no name in that language.
func (r *Record) localizedName(lang string) string {
	switch lang {
	case "en":
		return r.ProductNameEn
	case "fr":
		return r.ProductNameFr
	case "es":
		return r.ProductNameEs
	default:
		return ""
	}
}

// localizedIngredients returns the ingredients text for the given language
// code, or "" when the record has no ingredients text in that language.
func (r *Record) localizedIngredients(lang string) string {
	switch lang {
	case "en":
		return r.IngredientsTextEn
	case "fr":
		return r.IngredientsTextFr
	case "es":
		return r.IngredientsTextEs
	default:
		return ""
	}
}
