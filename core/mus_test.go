package core

import (
	"reflect"
	"testing"
	"time"
)

func TestStagedProductMUS_RoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	product := StagedProduct{
		Id:              IDFromCode("4006381333931"),
		Code:            "4006381333931",
		ProductName:     "Dark Chocolate Bar",
		IngredientsText: "cocoa mass, sugar, cocoa butter, vanilla",
		Tags: TagSets{
			Brands:              []string{"choco co"},
			Categories:          []string{"snacks", "chocolates"},
			IngredientsAnalysis: []string{"en:vegan"},
			Allergens:           []string{"en:soybeans"},
			Labels:              []string{"en:organic"},
		},
		Dietary:           DietaryFlags{Vegan: true, Vegetarian: true, Organic: true},
		Confidence:        ConfidenceScores{Vegan: 0.9, Vegetarian: 0.9, Organic: 0.9},
		DataQualityScore:  0.85,
		PopularityScore:   0.4,
		CompletenessScore: 0.7,
		Nutrition:         &NutritionalInfo{Calories: 540, Sodium: 0.02, Sugar: 46},
		ImageURL:          "https://images.example.org/4006381333931.jpg",
		Source:            SourceOpenFoodFacts,
		LastModified:      now.Add(-48 * time.Hour),
		IngredientsVector: []float32{0.1, -0.2, 0.3},
		NameVector:        []float32{0.4, 0.5, -0.6},
		AllergenVector:    []float32{0, 0.7, 0.8},
		InsertedAt:        now,
		LastUpdated:       now,
	}

	bs := make([]byte, StagedProductMUS.Size(product))
	n := StagedProductMUS.Marshal(product, bs)
	if n != len(bs) {
		t.Fatalf("Marshal wrote %d bytes, Size reported %d", n, len(bs))
	}

	decoded, n, err := StagedProductMUS.Unmarshal(bs)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if n != len(bs) {
		t.Errorf("Unmarshal consumed %d bytes, want %d", n, len(bs))
	}
	if !reflect.DeepEqual(product, decoded) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", decoded, product)
	}
}

func TestStagedProductMUS_ZeroValue(t *testing.T) {
	var product StagedProduct

	bs := make([]byte, StagedProductMUS.Size(product))
	StagedProductMUS.Marshal(product, bs)

	decoded, _, err := StagedProductMUS.Unmarshal(bs)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !reflect.DeepEqual(product, decoded) {
		t.Errorf("round trip mismatch for zero value:\n got %+v\nwant %+v", decoded, product)
	}
}

func TestIDMUS_RoundTrip(t *testing.T) {
	id := IDFromCode("036000291452")
	bs := make([]byte, IDMUS.Size(id))
	IDMUS.Marshal(id, bs)

	decoded, _, err := IDMUS.Unmarshal(bs)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded != id {
		t.Errorf("round trip mismatch: got %d, want %d", decoded, id)
	}
}
