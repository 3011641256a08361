// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package validate provides structural and semantic validation of staged
// products. Validation is a pure function over the record: it never mutates
// its input.
package validate

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/poiesic/staple/core"
)

// Field length bounds.
const (
	MaxNameLength        = 500
	MaxIngredientsLength = 10000
	MaxTagLength         = 100
	MaxURLLength         = 2048

	// Below these lengths a warning is emitted; the record still passes.
	shortNameLength        = 3
	shortIngredientsLength = 10
)

// FieldError describes one failed check on one field.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) String() string {
	return e.Field + ": " + e.Message
}

// Result is the outcome of validating one product.
type Result struct {
	IsValid     bool
	FieldErrors []FieldError
	Warnings    []string

	// Scores are echoed back so downstream stages read them from one place.
	DataQualityScore  float64
	CompletenessScore float64
}

// Options controls validation strictness.
type Options struct {
	// Strict promotes check-digit failures from warnings to errors.
	Strict bool
}

// Validate checks a staged product and returns errors, warnings and scores.
// A product with no field errors is valid; warnings never block.
func Validate(p *core.StagedProduct, opts Options) *Result {
	r := &Result{
		DataQualityScore:  p.DataQualityScore,
		CompletenessScore: p.CompletenessScore,
	}

	validateCode(p, opts, r)
	validateTexts(p, r)
	validateTagSets(p, r)
	validateScores(p, r)
	validateSource(p, r)
	validateNutrition(p, r)
	validateImageURL(p, r)
	warnRecommendedFields(p, r)

	r.IsValid = len(r.FieldErrors) == 0
	return r
}

func (r *Result) addError(field, format string, args ...any) {
	r.FieldErrors = append(r.FieldErrors, FieldError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	})
}

func (r *Result) addWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func validateCode(p *core.StagedProduct, opts Options, r *Result) {
	if p.Code == "" {
		r.addError("code", "code is required")
		return
	}
	if !core.IsDigits(p.Code) {
		r.addError("code", "code must contain only digits: %q", p.Code)
		return
	}
	if core.DetectCodeFormat(p.Code) == core.CodeFormatUnknown {
		r.addError("code", "unsupported code length %d", len(p.Code))
		return
	}
	if err := core.ValidateCheckDigit(p.Code); err != nil {
		if opts.Strict {
			r.addError("code", "check digit validation failed: %v", err)
		} else {
			r.addWarning("code %s failed check digit validation", p.Code)
		}
	}
}

func validateTexts(p *core.StagedProduct, r *Result) {
	name := strings.TrimSpace(p.ProductName)
	if name == "" {
		r.addError("productName", "product name is required")
	} else if len(name) > MaxNameLength {
		r.addError("productName", "product name exceeds %d characters", MaxNameLength)
	} else if len(name) < shortNameLength {
		r.addWarning("product name %q is suspiciously short", name)
	}

	ingredients := strings.TrimSpace(p.IngredientsText)
	if ingredients == "" {
		r.addError("ingredientsText", "ingredients text is required")
	} else if len(ingredients) > MaxIngredientsLength {
		r.addError("ingredientsText", "ingredients text exceeds %d characters", MaxIngredientsLength)
	} else if len(ingredients) < shortIngredientsLength {
		r.addWarning("ingredients text %q is suspiciously short", ingredients)
	}
}

func validateTagSets(p *core.StagedProduct, r *Result) {
	for field, tags := range p.Tags.Named() {
		for _, tag := range *tags {
			if strings.TrimSpace(tag) == "" {
				r.addError(field, "contains an empty entry")
				break
			}
			if len(tag) > MaxTagLength {
				r.addError(field, "entry %q exceeds %d characters", tag[:20]+"...", MaxTagLength)
				break
			}
		}
	}
}

func validateScores(p *core.StagedProduct, r *Result) {
	scores := map[string]float64{
		"dataQualityScore":  p.DataQualityScore,
		"popularityScore":   p.PopularityScore,
		"completenessScore": p.CompletenessScore,
	}
	for field, score := range scores {
		if score < 0 || score > 1 {
			r.addError(field, "score %v outside [0,1]", score)
		}
	}

	confidences := map[string]float64{
		"confidence.vegan":      p.Confidence.Vegan,
		"confidence.vegetarian": p.Confidence.Vegetarian,
		"confidence.glutenFree": p.Confidence.GlutenFree,
		"confidence.kosher":     p.Confidence.Kosher,
		"confidence.halal":      p.Confidence.Halal,
		"confidence.organic":    p.Confidence.Organic,
	}
	for field, score := range confidences {
		if score < 0 || score > 1 {
			r.addError(field, "confidence %v outside [0,1]", score)
		}
	}
}

func validateSource(p *core.StagedProduct, r *Result) {
	if !p.Source.IsValid() {
		r.addError("source", "unknown source %d", int(p.Source))
	}
}

func validateNutrition(p *core.StagedProduct, r *Result) {
	n := p.Nutrition
	if n == nil {
		return
	}
	values := map[string]float64{
		"nutrition.calories": n.Calories,
		"nutrition.sodium":   n.Sodium,
		"nutrition.sugar":    n.Sugar,
	}
	for field, v := range values {
		if v < 0 {
			r.addError(field, "value %v cannot be negative", v)
		}
	}
}

func validateImageURL(p *core.StagedProduct, r *Result) {
	if p.ImageURL == "" {
		return
	}
	if len(p.ImageURL) > MaxURLLength {
		r.addError("imageUrl", "url exceeds %d characters", MaxURLLength)
		return
	}
	u, err := url.Parse(p.ImageURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		r.addError("imageUrl", "malformed url %q", p.ImageURL)
	}
}

// warnRecommendedFields emits warnings for missing-but-recommended fields.
func warnRecommendedFields(p *core.StagedProduct, r *Result) {
	if len(p.Tags.Brands) == 0 {
		r.addWarning("no brand information")
	}
	if len(p.Tags.Categories) == 0 {
		r.addWarning("no category information")
	}
	if p.Nutrition == nil {
		r.addWarning("no nutritional information")
	}
	if p.ImageURL == "" {
		r.addWarning("no product image")
	}
}
