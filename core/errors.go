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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidProduct indicates a StagedProduct failed validation.
	ErrInvalidProduct = errors.New("invalid staged product")

	// ErrEmptyCode indicates the product code is missing.
	ErrEmptyCode = errors.New("product code cannot be empty")

	// ErrInvalidCodeFormat indicates a code with non-digits or unsupported length.
	ErrInvalidCodeFormat = errors.New("invalid code format")

	// ErrInvalidCheckDigit indicates a code whose check digit does not validate.
	ErrInvalidCheckDigit = errors.New("invalid check digit")

	// ErrInvalidSource indicates an unrecognized product source.
	ErrInvalidSource = errors.New("invalid product source")

	// ErrScoreOutOfRange indicates a quality, popularity, completeness or
	// confidence score outside [0,1].
	ErrScoreOutOfRange = errors.New("score out of range [0,1]")

	// ErrNegativeNutrition indicates a negative nutritional value.
	ErrNegativeNutrition = errors.New("nutritional values cannot be negative")
)
