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

import "fmt"

// CodeFormat identifies the barcode format of a product code.
type CodeFormat int

const (
	// CodeFormatUnknown indicates a code of unsupported length.
	CodeFormatUnknown CodeFormat = iota
	// CodeFormatEAN8 is an 8-digit EAN-8 code.
	CodeFormatEAN8
	// CodeFormatUPCA is a 12-digit UPC-A code.
	CodeFormatUPCA
	// CodeFormatEAN13 is a 13-digit EAN-13 code.
	CodeFormatEAN13
	// CodeFormatGTIN14 is a 14-digit GTIN-14 code.
	CodeFormatGTIN14
)

// String returns the conventional name of the format.
func (f CodeFormat) String() string {
	switch f {
	case CodeFormatEAN8:
		return "EAN-8"
	case CodeFormatUPCA:
		return "UPC-A"
	case CodeFormatEAN13:
		return "EAN-13"
	case CodeFormatGTIN14:
		return "GTIN-14"
	default:
		return "unknown"
	}
}

// DetectCodeFormat determines the barcode format from the code length.
// Returns CodeFormatUnknown if the code contains non-digits or has an
// unsupported length.
func DetectCodeFormat(code string) CodeFormat {
	if !IsDigits(code) {
		return CodeFormatUnknown
	}
	switch len(code) {
	case 8:
		return CodeFormatEAN8
	case 12:
		return CodeFormatUPCA
	case 13:
		return CodeFormatEAN13
	case 14:
		return CodeFormatGTIN14
	default:
		return CodeFormatUnknown
	}
}

// IsDigits reports whether s is non-empty and consists only of ASCII digits.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ValidateCheckDigit validates the trailing check digit of a UPC/EAN/GTIN code.
//
// All supported formats use the GS1 weighted-sum scheme: digits are weighted
// 3,1,3,1,... starting from the digit immediately left of the check digit, and
// the check digit brings the total to a multiple of 10. The alternation differs
// per format only because the formats differ in length.
func ValidateCheckDigit(code string) error {
	format := DetectCodeFormat(code)
	if format == CodeFormatUnknown {
		return fmt.Errorf("%w: %q", ErrInvalidCodeFormat, code)
	}

	sum := 0
	weight := 3
	for i := len(code) - 2; i >= 0; i-- {
		sum += int(code[i]-'0') * weight
		if weight == 3 {
			weight = 1
		} else {
			weight = 3
		}
	}

	want := (10 - sum%10) % 10
	got := int(code[len(code)-1] - '0')
	if want != got {
		return fmt.Errorf("%w: %s code %q expects check digit %d, has %d",
			ErrInvalidCheckDigit, format, code, want, got)
	}
	return nil
}
