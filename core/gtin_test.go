package core

import (
	"errors"
	"testing"
)

func TestDetectCodeFormat(t *testing.T) {
	tests := []struct {
		name string
		code string
		want CodeFormat
	}{
		{name: "EAN-8", code: "40123455", want: CodeFormatEAN8},
		{name: "UPC-A", code: "036000291452", want: CodeFormatUPCA},
		{name: "EAN-13", code: "4006381333931", want: CodeFormatEAN13},
		{name: "GTIN-14", code: "10012345678902", want: CodeFormatGTIN14},
		{name: "too short", code: "1234567", want: CodeFormatUnknown},
		{name: "too long", code: "123456789012345", want: CodeFormatUnknown},
		{name: "non-digits", code: "40123A55", want: CodeFormatUnknown},
		{name: "empty", code: "", want: CodeFormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectCodeFormat(tt.code); got != tt.want {
				t.Errorf("DetectCodeFormat(%q) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestValidateCheckDigit(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantErr error
	}{
		// Known-good codes for each format
		{name: "valid EAN-8", code: "40123455", wantErr: nil},
		{name: "valid UPC-A", code: "036000291452", wantErr: nil},
		{name: "valid EAN-13", code: "4006381333931", wantErr: nil},
		{name: "valid GTIN-14", code: "10012345678902", wantErr: nil},
		{name: "bad check digit EAN-8", code: "40123456", wantErr: ErrInvalidCheckDigit},
		{name: "bad check digit EAN-13", code: "4006381333930", wantErr: ErrInvalidCheckDigit},
		{name: "unsupported length", code: "12345", wantErr: ErrInvalidCodeFormat},
		{name: "non-digit code", code: "4006A81333931", wantErr: ErrInvalidCodeFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCheckDigit(tt.code)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateCheckDigit(%q) = %v, want nil", tt.code, err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateCheckDigit(%q) = %v, want %v", tt.code, err, tt.wantErr)
			}
		})
	}
}

func TestValidateCheckDigit_AllZeros(t *testing.T) {
	// All-zero codes are arithmetically valid in every format.
	for _, code := range []string{"00000000", "000000000000", "0000000000000", "00000000000000"} {
		if err := ValidateCheckDigit(code); err != nil {
			t.Errorf("ValidateCheckDigit(%q) = %v, want nil", code, err)
		}
	}
}
