package bulkload

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateVector(t *testing.T) {
	assert.NoError(t, ValidateVector([]float32{1, 2, 3}, 3))

	err := ValidateVector([]float32{1, 2}, 3)
	assert.ErrorIs(t, err, ErrVectorDimension)

	err = ValidateVector([]float32{1, float32(math.NaN()), 3}, 3)
	assert.ErrorIs(t, err, ErrVectorNotFinite)

	err = ValidateVector([]float32{1, float32(math.Inf(1)), 3}, 3)
	assert.ErrorIs(t, err, ErrVectorNotFinite)
}

func TestNormalizeVector(t *testing.T) {
	normalized := NormalizeVector([]float32{3, 4})
	require.Len(t, normalized, 2)
	assert.InDelta(t, 0.6, normalized[0], 1e-6)
	assert.InDelta(t, 0.8, normalized[1], 1e-6)

	var magnitude float64
	for _, v := range normalized {
		magnitude += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, magnitude, 1e-6)
}

func TestNormalizeVector_ZeroVector(t *testing.T) {
	normalized := NormalizeVector([]float32{0, 0, 0})
	assert.Equal(t, []float32{0, 0, 0}, normalized)
}

func TestNormalizeVector_Empty(t *testing.T) {
	assert.Empty(t, NormalizeVector(nil))
}

func TestNormalizeVector_DoesNotModifyInput(t *testing.T) {
	input := []float32{3, 4}
	NormalizeVector(input)
	assert.Equal(t, []float32{3, 4}, input)
}
