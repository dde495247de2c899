package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	dErrors "tempus/pkg/domain-errors"
)

func TestValidHours(t *testing.T) {
	valid := []float64{0, 0.25, 0.5, 0.75, 1, 7.5, 8, 23.75, 24}
	for _, h := range valid {
		assert.True(t, ValidHours(h), "%v should be valid", h)
	}

	invalid := []float64{-0.25, -1, 0.1, 0.26, 7.33, 24.25, 100, math.NaN(), math.Inf(1), math.Inf(-1)}
	for _, h := range invalid {
		assert.False(t, ValidHours(h), "%v should be invalid", h)
	}
}

func TestParseHours(t *testing.T) {
	h, err := ParseHours(7.75)
	assert.NoError(t, err)
	assert.Equal(t, 7.75, h)

	_, err = ParseHours(7.8)
	assert.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

// Quarter-hour amounts are exact in float64; summation must not drift.
func TestQuarterHourSummationIsExact(t *testing.T) {
	var total float64
	for i := 0; i < 96; i++ {
		total += 0.25
	}
	assert.Equal(t, 24.0, total)
	assert.Equal(t, 8.0, 3.5+4.5)
}
