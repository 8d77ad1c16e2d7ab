package integrity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMultiplier_Staircase(t *testing.T) {
	th := DefaultThresholds
	cases := []struct {
		gii  float64
		want float64
	}{
		{1.0, 1.0},
		{0.91, 1.0},
		{0.90, 1.0},
		{0.89, 0.8},
		{0.80, 0.8},
		{0.75, 0.8},
		{0.74, 0.5},
		{0.65, 0.5},
		{0.60, 0.5},
		{0.59, 0},
		{0.55, 0},
		{0.50, 0},
		{0.40, 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, th.Multiplier(tc.gii), "gii=%v", tc.gii)
	}
}

func TestHalted(t *testing.T) {
	th := DefaultThresholds
	assert.True(t, th.Halted(0.40))
	assert.True(t, th.Halted(0.4999))
	assert.False(t, th.Halted(0.50))
	assert.False(t, th.Halted(0.55))
}

func TestBand(t *testing.T) {
	th := DefaultThresholds
	assert.Equal(t, BandHealthy, th.Band(0.95))
	assert.Equal(t, BandWarning, th.Band(0.80))
	assert.Equal(t, BandCritical, th.Band(0.65))
	assert.Equal(t, BandDegraded, th.Band(0.55))
	assert.Equal(t, BandHalted, th.Band(0.30))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(0))
	assert.NoError(t, Validate(1))
	assert.Error(t, Validate(-0.01))
	assert.Error(t, Validate(1.01))
	assert.Error(t, Validate(math.NaN()))
}
