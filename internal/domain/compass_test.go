package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompassFromDegrees(t *testing.T) {
	tests := []struct {
		deg      float64
		expected string
	}{
		{0, "N"}, {45, "NE"}, {90, "E"}, {135, "SE"},
		{180, "S"}, {225, "SW"}, {270, "W"}, {315, "NW"},
		{293, "WNW"}, {11, "N"}, {12, "NNE"}, {348, "NNW"},
		{359, "N"}, {360, "N"}, {-90, "W"}, {450, "E"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, CompassFromDegrees(tt.deg), "%.0f degrees", tt.deg)
	}
}

func TestDegreesFromCompass(t *testing.T) {
	t.Run("round trips every point", func(t *testing.T) {
		for _, p := range compassPoints {
			deg, ok := DegreesFromCompass(p)
			require.True(t, ok, p)
			assert.Equal(t, p, CompassFromDegrees(deg))
		}
	})

	t.Run("unrecognized label", func(t *testing.T) {
		_, ok := DegreesFromCompass("NNNE")
		assert.False(t, ok)
	})
}

func TestAngularDistance(t *testing.T) {
	tests := []struct {
		a, b     float64
		expected float64
	}{
		{0, 0, 0}, {0, 180, 180}, {0, 90, 90},
		{350, 10, 20}, {10, 350, 20}, {0, 270, 90},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.expected, angularDistance(tt.a, tt.b), 1e-9, "%g vs %g", tt.a, tt.b)
	}
}
