package domain

import (
	"fmt"
	"math"
)

// ValidationError reports a malformed numeric input to a scoring
// computation. Bad data fails loudly rather than clamping into a
// plausible-looking score.
type ValidationError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got %g)", e.Field, e.Reason, e.Value)
}

const (
	// calmWPI is the wave power index at or below which conditions count
	// as flat and score full marks.
	calmWPI = 5.0

	// representativePeriodS converts a site's height threshold into a WPI
	// ceiling. Open-ocean swell around Oahu runs 8-14s; 10s is the
	// midpoint used for threshold scaling.
	representativePeriodS = 10.0
)

// WavePowerIndex computes height squared times period, the height-dominant
// proxy for the energy a diver feels on entry. A 3ft short-period wind
// chop and a 3ft long-period ground swell differ exactly by the period
// factor.
func WavePowerIndex(heightFt, periodS float64) (float64, error) {
	switch {
	case math.IsNaN(heightFt) || math.IsInf(heightFt, 0):
		return 0, &ValidationError{Field: "wave_height_ft", Value: heightFt, Reason: "must be a finite number"}
	case math.IsNaN(periodS) || math.IsInf(periodS, 0):
		return 0, &ValidationError{Field: "wave_period_s", Value: periodS, Reason: "must be a finite number"}
	case heightFt < 0:
		return 0, &ValidationError{Field: "wave_height_ft", Value: heightFt, Reason: "must be non-negative"}
	case periodS <= 0:
		return 0, &ValidationError{Field: "wave_period_s", Value: periodS, Reason: "must be positive"}
	}
	return heightFt * heightFt * periodS, nil
}

// WaveSubScore maps a wave power index onto 0-100 against a site's safe
// wave threshold. The ceiling scales with the threshold
// (threshold squared times a representative period), so a site rated for
// 8ft surf is not penalized by the same raw WPI as a site rated for 3ft.
func WaveSubScore(wpi, thresholdFt float64) float64 {
	ceiling := thresholdFt * thresholdFt * representativePeriodS
	if wpi >= ceiling {
		return 0
	}
	if wpi <= calmWPI {
		return 100
	}
	return 100 * (ceiling - wpi) / (ceiling - calmWPI)
}
