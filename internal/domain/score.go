package domain

import (
	"fmt"
	"math"
	"time"
)

// ScoringConfig carries the sub-score weights. It is validated once at
// startup and passed explicitly into every scoring call; there is no
// package-level scoring state.
type ScoringConfig struct {
	WaveWeight       float64
	WindWeight       float64
	VisibilityWeight float64
	TideWeight       float64
	TimeWeight       float64
}

// DefaultScoringConfig returns the standard weighting: wave energy
// dominates, then wind, water clarity, tide, and time of day.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		WaveWeight:       0.35,
		WindWeight:       0.25,
		VisibilityWeight: 0.20,
		TideWeight:       0.10,
		TimeWeight:       0.10,
	}
}

// Validate rejects weight sets that are negative or do not sum to 1.0
// within a 0.001 tolerance. A bad weight set is a deployment error, so
// callers treat this as fatal at startup.
func (c ScoringConfig) Validate() error {
	weights := map[string]float64{
		"wave":       c.WaveWeight,
		"wind":       c.WindWeight,
		"visibility": c.VisibilityWeight,
		"tide":       c.TideWeight,
		"time":       c.TimeWeight,
	}
	var sum float64
	for name, w := range weights {
		if w < 0 {
			return fmt.Errorf("scoring weight %s must be non-negative, got %g", name, w)
		}
		sum += w
	}
	if math.Abs(sum-1.0) > 0.001 {
		return fmt.Errorf("scoring weights must sum to 1.0, got %g", sum)
	}
	return nil
}

// Grade is the letter summary of a composite score.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

// UnsafeReason names the safety gate that marked a site not diveable.
type UnsafeReason string

const (
	UnsafeHighSurf   UnsafeReason = "high_surf_warning"
	UnsafeBrownWater UnsafeReason = "brown_water_advisory"
	UnsafeWaveHeight UnsafeReason = "wave_exceedance"
)

// DisplayString returns the reason phrased for report output.
func (r UnsafeReason) DisplayString() string {
	switch r {
	case UnsafeHighSurf:
		return "High surf warning"
	case UnsafeBrownWater:
		return "Brown water advisory"
	case UnsafeWaveHeight:
		return "Surf exceeds site limit"
	default:
		return string(r)
	}
}

// ScoreStatus distinguishes scored sites from gated ones and from sites
// whose data never arrived.
type ScoreStatus string

const (
	StatusOK               ScoreStatus = "ok"
	StatusGated            ScoreStatus = "gated"
	StatusInsufficientData ScoreStatus = "insufficient_data"
)

// SubScores holds the five component scores. A sub-score is unknown when
// its inputs were missing; unknown entries drop out of the weighted sum
// and their weight is redistributed over the rest.
type SubScores struct {
	Wave       Reading `json:"wave"`
	Wind       Reading `json:"wind"`
	Visibility Reading `json:"visibility"`
	Tide       Reading `json:"tide"`
	TimeOfDay  Reading `json:"time_of_day"`
}

// SiteScore is the scored result for one site in one run.
type SiteScore struct {
	Site         Site           `json:"site"`
	WPI          Reading        `json:"wave_power_index"`
	SubScores    SubScores      `json:"sub_scores"`
	Composite    float64        `json:"composite"`
	Grade        Grade          `json:"grade"`
	Diveable     bool           `json:"diveable"`
	UnsafeReason UnsafeReason   `json:"unsafe_reason,omitempty"`
	Status       ScoreStatus    `json:"status"`
	Conditions   SiteConditions `json:"conditions"`
}

// Score evaluates one site against its assembled conditions at the given
// report time.
//
// Safety gates run first, in precedence order: coast-wide high surf
// warning, then site brown water advisory, then wave height above the
// site's safe threshold. A fired gate forces grade F and diveable=false,
// but the composite is still computed and reported so readers can see
// what the day would otherwise have looked like.
//
// Returns a ValidationError when the wave inputs are malformed; callers
// isolate that per site rather than aborting the run.
func Score(site Site, c SiteConditions, cfg ScoringConfig, at time.Time) (SiteScore, error) {
	score := SiteScore{
		Site:       site,
		Conditions: c,
		Status:     StatusOK,
	}

	var subs SubScores
	if c.WaveHeightFt.Known && c.WavePeriodS.Known {
		wpi, err := WavePowerIndex(c.WaveHeightFt.Value, c.WavePeriodS.Value)
		if err != nil {
			return SiteScore{}, fmt.Errorf("score %s: %w", site.ID, err)
		}
		score.WPI = KnownReading(wpi)
		subs.Wave = KnownReading(WaveSubScore(wpi, site.SafeWaveThresholdFt))
	}
	subs.Wind = windSubScore(c.WindSpeedKt, c.WindDirectionDeg, site.Exposure.Primary)
	subs.Visibility = visibilitySubScore(c.DischargeCFS, c.Rainfall48hIn, c.BrownWaterAdvisory)
	subs.Tide = tideSubScore(c.TideState, site.OptimalTide)
	subs.TimeOfDay = KnownReading(timeOfDaySubScore(at.Hour()))
	score.SubScores = subs

	composite, _ := weightedComposite(subs, cfg)
	score.Composite = composite
	if !hasObservation(subs, c) {
		score.Status = StatusInsufficientData
		score.Composite = 0
	}

	switch {
	case c.HighSurfWarning:
		score.UnsafeReason = UnsafeHighSurf
	case c.BrownWaterAdvisory:
		score.UnsafeReason = UnsafeBrownWater
	case c.WaveHeightFt.Known && c.WaveHeightFt.Value > site.SafeWaveThresholdFt:
		score.UnsafeReason = UnsafeWaveHeight
	}

	if score.UnsafeReason != "" {
		score.Status = StatusGated
		score.Diveable = false
		score.Grade = GradeF
		return score, nil
	}

	if score.Status == StatusInsufficientData {
		score.Diveable = false
		score.Grade = GradeF
		return score, nil
	}

	score.Diveable = true
	score.Grade = gradeFor(composite)
	return score, nil
}

// hasObservation reports whether any measured signal backed the scores.
// The time-of-day sub-score comes from the clock and an any-tide
// preference scores without tide data, so neither counts; a report row
// needs at least one real reading behind it.
func hasObservation(subs SubScores, c SiteConditions) bool {
	if subs.Wave.Known || subs.Wind.Known || subs.Visibility.Known {
		return true
	}
	return c.TideState != TideStateUnknown && c.TideState != ""
}

// weightedComposite combines the known sub-scores, renormalizing the
// weights of the known entries to sum 1. Returns the clamped composite
// and how many sub-scores were known.
func weightedComposite(subs SubScores, cfg ScoringConfig) (float64, int) {
	entries := []struct {
		score  Reading
		weight float64
	}{
		{subs.Wave, cfg.WaveWeight},
		{subs.Wind, cfg.WindWeight},
		{subs.Visibility, cfg.VisibilityWeight},
		{subs.Tide, cfg.TideWeight},
		{subs.TimeOfDay, cfg.TimeWeight},
	}

	var sum, weightSum float64
	known := 0
	for _, e := range entries {
		if !e.score.Known {
			continue
		}
		sum += e.score.Value * e.weight
		weightSum += e.weight
		known++
	}
	if known == 0 || weightSum == 0 {
		return 0, 0
	}
	return clamp(sum/weightSum, 0, 100), known
}

const (
	calmWindKt   = 5.0
	strongWindKt = 25.0
)

// windSubScore scales wind speed inversely (5kt or less is full marks,
// 25kt or more is zero) and applies a direction modifier: offshore wind
// earns a bonus up to 1.1x, onshore wind a penalty down to 0.6x. The
// site's primary swell exposure is the onshore reference bearing.
func windSubScore(speedKt, directionDeg Reading, facing string) Reading {
	if !speedKt.Known {
		return Reading{}
	}

	var base float64
	switch {
	case speedKt.Value <= calmWindKt:
		base = 100
	case speedKt.Value >= strongWindKt:
		base = 0
	default:
		base = 100 * (strongWindKt - speedKt.Value) / (strongWindKt - calmWindKt)
	}

	facingDeg, ok := DegreesFromCompass(facing)
	if directionDeg.Known && ok {
		onshore := 1 - angularDistance(directionDeg.Value, facingDeg)/180
		base *= 1.1 - 0.5*onshore
	}
	return KnownReading(clamp(base, 0, 100))
}

const (
	clearDischargeCFS  = 5.0
	turbidDischargeCFS = 50.0
	clearRainfallIn    = 0.1
	turbidRainfallIn   = 2.0
)

// visibilitySubScore estimates water clarity from runoff proxies. Stream
// discharge and 48h rainfall each map linearly onto 0-100; when both are
// available the lower (worse) one wins. An active brown water advisory
// floors the score at 10 even when it is not gating. With no signal at
// all the score is unknown rather than an optimistic default.
func visibilitySubScore(dischargeCFS, rainfall48hIn Reading, brownWater bool) Reading {
	if brownWater {
		return KnownReading(10)
	}

	best := Reading{}
	if dischargeCFS.Known {
		best = KnownReading(inverseLinear(dischargeCFS.Value, clearDischargeCFS, turbidDischargeCFS))
	}
	if rainfall48hIn.Known {
		s := inverseLinear(rainfall48hIn.Value, clearRainfallIn, turbidRainfallIn)
		if !best.Known || s < best.Value {
			best = KnownReading(s)
		}
	}
	return best
}

// inverseLinear maps v onto 100..0 between the clear and turbid knees.
func inverseLinear(v, clear, turbid float64) float64 {
	switch {
	case v <= clear:
		return 100
	case v >= turbid:
		return 0
	default:
		return 100 * (turbid - v) / (turbid - clear)
	}
}

// tideSubScore grades the current tide state against the site's
// preference. "any" always scores full marks. Partial credit follows the
// movement of water toward or away from the preferred state; a mid
// preference wants moving water between the extremes.
func tideSubScore(state TideState, pref TidePreference) Reading {
	if pref == TideAny {
		return KnownReading(100)
	}
	if state == TideStateUnknown || state == "" {
		return Reading{}
	}

	tables := map[TidePreference]map[TideState]float64{
		TideHigh: {TideStateHigh: 100, TideStateRising: 80, TideStateFalling: 60, TideStateLow: 30},
		TideLow:  {TideStateLow: 100, TideStateFalling: 80, TideStateRising: 60, TideStateHigh: 30},
		TideMid:  {TideStateRising: 100, TideStateFalling: 100, TideStateHigh: 50, TideStateLow: 50},
	}
	table, ok := tables[pref]
	if !ok {
		return Reading{}
	}
	v, ok := table[state]
	if !ok {
		return Reading{}
	}
	return KnownReading(v)
}

// timeOfDaySubScore favors early morning dives: winds are lightest and
// visibility best before the trades fill in. Hours are report-local.
func timeOfDaySubScore(hour int) float64 {
	switch {
	case hour >= 5 && hour < 7:
		return 100
	case hour >= 7 && hour < 9:
		return 95
	case hour >= 9 && hour < 11:
		return 80
	case hour >= 11 && hour < 14:
		return 60
	case hour >= 14 && hour < 17:
		return 50
	case hour >= 17 && hour < 19:
		return 70
	default:
		return 40
	}
}

// gradeFor maps a composite score to its letter grade.
func gradeFor(composite float64) Grade {
	switch {
	case composite >= 85:
		return GradeA
	case composite >= 70:
		return GradeB
	case composite >= 55:
		return GradeC
	case composite >= 40:
		return GradeD
	default:
		return GradeF
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
