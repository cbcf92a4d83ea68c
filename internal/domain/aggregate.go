package domain

import "time"

// Assemble resolves one site's assigned stations against the fetched
// source bundle and produces the conditions snapshot the scorer consumes.
// Absent or stale readings become unknown fields, never zeros. Wave data
// prefers the assigned buoy and falls back to the nearshore model; with
// neither, the wave fields stay unknown.
func Assemble(site Site, src RawSources, fresh Freshness) SiteConditions {
	now := clock.Now()
	c := SiteConditions{
		SiteID:     site.ID,
		WaveSource: WaveSourceNone,
		TideState:  TideStateUnknown,
		FetchedAt:  src.FetchedAt,
	}

	if obs, ok := src.Buoys[site.NearestBuoy]; ok && obs.HeightFt.Known && withinAge(now, obs.ObservedAt, fresh.Buoy) {
		c.WaveHeightFt = obs.HeightFt
		c.WavePeriodS = obs.PeriodS
		c.WaveDirectionDeg = obs.DirectionDeg
		c.WaveSource = WaveSourceBuoy
	} else if mw, ok := src.ModelWaves[site.ID]; ok && mw.HeightFt.Known && withinAge(now, mw.SampledAt, fresh.ModelWave) {
		c.WaveHeightFt = mw.HeightFt
		c.WavePeriodS = mw.PeriodS
		c.WaveDirectionDeg = mw.DirectionDeg
		c.WaveSource = WaveSourceModel
	}

	if w, ok := src.Winds[site.ID]; ok && withinAge(now, w.ForecastAt, fresh.Wind) {
		c.WindSpeedKt = w.SpeedKt
		c.WindDirectionDeg = w.DirectionDeg
	}

	if t, ok := src.Tides[site.NearestTideStation]; ok && withinAge(now, t.PredictedAt, fresh.Tide) {
		c.TideState = t.State
		c.NextTide = t.Next
		c.NextHighTide = t.NextHigh
		c.NextLowTide = t.NextLow
	}

	if site.NearestStreamgage != "" {
		if d, ok := src.Discharges[site.NearestStreamgage]; ok && withinAge(now, d.ObservedAt, fresh.Discharge) {
			c.DischargeCFS = d.CFS
		}
		if r, ok := src.Rainfall[site.NearestStreamgage]; ok && withinAge(now, r.ObservedAt, fresh.Rainfall) {
			c.Rainfall48hIn = r.TotalIn
		}
	}

	c.BrownWaterAdvisory = src.Advisories.BrownWaterSites[site.ID]
	c.HighSurfWarning = src.Advisories.HighSurfCoasts[site.Coast]

	return c
}

// withinAge reports whether a reading observed at t is younger than maxAge.
// A zero maxAge disables the check; a zero observation time fails it.
func withinAge(now, t time.Time, maxAge time.Duration) bool {
	if maxAge == 0 {
		return true
	}
	if t.IsZero() {
		return false
	}
	return now.Sub(t) <= maxAge
}
