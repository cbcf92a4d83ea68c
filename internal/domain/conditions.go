package domain

import "time"

// Reading is a numeric observation that may be absent. The zero value is
// unknown. Missing data stays distinguishable from a measured zero, so a
// dead sensor never scores like a flat ocean.
type Reading struct {
	Value float64 `json:"value"`
	Known bool    `json:"known"`
}

// KnownReading wraps a measured value.
func KnownReading(v float64) Reading {
	return Reading{Value: v, Known: true}
}

// WaveSource records which feed supplied a site's wave numbers.
type WaveSource string

const (
	WaveSourceBuoy  WaveSource = "buoy"
	WaveSourceModel WaveSource = "model"
	WaveSourceNone  WaveSource = "none"
)

// TideState is the phase of the tide at report time.
type TideState string

const (
	TideStateHigh    TideState = "high"
	TideStateLow     TideState = "low"
	TideStateRising  TideState = "rising"
	TideStateFalling TideState = "falling"
	TideStateUnknown TideState = "unknown"
)

// TideEventType distinguishes predicted extremes in the CO-OPS hilo series.
type TideEventType string

const (
	TideEventHigh TideEventType = "H"
	TideEventLow  TideEventType = "L"
)

// TideEvent is one predicted tide extreme.
type TideEvent struct {
	Time     time.Time     `json:"time"`
	Type     TideEventType `json:"type"`
	HeightFt float64       `json:"height_ft"`
}

// SiteConditions is the assembled reading bundle for one site at one run.
// Built by Assemble, consumed read-only by Score, never persisted.
type SiteConditions struct {
	SiteID             string     `json:"site_id"`
	WaveHeightFt       Reading    `json:"wave_height_ft"`
	WavePeriodS        Reading    `json:"wave_period_s"`
	WaveDirectionDeg   Reading    `json:"wave_direction_deg"`
	WaveSource         WaveSource `json:"wave_source"`
	WindSpeedKt        Reading    `json:"wind_speed_kt"`
	WindDirectionDeg   Reading    `json:"wind_direction_deg"`
	TideState          TideState  `json:"tide_state"`
	NextTide           *TideEvent `json:"next_tide,omitempty"`
	NextHighTide       *TideEvent `json:"next_high_tide,omitempty"`
	NextLowTide        *TideEvent `json:"next_low_tide,omitempty"`
	DischargeCFS       Reading    `json:"discharge_cfs"`
	Rainfall48hIn      Reading    `json:"rainfall_48h_in"`
	BrownWaterAdvisory bool       `json:"brown_water_advisory"`
	HighSurfWarning    bool       `json:"high_surf_warning"`
	FetchedAt          time.Time  `json:"fetched_at"`
}

// BuoyObservation is the latest wave report from an NDBC buoy, spectral
// file preferred with the standard met file as fallback.
type BuoyObservation struct {
	StationID    string
	HeightFt     Reading
	PeriodS      Reading
	DirectionDeg Reading
	ObservedAt   time.Time
}

// ModelWave is a nearshore SWAN model sample at a site's coordinates, used
// when the assigned buoy is offline.
type ModelWave struct {
	SiteID       string
	HeightFt     Reading
	PeriodS      Reading
	DirectionDeg Reading
	SampledAt    time.Time
}

// WindForecast is the hourly wind forecast for a site's grid point.
type WindForecast struct {
	SiteID       string
	SpeedKt      Reading
	DirectionDeg Reading
	ForecastAt   time.Time
}

// TideObservation bundles the derived tide state and upcoming extremes for
// a CO-OPS station.
type TideObservation struct {
	StationID   string
	State       TideState
	Next        *TideEvent
	Previous    *TideEvent
	NextHigh    *TideEvent
	NextLow     *TideEvent
	PredictedAt time.Time
}

// DischargeReading is the latest instantaneous streamflow at a USGS gage.
type DischargeReading struct {
	StationID  string
	CFS        Reading
	ObservedAt time.Time
}

// RainfallReading is accumulated precipitation at a USGS gage over the
// trailing window.
type RainfallReading struct {
	StationID   string
	TotalIn     Reading
	WindowHours int
	ObservedAt  time.Time
}

// MarineAlert is one active marine hazard product, kept for report and
// digest display. Gate decisions use AdvisorySet's lookup maps, not this.
type MarineAlert struct {
	Event    string    `json:"event"`
	Headline string    `json:"headline,omitempty"`
	Areas    []string  `json:"areas,omitempty"`
	Severity string    `json:"severity,omitempty"`
	Expires  time.Time `json:"expires,omitempty"`
}

// AdvisorySet carries active hazard advisories keyed for direct lookup.
// Brown water advisories attach to individual sites; high surf warnings
// cover whole coasts.
type AdvisorySet struct {
	BrownWaterSites map[string]bool
	HighSurfCoasts  map[Coast]bool
	Marine          []MarineAlert
	IssuedAt        time.Time
}

// RawSources is everything the fetch layer gathered in one refresh cycle,
// keyed so the aggregator resolves a site's assigned stations without I/O.
// Any map may be nil when its source failed; the aggregator degrades those
// fields to unknown.
type RawSources struct {
	Buoys      map[string]BuoyObservation  // by NDBC station ID
	ModelWaves map[string]ModelWave        // by site ID
	Winds      map[string]WindForecast     // by site ID
	Tides      map[string]TideObservation  // by CO-OPS station ID
	Discharges map[string]DischargeReading // by USGS gage ID
	Rainfall   map[string]RainfallReading  // by USGS gage ID
	Advisories AdvisorySet
	FetchedAt  time.Time
}

// SourceStatus records one upstream source's outcome while gathering a
// RawSources bundle.
type SourceStatus struct {
	Source string `json:"source"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}

// Freshness bounds how old a reading may be before the aggregator treats
// it as absent. Zero durations disable the check for that source.
type Freshness struct {
	Buoy      time.Duration
	ModelWave time.Duration
	Wind      time.Duration
	Tide      time.Duration
	Discharge time.Duration
	Rainfall  time.Duration
}

// DefaultFreshness matches each source's publication cadence with headroom
// for one missed cycle.
func DefaultFreshness() Freshness {
	return Freshness{
		Buoy:      2 * time.Hour,
		ModelWave: 6 * time.Hour,
		Wind:      6 * time.Hour,
		Tide:      12 * time.Hour,
		Discharge: 3 * time.Hour,
		Rainfall:  6 * time.Hour,
	}
}
