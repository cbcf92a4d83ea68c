package domain

import "time"

// Coast identifies one of the five Oahu shore regions. Coasts group sites
// for reporting and scope coast-wide hazards like high surf warnings.
type Coast string

const (
	CoastNorthShore Coast = "north_shore"
	CoastWestSide   Coast = "west_side"
	CoastSouthShore Coast = "south_shore"
	CoastSoutheast  Coast = "southeast"
	CoastWindward   Coast = "windward"
)

// AllCoasts returns the five coasts in fixed report order.
func AllCoasts() []Coast {
	return []Coast{CoastNorthShore, CoastWestSide, CoastSouthShore, CoastSoutheast, CoastWindward}
}

// Valid reports whether c is one of the five known coasts.
func (c Coast) Valid() bool {
	switch c {
	case CoastNorthShore, CoastWestSide, CoastSouthShore, CoastSoutheast, CoastWindward:
		return true
	}
	return false
}

// DisplayName returns the human-readable coast name.
func (c Coast) DisplayName() string {
	switch c {
	case CoastNorthShore:
		return "North Shore"
	case CoastWestSide:
		return "West Side"
	case CoastSouthShore:
		return "South Shore"
	case CoastSoutheast:
		return "Southeast"
	case CoastWindward:
		return "Windward"
	default:
		return string(c)
	}
}

// TidePreference is the tide state a site dives best at.
type TidePreference string

const (
	TideLow  TidePreference = "low"
	TideMid  TidePreference = "mid"
	TideHigh TidePreference = "high"
	TideAny  TidePreference = "any"
)

// Valid reports whether p is a recognized tide preference.
func (p TidePreference) Valid() bool {
	switch p {
	case TideLow, TideMid, TideHigh, TideAny:
		return true
	}
	return false
}

// Geo represents a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// DepthRange bounds a site's typical working depth in feet.
type DepthRange struct {
	MinFt float64 `json:"min_ft"`
	MaxFt float64 `json:"max_ft"`
}

// SeasonalWindow is an inclusive month range during which a site is
// normally diveable. Windows may wrap the new year (October through March).
// The zero window contains every month.
type SeasonalWindow struct {
	StartMonth time.Month `json:"start_month,omitempty"`
	EndMonth   time.Month `json:"end_month,omitempty"`
}

// Contains reports whether m falls inside the window.
func (w SeasonalWindow) Contains(m time.Month) bool {
	if w.StartMonth == 0 || w.EndMonth == 0 {
		return true
	}
	if w.StartMonth <= w.EndMonth {
		return m >= w.StartMonth && m <= w.EndMonth
	}
	return m >= w.StartMonth || m <= w.EndMonth
}

// Regulations captures the legal constraints divers check before entering:
// Marine Life Conservation District status and take rules.
type Regulations struct {
	MLCD         bool   `json:"mlcd,omitempty"`
	Spearfishing string `json:"spearfishing,omitempty"`
	NightDiving  string `json:"night_diving,omitempty"`
	TakeRules    string `json:"take_rules,omitempty"`
}

// SwellExposure describes which swell directions reach the site. Primary is
// the 16-point compass bearing the site faces; it doubles as the reference
// for onshore/offshore wind classification.
type SwellExposure struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary,omitempty"`
}

// Site is an immutable descriptor for one dive site. Sites are loaded from
// the catalog file at startup and never change during a run. Station IDs
// are pre-resolved by the catalog loader, so scoring never searches for a
// nearest station geodesically.
type Site struct {
	ID                  string         `json:"id"`
	Name                string         `json:"name"`
	Coast               Coast          `json:"coast"`
	Geo                 Geo            `json:"geo"`
	DepthRange          DepthRange     `json:"depth_range"`
	SkillLevel          string         `json:"skill_level,omitempty"`
	Season              SeasonalWindow `json:"season,omitempty"`
	Regulations         Regulations    `json:"regulations,omitempty"`
	Exposure            SwellExposure  `json:"exposure"`
	SafeWaveThresholdFt float64        `json:"safe_wave_threshold_ft"`
	OptimalTide         TidePreference `json:"optimal_tide"`
	NearestBuoy         string         `json:"nearest_buoy"`
	NearestTideStation  string         `json:"nearest_tide_station"`
	NearestStreamgage   string         `json:"nearest_streamgage,omitempty"`
	Notes               string         `json:"notes,omitempty"`
}
