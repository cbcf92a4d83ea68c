// Package catalog loads and validates the dive site catalog file.
//
// The catalog is the single startup input the scoring engine depends on.
// Validation is strict and fatal: a bad threshold or a dangling station
// reference is a deployment error, not something to limp past at 6am when
// the report goes out.
package catalog

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/couchcryptid/dive-conditions/internal/domain"
)

const (
	defaultSafeWaveThresholdFt = 6.0
	defaultOptimalTide         = domain.TideAny
)

// Station is a referenced external observation station.
type Station struct {
	ID   string
	Name string
}

// Catalog is the loaded, validated site catalog plus the station
// reference maps the fetch layer iterates.
type Catalog struct {
	Sites        []domain.Site
	Buoys        map[string]Station // by NDBC station ID
	TideStations map[string]Station // by CO-OPS station ID
	Streamgages  map[string]Station // by USGS gage ID

	sitesByID map[string]domain.Site
}

// Load reads and validates the catalog file at path. Site order is
// deterministic: coasts in report order, then file order within a coast.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse builds a Catalog from raw YAML.
func Parse(data []byte) (*Catalog, error) {
	var file fileYAML
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	if len(file.Buoys) == 0 {
		return nil, fmt.Errorf("catalog defines no buoys")
	}
	if len(file.TideStations) == 0 {
		return nil, fmt.Errorf("catalog defines no tide_stations")
	}

	c := &Catalog{
		Buoys:        make(map[string]Station, len(file.Buoys)),
		TideStations: make(map[string]Station, len(file.TideStations)),
		Streamgages:  make(map[string]Station, len(file.Streamgages)),
		sitesByID:    make(map[string]domain.Site),
	}
	for key, s := range file.Buoys {
		if s.ID == "" {
			return nil, fmt.Errorf("buoy %q: missing id", key)
		}
		c.Buoys[s.ID] = Station{ID: s.ID, Name: s.Name}
	}
	for key, s := range file.TideStations {
		if s.ID == "" {
			return nil, fmt.Errorf("tide_station %q: missing id", key)
		}
		c.TideStations[s.ID] = Station{ID: s.ID, Name: s.Name}
	}
	for key, s := range file.Streamgages {
		if s.ID == "" {
			return nil, fmt.Errorf("streamgage %q: missing id", key)
		}
		c.Streamgages[s.ID] = Station{ID: s.ID, Name: s.Name}
	}

	coastKeys := make([]string, 0, len(file.Coasts))
	for key := range file.Coasts {
		coastKeys = append(coastKeys, key)
	}
	sort.Strings(coastKeys)
	for _, key := range coastKeys {
		if !domain.Coast(key).Valid() {
			return nil, fmt.Errorf("unknown coast %q", key)
		}
	}

	seenNames := make(map[string]string)
	for _, coast := range domain.AllCoasts() {
		group, ok := file.Coasts[string(coast)]
		if !ok {
			continue
		}
		for _, raw := range group.Sites {
			site, err := buildSite(raw, coast, file)
			if err != nil {
				return nil, err
			}
			if _, dup := c.sitesByID[site.ID]; dup {
				return nil, fmt.Errorf("site %q: duplicate id", site.ID)
			}
			if other, dup := seenNames[site.Name]; dup {
				return nil, fmt.Errorf("site %q: name %q already used by %q", site.ID, site.Name, other)
			}
			seenNames[site.Name] = site.ID
			c.sitesByID[site.ID] = site
			c.Sites = append(c.Sites, site)
		}
	}

	if len(c.Sites) == 0 {
		return nil, fmt.Errorf("catalog contains no sites")
	}
	return c, nil
}

// buildSite applies defaults, validates one site entry, and resolves its
// station references to real station IDs.
func buildSite(raw siteYAML, coast domain.Coast, file fileYAML) (domain.Site, error) {
	if raw.ID == "" {
		return domain.Site{}, fmt.Errorf("coast %s: site with missing id (name %q)", coast, raw.Name)
	}
	fail := func(format string, args ...any) (domain.Site, error) {
		return domain.Site{}, fmt.Errorf("site %q: %s", raw.ID, fmt.Sprintf(format, args...))
	}

	if raw.Name == "" {
		return fail("missing name")
	}
	if raw.Coordinates.Lat == 0 || raw.Coordinates.Lon == 0 {
		return fail("missing coordinates")
	}

	threshold := raw.SwellExposure.MaxSafeHeightFt
	if threshold == 0 {
		threshold = defaultSafeWaveThresholdFt
	}
	if threshold <= 0 {
		return fail("max_safe_height_ft must be positive, got %g", threshold)
	}

	if raw.SwellExposure.Primary == "" {
		return fail("missing swell_exposure.primary")
	}
	if _, ok := domain.DegreesFromCompass(raw.SwellExposure.Primary); !ok {
		return fail("swell_exposure.primary %q is not a 16-point compass direction", raw.SwellExposure.Primary)
	}

	tide := domain.TidePreference(raw.OptimalTide)
	if tide == "" {
		tide = defaultOptimalTide
	}
	if !tide.Valid() {
		return fail("optimal_tide %q must be one of low, mid, high, any", raw.OptimalTide)
	}

	season, err := buildSeason(raw.SeasonalWindow)
	if err != nil {
		return fail("%s", err)
	}

	buoy, ok := file.Buoys[raw.NearestBuoy]
	if !ok {
		return fail("nearest_buoy %q is not a defined buoy", raw.NearestBuoy)
	}
	tideStation, ok := file.TideStations[raw.NearestTideStation]
	if !ok {
		return fail("nearest_tide_station %q is not a defined tide_station", raw.NearestTideStation)
	}
	gageID := ""
	if raw.NearestStreamgage != "" {
		gage, ok := file.Streamgages[raw.NearestStreamgage]
		if !ok {
			return fail("nearest_streamgage %q is not a defined streamgage", raw.NearestStreamgage)
		}
		gageID = gage.ID
	}

	return domain.Site{
		ID:    raw.ID,
		Name:  raw.Name,
		Coast: coast,
		Geo:   domain.Geo{Lat: raw.Coordinates.Lat, Lon: raw.Coordinates.Lon},
		DepthRange: domain.DepthRange{
			MinFt: raw.DepthRange.MinFt,
			MaxFt: raw.DepthRange.MaxFt,
		},
		SkillLevel: raw.SkillLevel,
		Season:     season,
		Regulations: domain.Regulations{
			MLCD:         raw.Regulations.MLCD,
			Spearfishing: raw.Regulations.Spearfishing,
			NightDiving:  raw.Regulations.NightDiving,
			TakeRules:    raw.Regulations.TakeRules,
		},
		Exposure: domain.SwellExposure{
			Primary:   raw.SwellExposure.Primary,
			Secondary: raw.SwellExposure.Secondary,
		},
		SafeWaveThresholdFt: threshold,
		OptimalTide:         tide,
		NearestBuoy:         buoy.ID,
		NearestTideStation:  tideStation.ID,
		NearestStreamgage:   gageID,
		Notes:               raw.Notes,
	}, nil
}

func buildSeason(raw seasonalWindowYAML) (domain.SeasonalWindow, error) {
	if raw.StartMonth == 0 && raw.EndMonth == 0 {
		return domain.SeasonalWindow{}, nil
	}
	if raw.StartMonth == 0 || raw.EndMonth == 0 {
		return domain.SeasonalWindow{}, fmt.Errorf("seasonal_window needs both start_month and end_month")
	}
	if raw.StartMonth < 1 || raw.StartMonth > 12 || raw.EndMonth < 1 || raw.EndMonth > 12 {
		return domain.SeasonalWindow{}, fmt.Errorf("seasonal_window months must be 1-12, got %d-%d", raw.StartMonth, raw.EndMonth)
	}
	return domain.SeasonalWindow{
		StartMonth: time.Month(raw.StartMonth),
		EndMonth:   time.Month(raw.EndMonth),
	}, nil
}

// SiteByID returns the site with the given id.
func (c *Catalog) SiteByID(id string) (domain.Site, bool) {
	s, ok := c.sitesByID[id]
	return s, ok
}

// BuoyIDs returns the referenced NDBC station IDs in sorted order.
func (c *Catalog) BuoyIDs() []string {
	return sortedKeys(c.Buoys)
}

// TideStationIDs returns the referenced CO-OPS station IDs in sorted order.
func (c *Catalog) TideStationIDs() []string {
	return sortedKeys(c.TideStations)
}

// StreamgageIDs returns the referenced USGS gage IDs in sorted order.
func (c *Catalog) StreamgageIDs() []string {
	return sortedKeys(c.Streamgages)
}

func sortedKeys(m map[string]Station) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type stationYAML struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

type coordinatesYAML struct {
	Lat float64 `yaml:"lat"`
	Lon float64 `yaml:"lon"`
}

type depthRangeYAML struct {
	MinFt float64 `yaml:"min_ft"`
	MaxFt float64 `yaml:"max_ft"`
}

type seasonalWindowYAML struct {
	StartMonth int `yaml:"start_month"`
	EndMonth   int `yaml:"end_month"`
}

type regulationsYAML struct {
	MLCD         bool   `yaml:"mlcd"`
	Spearfishing string `yaml:"spearfishing"`
	NightDiving  string `yaml:"night_diving"`
	TakeRules    string `yaml:"take_rules"`
}

type swellExposureYAML struct {
	Primary         string  `yaml:"primary"`
	Secondary       string  `yaml:"secondary"`
	MaxSafeHeightFt float64 `yaml:"max_safe_height_ft"`
}

type siteYAML struct {
	ID                 string             `yaml:"id"`
	Name               string             `yaml:"name"`
	Coordinates        coordinatesYAML    `yaml:"coordinates"`
	DepthRange         depthRangeYAML     `yaml:"depth_range"`
	SeasonalWindow     seasonalWindowYAML `yaml:"seasonal_window"`
	SkillLevel         string             `yaml:"skill_level"`
	Regulations        regulationsYAML    `yaml:"regulations"`
	SwellExposure      swellExposureYAML  `yaml:"swell_exposure"`
	OptimalTide        string             `yaml:"optimal_tide"`
	NearestBuoy        string             `yaml:"nearest_buoy"`
	NearestTideStation string             `yaml:"nearest_tide_station"`
	NearestStreamgage  string             `yaml:"nearest_streamgage"`
	Notes              string             `yaml:"notes"`
}

type coastYAML struct {
	Sites []siteYAML `yaml:"sites"`
}

type fileYAML struct {
	Buoys        map[string]stationYAML `yaml:"buoys"`
	TideStations map[string]stationYAML `yaml:"tide_stations"`
	Streamgages  map[string]stationYAML `yaml:"streamgages"`
	Coasts       map[string]coastYAML   `yaml:"coasts"`
}
