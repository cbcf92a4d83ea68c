// Package digest condenses a daily report into the island-level summary
// consumed by the SMS, plain-text, and HTML formatters.
package digest

import (
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/couchcryptid/dive-conditions/internal/domain"
)

const (
	// topSitesCount bounds the ranked sites carried into the digest.
	topSitesCount = 5

	// coastTopCount bounds the per-coast site lists.
	coastTopCount = 3

	// flatDayMaxFt and bigDayMinFt bracket the island-wide wave maximum
	// for the flat-day and big-day callouts.
	flatDayMaxFt = 2.0
	bigDayMinFt  = 6.0

	// Honolulu reference point for the island-wide sun times.
	oahuLat = 21.3069
	oahuLon = -157.8583
)

// AlertType classifies a marine alert for display emphasis.
type AlertType string

const (
	AlertHighSurfWarning  AlertType = "high_surf_warning"
	AlertHighSurfAdvisory AlertType = "high_surf_advisory"
	AlertSmallCraft       AlertType = "small_craft_advisory"
	AlertWindAdvisory     AlertType = "wind_advisory"
	AlertOther            AlertType = "other"
)

// Alert is one active marine hazard line, deduplicated by event.
type Alert struct {
	Type     AlertType
	Headline string
	Areas    []string
}

// TideInfo carries the next tide extremes shown island-wide, taken from
// the first ranked site that has them.
type TideInfo struct {
	NextHigh *domain.TideEvent
	NextLow  *domain.TideEvent
}

// CoastSummary aggregates one coast's scored sites for display. It is
// richer than the report's own coast rollup: it keeps the top sites and
// the mean observed wave height.
type CoastSummary struct {
	Coast         domain.Coast
	DisplayName   string
	TopSites      []domain.SiteScore
	AvgWaveFt     float64
	AvgWaveKnown  bool
	DiveableCount int
	TotalCount    int
}

// Range is a min/max span over the known readings of one field. Known is
// false when no site reported the field.
type Range struct {
	Min   float64
	Max   float64
	Known bool
}

// Quartiles summarizes the composite score distribution across all
// scored sites. Known is false when no sites were scored.
type Quartiles struct {
	Q1     float64
	Median float64
	Q3     float64
	Known  bool
}

// Digest is the rendered-ready summary of one daily report. All times
// are in the report's display location.
type Digest struct {
	GeneratedAt   time.Time
	TotalSites    int
	DiveableSites int

	// BestCoast is the display name of the coast with the most diveable
	// sites, empty when nothing is diveable.
	BestCoast string

	TopSites []domain.SiteScore
	Coasts   []CoastSummary
	Tides    *TideInfo
	Alerts   []Alert

	WaveRangeFt Range
	WindRangeKt Range
	Scores      Quartiles

	Sunrise time.Time
	Sunset  time.Time

	Sources []domain.SourceStatus
}

// FlatDay reports whether the island-wide wave maximum sits under the
// flat-day ceiling.
func (d Digest) FlatDay() bool {
	return d.WaveRangeFt.Known && d.WaveRangeFt.Max < flatDayMaxFt
}

// BigDay reports whether the island-wide wave maximum clears the big-day
// floor.
func (d Digest) BigDay() bool {
	return d.WaveRangeFt.Known && d.WaveRangeFt.Max > bigDayMinFt
}

// HasDiveableSites reports whether any site made the diveable cut.
func (d Digest) HasDiveableSites() bool { return d.DiveableSites > 0 }

// HasAlert reports whether an alert of the given type is active.
func (d Digest) HasAlert(t AlertType) bool {
	for _, a := range d.Alerts {
		if a.Type == t {
			return true
		}
	}
	return false
}

// Build condenses a daily report into a digest, with times rendered in
// loc. The report's score order is preserved wherever sites appear.
func Build(report domain.DailyReport, loc *time.Location) Digest {
	d := Digest{
		GeneratedAt:   report.GeneratedAt.In(loc),
		TotalSites:    report.TotalCount,
		DiveableSites: report.DiveableCount,
		Alerts:        classifyAlerts(report.Alerts),
		Tides:         firstTideInfo(report.Scores),
		WaveRangeFt:   readingRange(report.Scores, func(c domain.SiteConditions) domain.Reading { return c.WaveHeightFt }),
		WindRangeKt:   readingRange(report.Scores, func(c domain.SiteConditions) domain.Reading { return c.WindSpeedKt }),
		Scores:        scoreQuartiles(report.Scores),
		Sources:       report.Sources,
	}

	if n := len(report.Scores); n > topSitesCount {
		d.TopSites = report.Scores[:topSitesCount]
	} else {
		d.TopSites = report.Scores
	}

	d.Coasts = buildCoasts(report.Scores)
	if len(d.Coasts) > 0 && d.Coasts[0].DiveableCount > 0 {
		d.BestCoast = d.Coasts[0].DisplayName
	}

	if rise, set, ok := sunTimes(d.GeneratedAt, oahuLat, oahuLon, loc); ok {
		d.Sunrise = rise
		d.Sunset = set
	}
	return d
}

// buildCoasts groups the ranked scores by coast, keeping each coast's top
// sites and mean observed wave height. Coasts with no scored sites are
// dropped; the rest sort by diveable count descending.
func buildCoasts(scores []domain.SiteScore) []CoastSummary {
	summaries := make([]CoastSummary, 0, len(domain.AllCoasts()))
	for _, coast := range domain.AllCoasts() {
		s := CoastSummary{Coast: coast, DisplayName: coast.DisplayName()}
		var waves []float64
		for _, sc := range scores {
			if sc.Site.Coast != coast {
				continue
			}
			s.TotalCount++
			if sc.Diveable {
				s.DiveableCount++
			}
			if len(s.TopSites) < coastTopCount {
				s.TopSites = append(s.TopSites, sc)
			}
			if sc.Conditions.WaveHeightFt.Known {
				waves = append(waves, sc.Conditions.WaveHeightFt.Value)
			}
		}
		if s.TotalCount == 0 {
			continue
		}
		if len(waves) > 0 {
			s.AvgWaveFt = stat.Mean(waves, nil)
			s.AvgWaveKnown = true
		}
		summaries = append(summaries, s)
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].DiveableCount > summaries[j].DiveableCount
	})
	return summaries
}

// classifyAlerts maps marine alerts onto display types and deduplicates
// them by event, first occurrence winning.
func classifyAlerts(alerts []domain.MarineAlert) []Alert {
	var out []Alert
	seen := make(map[string]bool, len(alerts))
	for _, a := range alerts {
		if seen[a.Event] {
			continue
		}
		seen[a.Event] = true
		headline := a.Headline
		if headline == "" {
			headline = a.Event
		}
		out = append(out, Alert{
			Type:     classifyAlert(a.Event),
			Headline: headline,
			Areas:    a.Areas,
		})
	}
	return out
}

func classifyAlert(event string) AlertType {
	e := strings.ToLower(event)
	switch {
	case strings.Contains(e, "high surf warning"):
		return AlertHighSurfWarning
	case strings.Contains(e, "high surf advisory"):
		return AlertHighSurfAdvisory
	case strings.Contains(e, "small craft"):
		return AlertSmallCraft
	case strings.Contains(e, "wind"):
		return AlertWindAdvisory
	default:
		return AlertOther
	}
}

// firstTideInfo pulls the next tide extremes off the first ranked site
// that carries either one. Tide predictions come from a handful of
// harbor stations, so one site's extremes stand in for the island.
func firstTideInfo(scores []domain.SiteScore) *TideInfo {
	for _, sc := range scores {
		if sc.Conditions.NextHighTide == nil && sc.Conditions.NextLowTide == nil {
			continue
		}
		return &TideInfo{
			NextHigh: sc.Conditions.NextHighTide,
			NextLow:  sc.Conditions.NextLowTide,
		}
	}
	return nil
}

func readingRange(scores []domain.SiteScore, pick func(domain.SiteConditions) domain.Reading) Range {
	var r Range
	for _, sc := range scores {
		v := pick(sc.Conditions)
		if !v.Known {
			continue
		}
		if !r.Known || v.Value < r.Min {
			r.Min = v.Value
		}
		if !r.Known || v.Value > r.Max {
			r.Max = v.Value
		}
		r.Known = true
	}
	return r
}

func scoreQuartiles(scores []domain.SiteScore) Quartiles {
	xs := make([]float64, 0, len(scores))
	for _, sc := range scores {
		if sc.Status == domain.StatusInsufficientData {
			continue
		}
		xs = append(xs, sc.Composite)
	}
	if len(xs) == 0 {
		return Quartiles{}
	}
	sort.Float64s(xs)
	return Quartiles{
		Q1:     stat.Quantile(0.25, stat.Empirical, xs, nil),
		Median: stat.Quantile(0.5, stat.Empirical, xs, nil),
		Q3:     stat.Quantile(0.75, stat.Empirical, xs, nil),
		Known:  true,
	}
}
