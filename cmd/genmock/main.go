// Command genmock generates the recorded-conditions fixtures for the
// pipeline test suite. The observation rows are defined here as the source
// of truth; the expected report is produced by running those rows through
// the actual assembly and ranking code, so regenerating after a scoring
// change keeps the fixtures aligned with real pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -sites data/mock/sites_fixture.yaml \
//	  -conditions-out data/mock/conditions_260815_combined.json \
//	  -report-out data/mock/report_260815_expected.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/dive-conditions/internal/catalog"
	"github.com/couchcryptid/dive-conditions/internal/domain"
	"github.com/jonboulle/clockwork"
)

var hawaii = time.FixedZone("HST", -10*60*60)

// baseDate is the fixture morning; row times are HHMM clock readings on
// this day. reportAt is the moment the refresh loop would have run.
var (
	baseDate = time.Date(2026, time.August, 15, 0, 0, 0, 0, hawaii)
	reportAt = baseDate.Add(8 * time.Hour)
)

// conditionRow is one fixture observation. All values are strings so rows
// of different kinds share one flat JSON shape.
type conditionRow struct {
	Kind         string `json:"kind"`
	Station      string `json:"station,omitempty"`
	Name         string `json:"name,omitempty"`
	Site         string `json:"site,omitempty"`
	Coast        string `json:"coast,omitempty"`
	Time         string `json:"time,omitempty"`
	HeightFt     string `json:"height_ft,omitempty"`
	PeriodS      string `json:"period_s,omitempty"`
	DirectionDeg string `json:"direction_deg,omitempty"`
	SpeedKt      string `json:"speed_kt,omitempty"`
	State        string `json:"state,omitempty"`
	NextHigh     string `json:"next_high,omitempty"`
	NextHighFt   string `json:"next_high_ft,omitempty"`
	NextLow      string `json:"next_low,omitempty"`
	NextLowFt    string `json:"next_low_ft,omitempty"`
	CFS          string `json:"cfs,omitempty"`
	TotalIn      string `json:"total_in,omitempty"`
	Event        string `json:"event,omitempty"`
	Headline     string `json:"headline,omitempty"`
	Severity     string `json:"severity,omitempty"`
	Areas        string `json:"areas,omitempty"`
}

// scenario is the recorded morning: a high surf warning gating the north
// shore, a brown water advisory at Hanauma, buoy 51202 hours stale so its
// sites ride the nearshore model, and no wind forecast for Magic Island.
var scenario = []conditionRow{
	{Kind: "buoy", Station: "51201", Name: "Waimea Bay", Time: "0750", HeightFt: "2.2", PeriodS: "13", DirectionDeg: "325"},
	{Kind: "buoy", Station: "51212", Name: "Barbers Point", Time: "0755", HeightFt: "1.6", PeriodS: "13", DirectionDeg: "190"},
	{Kind: "buoy", Station: "51202", Name: "Mokapu Point", Time: "0430", HeightFt: "3.1", PeriodS: "9", DirectionDeg: "70"},
	{Kind: "model", Site: "hanauma_bay", Time: "0700", HeightFt: "1.8", PeriodS: "8", DirectionDeg: "150"},
	{Kind: "model", Site: "lanikai_reef", Time: "0700", HeightFt: "2.0", PeriodS: "9", DirectionDeg: "80"},
	{Kind: "wind", Site: "three_tables", Time: "0800", SpeedKt: "9", DirectionDeg: "60"},
	{Kind: "wind", Site: "sharks_cove", Time: "0800", SpeedKt: "10", DirectionDeg: "65"},
	{Kind: "wind", Site: "kahe_point", Time: "0800", SpeedKt: "7", DirectionDeg: "75"},
	{Kind: "wind", Site: "hanauma_bay", Time: "0800", SpeedKt: "12", DirectionDeg: "70"},
	{Kind: "wind", Site: "lanikai_reef", Time: "0800", SpeedKt: "14", DirectionDeg: "60"},
	{Kind: "tide", Station: "1612340", Time: "0800", State: "rising", NextHigh: "1014", NextHighFt: "1.8", NextLow: "1630", NextLowFt: "0.4"},
	{Kind: "tide", Station: "1612480", Time: "0800", State: "falling", NextHigh: "1050", NextHighFt: "2.0", NextLow: "1702", NextLowFt: "0.3"},
	{Kind: "discharge", Station: "16275000", Time: "0745", CFS: "6.8"},
	{Kind: "rainfall", Station: "16275000", Time: "0745", TotalIn: "0.25"},
	{Kind: "high_surf", Coast: "north_shore"},
	{Kind: "brown_water", Site: "hanauma_bay"},
	{Kind: "marine_alert", Event: "High Surf Warning", Headline: "High Surf Warning in effect until 6 PM HST this evening", Severity: "Severe", Areas: "Oahu North Shore"},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	sitesPath := flag.String("sites", "", "path to the fixture site roster YAML")
	conditionsOut := flag.String("conditions-out", "", "output path for the combined conditions fixture")
	reportOut := flag.String("report-out", "", "output path for the expected report fixture")
	flag.Parse()

	if *sitesPath == "" || *conditionsOut == "" || *reportOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -sites, -conditions-out, -report-out")
	}

	cat, err := catalog.Load(*sitesPath)
	if err != nil {
		return fmt.Errorf("loading fixture roster: %w", err)
	}

	// Freshness checks compare against the clock, so pin it to the report
	// time the rows were recorded for.
	domain.SetClock(clockwork.NewFakeClockAt(reportAt))
	defer domain.SetClock(nil)

	src, err := sourcesFromRows(scenario)
	if err != nil {
		return fmt.Errorf("building raw sources: %w", err)
	}

	conditions := make(map[string]domain.SiteConditions, len(cat.Sites))
	for _, site := range cat.Sites {
		conditions[site.ID] = domain.Assemble(site, src, domain.DefaultFreshness())
	}

	report := domain.Rank(cat.Sites, conditions, domain.RankOptions{GeneratedAt: reportAt}, domain.DefaultScoringConfig())

	if err := writeJSON(*conditionsOut, scenario); err != nil {
		return fmt.Errorf("writing conditions fixture: %w", err)
	}
	log.Printf("wrote conditions fixture: %s (%d rows)", *conditionsOut, len(scenario))

	if err := writeJSON(*reportOut, report); err != nil {
		return fmt.Errorf("writing report fixture: %w", err)
	}
	log.Printf("wrote report fixture: %s (%d sites)", *reportOut, len(report.Scores))

	printStats(report)
	return nil
}

// sourcesFromRows converts the scenario rows into the bundle the fetch
// layer would have produced for this morning.
func sourcesFromRows(rows []conditionRow) (domain.RawSources, error) {
	src := domain.RawSources{
		Buoys:      make(map[string]domain.BuoyObservation),
		ModelWaves: make(map[string]domain.ModelWave),
		Winds:      make(map[string]domain.WindForecast),
		Tides:      make(map[string]domain.TideObservation),
		Discharges: make(map[string]domain.DischargeReading),
		Rainfall:   make(map[string]domain.RainfallReading),
		Advisories: domain.AdvisorySet{
			BrownWaterSites: make(map[string]bool),
			HighSurfCoasts:  make(map[domain.Coast]bool),
			IssuedAt:        reportAt,
		},
		FetchedAt: reportAt,
	}

	for i, row := range rows {
		if err := addRow(&src, row); err != nil {
			return domain.RawSources{}, fmt.Errorf("row %d (%s): %w", i, row.Kind, err)
		}
	}
	return src, nil
}

func addRow(src *domain.RawSources, row conditionRow) error {
	switch row.Kind {
	case "buoy":
		obs := domain.BuoyObservation{StationID: row.Station}
		if err := firstErr(
			reading(row.HeightFt, &obs.HeightFt),
			reading(row.PeriodS, &obs.PeriodS),
			reading(row.DirectionDeg, &obs.DirectionDeg),
			clockTime(row.Time, &obs.ObservedAt),
		); err != nil {
			return err
		}
		src.Buoys[row.Station] = obs
	case "model":
		mw := domain.ModelWave{SiteID: row.Site}
		if err := firstErr(
			reading(row.HeightFt, &mw.HeightFt),
			reading(row.PeriodS, &mw.PeriodS),
			reading(row.DirectionDeg, &mw.DirectionDeg),
			clockTime(row.Time, &mw.SampledAt),
		); err != nil {
			return err
		}
		src.ModelWaves[row.Site] = mw
	case "wind":
		w := domain.WindForecast{SiteID: row.Site}
		if err := firstErr(
			reading(row.SpeedKt, &w.SpeedKt),
			reading(row.DirectionDeg, &w.DirectionDeg),
			clockTime(row.Time, &w.ForecastAt),
		); err != nil {
			return err
		}
		src.Winds[row.Site] = w
	case "tide":
		high := &domain.TideEvent{Type: domain.TideEventHigh}
		low := &domain.TideEvent{Type: domain.TideEventLow}
		obs := domain.TideObservation{StationID: row.Station, State: domain.TideState(row.State)}
		if err := firstErr(
			clockTime(row.NextHigh, &high.Time),
			tideHeight(row.NextHighFt, high),
			clockTime(row.NextLow, &low.Time),
			tideHeight(row.NextLowFt, low),
			clockTime(row.Time, &obs.PredictedAt),
		); err != nil {
			return err
		}
		obs.NextHigh, obs.NextLow = high, low
		obs.Next = high
		if low.Time.Before(high.Time) {
			obs.Next = low
		}
		src.Tides[row.Station] = obs
	case "discharge":
		d := domain.DischargeReading{StationID: row.Station}
		if err := firstErr(reading(row.CFS, &d.CFS), clockTime(row.Time, &d.ObservedAt)); err != nil {
			return err
		}
		src.Discharges[row.Station] = d
	case "rainfall":
		r := domain.RainfallReading{StationID: row.Station, WindowHours: 48}
		if err := firstErr(reading(row.TotalIn, &r.TotalIn), clockTime(row.Time, &r.ObservedAt)); err != nil {
			return err
		}
		src.Rainfall[row.Station] = r
	case "high_surf":
		src.Advisories.HighSurfCoasts[domain.Coast(row.Coast)] = true
	case "brown_water":
		src.Advisories.BrownWaterSites[row.Site] = true
	case "marine_alert":
		alert := domain.MarineAlert{Event: row.Event, Headline: row.Headline, Severity: row.Severity}
		for _, area := range strings.Split(row.Areas, ";") {
			if area = strings.TrimSpace(area); area != "" {
				alert.Areas = append(alert.Areas, area)
			}
		}
		src.Advisories.Marine = append(src.Advisories.Marine, alert)
	default:
		return fmt.Errorf("unknown kind")
	}
	return nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func reading(value string, out *domain.Reading) error {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("bad reading %q: %w", value, err)
	}
	*out = domain.KnownReading(v)
	return nil
}

func tideHeight(value string, ev *domain.TideEvent) error {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("bad tide height %q: %w", value, err)
	}
	ev.HeightFt = v
	return nil
}

// clockTime resolves an HHMM string to a time on the fixture morning.
func clockTime(hhmm string, out *time.Time) error {
	if len(hhmm) != 4 {
		return fmt.Errorf("bad clock time %q", hhmm)
	}
	hour, errHour := strconv.Atoi(hhmm[:2])
	minutes, errMin := strconv.Atoi(hhmm[2:])
	if errHour != nil || errMin != nil || hour > 23 || minutes > 59 {
		return fmt.Errorf("bad clock time %q", hhmm)
	}
	*out = time.Date(baseDate.Year(), baseDate.Month(), baseDate.Day(), hour, minutes, 0, 0, baseDate.Location())
	return nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(report domain.DailyReport) {
	statusCounts := map[domain.ScoreStatus]int{}
	gradeCounts := map[domain.Grade]int{}
	waveSources := map[domain.WaveSource]int{}
	for _, s := range report.Scores {
		statusCounts[s.Status]++
		gradeCounts[s.Grade]++
		waveSources[s.Conditions.WaveSource]++
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Sites: %d total, %d diveable\n", report.TotalCount, report.DiveableCount)
	fmt.Printf("By status: ok=%d, gated=%d, insufficient=%d\n",
		statusCounts[domain.StatusOK], statusCounts[domain.StatusGated],
		statusCounts[domain.StatusInsufficientData])
	fmt.Printf("By grade: A=%d, B=%d, C=%d, D=%d, F=%d\n",
		gradeCounts[domain.GradeA], gradeCounts[domain.GradeB], gradeCounts[domain.GradeC],
		gradeCounts[domain.GradeD], gradeCounts[domain.GradeF])
	fmt.Printf("Wave source: buoy=%d, model=%d, none=%d\n",
		waveSources[domain.WaveSourceBuoy], waveSources[domain.WaveSourceModel],
		waveSources[domain.WaveSourceNone])

	fmt.Println("\nRanking:")
	for i, s := range report.Scores {
		line := fmt.Sprintf("  %2d. %-14s %-12s composite=%5.1f grade=%s status=%s",
			i+1, s.Site.ID, s.Site.Coast, s.Composite, s.Grade, s.Status)
		if s.UnsafeReason != "" {
			line += " unsafe=" + string(s.UnsafeReason)
		}
		fmt.Println(line)
	}

	fmt.Println("\nCoasts:")
	for _, c := range report.Coasts {
		if !c.AnyDiveable {
			fmt.Printf("  %-12s 0/%d diveable\n", c.Coast, c.TotalCount)
			continue
		}
		fmt.Printf("  %-12s %d/%d diveable, best=%s (%.1f %s)\n",
			c.Coast, c.DiveableCount, c.TotalCount, c.BestSite, c.BestComposite, c.BestGrade)
	}
}
