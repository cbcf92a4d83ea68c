// Command validate performs end-to-end integrity checks across the recorded
// conditions fixtures: the observation rows, the assembled per-site
// conditions, the ranked report, and the committed expected report. It
// verifies station coverage, freshness fallback behavior, ranking
// invariants, and parity with the fixture a scoring change may have
// invalidated.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -sites data/mock/sites_fixture.yaml \
//	  -conditions data/mock/conditions_260815_combined.json \
//	  -report data/mock/report_260815_expected.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/dive-conditions/internal/catalog"
	"github.com/couchcryptid/dive-conditions/internal/domain"
	"github.com/jonboulle/clockwork"
)

var hawaii = time.FixedZone("HST", -10*60*60)

// baseDate and reportAt match genmock; row times are HHMM readings on the
// fixture morning and freshness is evaluated as of reportAt.
var (
	baseDate = time.Date(2026, time.August, 15, 0, 0, 0, 0, hawaii)
	reportAt = baseDate.Add(8 * time.Hour)
)

// conditionRow is one fixture observation keyed by field name. Values stay
// strings until a phase needs them parsed.
type conditionRow map[string]string

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	sitesPath := flag.String("sites", "", "path to the fixture site roster YAML")
	conditionsPath := flag.String("conditions", "", "path to the combined conditions fixture")
	reportPath := flag.String("report", "", "path to the expected report fixture")
	flag.Parse()

	if *sitesPath == "" || *conditionsPath == "" || *reportPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*sitesPath, *conditionsPath, *reportPath); code != 0 {
		os.Exit(code)
	}
}

func run(sitesPath, conditionsPath, reportPath string) int {
	// Freshness evaluation matches genmock's pinned clock.
	domain.SetClock(clockwork.NewFakeClockAt(reportAt))
	defer domain.SetClock(nil)

	// ── Load all fixtures ──
	fmt.Println("=== Dive Conditions Fixture Validation ===")
	fmt.Println()

	cat, err := catalog.Load(sitesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load site roster: %v\n", err)
		return 1
	}

	rows, err := loadRows(conditionsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load conditions fixture: %v\n", err)
		return 1
	}

	expected, err := loadReport(reportPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load report fixture: %v\n", err)
		return 1
	}

	// ── Re-run the pipeline over the fixture rows ──
	src := sourcesFromRows(rows)
	conditions := make(map[string]domain.SiteConditions, len(cat.Sites))
	for _, site := range cat.Sites {
		conditions[site.ID] = domain.Assemble(site, src, domain.DefaultFreshness())
	}
	computed := domain.Rank(cat.Sites, conditions, domain.RankOptions{GeneratedAt: reportAt}, domain.DefaultScoringConfig())

	// ── Run validation phases ──
	phases := []*phase{
		validateRows(rows, cat),
		validateAssembly(cat, rows, conditions),
		validateRanking(cat, computed),
		validateReportParity(computed, expected),
	}

	// ── Report results ──
	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-44s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Inputs: %d sites, %d condition rows, %d expected scores\n",
		len(cat.Sites), len(rows), len(expected.Scores))

	// Print detailed errors.
	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Fixture loading ──

func loadRows(path string) ([]conditionRow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rows []conditionRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no rows in %s", path)
	}
	return rows, nil
}

func loadReport(path string) (domain.DailyReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.DailyReport{}, err
	}
	var report domain.DailyReport
	if err := json.Unmarshal(data, &report); err != nil {
		return domain.DailyReport{}, err
	}
	return report, nil
}

// sourcesFromRows rebuilds the fetch bundle from the fixture rows. Rows
// with malformed values contribute zero readings here; phase 1 reports the
// malformation itself.
func sourcesFromRows(rows []conditionRow) domain.RawSources {
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

	for _, row := range rows {
		switch row["kind"] {
		case "buoy":
			src.Buoys[row["station"]] = domain.BuoyObservation{
				StationID:    row["station"],
				HeightFt:     rowReading(row, "height_ft"),
				PeriodS:      rowReading(row, "period_s"),
				DirectionDeg: rowReading(row, "direction_deg"),
				ObservedAt:   rowTime(row, "time"),
			}
		case "model":
			src.ModelWaves[row["site"]] = domain.ModelWave{
				SiteID:       row["site"],
				HeightFt:     rowReading(row, "height_ft"),
				PeriodS:      rowReading(row, "period_s"),
				DirectionDeg: rowReading(row, "direction_deg"),
				SampledAt:    rowTime(row, "time"),
			}
		case "wind":
			src.Winds[row["site"]] = domain.WindForecast{
				SiteID:       row["site"],
				SpeedKt:      rowReading(row, "speed_kt"),
				DirectionDeg: rowReading(row, "direction_deg"),
				ForecastAt:   rowTime(row, "time"),
			}
		case "tide":
			high := &domain.TideEvent{Time: rowTime(row, "next_high"), Type: domain.TideEventHigh, HeightFt: rowFloat(row, "next_high_ft")}
			low := &domain.TideEvent{Time: rowTime(row, "next_low"), Type: domain.TideEventLow, HeightFt: rowFloat(row, "next_low_ft")}
			next := high
			if low.Time.Before(high.Time) {
				next = low
			}
			src.Tides[row["station"]] = domain.TideObservation{
				StationID:   row["station"],
				State:       domain.TideState(row["state"]),
				Next:        next,
				NextHigh:    high,
				NextLow:     low,
				PredictedAt: rowTime(row, "time"),
			}
		case "discharge":
			src.Discharges[row["station"]] = domain.DischargeReading{
				StationID:  row["station"],
				CFS:        rowReading(row, "cfs"),
				ObservedAt: rowTime(row, "time"),
			}
		case "rainfall":
			src.Rainfall[row["station"]] = domain.RainfallReading{
				StationID:   row["station"],
				TotalIn:     rowReading(row, "total_in"),
				WindowHours: 48,
				ObservedAt:  rowTime(row, "time"),
			}
		case "high_surf":
			src.Advisories.HighSurfCoasts[domain.Coast(row["coast"])] = true
		case "brown_water":
			src.Advisories.BrownWaterSites[row["site"]] = true
		case "marine_alert":
			alert := domain.MarineAlert{
				Event:    row["event"],
				Headline: row["headline"],
				Severity: row["severity"],
			}
			for _, area := range strings.Split(row["areas"], ";") {
				if area = strings.TrimSpace(area); area != "" {
					alert.Areas = append(alert.Areas, area)
				}
			}
			src.Advisories.Marine = append(src.Advisories.Marine, alert)
		}
	}
	return src
}

// ── Phase 1: Fixture Rows ──
// Validates row fields and checks every reference against the roster.

var requiredRowFields = map[string][]string{
	"buoy":         {"station", "time", "height_ft", "period_s", "direction_deg"},
	"model":        {"site", "time", "height_ft", "period_s", "direction_deg"},
	"wind":         {"site", "time", "speed_kt", "direction_deg"},
	"tide":         {"station", "time", "state", "next_high", "next_high_ft", "next_low", "next_low_ft"},
	"discharge":    {"station", "time", "cfs"},
	"rainfall":     {"station", "time", "total_in"},
	"high_surf":    {"coast"},
	"brown_water":  {"site"},
	"marine_alert": {"event"},
}

func validateRows(rows []conditionRow, cat *catalog.Catalog) *phase {
	p := &phase{name: "Phase 1: Fixture Rows (fields + references)"}

	for i, row := range rows {
		kind := row["kind"]
		required, ok := requiredRowFields[kind]
		if !ok {
			p.errorf("row %d: unknown kind %q", i, kind)
			continue
		}
		for _, field := range required {
			if row[field] == "" {
				p.errorf("row %d (%s): missing field %q", i, kind, field)
			}
		}
		checkRowValues(p, i, row)
		checkRowReferences(p, i, row, cat)
	}

	checkStationCoverage(p, rows, cat)
	return p
}

// checkRowValues verifies that numeric and clock fields parse.
func checkRowValues(p *phase, i int, row conditionRow) {
	numeric := []string{"height_ft", "period_s", "direction_deg", "speed_kt", "next_high_ft", "next_low_ft", "cfs", "total_in"}
	for _, field := range numeric {
		v, ok := row[field]
		if !ok {
			continue
		}
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			p.errorf("row %d (%s): field %q: %q is not a number", i, row["kind"], field, v)
		}
	}

	clocks := []string{"time", "next_high", "next_low"}
	for _, field := range clocks {
		v, ok := row[field]
		if !ok {
			continue
		}
		if _, valid := parseClock(v); !valid {
			p.errorf("row %d (%s): field %q: %q is not an HHMM clock time", i, row["kind"], field, v)
		}
	}
}

// checkRowReferences verifies stations, sites, and coasts against the roster.
func checkRowReferences(p *phase, i int, row conditionRow, cat *catalog.Catalog) {
	switch row["kind"] {
	case "buoy":
		if _, ok := cat.Buoys[row["station"]]; !ok {
			p.errorf("row %d: buoy station %q is not in the roster", i, row["station"])
		}
	case "tide":
		if _, ok := cat.TideStations[row["station"]]; !ok {
			p.errorf("row %d: tide station %q is not in the roster", i, row["station"])
		}
	case "discharge", "rainfall":
		if _, ok := cat.Streamgages[row["station"]]; !ok {
			p.errorf("row %d: streamgage %q is not in the roster", i, row["station"])
		}
	case "model", "wind", "brown_water":
		if _, ok := cat.SiteByID(row["site"]); !ok {
			p.errorf("row %d (%s): site %q is not in the roster", i, row["kind"], row["site"])
		}
	case "high_surf":
		if !domain.Coast(row["coast"]).Valid() {
			p.errorf("row %d: high_surf coast %q is not a known coast", i, row["coast"])
		}
	}
}

// checkStationCoverage verifies every roster station has at least one row,
// so no site silently loses a feed the fixture was meant to supply.
func checkStationCoverage(p *phase, rows []conditionRow, cat *catalog.Catalog) {
	covered := map[string]map[string]bool{
		"buoy":      {},
		"tide":      {},
		"discharge": {},
		"rainfall":  {},
	}
	for _, row := range rows {
		if set, ok := covered[row["kind"]]; ok {
			set[row["station"]] = true
		}
	}

	for _, id := range cat.BuoyIDs() {
		if !covered["buoy"][id] {
			p.errorf("buoy %q has no fixture row", id)
		}
	}
	for _, id := range cat.TideStationIDs() {
		if !covered["tide"][id] {
			p.errorf("tide station %q has no fixture row", id)
		}
	}
	for _, id := range cat.StreamgageIDs() {
		if !covered["discharge"][id] {
			p.errorf("streamgage %q has no discharge row", id)
		}
		if !covered["rainfall"][id] {
			p.errorf("streamgage %q has no rainfall row", id)
		}
	}
}

// ── Phase 2: Assembly ──
// Re-derives what each site's conditions should look like straight from
// the rows and compares against the aggregator's output, so a freshness or
// fallback regression surfaces here rather than as a scoring drift.

func validateAssembly(cat *catalog.Catalog, rows []conditionRow, conditions map[string]domain.SiteConditions) *phase {
	p := &phase{name: "Phase 2: Assembly (freshness + fallback)"}

	idx := indexRows(rows)
	for _, site := range cat.Sites {
		c, ok := conditions[site.ID]
		if !ok {
			p.errorf("site %s: no assembled conditions", site.ID)
			continue
		}
		checkWaveAssembly(p, site, idx, c)
		checkWindAssembly(p, site, idx, c)
		checkTideAssembly(p, site, idx, c)
		checkAdvisoryAssembly(p, site, idx, c)
	}
	return p
}

// rowIndex holds fixture rows grouped for per-site lookup.
type rowIndex struct {
	buoys      map[string]conditionRow
	models     map[string]conditionRow
	winds      map[string]conditionRow
	tides      map[string]conditionRow
	surfCoasts map[string]bool
	brownSites map[string]bool
}

func indexRows(rows []conditionRow) rowIndex {
	idx := rowIndex{
		buoys:      map[string]conditionRow{},
		models:     map[string]conditionRow{},
		winds:      map[string]conditionRow{},
		tides:      map[string]conditionRow{},
		surfCoasts: map[string]bool{},
		brownSites: map[string]bool{},
	}
	for _, row := range rows {
		switch row["kind"] {
		case "buoy":
			idx.buoys[row["station"]] = row
		case "model":
			idx.models[row["site"]] = row
		case "wind":
			idx.winds[row["site"]] = row
		case "tide":
			idx.tides[row["station"]] = row
		case "high_surf":
			idx.surfCoasts[row["coast"]] = true
		case "brown_water":
			idx.brownSites[row["site"]] = true
		}
	}
	return idx
}

// rowFresh reports whether a row's clock time is within maxAge of reportAt.
func rowFresh(row conditionRow, maxAge time.Duration) bool {
	t, ok := parseClock(row["time"])
	if !ok {
		return false
	}
	return reportAt.Sub(t) <= maxAge
}

func checkWaveAssembly(p *phase, site domain.Site, idx rowIndex, c domain.SiteConditions) {
	fresh := domain.DefaultFreshness()

	wantSource := domain.WaveSourceNone
	var wantHeight float64
	if row, ok := idx.buoys[site.NearestBuoy]; ok && rowFresh(row, fresh.Buoy) {
		wantSource = domain.WaveSourceBuoy
		wantHeight, _ = strconv.ParseFloat(row["height_ft"], 64)
	} else if row, ok := idx.models[site.ID]; ok && rowFresh(row, fresh.ModelWave) {
		wantSource = domain.WaveSourceModel
		wantHeight, _ = strconv.ParseFloat(row["height_ft"], 64)
	}

	if c.WaveSource != wantSource {
		p.errorf("site %s: wave source %q, rows imply %q", site.ID, c.WaveSource, wantSource)
		return
	}
	if wantSource == domain.WaveSourceNone {
		if c.WaveHeightFt.Known {
			p.errorf("site %s: wave height known with no usable wave row", site.ID)
		}
		return
	}
	if !c.WaveHeightFt.Known {
		p.errorf("site %s: wave height unknown despite a fresh %s row", site.ID, wantSource)
	} else if !floatEq(c.WaveHeightFt.Value, wantHeight) {
		p.errorf("site %s: wave height %g, row says %g", site.ID, c.WaveHeightFt.Value, wantHeight)
	}
}

func checkWindAssembly(p *phase, site domain.Site, idx rowIndex, c domain.SiteConditions) {
	row, ok := idx.winds[site.ID]
	if !ok || !rowFresh(row, domain.DefaultFreshness().Wind) {
		if c.WindSpeedKt.Known {
			p.errorf("site %s: wind known with no usable wind row", site.ID)
		}
		return
	}
	want, _ := strconv.ParseFloat(row["speed_kt"], 64)
	if !c.WindSpeedKt.Known {
		p.errorf("site %s: wind unknown despite a fresh wind row", site.ID)
	} else if !floatEq(c.WindSpeedKt.Value, want) {
		p.errorf("site %s: wind %g kt, row says %g", site.ID, c.WindSpeedKt.Value, want)
	}
}

func checkTideAssembly(p *phase, site domain.Site, idx rowIndex, c domain.SiteConditions) {
	row, ok := idx.tides[site.NearestTideStation]
	if !ok || !rowFresh(row, domain.DefaultFreshness().Tide) {
		if c.TideState != domain.TideStateUnknown {
			p.errorf("site %s: tide state %q with no usable tide row", site.ID, c.TideState)
		}
		return
	}

	if string(c.TideState) != row["state"] {
		p.errorf("site %s: tide state %q, row says %q", site.ID, c.TideState, row["state"])
	}
	if c.NextHighTide == nil || c.NextLowTide == nil {
		p.errorf("site %s: tide extremes missing despite a tide row", site.ID)
		return
	}
	if wantHigh, ok := parseClock(row["next_high"]); ok && !c.NextHighTide.Time.Equal(wantHigh) {
		p.errorf("site %s: next high at %s, row says %s", site.ID, c.NextHighTide.Time.Format("1504"), row["next_high"])
	}
	if wantLow, _ := strconv.ParseFloat(row["next_low_ft"], 64); !floatEq(c.NextLowTide.HeightFt, wantLow) {
		p.errorf("site %s: next low height %g, row says %g", site.ID, c.NextLowTide.HeightFt, wantLow)
	}
}

func checkAdvisoryAssembly(p *phase, site domain.Site, idx rowIndex, c domain.SiteConditions) {
	if want := idx.brownSites[site.ID]; c.BrownWaterAdvisory != want {
		p.errorf("site %s: brown water advisory %v, rows say %v", site.ID, c.BrownWaterAdvisory, want)
	}
	if want := idx.surfCoasts[string(site.Coast)]; c.HighSurfWarning != want {
		p.errorf("site %s: high surf warning %v, rows say %v", site.ID, c.HighSurfWarning, want)
	}
}

// ── Phase 3: Ranking Invariants ──
// Validates the ordering contract and the per-score consistency rules on
// the freshly computed report.

func validateRanking(cat *catalog.Catalog, report domain.DailyReport) *phase {
	p := &phase{name: "Phase 3: Ranking Invariants (ordering)"}

	checkRankingCoverage(p, cat, report)
	checkRankingOrder(p, report)
	checkScoreConsistency(p, report)
	checkCoastSummaries(p, report)

	if !report.GeneratedAt.Equal(reportAt) {
		p.errorf("generated_at %s, want %s", report.GeneratedAt, reportAt)
	}
	return p
}

func checkRankingCoverage(p *phase, cat *catalog.Catalog, report domain.DailyReport) {
	// Every fixture site is in season on the fixture date, so all of them
	// must appear exactly once.
	seen := map[string]int{}
	for i := range report.Scores {
		seen[report.Scores[i].Site.ID]++
	}
	for _, site := range cat.Sites {
		switch seen[site.ID] {
		case 0:
			p.errorf("site %s missing from the report", site.ID)
		case 1:
		default:
			p.errorf("site %s appears %d times", site.ID, seen[site.ID])
		}
	}
	if report.TotalCount != len(report.Scores) {
		p.errorf("total_count %d, but %d scores", report.TotalCount, len(report.Scores))
	}
}

func checkRankingOrder(p *phase, report domain.DailyReport) {
	for i := 1; i < len(report.Scores); i++ {
		prev, cur := report.Scores[i-1], report.Scores[i]
		if !prev.Diveable && cur.Diveable {
			p.errorf("position %d: diveable %s ranked below gated %s", i, cur.Site.ID, prev.Site.ID)
			continue
		}
		if prev.Diveable != cur.Diveable {
			continue
		}
		if prev.Composite < cur.Composite {
			p.errorf("position %d: composite %g above %g", i, cur.Composite, prev.Composite)
		}
		if prev.Composite == cur.Composite && prev.Site.Name > cur.Site.Name {
			p.errorf("position %d: name tiebreak %q before %q", i, prev.Site.Name, cur.Site.Name)
		}
	}
}

func checkScoreConsistency(p *phase, report domain.DailyReport) {
	diveable := 0
	for i := range report.Scores {
		s := &report.Scores[i]
		id := s.Site.ID
		if s.Diveable {
			diveable++
		}

		if s.Composite < 0 || s.Composite > 100 {
			p.errorf("site %s: composite %g out of range", id, s.Composite)
		}
		if s.Diveable != (s.Status == domain.StatusOK) {
			p.errorf("site %s: diveable=%v but status=%s", id, s.Diveable, s.Status)
		}

		switch s.Status {
		case domain.StatusOK:
			if s.UnsafeReason != "" {
				p.errorf("site %s: ok status with unsafe reason %q", id, s.UnsafeReason)
			}
			if want := gradeBand(s.Composite); s.Grade != want {
				p.errorf("site %s: grade %s for composite %g, band says %s", id, s.Grade, s.Composite, want)
			}
		case domain.StatusGated:
			if s.UnsafeReason == "" {
				p.errorf("site %s: gated without an unsafe reason", id)
			}
			if s.Grade != domain.GradeF {
				p.errorf("site %s: gated with grade %s", id, s.Grade)
			}
		case domain.StatusInsufficientData:
			if s.Composite != 0 {
				p.errorf("site %s: insufficient data with composite %g", id, s.Composite)
			}
			if s.Grade != domain.GradeF {
				p.errorf("site %s: insufficient data with grade %s", id, s.Grade)
			}
		default:
			p.errorf("site %s: unknown status %q", id, s.Status)
		}
	}

	if report.DiveableCount != diveable {
		p.errorf("diveable_count %d, but %d diveable scores", report.DiveableCount, diveable)
	}
}

func checkCoastSummaries(p *phase, report domain.DailyReport) {
	type tally struct {
		total, diveable int
		best            *domain.SiteScore
	}
	tallies := map[domain.Coast]*tally{}
	for i := range report.Scores {
		s := &report.Scores[i]
		t := tallies[s.Site.Coast]
		if t == nil {
			t = &tally{}
			tallies[s.Site.Coast] = t
		}
		t.total++
		if s.Diveable {
			t.diveable++
			if t.best == nil {
				t.best = s
			}
		}
	}

	seen := map[domain.Coast]bool{}
	for _, c := range report.Coasts {
		seen[c.Coast] = true
		t := tallies[c.Coast]
		if t == nil {
			p.errorf("coast %s summarized with no scores", c.Coast)
			continue
		}
		if c.TotalCount != t.total || c.DiveableCount != t.diveable {
			p.errorf("coast %s: summary %d/%d, scores say %d/%d", c.Coast, c.DiveableCount, c.TotalCount, t.diveable, t.total)
		}
		if c.AnyDiveable != (t.best != nil) {
			p.errorf("coast %s: any_diveable=%v, scores say %v", c.Coast, c.AnyDiveable, t.best != nil)
		}
		if t.best != nil && c.BestSite != t.best.Site.Name {
			p.errorf("coast %s: best site %q, scores say %q", c.Coast, c.BestSite, t.best.Site.Name)
		}
	}
	for coast, t := range tallies {
		if !seen[coast] {
			p.errorf("coast %s has %d scores but no summary", coast, t.total)
		}
	}
}

// ── Phase 4: Report Parity ──
// Compares the freshly computed report against the committed expected
// fixture. A mismatch usually means a scoring change shipped without
// regenerating fixtures via cmd/genmock.

func validateReportParity(computed, expected domain.DailyReport) *phase {
	p := &phase{name: "Phase 4: Report Parity (committed fixture)"}

	if !expected.GeneratedAt.Equal(computed.GeneratedAt) {
		p.errorf("generated_at: fixture %s, computed %s", expected.GeneratedAt, computed.GeneratedAt)
	}
	if expected.TotalCount != computed.TotalCount {
		p.errorf("total_count: fixture %d, computed %d", expected.TotalCount, computed.TotalCount)
	}
	if expected.DiveableCount != computed.DiveableCount {
		p.errorf("diveable_count: fixture %d, computed %d", expected.DiveableCount, computed.DiveableCount)
	}

	if len(expected.Scores) != len(computed.Scores) {
		p.errorf("score count: fixture %d, computed %d", len(expected.Scores), len(computed.Scores))
		return p
	}
	for i := range computed.Scores {
		compareScores(p, i, &computed.Scores[i], &expected.Scores[i])
	}

	if len(expected.Coasts) != len(computed.Coasts) {
		p.errorf("coast count: fixture %d, computed %d", len(expected.Coasts), len(computed.Coasts))
		return p
	}
	for i := range computed.Coasts {
		compareCoasts(p, &computed.Coasts[i], &expected.Coasts[i])
	}
	return p
}

func compareScores(p *phase, i int, computed, expected *domain.SiteScore) {
	if expected.Site.ID != computed.Site.ID {
		p.errorf("rank %d: fixture has %s, computed %s", i+1, expected.Site.ID, computed.Site.ID)
		return
	}
	id := computed.Site.ID

	if !floatEq(expected.Composite, computed.Composite) {
		p.errorf("site %s: composite: fixture %g, computed %g", id, expected.Composite, computed.Composite)
	}
	if expected.Grade != computed.Grade {
		p.errorf("site %s: grade: fixture %s, computed %s", id, expected.Grade, computed.Grade)
	}
	if expected.Status != computed.Status {
		p.errorf("site %s: status: fixture %s, computed %s", id, expected.Status, computed.Status)
	}
	if expected.Diveable != computed.Diveable {
		p.errorf("site %s: diveable: fixture %v, computed %v", id, expected.Diveable, computed.Diveable)
	}
	if expected.UnsafeReason != computed.UnsafeReason {
		p.errorf("site %s: unsafe reason: fixture %q, computed %q", id, expected.UnsafeReason, computed.UnsafeReason)
	}
	if expected.Conditions.WaveSource != computed.Conditions.WaveSource {
		p.errorf("site %s: wave source: fixture %s, computed %s", id, expected.Conditions.WaveSource, computed.Conditions.WaveSource)
	}
}

func compareCoasts(p *phase, computed, expected *domain.CoastSummary) {
	if expected.Coast != computed.Coast {
		p.errorf("coast order: fixture %s, computed %s", expected.Coast, computed.Coast)
		return
	}
	if expected.DiveableCount != computed.DiveableCount || expected.TotalCount != computed.TotalCount {
		p.errorf("coast %s: fixture %d/%d, computed %d/%d", computed.Coast,
			expected.DiveableCount, expected.TotalCount, computed.DiveableCount, computed.TotalCount)
	}
	if expected.BestSite != computed.BestSite {
		p.errorf("coast %s: best site: fixture %q, computed %q", computed.Coast, expected.BestSite, computed.BestSite)
	}
}

// ── Helpers ──

// gradeBand mirrors the published grade boundaries.
func gradeBand(composite float64) domain.Grade {
	switch {
	case composite >= 85:
		return domain.GradeA
	case composite >= 70:
		return domain.GradeB
	case composite >= 55:
		return domain.GradeC
	case composite >= 40:
		return domain.GradeD
	default:
		return domain.GradeF
	}
}

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// parseClock resolves an HHMM string to a time on the fixture morning.
func parseClock(hhmm string) (time.Time, bool) {
	if len(hhmm) != 4 {
		return time.Time{}, false
	}
	hour, errHour := strconv.Atoi(hhmm[:2])
	minutes, errMin := strconv.Atoi(hhmm[2:])
	if errHour != nil || errMin != nil || hour > 23 || minutes > 59 {
		return time.Time{}, false
	}
	return time.Date(baseDate.Year(), baseDate.Month(), baseDate.Day(), hour, minutes, 0, 0, baseDate.Location()), true
}

func rowReading(row conditionRow, field string) domain.Reading {
	v, err := strconv.ParseFloat(row[field], 64)
	if err != nil {
		return domain.Reading{}
	}
	return domain.KnownReading(v)
}

func rowFloat(row conditionRow, field string) float64 {
	v, err := strconv.ParseFloat(row[field], 64)
	if err != nil {
		return 0
	}
	return v
}

func rowTime(row conditionRow, field string) time.Time {
	t, ok := parseClock(row[field])
	if !ok {
		return time.Time{}
	}
	return t
}
