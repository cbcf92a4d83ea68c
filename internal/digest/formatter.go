package digest

import (
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/couchcryptid/dive-conditions/internal/domain"
)

// smsMaxLength is the carrier-side ceiling for one concatenated message.
const smsMaxLength = 1600

//go:embed email.html.tmpl
var emailFS embed.FS

var emailTemplate = template.Must(template.New("email.html.tmpl").ParseFS(emailFS, "email.html.tmpl"))

// FormatSMS renders the digest as a short text message. includeCoasts
// adds per-coast diveable counts when the recipient opted into them. The
// result never exceeds the SMS length budget.
func FormatSMS(d Digest, includeCoasts bool) string {
	loc := d.GeneratedAt.Location()
	lines := []string{"DIVE CONDITIONS " + d.GeneratedAt.Format("01/02"), ""}

	switch {
	case d.HasAlert(AlertHighSurfWarning):
		lines = append(lines, "HIGH SURF WARNING")
	case d.HasAlert(AlertHighSurfAdvisory):
		lines = append(lines, "HIGH SURF ADVISORY")
	}

	if !d.HasDiveableSites() {
		lines = append(lines, "No diveable sites today")
		if d.BigDay() {
			lines = append(lines, fmt.Sprintf("Waves %.0f-%.0fft", d.WaveRangeFt.Min, d.WaveRangeFt.Max))
		}
	} else {
		lines = append(lines, fmt.Sprintf("%d/%d sites diveable", d.DiveableSites, d.TotalSites))
		if d.BestCoast != "" {
			lines = append(lines, "Best: "+d.BestCoast)
		}
		lines = append(lines, "", "TOP SITES:")
		rank := 0
		for _, s := range d.TopSites {
			if !s.Diveable {
				continue
			}
			rank++
			line := fmt.Sprintf("%d. %s (%s)", rank, shortenName(s.Site.Name), s.Grade)
			if s.Conditions.WaveHeightFt.Known {
				line += fmt.Sprintf(" %.0fft", s.Conditions.WaveHeightFt.Value)
			}
			lines = append(lines, line)
			if rank == 3 {
				break
			}
		}
	}

	if includeCoasts {
		for i, c := range d.Coasts {
			if i == 3 {
				break
			}
			lines = append(lines, fmt.Sprintf("%s: %d OK", c.DisplayName, c.DiveableCount))
		}
	}

	if d.Tides != nil {
		if d.Tides.NextHigh != nil {
			lines = append(lines, "High: "+shortClock(d.Tides.NextHigh.Time, loc))
		}
		if d.Tides.NextLow != nil {
			lines = append(lines, "Low: "+shortClock(d.Tides.NextLow.Time, loc))
		}
	}

	msg := strings.Join(lines, "\n")
	if len(msg) > smsMaxLength {
		msg = msg[:smsMaxLength-3] + "..."
	}
	return msg
}

// FormatText renders the digest as a plain-text email body.
func FormatText(d Digest) string {
	loc := d.GeneratedAt.Location()
	var b strings.Builder
	bar := strings.Repeat("=", 50)
	rule := strings.Repeat("-", 30)

	fmt.Fprintln(&b, bar)
	fmt.Fprintln(&b, "OAHU DIVE CONDITIONS")
	fmt.Fprintln(&b, d.GeneratedAt.Format("Monday, January 2, 2006 at 3:04 PM"))
	fmt.Fprintln(&b, bar)
	fmt.Fprintln(&b)

	if len(d.Alerts) > 0 {
		fmt.Fprintln(&b, "*** ACTIVE ALERTS ***")
		for _, a := range d.Alerts {
			fmt.Fprintf(&b, "  - %s\n", a.Headline)
		}
		fmt.Fprintln(&b)
	}

	fmt.Fprintln(&b, "SUMMARY")
	fmt.Fprintln(&b, rule)
	for _, line := range summaryLines(d, loc) {
		fmt.Fprintln(&b, line)
	}
	fmt.Fprintln(&b)

	if len(d.TopSites) > 0 {
		fmt.Fprintln(&b, "TOP SITES")
		fmt.Fprintln(&b, rule)
		for i, s := range d.TopSites {
			fmt.Fprintf(&b, "%d. %s\n", i+1, s.Site.Name)
			detail := fmt.Sprintf("   Grade: %s | %s", s.Grade, statusLabel(s))
			if s.Conditions.WaveHeightFt.Known {
				detail += fmt.Sprintf(" | Waves: %.1fft", s.Conditions.WaveHeightFt.Value)
			}
			fmt.Fprintln(&b, detail)
		}
		fmt.Fprintln(&b)
	}

	if len(d.Coasts) > 0 {
		fmt.Fprintln(&b, "BY COAST")
		fmt.Fprintln(&b, rule)
		for _, c := range d.Coasts {
			line := fmt.Sprintf("%s: %d/%d diveable", c.DisplayName, c.DiveableCount, c.TotalCount)
			if c.AvgWaveKnown {
				line += fmt.Sprintf(" (%.1fft avg)", c.AvgWaveFt)
			}
			fmt.Fprintln(&b, line)
		}
		fmt.Fprintln(&b)
	}

	if d.Tides != nil {
		fmt.Fprintln(&b, "TIDES")
		fmt.Fprintln(&b, rule)
		if d.Tides.NextHigh != nil {
			fmt.Fprintf(&b, "Next High: %s (%.1f ft)\n", shortClock(d.Tides.NextHigh.Time, loc), d.Tides.NextHigh.HeightFt)
		}
		if d.Tides.NextLow != nil {
			fmt.Fprintf(&b, "Next Low: %s (%.1f ft)\n", shortClock(d.Tides.NextLow.Time, loc), d.Tides.NextLow.HeightFt)
		}
		fmt.Fprintln(&b)
	}

	if degraded := degradedSources(d.Sources); degraded != "" {
		fmt.Fprintf(&b, "Degraded sources: %s\n\n", degraded)
	}

	fmt.Fprintln(&b, "Data: NDBC, NWS, NOAA CO-OPS, USGS, Hawaii DOH")
	return b.String()
}

// FormatHTML renders the digest as an HTML email body.
func FormatHTML(d Digest) (string, error) {
	loc := d.GeneratedAt.Location()

	view := htmlEmail{
		GeneratedAt: d.GeneratedAt.Format("Monday, January 2, 2006 at 3:04 PM"),
		Summary:     summaryLines(d, loc),
		Degraded:    degradedSources(d.Sources),
	}

	for _, a := range d.Alerts {
		class := "alert-banner"
		if a.Type != AlertHighSurfWarning {
			class += " advisory"
		}
		view.Alerts = append(view.Alerts, htmlAlert{Class: class, Headline: a.Headline})
	}

	for i, s := range d.TopSites {
		waves := "n/a"
		if s.Conditions.WaveHeightFt.Known {
			waves = fmt.Sprintf("%.1f ft", s.Conditions.WaveHeightFt.Value)
		}
		view.TopSites = append(view.TopSites, htmlSite{
			Rank:   i + 1,
			Name:   s.Site.Name,
			Grade:  string(s.Grade),
			Waves:  waves,
			Status: statusLabel(s),
		})
	}

	for _, c := range d.Coasts {
		avg := "n/a"
		if c.AvgWaveKnown {
			avg = fmt.Sprintf("%.1f ft", c.AvgWaveFt)
		}
		view.Coasts = append(view.Coasts, htmlCoast{
			Name:     c.DisplayName,
			Diveable: fmt.Sprintf("%d/%d", c.DiveableCount, c.TotalCount),
			AvgWave:  avg,
		})
	}

	if d.Tides != nil {
		if d.Tides.NextHigh != nil {
			view.Tides = append(view.Tides, fmt.Sprintf("Next High: %s (%.1f ft)", shortClock(d.Tides.NextHigh.Time, loc), d.Tides.NextHigh.HeightFt))
		}
		if d.Tides.NextLow != nil {
			view.Tides = append(view.Tides, fmt.Sprintf("Next Low: %s (%.1f ft)", shortClock(d.Tides.NextLow.Time, loc), d.Tides.NextLow.HeightFt))
		}
	}
	if !d.Sunrise.IsZero() {
		view.Sun = fmt.Sprintf("Sunrise %s, sunset %s", shortClock(d.Sunrise, loc), shortClock(d.Sunset, loc))
	}

	var b strings.Builder
	if err := emailTemplate.Execute(&b, view); err != nil {
		return "", fmt.Errorf("rendering email template: %w", err)
	}
	return b.String(), nil
}

type htmlEmail struct {
	GeneratedAt string
	Alerts      []htmlAlert
	Summary     []string
	TopSites    []htmlSite
	Coasts      []htmlCoast
	Tides       []string
	Sun         string
	Degraded    string
}

type htmlAlert struct {
	Class    string
	Headline string
}

type htmlSite struct {
	Rank   int
	Name   string
	Grade  string
	Waves  string
	Status string
}

type htmlCoast struct {
	Name     string
	Diveable string
	AvgWave  string
}

// summaryLines builds the shared summary block used by the text and HTML
// bodies.
func summaryLines(d Digest, loc *time.Location) []string {
	lines := []string{fmt.Sprintf("%d/%d sites diveable", d.DiveableSites, d.TotalSites)}
	if d.BestCoast != "" {
		lines = append(lines, "Best coast: "+d.BestCoast)
	}
	if d.WaveRangeFt.Known {
		lines = append(lines, fmt.Sprintf("Waves: %.1f-%.1f ft", d.WaveRangeFt.Min, d.WaveRangeFt.Max))
	}
	if d.WindRangeKt.Known {
		lines = append(lines, fmt.Sprintf("Wind: %.0f-%.0f kt", d.WindRangeKt.Min, d.WindRangeKt.Max))
	}
	switch {
	case d.FlatDay():
		lines = append(lines, "Flat day island-wide")
	case d.BigDay():
		lines = append(lines, "Big surf island-wide")
	}
	if !d.Sunrise.IsZero() {
		lines = append(lines, fmt.Sprintf("Sun: %s to %s", shortClock(d.Sunrise, loc), shortClock(d.Sunset, loc)))
	}
	return lines
}

func statusLabel(s domain.SiteScore) string {
	switch {
	case s.Diveable:
		return "DIVEABLE"
	case s.Status == domain.StatusInsufficientData:
		return "NO DATA"
	default:
		return "UNSAFE"
	}
}

func degradedSources(statuses []domain.SourceStatus) string {
	var failed []string
	for _, s := range statuses {
		if !s.OK {
			failed = append(failed, s.Source)
		}
	}
	return strings.Join(failed, ", ")
}

// shortenName compresses a site name for the SMS budget.
func shortenName(name string) string {
	if i := strings.Index(name, "("); i >= 0 {
		name = strings.TrimSpace(name[:i])
	}
	name = strings.ReplaceAll(name, " Beach", "")
	name = strings.ReplaceAll(name, " Bay", "")
	name = strings.ReplaceAll(name, " Point", " Pt")
	if len(name) > 20 {
		name = name[:18] + ".."
	}
	return name
}

// shortClock renders a time like "6:45am" in the display location.
func shortClock(t time.Time, loc *time.Location) string {
	return strings.ToLower(t.In(loc).Format("3:04PM"))
}
