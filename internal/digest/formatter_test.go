package digest

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/dive-conditions/internal/domain"
)

func TestFormatSMS_DiveableDay(t *testing.T) {
	d := Build(testReport(), testHST)
	msg := FormatSMS(d, false)

	assert.True(t, strings.HasPrefix(msg, "DIVE CONDITIONS 08/15\n"))
	assert.Contains(t, msg, "HIGH SURF WARNING")
	assert.Contains(t, msg, "3/6 sites diveable")
	assert.Contains(t, msg, "Best: West Side")
	assert.Contains(t, msg, "TOP SITES:")
	assert.Contains(t, msg, "1. Kahe Pt (A) 2ft")
	assert.Contains(t, msg, "2. Magic Island (B) 2ft")
	assert.Contains(t, msg, "3. Lanikai Reef (B) 2ft")
	assert.NotContains(t, msg, "Hanauma", "gated sites stay off the top list")
	assert.Contains(t, msg, "High: 10:14am")
	assert.Contains(t, msg, "Low: 4:30pm")
	assert.NotContains(t, msg, "West Side: ", "coast counts are opt-in")
	assert.LessOrEqual(t, len(msg), smsMaxLength)
}

func TestFormatSMS_CoastCounts(t *testing.T) {
	d := Build(testReport(), testHST)
	msg := FormatSMS(d, true)

	assert.Contains(t, msg, "West Side: 1 OK")
	assert.Contains(t, msg, "South Shore: 1 OK")
	assert.Contains(t, msg, "Windward: 1 OK")
	assert.NotContains(t, msg, "North Shore:", "only the top three coasts fit")
}

func TestFormatSMS_NothingDiveable(t *testing.T) {
	d := Digest{
		GeneratedAt: time.Date(2026, 12, 2, 6, 0, 0, 0, testHST),
		TotalSites:  6,
		WaveRangeFt: Range{Min: 6.2, Max: 18.4, Known: true},
		Alerts:      []Alert{{Type: AlertHighSurfWarning, Headline: "High Surf Warning"}},
	}
	msg := FormatSMS(d, false)

	assert.Contains(t, msg, "No diveable sites today")
	assert.Contains(t, msg, "Waves 6-18ft")
	assert.NotContains(t, msg, "TOP SITES:")
}

func TestFormatSMS_TruncatesToBudget(t *testing.T) {
	d := Build(testReport(), testHST)
	d.BestCoast = strings.Repeat("West ", 400)
	msg := FormatSMS(d, false)

	assert.Len(t, msg, smsMaxLength)
	assert.True(t, strings.HasSuffix(msg, "..."))
}

func TestFormatText(t *testing.T) {
	d := Build(testReport(), testHST)
	body := FormatText(d)

	assert.Contains(t, body, strings.Repeat("=", 50))
	assert.Contains(t, body, "OAHU DIVE CONDITIONS")
	assert.Contains(t, body, "Saturday, August 15, 2026 at 8:00 AM")
	assert.Contains(t, body, "*** ACTIVE ALERTS ***")
	assert.Contains(t, body, "  - High Surf Warning until 6 PM HST")
	assert.Contains(t, body, "SUMMARY")
	assert.Contains(t, body, "3/6 sites diveable")
	assert.Contains(t, body, "Best coast: West Side")
	assert.Contains(t, body, "Waves: 1.6-6.5 ft")
	assert.Contains(t, body, "Big surf island-wide")
	assert.Contains(t, body, "1. Kahe Point")
	assert.Contains(t, body, "Grade: A | DIVEABLE | Waves: 1.6ft")
	assert.Contains(t, body, "Grade: F | UNSAFE")
	assert.Contains(t, body, "BY COAST")
	assert.Contains(t, body, "West Side: 1/1 diveable (1.6ft avg)")
	assert.Contains(t, body, "Next High: 10:14am (1.8 ft)")
	assert.Contains(t, body, "Next Low: 4:30pm (0.4 ft)")
	assert.Contains(t, body, "Degraded sources: usgs")
	assert.Contains(t, body, "Data: NDBC, NWS, NOAA CO-OPS, USGS, Hawaii DOH")
}

func TestFormatText_NoDataSiteLabel(t *testing.T) {
	report := testReport()
	body := FormatText(Build(report, testHST))
	assert.NotContains(t, body, "NO DATA", "the no-data site sits below the top five")

	report.Scores = report.Scores[5:]
	report.TotalCount = 1
	report.DiveableCount = 0
	body = FormatText(Build(report, testHST))
	assert.Contains(t, body, "Grade: F | NO DATA")
}

func TestFormatHTML(t *testing.T) {
	d := Build(testReport(), testHST)
	body, err := FormatHTML(d)
	require.NoError(t, err)

	assert.Contains(t, body, "<!DOCTYPE html>")
	assert.Contains(t, body, "<h1>Oahu Dive Conditions</h1>")
	assert.Contains(t, body, `class="alert-banner"`)
	assert.Contains(t, body, `class="grade-A"`)
	assert.Contains(t, body, "<td>Kahe Point</td>")
	assert.Contains(t, body, "<td>1/1</td>")
	assert.Contains(t, body, "Next High: 10:14am (1.8 ft)")
	assert.Contains(t, body, "Sunrise ")
	assert.Contains(t, body, "Data sources: NDBC buoys, NWS, NOAA CO-OPS, USGS, Hawaii DOH")
}

func TestFormatHTML_EscapesSiteNames(t *testing.T) {
	d := Build(testReport(), testHST)
	d.TopSites = append([]domain.SiteScore{}, d.TopSites...)
	d.TopSites[0].Site.Name = `Kahe <script>alert("x")</script>`

	body, err := FormatHTML(d)
	require.NoError(t, err)
	assert.NotContains(t, body, "<script>alert")
	assert.Contains(t, body, "&lt;script&gt;")
}

func TestShortenName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Three Tables", "Three Tables"},
		{"Hanauma Bay", "Hanauma"},
		{"Kahe Point", "Kahe Pt"},
		{"Sharks Cove (Pupukea)", "Sharks Cove"},
		{"Queens Surf Breakwall Left", "Queens Surf Breakw.."},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, shortenName(tc.in), "input %q", tc.in)
	}
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "DIVEABLE", statusLabel(domain.SiteScore{Diveable: true, Status: domain.StatusOK}))
	assert.Equal(t, "UNSAFE", statusLabel(domain.SiteScore{Status: domain.StatusGated}))
	assert.Equal(t, "NO DATA", statusLabel(domain.SiteScore{Status: domain.StatusInsufficientData}))
}
