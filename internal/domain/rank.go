package domain

import (
	"sort"
	"time"
)

// RankOptions controls a ranking run.
type RankOptions struct {
	// IncludeOutOfSeason scores every catalog site regardless of its
	// seasonal window.
	IncludeOutOfSeason bool

	// GeneratedAt is the report time used for the seasonal filter and the
	// time-of-day sub-score. Zero means the current clock time.
	GeneratedAt time.Time
}

// CoastSummary reports the best diveable site on one coast, or marks the
// coast as having none.
type CoastSummary struct {
	Coast         Coast   `json:"coast"`
	AnyDiveable   bool    `json:"any_diveable"`
	BestSite      string  `json:"best_site,omitempty"`
	BestComposite float64 `json:"best_composite,omitempty"`
	BestGrade     Grade   `json:"best_grade,omitempty"`
	DiveableCount int     `json:"diveable_count"`
	TotalCount    int     `json:"total_count"`
}

// DailyReport is the ordered scoring result for one run. It is immutable
// after construction. ID, Alerts, and Sources are filled by the refresh
// loop; Rank leaves them empty.
type DailyReport struct {
	ID            string         `json:"report_id,omitempty"`
	GeneratedAt   time.Time      `json:"generated_at"`
	Scores        []SiteScore    `json:"scores"`
	Coasts        []CoastSummary `json:"coasts"`
	DiveableCount int            `json:"diveable_count"`
	TotalCount    int            `json:"total_count"`
	Alerts        []MarineAlert  `json:"alerts,omitempty"`
	Sources       []SourceStatus `json:"sources,omitempty"`
}

// Rank scores every candidate site and assembles the ordered daily
// report: diveable sites first, then by composite descending, ties broken
// by site name ascending. The ordering is a total order, so the result is
// independent of input order.
//
// A site whose conditions are missing or whose scoring fails is carried
// in the report with insufficient-data status rather than aborting the
// run; such sites count toward the total but never toward diveable.
func Rank(sites []Site, conditions map[string]SiteConditions, opts RankOptions, cfg ScoringConfig) DailyReport {
	at := opts.GeneratedAt
	if at.IsZero() {
		at = clock.Now()
	}

	scores := make([]SiteScore, 0, len(sites))
	for _, site := range sites {
		if !opts.IncludeOutOfSeason && !site.Season.Contains(at.Month()) {
			continue
		}
		c, ok := conditions[site.ID]
		if !ok {
			scores = append(scores, insufficientScore(site, SiteConditions{SiteID: site.ID}))
			continue
		}
		s, err := Score(site, c, cfg, at)
		if err != nil {
			scores = append(scores, insufficientScore(site, c))
			continue
		}
		scores = append(scores, s)
	}

	sort.SliceStable(scores, func(i, j int) bool {
		a, b := scores[i], scores[j]
		if a.Diveable != b.Diveable {
			return a.Diveable
		}
		if a.Composite != b.Composite {
			return a.Composite > b.Composite
		}
		return a.Site.Name < b.Site.Name
	})

	report := DailyReport{
		GeneratedAt: at,
		Scores:      scores,
		TotalCount:  len(scores),
	}
	for _, s := range scores {
		if s.Diveable {
			report.DiveableCount++
		}
	}
	report.Coasts = summarizeCoasts(scores)
	return report
}

// summarizeCoasts walks the already-sorted scores once per coast; the
// first diveable site seen in sort order is that coast's best.
func summarizeCoasts(scores []SiteScore) []CoastSummary {
	summaries := make([]CoastSummary, 0, len(AllCoasts()))
	for _, coast := range AllCoasts() {
		summary := CoastSummary{Coast: coast}
		for _, s := range scores {
			if s.Site.Coast != coast {
				continue
			}
			summary.TotalCount++
			if !s.Diveable {
				continue
			}
			summary.DiveableCount++
			if !summary.AnyDiveable {
				summary.AnyDiveable = true
				summary.BestSite = s.Site.Name
				summary.BestComposite = s.Composite
				summary.BestGrade = s.Grade
			}
		}
		if summary.TotalCount == 0 {
			continue
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

// insufficientScore records a site whose data never arrived or whose
// scoring failed. The zero composite lands it at the bottom of the
// not-diveable block.
func insufficientScore(site Site, c SiteConditions) SiteScore {
	if c.WaveSource == "" {
		c.WaveSource = WaveSourceNone
	}
	if c.TideState == "" {
		c.TideState = TideStateUnknown
	}
	return SiteScore{
		Site:       site,
		Conditions: c,
		Composite:  0,
		Grade:      GradeF,
		Diveable:   false,
		Status:     StatusInsufficientData,
	}
}
