package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/couchcryptid/dive-conditions/internal/domain"
)

// siteItem wraps one ranked site for the list component. rank is the
// site's position in the full island ranking, so it holds steady when a
// coast filter narrows the view.
type siteItem struct {
	rank  int
	score domain.SiteScore
}

// FilterValue implements list.Item
func (s siteItem) FilterValue() string {
	return s.score.Site.Name + " " + string(s.score.Site.Coast)
}

// Title implements list.DefaultItem
func (s siteItem) Title() string {
	grade := gradeStyle(s.score.Grade).Render(string(s.score.Grade))
	return fmt.Sprintf("%2d. %s  %s %3.0f", s.rank, s.score.Site.Name, grade, s.score.Composite)
}

// Description implements list.DefaultItem
func (s siteItem) Description() string {
	parts := []string{s.score.Site.Coast.DisplayName()}
	c := s.score.Conditions

	if c.WaveHeightFt.Known {
		wave := fmt.Sprintf("%.1f ft", c.WaveHeightFt.Value)
		if c.WavePeriodS.Known {
			wave += fmt.Sprintf(" @ %.0fs", c.WavePeriodS.Value)
		}
		if c.WaveSource == domain.WaveSourceModel {
			wave += " (model)"
		}
		parts = append(parts, wave)
	}
	if c.WindSpeedKt.Known {
		parts = append(parts, fmt.Sprintf("wind %.0f kt", c.WindSpeedKt.Value))
	}
	parts = append(parts, siteStatusText(s.score))

	return strings.Join(parts, " | ")
}

// siteStatusText renders a site's bottom-line status for the list row.
func siteStatusText(s domain.SiteScore) string {
	switch {
	case s.Diveable:
		return diveableStyle.Render("diveable")
	case s.Status == domain.StatusInsufficientData:
		return mutedStyle.Render("no data")
	default:
		return alertStyle.Render(s.UnsafeReason.DisplayString())
	}
}

// createSiteList builds the ranked site list component.
func createSiteList(items []list.Item, width, height int) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), width, height)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	return l
}

// siteItems converts ranked scores into list items, keeping only sites on
// coast when it is non-empty. Ranks count positions in the full ranking.
func siteItems(scores []domain.SiteScore, coast domain.Coast) []list.Item {
	items := make([]list.Item, 0, len(scores))
	for i, s := range scores {
		if coast != "" && s.Site.Coast != coast {
			continue
		}
		items = append(items, siteItem{rank: i + 1, score: s})
	}
	return items
}
