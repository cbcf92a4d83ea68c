package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/dive-conditions/internal/domain"
)

func TestSiteItems_FilterPreservesRanks(t *testing.T) {
	scores := dashboardReport().Scores

	all := siteItems(scores, "")
	require.Len(t, all, 3)

	north := siteItems(scores, domain.CoastNorthShore)
	require.Len(t, north, 1)
	item := north[0].(siteItem)
	assert.Equal(t, "three_tables", item.score.Site.ID)
	assert.Equal(t, 3, item.rank, "rank reflects the island-wide position")
}

func TestSiteItem_Title(t *testing.T) {
	item := siteItem{rank: 1, score: rankedScore("kahe_point", "Kahe Point", domain.CoastWestSide, 88, true)}

	title := item.Title()
	assert.Contains(t, title, "1.")
	assert.Contains(t, title, "Kahe Point")
	assert.Contains(t, title, "88")
}

func TestSiteItem_Description(t *testing.T) {
	diveable := siteItem{rank: 1, score: rankedScore("kahe_point", "Kahe Point", domain.CoastWestSide, 88, true)}
	desc := diveable.Description()
	assert.Contains(t, desc, "West Side")
	assert.Contains(t, desc, "2.1 ft @ 12s")
	assert.Contains(t, desc, "wind 8 kt")
	assert.Contains(t, desc, "diveable")

	gated := rankedScore("three_tables", "Three Tables", domain.CoastNorthShore, 60, false)
	gated.UnsafeReason = domain.UnsafeHighSurf
	gated.Conditions.WaveSource = domain.WaveSourceModel
	desc = siteItem{rank: 3, score: gated}.Description()
	assert.Contains(t, desc, "(model)")
	assert.Contains(t, desc, "High surf warning")

	noData := domain.SiteScore{
		Site:   domain.Site{ID: "x", Name: "X", Coast: domain.CoastWindward},
		Status: domain.StatusInsufficientData,
	}
	desc = siteItem{rank: 9, score: noData}.Description()
	assert.Contains(t, desc, "no data")
	assert.NotContains(t, desc, "ft", "unknown readings stay out of the row")
}

func TestSiteItem_FilterValue(t *testing.T) {
	item := siteItem{rank: 2, score: rankedScore("magic_island", "Magic Island", domain.CoastSouthShore, 80, true)}
	assert.Contains(t, item.FilterValue(), "Magic Island")
	assert.Contains(t, item.FilterValue(), "south_shore")
}
