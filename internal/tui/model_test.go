package tui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/dive-conditions/internal/domain"
)

// --- helpers ---

func rankedScore(id, name string, coast domain.Coast, composite float64, diveable bool) domain.SiteScore {
	grade := domain.GradeA
	status := domain.StatusOK
	if !diveable {
		grade = domain.GradeF
		status = domain.StatusGated
	}
	return domain.SiteScore{
		Site:      domain.Site{ID: id, Name: name, Coast: coast},
		Composite: composite,
		Grade:     grade,
		Diveable:  diveable,
		Status:    status,
		Conditions: domain.SiteConditions{
			SiteID:       id,
			WaveHeightFt: domain.KnownReading(2.1),
			WavePeriodS:  domain.KnownReading(12),
			WindSpeedKt:  domain.KnownReading(8),
		},
	}
}

func dashboardReport() domain.DailyReport {
	return domain.DailyReport{
		ID:          "r-1",
		GeneratedAt: time.Date(2026, 8, 15, 8, 0, 0, 0, time.UTC),
		Scores: []domain.SiteScore{
			rankedScore("kahe_point", "Kahe Point", domain.CoastWestSide, 88, true),
			rankedScore("magic_island", "Magic Island", domain.CoastSouthShore, 80, true),
			rankedScore("three_tables", "Three Tables", domain.CoastNorthShore, 60, false),
		},
		Coasts: []domain.CoastSummary{
			{Coast: domain.CoastWestSide, AnyDiveable: true, BestSite: "Kahe Point", DiveableCount: 1, TotalCount: 1},
			{Coast: domain.CoastNorthShore, TotalCount: 1},
		},
		DiveableCount: 2,
		TotalCount:    3,
		Alerts:        []domain.MarineAlert{{Event: "High Surf Warning", Headline: "High Surf Warning until 6 PM"}},
	}
}

func displayModel(t *testing.T) Model {
	t.Helper()
	m := NewModel(NewClient("http://localhost:8080"), time.Hour)

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m = updated.(Model)

	updated, cmd := m.Update(reportFetchedMsg{report: dashboardReport()})
	m = updated.(Model)
	require.NotNil(t, cmd, "a fetched report schedules the next refresh")
	require.Equal(t, StateDisplay, m.state)
	return m
}

// --- tests ---

func TestNewModel(t *testing.T) {
	m := NewModel(NewClient("http://localhost:8080"), time.Minute)

	assert.Equal(t, StateLoading, m.state)
	assert.Equal(t, time.Minute, m.refreshEvery)
	assert.Nil(t, m.report)
	assert.NotNil(t, m.Init(), "Init starts the first fetch")
}

func TestModel_Update_WindowSize(t *testing.T) {
	m := NewModel(NewClient("http://localhost:8080"), time.Minute)

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = updated.(Model)

	assert.Equal(t, 120, m.width)
	assert.Equal(t, 40, m.height)
}

func TestModel_ReportFetched(t *testing.T) {
	m := displayModel(t)

	require.NotNil(t, m.report)
	assert.Equal(t, "r-1", m.report.ID)
	assert.Len(t, m.siteList.Items(), 3)
	assert.False(t, m.fetchedAt.IsZero())
	assert.NoError(t, m.err)
}

func TestModel_FirstFetchFailure(t *testing.T) {
	m := NewModel(NewClient("http://localhost:8080"), time.Minute)

	updated, cmd := m.Update(reportFetchedMsg{err: errors.New("connection refused")})
	m = updated.(Model)

	assert.Equal(t, StateError, m.state)
	assert.Error(t, m.err)
	assert.NotNil(t, cmd, "failures still schedule a retry tick")
}

func TestModel_RefreshFailureKeepsReport(t *testing.T) {
	m := displayModel(t)

	updated, _ := m.Update(reportFetchedMsg{err: errors.New("ranker restarting")})
	m = updated.(Model)

	assert.Equal(t, StateDisplay, m.state, "a stale report beats a blank screen")
	require.NotNil(t, m.report)
	assert.Error(t, m.err)
}

func TestModel_CoastFilterCycling(t *testing.T) {
	m := displayModel(t)
	require.Equal(t, 0, m.coastFilter)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = updated.(Model)
	assert.Equal(t, 1, m.coastFilter)
	assert.Equal(t, domain.CoastNorthShore, coastFilters[m.coastFilter])
	assert.Len(t, m.siteList.Items(), 1, "only the north shore site remains")

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	m = updated.(Model)
	assert.Equal(t, 0, m.coastFilter)
	assert.Len(t, m.siteList.Items(), 3)

	// Cycling left from the all-coasts view wraps to the last coast.
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	m = updated.(Model)
	assert.Equal(t, len(coastFilters)-1, m.coastFilter)
}

func TestModel_RefreshTick(t *testing.T) {
	m := displayModel(t)

	_, cmd := m.Update(refreshTickMsg(time.Now()))
	assert.NotNil(t, cmd, "a tick triggers the next fetch")
}

func TestModel_QuitKeys(t *testing.T) {
	m := NewModel(NewClient("http://localhost:8080"), time.Minute)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModel_View_States(t *testing.T) {
	tests := []struct {
		name  string
		state AppState
	}{
		{"loading", StateLoading},
		{"display", StateDisplay},
		{"error", StateError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m Model
			if tt.state == StateDisplay {
				m = displayModel(t)
			} else {
				m = NewModel(NewClient("http://localhost:8080"), time.Minute)
				updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
				m = updated.(Model)
				m.state = tt.state
			}

			assert.NotEmpty(t, m.View())
		})
	}
}

func TestModel_View_InitialLoading(t *testing.T) {
	m := NewModel(NewClient("http://localhost:8080"), time.Minute)
	assert.Equal(t, "Loading...", m.View(), "no window size yet")
}

func TestModel_ViewDisplay_Content(t *testing.T) {
	m := displayModel(t)
	view := m.View()

	assert.Contains(t, view, "Oahu Dive Conditions")
	assert.Contains(t, view, "2/3 sites diveable")
	assert.Contains(t, view, "High Surf Warning until 6 PM")
	assert.Contains(t, view, "Coast: All")
}
