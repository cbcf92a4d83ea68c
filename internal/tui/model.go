package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/couchcryptid/dive-conditions/internal/domain"
)

// AppState represents the current state of the dashboard
type AppState int

const (
	StateLoading AppState = iota // Fetching the first report
	StateDisplay                 // Showing the ranked sites
	StateError                   // No report could be fetched
)

// coastFilters cycles from the all-coasts view through each coast.
var coastFilters = append([]domain.Coast{""}, domain.AllCoasts()...)

// Model is the dashboard's state
type Model struct {
	state  AppState
	width  int
	height int
	err    error

	client       *Client
	refreshEvery time.Duration

	report      *domain.DailyReport
	fetchedAt   time.Time
	coastFilter int

	siteList list.Model
	spinner  spinner.Model
}

// NewModel creates a dashboard model polling the given ranker client.
func NewModel(client *Client, refreshEvery time.Duration) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return Model{
		state:        StateLoading,
		client:       client,
		refreshEvery: refreshEvery,
		siteList:     createSiteList(nil, 0, 0),
		spinner:      s,
	}
}

// Init kicks off the spinner and the first report fetch.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, fetchReport(m.client))
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = msg.Width
		m.height = msg.Height
		m.siteList.SetSize(msg.Width-4, listHeight(msg.Height))
		return m, nil
	}

	switch msg := msg.(type) {
	case reportFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			// Keep showing the last good report on a failed refresh.
			if m.report == nil {
				m.state = StateError
			}
			return m, scheduleRefresh(m.refreshEvery)
		}
		report := msg.report
		m.report = &report
		m.fetchedAt = time.Now()
		m.err = nil
		m.state = StateDisplay
		cmd = m.siteList.SetItems(siteItems(report.Scores, coastFilters[m.coastFilter]))
		return m, tea.Batch(cmd, scheduleRefresh(m.refreshEvery))

	case refreshTickMsg:
		return m, fetchReport(m.client)
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			return m, fetchReport(m.client)
		}

		if m.state == StateDisplay {
			switch keyMsg.String() {
			case "tab", "right":
				m.coastFilter = (m.coastFilter + 1) % len(coastFilters)
				return m, m.siteList.SetItems(siteItems(m.report.Scores, coastFilters[m.coastFilter]))
			case "shift+tab", "left":
				m.coastFilter = (m.coastFilter + len(coastFilters) - 1) % len(coastFilters)
				return m, m.siteList.SetItems(siteItems(m.report.Scores, coastFilters[m.coastFilter]))
			}
		}
	}

	switch m.state {
	case StateLoading:
		m.spinner, cmd = m.spinner.Update(msg)
	case StateDisplay:
		m.siteList, cmd = m.siteList.Update(msg)
	}

	return m, cmd
}

// View renders the UI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	switch m.state {
	case StateLoading:
		return m.viewLoading()
	case StateDisplay:
		return m.viewDisplay()
	case StateError:
		return m.viewError()
	}

	return ""
}

func (m Model) viewLoading() string {
	return fmt.Sprintf("\n %s Fetching the latest dive report...\n", m.spinner.View())
}

func (m Model) viewError() string {
	title := errorTitleStyle.Render("Report unavailable")

	var errMsg string
	if m.err != nil {
		errMsg = m.err.Error()
	} else {
		errMsg = "an unknown error occurred"
	}

	help := helpStyle.Render("R: Retry • Q: Quit")

	return lipgloss.JoinVertical(lipgloss.Left, title, "", errMsg, "", help)
}

func (m Model) viewDisplay() string {
	r := m.report

	var sections []string
	sections = append(sections, titleStyle.Render("Oahu Dive Conditions"))
	sections = append(sections, mutedStyle.Render(fmt.Sprintf(
		"Generated %s • %d/%d sites diveable",
		r.GeneratedAt.Format("Mon Jan 2 3:04 PM"), r.DiveableCount, r.TotalCount,
	)))

	for _, a := range r.Alerts {
		sections = append(sections, alertLine(a))
	}
	if m.err != nil {
		sections = append(sections, advisoryStyle.Render("refresh failed, showing last report: "+m.err.Error()))
	}

	sections = append(sections, "")
	if strip := coastStrip(r.Coasts); strip != "" {
		sections = append(sections, strip)
	}
	sections = append(sections, filterStyle.Render("Coast: "+filterLabel(coastFilters[m.coastFilter])))
	sections = append(sections, m.siteList.View())

	help := helpStyle.Render("R: Refresh • Tab: Cycle coast • Q: Quit")
	sections = append(sections, help)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func alertLine(a domain.MarineAlert) string {
	text := a.Headline
	if text == "" {
		text = a.Event
	}
	if strings.Contains(strings.ToLower(a.Event), "warning") {
		return alertStyle.Render("! " + text)
	}
	return advisoryStyle.Render("! " + text)
}

// coastStrip renders the per-coast diveable counts in one line.
func coastStrip(coasts []domain.CoastSummary) string {
	if len(coasts) == 0 {
		return ""
	}
	parts := make([]string, 0, len(coasts))
	for _, c := range coasts {
		parts = append(parts, fmt.Sprintf("%s %d/%d", c.Coast.DisplayName(), c.DiveableCount, c.TotalCount))
	}
	return mutedStyle.Render(strings.Join(parts, " • "))
}

func filterLabel(coast domain.Coast) string {
	if coast == "" {
		return "All"
	}
	return coast.DisplayName()
}

func listHeight(height int) int {
	h := height - 11
	if h < 5 {
		h = 5
	}
	return h
}
