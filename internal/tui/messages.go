package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/couchcryptid/dive-conditions/internal/domain"
)

// reportFetchedMsg is sent when a report fetch completes.
type reportFetchedMsg struct {
	report domain.DailyReport
	err    error
}

// refreshTickMsg fires when the auto-refresh interval elapses.
type refreshTickMsg time.Time

func fetchReport(client *Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		report, err := client.Report(ctx)
		return reportFetchedMsg{report: report, err: err}
	}
}

func scheduleRefresh(every time.Duration) tea.Cmd {
	return tea.Tick(every, func(t time.Time) tea.Msg {
		return refreshTickMsg(t)
	})
}
