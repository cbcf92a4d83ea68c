// Command dashboard is a terminal UI over a running ranker service. It
// polls /v1/report and shows the ranked sites with per-coast filtering.
//
// Usage:
//
//	go run ./cmd/dashboard -addr http://localhost:8080
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/couchcryptid/dive-conditions/internal/tui"
)

func main() {
	addr := flag.String("addr", "http://localhost:8080", "base URL of the ranker service")
	refresh := flag.Duration("refresh", 5*time.Minute, "how often to re-fetch the report")
	flag.Parse()

	model := tui.NewModel(tui.NewClient(*addr), *refresh)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error running dashboard: %v\n", err)
		os.Exit(1)
	}
}
