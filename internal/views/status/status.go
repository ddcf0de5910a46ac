// Package status renders the top status bar: backend host, count outcome,
// analysis gate and the age of the last analysis.
package status

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/netphils/cefdetector-standalone/internal/client"
	"github.com/netphils/cefdetector-standalone/internal/format"
	"github.com/netphils/cefdetector-standalone/internal/theme"
)

// Model holds the status bar state.
type Model struct {
	Health    *client.Health
	HealthErr bool
	CountText string
	Unlocked  bool
	Summary   client.AnalysisSummary
	LastRunAt time.Time
	Width     int

	now func() time.Time
}

// New creates a status bar model.
func New() Model {
	return Model{now: time.Now}
}

// View renders the status bar.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}

	var conn string
	switch {
	case m.Health != nil:
		conn = lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render(
			fmt.Sprintf("● %s (%s/%s)", m.Health.Hostname, m.Health.OS, m.Health.KernelArch))
	case m.HealthErr:
		conn = lipgloss.NewStyle().Foreground(theme.ColorDanger).Render("○ backend unreachable")
	default:
		conn = lipgloss.NewStyle().Foreground(theme.ColorWarning).Render("○ connecting...")
	}

	count := m.CountText
	if count == "" {
		count = "未统计"
	}

	var gate string
	if m.Unlocked {
		gate = lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render("analysis ready")
	} else {
		gate = theme.StyleDimmed.Render("analysis locked")
	}

	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | ")
	content := conn + sep + count + sep + gate
	if !m.LastRunAt.IsZero() {
		now := time.Now
		if m.now != nil {
			now = m.now
		}
		last := fmt.Sprintf("last run %s: %d, %s",
			humanize.RelTime(m.LastRunAt, now(), "ago", "from now"),
			m.Summary.Count, format.FormatSize(m.Summary.SizeBytes))
		content += sep + theme.StyleDimmed.Render(last)
	}

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}
