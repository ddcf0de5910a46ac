// Package debug provides the scrollable event log overlay. Every backend
// interaction of a detection session is journaled here, including the
// total-size line written when an analysis completes.
package debug

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/netphils/cefdetector-standalone/internal/theme"
)

const maxEntries = 500

// Kind classifies a journal entry.
type Kind string

const (
	KindCount    Kind = "cnt"
	KindAnalysis Kind = "ana"
	KindStream   Kind = "sub"
	KindItem     Kind = "item"
	KindHealth   Kind = "hlth"
	KindError    Kind = "err"
)

// Entry is a single event log line.
type Entry struct {
	Time    time.Time
	Kind    Kind
	Message string
}

// Model holds the journal and its scroll position.
type Model struct {
	Entries []Entry
	Offset  int // from bottom
}

// New creates an empty journal.
func New() Model {
	return Model{}
}

// Add appends an entry, caps the buffer and scrolls back to the newest line.
func (m *Model) Add(kind Kind, message string) {
	m.Entries = append(m.Entries, Entry{
		Time:    time.Now(),
		Kind:    kind,
		Message: message,
	})
	if len(m.Entries) > maxEntries {
		m.Entries = m.Entries[len(m.Entries)-maxEntries:]
	}
	m.Offset = 0
}

// Addf is Add with formatting.
func (m *Model) Addf(kind Kind, format string, args ...any) {
	m.Add(kind, fmt.Sprintf(format, args...))
}

// Last returns the newest entry of the given kind.
func (m Model) Last(kind Kind) (Entry, bool) {
	for i := len(m.Entries) - 1; i >= 0; i-- {
		if m.Entries[i].Kind == kind {
			return m.Entries[i], true
		}
	}
	return Entry{}, false
}

// ScrollUp moves toward older entries.
func (m *Model) ScrollUp(n int) {
	m.Offset += n
	max := len(m.Entries) - 1
	if max < 0 {
		max = 0
	}
	if m.Offset > max {
		m.Offset = max
	}
}

// ScrollDown moves toward newer entries.
func (m *Model) ScrollDown(n int) {
	m.Offset -= n
	if m.Offset < 0 {
		m.Offset = 0
	}
}

func panelStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Width(width).
		Padding(1, 2).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder)
}

// View renders the journal as an overlay panel.
func (m Model) View(width, height int) string {
	innerW := width - 4
	if innerW < 20 {
		innerW = 20
	}
	visibleLines := height - 6
	if visibleLines < 3 {
		visibleLines = 3
	}

	title := theme.StyleHeader.Render(" EVENT LOG ")
	help := theme.StyleDimmed.Render(fmt.Sprintf("j/k:scroll  esc:close  %d entries", len(m.Entries)))

	if len(m.Entries) == 0 {
		body := theme.StyleDimmed.Render("  No events recorded yet.")
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", body, "", help)
		return panelStyle(innerW).Render(content)
	}

	end := len(m.Entries) - m.Offset
	start := end - visibleLines
	if start < 0 {
		start = 0
	}
	if end < 0 {
		end = 0
	}

	msgW := innerW - 24
	var lines []string
	for i := start; i < end; i++ {
		e := m.Entries[i]
		ts := theme.StyleDimmed.Render(e.Time.Format("15:04:05.000"))
		kind := lipgloss.NewStyle().Foreground(kindColor(e.Kind)).Width(5).Render(string(e.Kind))
		lines = append(lines, fmt.Sprintf("%s %s %s", ts, kind, truncate(e.Message, msgW)))
	}

	body := strings.Join(lines, "\n")
	more := ""
	if m.Offset > 0 {
		more = theme.StyleDimmed.Render(fmt.Sprintf(" ↓ %d more", m.Offset))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, title, body, more, help)
	return panelStyle(innerW).Render(content)
}

// truncate cuts s to at most w runes, marking the cut with an ellipsis.
func truncate(s string, w int) string {
	if w < 4 {
		return s
	}
	r := []rune(s)
	if len(r) <= w {
		return s
	}
	return string(r[:w-1]) + "…"
}

func kindColor(kind Kind) lipgloss.Color {
	switch kind {
	case KindCount:
		return theme.ColorAccent
	case KindAnalysis:
		return theme.ColorHealthy
	case KindStream, KindItem:
		return theme.ColorElectron
	case KindHealth:
		return theme.ColorWarning
	case KindError:
		return theme.ColorDanger
	default:
		return theme.ColorDimmed
	}
}
