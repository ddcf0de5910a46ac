// Package about renders the help/about overlay from Markdown.
package about

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/netphils/cefdetector-standalone/internal/theme"
)

const body = `# cefdetector

Finds installed applications that ship their own browser runtime:
libcef, Electron, NW.js, CefSharp, MiniBlink and Chromium derivatives.

## Usage

1. Press **c** to count installed applications (统计已安装的应用).
2. Press **a** to analyze them. Results appear one card at a time.
3. Sizes include the whole program directory.

| key | action |
|-----|--------|
| c | count |
| a | analyze |
| j / k | scroll results |
| d | event log |
| o | open project page |
| ? | this page |
| q | quit |

Project page: %s
`

// Model caches the rendered page for one width.
type Model struct {
	URL string

	width    int
	rendered string
}

// New creates the overlay for the given project URL.
func New(url string) Model {
	return Model{URL: url}
}

// Markdown returns the page source.
func (m Model) Markdown() string {
	return fmt.Sprintf(body, m.URL)
}

// View renders the overlay at width.
func (m *Model) View(width int) string {
	innerW := width - 8
	if innerW < 30 {
		innerW = 30
	}
	if m.rendered == "" || m.width != innerW {
		m.rendered = render(m.Markdown(), innerW)
		m.width = innerW
	}
	help := theme.StyleDimmed.Render("o:open link  esc:close")
	return lipgloss.NewStyle().
		Width(innerW + 4).
		Padding(0, 2).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorAccent).
		Render(lipgloss.JoinVertical(lipgloss.Left, m.rendered, help))
}

func render(md string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}
