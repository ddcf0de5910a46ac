package results

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"github.com/netphils/cefdetector-standalone/internal/client"
	"github.com/netphils/cefdetector-standalone/internal/format"
	"github.com/netphils/cefdetector-standalone/internal/theme"
)

const (
	cardWidth = 30
	nameWidth = cardWidth - 4 // padding plus glyph column
)

var (
	styleCard = theme.StyleBorder.
			Padding(0, 1).
			Width(cardWidth)

	styleName = lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorBright)

	styleField = lipgloss.NewStyle().
			Foreground(theme.ColorDimmed)
)

// Card renders a single discovered item as a bordered card: icon marker,
// name, engine type and formatted size.
func Card(item client.DiscoveredItem) string {
	color := theme.BrowserTypeColor(item.BrowserType)
	glyph := lipgloss.NewStyle().Foreground(color).Render(theme.BrowserGlyph(item.BrowserType, item.Icon))

	name := wordwrap.String(item.DisplayName, nameWidth)
	name = strings.ReplaceAll(name, "\n", "\n  ")

	body := lipgloss.JoinVertical(lipgloss.Left,
		glyph+" "+styleName.Render(name),
		styleField.Render("类型: ")+lipgloss.NewStyle().Foreground(color).Render(item.BrowserType),
		styleField.Render("大小: "+format.FormatSize(item.SizeBytes)),
	)
	return styleCard.Render(body)
}
