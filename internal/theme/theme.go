// Package theme provides the Lip Gloss color palette and reusable styles
// for the cefdetector TUI. It is a leaf package with no internal imports
// to avoid import cycles.
package theme

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Rendering-engine colors, keyed by the backend's browserType labels.
var (
	ColorLibcef    = lipgloss.Color("#f97316")
	ColorElectron  = lipgloss.Color("#47848f")
	ColorNWJS      = lipgloss.Color("#a855f7")
	ColorCefSharp  = lipgloss.Color("#3b82f6")
	ColorMiniBlink = lipgloss.Color("#ec4899")
	ColorChromium  = lipgloss.Color("#22c55e")
	ColorEdge      = lipgloss.Color("#06b6d4")
	ColorFirefox   = lipgloss.Color("#f59e0b")
	ColorDefault   = lipgloss.Color("#9ca3af")
)

// UI chrome colors.
var (
	ColorBorder  = lipgloss.Color("#4b5563")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorBright  = lipgloss.Color("#f9fafb")
	ColorAccent  = lipgloss.Color("#7c3aed")
	ColorHealthy = lipgloss.Color("#22c55e")
	ColorWarning = lipgloss.Color("#d97706")
	ColorDanger  = lipgloss.Color("#dc2626")
)

// BrowserTypeColor returns the Lip Gloss color for a browserType label.
func BrowserTypeColor(browserType string) lipgloss.Color {
	t := strings.ToLower(browserType)
	switch {
	case t == "libcef":
		return ColorLibcef
	case strings.Contains(t, "electron"):
		return ColorElectron
	case strings.Contains(t, "nwjs"):
		return ColorNWJS
	case strings.Contains(t, "cefsharp"):
		return ColorCefSharp
	case strings.Contains(t, "miniblink"):
		return ColorMiniBlink
	case strings.Contains(t, "chrom"):
		return ColorChromium
	case strings.Contains(t, "edge"):
		return ColorEdge
	case strings.Contains(t, "firefox"):
		return ColorFirefox
	default:
		return ColorDefault
	}
}

// BrowserGlyph returns a short marker standing in for an item's icon. Items
// without an icon get the placeholder box.
func BrowserGlyph(browserType, icon string) string {
	if icon == "" {
		return "□"
	}
	if BrowserTypeColor(browserType) == ColorDefault {
		return "◇"
	}
	return "◆"
}

// Reusable styles.
var (
	StyleBorder = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
			Foreground(ColorDimmed)

	StyleSelected = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)

	StyleError = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff4444")).
			Padding(1, 2)
)
