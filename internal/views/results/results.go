// Package results renders the analysis results area: a title, a status
// description, and a grid of item cards inside a scrollable viewport.
package results

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/netphils/cefdetector-standalone/internal/client"
	"github.com/netphils/cefdetector-standalone/internal/theme"
)

// User-visible texts of the results area.
const (
	Title         = "浏览器分析结果"
	DescDetecting = "正在检测浏览器..."
	DescFoundFmt  = "已发现 %d 个浏览器。详细信息："
	DescNone      = "未发现浏览器"
	MsgFailed     = "分析过程中发生错误，请重试"
	placeholder   = "按 c 统计已安装的应用，然后按 a 开始分析"
	headerLines   = 2
)

// Model holds the results area state.
type Model struct {
	started     bool
	description string
	items       []client.DiscoveredItem
	errMsg      string

	// cards holds the rendered card of each item; rows holds the joined
	// full rows for the current perRow. Both are rebuilt only on resize.
	cards  []string
	rows   []string
	perRow int

	width    int
	viewport viewport.Model
}

// New creates an empty results area.
func New() Model {
	m := Model{
		width:    80,
		viewport: viewport.New(80, 20),
	}
	m.perRow = m.cardsPerRow()
	return m
}

// Reset clears every previous card and error and shows the in-progress
// description.
func (m *Model) Reset() {
	m.started = true
	m.description = DescDetecting
	m.items = nil
	m.cards = nil
	m.rows = nil
	m.errMsg = ""
	m.refresh()
	m.viewport.GotoTop()
}

// Append adds one card after the existing ones.
func (m *Model) Append(item client.DiscoveredItem) {
	m.items = append(m.items, item)
	m.cards = append(m.cards, Card(item))
	if len(m.cards)%m.cardsPerRow() == 0 {
		m.rows = append(m.rows, m.joinRow(len(m.rows)))
	}
	m.refresh()
}

// SetSummary replaces the in-progress description with the terminal one.
// Only the summary's own count is used.
func (m *Model) SetSummary(sum client.AnalysisSummary) {
	if sum.Count > 0 {
		m.description = fmt.Sprintf(DescFoundFmt, sum.Count)
	} else {
		m.description = DescNone
	}
	m.refresh()
}

// ShowError appends the generic failure message below the grid.
func (m *Model) ShowError() {
	m.errMsg = MsgFailed
	m.refresh()
}

// Started reports whether an analysis has initialized the area.
func (m Model) Started() bool { return m.started }

// Description returns the current description line.
func (m Model) Description() string { return m.description }

// Err returns the failure message, if any.
func (m Model) Err() string { return m.errMsg }

// Items returns a copy of the rendered items in display order.
func (m Model) Items() []client.DiscoveredItem {
	out := make([]client.DiscoveredItem, len(m.items))
	copy(out, m.items)
	return out
}

// SetSize sets the area's outer dimensions.
func (m *Model) SetSize(width, height int) {
	if width < cardWidth+2 {
		width = cardWidth + 2
	}
	h := height - headerLines
	if h < 3 {
		h = 3
	}
	m.width = width
	m.viewport.Width = width
	m.viewport.Height = h
	if m.cardsPerRow() != m.perRow {
		m.relayout()
	}
	m.refresh()
}

// Update forwards scrolling input to the viewport.
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return cmd
}

// View renders the area at its configured size.
func (m Model) View() string {
	if !m.started {
		return theme.StyleDimmed.Render("  " + placeholder)
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.header(), m.viewport.View())
}

// Render returns the whole area without scrolling, for inline output.
func (m Model) Render() string {
	if !m.started {
		return ""
	}
	body := m.grid()
	if body == "" {
		return m.header()
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.header(), body)
}

func (m Model) header() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		theme.StyleHeader.Render(Title),
		theme.StyleDimmed.Render(m.description),
	)
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.grid())
}

func (m Model) cardsPerRow() int {
	perRow := m.width / (cardWidth + 2)
	if perRow < 1 {
		perRow = 1
	}
	return perRow
}

// relayout re-joins the cached cards into full rows for the current width.
func (m *Model) relayout() {
	m.perRow = m.cardsPerRow()
	m.rows = nil
	for r := 0; (r+1)*m.perRow <= len(m.cards); r++ {
		m.rows = append(m.rows, m.joinRow(r))
	}
}

func (m Model) joinRow(r int) string {
	perRow := m.cardsPerRow()
	return lipgloss.JoinHorizontal(lipgloss.Top, m.cards[r*perRow:(r+1)*perRow]...)
}

// grid lays the cards out in rows as wide as the area allows.
func (m Model) grid() string {
	rows := append([]string(nil), m.rows...)
	if tail := m.cards[len(m.rows)*m.cardsPerRow():]; len(tail) > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, tail...))
	}
	if m.errMsg != "" {
		rows = append(rows, theme.StyleError.Render(m.errMsg))
	}
	return strings.Join(rows, "\n")
}
