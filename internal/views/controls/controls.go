// Package controls renders the count and analyze controls. The analyze
// control pulses once, driven by a damped spring, when analysis unlocks.
package controls

import (
	"math"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
	"github.com/netphils/cefdetector-standalone/internal/theme"
)

const fps = 60

// PulseTickMsg advances the unlock pulse by one frame.
type PulseTickMsg struct{}

// State is the session data the controls display.
type State struct {
	CountLabel string
	Counting   bool
	CountText  string
	Unlocked   bool
	Hint       string
	Notice     string
}

// Model holds the animation state of the controls.
type Model struct {
	spinner spinner.Model
	spring  harmonica.Spring

	pulsing bool
	pos     float64
	vel     float64
	target  float64
}

// New creates the controls.
func New() Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.ColorAccent)
	return Model{
		spinner: sp,
		spring:  harmonica.NewSpring(harmonica.FPS(fps), 8.0, 0.4),
	}
}

// StartSpinner starts the busy indicator of the count control.
func (m Model) StartSpinner() tea.Cmd {
	return m.spinner.Tick
}

// StartPulse plays the unlock pulse: the spring swings toward 1, then
// settles back to 0.
func (m *Model) StartPulse() tea.Cmd {
	m.pulsing = true
	m.pos, m.vel = 0, 0
	m.target = 1
	return pulseTick()
}

// Pulsing reports whether the pulse animation is running.
func (m Model) Pulsing() bool { return m.pulsing }

// Intensity returns the current pulse amplitude, clamped to [0, 1].
func (m Model) Intensity() float64 {
	return math.Max(0, math.Min(1, m.pos))
}

// Update advances the spinner while counting and the pulse while it runs.
func (m *Model) Update(msg tea.Msg, counting bool) tea.Cmd {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !counting {
			return nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return cmd

	case PulseTickMsg:
		if !m.pulsing {
			return nil
		}
		m.pos, m.vel = m.spring.Update(m.pos, m.vel, m.target)
		if m.target == 1 && m.pos >= 0.95 {
			m.target = 0
		}
		if m.target == 0 && math.Abs(m.pos) < 0.01 && math.Abs(m.vel) < 0.01 {
			m.pulsing = false
			m.pos, m.vel = 0, 0
			return nil
		}
		return pulseTick()
	}
	return nil
}

func pulseTick() tea.Cmd {
	return tea.Tick(time.Second/fps, func(time.Time) tea.Msg {
		return PulseTickMsg{}
	})
}

var (
	styleButton = theme.StyleBorder.
			Padding(0, 2).
			BorderForeground(theme.ColorAccent).
			Foreground(theme.ColorBright)

	styleButtonDisabled = styleButton.
				BorderForeground(theme.ColorBorder).
				Foreground(theme.ColorDimmed)

	styleButtonGlow = styleButton.
			Bold(true).
			BorderForeground(theme.ColorBright).
			Background(theme.ColorAccent)

	styleNotice = lipgloss.NewStyle().
			Foreground(theme.ColorWarning).
			Bold(true)
)

// View renders both controls for st.
func (m Model) View(st State) string {
	var count string
	if st.Counting {
		count = styleButtonDisabled.Render(m.spinner.View() + " " + st.CountLabel)
	} else {
		count = styleButton.Render("[c] " + st.CountLabel)
	}

	var analyze string
	switch {
	case !st.Unlocked:
		analyze = styleButtonDisabled.Render("[a] 开始分析")
	case m.pulsing && m.Intensity() > 0.3:
		analyze = styleButtonGlow.Render("[a] 开始分析")
	default:
		analyze = styleButton.Render("[a] 开始分析")
	}

	buttons := lipgloss.JoinHorizontal(lipgloss.Center, count, " ", analyze)

	lines := []string{buttons}
	if st.CountText != "" {
		lines = append(lines, " "+theme.StyleSelected.Render(st.CountText))
	}
	hint := theme.StyleDimmed.Render(" " + st.Hint)
	if st.Notice != "" {
		hint = styleNotice.Render(" " + st.Notice)
	}
	lines = append(lines, hint)
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
