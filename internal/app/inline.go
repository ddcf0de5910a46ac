package app

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/netphils/cefdetector-standalone/internal/session"
	"github.com/netphils/cefdetector-standalone/internal/theme"
)

// streamGrace is how long the inline run waits for items that trail the
// summary.
const streamGrace = 500 * time.Millisecond

var (
	errCountFailed    = errors.New("count failed")
	errAnalysisFailed = errors.New("analysis failed")
)

type inlineStage int

const (
	stageCounting inlineStage = iota
	stageAnalyzing
	stageDraining
	stageDone
)

type graceMsg struct{}

// Inline runs one count followed by one analysis and quits, leaving the
// results in the terminal.
type Inline struct {
	session *session.Controller
	cancel  context.CancelFunc
	spinner spinner.Model
	stage   inlineStage
	err     error
}

// NewInline creates the inline model.
func NewInline(backend session.Backend) *Inline {
	ctx, cancel := context.WithCancel(context.Background())
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.ColorAccent)
	return &Inline{
		session: session.New(ctx, backend),
		cancel:  cancel,
		spinner: sp,
	}
}

// Err reports why the run did not complete, if it did not.
func (m *Inline) Err() error { return m.err }

// Session exposes the controller, mainly for inspection after the run.
func (m *Inline) Session() *session.Controller { return m.session }

func (m *Inline) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.session.RunCount())
}

func (m *Inline) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			m.err = context.Canceled
			return m, m.finish()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.session.Results().SetSize(msg.Width, msg.Height)
		return m, nil

	case spinner.TickMsg:
		if m.stage == stageDone {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case graceMsg:
		if m.stage == stageDraining {
			return m, m.finish()
		}
		return m, nil
	}

	cmd := m.session.Update(msg)

	switch m.stage {
	case stageCounting:
		if m.session.Counting() {
			break
		}
		if !m.session.Unlocked() {
			m.err = errCountFailed
			return m, m.finish()
		}
		m.stage = stageAnalyzing
		return m, tea.Batch(cmd, m.session.RunAnalysis())

	case stageAnalyzing:
		if m.session.Analyzing() {
			break
		}
		if m.session.Results().Err() != "" {
			m.err = errAnalysisFailed
			return m, m.finish()
		}
		m.stage = stageDraining
		if m.drained() {
			return m, m.finish()
		}
		return m, tea.Batch(cmd, tea.Tick(streamGrace, func(time.Time) tea.Msg { return graceMsg{} }))

	case stageDraining:
		if m.drained() {
			return m, m.finish()
		}
	}
	return m, cmd
}

// drained reports whether as many items have rendered as the summary
// announced. It only decides when the inline run may exit early; the wait is
// bounded by streamGrace and neither count is adjusted to match the other.
func (m *Inline) drained() bool {
	sum, _, ok := m.session.LastSummary()
	return ok && len(m.session.Results().Items()) >= sum.Count
}

func (m *Inline) finish() tea.Cmd {
	m.stage = stageDone
	m.session.Close()
	m.cancel()
	return tea.Quit
}

func (m *Inline) View() string {
	s := m.session
	if m.stage != stageDone {
		label := s.CountLabel()
		if m.stage != stageCounting {
			label = s.Results().Description()
		}
		return m.spinner.View() + " " + label + "\n"
	}

	var parts []string
	if t := s.CountText(); t != "" {
		parts = append(parts, t)
	}
	if out := s.Results().Render(); out != "" {
		parts = append(parts, out)
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...) + "\n"
}
