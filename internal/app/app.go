package app

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/netphils/cefdetector-standalone/internal/client"
	"github.com/netphils/cefdetector-standalone/internal/session"
	"github.com/netphils/cefdetector-standalone/internal/views/about"
	"github.com/netphils/cefdetector-standalone/internal/views/controls"
	"github.com/netphils/cefdetector-standalone/internal/views/debug"
	"github.com/netphils/cefdetector-standalone/internal/views/status"
)

// Overlay identifies which modal is active.
type Overlay int

const (
	OverlayNone Overlay = iota
	OverlayAbout
	OverlayDebug
)

// chromeHeight is the number of rows used by everything but the results.
const chromeHeight = 11

// Backend is everything the UI needs from the detection backend.
type Backend interface {
	session.Backend
	Health(ctx context.Context) (*client.Health, error)
}

type healthMsg struct {
	health *client.Health
	err    error
}

type linkOpenedMsg struct {
	url string
	err error
}

// Model is the root Bubble Tea model.
type Model struct {
	backend Backend
	session *session.Controller
	ctx     context.Context
	cancel  context.CancelFunc

	keys    KeyMap
	help    help.Model
	width   int
	height  int
	overlay Overlay

	aboutURL string
	openLink func(string) error

	statusBar status.Model
	controls  controls.Model
	about     *about.Model
}

// New creates the root model.
func New(backend Backend, aboutURL string) Model {
	ctx, cancel := context.WithCancel(context.Background())
	ab := about.New(aboutURL)
	return Model{
		backend:   backend,
		session:   session.New(ctx, backend),
		ctx:       ctx,
		cancel:    cancel,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		aboutURL:  aboutURL,
		openLink:  client.OpenExternalLink,
		statusBar: status.New(),
		controls:  controls.New(),
		about:     &ab,
	}
}

// Init fetches the backend host information.
func (m Model) Init() tea.Cmd {
	return m.fetchHealth()
}

func (m Model) fetchHealth() tea.Cmd {
	backend, ctx := m.backend, m.ctx
	return func() tea.Msg {
		h, err := backend.Health(ctx)
		return healthMsg{health: h, err: err}
	}
}

func (m Model) openLinkCmd() tea.Cmd {
	open, target := m.openLink, m.aboutURL
	return func() tea.Msg {
		return linkOpenedMsg{url: target, err: open(target)}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.statusBar.Width = msg.Width
		m.help.Width = msg.Width
		m.session.Results().SetSize(msg.Width, msg.Height-chromeHeight)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case healthMsg:
		journal := m.session.Journal()
		if msg.err != nil {
			m.statusBar.HealthErr = true
			journal.Add(debug.KindError, fmt.Sprintf("health: %v", msg.err))
			return m, nil
		}
		m.statusBar.Health = msg.health
		m.statusBar.HealthErr = false
		journal.Addf(debug.KindHealth, "backend %s (%s %s)", msg.health.Hostname, msg.health.Platform, msg.health.PlatformVersion)
		return m, nil

	case linkOpenedMsg:
		if msg.err != nil {
			m.session.Journal().Add(debug.KindError, fmt.Sprintf("open %s: %v", msg.url, msg.err))
		}
		return m, nil

	case spinner.TickMsg, controls.PulseTickMsg:
		return m, m.controls.Update(msg, m.session.Counting())
	}

	wasUnlocked := m.session.Unlocked()
	cmd := m.session.Update(msg)
	m.syncStatus()
	if !wasUnlocked && m.session.Unlocked() {
		cmd = tea.Batch(cmd, m.controls.StartPulse())
	}
	return m, cmd
}

func (m *Model) syncStatus() {
	m.statusBar.CountText = m.session.CountText()
	m.statusBar.Unlocked = m.session.Unlocked()
	if sum, at, ok := m.session.LastSummary(); ok {
		m.statusBar.Summary = sum
		m.statusBar.LastRunAt = at
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.cancel()
		m.session.Close()
		return m, tea.Quit
	}

	if m.overlay != OverlayNone {
		return m.handleOverlayKey(msg)
	}

	m.session.ClearNotice()

	switch {
	case key.Matches(msg, m.keys.Count):
		cmd := m.session.RunCount()
		if cmd == nil {
			return m, nil
		}
		return m, tea.Batch(cmd, m.controls.StartSpinner())

	case key.Matches(msg, m.keys.Analyze):
		return m, m.session.RunAnalysis()

	case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down),
		key.Matches(msg, m.keys.PageUp), key.Matches(msg, m.keys.PageDown):
		return m, m.session.Results().Update(msg)

	case key.Matches(msg, m.keys.Open):
		return m, m.openLinkCmd()

	case key.Matches(msg, m.keys.About):
		m.overlay = OverlayAbout
		return m, nil

	case key.Matches(msg, m.keys.Debug):
		m.overlay = OverlayDebug
		return m, nil
	}

	return m, nil
}

func (m Model) handleOverlayKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.overlay = OverlayNone
	case m.overlay == OverlayAbout && key.Matches(msg, m.keys.Open):
		return m, m.openLinkCmd()
	case m.overlay == OverlayDebug && key.Matches(msg, m.keys.Up):
		m.session.Journal().ScrollUp(1)
	case m.overlay == OverlayDebug && key.Matches(msg, m.keys.Down):
		m.session.Journal().ScrollDown(1)
	}
	return m, nil
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	switch m.overlay {
	case OverlayAbout:
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.about.View(m.width))
	case OverlayDebug:
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.session.Journal().View(m.width, m.height))
	}

	s := m.session
	sections := []string{
		m.statusBar.View(),
		m.controls.View(controls.State{
			CountLabel: s.CountLabel(),
			Counting:   s.Counting(),
			CountText:  s.CountText(),
			Unlocked:   s.Unlocked(),
			Hint:       s.AnalyzeHint(),
			Notice:     s.Notice(),
		}),
		s.Results().View(),
		" " + m.help.View(m.keys),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
