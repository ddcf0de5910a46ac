package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/netphils/cefdetector-standalone/internal/client"
	"github.com/netphils/cefdetector-standalone/internal/views/controls"
)

type stubStream struct {
	events chan client.DiscoveredItem
	once   sync.Once
}

func (s *stubStream) Events() <-chan client.DiscoveredItem { return s.events }

func (s *stubStream) Close() error {
	s.once.Do(func() { close(s.events) })
	return nil
}

type stubBackend struct {
	mu sync.Mutex

	count       int
	countErr    error
	items       []client.DiscoveredItem
	summary     client.AnalysisSummary
	analysisErr error
	healthErr   error

	calls []string
}

func (b *stubBackend) record(c string) {
	b.mu.Lock()
	b.calls = append(b.calls, c)
	b.mu.Unlock()
}

func (b *stubBackend) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		if c != "health" {
			n++
		}
	}
	return n
}

func (b *stubBackend) CountInstalled(ctx context.Context) (int, error) {
	b.record("count")
	return b.count, b.countErr
}

func (b *stubBackend) RunAnalysis(ctx context.Context) (client.AnalysisSummary, error) {
	b.record("analysis")
	return b.summary, b.analysisErr
}

func (b *stubBackend) Subscribe(ctx context.Context, channel string) (client.Stream, error) {
	b.record("subscribe")
	s := &stubStream{events: make(chan client.DiscoveredItem, len(b.items)+1)}
	for _, it := range b.items {
		s.events <- it
	}
	return s, nil
}

func (b *stubBackend) Health(ctx context.Context) (*client.Health, error) {
	b.record("health")
	if b.healthErr != nil {
		return nil, b.healthErr
	}
	return &client.Health{Hostname: "fixture-host", OS: "linux", KernelArch: "x86_64"}, nil
}

// harness runs commands concurrently like the Bubble Tea runtime and feeds
// their messages back into the model on the test goroutine.
type harness struct {
	t     *testing.T
	model tea.Model
	msgs  chan tea.Msg
	quit  bool
}

func newHarness(t *testing.T, m tea.Model) *harness {
	h := &harness{t: t, model: m, msgs: make(chan tea.Msg, 256)}
	h.dispatch(m.Init())
	return h
}

func (h *harness) dispatch(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	go func() {
		msg := cmd()
		if batch, ok := msg.(tea.BatchMsg); ok {
			for _, c := range batch {
				h.dispatch(c)
			}
			return
		}
		if msg != nil {
			h.msgs <- msg
		}
	}()
}

func (h *harness) send(msg tea.Msg) {
	switch msg.(type) {
	case tea.QuitMsg:
		h.quit = true
		return
	case spinner.TickMsg, controls.PulseTickMsg:
		return
	}
	var cmd tea.Cmd
	h.model, cmd = h.model.Update(msg)
	h.dispatch(cmd)
}

func (h *harness) key(k string) {
	h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
}

func (h *harness) until(what string, cond func() bool) {
	h.t.Helper()
	timeout := time.After(3 * time.Second)
	for !cond() {
		select {
		case msg := <-h.msgs:
			h.send(msg)
		case <-timeout:
			h.t.Fatalf("timed out waiting for %s", what)
		}
	}
}

func (h *harness) app() Model { return h.model.(Model) }

func twoItemBackend() *stubBackend {
	return &stubBackend{
		count: 7,
		items: []client.DiscoveredItem{
			{DisplayName: "Alpha", BrowserType: "Electron", SizeBytes: 1048576},
			{DisplayName: "Beta", BrowserType: "libcef", SizeBytes: 500},
		},
		summary: client.AnalysisSummary{Count: 2, SizeBytes: 1049076},
	}
}

func TestInitializingView(t *testing.T) {
	m := New(&stubBackend{}, "https://example.test")
	if v := m.View(); v != "Initializing..." {
		t.Errorf("View() = %q before sizing", v)
	}
}

func TestInitFetchesHealth(t *testing.T) {
	h := newHarness(t, New(&stubBackend{}, "https://example.test"))
	h.until("health", func() bool { return h.app().statusBar.Health != nil })
	if h.app().statusBar.Health.Hostname != "fixture-host" {
		t.Errorf("health = %+v", h.app().statusBar.Health)
	}
}

func TestHealthFailureMarksStatus(t *testing.T) {
	h := newHarness(t, New(&stubBackend{healthErr: errors.New("down")}, "https://example.test"))
	h.until("health error", func() bool { return h.app().statusBar.HealthErr })
}

func TestAnalyzeBeforeCountShowsGuidance(t *testing.T) {
	b := &stubBackend{}
	h := newHarness(t, New(b, "https://example.test"))
	h.send(tea.WindowSizeMsg{Width: 120, Height: 40})

	h.key("a")
	if !strings.Contains(h.app().View(), "请先统计已安装的应用") {
		t.Error("guidance message not shown")
	}
	if b.callCount() != 0 {
		t.Errorf("backend calls = %v, want none besides health", b.calls)
	}

	h.key("j")
	if strings.Contains(h.app().View(), "请先统计已安装的应用") {
		t.Error("guidance should clear on the next key")
	}
}

func TestCountThenAnalyze(t *testing.T) {
	b := twoItemBackend()
	h := newHarness(t, New(b, "https://example.test"))
	h.send(tea.WindowSizeMsg{Width: 120, Height: 40})

	h.key("c")
	if !strings.Contains(h.app().View(), "统计中...") {
		t.Error("busy label not shown while counting")
	}
	h.until("unlock", func() bool { return h.app().session.Unlocked() })
	if !h.app().controls.Pulsing() {
		t.Error("unlock should start the pulse")
	}
	v := h.app().View()
	if !strings.Contains(v, "已发现 7 个应用") || !strings.Contains(v, "点击开始分析已安装的应用") {
		t.Errorf("count result not shown:\n%s", v)
	}

	h.key("a")
	h.until("two cards and summary", func() bool {
		s := h.app().session
		return len(s.Results().Items()) == 2 && !s.Analyzing()
	})
	v = h.app().View()
	for _, want := range []string{"浏览器分析结果", "已发现 2 个浏览器。详细信息：", "Alpha", "Beta", "1.00 MiB"} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q:\n%s", want, v)
		}
	}
	if h.app().statusBar.LastRunAt.IsZero() {
		t.Error("status bar should record the run")
	}
}

func TestOverlays(t *testing.T) {
	h := newHarness(t, New(&stubBackend{}, "https://example.test/project"))
	h.send(tea.WindowSizeMsg{Width: 120, Height: 40})

	h.key("?")
	if h.app().overlay != OverlayAbout {
		t.Fatalf("overlay = %d, want about", h.app().overlay)
	}
	if !strings.Contains(h.app().View(), "example.test/project") {
		t.Error("about overlay should show the project URL")
	}

	h.key("c")
	if h.app().session.Counting() {
		t.Error("keys must not reach the controls while an overlay is open")
	}

	h.send(tea.KeyMsg{Type: tea.KeyEsc})
	if h.app().overlay != OverlayNone {
		t.Error("esc should close the overlay")
	}

	h.key("d")
	if !strings.Contains(h.app().View(), "EVENT LOG") {
		t.Error("debug overlay not shown")
	}
}

func TestOpenLink(t *testing.T) {
	m := New(&stubBackend{}, "https://example.test/project")
	var mu sync.Mutex
	var opened []string
	m.openLink = func(u string) error {
		mu.Lock()
		opened = append(opened, u)
		mu.Unlock()
		return errors.New("no browser")
	}
	h := newHarness(t, m)
	h.send(tea.WindowSizeMsg{Width: 120, Height: 40})

	h.key("o")
	h.until("open failure logged", func() bool {
		for _, e := range h.app().session.Journal().Entries {
			if strings.Contains(e.Message, "no browser") {
				return true
			}
		}
		return false
	})
	mu.Lock()
	defer mu.Unlock()
	if len(opened) != 1 || opened[0] != "https://example.test/project" {
		t.Errorf("opened = %v", opened)
	}
}

func TestQuitReleasesSession(t *testing.T) {
	h := newHarness(t, New(twoItemBackend(), "https://example.test"))
	h.key("c")
	h.until("unlock", func() bool { return h.app().session.Unlocked() })
	h.key("a")
	h.until("subscription", func() bool { return h.app().session.Subscribed() })

	h.key("q")
	h.until("quit", func() bool { return h.quit })
	if h.app().session.Subscribed() {
		t.Error("quit should dispose the subscription")
	}
}

func TestInlineRun(t *testing.T) {
	h := newHarness(t, NewInline(twoItemBackend()))
	h.send(tea.WindowSizeMsg{Width: 120, Height: 40})
	h.until("inline run to finish", func() bool { return h.quit })

	m := h.model.(*Inline)
	if m.Err() != nil {
		t.Fatalf("Err() = %v", m.Err())
	}
	v := m.View()
	for _, want := range []string{"已发现 7 个应用", "已发现 2 个浏览器。详细信息：", "Alpha", "Beta"} {
		if !strings.Contains(v, want) {
			t.Errorf("inline output missing %q:\n%s", want, v)
		}
	}
}

func TestInlineCountFailure(t *testing.T) {
	b := &stubBackend{countErr: errors.New("boom")}
	h := newHarness(t, NewInline(b))
	h.until("inline run to finish", func() bool { return h.quit })

	m := h.model.(*Inline)
	if !errors.Is(m.Err(), errCountFailed) {
		t.Errorf("Err() = %v, want errCountFailed", m.Err())
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range b.calls {
		if c == "analysis" || c == "subscribe" {
			t.Errorf("analysis must not start after a failed count: %v", b.calls)
		}
	}
}

func TestInlineAnalysisFailure(t *testing.T) {
	b := twoItemBackend()
	b.analysisErr = errors.New("500")
	h := newHarness(t, NewInline(b))
	h.until("inline run to finish", func() bool { return h.quit })

	m := h.model.(*Inline)
	if !errors.Is(m.Err(), errAnalysisFailed) {
		t.Errorf("Err() = %v, want errAnalysisFailed", m.Err())
	}
	if !strings.Contains(m.View(), "分析过程中发生错误，请重试") {
		t.Error("failure message missing from output")
	}
}

func TestInlineExitsAfterGraceWhenSummaryCountIsHigher(t *testing.T) {
	b := twoItemBackend()
	b.summary.Count = 5
	h := newHarness(t, NewInline(b))
	h.until("inline run to finish", func() bool { return h.quit })

	m := h.model.(*Inline)
	if m.Err() != nil {
		t.Fatalf("Err() = %v", m.Err())
	}
	if n := len(m.Session().Results().Items()); n != 2 {
		t.Errorf("cards = %d, want the 2 streamed items", n)
	}
	if !strings.Contains(m.View(), "已发现 5 个浏览器。详细信息：") {
		t.Errorf("description should keep the summary count:\n%s", m.View())
	}
}
