package session

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/netphils/cefdetector-standalone/internal/client"
	"github.com/netphils/cefdetector-standalone/internal/fixture"
	"github.com/netphils/cefdetector-standalone/internal/ws"
)

// newFixtureBackend serves cat over the real wire protocol and returns a
// client backend pointed at it.
func newFixtureBackend(t *testing.T, cat *fixture.Catalog, opts fixture.Options) *client.Backend {
	t.Helper()
	b := ws.NewBroadcaster(0)
	srv := httptest.NewServer(ws.NewServer(fixture.NewReplayer(cat, b, opts), b, nil, "").Handler())
	t.Cleanup(func() {
		b.Stop()
		srv.Close()
	})
	return client.NewBackend("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", "", 0)
}

// eventLoop runs commands concurrently and applies their messages to the
// controller on the test goroutine, the way the Bubble Tea runtime does.
type eventLoop struct {
	t    *testing.T
	c    *Controller
	msgs chan tea.Msg
}

func newEventLoop(t *testing.T, c *Controller) *eventLoop {
	return &eventLoop{t: t, c: c, msgs: make(chan tea.Msg, 256)}
}

func (l *eventLoop) dispatch(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	go func() {
		msg := cmd()
		if batch, ok := msg.(tea.BatchMsg); ok {
			for _, c := range batch {
				l.dispatch(c)
			}
			return
		}
		if msg != nil {
			l.msgs <- msg
		}
	}()
}

func (l *eventLoop) until(what string, cond func() bool) {
	l.t.Helper()
	timeout := time.After(5 * time.Second)
	for !cond() {
		select {
		case msg := <-l.msgs:
			l.dispatch(l.c.Update(msg))
		case <-timeout:
			l.t.Fatalf("timed out waiting for %s", what)
		}
	}
}

// drain keeps applying messages for d.
func (l *eventLoop) drain(d time.Duration) {
	stop := time.After(d)
	for {
		select {
		case msg := <-l.msgs:
			l.dispatch(l.c.Update(msg))
		case <-stop:
			return
		}
	}
}

func itemNames(items []client.DiscoveredItem) []string {
	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.DisplayName
	}
	return names
}

func fourItems() *fixture.Catalog {
	return &fixture.Catalog{
		Installed: 9,
		Items: []fixture.Item{
			{DisplayName: "r1", BrowserType: "Electron", Size: 100},
			{DisplayName: "r2", BrowserType: "libcef", Size: 200},
			{DisplayName: "r3", BrowserType: "NWJS", Size: 300},
			{DisplayName: "r4", BrowserType: "CefSharp", Size: 400},
		},
	}
}

func TestControllerAgainstFixtureBackend(t *testing.T) {
	backend := newFixtureBackend(t, fourItems(), fixture.Options{ItemDelay: 5 * time.Millisecond})
	c := New(context.Background(), backend)
	defer c.Close()
	l := newEventLoop(t, c)

	l.dispatch(c.RunCount())
	l.until("count", func() bool { return c.Unlocked() })
	if c.CountText() != "已发现 9 个应用" {
		t.Errorf("count text = %q", c.CountText())
	}

	l.dispatch(c.RunAnalysis())
	l.until("summary and four cards", func() bool {
		return !c.Analyzing() && len(c.Results().Items()) == 4
	})

	got := strings.Join(itemNames(c.Results().Items()), " ")
	if got != "r1 r2 r3 r4" {
		t.Errorf("items = %s, want r1 r2 r3 r4", got)
	}
	if c.Results().Description() != "已发现 4 个浏览器。详细信息：" {
		t.Errorf("description = %q", c.Results().Description())
	}
	if !c.Subscribed() {
		t.Error("subscription should be held until the next run")
	}
}

func TestRerunMidFlightShowsOnlyNewestRun(t *testing.T) {
	backend := newFixtureBackend(t, fourItems(), fixture.Options{ItemDelay: 100 * time.Millisecond})
	c := New(context.Background(), backend)
	defer c.Close()
	l := newEventLoop(t, c)

	l.dispatch(c.RunCount())
	l.until("count", func() bool { return c.Unlocked() })

	l.dispatch(c.RunAnalysis())
	l.until("first card of run 1", func() bool { return len(c.Results().Items()) > 0 })

	l.dispatch(c.RunAnalysis())
	if n := len(c.Results().Items()); n != 0 {
		t.Fatalf("results not cleared for the new run: %d cards", n)
	}
	l.until("run 2 summary", func() bool {
		_, _, ok := c.LastSummary()
		return ok && !c.Analyzing() && len(c.Results().Items()) >= 4
	})
	l.drain(300 * time.Millisecond)

	got := strings.Join(itemNames(c.Results().Items()), " ")
	if got != "r1 r2 r3 r4" {
		t.Errorf("run 2 items = %s, want r1 r2 r3 r4", got)
	}
	if c.Results().Err() != "" {
		t.Errorf("superseded run leaked an error: %q", c.Results().Err())
	}
}
