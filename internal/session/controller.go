// Package session drives a detection session: counting installed
// applications, gating and running the browser analysis, and merging the
// streamed discovery events with the final summary into the results view.
//
// All state is mutated from Update, which runs on the Bubble Tea event loop.
// Backend calls happen inside commands and report back as messages.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/netphils/cefdetector-standalone/internal/client"
	"github.com/netphils/cefdetector-standalone/internal/format"
	"github.com/netphils/cefdetector-standalone/internal/views/debug"
	"github.com/netphils/cefdetector-standalone/internal/views/results"
)

// Failure categories. Each one is wrapped around its transport cause and
// turned into a user-visible message; none escapes the controller.
var (
	ErrCount           = errors.New("count installed applications")
	ErrAnalysisRequest = errors.New("analysis request")
	ErrSubscription    = errors.New("discovery subscription")
)

// User-visible texts of the session controls.
const (
	CountLabel        = "统计已安装的应用"
	CountBusyLabel    = "统计中..."
	CountResultFmt    = "已发现 %d 个应用"
	CountFailedText   = "统计失败，请重试"
	AnalyzeGuardText  = "请先统计已安装的应用"
	AnalyzeLockedHint = "未统计"
	AnalyzeReadyHint  = "点击开始分析已安装的应用"
	totalSizeFmt      = "发现 %d 个浏览器，总大小 %s。（大小包含整个程序）"
)

// Backend is the collaborator contract the controller consumes.
type Backend interface {
	CountInstalled(ctx context.Context) (int, error)
	RunAnalysis(ctx context.Context) (client.AnalysisSummary, error)
	Subscribe(ctx context.Context, channel string) (client.Stream, error)
}

// Phase is the coarse workflow position.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseCounting
	PhaseCountedReady
	PhaseAnalyzing
	PhaseAnalyzedReady
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseCounting:
		return "counting"
	case PhaseCountedReady:
		return "counted"
	case PhaseAnalyzing:
		return "analyzing"
	case PhaseAnalyzedReady:
		return "analyzed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Controller owns the session state.
type Controller struct {
	ctx     context.Context
	backend Backend

	unlocked  bool
	counting  bool
	analyzing bool
	analyzed  bool

	// run is the generation of the newest analysis. Messages of older
	// generations are dropped. runCtx scopes its backend calls and is
	// cancelled when a newer run starts.
	run       uint64
	runCtx    context.Context
	runCancel context.CancelFunc
	subs      Subscriptions

	countText string
	notice    string

	lastSummary client.AnalysisSummary
	lastRunAt   time.Time

	results results.Model
	journal debug.Model
}

// New creates a controller bound to backend. ctx scopes every backend call.
func New(ctx context.Context, backend Backend) *Controller {
	return &Controller{
		ctx:     ctx,
		backend: backend,
		results: results.New(),
		journal: debug.New(),
	}
}

// RunCount starts phase 1. It returns nil while a count is already in
// flight.
func (c *Controller) RunCount() tea.Cmd {
	if c.counting {
		return nil
	}
	c.counting = true
	c.journal.Add(debug.KindCount, "counting installed applications")
	return countCmd(c.ctx, c.backend)
}

// RunAnalysis starts phase 2. Before the first successful count it only
// sets the guidance notice. Otherwise it resets the results, releases the
// previous subscription and subscribes before requesting the analysis.
func (c *Controller) RunAnalysis() tea.Cmd {
	if !c.unlocked {
		c.notice = AnalyzeGuardText
		return nil
	}
	c.notice = ""
	c.results.Reset()
	c.subs.Dispose()
	c.cancelRun()
	c.run++
	c.runCtx, c.runCancel = context.WithCancel(c.ctx)
	c.analyzing = true
	c.journal.Addf(debug.KindAnalysis, "run %d: subscribing to %q", c.run, client.ChannelDiscovery)
	return subscribeCmd(c.runCtx, c.backend, c.run)
}

// cancelRun aborts the backend calls of the newest run, if any.
func (c *Controller) cancelRun() {
	if c.runCancel != nil {
		c.runCancel()
		c.runCancel = nil
	}
}


// Update applies a message produced by one of the controller's commands.
// Unrelated messages are ignored.
func (c *Controller) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case countDoneMsg:
		c.counting = false
		if msg.err != nil {
			c.fail(fmt.Errorf("%w: %v", ErrCount, msg.err))
			c.countText = CountFailedText
			return nil
		}
		c.unlocked = true
		c.notice = ""
		c.countText = fmt.Sprintf(CountResultFmt, msg.count)
		c.journal.Addf(debug.KindCount, "%s installed applications", humanize.Comma(int64(msg.count)))
		return nil

	case subscribedMsg:
		if msg.run != c.run {
			if msg.stream != nil {
				msg.stream.Close()
			}
			return nil
		}
		if msg.err != nil {
			c.fail(fmt.Errorf("%w: %v", ErrSubscription, msg.err))
			return analyzeCmd(c.runCtx, c.backend, msg.run)
		}
		c.subs.Acquire(msg.run, msg.stream)
		c.journal.Addf(debug.KindStream, "run %d: subscribed, requesting analysis", msg.run)
		return tea.Batch(
			waitForDiscovery(msg.run, msg.stream),
			analyzeCmd(c.runCtx, c.backend, msg.run),
		)

	case discoveryMsg:
		if !c.subs.Owns(msg.run, msg.stream) {
			return nil
		}
		c.results.Append(msg.item)
		c.journal.Addf(debug.KindItem, "%s [%s] %s",
			msg.item.DisplayName, msg.item.BrowserType, format.FormatSize(msg.item.SizeBytes))
		return waitForDiscovery(msg.run, msg.stream)

	case streamEndedMsg:
		if !c.subs.Owns(msg.run, msg.stream) {
			return nil
		}
		c.journal.Addf(debug.KindStream, "run %d: push channel closed", msg.run)
		c.subs.Dispose()
		return nil

	case analysisDoneMsg:
		if msg.run != c.run {
			return nil
		}
		c.analyzing = false
		c.analyzed = true
		if msg.err != nil {
			c.fail(fmt.Errorf("%w: %v", ErrAnalysisRequest, msg.err))
			c.results.ShowError()
			return nil
		}
		c.results.SetSummary(msg.summary)
		c.lastSummary = msg.summary
		c.lastRunAt = time.Now()
		line := fmt.Sprintf(totalSizeFmt, msg.summary.Count, format.FormatSize(msg.summary.SizeBytes))
		log.Print(line)
		c.journal.Add(debug.KindAnalysis, line)
		return nil
	}
	return nil
}

func (c *Controller) fail(err error) {
	log.Printf("session: %v", err)
	c.journal.Add(debug.KindError, err.Error())
}

// Close releases the active subscription and aborts the newest run.
func (c *Controller) Close() {
	c.subs.Dispose()
	c.cancelRun()
}

// Phase returns the current workflow position.
func (c *Controller) Phase() Phase {
	switch {
	case c.counting:
		return PhaseCounting
	case c.analyzing:
		return PhaseAnalyzing
	case c.analyzed:
		return PhaseAnalyzedReady
	case c.unlocked:
		return PhaseCountedReady
	default:
		return PhaseIdle
	}
}

// Unlocked reports whether a count has ever succeeded.
func (c *Controller) Unlocked() bool { return c.unlocked }

// Counting reports whether a count is in flight.
func (c *Controller) Counting() bool { return c.counting }

// Analyzing reports whether the newest analysis awaits its summary.
func (c *Controller) Analyzing() bool { return c.analyzing }

// CountLabel returns the count control's label.
func (c *Controller) CountLabel() string {
	if c.counting {
		return CountBusyLabel
	}
	return CountLabel
}

// CountText returns the outcome of the last count, or "".
func (c *Controller) CountText() string { return c.countText }

// AnalyzeHint returns the analyze control's hint.
func (c *Controller) AnalyzeHint() string {
	if c.unlocked {
		return AnalyzeReadyHint
	}
	return AnalyzeLockedHint
}

// Notice returns the pending guidance message, or "".
func (c *Controller) Notice() string { return c.notice }

// ClearNotice dismisses the guidance message.
func (c *Controller) ClearNotice() { c.notice = "" }

// LastSummary returns the newest successful summary and when it arrived.
func (c *Controller) LastSummary() (client.AnalysisSummary, time.Time, bool) {
	return c.lastSummary, c.lastRunAt, !c.lastRunAt.IsZero()
}

// Subscribed reports whether a push-channel subscription is held.
func (c *Controller) Subscribed() bool { return c.subs.Active() }

// Results exposes the results view for sizing, scrolling and rendering.
func (c *Controller) Results() *results.Model { return &c.results }

// Journal exposes the event log.
func (c *Controller) Journal() *debug.Model { return &c.journal }
