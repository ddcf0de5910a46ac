package session

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/netphils/cefdetector-standalone/internal/client"
)

// Messages produced by the controller's commands. Every analysis-side
// message carries the run generation it belongs to.
type (
	countDoneMsg struct {
		count int
		err   error
	}

	subscribedMsg struct {
		run    uint64
		stream client.Stream
		err    error
	}

	discoveryMsg struct {
		run    uint64
		stream client.Stream
		item   client.DiscoveredItem
	}

	streamEndedMsg struct {
		run    uint64
		stream client.Stream
	}

	analysisDoneMsg struct {
		run     uint64
		summary client.AnalysisSummary
		err     error
	}
)

func countCmd(ctx context.Context, b Backend) tea.Cmd {
	return func() tea.Msg {
		n, err := b.CountInstalled(ctx)
		return countDoneMsg{count: n, err: err}
	}
}

func subscribeCmd(ctx context.Context, b Backend, run uint64) tea.Cmd {
	return func() tea.Msg {
		stream, err := b.Subscribe(ctx, client.ChannelDiscovery)
		return subscribedMsg{run: run, stream: stream, err: err}
	}
}

func analyzeCmd(ctx context.Context, b Backend, run uint64) tea.Cmd {
	return func() tea.Msg {
		sum, err := b.RunAnalysis(ctx)
		return analysisDoneMsg{run: run, summary: sum, err: err}
	}
}

// waitForDiscovery blocks for the next item of stream. The following read is
// only issued once this item has been handled.
func waitForDiscovery(run uint64, stream client.Stream) tea.Cmd {
	return func() tea.Msg {
		item, ok := <-stream.Events()
		if !ok {
			return streamEndedMsg{run: run, stream: stream}
		}
		return discoveryMsg{run: run, stream: stream, item: item}
	}
}
