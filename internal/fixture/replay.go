package fixture

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

var (
	// ErrInjected is returned when a failure is configured for an operation.
	ErrInjected = errors.New("injected failure")
	// ErrSuperseded is returned by an analysis aborted because a newer one
	// started.
	ErrSuperseded = errors.New("analysis superseded")
)

// Publisher receives every item emitted during an analysis.
type Publisher interface {
	PublishDiscovery(item Item)
}

// Summary is the terminal result of a replayed analysis.
type Summary struct {
	Count int    `json:"count"`
	Size  uint64 `json:"size"`
}

// Options tune a Replayer.
type Options struct {
	ItemDelay    time.Duration
	FailCount    bool
	FailAnalysis bool
}

// Replayer answers count and analysis requests from a catalog. Analyses
// run one at a time; starting one aborts the analysis still running, so
// items are only published inside the newest invocation.
type Replayer struct {
	catalog *Catalog
	pub     Publisher
	opts    Options

	mu sync.Mutex // held for the whole analysis

	runMu  sync.Mutex
	abort  context.CancelCauseFunc
	runGen uint64
}

// NewReplayer creates a replayer that publishes items to pub.
func NewReplayer(catalog *Catalog, pub Publisher, opts Options) *Replayer {
	return &Replayer{
		catalog: catalog,
		pub:     pub,
		opts:    opts,
	}
}

// Count returns the number of installed applications.
func (r *Replayer) Count(ctx context.Context) (int, error) {
	if r.opts.FailCount {
		return 0, ErrInjected
	}
	return r.catalog.Installed, nil
}

// Analyze publishes every catalog item in order, pausing ItemDelay between
// items, and returns the summary once all are out. With FailAnalysis set it
// stops halfway through and fails.
func (r *Replayer) Analyze(ctx context.Context) (Summary, error) {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	r.runMu.Lock()
	if r.abort != nil {
		r.abort(ErrSuperseded)
	}
	r.abort = cancel
	r.runGen++
	gen := r.runGen
	r.runMu.Unlock()
	defer func() {
		r.runMu.Lock()
		if r.runGen == gen {
			r.abort = nil
		}
		r.runMu.Unlock()
	}()

	r.mu.Lock()
	defer r.mu.Unlock()

	items := r.catalog.Items
	stopAt := len(items)
	if r.opts.FailAnalysis {
		stopAt = len(items) / 2
	}

	for i := 0; i < stopAt; i++ {
		if i > 0 && r.opts.ItemDelay > 0 {
			select {
			case <-ctx.Done():
				return Summary{}, context.Cause(ctx)
			case <-time.After(r.opts.ItemDelay):
			}
		}
		if ctx.Err() != nil {
			return Summary{}, context.Cause(ctx)
		}
		r.pub.PublishDiscovery(items[i])
	}

	if r.opts.FailAnalysis {
		log.Printf("fixture: analysis failed after %d of %d items", stopAt, len(items))
		return Summary{}, ErrInjected
	}
	return Summary{Count: len(items), Size: r.catalog.TotalSize()}, nil
}
