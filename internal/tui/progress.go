package tui

import (
	"io"
	"sync"
	"sync/atomic"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"smartpick.dev/smartpick/internal/engine"
)

// Progress renders one bar per run as an engine.EventSink. The bar is sized
// from the first event, so a resumed run starts from its current position.
type Progress struct {
	mu       sync.Mutex
	p        *mpb.Progress
	bar      *mpb.Bar
	width    int
	current  atomic.Value
	position int
	finished bool
}

// NewProgress creates a progress sink writing to w
func NewProgress(w io.Writer, width int) *Progress {
	if width <= 0 || width > 80 {
		width = 80
	}
	return &Progress{
		p: mpb.New(
			mpb.WithOutput(w),
			mpb.WithAutoRefresh(),
			mpb.WithWidth(width),
		),
		width: width,
	}
}

// Emit implements engine.EventSink
func (g *Progress) Emit(e engine.Event) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.bar == nil {
		g.bar = g.newBar(e)
	}
	switch e.Kind {
	case engine.EventApplied, engine.EventAutoResolved, engine.EventSkipped:
		g.position = e.Index + 1
		g.current.Store(shortCommit(e.Commit))
		g.bar.SetCurrent(int64(g.position))
	case engine.EventConflicted, engine.EventFailed:
		g.current.Store(shortCommit(e.Commit) + " " + string(e.Kind))
		if !e.Simulated {
			// The run stops here; leave the bar where it is.
			g.bar.Abort(false)
		}
	case engine.EventFinished:
		g.finished = true
		g.position = e.Total
		g.bar.SetTotal(int64(e.Total), true)
	}
}

func (g *Progress) newBar(e engine.Event) *mpb.Bar {
	task := "Picking"
	if e.Simulated {
		task = "Simulating"
	}
	return g.p.New(int64(e.Total),
		mpb.BarStyle().Filler("#").Padding(" "),
		mpb.PrependDecorators(
			decor.Name(task, decor.WC{W: len(task) + 1, C: decor.DindentRight}),
			decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
		),
		mpb.BarWidth(g.width),
		mpb.AppendDecorators(
			decor.OnComplete(decor.Any(g.label), "done"),
		),
	)
}

// label runs on the bar's render goroutine and must not take g.mu
func (g *Progress) label(decor.Statistics) string {
	s, _ := g.current.Load().(string)
	return s
}

// Close stops rendering. A bar that never reached the end is aborted.
func (g *Progress) Close() {
	g.mu.Lock()
	if g.bar != nil && !g.finished {
		g.bar.Abort(false)
	}
	g.mu.Unlock()
	g.p.Wait()
}

// Position returns how many commits the bar has counted
func (g *Progress) Position() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.position
}

func shortCommit(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
