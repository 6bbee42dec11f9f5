package actions

import (
	"fmt"
	"os"

	"smartpick.dev/smartpick/internal/engine"
	"smartpick.dev/smartpick/internal/runtime"
	"smartpick.dev/smartpick/internal/tui"
)

// consoleSink prints one line per commit as the run moves through the plan
type consoleSink struct {
	splog *tui.Splog
}

func (c consoleSink) Emit(e engine.Event) {
	position := fmt.Sprintf("[%d/%d]", e.Index+1, e.Total)
	switch e.Kind {
	case engine.EventApplied:
		c.splog.Info("%s %s %s", position, tui.StatusIcon(engine.StatusApplied), shortID(e.Commit))
	case engine.EventAutoResolved:
		c.splog.Info("%s %s %s %s", position, tui.StatusIcon(engine.StatusApplied), shortID(e.Commit), tui.ColorDim(e.Detail))
	case engine.EventSkipped:
		c.splog.Info("%s %s %s %s", position, tui.StatusIcon(engine.StatusSkipped), shortID(e.Commit), tui.ColorDim(e.Detail))
	case engine.EventConflicted:
		c.splog.Info("%s %s %s %s", position, tui.StatusIcon(engine.StatusConflicted), shortID(e.Commit), e.Detail)
	case engine.EventFailed:
		c.splog.Info("%s %s %s %s", position, tui.StatusIcon(engine.StatusFailed), shortID(e.Commit), e.Detail)
	}
}

// newRunner creates a runner reporting through a progress bar when the
// config asks for one and stderr is a terminal, and through plain lines
// otherwise. The returned func must be called once the run returns.
func newRunner(ctx *runtime.Context) (*engine.Runner, func()) {
	if ctx.Config.ShowProgressBar && tui.IsTerminal(os.Stderr) {
		progress := tui.NewProgress(os.Stderr, 80)
		return ctx.Runner(progress), progress.Close
	}
	return ctx.Runner(consoleSink{splog: ctx.Splog}), func() {}
}
