package actions

import (
	"fmt"

	"smartpick.dev/smartpick/internal/engine"
	"smartpick.dev/smartpick/internal/runtime"
	"smartpick.dev/smartpick/internal/tui"
)

// SessionsAction lists stored runs with their progress
func SessionsAction(ctx *runtime.Context) error {
	splog := ctx.Splog
	ids, err := ctx.Store.List()
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		splog.Info("No stored runs.")
		return nil
	}

	for _, id := range ids {
		s, err := ctx.Store.Load(id)
		if err != nil {
			splog.Warn("%s: %v", id, err)
			continue
		}
		done := s.Count(engine.StatusApplied) + s.Count(engine.StatusSkipped)
		line := fmt.Sprintf("%s  %s  %d/%d done  updated %s", tui.ColorCyan(id), s.Mode, done, len(s.Entries), s.UpdatedAt.Local().Format("2006-01-02 15:04"))
		if !s.Done() {
			e := s.Entries[s.Cursor]
			line += fmt.Sprintf("  at %s (%s)", shortID(e.ID), tui.ColorStatus(e.Status))
		}
		splog.Info("%s", line)
		if ctx.Verbose {
			printSession(splog, s)
		}
	}
	return nil
}
