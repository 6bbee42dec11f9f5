package actions

import (
	"fmt"
	"strings"

	"smartpick.dev/smartpick/internal/engine"
	"smartpick.dev/smartpick/internal/tui"
)

// printPlan shows the order commits will be applied in. Warning lists are
// cut to maxDisplay entries; verbose adds the dependency edges.
func printPlan(splog *tui.Splog, plan *engine.Plan, maxDisplay int, verbose bool) {
	splog.Info("Plan: %d commit(s) in application order", len(plan.Commits))
	for i, c := range plan.Commits {
		line := fmt.Sprintf("  %d. %s %s", i+1, tui.ColorCyan(shortID(c.ID)), c.Subject)
		if c.Implicit {
			line += " " + tui.ColorYellow("(added dependency)")
		}
		splog.Info("%s", line)
	}

	for _, c := range plan.Commits {
		if len(c.Warnings) == 0 {
			continue
		}
		splog.Warn("%s depends on commits that are not in the plan:", shortID(c.ID))
		shown := min(maxDisplay, len(c.Warnings))
		for _, w := range c.Warnings[:shown] {
			splog.Info("     %s last changed %s", tui.ColorCyan(shortID(w.Missing)), w.File)
		}
		if len(c.Warnings) > shown {
			splog.Info("     ... and %d more", len(c.Warnings)-shown)
		}
	}
	if len(plan.Warnings()) > 0 {
		splog.Tip("Enable auto_add_dependencies (--set auto_add_dependencies=true) to include them.")
	}

	if verbose && len(plan.Edges) > 0 {
		splog.Info("Dependencies:")
		for _, e := range plan.Edges {
			detail := string(e.Reason)
			if e.File != "" {
				detail += " " + e.File
			}
			splog.Info("  %s -> %s %s", shortID(e.From), shortID(e.To), tui.ColorDim("("+detail+")"))
		}
	}
}

// printSession shows the summary of a run and every commit that did not apply
func printSession(splog *tui.Splog, s *engine.Session) {
	title := "Done"
	if s.Simulated {
		title = "Dry run"
	}
	splog.Info("%s: %s", tui.Bold(title), summary(s))
	for i, e := range s.Entries {
		if e.Status == engine.StatusApplied {
			continue
		}
		line := fmt.Sprintf("  %s %s %s %s", tui.StatusIcon(e.Status), tui.ColorCyan(shortID(e.ID)), subject(s, i), tui.ColorStatus(e.Status))
		if e.Reason != "" {
			line += " " + tui.ColorDim(e.Reason)
		}
		splog.Info("%s", line)
	}
}

// printPaused explains how to continue a run stopped on a conflict
func printPaused(splog *tui.Splog, s *engine.Session) {
	e := s.Entries[s.Cursor]
	splog.Newline()
	splog.Warn("Stopped at %s: %s", shortID(e.ID), e.Reason)
	if e.Report != nil {
		for _, f := range e.Report.Files {
			if f.Verdict == engine.VerdictAutoResolved {
				continue
			}
			splog.Info("  %s %s", tui.ColorRed(string(f.Kind)), f.Path)
		}
	}
	splog.Tip("Resolve the files, stage them with git add, then run: smartpick resume %s", s.RunID)
	splog.Tip("To drop this commit instead: smartpick skip %s", s.RunID)
	splog.Tip("To give up: smartpick abort %s", s.RunID)
}

func summary(s *engine.Session) string {
	parts := []string{fmt.Sprintf("%d applied", s.Count(engine.StatusApplied))}
	for _, status := range []engine.Status{engine.StatusSkipped, engine.StatusConflicted, engine.StatusFailed, engine.StatusPending} {
		if n := s.Count(status); n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, status))
		}
	}
	return strings.Join(parts, ", ")
}

func subject(s *engine.Session, i int) string {
	if s.Plan != nil && i < len(s.Plan.Commits) {
		return s.Plan.Commits[i].Subject
	}
	return ""
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
