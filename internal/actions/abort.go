package actions

import (
	"fmt"

	"smartpick.dev/smartpick/internal/runtime"
	"smartpick.dev/smartpick/internal/tui"
)

// AbortOptions contains options for the abort command
type AbortOptions struct {
	SessionID string
	Force     bool
}

// AbortAction rolls back an open cherry-pick and forgets the run.
// Commits the run already applied stay on HEAD.
func AbortAction(ctx *runtime.Context, opts AbortOptions) error {
	splog := ctx.Splog
	runID, err := resolveSessionID(ctx, opts.SessionID)
	if err != nil {
		return err
	}
	if _, err := ctx.Store.Load(runID); err != nil {
		return err
	}

	if !opts.Force && tui.IsTTY() {
		confirmed, err := tui.PromptConfirm(fmt.Sprintf("Abort run %s?", runID), false)
		if err != nil {
			return fmt.Errorf("failed to get confirmation: %w", err)
		}
		if !confirmed {
			splog.Info("Abort canceled.")
			return nil
		}
	}

	if err := ctx.Runner().Discard(ctx.Context, runID); err != nil {
		return err
	}
	splog.Info("Run %s aborted.", runID)
	return nil
}
