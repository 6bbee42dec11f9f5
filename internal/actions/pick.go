package actions

import (
	"errors"
	"fmt"

	"smartpick.dev/smartpick/internal/engine"
	"smartpick.dev/smartpick/internal/git"
	"smartpick.dev/smartpick/internal/runtime"
	"smartpick.dev/smartpick/internal/tui"
)

// PickOptions contains options for the pick command
type PickOptions struct {
	Args      []string
	Skip      []string
	Remote    string
	SessionID string
	Auto      bool
	DryRun    bool
	Yes       bool
}

// Mode returns the run mode the flags select
func (o PickOptions) Mode() engine.Mode {
	switch {
	case o.DryRun:
		return engine.ModeDryRun
	case o.Auto:
		return engine.ModeAuto
	default:
		return engine.ModeInteractive
	}
}

// PickAction plans the requested commits and applies them to HEAD
func PickAction(ctx *runtime.Context, opts PickOptions) error {
	splog := ctx.Splog

	req, err := ParseRequest(opts.Args, opts.Skip)
	if err != nil {
		return err
	}

	if opts.Remote != "" {
		splog.Info("Fetching %s...", opts.Remote)
		err := git.FetchRemote(ctx.Context, ctx.GitRunner(), opts.Remote, git.FetchOptions{
			Retries: ctx.Config.MaxRetries,
			Delay:   ctx.Config.RetryDelayDuration(),
			Logger:  ctx.Logger(),
		})
		if err != nil {
			return err
		}
	}

	planner, err := ctx.Planner()
	if err != nil {
		return err
	}
	plan, err := planner.Plan(ctx.Context, req)
	if err != nil {
		return err
	}
	printPlan(splog, plan, ctx.Config.MaxCommitsDisplay, ctx.Verbose)

	mode := opts.Mode()
	if mode == engine.ModeInteractive && !opts.Yes && tui.IsTTY() {
		confirmed, err := tui.PromptConfirm(fmt.Sprintf("Apply %d commit(s) to HEAD?", len(plan.Commits)), true)
		if err != nil {
			return fmt.Errorf("failed to get confirmation: %w", err)
		}
		if !confirmed {
			splog.Info("Pick canceled.")
			return nil
		}
	}

	runner, done := newRunner(ctx)
	s, err := runner.Run(ctx.Context, plan, mode, opts.SessionID)
	done()
	return finishRun(ctx, runner, planner, s, err)
}

// finishRun reports a session returned by the runner and, when it paused on
// a conflict in a terminal, asks the user what to do next
func finishRun(ctx *runtime.Context, runner *engine.Runner, planner *engine.Planner, s *engine.Session, runErr error) error {
	splog := ctx.Splog
	for {
		if s == nil {
			return runErr
		}
		printSession(splog, s)

		if runErr != nil {
			if !s.Simulated {
				splog.Tip("Fix the problem, then run: smartpick resume %s", s.RunID)
			}
			return runErr
		}
		if s.Done() {
			return nil
		}

		printPaused(splog, s)
		if !tui.IsTTY() {
			return nil
		}
		action, err := tui.PromptConflictAction(shortID(s.Entries[s.Cursor].ID))
		if errors.Is(err, tui.ErrCanceled) || errors.Is(err, tui.ErrInteractiveDisabled) {
			return nil
		}
		if err != nil {
			return err
		}

		switch action {
		case tui.ActionSkip:
			s, runErr = runner.Skip(ctx.Context, s.RunID, planner)
		case tui.ActionAbort:
			if err := runner.Discard(ctx.Context, s.RunID); err != nil {
				return err
			}
			splog.Info("Run %s aborted.", s.RunID)
			return nil
		default:
			return nil
		}
	}
}
