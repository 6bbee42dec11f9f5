package actions

import (
	"fmt"
	"strings"

	"smartpick.dev/smartpick/internal/runtime"
)

// ResumeOptions contains options for the resume command
type ResumeOptions struct {
	SessionID string
}

// ResumeAction continues a paused or interrupted run
func ResumeAction(ctx *runtime.Context, opts ResumeOptions) error {
	runID, err := resolveSessionID(ctx, opts.SessionID)
	if err != nil {
		return err
	}
	planner, err := ctx.Planner()
	if err != nil {
		return err
	}

	ctx.Splog.Info("Resuming %s...", runID)
	runner, done := newRunner(ctx)
	s, err := runner.Resume(ctx.Context, runID, planner)
	done()
	return finishRun(ctx, runner, planner, s, err)
}

// SkipOptions contains options for the skip command
type SkipOptions struct {
	SessionID string
}

// SkipAction drops the commit a paused run stopped at and continues
func SkipAction(ctx *runtime.Context, opts SkipOptions) error {
	runID, err := resolveSessionID(ctx, opts.SessionID)
	if err != nil {
		return err
	}
	planner, err := ctx.Planner()
	if err != nil {
		return err
	}

	runner, done := newRunner(ctx)
	s, err := runner.Skip(ctx.Context, runID, planner)
	done()
	return finishRun(ctx, runner, planner, s, err)
}

// resolveSessionID picks the only stored session when id is empty
func resolveSessionID(ctx *runtime.Context, id string) (string, error) {
	if id != "" {
		return id, nil
	}
	ids, err := ctx.Store.List()
	if err != nil {
		return "", err
	}
	switch len(ids) {
	case 0:
		return "", fmt.Errorf("no smartpick run to continue")
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("several runs are stored, name one of: %s", strings.Join(ids, ", "))
	}
}
