package actions

import (
	"smartpick.dev/smartpick/internal/runtime"
)

// PlanOptions contains options for the plan command
type PlanOptions struct {
	Args []string
	Skip []string
}

// PlanAction prints the order the requested commits would be applied in
func PlanAction(ctx *runtime.Context, opts PlanOptions) error {
	req, err := ParseRequest(opts.Args, opts.Skip)
	if err != nil {
		return err
	}
	planner, err := ctx.Planner()
	if err != nil {
		return err
	}
	plan, err := planner.Plan(ctx.Context, req)
	if err != nil {
		return err
	}
	printPlan(ctx.Splog, plan, ctx.Config.MaxCommitsDisplay, ctx.Verbose)
	return nil
}
