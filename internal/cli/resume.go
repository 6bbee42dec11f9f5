package cli

import (
	"github.com/spf13/cobra"

	"smartpick.dev/smartpick/internal/actions"
	"smartpick.dev/smartpick/internal/runtime"
)

// newResumeCmd creates the resume command
func newResumeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "resume [session]",
		Aliases: []string{"continue"},
		Short:   "Continue a run that stopped on a conflict",
		Long: `Continues a paused or interrupted run.

Resolve the conflicted files and stage them with git add before resuming.
The session argument may be left out when only one run is stored.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeSessions,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx *runtime.Context) error {
				return actions.ResumeAction(ctx, actions.ResumeOptions{SessionID: firstArg(args)})
			})
		},
	}

	return cmd
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
