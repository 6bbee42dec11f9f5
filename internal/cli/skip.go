package cli

import (
	"github.com/spf13/cobra"

	"smartpick.dev/smartpick/internal/actions"
	"smartpick.dev/smartpick/internal/runtime"
)

// newSkipCmd creates the skip command
func newSkipCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "skip [session]",
		Short:             "Drop the commit a paused run stopped at and continue",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeSessions,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx *runtime.Context) error {
				return actions.SkipAction(ctx, actions.SkipOptions{SessionID: firstArg(args)})
			})
		},
	}

	return cmd
}
