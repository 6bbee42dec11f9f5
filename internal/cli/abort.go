package cli

import (
	"github.com/spf13/cobra"

	"smartpick.dev/smartpick/internal/actions"
	"smartpick.dev/smartpick/internal/runtime"
)

// newAbortCmd creates the abort command
func newAbortCmd() *cobra.Command {
	var (
		force bool
	)

	cmd := &cobra.Command{
		Use:   "abort [session]",
		Short: "Abort a run halted by a conflict",
		Long: `Aborts a run halted by a conflict.

The open cherry-pick is rolled back and the stored session is deleted.
Commits the run already applied stay on the branch.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeSessions,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx *runtime.Context) error {
				return actions.AbortAction(ctx, actions.AbortOptions{
					SessionID: firstArg(args),
					Force:     force,
				})
			})
		},
	}

	// Add flags
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Do not prompt for confirmation; abort immediately.")

	return cmd
}
