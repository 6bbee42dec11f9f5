package cli

import (
	"github.com/spf13/cobra"

	"smartpick.dev/smartpick/internal/actions"
	"smartpick.dev/smartpick/internal/runtime"
)

// newPlanCmd creates the plan command
func newPlanCmd() *cobra.Command {
	var opts actions.PlanOptions

	cmd := &cobra.Command{
		Use:   "plan <commit|start..end>...",
		Short: "Show the order smartpick would apply commits in",
		Long: `Builds the plan for the given commits and prints it without applying
anything. Use --verbose to list the dependency edges behind the order.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Args = args
			return run(cmd, func(ctx *runtime.Context) error {
				return actions.PlanAction(ctx, opts)
			})
		},
	}

	cmd.Flags().StringArrayVar(&opts.Skip, "skip", nil, "Leave a commit out of the selection. Repeatable.")

	return cmd
}
