package cli

import (
	"github.com/spf13/cobra"

	"smartpick.dev/smartpick/internal/actions"
	"smartpick.dev/smartpick/internal/runtime"
)

// newPickCmd creates the pick command
func newPickCmd() *cobra.Command {
	var opts actions.PickOptions

	cmd := &cobra.Command{
		Use:   "pick <commit|start..end>...",
		Short: "Cherry-pick commits and the commits they depend on",
		Long: `Cherry-picks the given commits onto HEAD.

Each argument is a single commit or an inclusive range written START..END.
Dependencies that are not part of the selection are either added to the
plan (auto_add_dependencies) or reported as warnings before anything is
applied.

Examples:
  smartpick pick abc123
  smartpick pick abc123..def456 --skip 0badc0de
  smartpick pick feature --remote origin --auto
  smartpick pick abc123 --dry-run`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Args = args
			return run(cmd, func(ctx *runtime.Context) error {
				return actions.PickAction(ctx, opts)
			})
		},
	}

	cmd.Flags().BoolVar(&opts.Auto, "auto", false, "Resolve what can be resolved and skip the rest without stopping.")
	cmd.Flags().BoolVarP(&opts.DryRun, "dry-run", "n", false, "Simulate the run without touching the working tree.")
	cmd.Flags().StringArrayVar(&opts.Skip, "skip", nil, "Leave a commit out of the selection. Repeatable.")
	cmd.Flags().StringVar(&opts.Remote, "remote", "", "Fetch this remote before planning.")
	cmd.Flags().StringVar(&opts.SessionID, "session", "", "Use this id for the run instead of a generated one.")
	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "Do not ask for confirmation before applying.")

	return cmd
}
