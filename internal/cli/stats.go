package cli

import (
	"github.com/spf13/cobra"

	"smartpick.dev/smartpick/internal/actions"
	"smartpick.dev/smartpick/internal/runtime"
)

// newStatsCmd creates the stats command
func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize recorded run statistics",
		Long: `Summarizes the events recorded while record_stats is enabled.

Enable recording with:
  smartpick config set record_stats true`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, func(ctx *runtime.Context) error {
				return actions.StatsAction(ctx)
			})
		},
	}
}
