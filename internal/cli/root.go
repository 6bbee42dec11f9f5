package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root cobra command
func NewRootCmd(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "smartpick",
		Short: "Smartpick cherry-picks commits together with the commits they depend on",
		Long: `Smartpick cherry-picks commits onto the current branch.

Before applying anything it finds the commits your selection depends on,
orders the plan so every dependency lands first, and resolves the conflicts
it can prove are safe. Runs that stop on a conflict are saved and can be
resumed, skipped past or aborted.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Show debug output and dependency details.")
	rootCmd.PersistentFlags().StringArray("set", nil, "Override a config value for this command, as key=value. Repeatable.")

	rootCmd.AddCommand(newPickCmd())
	rootCmd.AddCommand(newPlanCmd())
	rootCmd.AddCommand(newResumeCmd())
	rootCmd.AddCommand(newSkipCmd())
	rootCmd.AddCommand(newAbortCmd())
	rootCmd.AddCommand(newSessionsCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newStatsCmd())

	return rootCmd
}
