package cli

import (
	"github.com/spf13/cobra"

	"smartpick.dev/smartpick/internal/git"
	"smartpick.dev/smartpick/internal/session"
)

// completeSessions is a helper for cobra.ValidArgsFunction that returns
// the ids of the runs stored in the current repository.
func completeSessions(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	repo, err := git.OpenRepository(".")
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	ids, err := session.NewFileStore(repo.GitDir()).List()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return ids, cobra.ShellCompDirectiveNoFileComp
}
