package cli

import (
	"context"

	"github.com/spf13/cobra"

	"smartpick.dev/smartpick/internal/runtime"
)

// run opens a runtime context for the repository in the working directory,
// passes it to fn and releases it afterwards
func run(cmd *cobra.Command, fn func(ctx *runtime.Context) error) error {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return err
	}
	overrides, err := cmd.Flags().GetStringArray("set")
	if err != nil {
		return err
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, err := runtime.Open(parent, runtime.Options{
		Out:       cmd.OutOrStdout(),
		Verbose:   verbose,
		Overrides: overrides,
	})
	if err != nil {
		return err
	}
	defer func() { _ = ctx.Close() }()

	return fn(ctx)
}
