package main

import (
	"github.com/spf13/cobra"
)

func newBuildCmd() *cobra.Command {
	var f commonFlags
	cmd := &cobra.Command{
		Use:   "build <repo-root> [more-repo-roots...]",
		Short: "Build a full graph over one or more repository roots and write it as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			bk, err := buildRoots(ctx, args, f, nil)
			if err != nil {
				return err
			}
			return writeJSON(f.output, bk)
		},
	}
	addCommonFlags(cmd, &f)
	return cmd
}
