package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore [commit] <file>",
		Short: "Restore a file from a commit (default HEAD) and stage it",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rev, file := "HEAD", args[0]
			if len(args) == 2 {
				rev, file = args[0], args[1]
			}
			r, _, err := openRepo(cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			if err := r.Restore(file, rev); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "restored %s from %s\n", file, rev)
			return nil
		},
	}
}
