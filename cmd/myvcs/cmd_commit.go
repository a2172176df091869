package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCommitCmd() *cobra.Command {
	var message string
	var all bool

	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Record staged changes to the repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if message == "" {
				return fmt.Errorf("commit message is required (-m)")
			}
			r, _, err := openRepo(cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}

			commit := r.Commit
			if all {
				commit = r.CommitAll
			}
			h, err := commit(message)
			if err != nil {
				return err
			}

			branch := "HEAD"
			if head, err := r.CurrentBranch(); err == nil && !head.Detached() {
				branch = head.Branch
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[%s %s] %s\n", branch, h.Short(), message)
			return nil
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "stage every working tree change first")
	return cmd
}
