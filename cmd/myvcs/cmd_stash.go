package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newStashCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stash",
		Short: "Shelve staged and tracked working changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, _, err := openRepo(cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			if err := r.Stash(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "saved working directory and index state")
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "pop",
		Short: "Re-apply the newest stash entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, _, err := openRepo(cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			if err := r.StashPop(); err != nil {
				return reportConflicts(cmd, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "restored stash entry")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stash entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, _, err := openRepo(cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			entries, err := r.StashList()
			if err != nil {
				return err
			}
			for i, e := range entries {
				base := e.Base.Short()
				if base == "" {
					base = "(no commit)"
				}
				ts := time.Unix(e.Timestamp, 0).UTC().Format(time.RFC3339)
				fmt.Fprintf(cmd.OutOrStdout(), "stash@{%d} %s on %s, %d file(s)\n", i, ts, base, len(e.Working))
			}
			return nil
		},
	})
	return cmd
}
