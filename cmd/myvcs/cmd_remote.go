package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRemoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remote",
		Short: "List named remotes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, _, err := openRepo(cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			remotes, err := r.Remotes()
			if err != nil {
				return err
			}
			for _, rem := range remotes {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", rem.Name, rem.Location)
			}
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <name> <path-or-url>",
		Short: "Add or update a named remote",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, _, err := openRepo(cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			if err := r.SetRemote(args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added remote %q -> %s\n", args[0], args[1])
			return nil
		},
	})
	return cmd
}

func newPushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "push <remote>",
		Short: "Send the current branch to a remote path, URL or named remote",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, _, err := openRepo(cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			res, err := r.Push(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if res.Old == res.New {
				fmt.Fprintf(out, "%s already up to date on %s\n", res.Branch, res.Remote)
				return nil
			}
			old := res.Old.Short()
			if old == "" {
				old = "(new)"
			}
			fmt.Fprintf(out, "%s: %s..%s -> %s (%d object(s))\n", res.Branch, old, res.New.Short(), res.Remote, res.Objects)
			return nil
		},
	}
}

func newPullCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pull <remote>",
		Short: "Fetch the current branch from a remote and merge it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, _, err := openRepo(cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			res, err := r.Pull(cmd.Context(), args[0])
			if err != nil {
				return reportConflicts(cmd, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "fetched %d object(s) from %s\n", res.Objects, res.Remote)
			printMergeResult(cmd, res.Merge)
			return nil
		},
	}
}
