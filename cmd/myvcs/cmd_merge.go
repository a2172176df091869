package main

import (
	"fmt"

	"github.com/odvcencio/myvcs/pkg/repo"
	"github.com/spf13/cobra"
)

func newMergeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "merge <branch>",
		Short: "Merge a branch into the current branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, _, err := openRepo(cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			res, err := r.Merge(args[0])
			if err != nil {
				return reportConflicts(cmd, err)
			}
			printMergeResult(cmd, res)
			return nil
		},
	}
}

func printMergeResult(cmd *cobra.Command, res *repo.MergeResult) {
	out := cmd.OutOrStdout()
	switch res.Outcome {
	case repo.MergeUpToDate:
		fmt.Fprintln(out, "already up to date")
	case repo.MergeFastForward:
		fmt.Fprintf(out, "fast-forward to %s\n", res.Commit.Short())
	default:
		fmt.Fprintf(out, "merged as %s (base %s)\n", res.Commit.Short(), res.Base.Short())
	}
}

func newRevertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revert <commit>",
		Short: "Commit the inverse of an earlier commit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, _, err := openRepo(cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			h, err := r.Revert(args[0])
			if err != nil {
				return reportConflicts(cmd, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reverted as %s\n", h.Short())
			return nil
		},
	}
}

// reportConflicts lists the conflicted files of a conflict error before
// returning it.
func reportConflicts(cmd *cobra.Command, err error) error {
	if !repo.IsConflict(err) {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "conflicts:")
	for _, p := range repo.ConflictFiles(err) {
		fmt.Fprintf(out, "  ! %s\n", p)
	}
	return err
}
