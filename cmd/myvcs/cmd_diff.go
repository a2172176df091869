package main

import (
	"fmt"

	"github.com/odvcencio/myvcs/pkg/repo"
	"github.com/spf13/cobra"
)

func newDiffCmd() *cobra.Command {
	var from, to string
	var stat bool

	cmd := &cobra.Command{
		Use:   "diff [<file> | <commit1> <commit2>]",
		Short: "Diff a file against HEAD, or two commits",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, _, err := openRepo(cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(args) == 2 {
				from, to = args[0], args[1]
			}
			if from != "" || to != "" {
				if from == "" || to == "" {
					return fmt.Errorf("both --from and --to are required")
				}
				diffs, err := r.DiffCommits(from, to)
				if err != nil {
					return err
				}
				if stat {
					printStat(cmd, diffs)
					return nil
				}
				fmt.Fprint(out, repo.JoinDiffs(diffs))
				return nil
			}

			if len(args) != 1 {
				return fmt.Errorf("give a file, or two commits")
			}
			d, err := r.DiffFile(args[0])
			if err != nil {
				return err
			}
			if stat {
				printStat(cmd, []repo.FileDiff{*d})
				return nil
			}
			fmt.Fprint(out, d.Diff)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "starting commit")
	cmd.Flags().StringVar(&to, "to", "", "ending commit")
	cmd.Flags().BoolVar(&stat, "stat", false, "show added and removed line counts only")
	return cmd
}

func printStat(cmd *cobra.Command, diffs []repo.FileDiff) {
	for _, d := range diffs {
		if d.Added == 0 && d.Removed == 0 {
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s | +%d -%d\n", d.Path, d.Added, d.Removed)
	}
}
