package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show working tree status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, _, err := openRepo(cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			head, err := r.CurrentBranch()
			if err != nil {
				return err
			}
			st, err := r.Status()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case head.Detached():
				fmt.Fprintf(out, "HEAD detached at %s\n", head.Hash.Short())
			case head.Hash == "":
				fmt.Fprintf(out, "on %s (no commits yet)\n", head.Branch)
			default:
				fmt.Fprintf(out, "on %s\n", head.Branch)
			}

			printSection(out, "conflicts", "!", st.Conflicts)
			printSection(out, "staged", "+", st.Staged)
			printSection(out, "modified", "~", st.Modified)
			printSection(out, "staged, then modified again", "+~", st.PartlyStaged)
			printSection(out, "untracked", "?", st.Untracked)
			if st.Clean() && len(st.Untracked) == 0 {
				fmt.Fprintln(out, "nothing to commit, working tree clean")
			}
			return nil
		},
	}
}

func printSection(out io.Writer, title, mark string, paths []string) {
	if len(paths) == 0 {
		return
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "%s:\n", title)
	for _, p := range paths {
		fmt.Fprintf(out, "  %s %s\n", mark, p)
	}
}
