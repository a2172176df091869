package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/odvcencio/myvcs/pkg/repo"
	"github.com/spf13/cobra"
)

func newLogCmd() *cobra.Command {
	var branch string
	var limit int
	var oneline bool

	cmd := &cobra.Command{
		Use:   "log [revision]",
		Short: "Show commit history, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, _, err := openRepo(cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			rev := branch
			if len(args) == 1 {
				if rev != "" {
					return fmt.Errorf("give either a revision or --branch, not both")
				}
				rev = args[0]
			}
			entries, err := r.Log(rev, limit)
			if err != nil {
				return err
			}
			printLog(cmd.OutOrStdout(), entries, oneline)
			return nil
		},
	}
	cmd.Flags().StringVar(&branch, "branch", "", "show the history of this branch")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum commits to show (0 for all)")
	cmd.Flags().BoolVar(&oneline, "oneline", false, "one commit per line")
	return cmd
}

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <file>",
		Short: "List the commits that changed a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, _, err := openRepo(cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			entries, err := r.History(args[0])
			if err != nil {
				return err
			}
			printLog(cmd.OutOrStdout(), entries, true)
			return nil
		},
	}
}

func printLog(out io.Writer, entries []repo.LogEntry, oneline bool) {
	for i, e := range entries {
		if oneline {
			fmt.Fprintf(out, "%s %s\n", e.ID.Short(), firstLine(e.Message))
			continue
		}
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "commit %s\n", e.ID)
		if len(e.Parents) > 1 {
			parents := make([]string, len(e.Parents))
			for j, p := range e.Parents {
				parents[j] = p.Short()
			}
			fmt.Fprintf(out, "Merge: %s\n", strings.Join(parents, " "))
		}
		fmt.Fprintf(out, "Date:   %s\n\n", time.Unix(e.Timestamp, 0).UTC().Format(time.RFC3339))
		for _, line := range strings.Split(strings.TrimRight(e.Message, "\n"), "\n") {
			fmt.Fprintf(out, "    %s\n", line)
		}
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func newReflogCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "reflog [ref]",
		Short: "Show ref update history",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, _, err := openRepo(cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}

			ref := ""
			if len(args) == 1 {
				ref = args[0]
			}
			entries, err := r.Reflog(ref, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, e := range entries {
				sha := e.NewHash.Short()
				if sha == "" {
					sha = "(null)"
				}
				ts := time.Unix(e.Timestamp, 0).UTC().Format(time.RFC3339)
				fmt.Fprintf(out, "%s %s %s %s\n", sha, ts, e.Ref, e.Reason)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum entries to show")
	return cmd
}
