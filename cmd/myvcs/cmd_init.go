package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/odvcencio/myvcs/pkg/repo"
	"github.com/odvcencio/myvcs/pkg/worktree"
	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	var branch string

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Create an empty myvcs repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}

			abs, err := filepath.Abs(path)
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}
			if err := os.MkdirAll(abs, 0o755); err != nil {
				return fmt.Errorf("create directory: %w", err)
			}

			r, err := repo.InitBranch(abs, branch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "initialized empty myvcs repository in %s\n", filepath.Join(r.RootDir, worktree.MetaDir)+string(filepath.Separator))
			return nil
		},
	}
	cmd.Flags().StringVarP(&branch, "branch", "b", "", "name of the initial branch (default main)")
	return cmd
}
