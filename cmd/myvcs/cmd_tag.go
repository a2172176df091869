package main

import (
	"fmt"

	"github.com/odvcencio/myvcs/pkg/repo"
	"github.com/spf13/cobra"
)

func newTagCmd() *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "tag [name] [commit]",
		Short: "Tag a commit (default HEAD), or list tags",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, _, err := openRepo(cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			if list || len(args) == 0 {
				return printTags(cmd, r)
			}
			rev := ""
			if len(args) == 2 {
				rev = args[1]
			}
			h, err := r.CreateTag(args[0], rev)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "tagged %s as %s\n", h.Short(), args[0])
			return nil
		},
	}
	cmd.Flags().BoolVarP(&list, "list", "l", false, "list tags")
	return cmd
}

func newTagsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List tags with their commits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, _, err := openRepo(cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			return printTags(cmd, r)
		},
	}
}

func printTags(cmd *cobra.Command, r *repo.Repo) error {
	tags, err := r.Tags()
	if err != nil {
		return err
	}
	for _, t := range tags {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", t.Commit, t.Name)
	}
	return nil
}
