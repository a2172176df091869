package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAddCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "add <files...>",
		Short: "Stage files for the next commit",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return fmt.Errorf("nothing specified; give files or use -A")
			}
			r, _, err := openRepo(cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			if all {
				return r.AddAll()
			}
			return r.Add(args...)
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "A", false, "stage every change in the working tree")
	return cmd
}

func newRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <files...>",
		Short: "Unstage files, leaving the working tree alone",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, _, err := openRepo(cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			return r.Unstage(args...)
		},
	}
}

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear the staging area",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, _, err := openRepo(cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			return r.ResetIndex()
		},
	}
}
