package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBranchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "branch [name]",
		Short: "List branches, or create one at HEAD",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, _, err := openRepo(cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				if err := r.CreateBranch(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created branch %s\n", args[0])
				return nil
			}

			branches, err := r.Branches()
			if err != nil {
				return err
			}
			for _, b := range branches {
				mark := " "
				if b.Current {
					mark = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", mark, b.Name)
			}
			return nil
		},
	}
}

func newCheckoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checkout <branch|commit>",
		Short: "Switch to a branch, or detach HEAD at a commit",
		Args:  cobra.ExactArgs(1),
		RunE:  runCheckout,
	}
}

func newCheckoutBranchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checkout-branch <name>",
		Short: "Switch to an existing branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, _, err := openRepo(cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			if err := r.CheckoutBranch(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "switched to branch %s\n", args[0])
			return nil
		},
	}
}

func runCheckout(cmd *cobra.Command, args []string) error {
	r, _, err := openRepo(cmd.ErrOrStderr(), false)
	if err != nil {
		return err
	}
	if err := r.Checkout(args[0]); err != nil {
		return err
	}
	head, err := r.CurrentBranch()
	if err != nil {
		return err
	}
	if head.Detached() {
		fmt.Fprintf(cmd.OutOrStdout(), "HEAD is now at %s\n", head.Hash.Short())
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "switched to branch %s\n", head.Branch)
	return nil
}

func newCurrentBranchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "current-branch",
		Short: "Print the current branch",
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
			if head.Detached() {
				fmt.Fprintf(cmd.OutOrStdout(), "(detached at %s)\n", head.Hash.Short())
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), head.Branch)
			return nil
		},
	}
}
