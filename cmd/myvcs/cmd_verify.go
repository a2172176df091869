package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Verify object integrity and ref reachability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, _, err := openRepo(cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			report, err := r.Verify()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, h := range report.Corrupt {
				fmt.Fprintf(out, "corrupt object %s\n", h)
			}
			for _, ref := range report.Missing {
				fmt.Fprintf(out, "%s reaches a missing object\n", ref)
			}
			if !report.OK() {
				return fmt.Errorf("verify failed: %d corrupt object(s), %d broken ref(s)", len(report.Corrupt), len(report.Missing))
			}
			fmt.Fprintf(out, "ok: verified %d object(s)\n", report.Objects)
			return nil
		},
	}
}
