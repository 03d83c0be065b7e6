package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/c9s/hawkes/pkg/solver"
	"github.com/c9s/hawkes/pkg/version"
)

func init() {
	VersionCmd.Flags().Bool("solvers", false, "also list the solver names accepted by --solver")
	RootCmd.AddCommand(VersionCmd)
}

var VersionCmd = &cobra.Command{
	Use:          "version",
	Short:        "show version name",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) %s\n", version.Version, version.VersionGitRef, runtime.Version())

		listSolvers, err := cmd.Flags().GetBool("solvers")
		if err != nil {
			return err
		}

		if listSolvers {
			for _, m := range solver.Methods() {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", m)
			}
		}
		return nil
	},
}
