// Command tasknestctl runs the budget allocator offline and manages the
// SQLite schema.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"tasknest/internal/cli"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tasknestctl",
		Short:         "Budget allocation calculator and maintenance tool",
		Long:          "Split a monthly budget across categories, check spend against it and rebalance percentages without a running server.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newAllocateCmd(), newOverspendCmd(), newAdjustCmd(), newMigrateCmd())
	return root
}

func main() {
	cli.LoadEnvFile()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
