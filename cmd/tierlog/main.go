package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tierlog",
		Short: "Priority-tiered log buffer with size-bounded export",
		Long: "tierlog keeps the most recent Info, Debug and Error entries in fixed-size\n" +
			"ring buffers and exports them as payloads that fit a byte budget.",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newDumpCmd())
	rootCmd.AddCommand(newHashTokenCmd())
	return rootCmd
}
