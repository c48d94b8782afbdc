package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "analytics",
		Short: "Inkwell analytics - dashboard snapshots from content exports",
		Long: `Computes the author dashboard offline from a content export
(GET /api/v1/dashboard/export) or from a JSON array of post records.`,
		SilenceUsage: true,
	}
	root.AddCommand(newSnapshotCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
