package main

import (
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/spf13/cobra"

	"github.com/benvon/slotfinder/cmd/slotctl/commands"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:           "slotctl",
		Short:         "Query Todoist tasks and find free time",
		Long:          "CLI for task queries, free-slot search and schedule imports against Todoist",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging to stderr")

	rootCmd.AddCommand(commands.NewQueryCmd())
	rootCmd.AddCommand(commands.NewFreeSlotsCmd())
	rootCmd.AddCommand(commands.NewImportCmd())
	rootCmd.AddCommand(commands.NewJobsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
