package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "deepscout [query]",
	Short: "Multi-agent deep research from the command line",
	Long: `Deepscout turns a research query into a cited report.

It plans the research, splits the plan into subtasks, dispatches parallel
research agents with web search and page fetch tools, and synthesizes their
findings into a single markdown report with a deduplicated bibliography.

With a query argument, runs the research pipeline directly. Subcommands
manage configuration and run history.`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return runResearch(cmd, args)
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(researchCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}
