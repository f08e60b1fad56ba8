package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kmajewski/deepscout/internal/config"
	"github.com/kmajewski/deepscout/internal/ledger"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past research runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		path := cfg.Output.HistoryDB
		if path == "" {
			path = ledger.DefaultPath()
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			fmt.Println("No runs recorded yet.")
			return nil
		}

		l, err := ledger.Open(path)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer l.Close()

		runs, err := l.List(historyLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded yet.")
			return nil
		}

		printRuns(runs)
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum runs to show")
}

func printRuns(runs []ledger.Run) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tSTATUS\tQUERY\tSUBTASKS\tSOURCES\tTOKENS\tREPORT")
	for _, run := range runs {
		status := string(run.Status)
		if run.Status == ledger.RunFailed {
			status = color.RedString(status)
		} else {
			status = color.GreenString(status)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d/%d\t%s\n",
			run.StartedAt.Local().Format(time.DateTime),
			status,
			truncate(run.Query, 50),
			run.SubtaskCount,
			run.SourceCount,
			run.InputTokens, run.OutputTokens,
			run.ReportPath,
		)
	}
	w.Flush()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
