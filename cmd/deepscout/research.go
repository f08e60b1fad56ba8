package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kmajewski/deepscout/internal/api"
	"github.com/kmajewski/deepscout/internal/config"
	"github.com/kmajewski/deepscout/internal/coordinator"
	"github.com/kmajewski/deepscout/internal/fetch"
	"github.com/kmajewski/deepscout/internal/ledger"
	"github.com/kmajewski/deepscout/internal/pipeline"
	"github.com/kmajewski/deepscout/internal/planner"
	"github.com/kmajewski/deepscout/internal/report"
	"github.com/kmajewski/deepscout/internal/research"
	"github.com/kmajewski/deepscout/internal/split"
	"github.com/kmajewski/deepscout/internal/synth"
	"github.com/kmajewski/deepscout/internal/websearch"
	"github.com/kmajewski/deepscout/pkg/models"
)

var (
	outputDir string
	quietLogs bool
)

var researchCmd = &cobra.Command{
	Use:   "research <query>",
	Short: "Run the research pipeline on a query",
	Long: `Research a query end to end: plan, split into subtasks, dispatch
parallel research agents, and synthesize a cited markdown report.

The report is written under the output directory and the run is recorded in
the history database.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResearch,
}

func init() {
	researchCmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory for the report (default from config)")
	researchCmd.Flags().BoolVarP(&quietLogs, "quiet", "q", false, "Suppress progress logging")
}

func runResearch(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return fmt.Errorf("empty query")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if quietLogs {
		log.SetOutput(io.Discard)
	}

	client, err := api.NewClient(api.ClientConfig{
		Model:         cfg.Models.Researcher,
		APIKey:        cfg.Anthropic.APIKey,
		UseAWSBedrock: cfg.Anthropic.UseBedrock,
		AWSRegion:     cfg.Anthropic.AWSRegion,
		AWSProfile:    cfg.Anthropic.AWSProfile,
	})
	if err != nil {
		return fmt.Errorf("create API client: %w", err)
	}

	p := buildPipeline(client, cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startedAt := time.Now().UTC()
	runID := uuid.New().String()

	color.Cyan("Researching: %s", query)

	final, err := p.Run(ctx, query)
	finishedAt := time.Now().UTC()

	if err != nil {
		recordRun(cfg, client, ledger.Run{
			ID:        runID,
			Query:     query,
			Status:    ledger.RunFailed,
			StartedAt: startedAt, FinishedAt: finishedAt,
		})
		return err
	}

	dir := outputDir
	if dir == "" {
		dir = cfg.Output.Dir
	}
	path, err := report.Write(dir, final)
	if err != nil {
		return err
	}

	recordRun(cfg, client, ledger.Run{
		ID:           runID,
		Query:        query,
		Status:       ledger.RunCompleted,
		SubtaskCount: final.Covered + len(final.Uncovered),
		SourceCount:  len(final.Bibliography),
		ReportPath:   path,
		StartedAt:    startedAt,
		FinishedAt:   finishedAt,
	})

	printSummary(client, final, path, finishedAt.Sub(startedAt))
	return nil
}

func buildPipeline(client *api.Client, cfg *config.Config) *pipeline.Pipeline {
	retry := api.RetryPolicy{
		MaxAttempts: cfg.Research.RetryAttempts,
		BaseDelay:   cfg.Research.RetryBaseDelay,
	}

	var search websearch.Provider
	if cfg.Tavily.APIKey != "" {
		search = websearch.NewTavily(cfg.Tavily.APIKey)
	} else {
		log.Printf("[cli] no Tavily key configured, using DuckDuckGo search")
		search = websearch.NewDuckDuckGo()
	}

	worker := research.NewWorker(research.WorkerConfig{
		Invoker:     client,
		Model:       cfg.Models.Researcher,
		Search:      search,
		Fetcher:     fetch.New(),
		MaxSteps:    cfg.Research.MaxSteps,
		MaxTokens:   int64(cfg.Research.MaxTokens),
		StepTimeout: cfg.Research.StepTimeout,
		Retry:       retry,
	})

	return pipeline.New(
		planner.New(client, cfg.Models.Planner),
		split.New(client, cfg.Models.Splitter, retry),
		coordinator.New(worker),
		synth.New(client, cfg.Models.Researcher, retry),
		retry,
	)
}

// recordRun stores the run in the history ledger. History is best effort; a
// ledger failure must not fail a run whose report is already on disk.
func recordRun(cfg *config.Config, client *api.Client, run ledger.Run) {
	in, out := client.Tracker().Total()
	run.InputTokens = int(in)
	run.OutputTokens = int(out)

	path := cfg.Output.HistoryDB
	if path == "" {
		path = ledger.DefaultPath()
	}
	l, err := ledger.Open(path)
	if err != nil {
		log.Printf("[cli] open history ledger: %v", err)
		return
	}
	defer l.Close()
	if err := l.Record(run); err != nil {
		log.Printf("[cli] record run: %v", err)
	}
}

func printSummary(client *api.Client, final *models.FinalReport, path string, elapsed time.Duration) {
	green := color.New(color.FgGreen, color.Bold)
	green.Printf("\nReport written to %s\n", path)

	fmt.Printf("  Sources cited:  %d\n", len(final.Bibliography))
	if len(final.Uncovered) > 0 {
		color.Yellow("  Not covered:    %s", strings.Join(final.Uncovered, ", "))
	}
	in, out := client.Tracker().Total()
	fmt.Printf("  Tokens:         %d in / %d out over %d calls\n", in, out, client.Tracker().Calls())
	fmt.Printf("  Elapsed:        %s\n", elapsed.Round(time.Second))
}
