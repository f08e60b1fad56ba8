// Package pipeline chains the research stages: plan, split, parallel
// research, synthesis. Each stage is consumed through a small interface so
// the pipeline can be exercised without live model calls.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/kmajewski/deepscout/internal/api"
	"github.com/kmajewski/deepscout/pkg/models"
)

// Planner produces a research plan from a query.
type Planner interface {
	Generate(ctx context.Context, query string) (string, error)
}

// Splitter decomposes a plan into subtasks.
type Splitter interface {
	Split(ctx context.Context, plan string) ([]models.Subtask, error)
}

// Coordinator runs research over subtasks and returns one report per subtask.
type Coordinator interface {
	Run(ctx context.Context, subtasks []models.Subtask) ([]models.WorkerReport, error)
}

// Synthesizer merges worker reports into the final report.
type Synthesizer interface {
	Synthesize(ctx context.Context, query, plan string, reports []models.WorkerReport) (*models.FinalReport, error)
}

// StageError identifies which stage aborted the run. Reports carries
// whatever worker output existed when the failure happened, so callers can
// still show partial findings.
type StageError struct {
	Stage   string
	Err     error
	Reports []models.WorkerReport
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Pipeline wires the four stages together.
type Pipeline struct {
	planner     Planner
	splitter    Splitter
	coordinator Coordinator
	synthesizer Synthesizer
	retry       api.RetryPolicy
}

func New(planner Planner, splitter Splitter, coordinator Coordinator, synthesizer Synthesizer, retry api.RetryPolicy) *Pipeline {
	return &Pipeline{
		planner:     planner,
		splitter:    splitter,
		coordinator: coordinator,
		synthesizer: synthesizer,
		retry:       retry,
	}
}

// Run executes the full pipeline for a query. Worker failures are absorbed
// upstream; an error here means a whole stage could not produce usable
// output and the run stopped.
func (p *Pipeline) Run(ctx context.Context, query string) (*models.FinalReport, error) {
	runID := shortRunID()
	log.Printf("[pipeline] run %s: planning %q", runID, truncateQuery(query))

	var plan string
	err := p.retry.Do(ctx, func() error {
		var planErr error
		plan, planErr = p.planner.Generate(ctx, query)
		return planErr
	})
	if err != nil {
		return nil, &StageError{Stage: "plan", Err: err}
	}

	subtasks, err := p.splitter.Split(ctx, plan)
	if err != nil {
		return nil, &StageError{Stage: "split", Err: err}
	}
	log.Printf("[pipeline] run %s: %d subtasks", runID, len(subtasks))

	reports, err := p.coordinator.Run(ctx, subtasks)
	if err != nil {
		return nil, &StageError{Stage: "research", Err: err, Reports: reports}
	}

	final, err := p.synthesizer.Synthesize(ctx, query, plan, reports)
	if err != nil {
		return nil, &StageError{Stage: "synthesize", Err: err, Reports: reports}
	}

	log.Printf("[pipeline] run %s: report complete, %d sources, %d subtasks uncovered",
		runID, len(final.Bibliography), len(final.Uncovered))
	return final, nil
}

func shortRunID() string {
	return uuid.New().String()[:8]
}

func truncateQuery(query string) string {
	query = strings.TrimSpace(query)
	if len(query) > 80 {
		return query[:80] + "..."
	}
	return query
}
