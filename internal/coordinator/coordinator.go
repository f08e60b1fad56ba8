// Package coordinator fans research workers out over subtasks and collects
// their reports.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/kmajewski/deepscout/pkg/models"
)

// Researcher investigates one subtask. Implementations never return an
// error; failures are captured inside the report.
type Researcher interface {
	Research(ctx context.Context, subtask models.Subtask) models.WorkerReport
}

// ErrAllWorkersFailed is returned when no worker produced a successful
// report. The individual failure details live in the reports.
var ErrAllWorkersFailed = errors.New("all research workers failed")

// Coordinator dispatches one worker per subtask in parallel and reassembles
// the reports in subtask order.
type Coordinator struct {
	researcher Researcher
}

// New creates a Coordinator that dispatches work to the given researcher.
func New(researcher Researcher) *Coordinator {
	return &Coordinator{researcher: researcher}
}

// Run researches every subtask concurrently and waits for all of them: an
// independent subtask's failure says nothing about its siblings, so there is
// no fail-fast. The returned reports follow the original subtask order
// regardless of completion order. When every worker fails the run itself has
// failed, and the reports are returned alongside the error so callers can
// still inspect them.
func (c *Coordinator) Run(ctx context.Context, subtasks []models.Subtask) ([]models.WorkerReport, error) {
	if len(subtasks) == 0 {
		return nil, errors.New("no subtasks to research")
	}

	reports := make([]models.WorkerReport, len(subtasks))
	var wg sync.WaitGroup

	for i, subtask := range subtasks {
		wg.Add(1)
		go func(slot int, st models.Subtask) {
			defer wg.Done()
			reports[slot] = c.researcher.Research(ctx, st)
		}(i, subtask)
	}
	wg.Wait()

	failed := 0
	for _, report := range reports {
		if report.Failed() {
			failed++
		}
	}

	if failed == len(reports) {
		return reports, fmt.Errorf("%w (%d subtasks)", ErrAllWorkersFailed, len(reports))
	}
	if failed > 0 {
		log.Printf("[coordinator] %d of %d workers failed; synthesis will flag the uncovered areas", failed, len(reports))
	}

	return reports, nil
}
