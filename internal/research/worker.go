// Package research runs the per-subtask worker loop: repeated model calls
// interleaved with web search and page fetches until a structured report
// emerges or the step budget runs out.
package research

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/kmajewski/deepscout/internal/api"
	"github.com/kmajewski/deepscout/internal/websearch"
	"github.com/kmajewski/deepscout/pkg/models"
)

// stepBudgetExhausted is recorded on reports whose worker ran out of steps
// before producing a final report.
const stepBudgetExhausted = "step budget exhausted"

// WorkerConfig contains configuration for a Worker.
type WorkerConfig struct {
	// Invoker makes the model calls.
	Invoker api.Invoker
	// Model is the model id used for every step.
	Model string
	// Search is the web search provider exposed as the web_search tool.
	Search websearch.Provider
	// Fetcher is exposed as the fetch_page tool.
	Fetcher PageFetcher
	// MaxSteps bounds the number of model invocations per subtask.
	MaxSteps int
	// MaxTokens bounds each response.
	MaxTokens int64
	// StepTimeout bounds a single model invocation. Zero means no bound
	// beyond the caller's context.
	StepTimeout time.Duration
	// Retry is the bounded local retry policy for transient failures.
	Retry api.RetryPolicy
}

// Worker researches one subtask at a time. A single Worker is safe for
// concurrent use: each Research call keeps all its state on the stack.
type Worker struct {
	cfg   WorkerConfig
	tools *toolbox
}

// NewWorker creates a Worker with the given configuration.
func NewWorker(cfg WorkerConfig) *Worker {
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = 12
	}
	return &Worker{
		cfg:   cfg,
		tools: &toolbox{search: cfg.Search, fetcher: cfg.Fetcher},
	}
}

// Research investigates one subtask and always returns a WorkerReport, never
// an error: one worker's failure must not abort its siblings. Failed reports
// preserve whatever summary text and sources were gathered before failure.
func (w *Worker) Research(ctx context.Context, subtask models.Subtask) models.WorkerReport {
	messages := []api.Message{
		api.UserMessage(fmt.Sprintf(researchPrompt, subtask.Title, subtask.Instructions)),
	}

	gathered := newSourceSet()
	var lastText string
	steps := 0

	for steps < w.cfg.MaxSteps {
		steps++

		var resp *api.Response
		err := w.cfg.Retry.Do(ctx, func() error {
			r, invokeErr := w.cfg.Invoker.Invoke(ctx, api.Request{
				Model:     w.cfg.Model,
				System:    researchSystemPrompt,
				Messages:  messages,
				Tools:     toolSpecs(),
				MaxTokens: w.cfg.MaxTokens,
				Timeout:   w.cfg.StepTimeout,
			})
			if invokeErr != nil {
				return invokeErr
			}
			resp = r
			return nil
		})
		if err != nil {
			log.Printf("[worker] subtask %s: unrecoverable invocation failure at step %d: %v", subtask.ID, steps, err)
			return w.failed(subtask, steps, err.Error(), lastText, gathered)
		}

		if strings.TrimSpace(resp.Text) != "" {
			lastText = resp.Text
		}

		if len(resp.ToolCalls) > 0 {
			messages = append(messages, api.Message{
				Role:      api.RoleAssistant,
				Text:      resp.Text,
				ToolCalls: resp.ToolCalls,
			})
			messages = append(messages, api.Message{
				Role:        api.RoleUser,
				ToolResults: w.runTools(ctx, subtask.ID, resp.ToolCalls, gathered),
			})
			continue
		}

		// End of turn: the model should have emitted its final report.
		report, parseErr := parseFinalReport(resp.Text)
		if parseErr == nil {
			return w.success(subtask, steps, report, gathered)
		}

		if steps < w.cfg.MaxSteps {
			log.Printf("[worker] subtask %s: step %d ended without a report, nudging", subtask.ID, steps)
			messages = append(messages,
				api.Message{Role: api.RoleAssistant, Text: resp.Text},
				api.UserMessage(nudgePrompt),
			)
		}
	}

	log.Printf("[worker] subtask %s: step budget (%d) exhausted", subtask.ID, w.cfg.MaxSteps)
	return w.failed(subtask, steps, stepBudgetExhausted, lastText, gathered)
}

// runTools executes the model's tool calls. Tool failures are recoverable:
// the error text goes back to the model as a failed tool result.
func (w *Worker) runTools(ctx context.Context, subtaskID string, calls []api.ToolCall, gathered *sourceSet) []api.ToolResult {
	results := make([]api.ToolResult, 0, len(calls))
	for _, call := range calls {
		content, sources, err := w.tools.execute(ctx, call)
		if err != nil {
			log.Printf("[worker] subtask %s: %v", subtaskID, err)
			results = append(results, api.ToolResult{
				ToolCallID: call.ID,
				Content:    err.Error(),
				IsError:    true,
			})
			continue
		}
		gathered.add(sources...)
		results = append(results, api.ToolResult{ToolCallID: call.ID, Content: content})
	}
	return results
}

func (w *Worker) success(subtask models.Subtask, steps int, report *rawReport, gathered *sourceSet) models.WorkerReport {
	// The report's own citations lead; tool-gathered sources follow so
	// nothing consulted is lost.
	ordered := newSourceSet()
	for _, src := range report.Sources {
		ordered.add(models.Source{URL: src.URL, Title: src.Title})
	}
	ordered.add(gathered.list()...)

	return models.WorkerReport{
		SubtaskID: subtask.ID,
		Title:     subtask.Title,
		Status:    models.ReportStatusSuccess,
		Summary:   strings.TrimSpace(report.Summary),
		Analysis:  strings.TrimSpace(report.Analysis),
		KeyPoints: report.KeyPoints,
		Sources:   ordered.list(),
		Steps:     steps,
	}
}

func (w *Worker) failed(subtask models.Subtask, steps int, errMsg, lastText string, gathered *sourceSet) models.WorkerReport {
	report := models.WorkerReport{
		SubtaskID: subtask.ID,
		Title:     subtask.Title,
		Status:    models.ReportStatusFailed,
		Error:     errMsg,
		Sources:   gathered.list(),
		Steps:     steps,
	}

	// Partial findings: the last substantive text the model produced
	// stands in for a summary.
	if text := strings.TrimSpace(lastText); text != "" {
		if len(text) > 2000 {
			text = text[:2000] + "..."
		}
		report.Summary = text
	}
	return report
}
