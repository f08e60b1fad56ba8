// Package synth merges per-subtask findings into one final report. It is the
// only stage that sees every worker's output, so it also owns the
// deterministic bookkeeping around the model call: which subtasks were not
// covered, and the deduplicated bibliography.
package synth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/kmajewski/deepscout/internal/api"
	"github.com/kmajewski/deepscout/pkg/models"
)

const openQuestionsHeading = "## Open Questions"

// SynthesisFormatError reports a synthesis response that is missing the
// required trailing open-questions section.
type SynthesisFormatError struct {
	Response string
}

func (e *SynthesisFormatError) Error() string {
	return "synthesis response missing open questions section"
}

// ErrNoReports is returned when synthesis is asked to run with no successful
// findings to merge.
var ErrNoReports = errors.New("no successful reports to synthesize")

// Synthesizer produces the final report from worker findings.
type Synthesizer struct {
	invoker api.Invoker
	model   string
	retry   api.RetryPolicy
}

func New(invoker api.Invoker, model string, retry api.RetryPolicy) *Synthesizer {
	return &Synthesizer{invoker: invoker, model: model, retry: retry}
}

// Synthesize merges the successful reports into a FinalReport. Failed reports
// contribute their titles to Uncovered and their gathered sources to the
// bibliography, but their text is not fed to the model. If the model's
// response lacks the open-questions section, one repair invocation is made;
// a second malformed response returns a SynthesisFormatError.
func (s *Synthesizer) Synthesize(ctx context.Context, query, plan string, reports []models.WorkerReport) (*models.FinalReport, error) {
	var succeeded []models.WorkerReport
	var uncovered []string
	for _, r := range reports {
		if r.Failed() {
			uncovered = append(uncovered, r.Title)
			continue
		}
		succeeded = append(succeeded, r)
	}
	if len(succeeded) == 0 {
		return nil, ErrNoReports
	}

	prompt := fmt.Sprintf(synthPrompt, query, plan, formatFindings(succeeded))
	messages := []api.Message{api.UserMessage(prompt)}

	text, err := s.invoke(ctx, messages)
	if err != nil {
		return nil, err
	}

	narrative, openQuestions, ok := splitSections(text)
	if !ok {
		log.Printf("[synth] response missing %q section, requesting repair", openQuestionsHeading)
		messages = append(messages,
			api.Message{Role: api.RoleAssistant, Text: text},
			api.UserMessage(synthRepairPrompt),
		)
		text, err = s.invoke(ctx, messages)
		if err != nil {
			return nil, err
		}
		narrative, openQuestions, ok = splitSections(text)
		if !ok {
			return nil, &SynthesisFormatError{Response: text}
		}
	}

	return &models.FinalReport{
		Query:         query,
		Narrative:     narrative,
		OpenQuestions: openQuestions,
		Bibliography:  Bibliography(reports),
		Covered:       len(succeeded),
		Uncovered:     uncovered,
		GeneratedAt:   time.Now().UTC(),
	}, nil
}

func (s *Synthesizer) invoke(ctx context.Context, messages []api.Message) (string, error) {
	var resp *api.Response
	err := s.retry.Do(ctx, func() error {
		var invokeErr error
		resp, invokeErr = s.invoker.Invoke(ctx, api.Request{
			Model:    s.model,
			System:   synthSystemPrompt,
			Messages: messages,
		})
		return invokeErr
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}

// splitSections separates the narrative from the trailing open-questions
// section. The heading must start a line; the last occurrence wins so a
// report quoting the heading mid-text is still split correctly.
func splitSections(text string) (narrative, openQuestions string, ok bool) {
	idx := -1
	offset := 0
	remaining := text
	for {
		i := strings.Index(remaining, openQuestionsHeading)
		if i < 0 {
			break
		}
		at := offset + i
		if at == 0 || text[at-1] == '\n' {
			idx = at
		}
		offset = at + len(openQuestionsHeading)
		remaining = text[offset:]
	}
	if idx < 0 {
		return "", "", false
	}

	narrative = strings.TrimSpace(text[:idx])
	openQuestions = strings.TrimSpace(strings.TrimPrefix(text[idx:], openQuestionsHeading))
	return narrative, openQuestions, true
}

func formatFindings(reports []models.WorkerReport) string {
	var b strings.Builder
	for i, r := range reports {
		if i > 0 {
			b.WriteString("\n---\n\n")
		}
		fmt.Fprintf(&b, "### Finding: %s\n\n", r.Title)
		fmt.Fprintf(&b, "Summary: %s\n\n", r.Summary)
		if r.Analysis != "" {
			fmt.Fprintf(&b, "%s\n\n", r.Analysis)
		}
		if len(r.KeyPoints) > 0 {
			b.WriteString("Key points:\n")
			for _, p := range r.KeyPoints {
				fmt.Fprintf(&b, "- %s\n", p)
			}
			b.WriteString("\n")
		}
		if len(r.Sources) > 0 {
			b.WriteString("Sources:\n")
			for _, src := range r.Sources {
				if src.Title != "" {
					fmt.Fprintf(&b, "- %s (%s)\n", src.Title, src.URL)
				} else {
					fmt.Fprintf(&b, "- %s\n", src.URL)
				}
			}
		}
	}
	return b.String()
}
