// Package split turns a research plan into a validated list of subtasks.
package split

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/kmajewski/deepscout/internal/api"
	"github.com/kmajewski/deepscout/pkg/models"
)

// Subtask count bounds enforced on every split.
const (
	MinSubtasks = 3
	MaxSubtasks = 8
)

// MalformedTaskListError indicates the model's task list violated a
// structural invariant. After one bounded repair attempt it is fatal to the
// split stage.
type MalformedTaskListError struct {
	// Reason names the violated invariant.
	Reason string
	// Response is a preview of the offending model output.
	Response string
}

// Error implements the error interface.
func (e *MalformedTaskListError) Error() string {
	return fmt.Sprintf("malformed task list: %s", e.Reason)
}

// rawSubtask is the JSON structure the splitting model returns per task.
type rawSubtask struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Instructions string `json:"instructions"`
}

// Splitter produces subtask lists with a single model call plus strict
// parsing and one bounded repair retry.
type Splitter struct {
	invoker api.Invoker
	model   string
	retry   api.RetryPolicy
}

// New creates a Splitter bound to the given invoker and model id.
func New(invoker api.Invoker, model string, retry api.RetryPolicy) *Splitter {
	return &Splitter{invoker: invoker, model: model, retry: retry}
}

// Split asks the model to decompose the plan and validates the result. On a
// structural failure it makes exactly one repair attempt with a clarifying
// follow-up prompt before surfacing the error.
func (s *Splitter) Split(ctx context.Context, plan string) ([]models.Subtask, error) {
	response, err := s.invoke(ctx, fmt.Sprintf(splitPrompt, MinSubtasks, MaxSubtasks, plan))
	if err != nil {
		return nil, err
	}

	tasks, parseErr := ParseResponse(response)
	if parseErr == nil {
		return tasks, nil
	}

	reason := parseErr.Error()
	var malformed *MalformedTaskListError
	if errors.As(parseErr, &malformed) {
		reason = malformed.Reason
	}
	log.Printf("[split] first response malformed (%s), attempting repair", reason)

	repaired, err := s.invoke(ctx, fmt.Sprintf(repairPrompt, MinSubtasks, MaxSubtasks, plan, reason))
	if err != nil {
		return nil, err
	}

	// Repair budget is one attempt; a second structural failure is final.
	tasks, parseErr = ParseResponse(repaired)
	if parseErr != nil {
		return nil, parseErr
	}
	return tasks, nil
}

// invoke makes one splitting call with bounded retry for transient failures.
func (s *Splitter) invoke(ctx context.Context, prompt string) (string, error) {
	var text string
	err := s.retry.Do(ctx, func() error {
		resp, err := s.invoker.Invoke(ctx, api.Request{
			Model:  s.model,
			System: splitSystemPrompt,
			Messages: []api.Message{
				api.UserMessage(prompt),
			},
		})
		if err != nil {
			return err
		}
		text = resp.Text
		return nil
	})
	return text, err
}

// ParseResponse extracts and validates the subtask list from a model
// response. Parsing is lenient (the first syntactically valid JSON array
// found amid surrounding prose is used); validation is strict.
func ParseResponse(response string) ([]models.Subtask, error) {
	fragment, ok := extractJSONArray(response)
	if !ok {
		preview := response
		if len(preview) > 300 {
			preview = preview[:300] + "... (truncated)"
		}
		return nil, &MalformedTaskListError{
			Reason:   "no valid JSON array found in response",
			Response: preview,
		}
	}

	var raw []rawSubtask
	if err := json.Unmarshal(fragment, &raw); err != nil {
		return nil, &MalformedTaskListError{
			Reason:   fmt.Sprintf("array entries are not task records: %v", err),
			Response: string(fragment),
		}
	}

	if len(raw) < MinSubtasks || len(raw) > MaxSubtasks {
		return nil, &MalformedTaskListError{
			Reason: fmt.Sprintf("expected between %d and %d subtasks, got %d", MinSubtasks, MaxSubtasks, len(raw)),
		}
	}

	seen := make(map[string]bool, len(raw))
	tasks := make([]models.Subtask, len(raw))
	for i, rt := range raw {
		id := strings.TrimSpace(rt.ID)
		title := strings.TrimSpace(rt.Title)
		instructions := strings.TrimSpace(rt.Instructions)

		if id == "" || title == "" || instructions == "" {
			return nil, &MalformedTaskListError{
				Reason: fmt.Sprintf("subtask %d is missing id, title, or instructions", i+1),
			}
		}
		// Colliding ids make subtask identity ambiguous; fail rather
		// than silently renaming.
		if seen[id] {
			return nil, &MalformedTaskListError{
				Reason: fmt.Sprintf("duplicate subtask id %q", id),
			}
		}
		seen[id] = true

		tasks[i] = models.Subtask{ID: id, Title: title, Instructions: instructions}
	}

	return tasks, nil
}

// extractJSONArray returns the first syntactically valid JSON array in the
// text, so prose before or after the data does not break parsing.
func extractJSONArray(text string) (json.RawMessage, bool) {
	for start := 0; start < len(text); start++ {
		if text[start] != '[' {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(text[start:]))
		var fragment json.RawMessage
		if err := dec.Decode(&fragment); err == nil {
			return fragment, true
		}
	}
	return nil, false
}
