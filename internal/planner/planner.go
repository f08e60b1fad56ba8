// Package planner turns a research query into a free-text research plan.
package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kmajewski/deepscout/internal/api"
)

// ErrEmptyQuery is returned when the research query is blank.
var ErrEmptyQuery = errors.New("research query must not be empty")

// Planner generates research plans with a single model call.
type Planner struct {
	invoker api.Invoker
	model   string
}

// New creates a Planner bound to the given invoker and model id.
func New(invoker api.Invoker, model string) *Planner {
	return &Planner{invoker: invoker, model: model}
}

// Generate produces a research plan for the query. Invocation errors are
// propagated unchanged; retry policy belongs to the pipeline driver.
func (p *Planner) Generate(ctx context.Context, query string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", ErrEmptyQuery
	}

	resp, err := p.invoker.Invoke(ctx, api.Request{
		Model:  p.model,
		System: planSystemPrompt,
		Messages: []api.Message{
			api.UserMessage(fmt.Sprintf(planPrompt, query)),
		},
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(resp.Text), nil
}
